package voxel

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/vec"
)

// RegionWidth - количество чанков в регионе по каждой оси
const (
	RegionWidth  = 16
	RegionSquare = RegionWidth * RegionWidth
	RegionCube   = RegionSquare * RegionWidth
)

// ChunkPos - координаты чанка в мире
type ChunkPos vec.Vec3

// RegionPos - координаты региона в мире
type RegionPos vec.Vec3

// VoxelPos - глобальные координаты блока
type VoxelPos vec.Vec3

// InChunkPos - координаты блока внутри чанка, компоненты всегда в [0, ChunkWidth)
type InChunkPos struct {
	x, y, z uint8
}

// InRegionChunkPos - координаты чанка внутри региона, компоненты в [0, RegionWidth)
type InRegionChunkPos struct {
	x, y, z uint8
}

// NewChunkPos создаёт координаты чанка
func NewChunkPos(x, y, z int) ChunkPos {
	return ChunkPos{X: x, Y: y, Z: z}
}

// Vec возвращает координаты как вектор
func (p ChunkPos) Vec() vec.Vec3 { return vec.Vec3(p) }

// Add смещает координаты чанка
func (p ChunkPos) Add(offset vec.Vec3) ChunkPos {
	return ChunkPos(p.Vec().Add(offset))
}

// Neighbor возвращает соседний чанк в направлении оси
func (p ChunkPos) Neighbor(a Axis) ChunkPos {
	return p.Add(a.Vec())
}

// Region возвращает регион, которому принадлежит чанк
func (p ChunkPos) Region() RegionPos {
	return RegionPos(p.Vec().DivEuclid(RegionWidth))
}

// InRegion возвращает позицию чанка внутри его региона
func (p ChunkPos) InRegion() InRegionChunkPos {
	m := p.Vec().ModEuclid(RegionWidth)
	return InRegionChunkPos{x: uint8(m.X), y: uint8(m.Y), z: uint8(m.Z)}
}

// Column возвращает ключ вертикальной колонки чанка
func (p ChunkPos) Column() vec.Vec2 {
	return p.Vec().XZ()
}

// Origin возвращает глобальную позицию нулевого блока чанка
func (p ChunkPos) Origin() VoxelPos {
	return VoxelPos(p.Vec().Scale(ChunkWidth))
}

func (p ChunkPos) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Vec возвращает координаты как вектор
func (r RegionPos) Vec() vec.Vec3 { return vec.Vec3(r) }

// Chunk собирает координаты чанка из региона и смещения внутри него
func (r RegionPos) Chunk(in InRegionChunkPos) ChunkPos {
	base := r.Vec().Scale(RegionWidth)
	return ChunkPos(base.Add(vec.Vec3{X: int(in.x), Y: int(in.y), Z: int(in.z)}))
}

func (r RegionPos) String() string {
	return fmt.Sprintf("%d_%d_%d", r.X, r.Y, r.Z)
}

// Chunk возвращает чанк, содержащий блок
func (p VoxelPos) Chunk() ChunkPos {
	return ChunkPos(vec.Vec3(p).DivEuclid(ChunkWidth))
}

// InChunk возвращает позицию блока внутри его чанка
func (p VoxelPos) InChunk() InChunkPos {
	m := vec.Vec3(p).ModEuclid(ChunkWidth)
	return InChunkPos{x: uint8(m.X), y: uint8(m.Y), z: uint8(m.Z)}
}

// NewInChunkPos проверяет диапазон и создаёт позицию внутри чанка
func NewInChunkPos(x, y, z int) (InChunkPos, bool) {
	if x < 0 || y < 0 || z < 0 || x >= ChunkWidth || y >= ChunkWidth || z >= ChunkWidth {
		return InChunkPos{}, false
	}
	return InChunkPos{x: uint8(x), y: uint8(y), z: uint8(z)}, true
}

// MustInChunkPos как NewInChunkPos, но паникует при выходе за границы
func MustInChunkPos(x, y, z int) InChunkPos {
	p, ok := NewInChunkPos(x, y, z)
	if !ok {
		panic(fmt.Sprintf("позиция (%d, %d, %d) вне чанка", x, y, z))
	}
	return p
}

// InChunkPosFromIndex обращает Index
func InChunkPosFromIndex(i int) InChunkPos {
	return InChunkPos{
		x: uint8(i % ChunkWidth),
		y: uint8(i / ChunkWidth % ChunkWidth),
		z: uint8(i / ChunkSquare),
	}
}

func (p InChunkPos) X() int { return int(p.x) }
func (p InChunkPos) Y() int { return int(p.y) }
func (p InChunkPos) Z() int { return int(p.z) }

// Index возвращает линейный индекс в контейнере
func (p InChunkPos) Index() int {
	return ChunkSquare*int(p.z) + ChunkWidth*int(p.y) + int(p.x)
}

// OnBoundary сообщает, лежит ли блок на грани чанка
func (p InChunkPos) OnBoundary() bool {
	const last = ChunkWidth - 1
	return p.x == 0 || p.y == 0 || p.z == 0 || p.x == last || p.y == last || p.z == last
}

// NewInRegionChunkPos проверяет диапазон и создаёт позицию внутри региона
func NewInRegionChunkPos(x, y, z int) (InRegionChunkPos, bool) {
	if x < 0 || y < 0 || z < 0 || x >= RegionWidth || y >= RegionWidth || z >= RegionWidth {
		return InRegionChunkPos{}, false
	}
	return InRegionChunkPos{x: uint8(x), y: uint8(y), z: uint8(z)}, true
}

// InRegionChunkPosFromIndex обращает Index
func InRegionChunkPosFromIndex(i int) InRegionChunkPos {
	return InRegionChunkPos{
		x: uint8(i % RegionWidth),
		y: uint8(i / RegionWidth % RegionWidth),
		z: uint8(i / RegionSquare),
	}
}

// Index возвращает линейный индекс слота в регионе
func (p InRegionChunkPos) Index() int {
	return RegionSquare*int(p.z) + RegionWidth*int(p.y) + int(p.x)
}

func (p InRegionChunkPos) X() int { return int(p.x) }
func (p InRegionChunkPos) Y() int { return int(p.y) }
func (p InRegionChunkPos) Z() int { return int(p.z) }
