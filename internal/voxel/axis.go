package voxel

import "github.com/annel0/voxel-world/internal/vec"

// Axis - одно из шести направлений вдоль осей
type Axis uint8

const (
	PosX Axis = iota
	PosY
	PosZ
	NegX
	NegY
	NegZ

	axisCount
)

// Axes перечисляет все направления
var Axes = [axisCount]Axis{PosX, PosY, PosZ, NegX, NegY, NegZ}

var axisVecs = [axisCount]vec.Vec3{
	{X: 1}, {Y: 1}, {Z: 1},
	{X: -1}, {Y: -1}, {Z: -1},
}

// Vec возвращает единичный вектор направления
func (a Axis) Vec() vec.Vec3 {
	return axisVecs[a]
}

// Negate возвращает противоположное направление
func (a Axis) Negate() Axis {
	return (a + 3) % axisCount
}

// IsPositive сообщает, направлена ли ось в сторону роста координаты
func (a Axis) IsPositive() bool {
	return a < NegX
}

// Component возвращает номер компоненты: 0 - x, 1 - y, 2 - z
func (a Axis) Component() int {
	return int(a % 3)
}

func (a Axis) String() string {
	return [axisCount]string{"+x", "+y", "+z", "-x", "-y", "-z"}[a]
}

// SliceDirection задаёт базис среза: right и up лежат в плоскости среза,
// Normal = right × up указывает наружу от лицевой грани.
type SliceDirection struct {
	Right  Axis
	Up     Axis
	Normal Axis
}

// SliceDirections - базисы для шести граней
var SliceDirections = [6]SliceDirection{
	{Right: PosX, Up: PosY, Normal: PosZ},
	{Right: NegX, Up: PosY, Normal: NegZ},
	{Right: NegZ, Up: PosY, Normal: PosX},
	{Right: PosZ, Up: PosY, Normal: NegX},
	{Right: PosX, Up: PosZ, Normal: NegY},
	{Right: NegX, Up: PosZ, Normal: PosY},
}

// Transform переводит координаты (x, y) среза на глубине depth в позицию внутри чанка.
// Отрицательные оси смещаются на ChunkWidth-1, поэтому результат всегда внутри чанка.
func (d SliceDirection) Transform(depth, x, y int) InChunkPos {
	var p [3]int
	place := func(a Axis, v int) {
		if a.IsPositive() {
			p[a.Component()] = v
		} else {
			p[a.Component()] = ChunkWidth - 1 - v
		}
	}
	place(d.Right, x)
	place(d.Up, y)
	place(d.Normal, depth)
	return InChunkPos{x: uint8(p[0]), y: uint8(p[1]), z: uint8(p[2])}
}
