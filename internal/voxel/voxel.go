package voxel

import "fmt"

// Voxel описывает тип блока в ячейке чанка
type Voxel uint8

const (
	Air Voxel = iota
	Stone
	Grass
	Dirt
	Sand
	Snow

	voxelCount
)

var voxelNames = [voxelCount]string{"air", "stone", "grass", "dirt", "sand", "snow"}

// atlasIndices сопоставляет тип блока с индексом текстуры в атласе
var atlasIndices = [voxelCount]uint32{0, 1, 0, 2, 3, 4}

// CullsAsSolid сообщает, скрывает ли блок соседние грани
func (v Voxel) CullsAsSolid() bool {
	return v != Air
}

// AtlasIndex возвращает индекс материала в атласе
func (v Voxel) AtlasIndex() uint32 {
	if v >= voxelCount {
		return 0
	}
	return atlasIndices[v]
}

// Valid проверяет, что значение соответствует известному типу блока
func (v Voxel) Valid() bool {
	return v < voxelCount
}

func (v Voxel) String() string {
	if !v.Valid() {
		return fmt.Sprintf("voxel(%d)", uint8(v))
	}
	return voxelNames[v]
}

// ParseVoxel возвращает блок по имени
func ParseVoxel(name string) (Voxel, bool) {
	for i, n := range voxelNames {
		if n == name {
			return Voxel(i), true
		}
	}
	return Air, false
}

// All возвращает все известные типы блоков
func All() []Voxel {
	out := make([]Voxel, 0, voxelCount)
	for v := Voxel(0); v < voxelCount; v++ {
		out = append(out, v)
	}
	return out
}
