package mesh

import "github.com/annel0/voxel-world/internal/voxel"

// Раскладка упакованной вершины:
//
//	xxxxxx yyyyyy zzzzzz n nnn uuuuu vvvvv
//	  26     20     14  13  10   5     0
//
// Позиция занимает 6 бит на компоненту (0..31), n - признак отрицательной
// нормали, nnn - ось нормали, u/v - размер квада для UV.
const (
	shiftX      = 26
	shiftY      = 20
	shiftZ      = 14
	shiftNegN   = 13
	shiftNormal = 10
	shiftU      = 5
)

// Pack упаковывает вершину
func Pack(pos [3]int, normal voxel.Axis, u, v uint32) uint32 {
	packed := uint32(pos[0])<<shiftX | uint32(pos[1])<<shiftY | uint32(pos[2])<<shiftZ
	if !normal.IsPositive() {
		packed |= 1 << shiftNegN
	}
	n := normal.Vec().Abs()
	normalBits := uint32(n.X<<2 | n.Y<<1 | n.Z)
	return packed | normalBits<<shiftNormal | u<<shiftU | v
}

// Unpack обращает Pack
func Unpack(packed uint32) (pos [3]int, normal voxel.Axis, u, v uint32) {
	pos = [3]int{
		int(packed >> shiftX & 0x3f),
		int(packed >> shiftY & 0x3f),
		int(packed >> shiftZ & 0x3f),
	}
	neg := packed>>shiftNegN&1 == 1
	switch packed >> shiftNormal & 0x7 {
	case 4:
		normal = voxel.PosX
	case 2:
		normal = voxel.PosY
	default:
		normal = voxel.PosZ
	}
	if neg {
		normal = normal.Negate()
	}
	return pos, normal, packed >> shiftU & 0x1f, packed & 0x1f
}

// cornerPos возвращает позицию угла квада (x, y) в координатах среза.
// Для отрицательных осей координата отражается, лицевая грань
// положительной нормали сдвигается на один блок наружу.
func cornerPos(dir voxel.SliceDirection, depth, x, y int) [3]int {
	var p [3]int
	place := func(a voxel.Axis, v int) {
		if a.IsPositive() {
			p[a.Component()] = v
		} else {
			p[a.Component()] = width - v
		}
	}
	place(dir.Right, x)
	place(dir.Up, y)
	if dir.Normal.IsPositive() {
		p[dir.Normal.Component()] = depth + 1
	} else {
		p[dir.Normal.Component()] = width - 1 - depth
	}
	return p
}

func quadVertices(fq FaceQuad) [4]Vertex {
	q := fq.Quad
	w, h := uint32(q.Width()), uint32(q.Height())

	corners := [4]struct {
		x, y int
		u, v uint32
	}{
		{q.StartX, q.StartY, 0, h},
		{q.EndX, q.EndY, w, 0},
		{q.EndX, q.StartY, w, h},
		{q.StartX, q.EndY, 0, 0},
	}

	material := q.Voxel.AtlasIndex()
	var out [4]Vertex
	for i, c := range corners {
		p := cornerPos(fq.Dir, fq.Depth, c.x, c.y)
		out[i] = Vertex{
			Position: [3]float32{float32(p[0]), float32(p[1]), float32(p[2])},
			Normal:   fq.Dir.Normal,
			UV:       [2]uint32{c.u, c.v},
			Material: material,
			Packed:   Pack(p, fq.Dir.Normal, c.u, c.v),
		}
	}
	return out
}
