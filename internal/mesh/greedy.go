package mesh

import "github.com/annel0/voxel-world/internal/voxel"

const width = voxel.ChunkWidth

// Quad - прямоугольник в координатах среза, End не включается
type Quad struct {
	StartX, StartY int
	EndX, EndY     int
	Voxel          voxel.Voxel
}

func newQuad(x, y int, v voxel.Voxel) Quad {
	return Quad{StartX: x, StartY: y, EndX: x + 1, EndY: y + 1, Voxel: v}
}

// Width возвращает ширину квада в блоках
func (q Quad) Width() int { return q.EndX - q.StartX }

// Height возвращает высоту квада в блоках
func (q Quad) Height() int { return q.EndY - q.StartY }

// FaceQuad - квад вместе с направлением и глубиной его среза
type FaceQuad struct {
	Dir   voxel.SliceDirection
	Depth int
	Quad
}

// Quads строит жадное покрытие видимых граней чанка.
// neighbors содержит граничные срезы соседних чанков и обязан быть полным:
// проверка готовности соседей выполняется вызывающей стороной.
func Quads(c *voxel.Chunk, neighbors *voxel.NeighborSlices) []FaceQuad {
	if c.DefinitelyEmpty {
		return nil
	}

	var out []FaceQuad
	for _, dir := range voxel.SliceDirections {
		// Срез depth+1 закрывает грани среза depth, для последнего среза - сосед
		occluder := c.SolidBits(dir, 1)
		for depth := 0; depth < width; depth++ {
			if depth == width-1 {
				occluder = *neighbors.Get(dir.Normal)
			}
			out = meshSlice(c, dir, depth, &occluder, out)
			if depth+2 < width {
				occluder = c.SolidBits(dir, depth+2)
			}
		}
	}
	return out
}

// meshSlice проходит срез построчно, накапливая текущий квад вправо
// и растягивая его вниз при выпуске.
func meshSlice(c *voxel.Chunk, dir voxel.SliceDirection, depth int, occluded *voxel.SliceBits, out []FaceQuad) []FaceQuad {
	var covered voxel.SliceBits

	for y := 0; y < width; y++ {
		row := y * width
		var cur Quad
		active := false

		for x := 0; x < width; x++ {
			i := row + x
			v := c.Voxels[dir.Transform(depth, x, y).Index()]

			if covered.Get(i) || occluded.Get(i) {
				covered.Set(i)
				if active {
					out = emitQuad(c, dir, depth, cur, &covered, occluded, out)
					active = false
				}
				continue
			}
			covered.Set(i)

			switch {
			case active && cur.Voxel == v:
				cur.EndX++
			case active:
				out = emitQuad(c, dir, depth, cur, &covered, occluded, out)
				active = false
				if v != voxel.Air {
					cur, active = newQuad(x, y, v), true
				}
			case v != voxel.Air:
				cur, active = newQuad(x, y, v), true
			}
		}

		if active {
			out = emitQuad(c, dir, depth, cur, &covered, occluded, out)
		}
	}
	return out
}

// emitQuad растягивает квад вниз, пока каждая строка под ним целиком
// совпадает по типу блока и не закрыта, затем добавляет его в вывод.
func emitQuad(c *voxel.Chunk, dir voxel.SliceDirection, depth int, q Quad, covered, occluded *voxel.SliceBits, out []FaceQuad) []FaceQuad {
grow:
	for y := q.StartY + 1; y < width; y++ {
		row := y * width
		for x := q.StartX; x < q.EndX; x++ {
			i := row + x
			if covered.Get(i) || occluded.Get(i) || c.Voxels[dir.Transform(depth, x, y).Index()] != q.Voxel {
				break grow
			}
		}
		for x := q.StartX; x < q.EndX; x++ {
			covered.Set(row + x)
		}
		q.EndY++
	}
	return append(out, FaceQuad{Dir: dir, Depth: depth, Quad: q})
}
