package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceDirections_Basis(t *testing.T) {
	for _, d := range SliceDirections {
		r, u, n := d.Right.Vec(), d.Up.Vec(), d.Normal.Vec()
		cross := [3]int{
			r.Y*u.Z - r.Z*u.Y,
			r.Z*u.X - r.X*u.Z,
			r.X*u.Y - r.Y*u.X,
		}
		assert.Equal(t, [3]int{n.X, n.Y, n.Z}, cross, "Normal должна быть right x up для %v", d)
	}
}

func TestSliceDirection_TransformCoversChunk(t *testing.T) {
	for _, d := range SliceDirections {
		seen := make(map[int]bool, ChunkCube)
		for depth := 0; depth < ChunkWidth; depth++ {
			for y := 0; y < ChunkWidth; y++ {
				for x := 0; x < ChunkWidth; x++ {
					seen[d.Transform(depth, x, y).Index()] = true
				}
			}
		}
		assert.Len(t, seen, ChunkCube, "Преобразование %v должно быть биекцией", d)
	}
}

func TestSliceDirection_DepthZeroFacesOpposite(t *testing.T) {
	// Срез глубины 0 лежит на грани со стороны -Normal
	for _, d := range SliceDirections {
		p := d.Transform(0, 3, 4)
		coord := [3]int{p.X(), p.Y(), p.Z()}[d.Normal.Component()]
		if d.Normal.IsPositive() {
			assert.Equal(t, 0, coord)
		} else {
			assert.Equal(t, ChunkWidth-1, coord)
		}
	}
}

func TestChunk_SetMarksEdges(t *testing.T) {
	c := NewChunk()
	require.True(t, c.DefinitelyEmpty)

	assert.True(t, c.Set(MustInChunkPos(5, 5, 5), Stone))
	assert.False(t, c.DefinitelyEmpty)
	assert.False(t, c.EdgesDirty, "Внутренний блок не меняет граней")

	assert.False(t, c.Set(MustInChunkPos(5, 5, 5), Stone), "Повторная запись не является изменением")

	c.Set(MustInChunkPos(0, 5, 5), Dirt)
	assert.True(t, c.EdgesDirty)

	c.UpdateEdgeBits()
	assert.False(t, c.EdgesDirty)
	assert.Equal(t, 1, c.EdgeBits.Get(NegX).Count(), "Грань -x содержит один сплошной блок")
	assert.Equal(t, 0, c.EdgeBits.Get(PosX).Count())
}

func TestChunk_FromContainer(t *testing.T) {
	var full Container
	full.Fill(Stone)

	c := FromContainer(&full)
	assert.False(t, c.DefinitelyEmpty)
	for _, a := range Axes {
		assert.Equal(t, ChunkSquare, c.EdgeBits.Get(a).Count(), "Грань %v должна быть полной", a)
	}

	var empty Container
	assert.True(t, FromContainer(&empty).DefinitelyEmpty)
}

func TestChunk_CloneIsIndependent(t *testing.T) {
	c := NewChunk()
	cp := c.Clone()
	cp.Set(MustInChunkPos(1, 1, 1), Grass)

	assert.Equal(t, Air, c.At(MustInChunkPos(1, 1, 1)))
	assert.Equal(t, Grass, cp.At(MustInChunkPos(1, 1, 1)))
}

func TestVoxel_Properties(t *testing.T) {
	assert.False(t, Air.CullsAsSolid())
	assert.True(t, Stone.CullsAsSolid())
	assert.Equal(t, uint32(1), Stone.AtlasIndex())
	assert.Equal(t, uint32(2), Dirt.AtlasIndex())
	assert.Equal(t, uint32(0), Grass.AtlasIndex())

	v, ok := ParseVoxel("dirt")
	assert.True(t, ok)
	assert.Equal(t, Dirt, v)
	assert.False(t, Voxel(200).Valid())
	assert.Len(t, All(), 6)
}
