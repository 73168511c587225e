package terrain

import (
	"testing"

	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatColumn(height float64) *Column {
	col := &Column{}
	for i := range col.Height {
		col.Height[i] = height
		col.Temperature[i] = 0.5
		col.Humidity[i] = 0.5
	}
	return col
}

func TestGenerator_Deterministic(t *testing.T) {
	a := NewGenerator(42, DefaultSettings(), nil)
	b := NewGenerator(42, DefaultSettings(), nil)

	pos := voxel.NewChunkPos(3, 0, -2)
	assert.Equal(t, a.Chunk(pos).Voxels, b.Chunk(pos).Voxels, "Одинаковый сид должен давать одинаковый чанк")
	assert.Equal(t, a.Column(-5, 7), b.Column(-5, 7))
}

func TestGenerator_SeedsDiffer(t *testing.T) {
	a := NewGenerator(1, DefaultSettings(), nil)
	b := NewGenerator(2, DefaultSettings(), nil)

	assert.NotEqual(t, a.Column(4, 4).Height, b.Column(4, 4).Height)
}

func TestGenerator_MaterialBands(t *testing.T) {
	g := NewGenerator(7, DefaultSettings(), nil)
	chunk := g.Generate(0, flatColumn(10.5))

	require.False(t, chunk.DefinitelyEmpty)
	// Высота 10.5: блоки 0..9 заполнены, 9 - поверхность, 8 и 9 выше height-3 = 7.5
	assert.Equal(t, voxel.Stone, chunk.At(voxel.MustInChunkPos(0, 7, 0)))
	assert.Equal(t, voxel.Dirt, chunk.At(voxel.MustInChunkPos(0, 8, 0)))
	assert.Equal(t, voxel.Grass, chunk.At(voxel.MustInChunkPos(0, 9, 0)))
	assert.Equal(t, voxel.Air, chunk.At(voxel.MustInChunkPos(0, 10, 0)))
}

func TestGenerator_ChunkAboveSurfaceIsEmpty(t *testing.T) {
	g := NewGenerator(7, DefaultSettings(), nil)

	above := g.Generate(1, flatColumn(10))
	assert.True(t, above.DefinitelyEmpty)
	assert.True(t, above.Voxels.IsEmpty())

	below := g.Generate(-1, flatColumn(10))
	assert.False(t, below.DefinitelyEmpty)
	assert.Equal(t, voxel.Stone, below.At(voxel.MustInChunkPos(5, voxel.ChunkWidth-1, 5)), "Глубокий чанк заполнен камнем")
}

func TestGenerator_BiomeSurface(t *testing.T) {
	g := NewGenerator(7, DefaultSettings(), nil)
	col := flatColumn(5.5)
	for i := range col.Temperature {
		col.Temperature[i] = 0
	}

	chunk := g.Generate(0, col)
	assert.Equal(t, voxel.Snow, chunk.At(voxel.MustInChunkPos(3, 4, 3)), "Полярный биом покрыт снегом")
}

func TestBiomeTable(t *testing.T) {
	bt := NewBiomeTable()

	assert.Equal(t, Polar, TemperatureAt(0))
	assert.Equal(t, Tropical, TemperatureAt(1))
	assert.Equal(t, SuperHumid, HumidityAt(1.5))
	assert.Equal(t, SuperArid, HumidityAt(-1))

	b := bt.At(Tropical, SuperArid)
	assert.Equal(t, voxel.Sand, b.Surface)
	assert.Equal(t, "Tropical SuperArid Place", b.Name)

	assert.True(t, bt.Insert(Biome{Name: "Jungle", Temperature: Tropical, Humidity: SuperHumid, Surface: voxel.Grass}))
	assert.Equal(t, "Jungle", bt.Lookup(1, 1).Name)
	assert.False(t, bt.Insert(Biome{Temperature: temperatureCount}))
}
