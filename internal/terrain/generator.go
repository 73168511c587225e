package terrain

import (
	"math"

	"github.com/annel0/voxel-world/internal/voxel"
)

const width = voxel.ChunkWidth

// Settings - параметры генерации ландшафта
type Settings struct {
	Frequency      float64 // Частота шума высот на блок
	BiomeFrequency float64 // Частота шума температуры и влажности
	Amplitude      float64 // Размах высот в блоках
	BaseHeight     float64 // Высота уровня "моря" в блоках
	DirtDepth      float64 // Толщина слоя земли под поверхностью
	Octaves        int32   // Количество октав шума высот
}

// DefaultSettings возвращает настройки по умолчанию
func DefaultSettings() Settings {
	return Settings{
		Frequency:      0.008,
		BiomeFrequency: 0.0015,
		Amplitude:      48,
		BaseHeight:     10,
		DirtDepth:      3,
		Octaves:        4,
	}
}

// Column - двумерные поля шума одной вертикальной колонки чанков.
// Поля не зависят от высоты чанка, поэтому вычисляются один раз на колонку.
type Column struct {
	X, Z        int
	Height      [voxel.ChunkSquare]float64
	Temperature [voxel.ChunkSquare]float64
	Humidity    [voxel.ChunkSquare]float64
}

// Generator генерирует ландшафт мира. Детерминирован для одинаковых сида и настроек
// и безопасен для одновременного использования из нескольких задач.
type Generator struct {
	seed        uint32
	settings    Settings
	height      noiseField
	temperature noiseField
	humidity    noiseField
	biomes      *BiomeTable
}

// NewGenerator создаёт новый генератор мира
func NewGenerator(seed uint32, settings Settings, biomes *BiomeTable) *Generator {
	if biomes == nil {
		biomes = NewBiomeTable()
	}
	if settings.Octaves <= 0 {
		settings.Octaves = 1
	}
	s := int64(seed)
	return &Generator{
		seed:        seed,
		settings:    settings,
		height:      newNoiseField(s, settings.Frequency, settings.Octaves),
		temperature: newNoiseField(s+1, settings.BiomeFrequency, 2),
		humidity:    newNoiseField(s+2, settings.BiomeFrequency, 2),
		biomes:      biomes,
	}
}

// Seed возвращает сид генератора
func (g *Generator) Seed() uint32 { return g.seed }

// Biomes возвращает таблицу биомов
func (g *Generator) Biomes() *BiomeTable { return g.biomes }

// Column вычисляет поля шума для колонки чанков (cx, cz)
func (g *Generator) Column(cx, cz int) *Column {
	col := &Column{X: cx, Z: cz}
	baseX := float64(cx * width)
	baseZ := float64(cz * width)

	for z := 0; z < width; z++ {
		for x := 0; x < width; x++ {
			i := z*width + x
			wx, wz := baseX+float64(x), baseZ+float64(z)
			col.Height[i] = g.settings.BaseHeight + g.height.Sample(wx, wz)*g.settings.Amplitude
			col.Temperature[i] = g.temperature.Sample01(wx, wz)
			col.Humidity[i] = g.humidity.Sample01(wx, wz)
		}
	}
	return col
}

// Generate заполняет чанк на высоте chunkY по полям колонки:
// камень глубоко, земля под поверхностью, блок биома на поверхности.
func (g *Generator) Generate(chunkY int, col *Column) *voxel.Chunk {
	chunk := voxel.NewChunk()
	definitelyEmpty := true
	bottom := float64(chunkY * width)

	for z := 0; z < width; z++ {
		for x := 0; x < width; x++ {
			i := z*width + x
			height := col.Height[i] - bottom
			top := int(math.Floor(height))
			if top <= 0 {
				continue
			}
			surface := g.biomes.Lookup(col.Temperature[i], col.Humidity[i]).Surface
			for y := 0; y < min(top, width); y++ {
				v := voxel.Dirt
				switch {
				case float64(y) < height-g.settings.DirtDepth:
					v = voxel.Stone
				case y == top-1:
					v = surface
				}
				chunk.Voxels.Set(voxel.MustInChunkPos(x, y, z), v)
				definitelyEmpty = false
			}
		}
	}

	chunk.DefinitelyEmpty = definitelyEmpty
	return chunk
}

// Chunk генерирует чанк целиком, без кэша колонок
func (g *Generator) Chunk(pos voxel.ChunkPos) *voxel.Chunk {
	return g.Generate(pos.Y, g.Column(pos.X, pos.Z))
}

// SurfaceHeight возвращает высоту поверхности в глобальной точке (x, z)
func (g *Generator) SurfaceHeight(x, z int) float64 {
	return g.settings.BaseHeight + g.height.Sample(float64(x), float64(z))*g.settings.Amplitude
}
