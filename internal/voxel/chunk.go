package voxel

// Chunk - воксельные данные чанка вместе с граничными срезами для соседей.
// После изменения блоков на границе нужно вызвать UpdateEdgeBits до того, как
// соседи будут использовать EdgeBits при построении меша.
type Chunk struct {
	Voxels          Container
	DefinitelyEmpty bool
	EdgeBits        NeighborSlices
	EdgesDirty      bool
}

// NewChunk создаёт пустой чанк из воздуха
func NewChunk() *Chunk {
	return &Chunk{DefinitelyEmpty: true}
}

// FromContainer создаёт чанк из сохранённого контейнера и пересчитывает граничные срезы
func FromContainer(c *Container) *Chunk {
	ch := &Chunk{Voxels: *c}
	ch.DefinitelyEmpty = ch.Voxels.IsEmpty()
	ch.UpdateEdgeBits()
	return ch
}

// At возвращает блок
func (c *Chunk) At(pos InChunkPos) Voxel {
	return c.Voxels.At(pos)
}

// Set меняет блок. Изменение на границе помечает граничные срезы устаревшими.
func (c *Chunk) Set(pos InChunkPos, v Voxel) bool {
	if c.Voxels.At(pos) == v {
		return false
	}
	c.Voxels.Set(pos, v)
	if v != Air {
		c.DefinitelyEmpty = false
	}
	if pos.OnBoundary() {
		c.EdgesDirty = true
	}
	return true
}

// Clone возвращает глубокую копию для передачи в фоновую задачу
func (c *Chunk) Clone() *Chunk {
	cp := *c
	return &cp
}

// SolidBits строит битовую карту сплошных блоков среза на глубине depth.
// Функция горячая: вызывается для каждого среза каждого направления при построении меша.
func (c *Chunk) SolidBits(dir SliceDirection, depth int) SliceBits {
	var s SliceBits
	if c.DefinitelyEmpty {
		return s
	}
	for y := 0; y < ChunkWidth; y++ {
		row := y * ChunkWidth
		for x := 0; x < ChunkWidth; x++ {
			if c.Voxels[dir.Transform(depth, x, y).Index()].CullsAsSolid() {
				s.Set(row + x)
			}
		}
	}
	return s
}

// UpdateEdgeBits пересчитывает все шесть граничных срезов.
// Срез на глубине 0 направления d - это грань чанка со стороны -d.Normal.
func (c *Chunk) UpdateEdgeBits() {
	for _, dir := range SliceDirections {
		c.EdgeBits[dir.Normal.Negate()] = c.SolidBits(dir, 0)
	}
	c.EdgesDirty = false
}
