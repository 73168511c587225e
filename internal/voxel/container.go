package voxel

const (
	// ChunkWidth - ширина чанка в блоках по каждой оси
	ChunkWidth = 31
	// ChunkSquare - количество блоков в одном срезе
	ChunkSquare = ChunkWidth * ChunkWidth
	// ChunkCube - количество блоков в чанке
	ChunkCube = ChunkSquare * ChunkWidth
)

// Container - плотный массив блоков чанка.
// Массив передаётся по значению, поэтому копия независима от оригинала.
type Container [ChunkCube]Voxel

// At возвращает блок в позиции
func (c *Container) At(pos InChunkPos) Voxel {
	return c[pos.Index()]
}

// Set записывает блок в позицию
func (c *Container) Set(pos InChunkPos, v Voxel) {
	c[pos.Index()] = v
}

// Fill заполняет весь контейнер одним блоком
func (c *Container) Fill(v Voxel) {
	for i := range c {
		c[i] = v
	}
}

// Clone возвращает независимую копию на куче
func (c *Container) Clone() *Container {
	cp := *c
	return &cp
}

// IsEmpty сообщает, состоит ли контейнер только из воздуха
func (c *Container) IsEmpty() bool {
	for _, v := range c {
		if v != Air {
			return false
		}
	}
	return true
}

// Histogram считает количество блоков каждого типа
func (c *Container) Histogram() map[Voxel]int {
	h := make(map[Voxel]int)
	for _, v := range c {
		h[v]++
	}
	return h
}
