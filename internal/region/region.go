package region

import "github.com/annel0/voxel-world/internal/voxel"

// Region группирует RegionWidth³ чанков, которые сохраняются одним файлом.
// Пустой слот (nil) означает, что чанк ещё не сохранялся.
type Region struct {
	pos    voxel.RegionPos
	chunks [voxel.RegionCube]*voxel.Container
}

// NewRegion создаёт пустой регион
func NewRegion(pos voxel.RegionPos) *Region {
	return &Region{pos: pos}
}

// Pos возвращает координаты региона
func (r *Region) Pos() voxel.RegionPos { return r.pos }

// Chunk возвращает чанк слота или nil
func (r *Region) Chunk(in voxel.InRegionChunkPos) *voxel.Container {
	return r.chunks[in.Index()]
}

// ChunkMut возвращает изменяемый чанк слота, создавая воздушный при отсутствии
func (r *Region) ChunkMut(in voxel.InRegionChunkPos) *voxel.Container {
	i := in.Index()
	if r.chunks[i] == nil {
		r.chunks[i] = new(voxel.Container)
	}
	return r.chunks[i]
}

// SetChunk кладёт копию контейнера в слот
func (r *Region) SetChunk(in voxel.InRegionChunkPos, c *voxel.Container) {
	r.chunks[in.Index()] = c.Clone()
}

// Remove очищает слот
func (r *Region) Remove(in voxel.InRegionChunkPos) {
	r.chunks[in.Index()] = nil
}

// Len возвращает количество заполненных слотов
func (r *Region) Len() int {
	n := 0
	for _, c := range r.chunks {
		if c != nil {
			n++
		}
	}
	return n
}

// Each обходит заполненные слоты в порядке индексов
func (r *Region) Each(fn func(pos voxel.ChunkPos, c *voxel.Container)) {
	for i, c := range r.chunks {
		if c != nil {
			fn(r.pos.Chunk(voxel.InRegionChunkPosFromIndex(i)), c)
		}
	}
}
