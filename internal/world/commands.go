package world

import (
	"context"

	"github.com/annel0/voxel-world/internal/voxel"
)

// Command - запрос к миру из другой горутины. Выполняется драйвером между тиками,
// поэтому карта чанков остаётся однопоточной.
type Command interface {
	apply(ctx context.Context, d *Driver)
}

// MoveLoader перемещает наблюдателя
type MoveLoader struct {
	Pos    voxel.ChunkPos
	Radius int // 0 - оставить текущий
}

func (c MoveLoader) apply(_ context.Context, d *Driver) {
	d.loader = c.Pos
	if c.Radius > 0 {
		d.radius = c.Radius
	}
}

// SaveResult - ответ на SaveRequest
type SaveResult struct {
	Report SaveReport
	Err    error
}

// SaveRequest принудительно сохраняет мир
type SaveRequest struct {
	Reply chan<- SaveResult
}

func (c SaveRequest) apply(ctx context.Context, d *Driver) {
	report, err := d.world.Save(ctx)
	c.Reply <- SaveResult{Report: report, Err: err}
}

// StatsRequest запрашивает снимок состояния мира
type StatsRequest struct {
	Reply chan<- Stats
}

func (c StatsRequest) apply(_ context.Context, d *Driver) {
	c.Reply <- d.world.Stats()
}

// ChunkInfoResult - ответ на ChunkInfoRequest
type ChunkInfoResult struct {
	Info  ChunkInfo
	Found bool
}

// ChunkInfoRequest запрашивает описание чанка
type ChunkInfoRequest struct {
	Pos   voxel.ChunkPos
	Reply chan<- ChunkInfoResult
}

func (c ChunkInfoRequest) apply(_ context.Context, d *Driver) {
	info, found := d.world.ChunkInfo(c.Pos)
	c.Reply <- ChunkInfoResult{Info: info, Found: found}
}

// SetVoxelRequest меняет блок
type SetVoxelRequest struct {
	Pos   voxel.VoxelPos
	Voxel voxel.Voxel
	Reply chan<- bool
}

func (c SetVoxelRequest) apply(_ context.Context, d *Driver) {
	c.Reply <- d.world.SetVoxel(c.Pos, c.Voxel)
}
