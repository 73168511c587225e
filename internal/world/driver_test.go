package world

import (
	"context"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDriver_CommandsAndShutdownSave(t *testing.T) {
	backend := storage.NewMemoryBackend()
	f := newFixture(t, backend)
	d := NewDriver(f.world, DriverConfig{TickRate: time.Millisecond, Radius: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	require.Eventually(t, func() bool {
		info, found, err := d.ChunkInfo(ctx, voxel.NewChunkPos(0, 0, 0))
		return err == nil && found && info.State == StateRendered.String()
	}, 5*time.Second, 5*time.Millisecond, "Центральный чанк должен получить меш")

	require.NoError(t, d.MoveLoader(ctx, voxel.NewChunkPos(0, 2, 0), 0))
	require.Eventually(t, func() bool {
		stats, err := d.Stats(ctx)
		return err == nil && stats.Loader == voxel.NewChunkPos(0, 2, 0) && stats.Radius == 1
	}, 5*time.Second, 5*time.Millisecond)

	// Чанк (0,2,0) становится редактируемым после генерации
	require.Eventually(t, func() bool {
		changed, err := d.SetVoxel(ctx, voxel.VoxelPos{X: 1, Y: 62, Z: 1}, voxel.Snow)
		return err == nil && changed
	}, 5*time.Second, 5*time.Millisecond)

	report, err := d.Save(ctx)
	require.NoError(t, err)
	assert.Positive(t, report.Extracted)

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("драйвер не остановился")
	}

	_, err = d.Stats(context.Background())
	assert.ErrorIs(t, err, ErrDriverStopped)
	assert.ErrorIs(t, d.MoveLoader(context.Background(), voxel.ChunkPos{}, 1), ErrDriverStopped)
	assert.Positive(t, backend.Stores())
}

func TestDriver_RadiusIsCapped(t *testing.T) {
	f := newFixture(t, storage.NewMemoryBackend())
	d := NewDriver(f.world, DriverConfig{Radius: 50, MaxRadius: 3})

	assert.Equal(t, 3, d.MaxRadius())
	assert.Equal(t, 3, d.radius, "Стартовый радиус обрезается до границы")

	err := d.MoveLoader(context.Background(), voxel.ChunkPos{}, 100000)
	assert.ErrorIs(t, err, ErrRadiusTooLarge)
	assert.Empty(t, d.commands, "Команда с огромным радиусом не попадает в очередь")

	require.NoError(t, d.MoveLoader(context.Background(), voxel.NewChunkPos(1, 0, 0), 3))
	assert.Len(t, d.commands, 1)
}
