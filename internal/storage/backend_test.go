package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backends(t *testing.T) map[string]Backend {
	t.Helper()

	fb, err := NewFileBackend(t.TempDir())
	require.NoError(t, err)

	bb, err := NewInMemoryBadgerBackend()
	require.NoError(t, err)
	t.Cleanup(func() { bb.Close() })

	return map[string]Backend{
		"memory": NewMemoryBackend(),
		"file":   fb,
		"badger": bb,
	}
}

func sortRegions(r []voxel.RegionPos) {
	sort.Slice(r, func(i, j int) bool { return r[i].Vec().Less(r[j].Vec()) })
}

func TestBackends_StoreLoadList(t *testing.T) {
	ctx := context.Background()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			a := voxel.RegionPos{X: 0, Y: 0, Z: 0}
			c := voxel.RegionPos{X: -1, Y: 2, Z: -3}

			_, err := b.Load(ctx, "w", a)
			assert.ErrorIs(t, err, ErrNotFound, "Несохранённый регион должен давать ErrNotFound")

			require.NoError(t, b.Store(ctx, "w", a, []byte("first")))
			require.NoError(t, b.Store(ctx, "w", c, []byte("second")))
			require.NoError(t, b.Store(ctx, "other", a, []byte("foreign")))

			data, err := b.Load(ctx, "w", a)
			require.NoError(t, err)
			assert.Equal(t, []byte("first"), data)

			require.NoError(t, b.Store(ctx, "w", a, []byte("replaced")))
			data, err = b.Load(ctx, "w", a)
			require.NoError(t, err)
			assert.Equal(t, []byte("replaced"), data)

			list, err := b.List(ctx, "w")
			require.NoError(t, err)
			sortRegions(list)
			assert.Equal(t, []voxel.RegionPos{c, a}, list)
		})
	}
}

func TestBackends_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := b.Load(ctx, "w", voxel.RegionPos{})
			assert.ErrorIs(t, err, context.Canceled)
			assert.ErrorIs(t, b.Store(ctx, "w", voxel.RegionPos{}, nil), context.Canceled)
		})
	}
}

func TestFileBackend_Layout(t *testing.T) {
	root := t.TempDir()
	fb, err := NewFileBackend(root)
	require.NoError(t, err)

	pos := voxel.RegionPos{X: 1, Y: -2, Z: 3}
	require.NoError(t, fb.Store(context.Background(), "earth", pos, []byte{1, 2, 3}))

	expected := filepath.Join(root, "saves", "earth", "regions", "1_-2_3.region")
	assert.Equal(t, expected, fb.RegionPath("earth", pos))
	_, err = os.Stat(expected)
	assert.NoError(t, err, "Файл региона должен лежать в каталоге сохранения мира")

	entries, err := os.ReadDir(filepath.Dir(expected))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "Временные файлы не должны оставаться после записи")
}

func TestFileBackend_ReadsLegacyExtension(t *testing.T) {
	root := t.TempDir()
	fb, err := NewFileBackend(root)
	require.NoError(t, err)
	ctx := context.Background()

	pos := voxel.RegionPos{X: 2, Y: 0, Z: -1}
	legacy := filepath.Join(fb.RegionsDir("earth"), "2_0_-1.region.gz")
	require.NoError(t, os.MkdirAll(filepath.Dir(legacy), 0755))
	require.NoError(t, os.WriteFile(legacy, []byte{7}, 0644))

	data, err := fb.Load(ctx, "earth", pos)
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, data)
	listed, err := fb.List(ctx, "earth")
	require.NoError(t, err)
	assert.Equal(t, []voxel.RegionPos{pos}, listed)

	require.NoError(t, fb.Store(ctx, "earth", pos, []byte{8}))
	_, err = os.Stat(legacy)
	assert.True(t, os.IsNotExist(err), "Перезапись убирает файл со старым расширением")
	data, err = fb.Load(ctx, "earth", pos)
	require.NoError(t, err)
	assert.Equal(t, []byte{8}, data)
}

func TestParseRegionFileName(t *testing.T) {
	for _, name := range []string{"-4_0_12.region", "-4_0_12.region.gz"} {
		pos, ok := ParseRegionFileName(name)
		require.True(t, ok, name)
		assert.Equal(t, voxel.RegionPos{X: -4, Y: 0, Z: 12}, pos)
	}

	for _, bad := range []string{"1_2.region", "1_2_3.chunk", "a_b_c.region", "1_2_3x.region.gz", "1_2_3.region.zst"} {
		_, ok := ParseRegionFileName(bad)
		assert.False(t, ok, "Имя %q не является файлом региона", bad)
	}
}

func TestBadgerBackend_Closed(t *testing.T) {
	bb, err := NewInMemoryBadgerBackend()
	require.NoError(t, err)
	require.NoError(t, bb.Close())
	require.NoError(t, bb.Close(), "Повторное закрытие безопасно")

	_, err = bb.Load(context.Background(), "w", voxel.RegionPos{})
	assert.ErrorIs(t, err, ErrClosed)
}

func TestOpenWorldInfo_KeepsSeed(t *testing.T) {
	root := t.TempDir()

	info, created, err := OpenWorldInfo(root, "earth", 1234, 1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint32(1234), info.Seed)
	assert.NotEmpty(t, info.ID)

	again, created, err := OpenWorldInfo(root, "earth", 9999, 1)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, uint32(1234), again.Seed, "Сид существующего мира не меняется")
	assert.Equal(t, info.ID, again.ID)
}
