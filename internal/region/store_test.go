package region

import (
	"context"
	"errors"
	"testing"

	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterned() *voxel.Container {
	c := new(voxel.Container)
	for i := range c {
		c[i] = voxel.Voxel(i*7%6 + i/1000%2)
		if !c[i].Valid() {
			c[i] = voxel.Stone
		}
	}
	return c
}

func layered() *voxel.Container {
	c := new(voxel.Container)
	for i := range c {
		if i < voxel.ChunkCube/2 {
			c[i] = voxel.Stone
		}
	}
	return c
}

func solid() *voxel.Container {
	c := new(voxel.Container)
	c.Fill(voxel.Dirt)
	return c
}

func newCodec(t *testing.T, compression Compression) *Codec {
	t.Helper()
	codec, err := NewCodec(compression)
	require.NoError(t, err)
	t.Cleanup(codec.Close)
	return codec
}

func TestCodec_RoundTrip(t *testing.T) {
	containers := map[string]*voxel.Container{
		"air":       new(voxel.Container),
		"solid":     solid(),
		"patterned": patterned(),
		"layered":   layered(),
	}

	for _, compression := range []Compression{CompressionGzip, CompressionZstd, CompressionNone} {
		codec := newCodec(t, compression)

		for name, c := range containers {
			t.Run(string(compression)+"/"+name, func(t *testing.T) {
				pos := voxel.RegionPos{X: -1, Y: 0, Z: 2}
				r := NewRegion(pos)
				first, _ := voxel.NewInRegionChunkPos(0, 0, 0)
				last, _ := voxel.NewInRegionChunkPos(15, 15, 15)
				r.SetChunk(first, c)
				r.SetChunk(last, c)

				data, err := codec.Encode(r)
				require.NoError(t, err)

				decoded, err := codec.Decode(pos, data)
				require.NoError(t, err)
				assert.Equal(t, 2, decoded.Len())
				assert.Equal(t, *c, *decoded.Chunk(first), "Данные чанка должны совпадать после декодирования")
				assert.Equal(t, *c, *decoded.Chunk(last))
			})
		}
	}
}

func TestCodec_DetectsCompressionOnRead(t *testing.T) {
	r := NewRegion(voxel.RegionPos{})
	in, _ := voxel.NewInRegionChunkPos(3, 4, 5)
	r.SetChunk(in, patterned())

	zdata, err := newCodec(t, CompressionZstd).Encode(r)
	require.NoError(t, err)

	decoded, err := newCodec(t, CompressionGzip).Decode(r.Pos(), zdata)
	require.NoError(t, err, "Gzip-кодек должен читать zstd-файлы")
	assert.Equal(t, *patterned(), *decoded.Chunk(in))
}

func TestCodec_RLEIsSmallerForUniformChunks(t *testing.T) {
	r := NewRegion(voxel.RegionPos{})
	in, _ := voxel.NewInRegionChunkPos(0, 0, 0)
	r.SetChunk(in, solid())

	payload := encodePayload(r)
	assert.Less(t, len(payload), 100+voxel.RegionCube, "Однородный чанк кодируется одной серией")
}

func TestCodec_Corrupt(t *testing.T) {
	codec := newCodec(t, CompressionGzip)
	pos := voxel.RegionPos{}

	cases := map[string][]byte{
		"garbage":      []byte("definitely not a region"),
		"truncated":    encodePayload(NewRegion(pos))[:100],
		"broken gzip":  {0x1f, 0x8b, 0x00, 0x01},
		"wrong widths": append(append([]byte("VXRG"), FormatVersion), 8, 8),
	}
	for name, data := range cases {
		_, err := codec.Decode(pos, data)
		assert.ErrorIs(t, err, ErrCorrupt, name)
	}

	future := append([]byte("VXRG"), FormatVersion+1)
	_, err := codec.Decode(pos, future)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func newStore(t *testing.T, backend storage.Backend) *Store {
	t.Helper()
	return NewStore("test", backend, newCodec(t, CompressionGzip))
}

func TestStore_PersistsChunkAcrossStores(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	pos := voxel.NewChunkPos(5, 5, 5)

	s := newStore(t, backend)
	_, found, err := s.CheckForChunk(ctx, pos)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetChunk(ctx, pos, patterned()))
	n, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	reopened := newStore(t, backend)
	c, found, err := reopened.CheckForChunk(ctx, pos)
	require.NoError(t, err)
	require.True(t, found, "Сохранённый чанк должен находиться после перезагрузки")
	assert.Equal(t, *patterned(), *c)
	assert.Equal(t, int64(1), reopened.Stats().Loads)
}

func TestStore_SetChunkDoesNotClobberSavedRegion(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	a := voxel.NewChunkPos(0, 0, 0)
	b := voxel.NewChunkPos(1, 0, 0)

	first := newStore(t, backend)
	require.NoError(t, first.SetChunk(ctx, a, solid()))
	_, err := first.Flush(ctx)
	require.NoError(t, err)

	second := newStore(t, backend)
	require.NoError(t, second.SetChunk(ctx, b, layered()))
	_, err = second.Flush(ctx)
	require.NoError(t, err)

	third := newStore(t, backend)
	_, found, err := third.CheckForChunk(ctx, a)
	require.NoError(t, err)
	assert.True(t, found, "Запись соседнего чанка не должна стирать ранее сохранённые")
}

func TestStore_CorruptRegionTreatedAsMissing(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	pos := voxel.NewChunkPos(-3, 2, 40)
	backend.Corrupt("test", pos.Region(), []byte{0xde, 0xad, 0xbe, 0xef})

	s := newStore(t, backend)
	_, found, err := s.CheckForChunk(ctx, pos)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, int64(1), s.Stats().CorruptLoads)
	assert.Equal(t, 1, s.Stats().Resident, "Вместо повреждённого региона устанавливается пустой")
}

type failingBackend struct {
	*storage.MemoryBackend
	loadErr error
}

func (f *failingBackend) Load(ctx context.Context, world string, pos voxel.RegionPos) ([]byte, error) {
	return nil, f.loadErr
}

func TestStore_BackendErrorDoesNotInstallRegion(t *testing.T) {
	ioErr := errors.Join(storage.ErrBackend, errors.New("disk on fire"))
	s := newStore(t, &failingBackend{MemoryBackend: storage.NewMemoryBackend(), loadErr: ioErr})

	_, _, err := s.CheckForChunk(context.Background(), voxel.NewChunkPos(0, 0, 0))
	assert.ErrorIs(t, err, storage.ErrBackend)
	assert.Equal(t, 0, s.Stats().Resident)

	err = s.SetChunk(context.Background(), voxel.NewChunkPos(0, 0, 0), solid())
	assert.ErrorIs(t, err, storage.ErrBackend, "Запись в незагруженный регион невозможна без чтения")
}

func TestStore_FlushOnlyDirtyAndEvict(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	s := newStore(t, backend)

	near := voxel.NewChunkPos(0, 0, 0)
	far := voxel.NewChunkPos(100, 0, 0)
	require.NoError(t, s.SetChunk(ctx, near, solid()))
	require.NoError(t, s.SetChunk(ctx, far, solid()))

	assert.Equal(t, 0, s.Evict(nil), "Несохранённые регионы не выгружаются")

	n, err := s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = s.Flush(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "Чистые регионы повторно не пишутся")
	assert.Equal(t, 2, backend.Stores())

	evicted := s.Evict(func(pos voxel.RegionPos) bool { return pos == near.Region() })
	assert.Equal(t, 1, evicted)
	assert.Equal(t, []voxel.RegionPos{near.Region()}, s.Regions())

	_, ok := s.Chunk(far)
	assert.False(t, ok, "Chunk не подгружает регионы")
	_, found, err := s.CheckForChunk(ctx, far)
	require.NoError(t, err)
	assert.True(t, found)
}

func TestStore_RegionMut(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryBackend())
	pos := voxel.NewChunkPos(17, -1, 3)

	require.NoError(t, s.RegionMut(ctx, pos.Region(), func(r *Region) {
		r.ChunkMut(pos.InRegion()).Set(voxel.MustInChunkPos(1, 2, 3), voxel.Sand)
	}))

	c, ok := s.Chunk(pos)
	require.True(t, ok)
	assert.Equal(t, voxel.Sand, c.At(voxel.MustInChunkPos(1, 2, 3)))
	assert.Equal(t, 1, s.Stats().Dirty)
}

type generatedChunks map[voxel.ChunkPos]*voxel.Container

func (g generatedChunks) EachGenerated(fn func(voxel.ChunkPos, *voxel.Container)) {
	for pos, c := range g {
		fn(pos, c)
	}
}

func TestStore_ExtractChunks(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemoryBackend())

	src := generatedChunks{
		voxel.NewChunkPos(0, 0, 0):  solid(),
		voxel.NewChunkPos(-1, 0, 0): layered(),
		voxel.NewChunkPos(0, 16, 0): patterned(),
	}
	n, err := s.ExtractChunks(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, s.Stats().Dirty, "Чанки попадают в три разных региона")

	for pos, want := range src {
		got, ok := s.Chunk(pos)
		require.True(t, ok, pos.String())
		assert.Equal(t, *want, *got)
	}
}

func TestStore_Close(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemoryBackend()
	s := NewStore("test", backend, newCodec(t, CompressionZstd))
	require.NoError(t, s.SetChunk(ctx, voxel.NewChunkPos(1, 1, 1), solid()))

	require.NoError(t, s.Close(ctx))
	assert.Equal(t, 1, backend.Stores(), "Close сохраняет изменения")

	_, _, err := s.CheckForChunk(ctx, voxel.NewChunkPos(1, 1, 1))
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Flush(ctx)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Close(ctx), ErrClosed)
}
