package eventbus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []*Envelope
}

func (c *collector) handle(_ context.Context, ev *Envelope) {
	c.mu.Lock()
	c.events = append(c.events, ev)
	c.mu.Unlock()
}

func (c *collector) snapshot() []*Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Envelope(nil), c.events...)
}

func TestMemoryBus_FilterAndOrder(t *testing.T) {
	bus := NewMemoryBus(64)
	ctx := context.Background()

	var meshed, all collector
	_, err := bus.Subscribe(ctx, Filter{Types: []string{TypeChunkMeshed}}, meshed.handle)
	require.NoError(t, err)
	_, err = bus.Subscribe(ctx, Filter{}, all.handle)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		typ := TypeChunkMeshed
		if i%2 == 1 {
			typ = TypeChunkUnloaded
		}
		require.NoError(t, bus.Publish(ctx, &Envelope{ID: string(rune('a' + i)), EventType: typ, Priority: 9}))
	}
	bus.Close()

	assert.Len(t, meshed.snapshot(), 5)
	got := all.snapshot()
	require.Len(t, got, 10)
	for i, ev := range got {
		assert.Equal(t, string(rune('a'+i)), ev.ID, "Порядок событий сохраняется для подписчика")
	}

	stats := bus.Metrics()
	assert.Equal(t, uint64(10), stats.Published)
	assert.Equal(t, uint64(15), stats.Consumed)
	assert.ErrorIs(t, bus.Publish(ctx, &Envelope{}), ErrClosed)
}

func TestMemoryBus_Unsubscribe(t *testing.T) {
	bus := NewMemoryBus(8)
	defer bus.Close()

	var c collector
	sub, err := bus.Subscribe(context.Background(), Filter{}, c.handle)
	require.NoError(t, err)
	sub.Unsubscribe()

	require.NoError(t, bus.Publish(context.Background(), &Envelope{EventType: TypeChunkMeshed}))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, c.snapshot())
}

func TestChunkMeshedPayload(t *testing.T) {
	chunk := voxel.NewChunk()
	chunk.Set(voxel.MustInChunkPos(0, 0, 0), voxel.Stone)
	var neighbors voxel.NeighborSlices
	m, ok := mesh.Generate(chunk, &neighbors)
	require.True(t, ok)

	pos := voxel.NewChunkPos(-4, 7, -100)
	ev, err := DecodeChunkMeshed(EncodeChunkMeshed(pos, m))
	require.NoError(t, err)

	assert.Equal(t, pos, ev.Pos)
	assert.Equal(t, 6, ev.Quads)
	assert.Equal(t, m.Indices, ev.Indices)
	require.Len(t, ev.Packed, len(m.Vertices))
	for i, v := range m.Vertices {
		assert.Equal(t, v.Packed, ev.Packed[i])
		assert.Equal(t, v.Material, ev.Materials[i])
	}

	_, err = DecodeChunkMeshed([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrBadPayload)
	_, err = DecodeChunkUnloaded(append(EncodeChunkUnloaded(pos), 0))
	assert.ErrorIs(t, err, ErrBadPayload, "Лишние байты считаются ошибкой")
}

func TestMeshSink_PublishesEnvelopes(t *testing.T) {
	bus := NewMemoryBus(16)
	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{Sources: []string{"earth"}}, c.handle)
	require.NoError(t, err)

	filled := new(voxel.Container)
	filled.Fill(voxel.Dirt)
	var neighbors voxel.NeighborSlices
	m, ok := mesh.Generate(voxel.FromContainer(filled), &neighbors)
	require.True(t, ok)

	sink := NewMeshSink(bus, "earth")
	pos := voxel.NewChunkPos(1, 2, 3)
	require.NoError(t, sink.Upsert(pos, m))
	require.NoError(t, sink.Remove(pos))
	bus.Close()

	events := c.snapshot()
	require.Len(t, events, 2)
	assert.Equal(t, TypeChunkMeshed, events[0].EventType)
	assert.Equal(t, TypeChunkUnloaded, events[1].EventType)
	assert.NotEqual(t, events[0].ID, events[1].ID)
	assert.Equal(t, PayloadVersion, events[0].Version)

	unloaded, err := DecodeChunkUnloaded(events[1].Payload)
	require.NoError(t, err)
	assert.Equal(t, pos, unloaded)
}

func TestMetricsExporter_Update(t *testing.T) {
	bus := NewMemoryBus(4)
	exporter := NewMetricsExporter(bus, prometheus.NewRegistry())

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{}))
	}
	exporter.update()
	exporter.update()
	assert.Equal(t, 3.0, testutil.ToFloat64(exporter.published), "Приращения не учитываются дважды")

	exporter.Start()
	exporter.Stop()
	bus.Close()
}

func TestMeshSink_StalledSubscriberGetsEveryMesh(t *testing.T) {
	bus := NewMemoryBus(8)

	release := make(chan struct{})
	var c collector
	_, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		<-release
		c.handle(ctx, ev)
	})
	require.NoError(t, err)

	var neighbors voxel.NeighborSlices
	chunk := voxel.NewChunk()
	chunk.Set(voxel.MustInChunkPos(3, 3, 3), voxel.Grass)
	m, ok := mesh.Generate(chunk, &neighbors)
	require.True(t, ok)

	sink := NewMeshSink(bus, "earth", WithPublishTimeout(10*time.Millisecond))
	accepted, rejected := 0, 0
	for i := 0; i < 40; i++ {
		if err := sink.Upsert(voxel.NewChunkPos(i, 0, 0), m); err != nil {
			assert.ErrorIs(t, err, context.DeadlineExceeded)
			rejected++
			continue
		}
		accepted++
	}
	assert.Positive(t, rejected, "Зависший подписчик задерживает публикацию")

	close(release)
	bus.Close()

	assert.Len(t, c.snapshot(), accepted, "Принятые меши доставляются все")
	stats := bus.Metrics()
	assert.Zero(t, stats.Dropped, "Меши не отбрасываются молча")
	assert.Equal(t, uint64(rejected), stats.Rejected)
}

func TestMemoryBus_LowPriorityDroppedWhenQueueFull(t *testing.T) {
	bus := NewMemoryBus(1)

	release := make(chan struct{})
	_, err := bus.Subscribe(context.Background(), Filter{}, func(context.Context, *Envelope) { <-release })
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(context.Background(), &Envelope{Priority: 1}))
	}
	require.Eventually(t, func() bool { return bus.Metrics().Dropped > 0 }, time.Second, time.Millisecond)

	close(release)
	bus.Close()
}
