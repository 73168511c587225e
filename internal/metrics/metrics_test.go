package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/annel0/voxel-world/internal/region"
	"github.com/annel0/voxel-world/internal/scheduler"
	"github.com/annel0/voxel-world/internal/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ world.Observer     = (*World)(nil)
	_ region.Observer    = (*World)(nil)
	_ scheduler.Observer = (*World)(nil)
)

func TestWorld_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorld(reg)

	m.ActionDispatched("generate")
	m.ActionDispatched("generate")
	m.ActionDispatched("render")
	m.RenderDeferred()
	m.TaskFailed("generate")
	m.RegionLoaded()
	m.RegionCorrupt()
	m.RegionStored(100)
	m.RegionStored(50)
	m.ChunkLoaded("disk")
	m.ChunkLoaded("generated")
	m.ChunkLoaded("generated")
	m.SinkFailed("upsert")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.actions.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.actions.WithLabelValues("render")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.deferred))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.taskFailures.WithLabelValues("generate")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.regionLoads))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.regionCorrupt))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.regionStores))
	assert.Equal(t, 150.0, testutil.ToFloat64(m.regionBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chunkSources.WithLabelValues("disk")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.chunkSources.WithLabelValues("generated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkFailures.WithLabelValues("upsert")))
}

func TestWorld_ChunkStatesResetsMissing(t *testing.T) {
	m := NewWorld(prometheus.NewRegistry())

	m.ChunkStates(map[string]int{"generating": 5, "generated": 2})
	assert.Equal(t, 5.0, testutil.ToFloat64(m.chunks.WithLabelValues("generating")))

	m.ChunkStates(map[string]int{"generated": 7})
	assert.Equal(t, 0.0, testutil.ToFloat64(m.chunks.WithLabelValues("generating")), "Пропавшее состояние обнуляется")
	assert.Equal(t, 7.0, testutil.ToFloat64(m.chunks.WithLabelValues("generated")))
}

func TestWorld_Histograms(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewWorld(reg)

	m.TaskFinished("render", 3*time.Millisecond, nil)
	m.TaskFinished("render", time.Millisecond, errors.New("boom"))
	m.TickFinished(2 * time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	counts := map[string]uint64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			if h := metric.GetHistogram(); h != nil {
				counts[f.GetName()] += h.GetSampleCount()
			}
		}
	}
	assert.Equal(t, uint64(2), counts["voxel_task_duration_seconds"])
	assert.Equal(t, uint64(1), counts["voxel_tick_duration_seconds"])
}

func TestNewWorld_DuplicateRegistrationPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewWorld(reg)
	assert.Panics(t, func() { NewWorld(reg) })
}
