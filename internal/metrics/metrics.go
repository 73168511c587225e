package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "voxel"

// World содержит Prometheus-метрики движка мира.
// Реализует world.Observer, region.Observer и scheduler.Observer,
// поэтому один экземпляр подключается ко всем трём подсистемам.
//
// Метрики:
// * voxel_chunks{state} - gauge, чанков в каждом состоянии
// * voxel_actions_total{action} - counter, запущенных действий
// * voxel_renders_deferred_total - counter, отложенных построений мешей
// * voxel_task_failures_total{kind} - counter, неудачных задач
// * voxel_chunks_loaded_total{source} - counter, чанков из хранилища (disk) и генератора (generated)
// * voxel_sink_failures_total{op} - counter, мешей, не принятых приёмником (upsert/remove)
// * voxel_task_duration_seconds{kind,status} - histogram
// * voxel_tick_duration_seconds - histogram
// * voxel_region_loads_total, voxel_region_corrupt_total, voxel_region_stores_total - counters
// * voxel_region_bytes_written_total - counter
type World struct {
	chunks        *prometheus.GaugeVec
	actions       *prometheus.CounterVec
	deferred      prometheus.Counter
	taskFailures  *prometheus.CounterVec
	chunkSources  *prometheus.CounterVec
	sinkFailures  *prometheus.CounterVec
	taskDuration  *prometheus.HistogramVec
	tickDuration  prometheus.Histogram
	regionLoads   prometheus.Counter
	regionCorrupt prometheus.Counter
	regionStores  prometheus.Counter
	regionBytes   prometheus.Counter
	knownStates   map[string]struct{}
}

// NewWorld создаёт метрики и регистрирует их в reg.
// Если reg == nil, используется дефолтный регистр Prometheus.
func NewWorld(reg prometheus.Registerer) *World {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &World{
		chunks: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "chunks",
			Help:      "Количество загруженных чанков по состояниям.",
		}, []string{"state"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actions_total",
			Help:      "Запущенные действия над чанками (generate/render/delete).",
		}, []string{"action"}),
		deferred: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_deferred_total",
			Help:      "Построения мешей, отложенные из-за незагруженных соседей или лимита.",
		}),
		taskFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_failures_total",
			Help:      "Фоновые задачи, завершившиеся ошибкой или паникой.",
		}, []string{"kind"}),
		chunkSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_loaded_total",
			Help:      "Чанки, полученные задачами генерации, по источнику (disk/generated).",
		}, []string{"source"}),
		sinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Меши и выгрузки, которые приёмник не принял; мир повторит их позже.",
		}, []string{"op"}),
		taskDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Длительность фоновых задач.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind", "status"}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Длительность одного тика мира.",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		regionLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_loads_total",
			Help:      "Регионы, прочитанные из хранилища.",
		}),
		regionCorrupt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_corrupt_total",
			Help:      "Повреждённые регионы, заменённые пустыми.",
		}),
		regionStores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_stores_total",
			Help:      "Регионы, записанные в хранилище.",
		}),
		regionBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "region_bytes_written_total",
			Help:      "Байт записано в хранилище регионов.",
		}),
		knownStates: make(map[string]struct{}),
	}

	reg.MustRegister(
		m.chunks, m.actions, m.deferred, m.taskFailures, m.chunkSources, m.sinkFailures, m.taskDuration,
		m.tickDuration, m.regionLoads, m.regionCorrupt, m.regionStores, m.regionBytes,
	)
	return m
}

// ActionDispatched учитывает запущенное действие
func (m *World) ActionDispatched(kind string) { m.actions.WithLabelValues(kind).Inc() }

// RenderDeferred учитывает отложенное построение меша
func (m *World) RenderDeferred() { m.deferred.Inc() }

// TaskFailed учитывает неудачную задачу, результат которой забрал мир
func (m *World) TaskFailed(kind string) { m.taskFailures.WithLabelValues(kind).Inc() }

// ChunkLoaded учитывает источник данных чанка
func (m *World) ChunkLoaded(source string) { m.chunkSources.WithLabelValues(source).Inc() }

// SinkFailed учитывает отказ приёмника мешей
func (m *World) SinkFailed(op string) { m.sinkFailures.WithLabelValues(op).Inc() }

// ChunkStates выставляет число чанков по состояниям.
// Состояния, пропавшие из counts, обнуляются.
// Вызывается только из горутины мира.
func (m *World) ChunkStates(counts map[string]int) {
	for state := range m.knownStates {
		if _, ok := counts[state]; !ok {
			m.chunks.WithLabelValues(state).Set(0)
		}
	}
	for state, n := range counts {
		m.knownStates[state] = struct{}{}
		m.chunks.WithLabelValues(state).Set(float64(n))
	}
}

// TickFinished записывает длительность тика
func (m *World) TickFinished(d time.Duration) { m.tickDuration.Observe(d.Seconds()) }

// TaskFinished записывает длительность задачи пула
func (m *World) TaskFinished(kind string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.taskDuration.WithLabelValues(kind, status).Observe(d.Seconds())
}

func (m *World) RegionLoaded()  { m.regionLoads.Inc() }
func (m *World) RegionCorrupt() { m.regionCorrupt.Inc() }

// RegionStored учитывает записанный регион и его размер
func (m *World) RegionStored(bytes int) {
	m.regionStores.Inc()
	m.regionBytes.Add(float64(bytes))
}
