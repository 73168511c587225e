package world

import (
	"context"
	"sort"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/region"
	"github.com/annel0/voxel-world/internal/scheduler"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/vec"
	"github.com/annel0/voxel-world/internal/voxel"
)

// DefaultMaxRendersPerTick - сколько непустых мешей принимается за один тик
const DefaultMaxRendersPerTick = 2

// Generator генерирует данные чанков. Вызывается из фоновых задач.
type Generator interface {
	// Column вычисляет шум колонки чанков (cx, cz)
	Column(cx, cz int) *terrain.Column
	// Generate заполняет чанк на высоте chunkY по шуму колонки
	Generate(chunkY int, col *terrain.Column) *voxel.Chunk
}

// RegionStore - постоянное хранилище чанков. Единственная структура,
// к которой обращаются и драйвер, и фоновые задачи.
type RegionStore interface {
	CheckForChunk(ctx context.Context, pos voxel.ChunkPos) (*voxel.Container, bool, error)
	SetChunk(ctx context.Context, pos voxel.ChunkPos, c *voxel.Container) error
	ExtractChunks(ctx context.Context, src region.ChunkSource) (int, error)
	Flush(ctx context.Context) (int, error)
	Evict(keep func(voxel.RegionPos) bool) int
}

// MeshSink получает готовые меши (отрисовка, физика, шина событий).
// Ошибка означает, что меш не принят: мир повторит его на следующих тиках.
type MeshSink interface {
	Upsert(pos voxel.ChunkPos, m *mesh.ChunkMesh) error
	Remove(pos voxel.ChunkPos) error
}

// Mesher строит меш чанка по его данным и срезам соседей
type Mesher func(chunk *voxel.Chunk, neighbors *voxel.NeighborSlices) (*mesh.ChunkMesh, bool)

// Observer получает события мира для метрик
type Observer interface {
	ActionDispatched(kind string)
	RenderDeferred()
	TaskFailed(kind string)
	ChunkLoaded(source string)
	SinkFailed(op string)
	ChunkStates(counts map[string]int)
	TickFinished(d time.Duration)
}

// Config - настройки мира
type Config struct {
	MaxRendersPerTick int
}

// Deps - внешние зависимости мира
type Deps struct {
	Generator Generator
	Store     RegionStore
	Scheduler *scheduler.Scheduler
	Sink      MeshSink
	Observer  Observer
	// Mesher по умолчанию mesh.Generate
	Mesher Mesher
}

// World - карта загруженных чанков вокруг наблюдателя.
// Все методы вызываются из одной горутины драйвера; фоновые задачи
// только возвращают результаты и не трогают карту.
type World struct {
	generator Generator
	store     RegionStore
	scheduler *scheduler.Scheduler
	sink      MeshSink
	mesher    Mesher
	observer  Observer
	logger    *logging.Logger

	maxRendersPerTick int

	chunks  map[voxel.ChunkPos]*loadedChunk
	columns map[vec.Vec2]*terrain.Column
	// Выгрузки, не принятые приёмником мешей
	pendingRemovals map[voxel.ChunkPos]struct{}
	// Регионы, чтение которых падает; генерация в них ждёт retryAt
	backoff map[voxel.RegionPos]*regionBackoff

	loader       voxel.ChunkPos
	radius       int
	hasLoader    bool
	needsRefresh bool
	ticks        uint64
}

// New создаёт мир с явными зависимостями
func New(deps Deps, cfg Config) *World {
	if cfg.MaxRendersPerTick <= 0 {
		cfg.MaxRendersPerTick = DefaultMaxRendersPerTick
	}
	if deps.Sink == nil {
		deps.Sink = nopSink{}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Mesher == nil {
		deps.Mesher = mesh.Generate
	}

	return &World{
		generator:         deps.Generator,
		store:             deps.Store,
		scheduler:         deps.Scheduler,
		sink:              deps.Sink,
		mesher:            deps.Mesher,
		observer:          deps.Observer,
		logger:            logging.GetWorldLogger(),
		maxRendersPerTick: cfg.MaxRendersPerTick,
		chunks:            make(map[voxel.ChunkPos]*loadedChunk),
		columns:           make(map[vec.Vec2]*terrain.Column),
		pendingRemovals:   make(map[voxel.ChunkPos]struct{}),
		backoff:           make(map[voxel.RegionPos]*regionBackoff),
	}
}

// UpdateNeededStates отмечает, до какой стадии нужен каждый чанк в кубе радиуса radius.
// Внутренние чанки нужны с мешем, оболочка куба - только сгенерированной
// (её данные нужны соседям для построения меша). Чанки вне радиуса больше не нужны.
func (w *World) UpdateNeededStates(loader voxel.ChunkPos, radius int) {
	for pos, lc := range w.chunks {
		if pos.Vec().ChebyshevTo(loader.Vec()) > radius {
			lc.needed = DontNeed
		}
	}

	for dz := -radius; dz <= radius; dz++ {
		for dy := -radius; dy <= radius; dy++ {
			for dx := -radius; dx <= radius; dx++ {
				offset := vec.Vec3{X: dx, Y: dy, Z: dz}
				needed := NeedRendered
				if offset.Abs().MaxElement() == radius {
					needed = NeedGenerated
				}
				w.setNeeded(loader.Add(offset), needed)
			}
		}
	}

	w.evictColumns(loader, radius)
}

func (w *World) setNeeded(pos voxel.ChunkPos, needed NeededState) {
	lc, ok := w.chunks[pos]
	if !ok {
		lc = &loadedChunk{pos: pos, slot: emptySlot{}}
		w.chunks[pos] = lc
	}
	lc.needed = needed
}

// evictColumns удаляет кэш шума колонок, вышедших из радиуса
func (w *World) evictColumns(loader voxel.ChunkPos, radius int) {
	center := loader.Column()
	for key := range w.columns {
		if key.ChebyshevTo(center) > radius {
			delete(w.columns, key)
		}
	}
}

// RequiredStateChanges вычисляет переходы, нужные для приведения мира к требуемому состоянию.
// Переходы отсортированы по расстоянию от наблюдателя, затем по координатам.
func (w *World) RequiredStateChanges(loader voxel.ChunkPos, radius int) []StateChange {
	var changes []StateChange

	for pos, lc := range w.chunks {
		if lc.needed == DontNeed || pos.Vec().ChebyshevTo(loader.Vec()) > radius {
			changes = append(changes, StateChange{Pos: pos, Action: ActionDelete})
			continue
		}

		state := lc.slot.state()
		switch {
		case state == StateEmpty:
			changes = append(changes, StateChange{Pos: pos, Action: ActionGenerate})
		case lc.needed == NeedRendered && state == StateGenerated:
			changes = append(changes, StateChange{Pos: pos, Action: ActionRender})
		}
	}

	sortByDistance(changes, loader, func(c StateChange) voxel.ChunkPos { return c.Pos })
	return changes
}

func sortByDistance[T any](items []T, loader voxel.ChunkPos, pos func(T) voxel.ChunkPos) {
	center := loader.Vec()
	sort.Slice(items, func(i, j int) bool {
		a, b := pos(items[i]).Vec(), pos(items[j]).Vec()
		da, db := a.DistanceSquared(center), b.DistanceSquared(center)
		if da != db {
			return da < db
		}
		return a.Less(b)
	})
}

// Dispatched - сколько переходов реально запущено
type Dispatched struct {
	Generate int
	Render   int
	Delete   int
	Deferred int
}

// ExecuteStateChanges запускает переходы. Генерация и меш уходят в планировщик,
// удаление выполняется сразу с записью данных в хранилище.
func (w *World) ExecuteStateChanges(ctx context.Context, changes []StateChange) Dispatched {
	var d Dispatched

	for _, change := range changes {
		switch change.Action {
		case ActionGenerate:
			if w.startGenerate(ctx, change.Pos) {
				d.Generate++
				w.observer.ActionDispatched(ActionGenerate.String())
			}
		case ActionRender:
			switch w.startRender(ctx, change.Pos) {
			case renderStarted:
				d.Render++
				w.observer.ActionDispatched(ActionRender.String())
			case renderDeferred:
				d.Deferred++
				w.observer.RenderDeferred()
			}
		case ActionDelete:
			if w.delete(ctx, change.Pos) {
				d.Delete++
				w.observer.ActionDispatched(ActionDelete.String())
			}
		}
	}
	return d
}

func (w *World) startGenerate(ctx context.Context, pos voxel.ChunkPos) bool {
	lc, ok := w.chunks[pos]
	if !ok {
		w.logger.Warn("⚠️ Генерация чанка %s без записи в карте, пропускаем", pos)
		return false
	}
	if _, ok := lc.slot.(emptySlot); !ok {
		w.logger.Warn("⚠️ Генерация чанка %s в стадии %s, пропускаем", pos, lc.slot.state())
		return false
	}
	if b, ok := w.backoff[pos.Region()]; ok && w.ticks < b.retryAt {
		return false
	}

	cached := w.columns[pos.Column()]
	store, generator := w.store, w.generator

	task := scheduler.Spawn(ctx, w.scheduler, ActionGenerate.String(), func(ctx context.Context) (generateResult, error) {
		saved, found, err := store.CheckForChunk(ctx, pos)
		if err != nil {
			return generateResult{}, err
		}
		if found {
			return generateResult{chunk: voxel.FromContainer(saved), loaded: true}, nil
		}

		col, fresh := cached, (*terrain.Column)(nil)
		if col == nil {
			col = generator.Column(pos.X, pos.Z)
			fresh = col
		}
		chunk := generator.Generate(pos.Y, col)
		chunk.UpdateEdgeBits()
		return generateResult{chunk: chunk, column: fresh}, nil
	})

	lc.slot = generatingSlot{task: task}
	return true
}

type renderOutcome uint8

const (
	renderSkipped renderOutcome = iota
	renderDeferred
	renderStarted
)

func (w *World) startRender(ctx context.Context, pos voxel.ChunkPos) renderOutcome {
	lc, ok := w.chunks[pos]
	if !ok {
		w.logger.Warn("⚠️ Меш чанка %s без записи в карте, пропускаем", pos)
		return renderSkipped
	}
	generated, ok := lc.slot.(generatedSlot)
	if !ok {
		return renderSkipped
	}
	neighbors, ok := w.neighbors(pos)
	if !ok {
		return renderDeferred
	}

	snapshot, mesher := generated.chunk.Clone(), w.mesher
	task := scheduler.Spawn(ctx, w.scheduler, ActionRender.String(), func(ctx context.Context) (renderResult, error) {
		m, hasMesh := mesher(snapshot, &neighbors)
		return renderResult{mesh: m, hasMesh: hasMesh}, nil
	})

	lc.slot = renderingSlot{chunk: generated.chunk, task: task}
	lc.remesh = false
	return renderStarted
}

// neighbors собирает граничные срезы шести соседей.
// Возвращает false, если хотя бы у одного соседа ещё нет данных.
func (w *World) neighbors(pos voxel.ChunkPos) (voxel.NeighborSlices, bool) {
	var out voxel.NeighborSlices
	for _, axis := range voxel.Axes {
		lc, ok := w.chunks[pos.Neighbor(axis)]
		if !ok {
			return out, false
		}
		chunk, ok := chunkData(lc.slot)
		if !ok {
			return out, false
		}
		if chunk.EdgesDirty {
			w.refreshEdges(lc, chunk)
		}
		out.Set(axis, chunk.EdgeBits[axis.Negate()])
	}
	return out, true
}

// delete записывает данные чанка в хранилище и удаляет запись.
// Ошибка записи логируется, но запись всё равно удаляется.
func (w *World) delete(ctx context.Context, pos voxel.ChunkPos) bool {
	lc, ok := w.chunks[pos]
	if !ok {
		w.logger.Warn("⚠️ Удаление чанка %s без записи в карте, пропускаем", pos)
		return false
	}

	if chunk, ok := chunkData(lc.slot); ok {
		if err := w.store.SetChunk(ctx, pos, &chunk.Voxels); err != nil {
			w.logger.Error("❌ Не удалось сохранить чанк %s: %v", pos, err)
		}
	}
	if rendered, ok := lc.slot.(renderedSlot); ok && rendered.hasMesh {
		if err := w.remove(pos); err != nil {
			w.pendingRemovals[pos] = struct{}{}
		}
	}

	delete(w.chunks, pos)
	return true
}

// Collected - сколько результатов задач принято
type Collected struct {
	Generated int
	Rendered  int
	Failed    int
}

// CollectFinishedTasks забирает результаты завершённых задач без ожидания.
// Меши принимаются от ближайших к наблюдателю, не больше maxRendersPerTick непустых за вызов.
func (w *World) CollectFinishedTasks(ctx context.Context, loader voxel.ChunkPos) Collected {
	var c Collected
	var rendering []*loadedChunk

	for pos, lc := range w.chunks {
		switch s := lc.slot.(type) {
		case generatingSlot:
			res, done, err := s.task.Poll()
			if !done {
				continue
			}
			if err != nil {
				w.generateFailed(pos, err)
				delete(w.chunks, pos)
				w.needsRefresh = true
				c.Failed++
				continue
			}
			delete(w.backoff, pos.Region())
			if res.column != nil {
				w.columns[pos.Column()] = res.column
			}
			if res.loaded {
				w.observer.ChunkLoaded(SourceDisk)
			} else {
				w.observer.ChunkLoaded(SourceGenerated)
			}
			lc.slot = generatedSlot{chunk: res.chunk}
			c.Generated++
		case renderingSlot:
			rendering = append(rendering, lc)
		}
	}

	sortByDistance(rendering, loader, func(lc *loadedChunk) voxel.ChunkPos { return lc.pos })

	integrated := 0
	for _, lc := range rendering {
		if integrated >= w.maxRendersPerTick {
			break
		}
		s := lc.slot.(renderingSlot)
		res, done, err := s.task.Poll()
		if !done {
			continue
		}
		if err != nil {
			w.logger.Warn("⚠️ Задача меша чанка %s завершилась ошибкой: %v", lc.pos, err)
			w.observer.TaskFailed(ActionRender.String())
			w.delete(ctx, lc.pos)
			w.needsRefresh = true
			c.Failed++
			continue
		}

		lc.slot = renderedSlot{chunk: s.chunk}
		if res.hasMesh {
			integrated++
			if err := w.upsert(lc.pos, res.mesh); err != nil {
				// Приёмник меш не получил: перестроим и отправим заново на следующем тике
				lc.remesh = true
			} else {
				lc.slot = renderedSlot{chunk: s.chunk, hasMesh: true}
			}
		}
		c.Rendered++
	}
	return c
}

// TickReport - итог одного тика
type TickReport struct {
	Changes    int
	Dispatched Dispatched
	Collected  Collected
	Remeshed   int
}

// Tick - один шаг драйвера: обновление граничных срезов и мешей после правок,
// пересчёт требуемых состояний при движении наблюдателя, запуск переходов
// и сбор результатов.
func (w *World) Tick(ctx context.Context, loader voxel.ChunkPos, radius int) TickReport {
	start := time.Now()
	var report TickReport

	w.retryRemovals()
	w.refreshDirtyEdges()
	report.Remeshed = w.remeshDirty()

	if !w.hasLoader || loader != w.loader || radius != w.radius || w.needsRefresh {
		w.UpdateNeededStates(loader, radius)
		w.loader, w.radius, w.hasLoader = loader, radius, true
		w.needsRefresh = false
	}

	changes := w.RequiredStateChanges(loader, radius)
	report.Changes = len(changes)
	report.Dispatched = w.ExecuteStateChanges(ctx, changes)
	report.Collected = w.CollectFinishedTasks(ctx, loader)

	w.ticks++
	w.observer.ChunkStates(w.stateCounts())
	w.observer.TickFinished(time.Since(start))
	return report
}

// refreshDirtyEdges пересчитывает граничные срезы изменённых чанков
func (w *World) refreshDirtyEdges() {
	for _, lc := range w.chunks {
		if chunk, ok := chunkData(lc.slot); ok && chunk.EdgesDirty {
			w.refreshEdges(lc, chunk)
		}
	}
}

// refreshEdges обновляет срезы чанка и помечает соседей для перестроения меша
func (w *World) refreshEdges(lc *loadedChunk, chunk *voxel.Chunk) {
	chunk.UpdateEdgeBits()
	for _, axis := range voxel.Axes {
		if n, ok := w.chunks[lc.pos.Neighbor(axis)]; ok {
			n.remesh = true
		}
	}
}

// remeshDirty синхронно перестраивает меши изменённых чанков в стадии Rendered
func (w *World) remeshDirty() int {
	remeshed := 0
	for pos, lc := range w.chunks {
		rendered, ok := lc.slot.(renderedSlot)
		if !ok || !lc.remesh {
			continue
		}
		neighbors, ok := w.neighbors(pos)
		if !ok {
			continue
		}

		m, hasMesh := w.mesher(rendered.chunk, &neighbors)
		var err error
		switch {
		case hasMesh:
			err = w.upsert(pos, m)
		case rendered.hasMesh:
			err = w.remove(pos)
		}
		if err != nil {
			// remesh остаётся, повтор на следующем тике
			continue
		}
		lc.slot = renderedSlot{chunk: rendered.chunk, hasMesh: hasMesh}
		lc.remesh = false
		remeshed++
	}
	return remeshed
}

// upsert отправляет меш приёмнику. Новый меш отменяет несостоявшуюся выгрузку.
func (w *World) upsert(pos voxel.ChunkPos, m *mesh.ChunkMesh) error {
	if err := w.sink.Upsert(pos, m); err != nil {
		w.logger.Warn("⚠️ Меш чанка %s не принят: %v", pos, err)
		w.observer.SinkFailed("upsert")
		return err
	}
	delete(w.pendingRemovals, pos)
	return nil
}

func (w *World) remove(pos voxel.ChunkPos) error {
	if err := w.sink.Remove(pos); err != nil {
		w.logger.Warn("⚠️ Выгрузка меша чанка %s не принята: %v", pos, err)
		w.observer.SinkFailed("remove")
		return err
	}
	delete(w.pendingRemovals, pos)
	return nil
}

// retryRemovals повторяет выгрузки мешей удалённых чанков
func (w *World) retryRemovals() {
	for pos := range w.pendingRemovals {
		if lc, ok := w.chunks[pos]; ok {
			if rendered, ok := lc.slot.(renderedSlot); ok && rendered.hasMesh {
				// Чанк вернулся и его меш уже заменил старый
				delete(w.pendingRemovals, pos)
				continue
			}
		}
		if w.remove(pos) != nil {
			return
		}
	}
}

// generateFailed продлевает ожидание для региона чанка pos.
// Повторные ошибки в том же окне пишутся только в DEBUG.
func (w *World) generateFailed(pos voxel.ChunkPos, err error) {
	w.observer.TaskFailed(ActionGenerate.String())

	r := pos.Region()
	b, ok := w.backoff[r]
	if !ok {
		b = &regionBackoff{}
		w.backoff[r] = b
	}
	if w.ticks < b.retryAt {
		w.logger.Debug("Задача генерации чанка %s завершилась ошибкой: %v", pos, err)
		return
	}

	b.failures++
	delay := min(uint64(1)<<min(b.failures, 16), maxBackoffTicks)
	b.retryAt = w.ticks + delay
	w.logger.Warn("⚠️ Задача генерации чанка %s завершилась ошибкой (%d подряд для региона %s), повтор через %d тиков: %v",
		pos, b.failures, r, delay, err)
}

// SetVoxel меняет блок загруженного чанка. Меш перестраивается на следующем тике.
// Возвращает false, если чанк не загружен или блок не изменился.
func (w *World) SetVoxel(pos voxel.VoxelPos, v voxel.Voxel) bool {
	lc, ok := w.chunks[pos.Chunk()]
	if !ok {
		return false
	}
	chunk, ok := chunkData(lc.slot)
	if !ok {
		return false
	}
	if !chunk.Set(pos.InChunk(), v) {
		return false
	}
	lc.remesh = true
	return true
}

// Voxel возвращает блок загруженного чанка
func (w *World) Voxel(pos voxel.VoxelPos) (voxel.Voxel, bool) {
	lc, ok := w.chunks[pos.Chunk()]
	if !ok {
		return voxel.Air, false
	}
	chunk, ok := chunkData(lc.slot)
	if !ok {
		return voxel.Air, false
	}
	return chunk.At(pos.InChunk()), true
}

// EachGenerated обходит чанки, у которых есть данные
func (w *World) EachGenerated(fn func(pos voxel.ChunkPos, c *voxel.Container)) {
	for pos, lc := range w.chunks {
		if chunk, ok := chunkData(lc.slot); ok {
			fn(pos, &chunk.Voxels)
		}
	}
}

// SaveReport - итог принудительного сохранения
type SaveReport struct {
	Extracted int `json:"extracted"`
	Flushed   int `json:"flushed"`
	Evicted   int `json:"evicted"`
}

// Save переносит все загруженные чанки в регионы, сохраняет изменённые регионы
// и выгружает регионы без загруженных чанков.
func (w *World) Save(ctx context.Context) (SaveReport, error) {
	var report SaveReport
	var err error

	report.Extracted, err = w.store.ExtractChunks(ctx, w)
	if err != nil {
		return report, err
	}
	report.Flushed, err = w.store.Flush(ctx)
	if err != nil {
		return report, err
	}

	resident := make(map[voxel.RegionPos]struct{})
	for pos := range w.chunks {
		resident[pos.Region()] = struct{}{}
	}
	report.Evicted = w.store.Evict(func(r voxel.RegionPos) bool {
		_, ok := resident[r]
		return ok
	})

	w.logger.Info("💾 Мир сохранён: чанков %d, регионов записано %d, выгружено %d",
		report.Extracted, report.Flushed, report.Evicted)
	return report, nil
}

// ChunkInfo - отладочное описание загруженного чанка
type ChunkInfo struct {
	Pos       voxel.ChunkPos `json:"pos"`
	State     string         `json:"state"`
	Needed    string         `json:"needed"`
	HasMesh   bool           `json:"has_mesh"`
	Empty     bool           `json:"empty"`
	Histogram map[string]int `json:"histogram,omitempty"`
}

// ChunkInfo возвращает описание чанка, если он загружен
func (w *World) ChunkInfo(pos voxel.ChunkPos) (ChunkInfo, bool) {
	lc, ok := w.chunks[pos]
	if !ok {
		return ChunkInfo{}, false
	}

	info := ChunkInfo{
		Pos:    pos,
		State:  lc.slot.state().String(),
		Needed: lc.needed.String(),
	}
	if rendered, ok := lc.slot.(renderedSlot); ok {
		info.HasMesh = rendered.hasMesh
	}
	if chunk, ok := chunkData(lc.slot); ok {
		info.Empty = chunk.DefinitelyEmpty
		info.Histogram = make(map[string]int)
		for v, n := range chunk.Voxels.Histogram() {
			info.Histogram[v.String()] = n
		}
	}
	return info, true
}

// State возвращает стадию чанка
func (w *World) State(pos voxel.ChunkPos) (ChunkState, bool) {
	lc, ok := w.chunks[pos]
	if !ok {
		return StateEmpty, false
	}
	return lc.slot.state(), true
}

// Stats - снимок состояния карты
type Stats struct {
	Ticks   uint64         `json:"ticks"`
	Loaded  int            `json:"loaded"`
	Columns int            `json:"columns"`
	States  map[string]int `json:"states"`
	Loader  voxel.ChunkPos `json:"loader"`
	Radius  int            `json:"radius"`
	// Регионы, генерация в которых ждёт повтора после ошибок чтения
	BackoffRegions int `json:"backoff_regions"`
	// Выгрузки мешей, ожидающие повтора
	PendingRemovals int `json:"pending_removals"`
}

// Stats возвращает снимок состояния карты
func (w *World) Stats() Stats {
	return Stats{
		Ticks:   w.ticks,
		Loaded:  len(w.chunks),
		Columns: len(w.columns),
		States:  w.stateCounts(),
		Loader:  w.loader,
		Radius:  w.radius,

		BackoffRegions:  len(w.backoff),
		PendingRemovals: len(w.pendingRemovals),
	}
}

func (w *World) stateCounts() map[string]int {
	counts := make(map[string]int, len(chunkStateNames))
	for _, name := range chunkStateNames {
		counts[name] = 0
	}
	for _, lc := range w.chunks {
		counts[lc.slot.state().String()]++
	}
	return counts
}

type nopSink struct{}

func (nopSink) Upsert(voxel.ChunkPos, *mesh.ChunkMesh) error { return nil }
func (nopSink) Remove(voxel.ChunkPos) error                  { return nil }

type nopObserver struct{}

func (nopObserver) ActionDispatched(string)    {}
func (nopObserver) RenderDeferred()            {}
func (nopObserver) TaskFailed(string)          {}
func (nopObserver) ChunkLoaded(string)         {}
func (nopObserver) SinkFailed(string)          {}
func (nopObserver) ChunkStates(map[string]int) {}
func (nopObserver) TickFinished(time.Duration) {}
