package region

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/voxel"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/annel0/voxel-world/internal/region")

// ChunkSource перечисляет сгенерированные чанки живого мира
type ChunkSource interface {
	EachGenerated(fn func(pos voxel.ChunkPos, c *voxel.Container))
}

// Observer получает события хранилища (метрики)
type Observer interface {
	RegionLoaded()
	RegionCorrupt()
	RegionStored(bytes int)
}

type nopObserver struct{}

func (nopObserver) RegionLoaded()    {}
func (nopObserver) RegionCorrupt()   {}
func (nopObserver) RegionStored(int) {}

// residentRegion - загруженный регион и номер его последнего изменения
type residentRegion struct {
	region  *Region
	version uint64
	flushed uint64
}

func (rr *residentRegion) dirty() bool { return rr.version != rr.flushed }

// Store - единственная разделяемая структура мира: кэш регионов поверх Backend.
// Читатели (Chunk, Stats) работают параллельно, загрузка и запись эксклюзивны.
type Store struct {
	world    string
	backend  storage.Backend
	codec    *Codec
	observer Observer
	logger   *logging.Logger

	regions map[voxel.RegionPos]*residentRegion
	closed  bool
	mu      sync.RWMutex

	stats StoreStats
}

// StoreStats содержит счётчики хранилища
type StoreStats struct {
	loads        atomic.Int64
	stores       atomic.Int64
	corruptLoads atomic.Int64
	bytesWritten atomic.Int64
}

// StatsSnapshot - снимок статистики хранилища
type StatsSnapshot struct {
	Resident     int   `json:"resident"`
	Dirty        int   `json:"dirty"`
	Loads        int64 `json:"loads"`
	Stores       int64 `json:"stores"`
	CorruptLoads int64 `json:"corrupt_loads"`
	BytesWritten int64 `json:"bytes_written"`
}

// Option настраивает Store
type Option func(*Store)

// WithObserver подключает наблюдателя событий хранилища
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// NewStore создаёт хранилище регионов мира world
func NewStore(world string, backend storage.Backend, codec *Codec, opts ...Option) *Store {
	s := &Store{
		world:    world,
		backend:  backend,
		codec:    codec,
		observer: nopObserver{},
		logger:   logging.GetRegionLogger(),
		regions:  make(map[voxel.RegionPos]*residentRegion),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// World возвращает имя мира
func (s *Store) World() string { return s.world }

// load читает регион из хранилища без блокировки.
// Отсутствующий и повреждённый регион заменяются пустым.
func (s *Store) load(ctx context.Context, pos voxel.RegionPos) (*Region, error) {
	data, err := s.backend.Load(ctx, s.world, pos)
	if errors.Is(err, storage.ErrNotFound) {
		return NewRegion(pos), nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить регион %s: %w", pos, err)
	}

	r, err := s.codec.Decode(pos, data)
	if errors.Is(err, ErrCorrupt) {
		s.stats.corruptLoads.Add(1)
		s.observer.RegionCorrupt()
		s.logger.Warn("⚠️ Регион %s повреждён, чанки будут сгенерированы заново: %v", pos, err)
		return NewRegion(pos), nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось разобрать регион %s: %w", pos, err)
	}

	s.stats.loads.Add(1)
	s.observer.RegionLoaded()
	return r, nil
}

// withRegion гарантирует, что регион загружен, и вызывает fn под блокировкой записи.
// Чтение из хранилища идёт без блокировки; при гонке побеждает уже установленный регион.
func (s *Store) withRegion(ctx context.Context, pos voxel.RegionPos, fn func(rr *residentRegion)) error {
	for {
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if rr, ok := s.regions[pos]; ok {
			fn(rr)
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()

		loaded, err := s.load(ctx, pos)
		if err != nil {
			return err
		}

		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return ErrClosed
		}
		if _, ok := s.regions[pos]; !ok {
			s.regions[pos] = &residentRegion{region: loaded}
		}
		s.mu.Unlock()
	}
}

// CheckForChunk возвращает копию сохранённого чанка, подгружая регион при необходимости.
// Возвращает:
//
//	*voxel.Container - копия данных или nil
//	bool - найден ли чанк
//	error - ошибка хранилища (регион при этом не устанавливается)
func (s *Store) CheckForChunk(ctx context.Context, pos voxel.ChunkPos) (*voxel.Container, bool, error) {
	var out *voxel.Container
	err := s.withRegion(ctx, pos.Region(), func(rr *residentRegion) {
		if c := rr.region.Chunk(pos.InRegion()); c != nil {
			out = c.Clone()
		}
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// SetChunk записывает копию чанка в его регион и помечает регион изменённым.
// Регион сначала подгружается, чтобы запись не затёрла сохранённые соседние чанки.
func (s *Store) SetChunk(ctx context.Context, pos voxel.ChunkPos, c *voxel.Container) error {
	return s.withRegion(ctx, pos.Region(), func(rr *residentRegion) {
		rr.region.SetChunk(pos.InRegion(), c)
		rr.version++
	})
}

// RegionMut даёт изменяемый доступ к региону под блокировкой записи.
// Отсутствующий регион создаётся; после fn регион считается изменённым.
func (s *Store) RegionMut(ctx context.Context, pos voxel.RegionPos, fn func(r *Region)) error {
	return s.withRegion(ctx, pos, func(rr *residentRegion) {
		fn(rr.region)
		rr.version++
	})
}

// Chunk возвращает копию чанка только из загруженных регионов
func (s *Store) Chunk(pos voxel.ChunkPos) (*voxel.Container, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rr, ok := s.regions[pos.Region()]
	if !ok {
		return nil, false
	}
	c := rr.region.Chunk(pos.InRegion())
	if c == nil {
		return nil, false
	}
	return c.Clone(), true
}

// ExtractChunks копирует все сгенерированные чанки мира в регионы
func (s *Store) ExtractChunks(ctx context.Context, src ChunkSource) (int, error) {
	type pending struct {
		pos voxel.ChunkPos
		c   *voxel.Container
	}
	var chunks []pending
	src.EachGenerated(func(pos voxel.ChunkPos, c *voxel.Container) {
		chunks = append(chunks, pending{pos, c})
	})

	for i, p := range chunks {
		if err := s.SetChunk(ctx, p.pos, p.c); err != nil {
			return i, err
		}
	}
	return len(chunks), nil
}

type flushJob struct {
	pos     voxel.RegionPos
	version uint64
	data    []byte
}

// Flush кодирует и сохраняет все изменённые регионы.
// Кодирование идёт под блокировкой чтения, запись в хранилище - без блокировки.
func (s *Store) Flush(ctx context.Context) (int, error) {
	ctx, span := tracer.Start(ctx, "region.Flush")
	defer span.End()
	start := time.Now()

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return 0, ErrClosed
	}
	var jobs []flushJob
	for pos, rr := range s.regions {
		if !rr.dirty() {
			continue
		}
		data, err := s.codec.Encode(rr.region)
		if err != nil {
			s.mu.RUnlock()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return 0, fmt.Errorf("не удалось закодировать регион %s: %w", pos, err)
		}
		jobs = append(jobs, flushJob{pos: pos, version: rr.version, data: data})
	}
	s.mu.RUnlock()

	written := 0
	var errs []error
	for _, job := range jobs {
		if err := s.backend.Store(ctx, s.world, job.pos, job.data); err != nil {
			errs = append(errs, fmt.Errorf("регион %s: %w", job.pos, err))
			continue
		}
		written++
		s.stats.stores.Add(1)
		s.stats.bytesWritten.Add(int64(len(job.data)))
		s.observer.RegionStored(len(job.data))

		s.mu.Lock()
		if rr, ok := s.regions[job.pos]; ok && rr.flushed < job.version {
			rr.flushed = job.version
		}
		s.mu.Unlock()
	}

	span.SetAttributes(
		attribute.String("world", s.world),
		attribute.Int("regions.written", written),
	)

	if err := errors.Join(errs...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return written, fmt.Errorf("ошибка сохранения регионов: %w", err)
	}

	if written > 0 {
		s.logger.Debug("💾 Сохранено регионов: %d за %v", written, time.Since(start))
	}
	return written, nil
}

// Evict выгружает сохранённые регионы, для которых keep возвращает false
func (s *Store) Evict(keep func(voxel.RegionPos) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for pos, rr := range s.regions {
		if rr.dirty() || (keep != nil && keep(pos)) {
			continue
		}
		delete(s.regions, pos)
		evicted++
	}
	return evicted
}

// Regions возвращает координаты загруженных регионов
func (s *Store) Regions() []voxel.RegionPos {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]voxel.RegionPos, 0, len(s.regions))
	for pos := range s.regions {
		out = append(out, pos)
	}
	return out
}

// Stats возвращает снимок статистики
func (s *Store) Stats() StatsSnapshot {
	s.mu.RLock()
	resident := len(s.regions)
	dirty := 0
	for _, rr := range s.regions {
		if rr.dirty() {
			dirty++
		}
	}
	s.mu.RUnlock()

	return StatsSnapshot{
		Resident:     resident,
		Dirty:        dirty,
		Loads:        s.stats.loads.Load(),
		Stores:       s.stats.stores.Load(),
		CorruptLoads: s.stats.corruptLoads.Load(),
		BytesWritten: s.stats.bytesWritten.Load(),
	}
}

// Close сохраняет изменения и закрывает хранилище.
// Повторный вызов возвращает ErrClosed.
func (s *Store) Close(ctx context.Context) error {
	_, flushErr := s.Flush(ctx)
	if errors.Is(flushErr, ErrClosed) {
		return ErrClosed
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.closed = true
	s.regions = make(map[voxel.RegionPos]*residentRegion)
	s.mu.Unlock()

	s.codec.Close()
	return errors.Join(flushErr, s.backend.Close())
}
