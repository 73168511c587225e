package scheduler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/shirou/gopsutil/v3/cpu"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/annel0/voxel-world/internal/scheduler")

// ErrPanic оборачивает панику внутри задачи
var ErrPanic = errors.New("паника в задаче")

// Observer получает длительность каждой завершённой задачи (метрики)
type Observer interface {
	TaskFinished(kind string, d time.Duration, err error)
}

// Scheduler выполняет фоновые задачи генерации и построения мешей в пуле воркеров.
// Задачи не трогают состояние мира: результат забирается опросом Task.Poll.
type Scheduler struct {
	pool     pond.Pool
	workers  int
	observer Observer
	logger   *logging.Logger
	stats    Stats
}

// Stats содержит статистику планировщика
type Stats struct {
	submitted atomic.Int64
	completed atomic.Int64
	failed    atomic.Int64
	busyNanos atomic.Int64 // суммарное время выполнения задач
}

// StatsSnapshot - снимок статистики планировщика
type StatsSnapshot struct {
	Workers   int           `json:"workers"`
	Running   int64         `json:"running"`
	Waiting   uint64        `json:"waiting"`
	Submitted int64         `json:"submitted"`
	Completed int64         `json:"completed"`
	Failed    int64         `json:"failed"`
	BusyTime  time.Duration `json:"busy_time"`
}

// Option настраивает Scheduler
type Option func(*Scheduler)

// WithObserver подключает наблюдателя длительности задач
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.observer = o }
}

// DefaultWorkers возвращает количество логических CPU
func DefaultWorkers() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// New создаёт планировщик с workers воркерами (0 - по числу CPU).
// Отмена ctx останавливает пул.
func New(ctx context.Context, workers int, opts ...Option) *Scheduler {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	s := &Scheduler{
		pool:    pond.NewPool(workers, pond.WithContext(ctx)),
		workers: workers,
		logger:  logging.GetSchedulerLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("🧵 Планировщик запущен: %d воркеров", workers)
	return s
}

// Task - фоновая задача с результатом T. Опрос не блокирует вызывающего.
type Task[T any] struct {
	kind   string
	task   pond.Task
	result T
}

// Spawn ставит fn в очередь пула. Паника внутри fn превращается в ошибку задачи.
func Spawn[T any](ctx context.Context, s *Scheduler, kind string, fn func(ctx context.Context) (T, error)) *Task[T] {
	t := &Task[T]{kind: kind}
	s.stats.submitted.Add(1)

	t.task = s.pool.SubmitErr(func() error {
		ctx, span := tracer.Start(ctx, "task."+kind)
		defer span.End()

		start := time.Now()
		result, err := runTask(ctx, fn)
		elapsed := time.Since(start)

		s.stats.busyNanos.Add(int64(elapsed))
		span.SetAttributes(attribute.String("task.kind", kind))
		if err != nil {
			s.stats.failed.Add(1)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			s.stats.completed.Add(1)
		}
		if s.observer != nil {
			s.observer.TaskFinished(kind, elapsed, err)
		}

		t.result = result
		return err
	})
	return t
}

// runTask вызывает fn, превращая панику в ErrPanic, чтобы задача попала в счётчики ошибок
func runTask[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx)
}

// Kind возвращает тип задачи
func (t *Task[T]) Kind() string { return t.kind }

// Poll проверяет завершение задачи без блокировки.
// Возвращает:
//
//	T - результат (если задача завершилась успешно)
//	bool - завершилась ли задача
//	error - ошибка или паника задачи
func (t *Task[T]) Poll() (T, bool, error) {
	select {
	case <-t.task.Done():
		err := t.task.Wait()
		return t.result, true, err
	default:
		var zero T
		return zero, false, nil
	}
}

// Wait блокируется до завершения задачи
func (t *Task[T]) Wait() (T, error) {
	err := t.task.Wait()
	return t.result, err
}

// Stop дожидается выполнения поставленных задач и останавливает пул
func (s *Scheduler) Stop() {
	s.pool.StopAndWait()
	s.logger.Info("🛑 Планировщик остановлен: выполнено %d, ошибок %d",
		s.stats.completed.Load(), s.stats.failed.Load())
}

// Workers возвращает размер пула
func (s *Scheduler) Workers() int { return s.workers }

// Stats возвращает снимок статистики
func (s *Scheduler) Stats() StatsSnapshot {
	return StatsSnapshot{
		Workers:   s.workers,
		Running:   s.pool.RunningWorkers(),
		Waiting:   s.pool.WaitingTasks(),
		Submitted: s.stats.submitted.Load(),
		Completed: s.stats.completed.Load(),
		Failed:    s.stats.failed.Load(),
		BusyTime:  time.Duration(s.stats.busyNanos.Load()),
	}
}
