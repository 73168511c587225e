package eventbus

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("шина событий закрыта")

// Envelope описывает универсальный контейнер события.
type Envelope struct {
	ID        string            // Глобально уникальный идентификатор (UUID).
	Timestamp time.Time         // Время создания события (UTC).
	Source    string            // Имя источника (мир).
	EventType string            // Тип события (ChunkMeshed, ChunkUnloaded).
	Version   int               // Схема полезной нагрузки.
	Priority  int               // 0=Low … 9=Critical (для backpressure).
	Payload   []byte            // Сериализованная полезная нагрузка.
	Metadata  map[string]string // Произвольные метаданные.
}

// Filter позволяет подписаться только на нужные события.
type Filter struct {
	Types   []string // Пусто - все типы.
	Sources []string // Пусто - все источники.
}

// Subscription возвращается при подписке; позволяет отписаться.
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64 // отброшены без уведомления отправителя
	Rejected  uint64 // Publish вернул ошибку (ctx или закрытие шины)
	InFlight  int
}

// EventBus определяет абстракцию шины событий.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close()
}

//================ In-Memory implementation =================//

// highPriority - события с приоритетом от этого значения не отбрасываются.
// При заполненной очереди подписчика рассылка ждёт его, и давление доходит
// до Publish, который вернёт ошибку по ctx.
const highPriority = 5

type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[int]*subscriber
	nextID      int
	consumers   sync.WaitGroup

	buffer    chan *Envelope
	capacity  int
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64
}

// subscriber получает события через собственную очередь,
// поэтому порядок событий для одного подписчика сохраняется.
type subscriber struct {
	filter  Filter
	handler Handler
	queue   chan *Envelope
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory Bus с указанным буфером.
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 1
	}
	mb := &memoryBus{
		subscribers: make(map[int]*subscriber),
		buffer:      make(chan *Envelope, capacity),
		capacity:    capacity,
		closing:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	if mb.isClosed() {
		return ErrClosed
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	default:
		// Буфер заполнен, дропаем низкий приоритет
		if ev.Priority < highPriority {
			mb.dropped.Add(1)
			return nil
		}
		// Для High-priority блокируем до освобождения места или отмены контекста
		select {
		case mb.buffer <- ev:
			mb.published.Add(1)
			return nil
		case <-ctx.Done():
			mb.rejected.Add(1)
			return ctx.Err()
		case <-mb.closing:
			mb.rejected.Add(1)
			return ErrClosed
		}
	}
}

func (mb *memoryBus) isClosed() bool {
	select {
	case <-mb.closing:
		return true
	default:
		return false
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	if mb.isClosed() {
		return nil, ErrClosed
	}

	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	sub := &subscriber{
		filter:  f,
		handler: h,
		queue:   make(chan *Envelope, mb.capacity),
		ctx:     cctx,
		cancel:  cancel,
	}
	mb.subscribers[id] = sub
	mb.consumers.Add(1)
	go mb.consume(sub)

	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		Rejected:  mb.rejected.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close прекращает приём событий и дожидается доставки уже опубликованных
func (mb *memoryBus) Close() {
	mb.mu.Lock()
	mb.closeOnce.Do(func() { close(mb.closing) })
	mb.mu.Unlock()

	<-mb.done
	mb.consumers.Wait()
}

// dispatchLoop раскладывает события по очередям подписчиков.
func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)

	for {
		select {
		case ev := <-mb.buffer:
			mb.dispatch(ev)
		case <-mb.closing:
			for {
				select {
				case ev := <-mb.buffer:
					mb.dispatch(ev)
				default:
					mb.mu.Lock()
					for id, sub := range mb.subscribers {
						sub.cancel()
						delete(mb.subscribers, id)
					}
					mb.mu.Unlock()
					return
				}
			}
		}
	}
}

func (mb *memoryBus) dispatch(ev *Envelope) {
	mb.mu.RLock()
	subs := make([]*subscriber, 0, len(mb.subscribers))
	for _, sub := range mb.subscribers {
		subs = append(subs, sub)
	}
	mb.mu.RUnlock()

	for _, sub := range subs {
		if !matchFilter(ev, sub.filter) {
			continue
		}
		if ev.Priority >= highPriority {
			select {
			case sub.queue <- ev:
			case <-sub.ctx.Done():
			}
			continue
		}
		select {
		case sub.queue <- ev:
		case <-sub.ctx.Done():
		default:
			mb.dropped.Add(1)
		}
	}
}

func (mb *memoryBus) consume(sub *subscriber) {
	defer mb.consumers.Done()
	for {
		select {
		case ev := <-sub.queue:
			sub.handler(sub.ctx, ev)
			mb.consumed.Add(1)
		case <-sub.ctx.Done():
			// Дочитываем то, что уже в очереди
			for {
				select {
				case ev := <-sub.queue:
					sub.handler(sub.ctx, ev)
					mb.consumed.Add(1)
				default:
					return
				}
			}
		}
	}
}

func matchFilter(ev *Envelope, f Filter) bool {
	match := func(val string, arr []string) bool {
		if len(arr) == 0 {
			return true
		}
		for _, v := range arr {
			if v == val {
				return true
			}
		}
		return false
	}
	return match(ev.EventType, f.Types) && match(ev.Source, f.Sources)
}

type memSub struct {
	bus *memoryBus
	id  int
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
