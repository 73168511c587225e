package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
)

// JetStreamConfig - параметры подключения к NATS JetStream.
type JetStreamConfig struct {
	URL       string        // nats://127.0.0.1:4222
	Stream    string        // Имя стрима, по умолчанию VOXEL_EVENTS
	Subject   string        // Префикс subject, по умолчанию voxel.events
	Retention time.Duration // MaxAge стрима, 0 - без ограничения
	Timeout   time.Duration // Таймаут подключения
}

const (
	defaultStream  = "VOXEL_EVENTS"
	defaultSubject = "voxel.events"

	headerPriority = "Voxel-Priority"
)

// JetStreamBus реализует EventBus поверх NATS JetStream.
// Подписчики получают только события, опубликованные после подписки.
type JetStreamBus struct {
	nc      *nats.Conn
	js      nats.JetStreamContext
	stream  string
	subject string
	closed  atomic.Bool

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
	rejected  atomic.Uint64
}

// NewJetStreamBus подключается к NATS и гарантирует наличие стрима.
func NewJetStreamBus(cfg JetStreamConfig) (*JetStreamBus, error) {
	if cfg.Stream == "" {
		cfg.Stream = defaultStream
	}
	if cfg.Subject == "" {
		cfg.Subject = defaultSubject
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name("voxel-world"),
		nats.Timeout(cfg.Timeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("подключение к nats %s: %w", cfg.URL, err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err := js.StreamInfo(cfg.Stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      cfg.Stream,
			Subjects:  []string{cfg.Subject + ".*"},
			Retention: nats.LimitsPolicy,
			MaxAge:    cfg.Retention,
			Storage:   nats.FileStorage,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("создание стрима %s: %w", cfg.Stream, err)
		}
	}

	return &JetStreamBus{nc: nc, js: js, stream: cfg.Stream, subject: cfg.Subject}, nil
}

// Publish сериализует Envelope в JSON и публикует в <subject>.<type>.
// ID события уходит в Nats-Msg-Id, поэтому повтор публикации не дублирует его.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	if jb.closed.Load() {
		jb.rejected.Add(1)
		return ErrClosed
	}

	msg, err := encodeMsg(jb.subject, ev)
	if err != nil {
		jb.rejected.Add(1)
		return err
	}
	if _, err := jb.js.PublishMsg(msg, nats.Context(ctx), nats.MsgId(ev.ID)); err != nil {
		jb.rejected.Add(1)
		return fmt.Errorf("публикация в %s: %w", msg.Subject, err)
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт эфемерного потребителя. Фильтр по источникам
// и по нескольким типам применяется на стороне клиента.
// Подписка снимается сама при отмене ctx.
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	if jb.closed.Load() {
		return nil, ErrClosed
	}

	natSub, err := jb.js.Subscribe(subscribeSubject(jb.subject, f), func(msg *nats.Msg) {
		if jb.deliver(ctx, msg.Data, f, h) {
			jb.consumed.Add(1)
		}
		_ = msg.Ack()
	}, nats.ManualAck(), nats.DeliverNew(), nats.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("подписка на %s: %w", jb.stream, err)
	}

	sub := &jetSub{s: natSub}
	context.AfterFunc(ctx, sub.Unsubscribe)
	return sub, nil
}

// deliver разбирает сообщение и передаёт его обработчику, если оно проходит фильтр.
// Битые сообщения учитываются как отброшенные.
func (jb *JetStreamBus) deliver(ctx context.Context, data []byte, f Filter, h Handler) bool {
	var ev Envelope
	if err := json.Unmarshal(data, &ev); err != nil {
		jb.dropped.Add(1)
		return false
	}
	if !matchFilter(&ev, f) {
		return false
	}
	h(ctx, &ev)
	return true
}

// Metrics возвращает текущие метрики. Очередь хранит сам JetStream.
func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
		Rejected:  jb.rejected.Load(),
	}
}

// Close дожидается обработки полученных сообщений и закрывает соединение
func (jb *JetStreamBus) Close() {
	if jb.closed.Swap(true) {
		return
	}
	_ = jb.nc.Drain()
}

func encodeMsg(prefix string, ev *Envelope) (*nats.Msg, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("сериализация события %s: %w", ev.EventType, err)
	}
	msg := nats.NewMsg(prefix + "." + ev.EventType)
	msg.Header.Set(headerPriority, strconv.Itoa(ev.Priority))
	msg.Data = data
	return msg, nil
}

// subscribeSubject сужает подписку до одного subject, если тип единственный
func subscribeSubject(prefix string, f Filter) string {
	if len(f.Types) == 1 {
		return prefix + "." + f.Types[0]
	}
	return prefix + ".*"
}

// jetSub обёртка вокруг *nats.Subscription.
type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}
