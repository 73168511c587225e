package eventbus

import (
	"context"

	"github.com/annel0/voxel-world/internal/logging"
)

// StartLoggingListener подписывается на все события и пишет их в лог уровня DEBUG.
// Функция неблокирующая.
func StartLoggingListener(bus EventBus) (Subscription, error) {
	logger := logging.GetEventBusLogger()
	sub, err := bus.Subscribe(context.Background(), Filter{}, func(ctx context.Context, ev *Envelope) {
		switch ev.EventType {
		case TypeChunkMeshed:
			if m, err := DecodeChunkMeshed(ev.Payload); err == nil {
				logger.Debug("%s %s src=%s chunk=%s quads=%d verts=%d", ev.ID, ev.EventType, ev.Source, m.Pos, m.Quads, len(m.Packed))
				return
			}
		case TypeChunkUnloaded:
			if pos, err := DecodeChunkUnloaded(ev.Payload); err == nil {
				logger.Debug("%s %s src=%s chunk=%s", ev.ID, ev.EventType, ev.Source, pos)
				return
			}
		}
		logger.Debug("%s %s src=%s prio=%d size=%dB", ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload))
	})
	if err != nil {
		return nil, err
	}
	logger.Info("🪵 LoggingListener: подписка на все события активирована")
	return sub, nil
}
