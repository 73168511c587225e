package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/voxel"
)

var (
	// ErrDriverStopped возвращается, если драйвер уже не принимает команды
	ErrDriverStopped = errors.New("драйвер мира остановлен")
	// ErrRadiusTooLarge - радиус загрузки выше MaxRadius драйвера
	ErrRadiusTooLarge = errors.New("радиус загрузки слишком велик")
)

// DefaultMaxRadius ограничивает радиус, если он не задан в конфигурации.
// Радиус r держит в памяти (2r+1)³ чанков.
const DefaultMaxRadius = 16

// DriverConfig - настройки цикла драйвера
type DriverConfig struct {
	TickRate         time.Duration // период тика
	AutosaveInterval time.Duration // 0 - без автосохранения
	Radius           int           // радиус загрузки в чанках
	MaxRadius        int           // верхняя граница радиуса; 0 - DefaultMaxRadius
	Loader           voxel.ChunkPos
}

// Driver крутит World.Tick по таймеру и выполняет команды из других горутин.
type Driver struct {
	world    *World
	cfg      DriverConfig
	loader   voxel.ChunkPos
	radius   int
	commands chan Command
	done     chan struct{}
	logger   *logging.Logger
}

// NewDriver создаёт драйвер мира
func NewDriver(w *World, cfg DriverConfig) *Driver {
	if cfg.TickRate <= 0 {
		cfg.TickRate = 50 * time.Millisecond
	}
	if cfg.MaxRadius <= 0 {
		cfg.MaxRadius = DefaultMaxRadius
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 1
	}
	cfg.Radius = min(cfg.Radius, cfg.MaxRadius)
	return &Driver{
		world:    w,
		cfg:      cfg,
		loader:   cfg.Loader,
		radius:   cfg.Radius,
		commands: make(chan Command, 64),
		done:     make(chan struct{}),
		logger:   logging.GetWorldLogger(),
	}
}

// Run выполняет цикл до отмены ctx. При остановке мир сохраняется.
func (d *Driver) Run(ctx context.Context) error {
	defer close(d.done)

	ticker := time.NewTicker(d.cfg.TickRate)
	defer ticker.Stop()

	var autosave <-chan time.Time
	if d.cfg.AutosaveInterval > 0 {
		t := time.NewTicker(d.cfg.AutosaveInterval)
		defer t.Stop()
		autosave = t.C
	}

	d.logger.Info("🌍 Драйвер мира запущен: тик %v, радиус %d, наблюдатель %s", d.cfg.TickRate, d.radius, d.loader)

	for {
		select {
		case <-ctx.Done():
			return d.shutdown()
		case cmd := <-d.commands:
			cmd.apply(ctx, d)
		case <-autosave:
			if _, err := d.world.Save(ctx); err != nil {
				d.logger.Error("❌ Ошибка автосохранения: %v", err)
			}
		case <-ticker.C:
			d.world.Tick(ctx, d.loader, d.radius)
		}
	}
}

// shutdown сохраняет мир с отдельным таймаутом, так как контекст цикла уже отменён
func (d *Driver) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Отвечаем на команды, пришедшие до остановки
drain:
	for {
		select {
		case cmd := <-d.commands:
			cmd.apply(ctx, d)
		default:
			break drain
		}
	}

	_, err := d.world.Save(ctx)
	if err != nil {
		d.logger.Error("❌ Ошибка сохранения при остановке: %v", err)
	}
	d.logger.Info("🛑 Драйвер мира остановлен")
	return err
}

// Submit передаёт команду драйверу
func (d *Driver) Submit(ctx context.Context, cmd Command) error {
	select {
	case <-d.done:
		return ErrDriverStopped
	default:
	}
	select {
	case d.commands <- cmd:
		return nil
	case <-d.done:
		return ErrDriverStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await[T any](ctx context.Context, d *Driver, reply <-chan T) (T, error) {
	var zero T
	select {
	case v := <-reply:
		return v, nil
	case <-d.done:
		// Команда могла быть выполнена при остановке
		select {
		case v := <-reply:
			return v, nil
		default:
			return zero, ErrDriverStopped
		}
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// MaxRadius возвращает верхнюю границу радиуса загрузки
func (d *Driver) MaxRadius() int { return d.cfg.MaxRadius }

// MoveLoader перемещает наблюдателя. Радиус 0 оставляет текущий.
func (d *Driver) MoveLoader(ctx context.Context, pos voxel.ChunkPos, radius int) error {
	if radius > d.cfg.MaxRadius {
		return fmt.Errorf("%w: %d > %d", ErrRadiusTooLarge, radius, d.cfg.MaxRadius)
	}
	return d.Submit(ctx, MoveLoader{Pos: pos, Radius: radius})
}

// Save принудительно сохраняет мир и ждёт результата
func (d *Driver) Save(ctx context.Context) (SaveReport, error) {
	reply := make(chan SaveResult, 1)
	if err := d.Submit(ctx, SaveRequest{Reply: reply}); err != nil {
		return SaveReport{}, err
	}
	res, err := await(ctx, d, reply)
	if err != nil {
		return SaveReport{}, err
	}
	return res.Report, res.Err
}

// Stats возвращает снимок состояния мира
func (d *Driver) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := d.Submit(ctx, StatsRequest{Reply: reply}); err != nil {
		return Stats{}, err
	}
	return await(ctx, d, reply)
}

// ChunkInfo возвращает описание загруженного чанка
func (d *Driver) ChunkInfo(ctx context.Context, pos voxel.ChunkPos) (ChunkInfo, bool, error) {
	reply := make(chan ChunkInfoResult, 1)
	if err := d.Submit(ctx, ChunkInfoRequest{Pos: pos, Reply: reply}); err != nil {
		return ChunkInfo{}, false, err
	}
	res, err := await(ctx, d, reply)
	return res.Info, res.Found, err
}

// SetVoxel меняет блок загруженного чанка
func (d *Driver) SetVoxel(ctx context.Context, pos voxel.VoxelPos, v voxel.Voxel) (bool, error) {
	reply := make(chan bool, 1)
	if err := d.Submit(ctx, SetVoxelRequest{Pos: pos, Voxel: v, Reply: reply}); err != nil {
		return false, err
	}
	return await(ctx, d, reply)
}
