package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/annel0/voxel-world/internal/api"
	"github.com/annel0/voxel-world/internal/config"
	"github.com/annel0/voxel-world/internal/eventbus"
	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/metrics"
	"github.com/annel0/voxel-world/internal/observability"
	"github.com/annel0/voxel-world/internal/region"
	"github.com/annel0/voxel-world/internal/scheduler"
	"github.com/annel0/voxel-world/internal/storage"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/annel0/voxel-world/internal/world"
)

func main() {
	var (
		configPath = flag.String("config", "", "Путь к config.yml (по умолчанию VOXEL_CONFIG)")
		walk       = flag.Duration("walk", 0, "Период шага наблюдателя по кругу (0 - стоять на месте)")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	if err := logging.InitDefaultLogger("server", cfg.Logging.Dir); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	level, _ := logging.ParseLevel(cfg.Logging.Level)
	logging.SetLevel(level)
	if err := logging.GetLoggerManager().ApplyLevels(cfg.Logging.Components); err != nil {
		logging.Warn("⚠️ %v", err)
	}

	if err := run(cfg, *walk); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Сервер успешно остановлен")
}

func run(cfg *config.Config, walk time.Duration) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("🌍 Запуск сервера мира %q", cfg.World.Name)

	// === ТРАССИРОВКА ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, observability.Options{
			ServiceName: cfg.Telemetry.ServiceName,
			Endpoint:    cfg.Telemetry.Endpoint,
			Insecure:    true,
		})
		if err != nil {
			return fmt.Errorf("ошибка инициализации OpenTelemetry: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logging.Warn("⚠️ Ошибка остановки OpenTelemetry: %v", err)
			}
		}()
	}

	// === ХРАНИЛИЩЕ ===
	root := cfg.Storage.DataDir
	if root == "" {
		root = storage.DefaultRoot()
	}
	info, created, err := storage.OpenWorldInfo(root, cfg.World.Name, cfg.World.Seed, region.FormatVersion)
	if err != nil {
		return fmt.Errorf("не удалось открыть мир: %w", err)
	}
	if created {
		logging.Info("✨ Создан новый мир %s (id=%s, seed=%d)", info.Name, info.ID, info.Seed)
	} else {
		logging.Info("📂 Открыт мир %s (id=%s, seed=%d)", info.Name, info.ID, info.Seed)
		if info.Seed != cfg.World.Seed {
			logging.Warn("⚠️ Сид из конфигурации (%d) игнорируется: мир создан с сидом %d", cfg.World.Seed, info.Seed)
		}
	}
	if info.FormatVersion > region.FormatVersion {
		return fmt.Errorf("мир сохранён в формате %d, поддерживается до %d", info.FormatVersion, region.FormatVersion)
	}

	backend, err := openBackend(cfg.Storage.Backend, root, cfg.World.Name)
	if err != nil {
		return err
	}

	compression, err := region.ParseCompression(cfg.Storage.Compression)
	if err != nil {
		backend.Close()
		return err
	}
	codec, err := region.NewCodec(compression)
	if err != nil {
		backend.Close()
		return err
	}

	// === МЕТРИКИ И СОБЫТИЯ ===
	worldMetrics := metrics.NewWorld(nil)

	bus, err := openEventBus(cfg.EventBus)
	if err != nil {
		backend.Close()
		return err
	}
	defer bus.Close()
	busMetrics := eventbus.NewMetricsExporter(bus, nil)
	busMetrics.Start()
	defer busMetrics.Stop()
	if level, _ := logging.ParseLevel(cfg.Logging.ComponentLevel(string(logging.ComponentEventBus))); level <= logging.DEBUG {
		if _, err := eventbus.StartLoggingListener(bus); err != nil {
			logging.Warn("⚠️ LoggingListener не запущен: %v", err)
		}
	}

	store := region.NewStore(info.Name, backend, codec, region.WithObserver(worldMetrics))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			logging.Error("❌ Ошибка закрытия хранилища регионов: %v", err)
		}
	}()

	// === МИР ===
	sched := scheduler.New(context.Background(), cfg.Scheduler.Workers, scheduler.WithObserver(worldMetrics))
	defer sched.Stop()

	generator := terrain.NewGenerator(info.Seed, cfg.Terrain.Settings(), terrain.NewBiomeTable())
	w := world.New(world.Deps{
		Generator: generator,
		Store:     store,
		Scheduler: sched,
		Sink:      eventbus.NewMeshSink(bus, info.Name),
		Observer:  worldMetrics,
	}, world.Config{MaxRendersPerTick: cfg.World.MaxRendersPerTick})

	spawn := spawnChunk(generator)
	driver := world.NewDriver(w, world.DriverConfig{
		TickRate:         cfg.World.TickRate,
		AutosaveInterval: cfg.Storage.AutosaveInterval,
		Radius:           cfg.World.LoadRadius,
		MaxRadius:        cfg.World.MaxLoadRadius,
		Loader:           spawn,
	})

	driverErr := make(chan error, 1)
	go func() { driverErr <- driver.Run(ctx) }()

	// === API ===
	if cfg.API.Enabled {
		rest := api.NewRestServer(api.Config{
			Port:      cfg.API.Port,
			World:     driver,
			Store:     store,
			Scheduler: sched,
			MaxRadius: cfg.World.MaxLoadRadius,
		})
		go func() {
			if err := rest.Start(); err != nil {
				logging.Error("❌ %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := rest.Stop(shutdownCtx); err != nil {
				logging.Warn("⚠️ Ошибка остановки API: %v", err)
			}
		}()
		logging.Info("   ❤️  Health check: http://localhost:%d/health", cfg.API.Port)
		logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.API.Port)
	}

	if walk > 0 {
		go walkLoader(ctx, driver, spawn, cfg.World.LoadRadius, walk)
	}

	logging.Info("✅ Мир запущен, наблюдатель в %s", spawn)

	// Драйвер завершается после сигнала и сохраняет мир
	if err := <-driverErr; err != nil {
		return fmt.Errorf("драйвер мира завершился с ошибкой: %w", err)
	}
	return nil
}

func openBackend(kind, root, worldName string) (storage.Backend, error) {
	switch kind {
	case "badger":
		path := filepath.Join(storage.SaveDir(root, worldName), "regions.badger")
		logging.Info("🗄️ Хранилище регионов: badger %s", path)
		return storage.NewBadgerBackend(path)
	default:
		logging.Info("🗄️ Хранилище регионов: файлы в %s", root)
		return storage.NewFileBackend(root)
	}
}

func openEventBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	switch cfg.Backend {
	case "nats":
		logging.Info("📡 Шина событий: NATS JetStream %s, стрим %s", cfg.URL, cfg.Stream)
		return eventbus.NewJetStreamBus(eventbus.JetStreamConfig{
			URL:       cfg.URL,
			Stream:    cfg.Stream,
			Subject:   cfg.Subject,
			Retention: cfg.Retention,
		})
	default:
		logging.Info("📡 Шина событий: в памяти, буфер %d", cfg.Capacity)
		return eventbus.NewMemoryBus(cfg.Capacity), nil
	}
}

// spawnChunk возвращает чанк поверхности над началом координат
func spawnChunk(g *terrain.Generator) voxel.ChunkPos {
	height := int(g.SurfaceHeight(0, 0))
	return voxel.VoxelPos{X: 0, Y: height, Z: 0}.Chunk()
}

// walkLoader водит наблюдателя по квадрату вокруг точки появления
func walkLoader(ctx context.Context, driver *world.Driver, spawn voxel.ChunkPos, radius int, period time.Duration) {
	steps := []voxel.ChunkPos{{X: 1}, {Z: 1}, {X: -1}, {Z: -1}}
	const side = 4

	ticker := time.NewTicker(period)
	defer ticker.Stop()

	pos := spawn
	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			step := steps[i/side%len(steps)]
			pos = voxel.NewChunkPos(pos.X+step.X, spawn.Y, pos.Z+step.Z)
			if err := driver.MoveLoader(ctx, pos, radius); err != nil {
				return
			}
		}
	}
}
