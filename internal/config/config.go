package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/terrain"
	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервера мира
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	API       APIConfig       `yaml:"api"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type WorldConfig struct {
	Name              string        `yaml:"name"`
	Seed              uint32        `yaml:"seed"`
	LoadRadius        int           `yaml:"load_radius"`
	MaxLoadRadius     int           `yaml:"max_load_radius"`
	MaxRendersPerTick int           `yaml:"max_renders_per_tick"`
	TickRate          time.Duration `yaml:"tick_rate"`
}

type TerrainConfig struct {
	Frequency      float64 `yaml:"frequency"`
	BiomeFrequency float64 `yaml:"biome_frequency"`
	Amplitude      float64 `yaml:"amplitude"`
	BaseHeight     float64 `yaml:"base_height"`
	DirtDepth      float64 `yaml:"dirt_depth"`
	Octaves        int32   `yaml:"octaves"`
}

type SchedulerConfig struct {
	// Workers - размер пула; 0 - по числу логических CPU
	Workers int `yaml:"workers"`
}

type StorageConfig struct {
	Backend          string        `yaml:"backend"` // file | badger
	DataDir          string        `yaml:"data_dir"`
	Compression      string        `yaml:"compression"` // gzip | zstd | none
	AutosaveInterval time.Duration `yaml:"autosave_interval"`
}

type EventBusConfig struct {
	Backend   string        `yaml:"backend"` // memory | nats
	Capacity  int           `yaml:"capacity"`
	URL       string        `yaml:"url"`
	Stream    string        `yaml:"stream"`
	Subject   string        `yaml:"subject"`
	Retention time.Duration `yaml:"retention"`
}

type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	Endpoint    string `yaml:"endpoint"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	Dir   string `yaml:"dir"`
	// Уровни отдельных подсистем: world, region, scheduler, storage, eventbus, api
	Components map[string]string `yaml:"components"`
}

// ComponentLevel возвращает уровень подсистемы или общий уровень
func (l LoggingConfig) ComponentLevel(component string) string {
	if level, ok := l.Components[component]; ok {
		return level
	}
	return l.Level
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Name:              "world",
			Seed:              1,
			LoadRadius:        4,
			MaxLoadRadius:     16,
			MaxRendersPerTick: 2,
			TickRate:          50 * time.Millisecond,
		},
		Terrain: TerrainConfig{
			Frequency:      0.008,
			BiomeFrequency: 0.0015,
			Amplitude:      48,
			BaseHeight:     10,
			DirtDepth:      3,
			Octaves:        4,
		},
		Storage: StorageConfig{
			Backend:          "file",
			Compression:      "gzip",
			AutosaveInterval: 5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Backend:   "memory",
			Capacity:  1024,
			URL:       "nats://127.0.0.1:4222",
			Stream:    "VOXEL_EVENTS",
			Subject:   "voxel.events",
			Retention: time.Hour,
		},
		API: APIConfig{
			Enabled: true,
			Port:    8088,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-world",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// GetAPIPort возвращает порт отладочного API с поддержкой fallback значений
func (a *APIConfig) GetAPIPort() int {
	return getPortWithEnvFallback(a.Port, "VOXEL_API_PORT", 8088)
}

// getPortWithEnvFallback возвращает порт с приоритетом: env -> config -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	if configPort > 0 {
		return configPort
	}
	return defaultPort
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", используется VOXEL_CONFIG; без файла возвращаются значения по умолчанию.
// Переменные окружения VOXEL_WORLD, VOXEL_SEED и VOXEL_DATA_DIR имеют приоритет над файлом.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("ошибка чтения конфигурации: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("ошибка разбора конфигурации %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if name := os.Getenv("VOXEL_WORLD"); name != "" {
		c.World.Name = name
	}
	if seed := os.Getenv("VOXEL_SEED"); seed != "" {
		v, err := strconv.ParseUint(seed, 10, 32)
		if err != nil {
			return fmt.Errorf("неверный VOXEL_SEED %q: %w", seed, err)
		}
		c.World.Seed = uint32(v)
	}
	if dir := os.Getenv("VOXEL_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	c.API.Port = c.API.GetAPIPort()
	return nil
}

// radiusCeiling - абсолютный предел радиуса: 65³ чанков по 31³ блоков
const radiusCeiling = 32

// Validate проверяет согласованность конфигурации
func (c *Config) Validate() error {
	var errs []error

	if c.World.Name == "" {
		errs = append(errs, errors.New("world.name не задан"))
	}
	if c.World.LoadRadius < 1 {
		errs = append(errs, fmt.Errorf("world.load_radius должен быть >= 1, получено %d", c.World.LoadRadius))
	}
	if c.World.MaxLoadRadius < 1 || c.World.MaxLoadRadius > radiusCeiling {
		errs = append(errs, fmt.Errorf("world.max_load_radius должен быть в [1, %d], получено %d", radiusCeiling, c.World.MaxLoadRadius))
	} else if c.World.LoadRadius > c.World.MaxLoadRadius {
		errs = append(errs, fmt.Errorf("world.load_radius %d больше world.max_load_radius %d", c.World.LoadRadius, c.World.MaxLoadRadius))
	}
	if c.World.TickRate <= 0 {
		errs = append(errs, errors.New("world.tick_rate должен быть положительным"))
	}
	if c.Terrain.Octaves < 1 {
		errs = append(errs, errors.New("terrain.octaves должен быть >= 1"))
	}
	if c.Scheduler.Workers < 0 {
		errs = append(errs, errors.New("scheduler.workers не может быть отрицательным"))
	}
	switch c.Storage.Backend {
	case "file", "badger":
	default:
		errs = append(errs, fmt.Errorf("storage.backend: неизвестное хранилище %q", c.Storage.Backend))
	}
	switch c.Storage.Compression {
	case "gzip", "zstd", "none":
	default:
		errs = append(errs, fmt.Errorf("storage.compression: неизвестное сжатие %q", c.Storage.Compression))
	}
	switch c.EventBus.Backend {
	case "memory":
		if c.EventBus.Capacity < 1 {
			errs = append(errs, fmt.Errorf("eventbus.capacity должен быть >= 1, получено %d", c.EventBus.Capacity))
		}
	case "nats":
		if c.EventBus.URL == "" {
			errs = append(errs, errors.New("eventbus.url обязателен для eventbus.backend: nats"))
		}
		if c.EventBus.Subject == "" || strings.ContainsAny(c.EventBus.Subject, "*> ") {
			errs = append(errs, fmt.Errorf("eventbus.subject: неверный префикс %q", c.EventBus.Subject))
		}
	default:
		errs = append(errs, fmt.Errorf("eventbus.backend: неизвестная шина %q", c.EventBus.Backend))
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	for name, level := range c.Logging.Components {
		if _, err := logging.ParseLevel(level); err != nil {
			errs = append(errs, fmt.Errorf("logging.components.%s: %w", name, err))
		}
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("telemetry.endpoint обязателен при telemetry.enabled"))
	}

	return errors.Join(errs...)
}

// Settings переводит секцию terrain в настройки генератора
func (t TerrainConfig) Settings() terrain.Settings {
	return terrain.Settings{
		Frequency:      t.Frequency,
		BiomeFrequency: t.BiomeFrequency,
		Amplitude:      t.Amplitude,
		BaseHeight:     t.BaseHeight,
		DirtDepth:      t.DirtDepth,
		Octaves:        t.Octaves,
	}
}
