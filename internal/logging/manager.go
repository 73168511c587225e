package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Component - имя подсистемы движка, под которым пишутся её логи
type Component string

const (
	ComponentWorld     Component = "world"
	ComponentRegion    Component = "region"
	ComponentScheduler Component = "scheduler"
	ComponentStorage   Component = "storage"
	ComponentEventBus  Component = "eventbus"
	ComponentAPI       Component = "api"
)

// LoggerManager хранит логгеры подсистем и их собственные уровни консоли.
// Уровень подсистемы переживает пересоздание логгера и перекрывает SetLevel.
type LoggerManager struct {
	mu        sync.RWMutex
	loggers   map[Component]*Logger
	overrides map[Component]LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() {
		globalManager = &LoggerManager{
			loggers:   make(map[Component]*Logger),
			overrides: make(map[Component]LogLevel),
		}
	})
	return globalManager
}

// GetLogger возвращает логгер подсистемы, создавая его при необходимости
func (lm *LoggerManager) GetLogger(component Component) (*Logger, error) {
	lm.mu.RLock()
	logger, exists := lm.loggers[component]
	lm.mu.RUnlock()
	if exists {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()

	if logger, exists := lm.loggers[component]; exists {
		return logger, nil
	}

	logger, err := NewLogger(string(component))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать логгер %s: %w", component, err)
	}
	if level, ok := lm.overrides[component]; ok {
		logger.minConsoleLevel.Store(int32(level))
	}

	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер или консольный fallback, если файл не открылся
func (lm *LoggerManager) MustGetLogger(component Component) *Logger {
	logger, err := lm.GetLogger(component)
	if err != nil {
		current().Warn("⚠️ %v, логи %s только в консоль", err, component)
		return NewConsoleLogger(string(component))
	}
	return logger
}

// SetComponentLevel задаёт уровень консоли одной подсистемы.
// Действует и на логгеры, созданные позже.
func (lm *LoggerManager) SetComponentLevel(component Component, level LogLevel) {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	lm.overrides[component] = level
	if logger, ok := lm.loggers[component]; ok {
		logger.minConsoleLevel.Store(int32(level))
	}
}

// ApplyLevels разбирает карту "подсистема: уровень" из конфигурации
func (lm *LoggerManager) ApplyLevels(levels map[string]string) error {
	for name, raw := range levels {
		level, err := ParseLevel(raw)
		if err != nil {
			return fmt.Errorf("уровень подсистемы %s: %w", name, err)
		}
		lm.SetComponentLevel(Component(name), level)
	}
	return nil
}

// CloseAll закрывает файлы всех логгеров и забывает их.
// Уровни подсистем сохраняются.
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("не удалось закрыть логгер %s: %w", component, err)
		}
	}

	lm.loggers = make(map[Component]*Logger)
	return lastErr
}

// ListComponents возвращает отсортированный список созданных логгеров
func (lm *LoggerManager) ListComponents() []Component {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]Component, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Slice(components, func(i, j int) bool { return components[i] < components[j] })
	return components
}

// setConsoleLevel применяет общий уровень ко всем подсистемам без своего уровня
func (lm *LoggerManager) setConsoleLevel(level LogLevel) {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	for component, logger := range lm.loggers {
		if _, ok := lm.overrides[component]; ok {
			continue
		}
		logger.minConsoleLevel.Store(int32(level))
	}
}

// GetComponentLogger - краткая форма GetLoggerManager().MustGetLogger
func GetComponentLogger(component Component) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}

func GetWorldLogger() *Logger     { return GetComponentLogger(ComponentWorld) }
func GetRegionLogger() *Logger    { return GetComponentLogger(ComponentRegion) }
func GetSchedulerLogger() *Logger { return GetComponentLogger(ComponentScheduler) }
func GetStorageLogger() *Logger   { return GetComponentLogger(ComponentStorage) }
func GetEventBusLogger() *Logger  { return GetComponentLogger(ComponentEventBus) }
func GetAPILogger() *Logger       { return GetComponentLogger(ComponentAPI) }
