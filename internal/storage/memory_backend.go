package storage

import (
	"context"
	"sync"

	"github.com/annel0/voxel-world/internal/voxel"
)

type memoryKey struct {
	world string
	pos   voxel.RegionPos
}

// MemoryBackend хранит регионы в памяти.
// Используется в тестах и для временных миров.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[memoryKey][]byte
	closed bool
	stores int
}

// NewMemoryBackend создаёт хранилище в памяти
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		data: make(map[memoryKey][]byte),
	}
}

// Load возвращает копию сохранённого блоба
func (m *MemoryBackend) Load(ctx context.Context, world string, pos voxel.RegionPos) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	data, ok := m.data[memoryKey{world, pos}]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), data...), nil
}

// Store сохраняет копию блоба
func (m *MemoryBackend) Store(ctx context.Context, world string, pos voxel.RegionPos, data []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.data[memoryKey{world, pos}] = append([]byte(nil), data...)
	m.stores++
	return nil
}

// List возвращает регионы мира
func (m *MemoryBackend) List(ctx context.Context, world string) ([]voxel.RegionPos, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []voxel.RegionPos
	for k := range m.data {
		if k.world == world {
			out = append(out, k.pos)
		}
	}
	return out, nil
}

// Corrupt заменяет блоб произвольными байтами (для тестов восстановления)
func (m *MemoryBackend) Corrupt(world string, pos voxel.RegionPos, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[memoryKey{world, pos}] = data
}

// Stores возвращает количество выполненных записей
func (m *MemoryBackend) Stores() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stores
}

// Close закрывает хранилище
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
