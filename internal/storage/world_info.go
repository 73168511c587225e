package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// WorldInfoFile - имя файла метаданных мира
const WorldInfoFile = "world.yaml"

// WorldInfo - метаданные сохранённого мира
type WorldInfo struct {
	ID            string    `yaml:"id"`
	Name          string    `yaml:"name"`
	Seed          uint32    `yaml:"seed"`
	FormatVersion int       `yaml:"format_version"`
	CreatedAt     time.Time `yaml:"created_at"`
}

// LoadWorldInfo читает метаданные мира. Возвращает ErrNotFound, если мир ещё не создан.
func LoadWorldInfo(root, world string) (*WorldInfo, error) {
	path := filepath.Join(SaveDir(root, world), WorldInfoFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения %s: %w", path, err)
	}

	var info WorldInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("ошибка разбора %s: %w", path, err)
	}
	return &info, nil
}

// SaveWorldInfo записывает метаданные мира
func SaveWorldInfo(root string, info *WorldInfo) error {
	dir := SaveDir(root, info.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, err)
	}
	data, err := yaml.Marshal(info)
	if err != nil {
		return fmt.Errorf("ошибка сериализации метаданных мира: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, WorldInfoFile), data, 0644)
}

// OpenWorldInfo загружает метаданные мира или создаёт их с указанным сидом.
// Для существующего мира сохранённый сид имеет приоритет.
func OpenWorldInfo(root, world string, seed uint32, formatVersion int) (*WorldInfo, bool, error) {
	info, err := LoadWorldInfo(root, world)
	if err == nil {
		return info, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	info = &WorldInfo{
		ID:            uuid.NewString(),
		Name:          world,
		Seed:          seed,
		FormatVersion: formatVersion,
		CreatedAt:     time.Now().UTC(),
	}
	if err := SaveWorldInfo(root, info); err != nil {
		return nil, false, err
	}
	return info, true, nil
}
