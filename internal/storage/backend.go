package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/annel0/voxel-world/internal/voxel"
)

var (
	// ErrNotFound возвращается, если регион ещё не сохранялся
	ErrNotFound = errors.New("регион не найден")
	// ErrBackend оборачивает ошибки ввода-вывода хранилища
	ErrBackend = errors.New("ошибка хранилища")
	// ErrClosed возвращается при обращении к закрытому хранилищу
	ErrClosed = errors.New("хранилище закрыто")
)

const (
	// AppDirName - имя каталога приложения внутри каталога конфигурации ОС
	AppDirName = "voxel-world"
	// SavesDirName - каталог сохранённых миров
	SavesDirName = "saves"
	// RegionsDirName - каталог регионов мира
	RegionsDirName = "regions"
)

// Backend определяет интерфейс хранилища сжатых регионов.
// Хранилище не знает о формате данных: регион для него - непрозрачный блоб.
type Backend interface {
	// Load загружает блоб региона.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   world - имя мира
	//   pos - координаты региона
	// Возвращает:
	//   []byte - сохранённые данные
	//   error - ErrNotFound если регион не сохранялся, иначе ошибка, обёрнутая в ErrBackend
	Load(ctx context.Context, world string, pos voxel.RegionPos) ([]byte, error)

	// Store сохраняет блоб региона, заменяя предыдущую версию целиком.
	Store(ctx context.Context, world string, pos voxel.RegionPos, data []byte) error

	// List возвращает координаты всех сохранённых регионов мира.
	List(ctx context.Context, world string) ([]voxel.RegionPos, error)

	// Close закрывает хранилище.
	Close() error
}

// DefaultRoot возвращает каталог данных приложения в каталоге конфигурации ОС
// (~/.config/voxel-world, %AppData%\voxel-world, ~/Library/Application Support/voxel-world).
func DefaultRoot() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", AppDirName)
	}
	return filepath.Join(dir, AppDirName)
}

// SaveDir возвращает каталог сохранения мира
func SaveDir(root, world string) string {
	return filepath.Join(root, SavesDirName, world)
}

func checkContext(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}
