package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/annel0/voxel-world/internal/voxel"
)

// RegionFileExt - расширение файла региона. Сжатие записано в заголовке блоба.
const RegionFileExt = ".region"

// legacyRegionFileExt читается, но больше не пишется
const legacyRegionFileExt = ".region.gz"

// FileBackend хранит каждый регион в отдельном файле:
// <root>/saves/<world>/regions/<x>_<y>_<z>.region
type FileBackend struct {
	root string
}

// NewFileBackend создаёт файловое хранилище с корнем root.
// Пустой root означает каталог приложения по умолчанию.
func NewFileBackend(root string) (*FileBackend, error) {
	if root == "" {
		root = DefaultRoot()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("не удалось создать директорию %s: %w", root, errors.Join(ErrBackend, err))
	}
	return &FileBackend{root: root}, nil
}

// Root возвращает корневой каталог
func (fb *FileBackend) Root() string { return fb.root }

// RegionsDir возвращает каталог регионов мира
func (fb *FileBackend) RegionsDir(world string) string {
	return filepath.Join(SaveDir(fb.root, world), RegionsDirName)
}

// RegionPath возвращает путь к файлу региона
func (fb *FileBackend) RegionPath(world string, pos voxel.RegionPos) string {
	return filepath.Join(fb.RegionsDir(world), pos.String()+RegionFileExt)
}

func (fb *FileBackend) legacyPath(world string, pos voxel.RegionPos) string {
	return filepath.Join(fb.RegionsDir(world), pos.String()+legacyRegionFileExt)
}

// Load читает файл региона, при его отсутствии - файл со старым расширением
func (fb *FileBackend) Load(ctx context.Context, world string, pos voxel.RegionPos) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	filename := fb.RegionPath(world, pos)
	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		filename = fb.legacyPath(world, pos)
		data, err = os.ReadFile(filename)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения файла региона %s: %w", filename, errors.Join(ErrBackend, err))
	}
	return data, nil
}

// Store записывает файл региона атомарно: сначала во временный файл, затем rename
func (fb *FileBackend) Store(ctx context.Context, world string, pos voxel.RegionPos, data []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	dir := fb.RegionsDir(world)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("не удалось создать директорию %s: %w", dir, errors.Join(ErrBackend, err))
	}

	tmp, err := os.CreateTemp(dir, pos.String()+".*.tmp")
	if err != nil {
		return fmt.Errorf("ошибка создания временного файла: %w", errors.Join(ErrBackend, err))
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("ошибка записи региона %v: %w", pos, errors.Join(ErrBackend, err))
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка закрытия файла региона %v: %w", pos, errors.Join(ErrBackend, err))
	}
	if err := os.Rename(tmpName, fb.RegionPath(world, pos)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("ошибка переименования файла региона %v: %w", pos, errors.Join(ErrBackend, err))
	}
	if err := os.Remove(fb.legacyPath(world, pos)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("ошибка удаления старого файла региона %v: %w", pos, errors.Join(ErrBackend, err))
	}
	return nil
}

// List перечисляет файлы регионов мира
func (fb *FileBackend) List(ctx context.Context, world string) ([]voxel.RegionPos, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(fb.RegionsDir(world))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения каталога регионов: %w", errors.Join(ErrBackend, err))
	}

	var out []voxel.RegionPos
	seen := make(map[voxel.RegionPos]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		pos, ok := ParseRegionFileName(e.Name())
		if !ok {
			continue
		}
		if _, dup := seen[pos]; dup {
			continue
		}
		seen[pos] = struct{}{}
		out = append(out, pos)
	}
	return out, nil
}

// ParseRegionFileName разбирает имя вида "<x>_<y>_<z>.region" или "<x>_<y>_<z>.region.gz"
func ParseRegionFileName(name string) (voxel.RegionPos, bool) {
	base, ok := strings.CutSuffix(name, RegionFileExt)
	if !ok {
		base, ok = strings.CutSuffix(name, legacyRegionFileExt)
	}
	if !ok {
		return voxel.RegionPos{}, false
	}
	var pos voxel.RegionPos
	if n, err := fmt.Sscanf(base, "%d_%d_%d", &pos.X, &pos.Y, &pos.Z); err != nil || n != 3 {
		return voxel.RegionPos{}, false
	}
	if pos.String() != base {
		return voxel.RegionPos{}, false
	}
	return pos, true
}

// Close ничего не делает: файлы не держатся открытыми
func (fb *FileBackend) Close() error {
	return nil
}
