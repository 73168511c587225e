package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/dgraph-io/badger/v3"
)

const regionKeyPrefix = "region:"

// BadgerBackend хранит регионы всех миров в одной BadgerDB под ключами
// "region:<world>:<x>:<y>:<z>".
type BadgerBackend struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerBackend открывает BadgerDB в каталоге dbPath
func NewBadgerBackend(dbPath string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dbPath).WithLogger(badgerLogger{logging.GetStorageLogger()})
	return openBadger(opts, dbPath)
}

// NewInMemoryBadgerBackend открывает BadgerDB без диска
func NewInMemoryBadgerBackend() (*BadgerBackend, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{logging.GetStorageLogger()})
	return openBadger(opts, "")
}

// badgerLogger направляет внутренние сообщения BadgerDB в лог подсистемы storage.
// Info у Badger слишком болтлив, поэтому он идёт в DEBUG.
type badgerLogger struct {
	l *logging.Logger
}

func (b badgerLogger) Errorf(format string, args ...interface{})   { b.l.Error("[badger] "+format, args...) }
func (b badgerLogger) Warningf(format string, args ...interface{}) { b.l.Warn("[badger] "+format, args...) }
func (b badgerLogger) Infof(format string, args ...interface{})    { b.l.Debug("[badger] "+format, args...) }
func (b badgerLogger) Debugf(format string, args ...interface{})   { b.l.Trace("[badger] "+format, args...) }

func openBadger(opts badger.Options, dbPath string) (*BadgerBackend, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", errors.Join(ErrBackend, err))
	}

	return &BadgerBackend{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

func regionKey(world string, pos voxel.RegionPos) []byte {
	return []byte(fmt.Sprintf("%s%s:%d:%d:%d", regionKeyPrefix, world, pos.X, pos.Y, pos.Z))
}

// Load читает блоб региона
func (bb *BadgerBackend) Load(ctx context.Context, world string, pos voxel.RegionPos) ([]byte, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	bb.mutex.RLock()
	defer bb.mutex.RUnlock()

	if !bb.isReady {
		return nil, ErrClosed
	}

	var data []byte
	err := bb.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(regionKey(world, pos))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", errors.Join(ErrBackend, err))
	}
	return data, nil
}

// Store сохраняет блоб региона
func (bb *BadgerBackend) Store(ctx context.Context, world string, pos voxel.RegionPos, data []byte) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	bb.mutex.RLock()
	defer bb.mutex.RUnlock()

	if !bb.isReady {
		return ErrClosed
	}

	err := bb.db.Update(func(txn *badger.Txn) error {
		return txn.Set(regionKey(world, pos), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", errors.Join(ErrBackend, err))
	}
	return nil
}

// List перечисляет регионы мира по префиксу ключа
func (bb *BadgerBackend) List(ctx context.Context, world string) ([]voxel.RegionPos, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	bb.mutex.RLock()
	defer bb.mutex.RUnlock()

	if !bb.isReady {
		return nil, ErrClosed
	}

	prefix := []byte(regionKeyPrefix + world + ":")
	var out []voxel.RegionPos
	err := bb.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), string(prefix))
			var pos voxel.RegionPos
			if n, err := fmt.Sscanf(rest, "%d:%d:%d", &pos.X, &pos.Y, &pos.Z); err == nil && n == 3 {
				out = append(out, pos)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка обхода BadgerDB: %w", errors.Join(ErrBackend, err))
	}
	return out, nil
}

// Close закрывает хранилище данных
func (bb *BadgerBackend) Close() error {
	bb.mutex.Lock()
	defer bb.mutex.Unlock()

	if !bb.isReady {
		return nil
	}

	bb.isReady = false
	return bb.db.Close()
}
