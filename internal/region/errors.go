package region

import "errors"

var (
	// ErrCorrupt - блоб региона не удалось разобрать
	ErrCorrupt = errors.New("повреждённые данные региона")
	// ErrUnsupportedVersion - регион записан более новой версией формата
	ErrUnsupportedVersion = errors.New("неподдерживаемая версия формата региона")
	// ErrClosed возвращается при обращении к закрытому хранилищу регионов
	ErrClosed = errors.New("хранилище регионов закрыто")
)
