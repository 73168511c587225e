package world

import (
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/scheduler"
	"github.com/annel0/voxel-world/internal/terrain"
	"github.com/annel0/voxel-world/internal/voxel"
)

// ChunkState - стадия жизненного цикла чанка.
// Переходы строго монотонны, кроме удаления, возможного из любой стадии.
type ChunkState uint8

const (
	StateEmpty ChunkState = iota
	StateGenerating
	StateGenerated
	StateRendering
	StateRendered
)

var chunkStateNames = [...]string{"empty", "generating", "generated", "rendering", "rendered"}

// String возвращает имя стадии
func (s ChunkState) String() string {
	if int(s) < len(chunkStateNames) {
		return chunkStateNames[s]
	}
	return "unknown"
}

// NeededState - до какой стадии чанк нужно довести
type NeededState uint8

const (
	DontNeed NeededState = iota
	NeedGenerated
	NeedRendered
)

// String возвращает имя требуемого состояния
func (n NeededState) String() string {
	switch n {
	case NeedGenerated:
		return "generated"
	case NeedRendered:
		return "rendered"
	default:
		return "dont_need"
	}
}

// ActionKind - вид перехода
type ActionKind uint8

const (
	ActionGenerate ActionKind = iota
	ActionRender
	ActionDelete
)

// String возвращает имя перехода
func (a ActionKind) String() string {
	switch a {
	case ActionGenerate:
		return "generate"
	case ActionRender:
		return "render"
	default:
		return "delete"
	}
}

// StateChange - переход, который нужно выполнить для чанка
type StateChange struct {
	Pos    voxel.ChunkPos
	Action ActionKind
}

// generateResult - результат задачи генерации
type generateResult struct {
	chunk *voxel.Chunk
	// column заполнен, если задача посчитала шум столбца сама
	column *terrain.Column
	// loaded - чанк прочитан из хранилища, а не сгенерирован
	loaded bool
}

// Источники данных чанка для Observer.ChunkLoaded
const (
	SourceDisk      = "disk"
	SourceGenerated = "generated"
)

// maxBackoffTicks - предел ожидания региона с ошибками чтения (минута при тике 50мс)
const maxBackoffTicks uint64 = 1200

// regionBackoff - ожидание перед повторной генерацией в регионе,
// чтение которого завершилось ошибкой. Задержка удваивается с каждым окном.
type regionBackoff struct {
	failures int
	retryAt  uint64
}

// renderResult - результат задачи построения меша
type renderResult struct {
	mesh    *mesh.ChunkMesh
	hasMesh bool
}

// slot - вариант содержимого загруженного чанка.
// Данные чанка есть ровно в стадиях от Generated и выше.
type slot interface {
	state() ChunkState
}

type emptySlot struct{}

type generatingSlot struct {
	task *scheduler.Task[generateResult]
}

type generatedSlot struct {
	chunk *voxel.Chunk
}

type renderingSlot struct {
	chunk *voxel.Chunk
	task  *scheduler.Task[renderResult]
}

type renderedSlot struct {
	chunk   *voxel.Chunk
	hasMesh bool
}

func (emptySlot) state() ChunkState      { return StateEmpty }
func (generatingSlot) state() ChunkState { return StateGenerating }
func (generatedSlot) state() ChunkState  { return StateGenerated }
func (renderingSlot) state() ChunkState  { return StateRendering }
func (renderedSlot) state() ChunkState   { return StateRendered }

// chunkData возвращает данные чанка, если слот их содержит
func chunkData(s slot) (*voxel.Chunk, bool) {
	switch s := s.(type) {
	case generatedSlot:
		return s.chunk, true
	case renderingSlot:
		return s.chunk, true
	case renderedSlot:
		return s.chunk, true
	default:
		return nil, false
	}
}

// loadedChunk - запись карты мира
type loadedChunk struct {
	pos    voxel.ChunkPos
	needed NeededState
	slot   slot
	// remesh - меш нужно перестроить после правки чанка или соседа
	remesh bool
}
