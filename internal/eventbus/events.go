package eventbus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/annel0/voxel-world/internal/logging"
	"github.com/annel0/voxel-world/internal/mesh"
	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protowire"
)

// Типы событий мира
const (
	TypeChunkMeshed   = "ChunkMeshed"
	TypeChunkUnloaded = "ChunkUnloaded"
)

// PayloadVersion - версия схемы полезной нагрузки событий чанков
const PayloadVersion = 1

// ErrBadPayload возвращается при разборе повреждённой полезной нагрузки
var ErrBadPayload = errors.New("неверная полезная нагрузка события")

// ChunkMeshed - меш чанка в виде, пригодном для загрузки в GPU:
// упакованные вершины, их материалы и индексы треугольников.
type ChunkMeshed struct {
	Pos       voxel.ChunkPos
	Quads     int
	Packed    []uint32
	Materials []uint32
	Indices   []uint32
}

// EncodeChunkMeshed сериализует меш чанка.
//
//	zigzag x | zigzag y | zigzag z | quads | n | n × (packed, material) | m | m × index
func EncodeChunkMeshed(pos voxel.ChunkPos, m *mesh.ChunkMesh) []byte {
	buf := make([]byte, 0, 16+len(m.Vertices)*8+len(m.Indices)*2)
	buf = appendPos(buf, pos)
	buf = protowire.AppendVarint(buf, uint64(m.Quads))
	buf = protowire.AppendVarint(buf, uint64(len(m.Vertices)))
	for _, v := range m.Vertices {
		buf = protowire.AppendVarint(buf, uint64(v.Packed))
		buf = protowire.AppendVarint(buf, uint64(v.Material))
	}
	buf = protowire.AppendVarint(buf, uint64(len(m.Indices)))
	for _, i := range m.Indices {
		buf = protowire.AppendVarint(buf, uint64(i))
	}
	return buf
}

// DecodeChunkMeshed разбирает полезную нагрузку ChunkMeshed
func DecodeChunkMeshed(payload []byte) (*ChunkMeshed, error) {
	d := decoder{buf: payload}
	ev := &ChunkMeshed{Pos: d.pos(), Quads: int(d.varint())}

	n := d.count()
	ev.Packed = make([]uint32, 0, n)
	ev.Materials = make([]uint32, 0, n)
	for i := 0; i < n && d.err == nil; i++ {
		ev.Packed = append(ev.Packed, d.uint32())
		ev.Materials = append(ev.Materials, d.uint32())
	}
	m := d.count()
	ev.Indices = make([]uint32, 0, m)
	for i := 0; i < m && d.err == nil; i++ {
		ev.Indices = append(ev.Indices, d.uint32())
	}

	if err := d.finish(); err != nil {
		return nil, err
	}
	return ev, nil
}

// EncodeChunkUnloaded сериализует координаты выгруженного чанка
func EncodeChunkUnloaded(pos voxel.ChunkPos) []byte {
	return appendPos(nil, pos)
}

// DecodeChunkUnloaded разбирает полезную нагрузку ChunkUnloaded
func DecodeChunkUnloaded(payload []byte) (voxel.ChunkPos, error) {
	d := decoder{buf: payload}
	pos := d.pos()
	return pos, d.finish()
}

func appendPos(buf []byte, pos voxel.ChunkPos) []byte {
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(pos.X)))
	buf = protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(pos.Y)))
	return protowire.AppendVarint(buf, protowire.EncodeZigZag(int64(pos.Z)))
}

type decoder struct {
	buf []byte
	err error
}

func (d *decoder) varint() uint64 {
	if d.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(d.buf)
	if n < 0 {
		d.err = protowire.ParseError(n)
		return 0
	}
	d.buf = d.buf[n:]
	return v
}

func (d *decoder) uint32() uint32 {
	v := d.varint()
	if v > 0xffffffff && d.err == nil {
		d.err = fmt.Errorf("значение %d не помещается в uint32", v)
	}
	return uint32(v)
}

// count читает длину списка; каждый элемент занимает хотя бы байт
func (d *decoder) count() int {
	n := d.varint()
	if d.err == nil && n > uint64(len(d.buf)) {
		d.err = fmt.Errorf("длина %d больше остатка %d", n, len(d.buf))
		return 0
	}
	return int(n)
}

func (d *decoder) pos() voxel.ChunkPos {
	x := protowire.DecodeZigZag(d.varint())
	y := protowire.DecodeZigZag(d.varint())
	z := protowire.DecodeZigZag(d.varint())
	return voxel.NewChunkPos(int(x), int(y), int(z))
}

func (d *decoder) finish() error {
	if d.err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, d.err)
	}
	if len(d.buf) != 0 {
		return fmt.Errorf("%w: %d лишних байт", ErrBadPayload, len(d.buf))
	}
	return nil
}

// Приоритеты событий чанков; оба не ниже highPriority, поэтому шина их не отбрасывает
const (
	PriorityChunkMeshed   = 7
	PriorityChunkUnloaded = 9
)

// DefaultPublishTimeout - сколько MeshSink ждёт места в шине
const DefaultPublishTimeout = 250 * time.Millisecond

// MeshSink публикует меши чанков в шину событий для рендера.
// Удовлетворяет world.MeshSink: если шина не приняла событие за timeout,
// возвращается ошибка и мир повторит отправку.
type MeshSink struct {
	bus     EventBus
	source  string
	timeout time.Duration
	logger  *logging.Logger
}

// MeshSinkOption настраивает MeshSink
type MeshSinkOption func(*MeshSink)

// WithPublishTimeout задаёт ожидание места в шине
func WithPublishTimeout(d time.Duration) MeshSinkOption {
	return func(s *MeshSink) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewMeshSink создаёт приёмник мешей мира source
func NewMeshSink(bus EventBus, source string, opts ...MeshSinkOption) *MeshSink {
	s := &MeshSink{
		bus:     bus,
		source:  source,
		timeout: DefaultPublishTimeout,
		logger:  logging.GetEventBusLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert публикует ChunkMeshed
func (s *MeshSink) Upsert(pos voxel.ChunkPos, m *mesh.ChunkMesh) error {
	return s.publish(TypeChunkMeshed, PriorityChunkMeshed, pos, EncodeChunkMeshed(pos, m))
}

// Remove публикует ChunkUnloaded
func (s *MeshSink) Remove(pos voxel.ChunkPos) error {
	return s.publish(TypeChunkUnloaded, PriorityChunkUnloaded, pos, EncodeChunkUnloaded(pos))
}

func (s *MeshSink) publish(eventType string, priority int, pos voxel.ChunkPos, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	ev := &Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    s.source,
		EventType: eventType,
		Version:   PayloadVersion,
		Priority:  priority,
		Payload:   payload,
		Metadata:  map[string]string{"chunk": pos.String()},
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.logger.Debug("Шина не приняла %s для чанка %s: %v", eventType, pos, err)
		return fmt.Errorf("публикация %s: %w", eventType, err)
	}
	return nil
}
