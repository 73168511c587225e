package region

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/annel0/voxel-world/internal/voxel"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protowire"
)

// FormatVersion - текущая версия формата региона
const FormatVersion = 1

var payloadMagic = []byte("VXRG")

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Теги слотов
const (
	tagNone  = 0
	tagPlain = 1
	tagRLE   = 2
)

// Compression определяет сжатие блоба региона
type Compression string

const (
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
	CompressionNone Compression = "none"
)

// ParseCompression разбирает имя сжатия из конфигурации
func ParseCompression(name string) (Compression, error) {
	switch c := Compression(name); c {
	case CompressionGzip, CompressionZstd, CompressionNone:
		return c, nil
	case "":
		return CompressionGzip, nil
	default:
		return "", fmt.Errorf("неизвестное сжатие %q", name)
	}
}

// Codec кодирует регионы в версионированный блоб.
//
// Формат несжатых данных:
//
//	"VXRG" | version | varint RegionWidth | varint ChunkWidth | RegionCube × slot
//	slot := varint tag (0 - нет, 1 - ChunkCube varint блоков, 2 - пары varint (count, voxel))
//
// При чтении сжатие определяется по сигнатуре, поэтому файлы с разным сжатием
// читаются одним кодеком.
type Codec struct {
	compression Compression
	gzipLevel   int
	zenc        *zstd.Encoder
	zdec        *zstd.Decoder
	closeOnce   sync.Once
}

// NewCodec создаёт кодек с выбранным сжатием для записи
func NewCodec(compression Compression) (*Codec, error) {
	zenc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("не удалось создать zstd encoder: %w", err)
	}
	zdec, err := zstd.NewReader(nil)
	if err != nil {
		zenc.Close()
		return nil, fmt.Errorf("не удалось создать zstd decoder: %w", err)
	}

	return &Codec{
		compression: compression,
		gzipLevel:   gzip.DefaultCompression,
		zenc:        zenc,
		zdec:        zdec,
	}, nil
}

// Compression возвращает сжатие, используемое при записи
func (c *Codec) Compression() Compression { return c.compression }

// Close освобождает ресурсы zstd
func (c *Codec) Close() {
	c.closeOnce.Do(func() {
		c.zenc.Close()
		c.zdec.Close()
	})
}

// Encode сериализует и сжимает регион
func (c *Codec) Encode(r *Region) ([]byte, error) {
	payload := encodePayload(r)

	switch c.compression {
	case CompressionNone:
		return payload, nil
	case CompressionZstd:
		return c.zenc.EncodeAll(payload, make([]byte, 0, len(payload)/4)), nil
	default:
		var buf bytes.Buffer
		w, err := gzip.NewWriterLevel(&buf, c.gzipLevel)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(payload); err != nil {
			return nil, fmt.Errorf("ошибка сжатия региона: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("ошибка сжатия региона: %w", err)
		}
		return buf.Bytes(), nil
	}
}

// Decode распаковывает и разбирает блоб региона pos.
// Любая ошибка формата оборачивает ErrCorrupt.
func (c *Codec) Decode(pos voxel.RegionPos, data []byte) (*Region, error) {
	payload, err := c.decompress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decodePayload(pos, payload)
}

func (c *Codec) decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, gzipMagic):
		r, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case bytes.HasPrefix(data, zstdMagic):
		return c.zdec.DecodeAll(data, nil)
	default:
		// Старые несжатые файлы
		return data, nil
	}
}

func encodePayload(r *Region) []byte {
	buf := make([]byte, 0, 1<<16)
	buf = append(buf, payloadMagic...)
	buf = append(buf, FormatVersion)
	buf = protowire.AppendVarint(buf, voxel.RegionWidth)
	buf = protowire.AppendVarint(buf, voxel.ChunkWidth)

	for _, chunk := range r.chunks {
		if chunk == nil {
			buf = protowire.AppendVarint(buf, tagNone)
			continue
		}
		if runs := countRuns(chunk); runs*2 < voxel.ChunkCube {
			buf = protowire.AppendVarint(buf, tagRLE)
			buf = appendRLE(buf, chunk)
		} else {
			buf = protowire.AppendVarint(buf, tagPlain)
			for _, v := range chunk {
				buf = protowire.AppendVarint(buf, uint64(v))
			}
		}
	}
	return buf
}

func countRuns(c *voxel.Container) int {
	runs := 1
	for i := 1; i < len(c); i++ {
		if c[i] != c[i-1] {
			runs++
		}
	}
	return runs
}

func appendRLE(buf []byte, c *voxel.Container) []byte {
	start := 0
	for i := 1; i <= len(c); i++ {
		if i == len(c) || c[i] != c[start] {
			buf = protowire.AppendVarint(buf, uint64(i-start))
			buf = protowire.AppendVarint(buf, uint64(c[start]))
			start = i
		}
	}
	return buf
}

// reader последовательно читает varint и запоминает первую ошибку
type reader struct {
	buf []byte
	err error
}

func (r *reader) varint() uint64 {
	if r.err != nil {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		r.err = protowire.ParseError(n)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *reader) voxel() voxel.Voxel {
	raw := r.varint()
	if r.err != nil {
		return voxel.Air
	}
	v := voxel.Voxel(raw)
	if raw > 0xff || !v.Valid() {
		r.err = fmt.Errorf("неизвестный блок %d", raw)
		return voxel.Air
	}
	return v
}

func decodePayload(pos voxel.RegionPos, payload []byte) (*Region, error) {
	if !bytes.HasPrefix(payload, payloadMagic) || len(payload) < len(payloadMagic)+1 {
		return nil, fmt.Errorf("%w: нет сигнатуры VXRG", ErrCorrupt)
	}
	version := payload[len(payloadMagic)]
	if version > FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	rd := &reader{buf: payload[len(payloadMagic)+1:]}
	regionWidth, chunkWidth := rd.varint(), rd.varint()
	if rd.err == nil && (regionWidth != voxel.RegionWidth || chunkWidth != voxel.ChunkWidth) {
		return nil, fmt.Errorf("%w: размеры %d/%d не совпадают с %d/%d",
			ErrCorrupt, regionWidth, chunkWidth, voxel.RegionWidth, voxel.ChunkWidth)
	}

	r := NewRegion(pos)
	for i := 0; i < voxel.RegionCube && rd.err == nil; i++ {
		switch tag := rd.varint(); tag {
		case tagNone:
		case tagPlain:
			c := new(voxel.Container)
			for j := range c {
				c[j] = rd.voxel()
			}
			r.chunks[i] = c
		case tagRLE:
			c := new(voxel.Container)
			for filled := 0; filled < voxel.ChunkCube && rd.err == nil; {
				count, v := rd.varint(), rd.voxel()
				if rd.err != nil {
					break
				}
				if count == 0 || count > uint64(voxel.ChunkCube-filled) {
					rd.err = fmt.Errorf("неверная длина серии %d", count)
					break
				}
				for end := filled + int(count); filled < end; filled++ {
					c[filled] = v
				}
			}
			r.chunks[i] = c
		default:
			if rd.err == nil {
				rd.err = fmt.Errorf("неизвестный тег слота %d", tag)
			}
		}
	}

	if rd.err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, rd.err)
	}
	if len(rd.buf) != 0 {
		return nil, fmt.Errorf("%w: %d лишних байт", ErrCorrupt, len(rd.buf))
	}
	return r, nil
}
