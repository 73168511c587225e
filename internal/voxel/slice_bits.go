package voxel

import "math/bits"

const sliceWords = (ChunkSquare + 63) / 64

// SliceBits - битовая карта среза ChunkWidth x ChunkWidth, бит (x, y) имеет индекс y*ChunkWidth+x
type SliceBits [sliceWords]uint64

// Get возвращает бит
func (s *SliceBits) Get(i int) bool {
	return s[i>>6]&(1<<(uint(i)&63)) != 0
}

// Set устанавливает бит
func (s *SliceBits) Set(i int) {
	s[i>>6] |= 1 << (uint(i) & 63)
}

// SetTo устанавливает или сбрасывает бит
func (s *SliceBits) SetTo(i int, v bool) {
	if v {
		s.Set(i)
	} else {
		s[i>>6] &^= 1 << (uint(i) & 63)
	}
}

// Count возвращает количество установленных битов
func (s *SliceBits) Count() int {
	n := 0
	for _, w := range s {
		n += bits.OnesCount64(w)
	}
	return n
}

// FullSlice возвращает срез, где все блоки сплошные
func FullSlice() SliceBits {
	var s SliceBits
	for i := 0; i < ChunkSquare; i++ {
		s.Set(i)
	}
	return s
}

// NeighborSlices хранит по одному срезу на каждое направление
type NeighborSlices [axisCount]SliceBits

// Get возвращает срез в направлении
func (n *NeighborSlices) Get(a Axis) *SliceBits {
	return &n[a]
}

// Set заменяет срез в направлении
func (n *NeighborSlices) Set(a Axis, s SliceBits) {
	n[a] = s
}

// SolidNeighbors возвращает соседей, полностью закрывающих чанк со всех сторон
func SolidNeighbors() NeighborSlices {
	full := FullSlice()
	var n NeighborSlices
	for _, a := range Axes {
		n[a] = full
	}
	return n
}
