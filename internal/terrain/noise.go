package terrain

import (
	"github.com/aquilax/go-perlin"
)

// noiseField - двумерное поле шума Перлина с собственным сидом
type noiseField struct {
	p         *perlin.Perlin
	frequency float64
}

func newNoiseField(seed int64, frequency float64, octaves int32) noiseField {
	alpha := 2.0 // Сглаживание шума
	beta := 2.0  // Множитель частоты между октавами
	return noiseField{
		p:         perlin.NewPerlin(alpha, beta, octaves, seed),
		frequency: frequency,
	}
}

// Sample возвращает значение шума в точке (от -1 до 1)
func (f noiseField) Sample(x, z float64) float64 {
	v := f.p.Noise2D(x*f.frequency, z*f.frequency)
	return clamp(v, -1, 1)
}

// Sample01 возвращает значение шума, преобразованное в диапазон от 0 до 1
func (f noiseField) Sample01(x, z float64) float64 {
	return (f.Sample(x, z) + 1.0) / 2.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
