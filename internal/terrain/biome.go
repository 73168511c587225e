package terrain

import (
	"fmt"

	"github.com/annel0/voxel-world/internal/voxel"
)

// BiomeTemperature - температурный пояс
type BiomeTemperature uint8

const (
	Polar BiomeTemperature = iota
	SubPolar
	Boreal
	Coolville
	Temperate
	Tropical

	temperatureCount
)

// BiomeHumidity - пояс влажности
type BiomeHumidity uint8

const (
	SuperArid BiomeHumidity = iota
	PerArid
	Arid
	SemiArid
	SubHumid
	Humid
	PerHumid
	SuperHumid

	humidityCount
)

var temperatureNames = [temperatureCount]string{"Polar", "SubPolar", "Boreal", "Coolville", "Temperate", "Tropical"}

var humidityNames = [humidityCount]string{"SuperArid", "PerArid", "Arid", "SemiArid", "SubHumid", "Humid", "PerHumid", "SuperHumid"}

func (t BiomeTemperature) String() string {
	if t >= temperatureCount {
		return fmt.Sprintf("temperature(%d)", uint8(t))
	}
	return temperatureNames[t]
}

func (h BiomeHumidity) String() string {
	if h >= humidityCount {
		return fmt.Sprintf("humidity(%d)", uint8(h))
	}
	return humidityNames[h]
}

// denormalize переводит значение из [0, 1] в индекс пояса из count значений
func denormalize(normalized float64, count int) int {
	i := int(clamp(normalized, 0, 1) * float64(count))
	if i >= count {
		i = count - 1
	}
	return i
}

// TemperatureAt возвращает температурный пояс для нормализованного значения шума
func TemperatureAt(normalized float64) BiomeTemperature {
	return BiomeTemperature(denormalize(normalized, int(temperatureCount)))
}

// HumidityAt возвращает пояс влажности для нормализованного значения шума
func HumidityAt(normalized float64) BiomeHumidity {
	return BiomeHumidity(denormalize(normalized, int(humidityCount)))
}

// Biome описывает биом и блок его поверхности
type Biome struct {
	Name        string
	Temperature BiomeTemperature
	Humidity    BiomeHumidity
	Surface     voxel.Voxel
}

// BiomeTable - таблица биомов, индексированная температурой и влажностью
type BiomeTable struct {
	biomes [int(temperatureCount) * int(humidityCount)]Biome
}

// NewBiomeTable создаёт таблицу со стандартными биомами для каждой клетки
func NewBiomeTable() *BiomeTable {
	bt := &BiomeTable{}
	for t := BiomeTemperature(0); t < temperatureCount; t++ {
		for h := BiomeHumidity(0); h < humidityCount; h++ {
			bt.biomes[index(t, h)] = defaultBiome(t, h)
		}
	}
	return bt
}

func index(t BiomeTemperature, h BiomeHumidity) int {
	return int(t)*int(humidityCount) + int(h)
}

func defaultBiome(t BiomeTemperature, h BiomeHumidity) Biome {
	surface := voxel.Grass
	switch {
	case t <= SubPolar:
		surface = voxel.Snow
	case t >= Temperate && h <= Arid:
		surface = voxel.Sand
	}
	return Biome{
		Name:        fmt.Sprintf("%s %s Place", t, h),
		Temperature: t,
		Humidity:    h,
		Surface:     surface,
	}
}

// Insert заменяет биом в его клетке таблицы. Биомы с поясами вне диапазона игнорируются.
func (bt *BiomeTable) Insert(b Biome) bool {
	if b.Temperature >= temperatureCount || b.Humidity >= humidityCount {
		return false
	}
	bt.biomes[index(b.Temperature, b.Humidity)] = b
	return true
}

// At возвращает биом для пары поясов
func (bt *BiomeTable) At(t BiomeTemperature, h BiomeHumidity) Biome {
	return bt.biomes[index(t, h)]
}

// Lookup возвращает биом для нормализованных значений температуры и влажности
func (bt *BiomeTable) Lookup(temperature, humidity float64) Biome {
	return bt.At(TemperatureAt(temperature), HumidityAt(humidity))
}
