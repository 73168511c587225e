package vec

// Vec2 - целочисленная точка на плоскости; для колонок чанков Y хранит Z мира
type Vec2 struct {
	X, Y int
}

// Sub вычитает векторы покомпонентно
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// ChebyshevTo возвращает расстояние Чебышёва (max по модулю компонент)
func (v Vec2) ChebyshevTo(other Vec2) int {
	d := v.Sub(other)
	return max(abs(d.X), abs(d.Y))
}
