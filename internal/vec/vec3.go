package vec

// Vec3 представляет трехмерный вектор с целочисленными координатами
type Vec3 struct {
	X int
	Y int
	Z int
}

// XZ возвращает горизонтальную проекцию вектора (колонку)
func (v Vec3) XZ() Vec2 {
	return Vec2{X: v.X, Y: v.Z}
}

// DistanceSquared возвращает квадрат расстояния до другого вектора
func (v Vec3) DistanceSquared(other Vec3) int {
	dx := v.X - other.X
	dy := v.Y - other.Y
	dz := v.Z - other.Z
	return dx*dx + dy*dy + dz*dz
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Scale умножает все компоненты на скаляр
func (v Vec3) Scale(k int) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Abs возвращает покомпонентный модуль
func (v Vec3) Abs() Vec3 {
	return Vec3{X: abs(v.X), Y: abs(v.Y), Z: abs(v.Z)}
}

// MaxElement возвращает наибольшую компоненту
func (v Vec3) MaxElement() int {
	return max(v.X, v.Y, v.Z)
}

// ChebyshevTo возвращает расстояние Чебышёва (max |d|), т.е. "кубический радиус"
func (v Vec3) ChebyshevTo(other Vec3) int {
	return v.Sub(other).Abs().MaxElement()
}

// DivEuclid делит покомпонентно с округлением к минус бесконечности.
// Для отрицательных координат результат отличается от обычного деления Go.
func (v Vec3) DivEuclid(d int) Vec3 {
	return Vec3{X: DivEuclid(v.X, d), Y: DivEuclid(v.Y, d), Z: DivEuclid(v.Z, d)}
}

// ModEuclid возвращает покомпонентный неотрицательный остаток
func (v Vec3) ModEuclid(d int) Vec3 {
	return Vec3{X: ModEuclid(v.X, d), Y: ModEuclid(v.Y, d), Z: ModEuclid(v.Z, d)}
}

// Less задаёт лексикографический порядок (x, y, z)
func (v Vec3) Less(other Vec3) bool {
	if v.X != other.X {
		return v.X < other.X
	}
	if v.Y != other.Y {
		return v.Y < other.Y
	}
	return v.Z < other.Z
}
