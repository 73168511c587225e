package vec

// DivEuclid возвращает floor(a / b) для b > 0
func DivEuclid(a, b int) int {
	q := a / b
	if a%b < 0 {
		q--
	}
	return q
}

// ModEuclid возвращает остаток в диапазоне [0, b) для b > 0
func ModEuclid(a, b int) int {
	r := a % b
	if r < 0 {
		r += b
	}
	return r
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
