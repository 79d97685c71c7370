package choice

// Ternary returns isTrue when condition holds, isFalse otherwise.
func Ternary[T any](condition bool, isTrue, isFalse T) T {
	if condition {
		return isTrue
	}

	return isFalse
}
