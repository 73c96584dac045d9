package textutil

// Ternary picks a when cond holds, otherwise b. Mostly used to keep log
// attribute construction on one line.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
