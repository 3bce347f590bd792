// Package ptr has generic helpers for optional (pointer) fields.
package ptr

// To returns a pointer to a copy of v.
func To[T any](v T) *T {
	return &v
}

// Deref returns *p, or def when p is nil.
func Deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
