package sf

import "golang.org/x/sync/singleflight"

// Group deduplicates concurrent calls that share a key. Only the first
// caller executes the function; the rest block and receive its result.
type Group[T any] struct {
	group singleflight.Group
}

// New creates a Group for type T.
func New[T any]() *Group[T] {
	return &Group[T]{}
}

// Do executes fn for key, deduplicating concurrent calls. While a call for
// key is in flight, further Do calls with the same key wait for it and
// return its value and error instead of executing fn again. Completed calls
// are not memoized; the next Do after completion executes fn.
func (g *Group[T]) Do(key string, fn func() (T, error)) (T, error) {
	v, err, _ := g.group.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
