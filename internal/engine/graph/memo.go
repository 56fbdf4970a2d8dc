package graph

import (
	"sync"
	"sync/atomic"
)

// outcome is the settled result of a memoized operation.
type outcome[T any] struct {
	val T
	err error
}

// memo runs an operation at most once. Concurrent callers block on the first
// run and all observe its result, including a failure.
type memo[T any] struct {
	once    sync.Once
	settled atomic.Bool
	res     outcome[T]
}

// do runs fn on the first call and returns the stored result on every call.
func (m *memo[T]) do(fn func() (T, error)) (T, error) {
	m.once.Do(func() {
		val, err := fn()
		m.res = outcome[T]{val: val, err: err}
		m.settled.Store(true)
	})
	return m.res.val, m.res.err
}

// peek returns the stored result without triggering the operation.
// The second return value is false while the operation has not settled.
func (m *memo[T]) peek() (outcome[T], bool) {
	if !m.settled.Load() {
		return outcome[T]{}, false
	}
	return m.res, true
}
