// Package dispatch runs dependent asynchronous operations over a list of
// items strictly in order, stopping early when the caller decides an item's
// outcome is terminal.
package dispatch

import "sync"

// Sequential executes op for each item in order. Before each item, onStart is
// invoked with the item. op reports its outcome through the provided
// completion callback; cont is then called with that outcome and returns true
// to advance to the next item or false to stop. After the last item, or an
// early stop, finally is invoked exactly once.
//
// The next item is never started before the previous item's completion has
// been fully processed, and only the first completion per item is honored, so
// a misbehaving op that completes twice cannot double-advance the sequence or
// re-run finally.
func Sequential[T any](items []T, onStart func(T), op func(T, func(error)), cont func(error) bool, finally func()) {
	if len(items) == 0 {
		finally()
		return
	}

	var advance func(i int)
	advance = func(i int) {
		item := items[i]
		if onStart != nil {
			onStart(item)
		}

		var once sync.Once
		op(item, func(err error) {
			once.Do(func() {
				if cont(err) && i+1 < len(items) {
					advance(i + 1)
					return
				}
				finally()
			})
		})
	}
	advance(0)
}
