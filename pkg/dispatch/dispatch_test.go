package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequential_VisitsAllItemsInOrder(t *testing.T) {
	var started, completed []int
	finallyCalls := 0

	Sequential([]int{1, 2, 3},
		func(item int) { started = append(started, item) },
		func(item int, done func(error)) {
			completed = append(completed, item)
			done(nil)
		},
		func(err error) bool { return true },
		func() { finallyCalls++ },
	)

	assert.Equal(t, []int{1, 2, 3}, started)
	assert.Equal(t, []int{1, 2, 3}, completed)
	assert.Equal(t, 1, finallyCalls)
}

func TestSequential_StopsWhenContinueReturnsFalse(t *testing.T) {
	var started []int
	finallyCalls := 0
	failure := errors.New("fatal")

	Sequential([]int{1, 2, 3},
		func(item int) { started = append(started, item) },
		func(item int, done func(error)) {
			if item == 2 {
				done(failure)
				return
			}
			done(nil)
		},
		func(err error) bool { return err == nil },
		func() { finallyCalls++ },
	)

	// Item 3 is never started and finally runs exactly once.
	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, 1, finallyCalls)
}

func TestSequential_StopOnNilErrorIsAlsoAStop(t *testing.T) {
	var started []string
	finallyCalls := 0

	Sequential([]string{"a", "b"},
		func(item string) { started = append(started, item) },
		func(item string, done func(error)) { done(nil) },
		func(err error) bool { return false },
		func() { finallyCalls++ },
	)

	assert.Equal(t, []string{"a"}, started)
	assert.Equal(t, 1, finallyCalls)
}

func TestSequential_DuplicateCompletionIsIgnored(t *testing.T) {
	var started []int
	finallyCalls := 0

	Sequential([]int{1, 2},
		func(item int) { started = append(started, item) },
		func(item int, done func(error)) {
			done(nil)
			done(nil) // misbehaving op; must not double-advance
		},
		func(err error) bool { return true },
		func() { finallyCalls++ },
	)

	assert.Equal(t, []int{1, 2}, started)
	assert.Equal(t, 1, finallyCalls)
}

func TestSequential_AsyncCompletion(t *testing.T) {
	var order []string
	finished := make(chan struct{})

	Sequential([]int{1, 2},
		func(item int) {},
		func(item int, done func(error)) {
			go func() {
				order = append(order, "op")
				done(nil)
			}()
		},
		func(err error) bool {
			order = append(order, "cont")
			return true
		},
		func() { close(finished) },
	)

	<-finished
	assert.Equal(t, []string{"op", "cont", "op", "cont"}, order)
}

func TestSequential_EmptyListInvokesFinally(t *testing.T) {
	finallyCalls := 0
	Sequential[int](nil,
		func(item int) { t.Fatal("onStart must not run for an empty list") },
		func(item int, done func(error)) { t.Fatal("op must not run for an empty list") },
		func(err error) bool { return true },
		func() { finallyCalls++ },
	)
	assert.Equal(t, 1, finallyCalls)
}
