// Package history implements a fixed-capacity circular undo buffer.
package history

import (
	"errors"
	"fmt"
)

var (
	ErrEmpty         = errors.New("history: list is empty")
	ErrNothingToUndo = errors.New("history: nothing to undo")
	ErrNothingToRedo = errors.New("history: nothing to redo")
)

// WindowError is returned by SetWindow for positions that do not hold an item.
type WindowError struct {
	Index int
	Count int
	Empty bool
}

func (e *WindowError) Error() string {
	if e.Empty {
		return fmt.Sprintf("history: cannot set window at %d: slot is empty", e.Index)
	}
	return fmt.Sprintf("history: cannot set window at %d: list only has %d", e.Index, e.Count)
}

// List keeps the last Cap items pushed with Next. The head can be moved
// back and forth with Undo and Redo; pushing after an Undo drops every item
// newer than the head.
type List[T any] struct {
	items    []T
	occupied []bool
	nextHead int
	tail     int
	count    int
}

func New[T any](capacity int) *List[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &List[T]{items: make([]T, capacity), occupied: make([]bool, capacity)}
}

func (l *List[T]) Cap() int { return len(l.items) }

// Len is the number of retained items, including those ahead of the head.
func (l *List[T]) Len() int { return l.count }

func (l *List[T]) wrap(i int) int {
	n := len(l.items)
	return ((i % n) + n) % n
}

// Next stores item as the newest entry, evicting the oldest one when full.
func (l *List[T]) Next(item T) {
	capacity := len(l.items)
	if l.nextHead == l.tail && l.count == capacity {
		l.tail = l.wrap(l.tail + 1)
		l.count--
	}
	l.items[l.nextHead] = item
	l.occupied[l.nextHead] = true
	l.nextHead = l.wrap(l.nextHead + 1)

	l.count = l.wrap(l.nextHead - l.tail)
	if l.count == 0 {
		l.count = capacity
	}

	var zero T
	for i := l.nextHead; i != l.tail; i = l.wrap(i + 1) {
		l.items[i] = zero
		l.occupied[i] = false
	}
}

// Get returns the item at the head.
func (l *List[T]) Get() (T, error) {
	if l.count == 0 {
		var zero T
		return zero, ErrEmpty
	}
	return l.items[l.wrap(l.nextHead-1)], nil
}

// SetWindow moves the head to the absolute 1-based slot i.
func (l *List[T]) SetWindow(i int) error {
	if i <= 0 || i > l.count {
		return &WindowError{Index: i, Count: l.count}
	}
	if !l.occupied[l.wrap(i-1)] {
		return &WindowError{Index: i, Count: l.count, Empty: true}
	}
	l.nextHead = l.wrap(i)
	return nil
}

func (l *List[T]) CanUndo() bool {
	return l.count > 0 && l.nextHead != l.wrap(l.tail+1)
}

func (l *List[T]) CanRedo() bool {
	return l.nextHead != l.tail && l.occupied[l.nextHead]
}

func (l *List[T]) Undo() error {
	if !l.CanUndo() {
		return ErrNothingToUndo
	}
	l.nextHead = l.wrap(l.nextHead - 1)
	return nil
}

func (l *List[T]) Redo() error {
	if !l.CanRedo() {
		return ErrNothingToRedo
	}
	l.nextHead = l.wrap(l.nextHead + 1)
	return nil
}

// Items returns the retained items from oldest to newest.
func (l *List[T]) Items() []T {
	out := make([]T, 0, l.count)
	for k := 0; k < l.count; k++ {
		i := l.wrap(l.tail + k)
		if !l.occupied[i] {
			break
		}
		out = append(out, l.items[i])
	}
	return out
}

// Head returns the 1-based position of the head within Items, or 0 when
// the list is empty.
func (l *List[T]) Head() int {
	if l.count == 0 {
		return 0
	}
	h := l.wrap(l.nextHead - l.tail)
	if h == 0 {
		return len(l.items)
	}
	return h
}

// Restore rebuilds a list from items (oldest first) with the head at the
// 1-based position head.
func Restore[T any](capacity int, items []T, head int) (*List[T], error) {
	l := New[T](capacity)
	if drop := len(items) - l.Cap(); drop > 0 {
		items = items[drop:]
		head -= drop
	}
	for _, it := range items {
		l.Next(it)
	}
	if len(items) == 0 {
		return l, nil
	}
	if head < 1 || head > len(items) {
		return nil, fmt.Errorf("history: restore: head %d out of range [1, %d]", head, len(items))
	}
	for i := len(items); i > head; i-- {
		if err := l.Undo(); err != nil {
			return nil, fmt.Errorf("history: restore: %w", err)
		}
	}
	return l, nil
}

// Reset empties the list.
func (l *List[T]) Reset() {
	*l = *New[T](len(l.items))
}
