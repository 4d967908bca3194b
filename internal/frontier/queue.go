package frontier

// FIFOQueue is an unbounded first-in first-out queue.
// Dequeued slots are released so a long crawl does not pin old entries.
type FIFOQueue[T any] struct {
	items []T
	head  int
}

func NewFIFOQueue[T any]() *FIFOQueue[T] {
	return &FIFOQueue[T]{}
}

func (f *FIFOQueue[T]) Enqueue(item T) {
	f.items = append(f.items, item)
}

// return false on the second returned values if queue is empty
func (f *FIFOQueue[T]) Dequeue() (T, bool) {
	var zero T
	if f.head >= len(f.items) {
		return zero, false
	}
	first := f.items[f.head]
	f.items[f.head] = zero
	f.head++

	// compact once the consumed prefix dominates the backing array
	if f.head > 32 && f.head*2 >= len(f.items) {
		f.items = append([]T(nil), f.items[f.head:]...)
		f.head = 0
	}
	return first, true
}

func (f *FIFOQueue[T]) Size() int {
	return len(f.items) - f.head
}
