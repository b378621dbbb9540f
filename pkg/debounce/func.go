package debounce

import (
	"sync"
	"time"
)

// Func - debounce с аргументом. Значение читается в момент срабатывания таймера,
// а не в момент планирования: fn всегда получает последний переданный в Call аргумент.
type Func[T any] struct {
	d  *Debouncer
	fn func(T)

	mu     sync.Mutex
	latest T
}

func NewFunc[T any](delay time.Duration, fn func(T)) *Func[T] {
	return &Func[T]{d: New(delay), fn: fn}
}

// Call запоминает значение и перезапускает таймер.
func (f *Func[T]) Call(v T) {
	f.mu.Lock()
	f.latest = v
	f.mu.Unlock()

	f.d.Trigger(f.fire)
}

func (f *Func[T]) fire() {
	f.mu.Lock()
	v := f.latest
	f.mu.Unlock()

	f.fn(v)
}

// Latest возвращает последнее переданное значение.
func (f *Func[T]) Latest() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.latest
}

func (f *Func[T]) Cancel() bool  { return f.d.Cancel() }
func (f *Func[T]) Pending() bool { return f.d.Pending() }
func (f *Func[T]) Stop()         { f.d.Stop() }
