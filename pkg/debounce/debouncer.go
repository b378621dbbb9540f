// Package debounce - перезапускаемый таймер для схлопывания частых вызовов.
package debounce

import (
	"sync"
	"time"
)

// Debouncer откладывает вызов функции до тех пор, пока в течение delay не будет новых вызовов.
// Выполняется только функция из последнего Trigger.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64 // растет на каждый Trigger/Cancel, сработавший таймер со старым seq ничего не делает
	pending bool
	stopped bool
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger (пере)запускает таймер.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending = true

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		// Таймер мог успеть сработать одновременно с Cancel/Trigger
		if d.seq != seq || d.stopped {
			d.mu.Unlock()
			return
		}
		d.timer = nil
		d.pending = false
		d.mu.Unlock()

		fn()
	})
}

// Cancel отменяет ожидающий вызов. Возвращает true, если вызов ожидался.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	wasPending := d.pending
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
	return wasPending
}

// Pending сообщает, ждет ли таймер срабатывания.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Stop отменяет ожидающий вызов и запрещает новые.
func (d *Debouncer) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
