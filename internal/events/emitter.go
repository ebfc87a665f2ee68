// Package events provides an in-memory publish/subscribe helper used by the
// deck and timer to announce state changes.
package events

import (
	"log/slog"
	"sync"
)

// Handler receives a published value.
type Handler[T any] func(T)

// Emitter stores registered handlers in memory and dispatches values to them
// synchronously, in registration order.
type Emitter[T any] struct {
	mu       sync.RWMutex
	nextID   uint64
	handlers map[uint64]Handler[T]
	order    []uint64
	logger   *slog.Logger
}

// NewEmitter creates an emitter. A nil logger discards debug output.
func NewEmitter[T any](logger *slog.Logger) *Emitter[T] {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter[T]{
		handlers: make(map[uint64]Handler[T]),
		logger:   logger.With("component", "event_emitter"),
	}
}

// Subscribe registers handler and returns a func that removes it again.
// The returned func is safe to call more than once.
func (e *Emitter[T]) Subscribe(handler Handler[T]) func() {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.handlers[id] = handler
	e.order = append(e.order, id)
	count := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("registered handler", "handler_count", count)

	var once sync.Once
	return func() {
		once.Do(func() { e.remove(id) })
	}
}

// Publish delivers value to every registered handler. A panicking handler is
// logged and does not prevent delivery to the others.
func (e *Emitter[T]) Publish(value T) {
	e.mu.RLock()
	handlers := make([]Handler[T], 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.RUnlock()

	for i, handler := range handlers {
		e.dispatch(i, handler, value)
	}
}

// Len reports the number of registered handlers.
func (e *Emitter[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.handlers)
}

func (e *Emitter[T]) dispatch(index int, handler Handler[T], value T) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked", "handler_index", index, "panic", r)
		}
	}()
	handler(value)
}

func (e *Emitter[T]) remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.handlers, id)
	for i, existing := range e.order {
		if existing == id {
			e.order = append(e.order[:i], e.order[i+1:]...)
			break
		}
	}
}
