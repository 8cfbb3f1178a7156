package racunis

import (
	"log/slog"
	"sync"
)

// EventHandler receives a job event. job is nil for events that carry no
// job (a Worker's waiting event, or a Queue's error event when the failure
// occurred before a job was acquired); err is nil for non-error events.
type EventHandler func(job *Job, err error)

// emitter is a small typed dispatcher keyed by event name, fanning out
// synchronously to registered handlers. A handler panic is recovered and
// logged at the emitter boundary so one bad handler never breaks a Queue's
// or Worker's polling loop.
type emitter struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
	log      *slog.Logger
}

func newEmitter(log *slog.Logger) *emitter {
	return &emitter{
		handlers: make(map[string][]EventHandler),
		log:      log,
	}
}

func (e *emitter) on(event string, handler EventHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[event] = append(e.handlers[event], handler)
}

func (e *emitter) emit(event string, job *Job, err error) {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers[event]...)
	e.mu.RUnlock()
	for _, handler := range handlers {
		e.safeInvoke(event, handler, job, err)
	}
}

func (e *emitter) safeInvoke(event string, handler EventHandler, job *Job, err error) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("event handler panicked", "event", event, "recovered", normaliseError(r))
		}
	}()
	handler(job, err)
}
