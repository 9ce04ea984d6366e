package event

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type Dispatcher interface {
	Dispatch(ctx context.Context, events ...Event) error
	Subscribe(eventType string, handler Handler)
}

type dispatcher struct {
	mutex    sync.RWMutex
	handlers map[string][]Handler
}

func NewDispatcher() Dispatcher {
	return &dispatcher{handlers: make(map[string][]Handler)}
}

func (d *dispatcher) Subscribe(eventType string, handler Handler) {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], handler)
}

// Dispatch runs handlers synchronously in subscription order.
// A failing handler does not prevent the remaining ones from running.
func (d *dispatcher) Dispatch(ctx context.Context, events ...Event) error {
	var errs []error
	for _, evt := range events {
		d.mutex.RLock()
		handlers := d.handlers[evt.Type()]
		d.mutex.RUnlock()

		for _, handler := range handlers {
			err := handler(ctx, evt)
			if err != nil {
				errs = append(errs, fmt.Errorf("handle event %s: %w", evt.Type(), err))
			}
		}
	}

	return errors.Join(errs...)
}
