package gateway

import (
	"context"
	"fmt"
)

// HandlerFunc processes one inbound event on an authenticated connection.
// Returned errors are translated into an error event for the acting client.
type HandlerFunc func(ctx context.Context, c *Client, data map[string]any) error

type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(event string, h HandlerFunc) { d.handlers[event] = h }

func (d *Dispatcher) Has(event string) bool {
	_, ok := d.handlers[event]
	return ok
}

func (d *Dispatcher) Dispatch(ctx context.Context, c *Client, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return fmt.Errorf("no handler for event=%s", f.Event)
	}
	return h(ctx, c, f.Data)
}
