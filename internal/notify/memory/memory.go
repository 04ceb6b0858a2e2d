// Package memory provides an in-memory SMS transport for development and
// tests.
package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Delivery is one captured message.
type Delivery struct {
	Number  string
	Message string
}

// Transport records deliveries instead of sending them.
type Transport struct {
	mu         sync.Mutex
	deliveries []Delivery

	// Fail makes every delivery return an error when set.
	Fail bool
}

func New() *Transport {
	return &Transport{}
}

func (t *Transport) Deliver(ctx context.Context, canonicalNumber, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.Fail {
		return fmt.Errorf("memory transport: delivery disabled")
	}

	t.deliveries = append(t.deliveries, Delivery{Number: canonicalNumber, Message: message})
	slog.InfoContext(ctx, "SMS captured by memory transport", "number", canonicalNumber)
	return nil
}

// Deliveries returns a copy of everything captured so far.
func (t *Transport) Deliveries() []Delivery {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Delivery, len(t.deliveries))
	copy(out, t.deliveries)
	return out
}
