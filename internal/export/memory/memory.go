// Package memory is an in-memory ledger mirror for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"horizon/internal/core"
)

// Row is one mirrored contribution.
type Row struct {
	Contribution core.Contribution
	MemberName   string
}

// Writer collects mirrored rows in memory.
type Writer struct {
	mu   sync.Mutex
	rows []Row

	// Fail makes every append return an error when set.
	Fail bool
}

func New() *Writer {
	return &Writer{}
}

func (w *Writer) AppendContribution(_ context.Context, c core.Contribution, memberName string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Fail {
		return "", fmt.Errorf("memory mirror: append disabled")
	}
	if err := c.Validate(); err != nil {
		return "", err
	}
	w.rows = append(w.rows, Row{Contribution: c, MemberName: memberName})
	return fmt.Sprintf("row:%d", len(w.rows)), nil
}

// Rows returns a copy of everything mirrored so far.
func (w *Writer) Rows() []Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Row, len(w.rows))
	copy(out, w.rows)
	return out
}
