package tone

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Bell rings the terminal bell.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Attempt(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("failed to ring bell: %w", err)
	}
	return nil
}

func (b *Bell) Close() error {
	return nil
}
