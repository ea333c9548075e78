// Package identifier issues the public sequence label and the secret access token of a cart.
package identifier

import (
	"context"
	"errors"
	"fmt"
)

var ErrInvalidSequence = errors.New("sequence value must be positive")

// Counter hands out strictly increasing values for a named sequence. Implementations
// must be atomic across concurrent callers: two callers never receive the same value.
type Counter interface {
	Increment(ctx context.Context, name string) (int64, error)
}

// Seeder is a Counter kept outside the database. It must be raised to the highest
// value already issued before it hands out labels.
type Seeder interface {
	Seed(ctx context.Context, name string, floor int64) (int64, error)
}

// FormatLabel renders a sequence value as a label zero-padded to three digits.
func FormatLabel(value int64) (string, error) {
	if value <= 0 {
		return "", ErrInvalidSequence
	}
	return fmt.Sprintf("%03d", value), nil
}

// NextLabel draws the next value from counter and renders it.
func NextLabel(ctx context.Context, counter Counter, name string) (string, error) {
	if counter == nil {
		return "", errors.New("sequence counter is required")
	}
	value, err := counter.Increment(ctx, name)
	if err != nil {
		return "", fmt.Errorf("increment %s: %w", name, err)
	}
	return FormatLabel(value)
}
