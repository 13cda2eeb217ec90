// Package numerator provides the contract for sequential document numbers.
// Implementations live in the storage layer (postgres sys_sequences, memory).
package numerator

import (
	"context"
	"fmt"
	"time"
)

// Document prefixes.
const (
	PrefixPacklist = "PL"
	PrefixOrder    = "PO"
)

// Config describes one numbering sequence.
type Config struct {
	// Prefix added to all numbers (e.g. "PL", "PO")
	Prefix string

	// PadWidth is the minimum width of the counter (default 5)
	PadWidth int
}

// DefaultConfig returns a yearly sequence padded to 5 digits.
func DefaultConfig(prefix string) Config {
	return Config{Prefix: prefix, PadWidth: 5}
}

// Generator hands out strictly increasing numbers per prefix and year.
//
// Next must be called inside the transaction that creates the document, so
// an aborted creation rolls the counter back with it.
type Generator interface {
	Next(ctx context.Context, cfg Config, at time.Time) (string, error)
}

// Format renders PREFIX-YYYY-NNNNN.
func Format(cfg Config, year int, n int64) string {
	width := cfg.PadWidth
	if width <= 0 {
		width = 5
	}
	return fmt.Sprintf("%s-%d-%0*d", cfg.Prefix, year, width, n)
}
