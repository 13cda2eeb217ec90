// Package entity holds fields shared by the engine's aggregates.
package entity

import (
	"time"

	"retailops/internal/core/id"
)

// BaseDocument carries identity, optimistic-lock version and audit stamps.
// Packlists and orders embed it.
type BaseDocument struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable sequential number (PL-2026-00001)
	Number string `db:"number" json:"number"`

	// Version is incremented on each write; guarded updates compare it
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a BaseDocument with a fresh id, version 1 and
// both timestamps set to now.
func NewBaseDocument(now time.Time, createdBy string) BaseDocument {
	now = now.UTC()
	return BaseDocument{
		ID:        id.New(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: createdBy,
		UpdatedBy: createdBy,
	}
}

// Touch stamps a write by actor at now and bumps the version.
func (b *BaseDocument) Touch(now time.Time, actor string) {
	b.UpdatedAt = now.UTC()
	if actor != "" {
		b.UpdatedBy = actor
	}
	b.Version++
}
