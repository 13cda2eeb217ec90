// Package audit defines the audit trail written by every lifecycle transition.
package audit

import (
	"context"
	"time"

	"retailops/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate        Action = "create"
	ActionStartSelling  Action = "start_selling"
	ActionFinishSelling Action = "finish_selling"
	ActionComplete      Action = "complete"
	ActionRequestCheck  Action = "request_check"
	ActionConfirm       Action = "confirm"
	ActionStockEdit     Action = "stock_edit"
	ActionSetActive     Action = "set_active"
)

// Entity types.
const (
	EntityProduct  = "product"
	EntityPacklist = "packlist"
	EntityOrder    = "order"
)

// Entry is one audit record.
type Entry struct {
	ID         id.ID          `json:"id"`
	EntityType string         `json:"entityType"`
	EntityID   id.ID          `json:"entityId"`
	Action     Action         `json:"action"`
	ActorID    string         `json:"actorId,omitempty"`
	Changes    map[string]any `json:"changes,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Recorder persists audit entries. Record is called inside the transition's
// transaction, so a failed write aborts the transition.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

// Reader returns the history of one entity, newest first.
type Reader interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]Entry, error)
}

// NopRecorder discards entries.
type NopRecorder struct{}

// Record implements Recorder.
func (NopRecorder) Record(context.Context, Entry) error { return nil }
