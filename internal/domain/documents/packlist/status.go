package packlist

import (
	"retailops/internal/core/apperror"
)

// Status is the lifecycle state of a packlist.
type Status string

const (
	StatusOpen             Status = "open"
	StatusCurrentlySelling Status = "currently_selling"
	StatusSold             Status = "sold"
	StatusCompleted        Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusCurrentlySelling, StatusSold, StatusCompleted:
		return true
	}
	return false
}

// Transition is one edge of the state machine.
type Transition struct {
	Name string
	From Status
	To   Status
}

// The complete set of edges. There are no others.
var (
	TransitionStartSelling  = Transition{Name: "start_selling", From: StatusOpen, To: StatusCurrentlySelling}
	TransitionFinishSelling = Transition{Name: "finish_selling", From: StatusCurrentlySelling, To: StatusSold}
	TransitionComplete      = Transition{Name: "complete", From: StatusSold, To: StatusCompleted}
)

// CheckTransition verifies p may take edge t. Repeating the terminal
// transition yields AlreadyCompleted, every other mismatch a Conflict.
func (p *Packlist) CheckTransition(t Transition) error {
	if p.Status == t.From {
		return nil
	}
	if t.To == StatusCompleted && p.Status == StatusCompleted {
		return apperror.NewAlreadyCompleted("packlist", p.ID)
	}
	return apperror.NewStatusConflict("packlist", p.ID, string(p.Status), string(t.From))
}
