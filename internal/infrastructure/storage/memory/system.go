package memory

import (
	"context"
	"sort"
	"strconv"
	"time"

	"retailops/internal/core/id"
	"retailops/internal/core/numerator"
	"retailops/internal/domain/audit"
)

// Numerator implements numerator.Generator with per prefix and year counters.
type Numerator struct{ store *Store }

// NewNumerator creates a number generator over store.
func NewNumerator(store *Store) *Numerator { return &Numerator{store: store} }

var _ numerator.Generator = (*Numerator)(nil)

func (n *Numerator) Next(ctx context.Context, cfg numerator.Config, at time.Time) (string, error) {
	year := at.UTC().Year()
	key := cfg.Prefix + ":" + strconv.Itoa(year)

	var value int64
	err := n.store.write(ctx, func(st *state) error {
		st.sequences[key]++
		value = st.sequences[key]
		return nil
	})
	if err != nil {
		return "", err
	}
	return numerator.Format(cfg, year, value), nil
}

// AuditLog implements audit.Recorder and audit.Reader.
type AuditLog struct{ store *Store }

// NewAuditLog creates an audit log over store.
func NewAuditLog(store *Store) *AuditLog { return &AuditLog{store: store} }

var (
	_ audit.Recorder = (*AuditLog)(nil)
	_ audit.Reader   = (*AuditLog)(nil)
)

func (l *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return l.store.write(ctx, func(st *state) error {
		st.audit = append(st.audit, entry)
		return nil
	})
}

func (l *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	var out []audit.Entry
	_ = l.store.read(ctx, func(st *state) error {
		for _, e := range st.audit {
			if e.EntityType == entityType && e.EntityID == entityID {
				out = append(out, e)
			}
		}
		return nil
	})

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
