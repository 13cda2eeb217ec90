package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"retailops/internal/core/id"
	"retailops/internal/domain/audit"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the payload size above which changes are zstd-compressed.
const defaultCompressThreshold = 10 * 1024

const defaultHistoryLimit = 100

var (
	_ audit.Recorder = (*AuditLog)(nil)
	_ audit.Reader   = (*AuditLog)(nil)
)

// auditRow mirrors sys_audit.
type auditRow struct {
	ID                id.ID           `db:"id"`
	EntityType        string          `db:"entity_type"`
	EntityID          id.ID           `db:"entity_id"`
	Action            string          `db:"action"`
	ActorID           string          `db:"actor_id"`
	Changes           json.RawMessage `db:"changes"`
	ChangesCompressed []byte          `db:"changes_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditLog stores audit entries in sys_audit. Large change sets are
// compressed with zstd.
type AuditLog struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditLog creates the audit log.
func NewAuditLog(txm *TxManager) (*AuditLog, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditLog{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// Close releases the zstd decoder.
func (l *AuditLog) Close() {
	l.decoder.Close()
}

// Record inserts an audit entry in the caller's transaction.
func (l *AuditLog) Record(ctx context.Context, entry audit.Entry) error {
	row, err := l.toRow(entry)
	if err != nil {
		return err
	}

	const sql = `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, actor_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = l.txm.GetQuerier(ctx).Exec(ctx, sql,
		row.ID, row.EntityType, row.EntityID, row.Action, row.ActorID,
		row.Changes, row.ChangesCompressed, row.CompressionAlgo, row.CreatedAt,
	)
	if err != nil {
		return MapError(fmt.Errorf("insert audit entry: %w", err))
	}
	return nil
}

// History returns the audit entries of one entity, newest first.
func (l *AuditLog) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	const sql = `
		SELECT id, entity_type, entity_id, action, actor_id,
			   changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`
	var rows []auditRow
	if err := pgxscan.Select(ctx, l.txm.GetQuerier(ctx), &rows, sql, entityType, entityID, limit); err != nil {
		return nil, MapError(fmt.Errorf("query audit history: %w", err))
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, r := range rows {
		e, err := l.fromRow(r)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (l *AuditLog) toRow(entry audit.Entry) (auditRow, error) {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	changes, err := json.Marshal(entry.Changes)
	if err != nil {
		return auditRow{}, fmt.Errorf("marshal audit changes: %w", err)
	}

	row := auditRow{
		ID:              entry.ID,
		EntityType:      entry.EntityType,
		EntityID:        entry.EntityID,
		Action:          string(entry.Action),
		ActorID:         entry.ActorID,
		Changes:         changes,
		CompressionAlgo: CompressionNone,
		CreatedAt:       entry.CreatedAt,
	}
	if len(changes) > l.compressThreshold {
		row.ChangesCompressed = l.encoder.EncodeAll(changes, nil)
		row.Changes = nil
		row.CompressionAlgo = CompressionZstd
	}
	return row, nil
}

func (l *AuditLog) fromRow(r auditRow) (audit.Entry, error) {
	raw := []byte(r.Changes)
	if r.CompressionAlgo == CompressionZstd && len(r.ChangesCompressed) > 0 {
		decompressed, err := l.decoder.DecodeAll(r.ChangesCompressed, nil)
		if err != nil {
			return audit.Entry{}, fmt.Errorf("decompress audit changes: %w", err)
		}
		raw = decompressed
	}

	e := audit.Entry{
		ID:         r.ID,
		EntityType: r.EntityType,
		EntityID:   r.EntityID,
		Action:     audit.Action(r.Action),
		ActorID:    r.ActorID,
		CreatedAt:  r.CreatedAt,
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &e.Changes); err != nil {
			return audit.Entry{}, fmt.Errorf("unmarshal audit changes: %w", err)
		}
	}
	return e, nil
}
