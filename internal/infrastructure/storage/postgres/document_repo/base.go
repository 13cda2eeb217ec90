// Package document_repo provides PostgreSQL repositories for packlists and
// orders. Items are stored as a JSONB column on the document row.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/apperror"
	"retailops/internal/core/id"
	"retailops/internal/infrastructure/storage/postgres"
)

// docTable describes one document table. R is the scan row type.
type docTable[R any] struct {
	name    string
	entity  string
	columns []string
	txm     *postgres.TxManager
}

func (t docTable[R]) insert(ctx context.Context, data map[string]any) error {
	sql, args, err := postgres.Builder().Insert(t.name).SetMap(data).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := t.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(fmt.Errorf("insert %s: %w", t.name, err))
	}
	return nil
}

func (t docTable[R]) get(ctx context.Context, docID id.ID) (*R, error) {
	sql, args, err := t.selectQuery().Where(squirrel.Eq{"id": docID}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	row := new(R)
	if err := pgxscan.Get(ctx, t.txm.GetQuerier(ctx), row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound(t.entity, docID.String())
		}
		return nil, postgres.MapError(fmt.Errorf("get %s: %w", t.entity, err))
	}
	return row, nil
}

func (t docTable[R]) selectQuery() squirrel.SelectBuilder {
	return postgres.Builder().Select(t.columns...).From(t.name)
}

// guardedUpdate writes data only while the row still has one of the given
// statuses and the expected version. Zero affected rows is a lost race.
func (t docTable[R]) guardedUpdate(ctx context.Context, docID id.ID, data map[string]any, from []string, expectedVersion int) error {
	sql, args, err := guardedUpdateQuery(t.name, docID, data, from, expectedVersion).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := t.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(fmt.Errorf("update %s: %w", t.name, err))
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(t.entity, docID.String())
	}
	return nil
}

func guardedUpdateQuery(table string, docID id.ID, data map[string]any, from []string, expectedVersion int) squirrel.UpdateBuilder {
	return postgres.Builder().
		Update(table).
		SetMap(data).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"status": from}).
		Where(squirrel.Eq{"version": expectedVersion})
}

// immutableColumns are never rewritten by an update.
var immutableColumns = []string{"id", "number", "created_at", "created_by"}

func pickUpdatable(cols []string, data map[string]any) map[string]any {
	return postgres.PickColumns(data, cols, immutableColumns...)
}
