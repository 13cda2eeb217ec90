package document_repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/documents/packlist"
	"retailops/internal/infrastructure/storage/postgres"
)

// packlistRow is a packlists row with its JSONB items.
type packlistRow struct {
	packlist.Packlist
	ItemsJSON []byte `db:"items"`
}

func (r *packlistRow) toDomain() (*packlist.Packlist, error) {
	p := r.Packlist
	if err := json.Unmarshal(r.ItemsJSON, &p.Items); err != nil {
		return nil, fmt.Errorf("decode packlist %s items: %w", p.ID, err)
	}
	if p.AssignedUserIDs == nil {
		p.AssignedUserIDs = []string{}
	}
	return &p, nil
}

var packlistColumns = postgres.ExtractDBColumns[packlist.Packlist]()

// PacklistRepo implements packlist.Repository.
type PacklistRepo struct {
	table docTable[packlistRow]
}

var _ packlist.Repository = (*PacklistRepo)(nil)

// NewPacklistRepo creates a packlist repository.
func NewPacklistRepo(txm *postgres.TxManager) *PacklistRepo {
	return &PacklistRepo{table: docTable[packlistRow]{
		name:    "packlists",
		entity:  "packlist",
		columns: append(append([]string{}, packlistColumns...), "items"),
		txm:     txm,
	}}
}

// Create inserts p with its items.
func (r *PacklistRepo) Create(ctx context.Context, p *packlist.Packlist) error {
	data, err := packlistData(p)
	if err != nil {
		return err
	}
	return r.table.insert(ctx, data)
}

// GetByID loads one packlist.
func (r *PacklistRepo) GetByID(ctx context.Context, packlistID id.ID) (*packlist.Packlist, error) {
	row, err := r.table.get(ctx, packlistID)
	if err != nil {
		return nil, err
	}
	return row.toDomain()
}

// Update writes p guarded by status and version.
func (r *PacklistRepo) Update(ctx context.Context, p *packlist.Packlist, from packlist.Status, expectedVersion int) error {
	data, err := packlistData(p)
	if err != nil {
		return err
	}
	data = pickUpdatable(r.table.columns, data)
	return r.table.guardedUpdate(ctx, p.ID, data, []string{string(from)}, expectedVersion)
}

// List returns packlists, newest business day first.
func (r *PacklistRepo) List(ctx context.Context, filter packlist.ListFilter) (domain.ListResult[*packlist.Packlist], error) {
	page, err := postgres.SelectPage[*packlistRow](ctx, r.table.txm.GetQuerier(ctx),
		r.listQuery(filter), filter.Pagination, "date DESC", "id DESC")
	if err != nil {
		return domain.ListResult[*packlist.Packlist]{}, err
	}

	out := domain.ListResult[*packlist.Packlist]{
		Items:      make([]*packlist.Packlist, 0, len(page.Items)),
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	for _, row := range page.Items {
		p, err := row.toDomain()
		if err != nil {
			return domain.ListResult[*packlist.Packlist]{}, err
		}
		out.Items = append(out.Items, p)
	}
	return out, nil
}

func (r *PacklistRepo) listQuery(filter packlist.ListFilter) squirrel.SelectBuilder {
	q := r.table.selectQuery()
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": string(*filter.Status)})
	}
	if filter.PosID != nil {
		q = q.Where(squirrel.Eq{"pos_id": *filter.PosID})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": packlist.BusinessDay(*filter.DateFrom)})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": packlist.BusinessDay(*filter.DateTo)})
	}
	return q
}

// ListCompleted returns completed packlists on or after since.
func (r *PacklistRepo) ListCompleted(ctx context.Context, since *time.Time) ([]*packlist.Packlist, error) {
	sql, args, err := r.completedQuery(since).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []*packlistRow
	if err := pgxscan.Select(ctx, r.table.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(fmt.Errorf("list completed packlists: %w", err))
	}

	out := make([]*packlist.Packlist, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *PacklistRepo) completedQuery(since *time.Time) squirrel.SelectBuilder {
	q := r.table.selectQuery().Where(squirrel.Eq{"status": string(packlist.StatusCompleted)})
	if since != nil {
		q = q.Where(squirrel.GtOrEq{"date": packlist.BusinessDay(*since)})
	}
	return q.OrderBy("date", "id")
}

func packlistData(p *packlist.Packlist) (map[string]any, error) {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return nil, fmt.Errorf("encode packlist items: %w", err)
	}
	data := postgres.PickColumns(postgres.StructToMap(p), packlistColumns)
	data["status"] = string(p.Status)
	data["items"] = items
	if p.AssignedUserIDs == nil {
		data["assigned_user_ids"] = []string{}
	}
	return data, nil
}
