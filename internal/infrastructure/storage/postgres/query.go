package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"retailops/internal/domain"
)

// Builder returns a squirrel builder with PostgreSQL placeholders.
func Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// SelectPage counts the rows matched by q, then scans one ordered page of them.
func SelectPage[T any](ctx context.Context, querier Querier, q squirrel.SelectBuilder, p domain.Pagination, orderBy ...string) (domain.ListResult[T], error) {
	p = p.Normalize()
	result := domain.ListResult[T]{Limit: p.Limit, Offset: p.Offset}

	countSQL, countArgs, err := Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, MapError(fmt.Errorf("count: %w", err))
	}

	sql, args, err := q.OrderBy(orderBy...).
		Limit(uint64(p.Limit)).
		Offset(uint64(p.Offset)).
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, MapError(fmt.Errorf("list: %w", err))
	}
	if result.Items == nil {
		result.Items = []T{}
	}
	return result, nil
}
