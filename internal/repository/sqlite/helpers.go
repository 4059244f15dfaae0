package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"relmap/internal/domain"
)

// ============================================================================
// Null Type Conversion Helpers
// ============================================================================

// nullToStringPtr converts sql.NullString to *string
func nullToStringPtr(ns sql.NullString) *string {
	if ns.Valid {
		s := ns.String
		return &s
	}
	return nil
}

// stringPtrToNull converts *string to sql.NullString
func stringPtrToNull(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// nullToInt64Ptr converts sql.NullInt64 to *int64
func nullToInt64Ptr(ni sql.NullInt64) *int64 {
	if ni.Valid {
		v := ni.Int64
		return &v
	}
	return nil
}

// int64PtrToNull converts *int64 to sql.NullInt64
func int64PtrToNull(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// ============================================================================
// Row Scanners
// ============================================================================
//
// Column order must match between the *Columns constant, scanArgs() and
// every SELECT that uses the constant.

// userRow holds all columns from a users query
type userRow struct {
	ID   int64
	Name string
}

// scanArgs order: id, name
func (r *userRow) scanArgs() []any {
	return []any{&r.ID, &r.Name}
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Name: r.Name}
}

const userColumns = `id, name`

// itemRow holds all columns from an items query in the ownership schema
type itemRow struct {
	ID      int64
	Content sql.NullString
	OwnerID sql.NullInt64
}

// scanArgs order: id, content, owner_id
func (r *itemRow) scanArgs() []any {
	return []any{&r.ID, &r.Content, &r.OwnerID}
}

func (r *itemRow) toDomain() *domain.Item {
	return &domain.Item{
		ID:      r.ID,
		Content: nullToStringPtr(r.Content),
		OwnerID: nullToInt64Ptr(r.OwnerID),
	}
}

const itemColumns = `id, content, owner_id`

// nodeRow holds all columns from an items query in the tree schema
type nodeRow struct {
	ID       int64
	Content  string
	ParentID sql.NullInt64
}

// scanArgs order: id, content, parent_id
func (r *nodeRow) scanArgs() []any {
	return []any{&r.ID, &r.Content, &r.ParentID}
}

func (r *nodeRow) toDomain() *domain.Node {
	return &domain.Node{
		ID:       r.ID,
		Content:  r.Content,
		ParentID: nullToInt64Ptr(r.ParentID),
	}
}

const nodeColumns = `id, content, parent_id`

// ============================================================================
// Query Helpers
// ============================================================================

// scanner is implemented by the row types above
type scanner[T any] interface {
	scanArgs() []any
	toDomain() *T
}

// queryOne returns nil, nil when the query matches no row
func queryOne[T any, R scanner[T]](ctx context.Context, q querier, row R, query string, args ...any) (*T, error) {
	err := q.QueryRowContext(ctx, query, args...).Scan(row.scanArgs()...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// queryAll never returns a nil slice on success
func queryAll[T any, R scanner[T]](ctx context.Context, q querier, newRow func() R, query string, args ...any) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		row := newRow()
		if err := rows.Scan(row.scanArgs()...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, *row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return out, nil
}

// queryIDs collects a single integer column
func queryIDs(ctx context.Context, q querier, query string, args ...any) ([]int64, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
