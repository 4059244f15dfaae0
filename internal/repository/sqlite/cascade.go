package sqlite

import (
	"context"
	"fmt"

	"relmap/internal/schema"
)

// deleteRow deletes one row of entity after deleting every dependent reachable
// through its delete-orphan links, all on q. Dependents are selected fresh, so
// rows read earlier through another handle are still found. It reports
// whether the row existed.
func (s *Store) deleteRow(ctx context.Context, q querier, entity string, id int64) (bool, error) {
	return s.deleteTree(ctx, q, entity, id, make(map[string]bool))
}

func (s *Store) deleteTree(ctx context.Context, q querier, entity string, id int64, seen map[string]bool) (bool, error) {
	key := fmt.Sprintf("%s:%d", entity, id)
	if seen[key] {
		return false, nil
	}
	seen[key] = true

	e, ok := s.model.Entity(entity)
	if !ok {
		return false, fmt.Errorf("entity %s: %w", entity, schema.ErrUnknownEntity)
	}
	pk, _ := e.PrimaryKey()

	for _, link := range s.model.CascadeLinks(entity) {
		target, _ := s.model.Entity(link.Target)
		targetPK, _ := target.PrimaryKey()

		deps, err := queryIDs(ctx, q, fmt.Sprintf(
			"SELECT %s FROM %s WHERE %s = ? ORDER BY %s",
			targetPK.Name, link.FKTable, link.FKColumn, targetPK.Name), id)
		if err != nil {
			return false, fmt.Errorf("failed to load %s of %s %d: %w", link.Name, entity, id, err)
		}

		for _, dep := range deps {
			if _, err := s.deleteTree(ctx, q, link.Target, dep, seen); err != nil {
				return false, err
			}
		}
		if len(deps) > 0 {
			s.log.Debug().
				Str("entity", entity).
				Int64("id", id).
				Str("relationship", link.Name).
				Int("deleted", len(deps)).
				Msg("cascaded delete")
		}
	}

	res, err := q.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE %s = ?", e.Table, pk.Name), id)
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %d: %w", entity, id, classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete %s %d: %w", entity, id, err)
	}
	return n > 0, nil
}
