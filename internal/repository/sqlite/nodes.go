package sqlite

import (
	"context"
	"fmt"

	"relmap/internal/domain"
	"relmap/internal/repository"
	"relmap/internal/schema"
)

// Nodes implements repository.Tree
type Nodes struct {
	store *Store
	sess  *Session
}

var _ repository.Tree = (*Nodes)(nil)

// NewNodes returns the tree repository of a store opened with schema.Tree
func NewNodes(store *Store) (*Nodes, error) {
	link, ok := store.model.Link(schema.EntityNode, "children")
	if !ok || link.Target != schema.EntityNode {
		return nil, fmt.Errorf("schema %s has no self-referential node table: %w", store.model.Name(), schema.ErrUnknownEntity)
	}
	return &Nodes{store: store}, nil
}

// In binds the repository to a session
func (n *Nodes) In(sess *Session) *Nodes {
	return &Nodes{store: n.store, sess: sess}
}

// Seed inserts a batch of nodes and commits once. Parents are inserted
// before their children whatever the batch order, so immediate foreign key
// checks pass. Any failure leaves the table as it was.
func (n *Nodes) Seed(ctx context.Context, nodes []domain.Node) error {
	for i := range nodes {
		if err := domain.Validate(&nodes[i]); err != nil {
			return fmt.Errorf("seed record %d: %w", i, err)
		}
	}

	ordered, err := parentsFirst(nodes)
	if err != nil {
		return err
	}

	err = n.store.within(ctx, n.sess, func(q querier) error {
		for i := range ordered {
			if err := insertNode(ctx, q, &ordered[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	n.store.log.Debug().Int("nodes", len(nodes)).Msg("tree seeded")
	return nil
}

// CreateNode inserts a single node and returns it as stored
func (n *Nodes) CreateNode(ctx context.Context, node *domain.Node) (*domain.Node, error) {
	if err := domain.Validate(node); err != nil {
		return nil, err
	}

	var created *domain.Node
	err := n.store.within(ctx, n.sess, func(q querier) error {
		if err := insertNode(ctx, q, node); err != nil {
			return err
		}
		var err error
		created, err = queryOne[domain.Node](ctx, q, &nodeRow{},
			`SELECT `+nodeColumns+` FROM items WHERE id = ?`, node.ID)
		if err != nil {
			return fmt.Errorf("failed to reload node: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// SetParent moves a node under parentID, or makes it a root when parentID is
// nil. A move that would make the node its own ancestor fails with
// repository.ErrCycle.
func (n *Nodes) SetParent(ctx context.Context, id int64, parentID *int64) error {
	return n.store.within(ctx, n.sess, func(q querier) error {
		if parentID != nil {
			cycle, err := createsCycle(ctx, q, id, *parentID)
			if err != nil {
				return err
			}
			if cycle {
				return fmt.Errorf("node %d under %d: %w", id, *parentID, repository.ErrCycle)
			}
		}

		res, err := q.ExecContext(ctx, `UPDATE items SET parent_id = ? WHERE id = ?`, int64PtrToNull(parentID), id)
		if err != nil {
			return fmt.Errorf("failed to update node %d: %w", id, classify(err))
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update node %d: %w", id, err)
		}
		if affected == 0 {
			return fmt.Errorf("node %d: %w", id, repository.ErrNotFound)
		}
		return nil
	})
}

// GetNode retrieves a single node by ID
func (n *Nodes) GetNode(ctx context.Context, id int64) (*domain.Node, error) {
	node, err := queryOne[domain.Node](ctx, n.store.reader(n.sess), &nodeRow{},
		`SELECT `+nodeColumns+` FROM items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	return node, nil
}

// FindNode returns the first node, by id, whose column equals value
func (n *Nodes) FindNode(ctx context.Context, column string, value any) (*domain.Node, error) {
	if err := n.store.model.CheckColumn(schema.EntityNode, column); err != nil {
		return nil, err
	}
	node, err := queryOne[domain.Node](ctx, n.store.reader(n.sess), &nodeRow{},
		`SELECT `+nodeColumns+` FROM items WHERE `+column+` = ? ORDER BY id LIMIT 1`, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query node: %w", err)
	}
	return node, nil
}

// ParentOf returns the parent of a node, or nil for roots and missing nodes
func (n *Nodes) ParentOf(ctx context.Context, id int64) (*domain.Node, error) {
	parent, err := queryOne[domain.Node](ctx, n.store.reader(n.sess), &nodeRow{}, `
		SELECT parent.id, parent.content, parent.parent_id
		FROM items AS child JOIN items AS parent ON parent.id = child.parent_id
		WHERE child.id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query parent of node %d: %w", id, err)
	}
	return parent, nil
}

// ChildrenOf returns the direct children of a node ordered by id
func (n *Nodes) ChildrenOf(ctx context.Context, id int64) ([]domain.Node, error) {
	children, err := queryAll[domain.Node](ctx, n.store.reader(n.sess), func() *nodeRow { return &nodeRow{} },
		`SELECT `+nodeColumns+` FROM items WHERE parent_id = ? ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query children of node %d: %w", id, err)
	}
	return children, nil
}

// Roots returns every node without a parent ordered by id
func (n *Nodes) Roots(ctx context.Context) ([]domain.Node, error) {
	roots, err := queryAll[domain.Node](ctx, n.store.reader(n.sess), func() *nodeRow { return &nodeRow{} },
		`SELECT `+nodeColumns+` FROM items WHERE parent_id IS NULL ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query roots: %w", err)
	}
	return roots, nil
}

func insertNode(ctx context.Context, q querier, node *domain.Node) error {
	if node.ParentID != nil {
		cycle, err := createsCycle(ctx, q, node.ID, *node.ParentID)
		if err != nil {
			return err
		}
		if cycle {
			return fmt.Errorf("node %d under %d: %w", node.ID, *node.ParentID, repository.ErrCycle)
		}
	}

	_, err := q.ExecContext(ctx, `INSERT INTO items (id, content, parent_id) VALUES (?, ?, ?)`,
		node.ID, node.Content, int64PtrToNull(node.ParentID))
	if err != nil {
		return fmt.Errorf("failed to insert node %d: %w", node.ID, classify(err))
	}
	return nil
}

// createsCycle reports whether placing id under parentID would make id its
// own ancestor. The walk follows stored parent links upward from parentID;
// UNION stops it on loops already present in the table.
func createsCycle(ctx context.Context, q querier, id, parentID int64) (bool, error) {
	if id == parentID {
		return true, nil
	}
	var found bool
	err := q.QueryRowContext(ctx, `
		WITH RECURSIVE ancestors(id) AS (
			SELECT ?
			UNION
			SELECT items.parent_id FROM items JOIN ancestors ON items.id = ancestors.id
			WHERE items.parent_id IS NOT NULL
		)
		SELECT EXISTS (SELECT 1 FROM ancestors WHERE id = ?)
	`, parentID, id).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to walk ancestors of %d: %w", parentID, err)
	}
	return found, nil
}

// parentsFirst orders a batch so every node follows its parent when the
// parent is part of the batch. Relative order is otherwise kept. Parents
// outside the batch must already exist in the table. A loop inside the batch
// fails with repository.ErrCycle.
func parentsFirst(nodes []domain.Node) ([]domain.Node, error) {
	inBatch := make(map[int64]bool, len(nodes))
	for _, node := range nodes {
		if inBatch[node.ID] {
			return nil, fmt.Errorf("node %d appears twice in batch: %w", node.ID, repository.ErrUnique)
		}
		inBatch[node.ID] = true
	}

	ordered := make([]domain.Node, 0, len(nodes))
	placed := make(map[int64]bool, len(nodes))
	pending := nodes
	for len(pending) > 0 {
		var next []domain.Node
		for _, node := range pending {
			if node.ParentID == nil || !inBatch[*node.ParentID] || placed[*node.ParentID] {
				ordered = append(ordered, node)
				placed[node.ID] = true
				continue
			}
			next = append(next, node)
		}
		if len(next) == len(pending) {
			return nil, fmt.Errorf("batch nodes %v: %w", nodeIDs(next), repository.ErrCycle)
		}
		pending = next
	}
	return ordered, nil
}

func nodeIDs(nodes []domain.Node) []int64 {
	ids := make([]int64, len(nodes))
	for i, node := range nodes {
		ids[i] = node.ID
	}
	return ids
}
