package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"relmap/internal/domain"
	"relmap/internal/repository/sqlite"
)

// TreeService runs the self-referential tree flow
type TreeService struct {
	nodes    *sqlite.Nodes
	eventBus *EventBus
}

// NewTreeService creates a new tree service
func NewTreeService(store *sqlite.Store, eventBus *EventBus) (*TreeService, error) {
	nodes, err := sqlite.NewNodes(store)
	if err != nil {
		return nil, err
	}
	return &TreeService{
		nodes:    nodes,
		eventBus: eventBus,
	}, nil
}

// Seed inserts the batch in one transaction and publishes EventNodesSeeded
func (s *TreeService) Seed(ctx context.Context, seed []domain.Node) error {
	if err := s.nodes.Seed(ctx, seed); err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventNodesSeeded,
		Payload: map[string]any{"count": len(seed)},
	})
	return nil
}

// Describe renders a node with its parent and children, or "" when the node
// does not exist
func (s *TreeService) Describe(ctx context.Context, id int64) (string, error) {
	node, err := s.nodes.FindNode(ctx, "id", id)
	if err != nil {
		return "", err
	}
	if node == nil {
		return "", nil
	}

	parent, err := s.nodes.ParentOf(ctx, node.ID)
	if err != nil {
		return "", err
	}
	children, err := s.nodes.ChildrenOf(ctx, node.ID)
	if err != nil {
		return "", err
	}

	parentText := "None"
	if parent != nil {
		parentText = parent.String()
	}
	return fmt.Sprintf("Item %d %s %s %s", node.ID, node.Content, parentText, formatNodes(children)), nil
}

// Run seeds the tree and prints every root
func (s *TreeService) Run(ctx context.Context, w io.Writer, seed []domain.Node) error {
	if err := s.Seed(ctx, seed); err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	roots, err := s.nodes.Roots(ctx)
	if err != nil {
		return err
	}
	for _, root := range roots {
		line, err := s.Describe(ctx, root.ID)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

func formatNodes(nodes []domain.Node) string {
	parts := make([]string, len(nodes))
	for i := range nodes {
		parts[i] = nodes[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
