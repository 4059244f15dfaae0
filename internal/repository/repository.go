package repository

import (
	"context"

	"relmap/internal/domain"
)

// Ownership defines data access for users and their items
type Ownership interface {
	// Write operations. Each call commits on its own unless the
	// implementation is bound to a session.
	CreateUser(ctx context.Context, name string) (*domain.User, error)
	CreateItem(ctx context.Context, content *string, ownerID int64) (*domain.Item, error)
	DeleteUser(ctx context.Context, id int64) error

	// Read operations
	GetUser(ctx context.Context, id int64) (*domain.User, error)
	FindUser(ctx context.Context, column string, value any) (*domain.User, error)
	GetItem(ctx context.Context, id int64) (*domain.Item, error)

	// Navigation
	ItemsOf(ctx context.Context, userID int64) ([]domain.Item, error)
	OwnerOf(ctx context.Context, itemID int64) (*domain.User, error)
}

// Tree defines data access for the self-referential node table
type Tree interface {
	// Write operations
	Seed(ctx context.Context, nodes []domain.Node) error
	CreateNode(ctx context.Context, node *domain.Node) (*domain.Node, error)
	SetParent(ctx context.Context, id int64, parentID *int64) error

	// Read operations
	GetNode(ctx context.Context, id int64) (*domain.Node, error)
	FindNode(ctx context.Context, column string, value any) (*domain.Node, error)

	// Navigation
	ParentOf(ctx context.Context, id int64) (*domain.Node, error)
	ChildrenOf(ctx context.Context, id int64) ([]domain.Node, error)
	Roots(ctx context.Context) ([]domain.Node, error)
}
