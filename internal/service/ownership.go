package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"relmap/internal/domain"
	"relmap/internal/repository"
	"relmap/internal/repository/sqlite"
)

// OwnershipService runs the users/items flow
type OwnershipService struct {
	store    *sqlite.Store
	users    *sqlite.Users
	eventBus *EventBus
}

// NewOwnershipService creates a new ownership service
func NewOwnershipService(store *sqlite.Store, eventBus *EventBus) (*OwnershipService, error) {
	users, err := sqlite.NewUsers(store)
	if err != nil {
		return nil, err
	}
	return &OwnershipService{
		store:    store,
		users:    users,
		eventBus: eventBus,
	}, nil
}

// CreateUser creates a user and publishes EventUserCreated
func (s *OwnershipService) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	user, err := s.users.CreateUser(ctx, name)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventUserCreated,
		Payload: map[string]any{"user_id": user.ID, "name": user.Name},
	})
	return user, nil
}

// CreateItem creates an item for ownerID and publishes EventItemCreated
func (s *OwnershipService) CreateItem(ctx context.Context, content string, ownerID int64) (*domain.Item, error) {
	item, err := s.users.CreateItem(ctx, domain.StringPtr(content), ownerID)
	if err != nil {
		return nil, err
	}

	s.eventBus.Publish(Event{
		Type:    EventItemCreated,
		Payload: map[string]any{"item_id": item.ID, "owner_id": ownerID},
	})
	return item, nil
}

// DeleteUser looks the user up and deletes it, with its items, inside a
// session of its own
func (s *OwnershipService) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.WithSession(ctx, func(sess *sqlite.Session) error {
		users := s.users.In(sess)
		user, err := users.FindUser(ctx, "id", id)
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
		}
		return users.DeleteUser(ctx, user.ID)
	})
	if err != nil {
		return err
	}

	s.eventBus.Publish(Event{
		Type:    EventUserDeleted,
		Payload: map[string]any{"user_id": id},
	})
	return nil
}

// Run creates test_user and test_item, prints them as it goes, then
// deletes the user
func (s *OwnershipService) Run(ctx context.Context, w io.Writer) error {
	user, err := s.CreateUser(ctx, "test_user")
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	items, err := s.users.ItemsOf(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "User", user.ID, user.Name, formatItems(items))

	item, err := s.CreateItem(ctx, "test_item", user.ID)
	if err != nil {
		return fmt.Errorf("create item: %w", err)
	}
	fmt.Fprintln(w, "Item", item.ID, item.ContentString(), *item.OwnerID)

	items, err = s.users.ItemsOf(ctx, user.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "User", user.ID, user.Name, len(items))

	if err := s.DeleteUser(ctx, user.ID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

func formatItems(items []domain.Item) string {
	parts := make([]string, len(items))
	for i := range items {
		parts[i] = items[i].String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
