package sqlite

import (
	"context"
	"fmt"

	"relmap/internal/domain"
	"relmap/internal/repository"
	"relmap/internal/schema"
)

// Users implements repository.Ownership
type Users struct {
	store *Store
	sess  *Session
}

var _ repository.Ownership = (*Users)(nil)

// NewUsers returns the ownership repository of a store opened with
// schema.Ownership
func NewUsers(store *Store) (*Users, error) {
	if _, ok := store.model.Link(schema.EntityUser, "items"); !ok {
		return nil, fmt.Errorf("schema %s does not map users to items: %w", store.model.Name(), schema.ErrUnknownEntity)
	}
	return &Users{store: store}, nil
}

// In binds the repository to a session. Writes join the session
// transaction instead of committing on their own.
func (u *Users) In(sess *Session) *Users {
	return &Users{store: u.store, sess: sess}
}

// CreateUser inserts a user and returns it with its assigned id
func (u *Users) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	user := domain.NewUser(name)
	if err := domain.Validate(user); err != nil {
		return nil, err
	}

	var created *domain.User
	err := u.store.within(ctx, u.sess, func(q querier) error {
		res, err := q.ExecContext(ctx, `INSERT INTO users (name) VALUES (?)`, user.Name)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read user id: %w", err)
		}

		created, err = queryOne[domain.User](ctx, q, &userRow{},
			`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to reload user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.store.log.Debug().Int64("user_id", created.ID).Msg("user created")
	return created, nil
}

// CreateItem inserts an item owned by ownerID
func (u *Users) CreateItem(ctx context.Context, content *string, ownerID int64) (*domain.Item, error) {
	item := domain.NewItem(content, ownerID)
	if err := domain.Validate(item); err != nil {
		return nil, err
	}

	var created *domain.Item
	err := u.store.within(ctx, u.sess, func(q querier) error {
		res, err := q.ExecContext(ctx, `INSERT INTO items (content, owner_id) VALUES (?, ?)`,
			stringPtrToNull(item.Content), int64PtrToNull(item.OwnerID))
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", classify(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read item id: %w", err)
		}

		created, err = queryOne[domain.Item](ctx, q, &itemRow{},
			`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to reload item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	u.store.log.Debug().Int64("item_id", created.ID).Int64("owner_id", ownerID).Msg("item created")
	return created, nil
}

// DeleteUser removes a user and every item it owns in one transaction
func (u *Users) DeleteUser(ctx context.Context, id int64) error {
	return u.store.within(ctx, u.sess, func(q querier) error {
		found, err := u.store.deleteRow(ctx, q, schema.EntityUser, id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("user %d: %w", id, repository.ErrNotFound)
		}
		return nil
	})
}

// GetUser retrieves a single user by ID
func (u *Users) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := queryOne[domain.User](ctx, u.store.reader(u.sess), &userRow{},
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// FindUser returns the first user, by id, whose column equals value
func (u *Users) FindUser(ctx context.Context, column string, value any) (*domain.User, error) {
	if err := u.store.model.CheckColumn(schema.EntityUser, column); err != nil {
		return nil, err
	}
	user, err := queryOne[domain.User](ctx, u.store.reader(u.sess), &userRow{},
		`SELECT `+userColumns+` FROM users WHERE `+column+` = ? ORDER BY id LIMIT 1`, value)
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return user, nil
}

// GetItem retrieves a single item by ID
func (u *Users) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := queryOne[domain.Item](ctx, u.store.reader(u.sess), &itemRow{},
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query item: %w", err)
	}
	return item, nil
}

// ItemsOf returns the items owned by userID in insertion order
func (u *Users) ItemsOf(ctx context.Context, userID int64) ([]domain.Item, error) {
	items, err := queryAll[domain.Item](ctx, u.store.reader(u.sess), func() *itemRow { return &itemRow{} },
		`SELECT `+itemColumns+` FROM items WHERE owner_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query items of user %d: %w", userID, err)
	}
	return items, nil
}

// OwnerOf returns the owner of an item, or nil when the item is missing or
// has no owner
func (u *Users) OwnerOf(ctx context.Context, itemID int64) (*domain.User, error) {
	user, err := queryOne[domain.User](ctx, u.store.reader(u.sess), &userRow{}, `
		SELECT users.id, users.name
		FROM items JOIN users ON users.id = items.owner_id
		WHERE items.id = ?
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query owner of item %d: %w", itemID, err)
	}
	return user, nil
}
