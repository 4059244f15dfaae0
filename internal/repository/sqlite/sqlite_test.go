package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"relmap/internal/repository"
	"relmap/internal/schema"
)

// ============================================================================
// Test Helpers
// ============================================================================

func defaultOptions() Options {
	return Options{ForeignKeys: true, SharedConnection: true}
}

// openStore opens a store on path and closes it when the test ends
func openStore(t *testing.T, path string, s schema.Schema, opts Options) *Store {
	t.Helper()
	store, err := Open(path, schema.MustCompile(s), opts)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newUsers(t *testing.T, store *Store) *Users {
	t.Helper()
	users, err := NewUsers(store)
	require.NoError(t, err)
	return users
}

func newNodes(t *testing.T, store *Store) *Nodes {
	t.Helper()
	nodes, err := NewNodes(store)
	require.NoError(t, err)
	return nodes
}

func tempDB(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func tableNames(t *testing.T, store *Store) []string {
	t.Helper()
	rows, err := store.db.Query(`SELECT name FROM sqlite_master WHERE type IN ('table', 'index') ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	return names
}

// ============================================================================
// Null Helper Tests
// ============================================================================

func TestNullHelpers(t *testing.T) {
	s := "x"
	assert.Equal(t, sql.NullString{String: "x", Valid: true}, stringPtrToNull(&s))
	assert.Equal(t, sql.NullString{}, stringPtrToNull(nil))
	assert.Nil(t, nullToStringPtr(sql.NullString{String: "x"}))
	assert.Equal(t, "x", *nullToStringPtr(sql.NullString{String: "x", Valid: true}))

	v := int64(4)
	assert.Equal(t, sql.NullInt64{Int64: 4, Valid: true}, int64PtrToNull(&v))
	assert.Equal(t, sql.NullInt64{}, int64PtrToNull(nil))
	assert.Nil(t, nullToInt64Ptr(sql.NullInt64{Int64: 4}))
	assert.Equal(t, int64(4), *nullToInt64Ptr(sql.NullInt64{Int64: 4, Valid: true}))
}

// ============================================================================
// Store Lifecycle Tests
// ============================================================================

func TestOpenRequiresPathAndModel(t *testing.T) {
	_, err := Open("", schema.MustCompile(schema.Ownership()), defaultOptions())
	assert.Error(t, err)

	_, err = Open(tempDB(t, "x.sqlite"), nil, defaultOptions())
	assert.Error(t, err)
}

func TestOpenInMemory(t *testing.T) {
	store := openStore(t, ":memory:", schema.Ownership(), defaultOptions())
	users := newUsers(t, store)

	user, err := users.CreateUser(context.Background(), "mem")
	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
}

func TestMaterializeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t, "db1.sqlite")
	store := openStore(t, path, schema.Ownership(), defaultOptions())
	users := newUsers(t, store)

	user, err := users.CreateUser(ctx, "keep_me")
	require.NoError(t, err)
	before := tableNames(t, store)
	assert.Equal(t, []string{"items", "ix_items_owner_id", "users"}, before)

	require.NoError(t, store.Materialize(ctx))
	require.NoError(t, store.Materialize(ctx))
	assert.Equal(t, before, tableNames(t, store))

	// A second handle on the same file materializes again on open
	again := openStore(t, path, schema.Ownership(), defaultOptions())
	got, err := newUsers(t, again).GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "keep_me", got.Name)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t, "db1.sqlite")

	store, err := Open(path, schema.MustCompile(schema.Ownership()), defaultOptions())
	require.NoError(t, err)
	users, err := NewUsers(store)
	require.NoError(t, err)
	_, err = users.CreateUser(ctx, "stale")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	require.NoError(t, Reset(path))
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	// Missing files are fine
	require.NoError(t, Reset(path))
	require.NoError(t, Reset(":memory:"))

	fresh := openStore(t, path, schema.Ownership(), defaultOptions())
	got, err := newUsers(t, fresh).FindUser(ctx, "name", "stale")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRepositoryNeedsMatchingSchema(t *testing.T) {
	tree := openStore(t, tempDB(t, "tree.sqlite"), schema.Tree(), defaultOptions())
	_, err := NewUsers(tree)
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)

	owners := openStore(t, tempDB(t, "owners.sqlite"), schema.Ownership(), defaultOptions())
	_, err = NewNodes(owners)
	assert.ErrorIs(t, err, schema.ErrUnknownEntity)
}

// ============================================================================
// Session Tests
// ============================================================================

func TestWithSessionRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, tempDB(t, "db1.sqlite"), schema.Ownership(), defaultOptions())
	users := newUsers(t, store)

	err := store.WithSession(ctx, func(sess *Session) error {
		bound := users.In(sess)
		user, err := bound.CreateUser(ctx, "partial")
		if err != nil {
			return err
		}
		_, err = bound.CreateItem(ctx, nil, user.ID+100)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrForeignKey)

	got, err := users.FindUser(ctx, "name", "partial")
	require.NoError(t, err)
	assert.Nil(t, got, "user insert must be rolled back with the failed item")
}

func TestWithSessionRollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	store := openStore(t, tempDB(t, "db1.sqlite"), schema.Ownership(), defaultOptions())
	users := newUsers(t, store)

	assert.Panics(t, func() {
		store.WithSession(ctx, func(sess *Session) error {
			if _, err := users.In(sess).CreateUser(ctx, "doomed"); err != nil {
				return err
			}
			panic("boom")
		})
	})

	got, err := users.FindUser(ctx, "name", "doomed")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionWritesInvisibleUntilCommit(t *testing.T) {
	ctx := context.Background()
	path := tempDB(t, "db1.sqlite")
	writer := openStore(t, path, schema.Ownership(), defaultOptions())
	reader := newUsers(t, openStore(t, path, schema.Ownership(), defaultOptions()))

	sess, err := writer.Begin(ctx)
	require.NoError(t, err)
	user, err := newUsers(t, writer).In(sess).CreateUser(ctx, "pending")
	require.NoError(t, err)

	got, err := reader.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, sess.Commit())
	require.NoError(t, sess.Rollback(), "rollback after commit is a no-op")

	got, err = reader.GetUser(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pending", got.Name)
}
