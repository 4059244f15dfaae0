package schema

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileOwnership(t *testing.T) {
	m, err := Compile(Ownership())
	require.NoError(t, err)

	items, ok := m.Link(EntityUser, "items")
	require.True(t, ok)
	assert.Equal(t, OneToMany, items.Direction)
	assert.Equal(t, "items", items.FKTable)
	assert.Equal(t, "owner_id", items.FKColumn)
	assert.Equal(t, CascadeDeleteOrphan, items.Cascade)

	owner, ok := m.Link(EntityItem, "owner")
	require.True(t, ok)
	assert.Equal(t, ManyToOne, owner.Direction)
	assert.Equal(t, "owner_id", owner.FKColumn)

	cascades := m.CascadeLinks(EntityUser)
	require.Len(t, cascades, 1)
	assert.Equal(t, "items", cascades[0].Name)
	assert.Empty(t, m.CascadeLinks(EntityItem))

	require.Len(t, m.Entities(), 2)
	assert.Equal(t, "users", m.Entities()[0].Table)
	assert.Len(t, m.Links(EntityItem), 1)
}

func TestCompileTree(t *testing.T) {
	m, err := Compile(Tree())
	require.NoError(t, err)

	parent, ok := m.Link(EntityNode, "parent")
	require.True(t, ok)
	assert.Equal(t, ManyToOne, parent.Direction)
	assert.Equal(t, "parent_id", parent.FKColumn)

	children, ok := m.Link(EntityNode, "children")
	require.True(t, ok)
	assert.Equal(t, OneToMany, children.Direction)
	assert.Equal(t, "parent_id", children.FKColumn)

	assert.Empty(t, m.CascadeLinks(EntityNode))
}

func TestCompileConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Schema)
		want   error
	}{
		{
			name: "inverse relationship missing",
			mutate: func(s *Schema) {
				s.Entities[1].Relationships = nil
			},
			want: ErrMissingBackReference,
		},
		{
			name: "back_populates not set",
			mutate: func(s *Schema) {
				s.Entities[0].Relationships[0].BackPopulates = ""
			},
			want: ErrMissingBackReference,
		},
		{
			name: "inverse points elsewhere",
			mutate: func(s *Schema) {
				s.Entities[1].Relationships[0].BackPopulates = "things"
			},
			want: ErrMissingBackReference,
		},
		{
			name: "unknown target",
			mutate: func(s *Schema) {
				s.Entities[0].Relationships[0].Target = "Widget"
			},
			want: ErrUnknownEntity,
		},
		{
			name: "cascade on the many-to-one side",
			mutate: func(s *Schema) {
				s.Entities[1].Relationships[0].Cascade = CascadeDeleteOrphan
			},
			want: ErrInvalidCascade,
		},
		{
			name: "no foreign key",
			mutate: func(s *Schema) {
				s.Entities[1].Columns[2].References = nil
			},
			want: ErrNoForeignKey,
		},
		{
			name: "foreign key to unknown column",
			mutate: func(s *Schema) {
				s.Entities[1].Columns[2].References = &ForeignKey{Table: "users", Column: "uid"}
			},
			want: ErrUnknownColumn,
		},
		{
			name: "duplicate table",
			mutate: func(s *Schema) {
				s.Entities[1].Table = "users"
			},
			want: ErrDuplicate,
		},
		{
			name: "missing primary key",
			mutate: func(s *Schema) {
				s.Entities[0].Columns[0].PrimaryKey = false
			},
			want: ErrNoPrimaryKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Ownership()
			tt.mutate(&s)
			_, err := Compile(s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
			assert.True(t, errors.Is(err, ErrConfig))
		})
	}
}

func TestCompileSelfReferenceNeedsRemoteSide(t *testing.T) {
	s := Tree()
	s.Entities[0].Relationships[0].RemoteSide = ""

	_, err := Compile(s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousRelationship)

	s = Tree()
	s.Entities[0].Relationships[0].RemoteSide = "content"
	_, err = Compile(s)
	assert.ErrorIs(t, err, ErrAmbiguousRelationship)
}

func TestMustCompilePanics(t *testing.T) {
	s := Tree()
	s.Entities[0].Relationships = s.Entities[0].Relationships[:1]
	assert.Panics(t, func() { MustCompile(s) })
	assert.NotPanics(t, func() { MustCompile(Tree()) })
}

func TestCheckColumn(t *testing.T) {
	m := MustCompile(Ownership())

	assert.NoError(t, m.CheckColumn(EntityUser, "name"))
	assert.ErrorIs(t, m.CheckColumn(EntityUser, "name; DROP TABLE users"), ErrUnknownColumn)
	assert.ErrorIs(t, m.CheckColumn("Widget", "id"), ErrUnknownEntity)
}

func TestDDL(t *testing.T) {
	stmts := MustCompile(Ownership()).DDL()
	require.Len(t, stmts, 3)

	assert.Equal(t, "CREATE TABLE IF NOT EXISTS users (\n\tid INTEGER PRIMARY KEY,\n\tname TEXT NOT NULL\n)", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TABLE IF NOT EXISTS items")
	assert.Contains(t, stmts[1], "FOREIGN KEY (owner_id) REFERENCES users (id)")
	assert.Equal(t, "CREATE INDEX IF NOT EXISTS ix_items_owner_id ON items (owner_id)", stmts[2])

	for _, stmt := range stmts {
		assert.NotContains(t, strings.ToUpper(stmt), "ON DELETE")
	}

	tree := MustCompile(Tree()).DDL()
	require.Len(t, tree, 2)
	assert.Contains(t, tree[0], "content TEXT NOT NULL")
	assert.Contains(t, tree[0], "FOREIGN KEY (parent_id) REFERENCES items (id)")
}
