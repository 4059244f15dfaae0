// Package schema declares entity shapes and the relationships between them.
//
// A Schema is plain data: entities, their columns, and named relationships
// that point at another entity and name the inverse relationship on it
// (BackPopulates). Compile checks the declaration and resolves every
// relationship to a Link with a direction and the foreign-key column that
// drives it. Configuration mistakes, such as a relationship whose inverse is
// missing, fail at compile time with an error wrapping ErrConfig.
//
// Cascade rules are metadata only. The storage layer reads them from the
// compiled Model and performs the cascade itself; DDL never carries
// ON DELETE clauses.
package schema

// ColumnType is the storage type of a column
type ColumnType string

const (
	TypeInteger ColumnType = "INTEGER"
	TypeText    ColumnType = "TEXT"
)

// Cascade controls what happens to dependents when the owning row is deleted
type Cascade string

const (
	CascadeNone Cascade = ""
	// CascadeDeleteOrphan deletes dependents together with their owner
	CascadeDeleteOrphan Cascade = "all, delete-orphan"
)

// Direction of a resolved relationship
type Direction string

const (
	OneToMany Direction = "one-to-many"
	ManyToOne Direction = "many-to-one"
)

// ForeignKey points a column at table.column
type ForeignKey struct {
	Table  string
	Column string
}

// Column describes one column of an entity table
type Column struct {
	Name       string
	Type       ColumnType
	PrimaryKey bool
	// AutoAssigned primary keys are omitted from inserts and filled by the store
	AutoAssigned bool
	NotNull      bool
	Index        bool
	References   *ForeignKey
}

// Relationship is one side of a bidirectional association
type Relationship struct {
	Name          string
	Target        string
	BackPopulates string
	Cascade       Cascade
	// RemoteSide names the target column the foreign key refers to. Only
	// needed for self-referential relationships, where it marks the
	// many-to-one (parent) side.
	RemoteSide string
}

// Entity is a mapped table
type Entity struct {
	Name          string
	Table         string
	Columns       []Column
	Relationships []Relationship
}

// Schema is the full declaration for one database
type Schema struct {
	Name     string
	Entities []Entity
}

// PrimaryKey returns the primary key column, if declared
func (e *Entity) PrimaryKey() (Column, bool) {
	for _, c := range e.Columns {
		if c.PrimaryKey {
			return c, true
		}
	}
	return Column{}, false
}

// Column looks a column up by name
func (e *Entity) Column(name string) (Column, bool) {
	for _, c := range e.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Relationship looks a relationship up by name
func (e *Entity) Relationship(name string) (Relationship, bool) {
	for _, r := range e.Relationships {
		if r.Name == name {
			return r, true
		}
	}
	return Relationship{}, false
}

// foreignKeysTo returns the columns of e that reference table
func (e *Entity) foreignKeysTo(table string) []Column {
	var cols []Column
	for _, c := range e.Columns {
		if c.References != nil && c.References.Table == table {
			cols = append(cols, c)
		}
	}
	return cols
}
