package schema

import (
	"fmt"
	"strings"
)

// Link is a relationship after compilation
type Link struct {
	Entity    string
	Name      string
	Target    string
	Direction Direction
	Cascade   Cascade
	// FKTable and FKColumn locate the foreign key that drives the link. For
	// one-to-many it lives on the target, for many-to-one on the entity.
	FKTable  string
	FKColumn string
}

// Model is a compiled, consistent schema
type Model struct {
	name     string
	entities []*Entity
	byName   map[string]*Entity
	byTable  map[string]*Entity
	links    map[string][]Link
}

// Compile validates the declaration and resolves every relationship
func Compile(s Schema) (*Model, error) {
	m := &Model{
		name:    s.Name,
		byName:  make(map[string]*Entity),
		byTable: make(map[string]*Entity),
		links:   make(map[string][]Link),
	}

	for i := range s.Entities {
		e := &s.Entities[i]
		if _, dup := m.byName[e.Name]; dup {
			return nil, fmt.Errorf("entity %s: %w", e.Name, ErrDuplicate)
		}
		if _, dup := m.byTable[e.Table]; dup {
			return nil, fmt.Errorf("table %s: %w", e.Table, ErrDuplicate)
		}
		if err := checkColumns(e); err != nil {
			return nil, err
		}
		m.entities = append(m.entities, e)
		m.byName[e.Name] = e
		m.byTable[e.Table] = e
	}

	for _, e := range m.entities {
		if err := m.checkReferences(e); err != nil {
			return nil, err
		}
	}

	for _, e := range m.entities {
		for _, r := range e.Relationships {
			link, err := m.resolve(e, r)
			if err != nil {
				return nil, err
			}
			m.links[e.Name] = append(m.links[e.Name], link)
		}
	}

	for _, e := range m.entities {
		for _, r := range e.Relationships {
			if err := m.checkBackReference(e, r); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// MustCompile is Compile for the built-in catalog
func MustCompile(s Schema) *Model {
	m, err := Compile(s)
	if err != nil {
		panic(err)
	}
	return m
}

func checkColumns(e *Entity) error {
	seen := make(map[string]bool, len(e.Columns))
	pks := 0
	for _, c := range e.Columns {
		if seen[c.Name] {
			return fmt.Errorf("column %s.%s: %w", e.Table, c.Name, ErrDuplicate)
		}
		seen[c.Name] = true
		if c.PrimaryKey {
			pks++
		}
	}
	if pks != 1 {
		return fmt.Errorf("entity %s has %d primary key columns: %w", e.Name, pks, ErrNoPrimaryKey)
	}
	return nil
}

func (m *Model) checkReferences(e *Entity) error {
	for _, c := range e.Columns {
		if c.References == nil {
			continue
		}
		target, ok := m.byTable[c.References.Table]
		if !ok {
			return fmt.Errorf("%s.%s references table %s: %w", e.Table, c.Name, c.References.Table, ErrUnknownEntity)
		}
		if _, ok := target.Column(c.References.Column); !ok {
			return fmt.Errorf("%s.%s references %s.%s: %w", e.Table, c.Name, c.References.Table, c.References.Column, ErrUnknownColumn)
		}
	}
	return nil
}

func (m *Model) resolve(e *Entity, r Relationship) (Link, error) {
	target, ok := m.byName[r.Target]
	if !ok {
		return Link{}, fmt.Errorf("%s.%s targets %s: %w", e.Name, r.Name, r.Target, ErrUnknownEntity)
	}

	link := Link{
		Entity:  e.Name,
		Name:    r.Name,
		Target:  target.Name,
		Cascade: r.Cascade,
	}

	if target == e {
		fks := e.foreignKeysTo(e.Table)
		if len(fks) == 0 {
			return Link{}, fmt.Errorf("%s.%s: %w", e.Name, r.Name, ErrNoForeignKey)
		}
		if len(fks) > 1 {
			return Link{}, fmt.Errorf("%s.%s: %d self-referencing columns: %w", e.Name, r.Name, len(fks), ErrAmbiguousRelationship)
		}
		fk := fks[0]
		link.FKTable, link.FKColumn = e.Table, fk.Name
		switch r.RemoteSide {
		case "":
			link.Direction = OneToMany
		case fk.References.Column:
			link.Direction = ManyToOne
		default:
			return Link{}, fmt.Errorf("%s.%s remote side %q is not %s: %w", e.Name, r.Name, r.RemoteSide, fk.References.Column, ErrAmbiguousRelationship)
		}
	} else {
		own := e.foreignKeysTo(target.Table)
		remote := target.foreignKeysTo(e.Table)
		switch {
		case len(own) == 1 && len(remote) == 0:
			link.Direction = ManyToOne
			link.FKTable, link.FKColumn = e.Table, own[0].Name
		case len(own) == 0 && len(remote) == 1:
			link.Direction = OneToMany
			link.FKTable, link.FKColumn = target.Table, remote[0].Name
		case len(own) == 0 && len(remote) == 0:
			return Link{}, fmt.Errorf("%s.%s: %w", e.Name, r.Name, ErrNoForeignKey)
		default:
			return Link{}, fmt.Errorf("%s.%s: several foreign keys between %s and %s: %w", e.Name, r.Name, e.Table, target.Table, ErrAmbiguousRelationship)
		}
	}

	if r.Cascade == CascadeDeleteOrphan && link.Direction != OneToMany {
		return Link{}, fmt.Errorf("%s.%s: delete-orphan on the %s side: %w", e.Name, r.Name, link.Direction, ErrInvalidCascade)
	}

	return link, nil
}

func (m *Model) checkBackReference(e *Entity, r Relationship) error {
	if r.BackPopulates == "" {
		return fmt.Errorf("%s.%s declares no back_populates: %w", e.Name, r.Name, ErrMissingBackReference)
	}
	target := m.byName[r.Target]
	inverse, ok := target.Relationship(r.BackPopulates)
	if !ok {
		return fmt.Errorf("%s.%s: %s has no relationship %q: %w", e.Name, r.Name, target.Name, r.BackPopulates, ErrMissingBackReference)
	}
	if inverse.Target != e.Name || inverse.BackPopulates != r.Name {
		return fmt.Errorf("%s.%s: %s.%s does not point back: %w", e.Name, r.Name, target.Name, inverse.Name, ErrMissingBackReference)
	}

	link, _ := m.Link(e.Name, r.Name)
	back, _ := m.Link(target.Name, inverse.Name)
	if link.Direction == back.Direction {
		return fmt.Errorf("%s.%s and %s.%s are both %s: %w", e.Name, r.Name, target.Name, inverse.Name, link.Direction, ErrAmbiguousRelationship)
	}
	if link.FKTable != back.FKTable || link.FKColumn != back.FKColumn {
		return fmt.Errorf("%s.%s and %s.%s use different foreign keys: %w", e.Name, r.Name, target.Name, inverse.Name, ErrAmbiguousRelationship)
	}
	return nil
}

// Name of the schema
func (m *Model) Name() string {
	return m.name
}

// Entities in declaration order
func (m *Model) Entities() []*Entity {
	return m.entities
}

// Entity looks an entity up by name
func (m *Model) Entity(name string) (*Entity, bool) {
	e, ok := m.byName[name]
	return e, ok
}

// Links returns the resolved relationships of an entity
func (m *Model) Links(entity string) []Link {
	return m.links[entity]
}

// Link returns one resolved relationship
func (m *Model) Link(entity, name string) (Link, bool) {
	for _, l := range m.links[entity] {
		if l.Name == name {
			return l, true
		}
	}
	return Link{}, false
}

// CascadeLinks returns the one-to-many links whose dependents are deleted
// together with a row of entity
func (m *Model) CascadeLinks(entity string) []Link {
	var out []Link
	for _, l := range m.links[entity] {
		if l.Direction == OneToMany && l.Cascade == CascadeDeleteOrphan {
			out = append(out, l)
		}
	}
	return out
}

// CheckColumn fails unless entity declares column. Used to guard
// caller-supplied column names before they reach SQL.
func (m *Model) CheckColumn(entity, column string) error {
	e, ok := m.byName[entity]
	if !ok {
		return fmt.Errorf("entity %s: %w", entity, ErrUnknownEntity)
	}
	if _, ok := e.Column(column); !ok {
		return fmt.Errorf("%s has no column %q: %w", e.Table, column, ErrUnknownColumn)
	}
	return nil
}

// DDL renders idempotent CREATE statements for every entity
func (m *Model) DDL() []string {
	var stmts []string
	for _, e := range m.entities {
		stmts = append(stmts, createTable(e))
		for _, c := range e.Columns {
			if c.Index && !c.PrimaryKey {
				stmts = append(stmts, fmt.Sprintf(
					"CREATE INDEX IF NOT EXISTS ix_%s_%s ON %s (%s)",
					e.Table, c.Name, e.Table, c.Name))
			}
		}
	}
	return stmts
}

func createTable(e *Entity) string {
	var defs []string
	for _, c := range e.Columns {
		def := c.Name + " " + string(c.Type)
		if c.PrimaryKey {
			def += " PRIMARY KEY"
		} else if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
	}
	for _, c := range e.Columns {
		if c.References != nil {
			defs = append(defs, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
				c.Name, c.References.Table, c.References.Column))
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", e.Table, strings.Join(defs, ",\n\t"))
}
