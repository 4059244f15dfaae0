package schema

// Entity names used by the repositories
const (
	EntityUser = "User"
	EntityItem = "Item"
	EntityNode = "Item"
)

// Ownership declares users owning items. Deleting a user deletes its items.
func Ownership() Schema {
	return Schema{
		Name: "ownership",
		Entities: []Entity{
			{
				Name:  EntityUser,
				Table: "users",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoAssigned: true},
					{Name: "name", Type: TypeText, NotNull: true},
				},
				Relationships: []Relationship{
					{Name: "items", Target: EntityItem, BackPopulates: "owner", Cascade: CascadeDeleteOrphan},
				},
			},
			{
				Name:  EntityItem,
				Table: "items",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, PrimaryKey: true, AutoAssigned: true},
					{Name: "content", Type: TypeText},
					{Name: "owner_id", Type: TypeInteger, Index: true, References: &ForeignKey{Table: "users", Column: "id"}},
				},
				Relationships: []Relationship{
					{Name: "owner", Target: EntityUser, BackPopulates: "items"},
				},
			},
		},
	}
}

// Tree declares a single self-referential table. The parent side carries
// RemoteSide so the two directions can be told apart.
func Tree() Schema {
	return Schema{
		Name: "tree",
		Entities: []Entity{
			{
				Name:  EntityNode,
				Table: "items",
				Columns: []Column{
					{Name: "id", Type: TypeInteger, PrimaryKey: true},
					{Name: "content", Type: TypeText, NotNull: true},
					{Name: "parent_id", Type: TypeInteger, Index: true, References: &ForeignKey{Table: "items", Column: "id"}},
				},
				Relationships: []Relationship{
					{Name: "parent", Target: EntityNode, BackPopulates: "children", RemoteSide: "id"},
					{Name: "children", Target: EntityNode, BackPopulates: "parent"},
				},
			},
		},
	}
}
