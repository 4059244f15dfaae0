// Package domain defines the entity types persisted by relmap.
//
// The package holds two small models that live in separate databases:
//
// # Ownership
//
// User owns a collection of Item rows through Item.OwnerID. Deleting a User
// removes every Item it owns.
//
// # Tree
//
// Node is a self-referential row: ParentID points at another Node in the same
// table, so the rows form a forest. Relationships are never embedded in the
// structs; they are read explicitly through the repository and returned as
// snapshots.
//
// # Validation
//
// Entities carry go-playground/validator tags. Validate reports failures as
// *ValidationError, which matches ErrValidation with errors.Is.
//
// The package has no database or external dependencies beyond the validator.
package domain
