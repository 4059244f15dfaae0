// Package repository defines the data access interfaces for relmap.
//
// This package provides the repository abstraction for the two mapped models
// and the error taxonomy shared by implementations. The implementation is in
// the sqlite subpackage.
//
// # Interfaces
//
// Ownership covers users and the items they own, including the cascading
// delete of a user's items. Tree covers the self-referential node table.
//
// # Navigation
//
// Relationships are read with explicit calls (ItemsOf, ParentOf, ChildrenOf).
// Every call reads the store at that moment and returns a snapshot; nothing
// is cached between calls, so separate handles always agree on committed
// data.
//
// # Lookups
//
// Point and filtered lookups return (nil, nil) when no row matches. Callers
// must check for nil before dereferencing.
//
// # Errors
//
// Constraint violations are reported as ErrForeignKey, ErrNotNull or
// ErrUnique. Invalid entities fail with domain.ErrValidation before reaching
// the store. Tree mutations that would close a loop fail with ErrCycle.
package repository
