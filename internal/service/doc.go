// Package service drives the two relmap flows on top of the repositories.
//
// # Services
//
// OwnershipService creates a user and an item, re-reads the user's items
// through explicit navigation, then deletes the user from a second,
// independent session so the cascade removes the item.
//
// TreeService seeds the self-referential tree in one transaction and prints
// each root with its parent and children.
//
// # Event System
//
// Mutations publish events on an EventBus. Subscribers that fall behind
// miss events rather than block the flow.
package service
