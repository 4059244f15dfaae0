package domain

import "fmt"

// User owns zero or more items.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name" validate:"required"`
}

// NewUser creates an unsaved user
func NewUser(name string) *User {
	return &User{Name: name}
}

// String renders the user the way the demos print it
func (u *User) String() string {
	if u == nil {
		return "<nil>"
	}
	return fmt.Sprintf("User(%d, %s)", u.ID, u.Name)
}

// Item is owned by at most one user. Content and OwnerID are nullable.
type Item struct {
	ID      int64   `json:"id"`
	Content *string `json:"content"`
	OwnerID *int64  `json:"owner_id"`
}

// NewItem creates an unsaved item bound to ownerID
func NewItem(content *string, ownerID int64) *Item {
	return &Item{Content: content, OwnerID: &ownerID}
}

// ContentString returns the content or an empty string when it is NULL
func (i *Item) ContentString() string {
	if i.Content == nil {
		return ""
	}
	return *i.Content
}

// OwnedBy reports whether the item references userID
func (i *Item) OwnedBy(userID int64) bool {
	return i.OwnerID != nil && *i.OwnerID == userID
}

func (i *Item) String() string {
	if i == nil {
		return "<nil>"
	}
	owner := "None"
	if i.OwnerID != nil {
		owner = fmt.Sprintf("%d", *i.OwnerID)
	}
	return fmt.Sprintf("Item(%d, %s, owner=%s)", i.ID, i.ContentString(), owner)
}

// StringPtr is a convenience for nullable string fields
func StringPtr(s string) *string {
	return &s
}
