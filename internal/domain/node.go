package domain

import "fmt"

// Node is one row of the self-referential tree table. The ID is assigned by
// the caller; a nil ParentID marks a root.
type Node struct {
	ID       int64  `json:"id" yaml:"id" validate:"gt=0"`
	Content  string `json:"content" yaml:"content" validate:"required"`
	ParentID *int64 `json:"parent_id" yaml:"parent_id" validate:"omitempty,gt=0"`
}

// NewNode creates a root node
func NewNode(id int64, content string) *Node {
	return &Node{ID: id, Content: content}
}

// NewChild creates a node under parentID
func NewChild(id int64, content string, parentID int64) *Node {
	return &Node{ID: id, Content: content, ParentID: &parentID}
}

// IsRoot reports whether the node has no parent
func (n *Node) IsRoot() bool {
	return n.ParentID == nil
}

// ChildOf reports whether the node's parent is parentID
func (n *Node) ChildOf(parentID int64) bool {
	return n.ParentID != nil && *n.ParentID == parentID
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return fmt.Sprintf("Node(%d)", n.ID)
}
