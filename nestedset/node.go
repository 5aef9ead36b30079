package nestedset

import (
	"github.com/google/uuid"
)

// Node is one entry in a rooted forest. The forest owns the parent/child
// relation; a node only records the identity of its parent. All structure
// queries are answered from Partition, Left and Right without touching the
// parent pointer, which is retained so that derived ancestry can be checked
// against it.
type Node struct {
	ID        uuid.UUID
	Parent    uuid.UUID // uuid.Nil for partition roots
	Partition int64
	Depth     int64 // root is 0, child is parent + 1
	Left      int64 // 1-based preorder entry
	Right     int64 // preorder exit, always > Left
}

// Width is the boundary span of the node's subtree, right - left + 1. It is
// always even and Width/2 is the node count of the subtree, itself included.
func (n *Node) Width() int64 {
	return n.Right - n.Left + 1
}

// SubtreeCount is the number of nodes in the subtree rooted at n, including n.
func (n *Node) SubtreeCount() int64 {
	return n.Width() / 2
}

func (n *Node) IsRoot() bool {
	return n.Parent == uuid.Nil
}

func (n *Node) IsLeaf() bool {
	return n.Right == n.Left+1
}

// IsAncestorOf reports whether o lies strictly inside n's boundary span. The
// relation is strict: a node is not its own ancestor.
func (n *Node) IsAncestorOf(o *Node) bool {
	return n.Partition == o.Partition && n.Left < o.Left && o.Right < n.Right
}

func (n *Node) IsDescendantOf(o *Node) bool {
	return o.IsAncestorOf(n)
}

// Clone returns an independent copy, used by stores to keep callers from
// aliasing their internal rows.
func (n *Node) Clone() *Node {
	c := *n
	return &c
}
