package nestedset

import (
	"fmt"

	"github.com/google/uuid"
)

// Rule identifies which structural invariant a Violation breaches.
type Rule int

const (
	// RuleSpan: left < right and the width is even.
	RuleSpan Rule = iota
	// RuleNesting: intervals are nested or disjoint, never partially
	// overlapping.
	RuleNesting
	// RuleAncestry: containment derived from boundaries agrees with the
	// parent pointer.
	RuleAncestry
	// RuleSiblingOrder: the scan is in ascending left order, boundary values
	// are compact, and the first child starts at parent.left + 1.
	RuleSiblingOrder
	// RuleRoot: exactly one root, at left 1, with right = 2 * node count.
	RuleRoot
	// RuleDepth: depth steps by exactly 1 from parent to child, roots are 0.
	RuleDepth
)

func (r Rule) String() string {
	switch r {
	case RuleSpan:
		return "span"
	case RuleNesting:
		return "nesting"
	case RuleAncestry:
		return "ancestry"
	case RuleSiblingOrder:
		return "sibling-order"
	case RuleRoot:
		return "root"
	case RuleDepth:
		return "depth"
	default:
		return fmt.Sprintf("rule(%d)", int(r))
	}
}

// Violation reports one invariant breach found in a partition scan.
// Violations are diagnostics, not errors: a scan of a healthy partition
// returns none, and a corrupted partition returns every breach found rather
// than stopping at the first.
type Violation struct {
	Rule   Rule
	NodeID uuid.UUID
	Detail string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: node %s: %s", v.Rule, v.NodeID, v.Detail)
}

// Check re-derives the ancestry structure of a single partition from its
// boundary values and reports every invariant breach. nodes must be the
// complete partition in ascending Left order, as produced by an ordered
// scan. Check never mutates its input and performs no I/O.
func Check(nodes []*Node) []Violation {
	var vs []Violation
	if len(nodes) == 0 {
		return nil
	}

	report := func(r Rule, id uuid.UUID, format string, args ...any) {
		vs = append(vs, Violation{Rule: r, NodeID: id, Detail: fmt.Sprintf(format, args...)})
	}

	partition := nodes[0].Partition
	limit := 2 * int64(len(nodes))
	seen := make(map[int64]uuid.UUID, 2*len(nodes))

	// stack holds the chain of open intervals; the top is the immediate
	// ancestor of the node being visited.
	var stack []*Node
	var roots int

	for i, n := range nodes {
		if n.Partition != partition {
			report(RuleSiblingOrder, n.ID, "partition %d mixed into scan of %d", n.Partition, partition)
		}
		if n.Left >= n.Right {
			report(RuleSpan, n.ID, "left %d is not below right %d", n.Left, n.Right)
		}
		if n.Width()%2 != 0 {
			report(RuleSpan, n.ID, "width %d is odd", n.Width())
		}
		if i > 0 && n.Left <= nodes[i-1].Left {
			report(RuleSiblingOrder, n.ID, "left %d out of order after %d", n.Left, nodes[i-1].Left)
		}
		for _, b := range []int64{n.Left, n.Right} {
			if b < 1 || b > limit {
				report(RuleSiblingOrder, n.ID, "boundary %d outside [1,%d]", b, limit)
			} else if prior, dup := seen[b]; dup {
				report(RuleSiblingOrder, n.ID, "boundary %d already used by %s", b, prior)
			}
			seen[b] = n.ID
		}

		for len(stack) > 0 && stack[len(stack)-1].Right < n.Left {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots++
			if roots > 1 {
				report(RuleRoot, n.ID, "second root at left %d", n.Left)
			}
			if !n.IsRoot() {
				report(RuleAncestry, n.ID, "outside every span but carries parent %s", n.Parent)
			}
			if n.Left != 1 {
				report(RuleRoot, n.ID, "root left is %d not 1", n.Left)
			}
			if n.Right != limit {
				report(RuleRoot, n.ID, "root right is %d not %d for %d nodes", n.Right, limit, len(nodes))
			}
			if n.Depth != 0 {
				report(RuleDepth, n.ID, "root depth is %d not 0", n.Depth)
			}
		} else {
			top := stack[len(stack)-1]
			if n.Right > top.Right {
				report(RuleNesting, n.ID, "[%d,%d] partially overlaps [%d,%d]", n.Left, n.Right, top.Left, top.Right)
			}
			if n.Parent != top.ID {
				report(RuleAncestry, n.ID, "enclosed by %s but carries parent %s", top.ID, n.Parent)
			}
			if n.Depth != top.Depth+1 {
				report(RuleDepth, n.ID, "depth %d beneath parent depth %d", n.Depth, top.Depth)
			}
		}

		if !n.IsLeaf() {
			// the next scanned node must be this node's first child
			if i+1 >= len(nodes) || nodes[i+1].Left != n.Left+1 {
				report(RuleSiblingOrder, n.ID, "no first child at left %d", n.Left+1)
			}
		}

		stack = append(stack, n)
	}

	return vs
}
