package nestedset

/*

# Nested set primitives for flat, range-queryable tree storage

This package provides the pure arithmetic for maintaining rooted forests in a
flat store using a preorder nested-set encoding. Every node carries a pair of
boundary numbers (left, right) such that ancestry, sibling order and subtree
membership are all decidable by numeric comparison. No traversal is ever
required to answer a structure query, and no function in this package performs
I/O.

It follows a "functional primitives" style:

- small, composable functions
- a plan struct per structurally distinct mutation case
- the caller (a mutator working against a store) owns all side effects

## The encoding

Left and right are the 1-based entry and exit counters of a preorder walk. A
seven node tree numbers like this:

	              1 root 14
	             /         \
	       2 (a) 7       8 (b) 13
	        /   \          /   \
	  3 (c) 4  5 (d) 6  9 (e) 10  11 (f) 12

Reading off the properties the mutation formulas rely on:

 1. a subtree occupies the contiguous interval [left, right], so intervals in
    one tree are either nested or disjoint, never partially overlapping
 2. A is an ancestor of B exactly when A.left < B.left and B.right < A.right
 3. siblings are ordered by ascending left, and the first child of any node
    has left = parent.left + 1
 4. the root has left 1 and right 2n for a tree of n nodes
 5. right - left + 1 (the width) is always even, and width/2 is the number of
    nodes in the subtree; a leaf has width 2

Disjoint trees are kept apart by a partition identifier; boundary comparisons
are only meaningful within one partition.

## Mutations as range shifts

Inserting, deleting or moving a subtree disturbs a bounded, contiguous range
of boundary values and nothing else. Each Plan* function computes the
destination values for the subtree being placed and the minimal affected range
with its shift delta. The four structurally distinct cases get four plans:

  - PlanInsert: open a width-2 gap at an anchor derived from the target
  - PlanDelete: remove a span and close the gap above it
  - PlanMove: relocate a subtree within its partition; everything in the
    affected range that is not part of the subtree shifts by the inverse of
    the subtree's displacement
  - PlanExtract / PlanGraft: demotion to a fresh partition root and promotion
    of a root beneath a parent. A cross-partition move is the composition
    extract-then-graft; there is deliberately no fifth formula.

The branch tests in the placement rules ("is the target boundary above the
subtree's?") are load bearing: they account for the subtree's own presence in
the affected range, so every formula works from boundaries as they are before
any shift is applied. Collapsing the branches breaks the overlapping
source/destination cases.
*/
