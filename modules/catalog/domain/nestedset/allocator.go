// Package nestedset computes nested-set interval bounds for one tenant's
// category forest. Every node owns an interval [Left, Right]; containment of
// intervals mirrors the ancestor/descendant relation, so subtree and ancestor
// queries become range predicates instead of recursive joins.
//
// The allocator is pure computation over an in-memory snapshot. Callers load
// the tenant's rows, apply one operation, and persist the returned Change
// inside a single transaction.
package nestedset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("node not found in forest")
	ErrCycle    = errors.New("move would create a cycle")
	ErrNotEmpty = errors.New("node has children and no delete policy was chosen")
)

type DeletePolicy int

const (
	// PolicyNone rejects deletion of non-leaf nodes. There is no silent
	// default: cascading a B2B catalog subtree away must be an explicit
	// caller decision.
	PolicyNone DeletePolicy = iota
	PolicyCascade
	PolicyPromote
)

func (p DeletePolicy) String() string {
	switch p {
	case PolicyCascade:
		return "CASCADE"
	case PolicyPromote:
		return "PROMOTE"
	default:
		return "NONE"
	}
}

// ParseDeletePolicy maps the wire-level policy names onto DeletePolicy.
func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch s {
	case "CASCADE":
		return PolicyCascade, nil
	case "PROMOTE":
		return PolicyPromote, nil
	case "":
		return PolicyNone, nil
	default:
		return PolicyNone, fmt.Errorf("unknown delete policy %q", s)
	}
}

type Node struct {
	ID       uuid.UUID
	ParentID *uuid.UUID
	Left     int
	Right    int
}

// Change lists the rows an operation touched. Inserted rows are new,
// Updated rows carry fresh bounds and/or parent, Deleted rows are gone.
type Change struct {
	Inserted []Node
	Updated  []Node
	Deleted  []uuid.UUID
}

// Forest is a mutable snapshot of one tenant's category forest.
type Forest struct {
	byID  map[uuid.UUID]*Node
	order []uuid.UUID
}

func NewForest(nodes []Node) *Forest {
	f := &Forest{byID: make(map[uuid.UUID]*Node, len(nodes)), order: make([]uuid.UUID, 0, len(nodes))}
	for i := range nodes {
		n := nodes[i]
		f.byID[n.ID] = &n
		f.order = append(f.order, n.ID)
	}
	return f
}

// Nodes returns the forest in pre-order (ascending Left).
func (f *Forest) Nodes() []Node {
	out := make([]Node, 0, len(f.byID))
	for _, id := range f.order {
		out = append(out, *f.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Left < out[j].Left })
	return out
}

func (f *Forest) Get(id uuid.UUID) (Node, bool) {
	n, ok := f.byID[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

func (f *Forest) maxRight() int {
	max := 0
	for _, n := range f.byID {
		if n.Right > max {
			max = n.Right
		}
	}
	return max
}

// Insert appends id as the last child of parentID, or as a new root at the
// end of the forest when parentID is nil. Every node whose bound is >= the
// insertion point shifts right by 2; the rewrite is O(N) over the tenant's
// snapshot and never touches other tenants.
func (f *Forest) Insert(id uuid.UUID, parentID *uuid.UUID) (Change, error) {
	if _, exists := f.byID[id]; exists {
		return Change{}, fmt.Errorf("node %s already in forest", id)
	}

	var at int
	if parentID == nil {
		at = f.maxRight() + 1
	} else {
		parent, ok := f.byID[*parentID]
		if !ok {
			return Change{}, ErrNotFound
		}
		at = parent.Right
	}

	var updated []Node
	for _, n := range f.byID {
		changed := false
		if n.Left >= at {
			n.Left += 2
			changed = true
		}
		if n.Right >= at {
			n.Right += 2
			changed = true
		}
		if changed {
			updated = append(updated, *n)
		}
	}

	inserted := Node{ID: id, ParentID: parentID, Left: at, Right: at + 1}
	f.byID[id] = &inserted
	f.order = append(f.order, id)

	sortNodes(updated)
	return Change{Inserted: []Node{inserted}, Updated: updated}, nil
}

// Move reattaches id (and its whole subtree) under newParentID, or to root
// level when newParentID is nil. The subtree keeps its internal order and
// containment; the surrounding forest closes the old gap and opens a new one
// of the same width.
func (f *Forest) Move(id uuid.UUID, newParentID *uuid.UUID) (Change, error) {
	node, ok := f.byID[id]
	if !ok {
		return Change{}, ErrNotFound
	}
	if newParentID != nil {
		parent, ok := f.byID[*newParentID]
		if !ok {
			return Change{}, ErrNotFound
		}
		if *newParentID == id || (node.Left <= parent.Left && parent.Right <= node.Right) {
			return Change{}, ErrCycle
		}
	}

	oldLeft, oldRight := node.Left, node.Right
	width := oldRight - oldLeft + 1

	// Membership is fixed before any bounds shift; gap-closing can slide
	// outside nodes into the old interval range.
	subtree := make(map[uuid.UUID]bool)
	for nid, n := range f.byID {
		if n.Left >= oldLeft && n.Right <= oldRight {
			subtree[nid] = true
		}
	}
	inSubtree := func(n *Node) bool {
		return subtree[n.ID]
	}

	before := f.snapshotBounds()

	// Close the gap the subtree leaves behind.
	for _, n := range f.byID {
		if inSubtree(n) {
			continue
		}
		if n.Left > oldRight {
			n.Left -= width
		}
		if n.Right > oldRight {
			n.Right -= width
		}
	}

	// Insertion point in the compacted forest.
	var at int
	if newParentID == nil {
		at = 0
		for _, n := range f.byID {
			if !inSubtree(n) && n.Right > at {
				at = n.Right
			}
		}
		at++
	} else {
		at = f.byID[*newParentID].Right
	}

	// Open a gap of the subtree's width.
	for _, n := range f.byID {
		if inSubtree(n) {
			continue
		}
		if n.Left >= at {
			n.Left += width
		}
		if n.Right >= at {
			n.Right += width
		}
	}

	// Drop the subtree into the gap.
	delta := at - oldLeft
	for _, n := range f.byID {
		if inSubtree(n) {
			n.Left += delta
			n.Right += delta
		}
	}
	node.ParentID = newParentID

	return Change{Updated: f.diffBounds(before)}, nil
}

// Delete removes id. PolicyCascade removes the whole subtree; PolicyPromote
// reparents direct children to the deleted node's parent. A leaf deletes
// under any policy. The freed width is reclaimed so the tenant's numbering
// stays compact.
func (f *Forest) Delete(id uuid.UUID, policy DeletePolicy) (Change, error) {
	node, ok := f.byID[id]
	if !ok {
		return Change{}, ErrNotFound
	}

	hasChildren := node.Right-node.Left > 1
	if hasChildren && policy == PolicyNone {
		return Change{}, ErrNotEmpty
	}

	oldLeft, oldRight := node.Left, node.Right
	before := f.snapshotBounds()

	var deleted []uuid.UUID
	if policy == PolicyCascade || !hasChildren {
		width := oldRight - oldLeft + 1
		for nid, n := range f.byID {
			if n.Left >= oldLeft && n.Right <= oldRight {
				deleted = append(deleted, nid)
			}
		}
		for _, nid := range deleted {
			delete(f.byID, nid)
		}
		for _, n := range f.byID {
			if n.Left > oldRight {
				n.Left -= width
			}
			if n.Right > oldRight {
				n.Right -= width
			}
		}
	} else {
		// Promote: the node's two boundary slots vanish, everything
		// strictly inside slides one left, everything after slides two.
		deleted = append(deleted, id)
		delete(f.byID, id)
		for _, n := range f.byID {
			switch {
			case n.Left > oldLeft && n.Right < oldRight:
				n.Left--
				n.Right--
				if n.ParentID != nil && *n.ParentID == id {
					n.ParentID = node.ParentID
				}
			default:
				if n.Left > oldRight {
					n.Left -= 2
				}
				if n.Right > oldRight {
					n.Right -= 2
				}
			}
		}
	}

	f.compactOrder()
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].String() < deleted[j].String() })
	return Change{Updated: f.diffBounds(before), Deleted: deleted}, nil
}

// Subtree returns id and all its descendants in pre-order.
func (f *Forest) Subtree(id uuid.UUID) ([]Node, error) {
	root, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	var out []Node
	for _, n := range f.byID {
		if n.Left >= root.Left && n.Right <= root.Right {
			out = append(out, *n)
		}
	}
	sortNodes(out)
	return out, nil
}

// Ancestors returns the chain of nodes strictly containing id, root first.
func (f *Forest) Ancestors(id uuid.UUID) ([]Node, error) {
	node, ok := f.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	var out []Node
	for _, n := range f.byID {
		if n.Left < node.Left && n.Right > node.Right {
			out = append(out, *n)
		}
	}
	sortNodes(out)
	return out, nil
}

// Validate checks the nesting invariants: Left < Right everywhere, any two
// intervals nested or disjoint, parents strictly containing their children,
// and the tenant's bounds forming the compact set 1..2N.
func (f *Forest) Validate() error {
	seen := make(map[int]bool, len(f.byID)*2)
	for _, n := range f.byID {
		if n.Left >= n.Right {
			return fmt.Errorf("node %s: left %d >= right %d", n.ID, n.Left, n.Right)
		}
		for _, b := range []int{n.Left, n.Right} {
			if b < 1 || b > 2*len(f.byID) {
				return fmt.Errorf("node %s: bound %d outside [1, %d]", n.ID, b, 2*len(f.byID))
			}
			if seen[b] {
				return fmt.Errorf("node %s: bound %d used twice", n.ID, b)
			}
			seen[b] = true
		}
	}
	nodes := f.Nodes()
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			disjoint := a.Right < b.Left || b.Right < a.Left
			aContainsB := a.Left < b.Left && b.Right < a.Right
			bContainsA := b.Left < a.Left && a.Right < b.Right
			if !disjoint && !aContainsB && !bContainsA {
				return fmt.Errorf("nodes %s and %s partially overlap: [%d,%d] vs [%d,%d]",
					a.ID, b.ID, a.Left, a.Right, b.Left, b.Right)
			}
		}
	}
	for _, n := range f.byID {
		if n.ParentID == nil {
			continue
		}
		p, ok := f.byID[*n.ParentID]
		if !ok {
			return fmt.Errorf("node %s: parent %s missing", n.ID, *n.ParentID)
		}
		if !(p.Left < n.Left && n.Right < p.Right) {
			return fmt.Errorf("node %s [%d,%d] not inside parent %s [%d,%d]",
				n.ID, n.Left, n.Right, p.ID, p.Left, p.Right)
		}
	}
	return nil
}

func (f *Forest) snapshotBounds() map[uuid.UUID]Node {
	out := make(map[uuid.UUID]Node, len(f.byID))
	for id, n := range f.byID {
		out[id] = *n
	}
	return out
}

func (f *Forest) diffBounds(before map[uuid.UUID]Node) []Node {
	var updated []Node
	for id, n := range f.byID {
		prev, ok := before[id]
		if !ok {
			continue
		}
		if prev.Left != n.Left || prev.Right != n.Right || !parentEqual(prev.ParentID, n.ParentID) {
			updated = append(updated, *n)
		}
	}
	sortNodes(updated)
	return updated
}

func (f *Forest) compactOrder() {
	kept := f.order[:0]
	for _, id := range f.order {
		if _, ok := f.byID[id]; ok {
			kept = append(kept, id)
		}
	}
	f.order = kept
}

func parentEqual(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Left < nodes[j].Left })
}
