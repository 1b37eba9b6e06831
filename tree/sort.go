// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

import (
	"sort"
	"strings"

	"github.com/vyatta-confd/engine/mgmterror"
)

// Position selects where Insert places a new child.
type Position int

const (
	PosFirst Position = iota
	PosLast
	PosBefore
	PosAfter
	PosSchemaOrder
)

// childOrder returns parent's declared schema-order index for name, or a
// value that sorts unbound names after every bound one (by name) when the
// parent carries no spec or the spec doesn't recognise the child - this
// happens for nodes under an as-yet-unmounted schema-mount subtree.
func childOrder(parent *Node, name string) (int, bool) {
	if parent == nil || parent.Spec == nil {
		return 0, false
	}
	order := parent.Spec.ChildOrder(name)
	if order < 0 {
		return 0, false
	}
	return order, true
}

// compareNames orders two data-child names under parent: by declared
// schema order first, falling back to lexical order for names the spec
// doesn't know about (keeps the invariant total even mid-bind).
func compareNames(parent *Node, a, b string) int {
	if a == b {
		return 0
	}
	oa, oaOK := childOrder(parent, a)
	ob, obOK := childOrder(parent, b)
	switch {
	case oaOK && obOK:
		if oa != ob {
			return cmpInt(oa, ob)
		}
	case oaOK != obOK:
		if oaOK {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareKeyTuples(a, b []string) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := strings.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return cmpInt(len(a), len(b))
}

// keyTupleOf returns the value used to order same-named siblings: the key
// tuple for a list entry, the single value for a leaf-list entry, or nil
// for anything else (containers/leaves, which may not repeat a name).
func keyTupleOf(n *Node) []string {
	if n.Spec == nil {
		return nil
	}
	switch n.Spec.SpecKind() {
	case SpecList:
		return n.KeyValues()
	case SpecLeafList:
		return []string{bodyValue(n)}
	default:
		return nil
	}
}

// compareSiblings orders a and b as data children of parent, per the
// sorted-child invariant in spec section 3: schema order for distinct
// names, key-tuple lex order for list entries, value lex order for
// leaf-list entries.
func compareSiblings(parent *Node, a, b *Node) int {
	if c := compareNames(parent, a.Name, b.Name); c != 0 {
		return c
	}
	return compareKeyTuples(keyTupleOf(a), keyTupleOf(b))
}

// compareTarget orders a hypothetical child named name with key tuple key
// against an existing sibling node, for use by FindIndex/Insert before the
// candidate node necessarily exists.
func compareTarget(parent *Node, name string, key []string, node *Node) int {
	if c := compareNames(parent, name, node.Name); c != 0 {
		return c
	}
	return compareKeyTuples(key, keyTupleOf(node))
}

// SortRecurse restores the sorted-child invariant for node and every
// descendant. It is idempotent: calling it twice leaves the tree
// unchanged (spec section 8, sorted-child closure).
func SortRecurse(node *Node) {
	if node == nil {
		return
	}
	sort.SliceStable(node.Children, func(i, j int) bool {
		return compareSiblings(node, node.Children[i], node.Children[j]) < 0
	})
	for _, c := range node.Children {
		SortRecurse(c)
	}
}

// FindIndex binary searches parent's sorted data children for one named
// childName whose key tuple (for a list entry; nil for anything else)
// equals key. It is the fast path both C's list-optimised XPath evaluator
// and plain list-entry lookup use to achieve O(log n) instead of O(n).
func FindIndex(parent *Node, childName string, key []string) (idx int, found bool) {
	children := parent.Children
	i := sort.Search(len(children), func(i int) bool {
		return compareTarget(parent, childName, key, children[i]) <= 0
	})
	if i < len(children) && compareTarget(parent, childName, key, children[i]) == 0 {
		return i, true
	}
	return i, false
}

// Insert places child under parent at position pos, maintaining the
// sorted-child invariant. keyHint overrides the key tuple used to locate
// the insertion slot for PosSchemaOrder when child's own key leaves are
// not yet populated (e.g. while a list entry is still being built);
// pass nil to derive the key tuple from child itself.
func Insert(parent, child *Node, pos Position, ref *Node, keyHint []string) error {
	child.Parent = parent
	switch pos {
	case PosFirst:
		parent.Children = append([]*Node{child}, parent.Children...)
		return nil
	case PosLast:
		parent.Children = append(parent.Children, child)
		return nil
	case PosBefore, PosAfter:
		idx := indexOf(parent.Children, ref)
		if idx < 0 {
			parent.Children = append(parent.Children, child)
			return nil
		}
		if pos == PosAfter {
			idx++
		}
		parent.Children = insertAt(parent.Children, idx, child)
		return nil
	default: // PosSchemaOrder
		key := keyHint
		if key == nil {
			key = keyTupleOf(child)
		}
		idx, found := FindIndex(parent, child.Name, key)
		if found && key != nil {
			return mgmterror.NewDataInvalidError(pathOf(child))
		}
		if found && key == nil {
			// A second element with the same qualified name under a
			// container that isn't a leaf-list: rejected (spec 4.A).
			return mgmterror.NewDataInvalidError(pathOf(child))
		}
		parent.Children = insertAt(parent.Children, idx, child)
		return nil
	}
}

func indexOf(list []*Node, n *Node) int {
	for i, c := range list {
		if c == n {
			return i
		}
	}
	return -1
}

func insertAt(list []*Node, idx int, n *Node) []*Node {
	list = append(list, nil)
	copy(list[idx+1:], list[idx:])
	list[idx] = n
	return list
}

func pathOf(n *Node) []string {
	var parts []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		parts = append([]string{cur.Name}, parts...)
	}
	return parts
}
