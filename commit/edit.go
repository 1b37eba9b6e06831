// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package commit implements the edit-config apply step and the
// candidate->running two-phase commit state machine of spec section 4.E.
package commit

import (
	"github.com/vyatta-confd/engine/mgmterror"
	"github.com/vyatta-confd/engine/tree"
)

// Operation is one of the six edit-config operations an edit payload
// element may carry on its "operation" attribute (spec section 4.E).
type Operation string

const (
	OpMerge   Operation = "merge"
	OpReplace Operation = "replace"
	OpCreate  Operation = "create"
	OpDelete  Operation = "delete"
	OpRemove  Operation = "remove"
	OpNone    Operation = "none"
)

func operationOf(n *tree.Node) Operation {
	if a := n.Attr("operation"); a != nil && a.Value != "" {
		return Operation(a.Value)
	}
	return OpMerge
}

// Edit applies patch to candidate in place, per spec section 4.E, and
// re-sorts every subtree the edit touched so the sorted-child invariant
// holds afterward.
func Edit(candidate, patch *tree.Node) error {
	if err := editNode(candidate, patch); err != nil {
		return err
	}
	tree.SortRecurse(candidate)
	return nil
}

// editNode applies patch's children (and, through them, their own
// subtrees) onto target, which already exists and corresponds to patch
// itself (editNode never creates or removes target — that's its caller's
// job, since whether a missing node is an error depends on the *child's*
// own declared operation).
func editNode(target, patch *tree.Node) error {
	for _, child := range patch.Children {
		if child.Kind != tree.Element {
			continue
		}
		if err := editChild(target, child); err != nil {
			return err
		}
	}
	return nil
}

func editChild(target, patchChild *tree.Node) error {
	op := operationOf(patchChild)
	key := keyTuple(patchChild)
	existing := findMatch(target, patchChild.Name, key)

	switch op {
	case OpNone:
		if existing == nil {
			return mgmterror.NewNodeNotExistsError(pathSegs(target, patchChild.Name))
		}
		return editNode(existing, patchChild)

	case OpCreate:
		if existing != nil {
			return mgmterror.NewNodeExistsError(pathSegs(target, patchChild.Name))
		}
		return insertSubtree(target, patchChild)

	case OpDelete:
		if existing == nil {
			return mgmterror.NewNodeNotExistsError(pathSegs(target, patchChild.Name))
		}
		existing.FlagSet(tree.FlagDel)
		tree.Purge(existing)
		return nil

	case OpRemove:
		if existing != nil {
			tree.Purge(existing)
		}
		return nil

	case OpReplace:
		if existing != nil {
			tree.Purge(existing)
		}
		return insertSubtree(target, patchChild)

	default: // OpMerge
		if existing == nil {
			return insertSubtree(target, patchChild)
		}
		return editNode(existing, patchChild)
	}
}

// insertSubtree deep-copies patchChild (stripping the "operation"
// attribute it was only a patch instruction, not data) and inserts it
// under target in schema order.
func insertSubtree(target, patchChild *tree.Node) error {
	cp := tree.DeepCopy(patchChild)
	cp.Spec = patchChild.Spec
	stripOperationAttr(cp)
	return tree.Insert(target, cp, tree.PosSchemaOrder, nil, keyTuple(patchChild))
}

func stripOperationAttr(n *tree.Node) {
	for i, a := range n.Attrs {
		if a.Name == "operation" {
			n.Attrs = append(n.Attrs[:i:i], n.Attrs[i+1:]...)
			break
		}
	}
}

// findMatch looks up target's existing data child matching name and, for
// a list entry, key — a plain tree.FindIndex lookup when target is
// already bound and sorted. It falls back to a linear scan when target
// carries no YANG binding yet (e.g. an as-yet-unmounted schema-mount
// subtree), and when a keyed FindIndex lookup on a bound target misses.
func findMatch(target *tree.Node, name string, key []string) *tree.Node {
	if target.Spec != nil {
		if idx, ok := tree.FindIndex(target, name, key); ok {
			return target.Children[idx]
		}
		if key == nil {
			return nil
		}
	}
	for _, c := range target.ChildrenNamed(name) {
		if key == nil {
			return c
		}
		if keysEqual(c.KeyValues(), key) {
			return c
		}
	}
	return nil
}

func keysEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// keyTuple extracts patchChild's list key tuple from its own declared key
// leaves (present in the patch itself, per spec section 4.E: "list
// entries are matched by full key tuple"). It returns nil when
// patchChild carries no Spec, since its key names are then unknown, and
// when KeyValuesOK cannot build the tuple.
func keyTuple(patchChild *tree.Node) []string {
	if patchChild.Spec != nil {
		if v, ok := patchChild.KeyValuesOK(); ok {
			return v
		}
		return nil
	}
	return nil
}

func pathSegs(target *tree.Node, name string) []string {
	var segs []string
	for n := target; n != nil && n.Parent != nil; n = n.Parent {
		segs = append([]string{n.Name}, segs...)
	}
	return append(segs, name)
}
