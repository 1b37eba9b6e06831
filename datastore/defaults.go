// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// MaterializeDefaults walks root and, at every container/list-entry
// reached, creates any missing leaf whose YANG statement declares a
// default value, flagged FlagDefault (spec section 4.D: "populate
// default values (global first, then recursive)"). It is idempotent —
// running it twice leaves the tree unchanged, since a default leaf is
// only ever created when no child of that name already exists (spec
// section 8, defaults idempotence).
//
// Beneath a schema-mount point, defaults are filled against the mounted
// schema, obtained through resolver's lookup contract rather than the
// node's own (pre-mount) statement, per spec section 4.F.
func MaterializeDefaults(root *tree.Node, global *yangmodel.ModelSet, resolver *mount.Resolver) {
	fillDefaults(root, global, resolver)
}

// applyDefaultsFilter enforces a Read's requested DefaultsMode on an
// already-materialised tree, per spec section 4.D's four modes and
// section 3's invariant ("a get with 'explicit' defaults-filter must hide
// [a DEFAULT node]").
func applyDefaultsFilter(node *tree.Node, mode DefaultsMode) {
	switch mode {
	case DefaultsReportAll:
		return
	case DefaultsTrim, DefaultsExplicit:
		pruneDefaults(node)
	case DefaultsReportAllTagged:
		tagDefaults(node)
	}
}

func pruneDefaults(node *tree.Node) {
	kept := node.Children[:0]
	for _, c := range node.Children {
		if c.Kind == tree.Element && c.IsDefault() {
			continue
		}
		if c.Kind == tree.Element {
			pruneDefaults(c)
		}
		kept = append(kept, c)
	}
	node.Children = kept
}

func tagDefaults(node *tree.Node) {
	for _, c := range node.Children {
		if c.Kind != tree.Element {
			continue
		}
		if c.IsDefault() && c.Attr("default") == nil {
			tree.New("default", c, tree.Attribute).Value = "true"
		}
		tagDefaults(c)
	}
}

func fillDefaults(node *tree.Node, ms *yangmodel.ModelSet, resolver *mount.Resolver) {
	stmt, ok := node.Spec.(*yangmodel.Statement)
	if !ok || stmt == nil || stmt.Entry == nil || stmt.Entry.Dir == nil {
		return
	}
	dir := stmt.Entry.Dir
	if node.IsMountPoint() && resolver != nil {
		if mounted := resolver.SpecFor(node); mounted != nil {
			ms = mounted
			if mr := mounted.Root(); mounted != resolver.Global() && mr != nil && mr.Entry != nil {
				dir = mr.Entry.Dir
			}
		}
	}

	for name, childEntry := range dir {
		childStmt := ms.StatementOf(childEntry)
		switch childStmt.SpecKind() {
		case tree.SpecLeaf:
			if childEntry.Default == "" {
				continue
			}
			if node.Child(name) != nil {
				continue
			}
			leaf := tree.New(name, nil, tree.Element)
			leaf.Spec = childStmt
			leaf.FlagSet(tree.FlagDefault)
			leaf.SetBody(childEntry.Default)
			if err := tree.Insert(node, leaf, tree.PosSchemaOrder, nil, nil); err != nil {
				continue
			}
		case tree.SpecContainer:
			if !childStmt.HasPresence() {
				// Non-presence container: materialise it so its own
				// default-bearing descendants exist, matching the
				// reference implementation's "recursive" default fill.
				existing := node.Child(name)
				if existing == nil {
					existing = tree.New(name, nil, tree.Element)
					existing.Spec = childStmt
					existing.FlagSet(tree.FlagDefault)
					if err := tree.Insert(node, existing, tree.PosSchemaOrder, nil, nil); err != nil {
						continue
					}
				}
				fillDefaults(existing, ms, resolver)
			} else if existing := node.Child(name); existing != nil {
				fillDefaults(existing, ms, resolver)
			}
		}
	}

	// Recurse into already-present list entries too (their own key/leaf
	// defaults and nested containers), but never synthesise a list entry
	// that doesn't exist — an empty list has nothing to default.
	for _, child := range node.Children {
		if child.Kind != tree.Element {
			continue
		}
		if cs, ok := child.Spec.(*yangmodel.Statement); ok && cs.SpecKind() == tree.SpecList {
			fillDefaults(child, ms, resolver)
		}
	}
}
