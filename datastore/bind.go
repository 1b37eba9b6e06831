// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// bind walks a freshly parsed, schema-free tree and attaches each
// element's yangmodel.Statement, switching to a mounted schema's
// statements at every mount point the resolver resolves (spec section
// 4.D's "bind every element to YANG (calling F for mount-points)").
//
// A node whose name isn't found under the current schema is left
// unbound (Spec == nil); it still sorts (lexically, see tree.SortRecurse)
// and round-trips. The commit engine's validation skips unbound nodes, so
// it is not reported as unknown-element there.
func bind(node *tree.Node, ms *yangmodel.ModelSet, resolver *mount.Resolver) {
	bindChildren(node, ms.Root(), ms, resolver)
}

func bindChildren(node *tree.Node, parentStmt *yangmodel.Statement, ms *yangmodel.ModelSet, resolver *mount.Resolver) {
	if parentStmt == nil || parentStmt.Entry == nil {
		return
	}
	for _, child := range node.Children {
		if child.Kind != tree.Element {
			continue
		}
		entry, ok := parentStmt.Entry.Dir[child.Name]
		if !ok {
			continue
		}
		stmt := ms.StatementOf(entry)
		child.Spec = stmt

		childMS := ms
		if stmt.IsMountPointCandidate() && resolver != nil {
			if mounted, ok, err := resolver.ResolveAt(child); err == nil && ok {
				childMS = mounted
				// Re-bind child's own already-parsed subtree against the
				// newly attached schema's root instead of stmt's Dir,
				// since the mounted schema's top-level data nodes, not
				// stmt's own children, now govern what's beneath child
				// (spec section 4.F: "continues binding the subtree
				// using the mounted spec").
				bindChildren(child, mounted.Root(), childMS, resolver)
				continue
			}
		}
		bindChildren(child, stmt, childMS, resolver)
	}
}
