// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package commit

import "github.com/vyatta-confd/engine/tree"

// Transaction is the transient value a commit passes to every registered
// plugin, from the start of validate through commit or revert (spec
// section 3, "Transaction"): the pre-edit source tree, the edited
// candidate (target), and the three pointer-stable diff vectors.
type Transaction struct {
	Source *tree.Node
	Target *tree.Node

	Added   []*tree.Node
	Deleted []*tree.Node
	Changed []*tree.Node

	// ID identifies the transaction for logging/metrics; assigned by the
	// Engine when the transaction starts.
	ID string
}

// newTransaction computes the Added/Deleted/Changed diff between source
// (running, pre-edit) and target (candidate, post-edit), per spec
// section 4.A's Diff and section 4.E's "diff passed to every callback".
func newTransaction(id string, source, target *tree.Node) *Transaction {
	added, deleted, changed := tree.Diff(source, target)
	return &Transaction{
		ID:      id,
		Source:  source,
		Target:  target,
		Added:   added,
		Deleted: deleted,
		Changed: changed,
	}
}
