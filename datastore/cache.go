// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import "github.com/vyatta-confd/engine/tree"

// projectionThreshold is the implementation-chosen cutover spec section
// 4.D leaves open ("the threshold is implementation-chosen (~1000
// matches)"): below it, building the minimal ancestor-preserving copy
// bottom-up from each match is cheap enough to do directly; at or above
// it, a single mark-and-sweep pass over the cache amortises better than
// repeating the ancestor walk per match.
const projectionThreshold = 1000

// project builds the minimal tree whose leaves are matches and whose
// ancestors are bottom-up reconstructed copies of root's path down to
// each match, preserving every list entry's key children along the way
// (spec section 4.D: "key children preserved on every list-entry copy").
func project(root *tree.Node, matches []*tree.Node) *tree.Node {
	if len(matches) == 0 {
		return tree.NewRoot(root.Name)
	}
	if len(matches) < projectionThreshold {
		return projectBottomUp(root, matches)
	}
	return projectMarkSweep(root, matches)
}

// projectBottomUp walks from each match to the cache root, building (or
// reusing) a copy of every ancestor, and copies in the match subtree
// itself as a DeepCopy (callers get a fully independent projection, never
// pointers into the cache).
func projectBottomUp(root *tree.Node, matches []*tree.Node) *tree.Node {
	built := map[*tree.Node]*tree.Node{root: emptyCopy(root)}

	copyOf := func(n *tree.Node) *tree.Node {
		if c, ok := built[n]; ok {
			return c
		}
		c := emptyCopy(n)
		built[n] = c
		return c
	}

	for _, m := range matches {
		// Walk m up to root, building ancestor copies top-down so each
		// child is linked under its already-built parent copy exactly
		// once.
		var chain []*tree.Node
		for n := m; n != nil && n != root; n = n.Parent {
			chain = append([]*tree.Node{n}, chain...)
		}
		parentCopy := built[root]
		for i, n := range chain {
			if i == len(chain)-1 {
				// The match itself: copy its whole subtree.
				mc := tree.DeepCopy(n)
				mc.Parent = parentCopy
				parentCopy.Children = append(parentCopy.Children, mc)
				preserveKeys(n, mc, parentCopy)
				break
			}
			nc, already := built[n]
			if !already {
				nc = copyOf(n)
				nc.Parent = parentCopy
				parentCopy.Children = append(parentCopy.Children, nc)
				preserveKeys(n, nc, parentCopy)
			}
			parentCopy = nc
		}
	}
	return built[root]
}

// preserveKeys ensures a list-entry ancestor copy carries at least its
// declared key leaves, even when the match that pulled it in is some
// other descendant than the keys themselves (spec section 4.D).
func preserveKeys(orig, cp, parent *tree.Node) {
	if orig.Spec == nil {
		return
	}
	for _, k := range orig.Spec.KeyNames() {
		if cp.Child(k) != nil {
			continue
		}
		if keyLeaf := orig.Child(k); keyLeaf != nil {
			kc := tree.DeepCopy(keyLeaf)
			kc.Parent = cp
			cp.Children = append(cp.Children, kc)
		}
	}
}

// emptyCopy copies n's identity (name/value/attrs/spec) without any
// children.
func emptyCopy(n *tree.Node) *tree.Node {
	c := &tree.Node{}
	tree.Copy(c, n)
	c.Flags = n.Flags
	return c
}

// projectMarkSweep implements the large-result-set strategy: mark every
// match, its ancestors and each marked list entry's key leaves on the
// live cache, copy the marked subtree in one recursive sweep, then clear
// the marks again so the cache is left exactly as Read found it.
func projectMarkSweep(root *tree.Node, matches []*tree.Node) *tree.Node {
	for _, m := range matches {
		tree.ApplyAncestor(m, func(n *tree.Node) bool {
			if n.FlagTest(tree.FlagMark) {
				return false
			}
			n.FlagSet(tree.FlagMark)
			if n.Spec != nil {
				for _, k := range n.Spec.KeyNames() {
					if keyLeaf := n.Child(k); keyLeaf != nil {
						markSubtree(keyLeaf)
					}
				}
			}
			return true
		})
		markSubtree(m)
	}
	out := sweepCopy(root)
	for _, m := range matches {
		tree.ApplyAncestor(m, func(n *tree.Node) bool {
			n.FlagClear(tree.FlagMark)
			if n.Spec != nil {
				for _, k := range n.Spec.KeyNames() {
					if keyLeaf := n.Child(k); keyLeaf != nil {
						clearSubtree(keyLeaf)
					}
				}
			}
			return true
		})
		clearSubtree(m)
	}
	return out
}

func markSubtree(n *tree.Node) {
	n.FlagSet(tree.FlagMark)
	for _, c := range n.Children {
		markSubtree(c)
	}
}

func clearSubtree(n *tree.Node) {
	n.FlagClear(tree.FlagMark)
	for _, c := range n.Children {
		clearSubtree(c)
	}
}

// sweepCopy copies every node the mark pass touched, in tree order.
func sweepCopy(n *tree.Node) *tree.Node {
	c := emptyCopy(n)
	c.Flags &^= tree.FlagMark
	for _, child := range n.Children {
		if !child.FlagTest(tree.FlagMark) {
			continue
		}
		cc := sweepCopy(child)
		cc.Parent = c
		c.Children = append(c.Children, cc)
	}
	return c
}
