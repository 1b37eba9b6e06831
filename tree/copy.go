// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

// Copy copies dst's identity fields (name, value, attributes) from src,
// without touching either node's children or parent.
func Copy(dst, src *Node) {
	dst.Kind = src.Kind
	dst.Name = src.Name
	dst.Prefix = src.Prefix
	dst.Value = src.Value
	dst.Spec = src.Spec
	dst.Attrs = make([]*Node, len(src.Attrs))
	for i, a := range src.Attrs {
		na := &Node{}
		Copy(na, a)
		na.Parent = dst
		dst.Attrs[i] = na
	}
}

// DeepCopy recursively copies src and its subtree, preserving flags except
// MARK (which is a transient bookkeeping flag scoped to a single cache
// sweep, per spec section 4.D).
func DeepCopy(src *Node) *Node {
	if src == nil {
		return nil
	}
	dst := &Node{}
	Copy(dst, src)
	dst.Flags = src.Flags &^ FlagMark
	dst.Children = make([]*Node, len(src.Children))
	for i, c := range src.Children {
		nc := DeepCopy(c)
		nc.Parent = dst
		dst.Children[i] = nc
	}
	return dst
}

// Purge detaches node from its parent and releases its subtree. Go's
// garbage collector reclaims the memory once no reference remains; Purge's
// job is solely to break the parent<->child link so the detached node is
// no longer reachable from the tree it was removed from.
func Purge(node *Node) {
	if node == nil || node.Parent == nil {
		if node != nil {
			node.Parent = nil
		}
		return
	}
	p := node.Parent
	switch node.Kind {
	case Attribute:
		p.Attrs = removeNode(p.Attrs, node)
	default:
		p.Children = removeNode(p.Children, node)
	}
	node.Parent = nil
}

func removeNode(list []*Node, target *Node) []*Node {
	for i, n := range list {
		if n == target {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}
