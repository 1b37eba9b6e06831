// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package tree implements the generic, YANG-bindable hierarchical node
// model described in spec section 4.A: a sum-typed Element/Attribute/
// Body/Comment/PI node with a sorted-child invariant derived from the
// YANG statement a node is bound to.
//
// Node uses ordinary *Node parent pointers rather than an arena of stable
// indices. The original design note about cyclic ownership addresses a
// non-garbage-collected implementation language; in Go, cycles between a
// parent and its children are reclaimed by the garbage collector like any
// other unreachable graph, so the extra indirection buys nothing here.
package tree

// Kind distinguishes the node variants the spec calls out.
type Kind int

const (
	Element Kind = iota
	Attribute
	Body
	Comment
	PI
)

func (k Kind) String() string {
	switch k {
	case Element:
		return "element"
	case Attribute:
		return "attribute"
	case Body:
		return "body"
	case Comment:
		return "comment"
	case PI:
		return "pi"
	default:
		return "unknown"
	}
}

// Flags is the bitmask carried by every node.
type Flags uint32

const (
	FlagAdd Flags = 1 << iota
	FlagDel
	FlagChange
	FlagMark
	FlagDefault
	FlagTop
	FlagMountPoint
)

// SpecKind is the subset of YANG statement kinds the tree package needs to
// know about in order to keep the sorted-child invariant and resolve list
// keys. yangmodel.Statement implements Spec.
type SpecKind int

const (
	SpecOther SpecKind = iota
	SpecContainer
	SpecList
	SpecLeaf
	SpecLeafList
)

// Spec is the YANG back-reference a node may carry. It is defined here,
// rather than imported from yangmodel, so that tree has no dependency on
// the YANG index; yangmodel.Statement implements it instead.
type Spec interface {
	SpecKind() SpecKind
	KeyNames() []string
	// ChildOrder returns the declared schema-order position of the named
	// child statement under this container/list, or -1 if name is not a
	// known child (e.g. it belongs to a mounted or as-yet-unbound schema).
	ChildOrder(name string) int
	HasPresence() bool
	IsConfig() bool
	IsMountPointCandidate() bool
}

// Node is one node of the configuration tree.
type Node struct {
	Kind   Kind
	Name   string
	Prefix string
	Value  string // Body/Attribute/Comment/PI payload

	Parent   *Node
	Children []*Node // Element/Body/Comment/PI children, in sorted-child order
	Attrs    []*Node // Kind == Attribute; never a data child

	Spec  Spec
	Flags Flags
}

// New appends a freshly created node to parent (if non-nil) and returns it.
func New(name string, parent *Node, kind Kind) *Node {
	n := &Node{Kind: kind, Name: name, Parent: parent}
	if parent != nil {
		switch kind {
		case Attribute:
			parent.Attrs = append(parent.Attrs, n)
		default:
			parent.Children = append(parent.Children, n)
		}
	}
	return n
}

// NewRoot creates an unparented root node, e.g. the "config" root of a
// datastore.
func NewRoot(name string) *Node {
	return &Node{Kind: Element, Name: name}
}

// FlagSet, FlagClear and FlagTest implement the mask operations named in
// spec section 4.A.
func (n *Node) FlagSet(f Flags)        { n.Flags |= f }
func (n *Node) FlagClear(f Flags)      { n.Flags &^= f }
func (n *Node) FlagTest(f Flags) bool  { return n.Flags&f != 0 }
func (n *Node) IsDefault() bool        { return n.FlagTest(FlagDefault) }
func (n *Node) IsMountPoint() bool     { return n.FlagTest(FlagMountPoint) }

// ApplyAncestor walks from n to the root, inclusive, invoking fn on each
// node in turn. It stops early if fn returns false.
func ApplyAncestor(n *Node, fn func(*Node) bool) {
	for cur := n; cur != nil; cur = cur.Parent {
		if !fn(cur) {
			return
		}
	}
}

// Attr returns the named attribute, or nil.
func (n *Node) Attr(name string) *Node {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Child returns the first data child with the given name. For list entries
// sharing a name, use FindIndex with a key tuple instead.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Kind == Element && c.Name == name {
			return c
		}
	}
	return nil
}

// ChildrenNamed returns every data child with the given name, in tree
// order. For a sorted list this is exactly the list's entries.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Kind == Element && c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// KeyValues returns the values of this node's declared key leaves, in key
// order, assuming n is a list entry. It is a bug (spec section 3 invariant)
// for a list entry to be missing a declared key leaf; callers that must
// tolerate malformed input should check KeyValuesOK instead.
func (n *Node) KeyValues() []string {
	vals, _ := n.KeyValuesOK()
	return vals
}

func (n *Node) KeyValuesOK() ([]string, bool) {
	if n.Spec == nil {
		return nil, false
	}
	keys := n.Spec.KeyNames()
	if keys == nil {
		return nil, false
	}
	vals := make([]string, len(keys))
	for i, k := range keys {
		ch := n.Child(k)
		if ch == nil {
			return nil, false
		}
		vals[i] = bodyValue(ch)
	}
	return vals, true
}

// bodyValue returns the textual value of a leaf element: the value carried
// by its single Body child, or "" if it has none (an empty leaf).
func bodyValue(leaf *Node) string {
	for _, c := range leaf.Children {
		if c.Kind == Body {
			return c.Value
		}
	}
	return leaf.Value
}

// SetBody replaces n's Body child (creating one if absent) with value. n
// must be an Element representing a leaf or leaf-list entry.
func (n *Node) SetBody(value string) {
	for _, c := range n.Children {
		if c.Kind == Body {
			c.Value = value
			return
		}
	}
	New(value, n, Body).Value = value
}

func (n *Node) String() string {
	return bodyValue(n)
}
