// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import "github.com/vyatta-confd/engine/tree"

// Function is a custom XPath extension function, registered under a
// resolved module namespace (the empty namespace is the core function
// library implemented directly by functions.go). It receives already
// evaluated arguments.
type Function func(ctx *Context, args []Value) (Value, error)

// FunctionTable looks up a custom function by resolved namespace and
// local name (spec section "SUPPLEMENTED FEATURES": custom XPath
// functions, generalised from the teacher's yangc -custom-xpath-functions
// registration hook).
type FunctionTable map[string]map[string]Function

func (t FunctionTable) lookup(ns, name string) (Function, bool) {
	if t == nil {
		return nil, false
	}
	byName, ok := t[ns]
	if !ok {
		return nil, false
	}
	fn, ok := byName[name]
	return fn, ok
}

// Register adds fn under namespace ns (use "" for an unqualified custom
// function sharing the core library's namespace) and local name.
func (t FunctionTable) Register(ns, name string, fn Function) {
	byName, ok := t[ns]
	if !ok {
		byName = make(map[string]Function)
		t[ns] = byName
	}
	byName[name] = fn
}

// Context is the XPath evaluation context (section 2 of the spec): the
// context node, its position and the size of the node-set it came from,
// plus the variable bindings and custom functions available to must/when
// expressions evaluated against it.
type Context struct {
	Node     *tree.Node
	Root     *tree.Node
	Position int
	Size     int

	Vars      map[string]Value
	Functions FunctionTable

	// Current holds the value current() returns: normally the same as
	// the outermost call's Node, but inside a predicate the context node
	// changes while current() must keep referring to the node the
	// must/when statement was evaluated against (XPath 1.0's current()
	// extension, used pervasively by YANG leafref "path" expressions).
	Current *tree.Node
}

func (c *Context) child(n *tree.Node, pos, size int) *Context {
	cp := *c
	cp.Node = n
	cp.Position = pos
	cp.Size = size
	return &cp
}
