// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package session orchestrates components A-F behind the actor-per-session
// design the teacher (danos-configd) uses: one goroutine per session,
// reachable only through its request channel, so the tree, datastore cache
// and commit engine are touched without synchronisation from within a
// single session (spec section 5).
package session

import "github.com/vyatta-confd/engine/tree"

// StateDataProvider answers the "statedata" plugin callback (spec section
// 6): given a filter xpath and the node it was rooted at, it returns the
// state-data subtree to merge into that point of a `get` reply, or
// ok=false if it has nothing to contribute there.
type StateDataProvider interface {
	StateData(xp string, at *tree.Node) (subtree *tree.Node, ok bool, err error)
}

// RPCHandler answers the "rpc" plugin callback: a YANG-declared RPC by
// name, given its input subtree.
type RPCHandler interface {
	RPC(name string, input *tree.Node) (output *tree.Node, err error)
}

// Notification is one event-stream message delivered to every subscriber
// of its stream (spec section 6, "create-subscription").
type Notification struct {
	Stream  string
	Event   *tree.Node
	EventID uint64
}
