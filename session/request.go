// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import (
	"time"

	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/tree"
)

// request defines the alphabet of the actor's request channel: a
// polymorphic channel of structs, one per RPC, each carrying its own
// response channel.
type request interface{ reqty() }

type getConfigReq struct {
	target *datastore.Datastore
	filter string
	mode   datastore.DefaultsMode
	resp   chan getConfigResp
}
type getConfigResp struct {
	tree *tree.Node
	err  error
}

func (*getConfigReq) reqty() {}

type getReq struct {
	filter string
	mode   datastore.DefaultsMode
	resp   chan getResp
}
type getResp struct {
	tree  *tree.Node
	err   error
	warns []error
}

func (*getReq) reqty() {}

type editConfigReq struct {
	target        *datastore.Datastore
	opDefault     string
	config        *tree.Node
	testOnly      bool
	errStopOnFail bool
	resp          chan error
}

func (*editConfigReq) reqty() {}

type copyConfigReq struct {
	source, target *datastore.Datastore
	resp           chan error
}

func (*copyConfigReq) reqty() {}

type deleteConfigReq struct {
	target *datastore.Datastore
	resp   chan error
}

func (*deleteConfigReq) reqty() {}

type lockReq struct {
	target *datastore.Datastore
	resp   chan error
}

func (*lockReq) reqty() {}

type unlockReq struct {
	target *datastore.Datastore
	resp   chan error
}

func (*unlockReq) reqty() {}

type commitReq struct {
	message string
	confirm time.Duration // zero means an ordinary, non-confirmed commit
	resp    chan error
}

func (*commitReq) reqty() {}

type confirmCommitReq struct {
	resp chan error
}

func (*confirmCommitReq) reqty() {}

type discardReq struct {
	resp chan error
}

func (*discardReq) reqty() {}

type validateReq struct {
	resp chan error
}

func (*validateReq) reqty() {}

type closeReq struct {
	resp chan struct{}
}

func (*closeReq) reqty() {}

type rpcReq struct {
	name  string
	input *tree.Node
	resp  chan rpcResp
}
type rpcResp struct {
	output *tree.Node
	err    error
}

func (*rpcReq) reqty() {}
