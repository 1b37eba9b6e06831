// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vyatta-confd/engine/commit"
	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/mgmterror"
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// session is the actor goroutine's private state. Every field here is
// touched only from run(), never directly from a Session method, which is
// what lets a request proceed without locks (spec section 5).
type session struct {
	id      string
	running *datastore.Datastore
	engine  *commit.Engine

	models   *yangmodel.ModelSet
	resolver *mount.Resolver

	candidate *tree.Node

	stateProviders  []StateDataProvider
	rpcHandlers     []RPCHandler
	confirmedCommit *commit.ConfirmedCommit

	subsMu sync.Mutex
	subs   map[string][]chan Notification

	log zerolog.Logger

	reqch chan request
	kill  chan struct{}
	term  chan struct{}
}

func newSession(id string, running *datastore.Datastore, engine *commit.Engine, models *yangmodel.ModelSet, resolver *mount.Resolver, log zerolog.Logger) (*session, error) {
	runningRoot, err := running.Root()
	if err != nil {
		return nil, err
	}
	s := &session{
		id:        id,
		running:   running,
		engine:    engine,
		models:    models,
		resolver:  resolver,
		candidate: tree.DeepCopy(runningRoot),
		subs:      make(map[string][]chan Notification),
		log:       log.With().Str("session", id).Logger(),
		reqch:     make(chan request),
		kill:      make(chan struct{}),
		term:      make(chan struct{}),
	}
	return s, nil
}

func (s *session) run() {
	for {
		select {
		case req := <-s.reqch:
			s.processreq(req)
		case <-s.kill:
			close(s.term)
			return
		}
	}
}

func (s *session) processreq(req request) {
	switch v := req.(type) {
	case *getConfigReq:
		out, err := s.doGetConfig(v.target, v.filter, v.mode)
		v.resp <- getConfigResp{tree: out, err: err}
	case *getReq:
		out, warns, err := s.doGet(v.filter, v.mode)
		v.resp <- getResp{tree: out, warns: warns, err: err}
	case *editConfigReq:
		v.resp <- s.doEditConfig(v.target, v.opDefault, v.config)
	case *copyConfigReq:
		v.resp <- s.doCopyConfig(v.source, v.target)
	case *deleteConfigReq:
		v.resp <- s.doDeleteConfig(v.target)
	case *lockReq:
		v.resp <- v.target.Lock(s.id)
	case *unlockReq:
		v.resp <- v.target.Unlock(s.id)
	case *commitReq:
		v.resp <- s.doCommit(v.message, v.confirm)
	case *confirmCommitReq:
		v.resp <- s.doConfirmCommit()
	case *discardReq:
		v.resp <- s.doDiscard()
	case *validateReq:
		v.resp <- s.engine.Validate(s.running, s.candidate)
	case *closeReq:
		s.log.Debug().Msg("session closed")
		close(v.resp)
	case *rpcReq:
		out, err := s.doRPC(v.name, v.input)
		v.resp <- rpcResp{output: out, err: err}
	}
}

// doRPC answers a YANG-declared RPC by dispatching to every registered
// RPCHandler in registration order, returning the first one that claims
// the name (a non-nil output or error).
func (s *session) doRPC(name string, input *tree.Node) (*tree.Node, error) {
	for _, h := range s.rpcHandlers {
		out, err := h.RPC(name, input)
		if out != nil || err != nil {
			return out, err
		}
	}
	return nil, mgmterror.NewUnknownElementApplicationError(name)
}

// doGetConfig answers get-config (spec section 6): target == nil reads
// this session's candidate; otherwise it reads the named persisted
// datastore directly (covers "running", "startup", or any other
// application-registered datastore).
func (s *session) doGetConfig(target *datastore.Datastore, filter string, mode datastore.DefaultsMode) (*tree.Node, error) {
	if target == nil {
		return datastore.Filter(s.candidate, s.models, filter, mode)
	}
	out, _, err := target.Read(filter, mode, false)
	return out, err
}

// doGet answers get (spec section 6): running's config plus whatever
// every registered state-data provider contributes, merged into the
// result. Each provider is called once, with the filter and the root of
// the read result; providers are not called separately per mount point.
func (s *session) doGet(filter string, mode datastore.DefaultsMode) (*tree.Node, []error, error) {
	out, _, err := s.running.Read(filter, mode, false)
	if err != nil {
		return nil, nil, err
	}
	var warns []error
	for _, p := range s.stateProviders {
		subtree, ok, err := p.StateData(filter, out)
		if err != nil {
			warns = append(warns, err)
			continue
		}
		if !ok || subtree == nil {
			continue
		}
		mergeState(out, subtree)
	}
	return out, warns, nil
}

// mergeState inserts each of subtree's top-level children into dst,
// skipping any name dst already carries (config data takes precedence
// over a provider that mistakenly claims the same node).
func mergeState(dst, subtree *tree.Node) {
	for _, c := range subtree.Children {
		if c.Kind != tree.Element {
			continue
		}
		if dst.Child(c.Name) != nil {
			continue
		}
		cp := tree.DeepCopy(c)
		_ = tree.Insert(dst, cp, tree.PosSchemaOrder, nil, nil)
	}
}

// doEditConfig answers edit-config (spec section 6): target == nil edits
// this session's own candidate; otherwise the patch is applied directly
// to the named datastore's live tree and persisted (used by front-ends
// with write-running capability).
func (s *session) doEditConfig(target *datastore.Datastore, opDefault string, config *tree.Node) error {
	applyDefaultOperation(config, opDefault)
	if target == nil {
		return commit.Edit(s.candidate, config)
	}
	if err := target.RequireUnlockedOrHeldBy(s.id); err != nil {
		return err
	}
	root, err := target.Root()
	if err != nil {
		return err
	}
	working := tree.DeepCopy(root)
	if err := commit.Edit(working, config); err != nil {
		return err
	}
	return target.Write(working)
}

// applyDefaultOperation sets patch's own top-level children to opDefault
// wherever they carry no explicit "operation" attribute, per spec
// section 6's edit-config(target, operation-default, config) signature.
func applyDefaultOperation(patch *tree.Node, opDefault string) {
	if opDefault == "" {
		return
	}
	for _, c := range patch.Children {
		if c.Kind != tree.Element {
			continue
		}
		if c.Attr("operation") == nil {
			tree.New("operation", c, tree.Attribute).Value = opDefault
		}
	}
}

func (s *session) doCopyConfig(source, target *datastore.Datastore) error {
	switch {
	case source == nil && target == nil:
		return nil
	case source == nil: // copy-config(candidate, target)
		return target.Write(tree.DeepCopy(s.candidate))
	case target == nil: // copy-config(source, candidate)
		root, err := source.Root()
		if err != nil {
			return err
		}
		s.candidate = tree.DeepCopy(root)
		return nil
	default:
		return datastore.Copy(source, target)
	}
}

func (s *session) doDeleteConfig(target *datastore.Datastore) error {
	if target == nil {
		s.candidate = tree.NewRoot("config")
		return nil
	}
	return target.Delete()
}

// doCommit answers commit (spec section 6): the candidate->running
// two-phase state machine of section 4.E, driven by the engine shared
// across every session against a copy of this session's own candidate
// (the committed tree becomes running's root, so the candidate itself
// stays private to this session). A non-zero
// confirm arms the confirmed-commit auto-revert (spec's supplemented
// confirmed-commit feature) before the commit is attempted, so an
// auto-revert has something to restore even if this call's own commit is
// the one that times out.
func (s *session) doCommit(message string, confirm time.Duration) error {
	if confirm > 0 {
		if s.confirmedCommit == nil {
			return mgmterror.NewOperationNotSupportedApplicationError()
		}
		s.confirmedCommit.RequestConfirmation(confirm)
	}
	if err := s.engine.Commit(s.running, tree.DeepCopy(s.candidate)); err != nil {
		return err
	}
	s.log.Info().Str("message", message).Bool("confirmed", confirm > 0).Msg("commit")
	return nil
}

// doConfirmCommit answers the confirmed-commit extension's <confirm>
// follow-up: cancel any pending auto-revert, making the last confirmed
// commit permanent.
func (s *session) doConfirmCommit() error {
	if s.confirmedCommit == nil {
		return mgmterror.NewOperationNotSupportedApplicationError()
	}
	s.confirmedCommit.Confirm()
	return nil
}

// doDiscard answers discard-changes: the candidate reverts to exactly
// running's current tree.
func (s *session) doDiscard() error {
	root, err := s.running.Root()
	if err != nil {
		return err
	}
	s.candidate = tree.DeepCopy(root)
	return nil
}

func (s *session) publish(n Notification) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs[n.Stream] {
		select {
		case ch <- n:
		case <-time.After(time.Second):
			s.log.Warn().Str("stream", n.Stream).Msg("subscriber too slow, dropping notification")
		}
	}
}
