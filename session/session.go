// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import (
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/vyatta-confd/engine/commit"
	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// Session is the client-facing handle onto one actor goroutine. Every
// method sends a request and blocks for the matching response, following
// the teacher's channel-request idiom (danos-configd's session.go).
type Session struct {
	id string
	s  *session
}

// SessionOption configures a Session before its actor goroutine starts.
type SessionOption func(*session)

// WithStateDataProvider registers a plugin contributing state data to
// `get` (spec section 6's "statedata" plugin callback).
func WithStateDataProvider(p StateDataProvider) SessionOption {
	return func(s *session) { s.stateProviders = append(s.stateProviders, p) }
}

// WithRPCHandler registers a plugin answering YANG-declared RPCs.
func WithRPCHandler(h RPCHandler) SessionOption {
	return func(s *session) { s.rpcHandlers = append(s.rpcHandlers, h) }
}

// WithConfirmedCommit enables Session.CommitConfirmed/ConfirmCommit,
// backed by a commit.ConfirmedCommit already registered on the shared
// engine (spec's supplemented confirmed-commit feature).
func WithConfirmedCommit(cc *commit.ConfirmedCommit) SessionOption {
	return func(s *session) { s.confirmedCommit = cc }
}

// NewSession starts a new session actor against running, candidate seeded
// from running's current tree, using engine for commit/validate and
// models/resolver for binding and filtering.
func NewSession(id string, running *datastore.Datastore, engine *commit.Engine, models *yangmodel.ModelSet, resolver *mount.Resolver, log zerolog.Logger, opts ...SessionOption) (*Session, error) {
	s, err := newSession(id, running, engine, models, resolver, log)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.run()
	return &Session{id: id, s: s}, nil
}

// ID returns the session's identifier.
func (sess *Session) ID() string { return sess.id }

var errSessionTerminated = errors.New("session: terminated")

// GetConfig answers get-config(source, filter, defaults). target == nil
// reads this session's own candidate; a non-nil target reads that
// persisted datastore directly (e.g. the shared running datastore, or
// "startup").
func (sess *Session) GetConfig(target *datastore.Datastore, filter string, mode datastore.DefaultsMode) (*tree.Node, error) {
	resp := make(chan getConfigResp)
	req := &getConfigReq{target: target, filter: filter, mode: mode, resp: resp}
	select {
	case sess.s.reqch <- req:
		r := <-resp
		return r.tree, r.err
	case <-sess.s.term:
		return nil, errSessionTerminated
	}
}

// Get answers get(filter, defaults): running merged with every registered
// state-data provider's contribution. warns holds non-fatal provider
// errors (spec section 6: "error is fatal; warnings relate to specific
// parts of the tree not returning valid data" — mirroring the teacher's
// GetFullTree three-valued return).
func (sess *Session) Get(filter string, mode datastore.DefaultsMode) (*tree.Node, []error, error) {
	resp := make(chan getResp)
	req := &getReq{filter: filter, mode: mode, resp: resp}
	select {
	case sess.s.reqch <- req:
		r := <-resp
		return r.tree, r.warns, r.err
	case <-sess.s.term:
		return nil, nil, errSessionTerminated
	}
}

// EditConfig answers edit-config(target, operation-default, config).
// target == nil edits this session's own candidate.
func (sess *Session) EditConfig(target *datastore.Datastore, opDefault string, config *tree.Node) error {
	resp := make(chan error)
	req := &editConfigReq{target: target, opDefault: opDefault, config: config, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// CopyConfig answers copy-config(source, target). Either side may be nil
// to mean this session's own candidate.
func (sess *Session) CopyConfig(source, target *datastore.Datastore) error {
	resp := make(chan error)
	req := &copyConfigReq{source: source, target: target, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// DeleteConfig answers delete-config(target). target == nil empties this
// session's own candidate.
func (sess *Session) DeleteConfig(target *datastore.Datastore) error {
	resp := make(chan error)
	req := &deleteConfigReq{target: target, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// Lock answers lock(target) (spec section 8's lock-exclusion property).
func (sess *Session) Lock(target *datastore.Datastore) error {
	resp := make(chan error)
	req := &lockReq{target: target, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// Unlock answers unlock(target).
func (sess *Session) Unlock(target *datastore.Datastore) error {
	resp := make(chan error)
	req := &unlockReq{target: target, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// Commit answers commit: the candidate->running two-phase state machine
// of spec section 4.E, against this session's candidate.
func (sess *Session) Commit(message string) error {
	resp := make(chan error)
	req := &commitReq{message: message, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// CommitConfirmed answers the confirmed-commit extension's <commit>
// <confirmed/> operation (RFC 6241 8.4, spec's supplemented confirmed-
// commit feature): the commit auto-reverts to the prior running tree
// unless ConfirmCommit is called within timeout. Returns
// mgmterror.NewOperationNotSupportedApplicationError if no
// commit.ConfirmedCommit was wired in via WithConfirmedCommit.
func (sess *Session) CommitConfirmed(message string, timeout time.Duration) error {
	resp := make(chan error)
	req := &commitReq{message: message, confirm: timeout, resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// ConfirmCommit answers the confirmed-commit extension's <confirm>
// follow-up, cancelling the pending auto-revert armed by CommitConfirmed.
func (sess *Session) ConfirmCommit() error {
	resp := make(chan error)
	req := &confirmCommitReq{resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// DiscardChanges answers discard-changes: the candidate reverts to
// running's current tree.
func (sess *Session) DiscardChanges() error {
	resp := make(chan error)
	req := &discardReq{resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// Validate answers validate(source): runs the commit engine's validate
// phase against the candidate without preparing, writing or notifying
// anything.
func (sess *Session) Validate() error {
	resp := make(chan error)
	req := &validateReq{resp: resp}
	select {
	case sess.s.reqch <- req:
		return <-resp
	case <-sess.s.term:
		return errSessionTerminated
	}
}

// RPC answers the plugin callback surface's `rpc(name, input) -> output`
// (spec section 6), dispatching to every registered RPCHandler.
func (sess *Session) RPC(name string, input *tree.Node) (*tree.Node, error) {
	resp := make(chan rpcResp)
	req := &rpcReq{name: name, input: input, resp: resp}
	select {
	case sess.s.reqch <- req:
		r := <-resp
		return r.output, r.err
	case <-sess.s.term:
		return nil, errSessionTerminated
	}
}

// Close answers close-session: the actor goroutine exits and every
// subsequent request on this handle fails with errSessionTerminated. Any
// lock this session holds is NOT released here — the Manager releases it,
// since a datastore may outlive any one session.
func (sess *Session) Close() {
	resp := make(chan struct{})
	select {
	case sess.s.reqch <- &closeReq{resp: resp}:
		<-resp
	case <-sess.s.term:
	}
	close(sess.s.kill)
	<-sess.s.term
}

// CreateSubscription answers create-subscription(stream, filter): it
// registers a channel that receives every Notification published to
// stream for this session's lifetime (spec section 6). The returned
// cancel func unregisters it; callers must call it to avoid a goroutine
// leak on the publishing side.
func (sess *Session) CreateSubscription(stream string) (<-chan Notification, func()) {
	ch := make(chan Notification, 16)
	sess.s.subsMu.Lock()
	sess.s.subs[stream] = append(sess.s.subs[stream], ch)
	sess.s.subsMu.Unlock()

	cancel := func() {
		sess.s.subsMu.Lock()
		defer sess.s.subsMu.Unlock()
		list := sess.s.subs[stream]
		for i, c := range list {
			if c == ch {
				sess.s.subs[stream] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		close(ch)
	}
	return ch, cancel
}

// Publish delivers n to every subscriber of n.Stream on this session.
// Typically called by a Committer plugin registered with the shared
// commit.Engine. Publish does not add to Stats.OutNotification.
func (sess *Session) Publish(n Notification) {
	sess.s.publish(n)
}
