// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package commit

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/mgmterror"
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// Plugin-capability interfaces (spec section 9, "Plugin dispatch": "a
// capability-set interface with optional methods"). An application
// registers any value implementing any subset of these; the Engine
// dispatches to whichever a given plugin actually satisfies.
type (
	Validator interface{ Validate(tx *Transaction) error }
	Preparer  interface{ PrepareCommit(tx *Transaction) error }
	Committer interface{ Commit(tx *Transaction) }
	Reverter  interface{ Revert(tx *Transaction) }
)

// ValidationErrors accumulates every constraint violation a single
// validate pass found, rather than stopping at the first one (spec
// section 9: "accumulate into a list of structured errors ... so a single
// validate can report every violation").
type ValidationErrors []*mgmterror.Error

func (v ValidationErrors) Error() string {
	if len(v) == 1 {
		return v[0].Error()
	}
	return fmt.Sprintf("%d validation errors, first: %s", len(v), v[0].Error())
}

// Engine drives the candidate->running commit state machine of spec
// section 4.E over whatever plugins have been registered, in
// registration order (reverse order for revert).
type Engine struct {
	plugins  []interface{}
	models   *yangmodel.ModelSet
	resolver *mount.Resolver
	log      zerolog.Logger
}

// NewEngine builds a commit engine validating and evaluating must/when
// against models (and, beneath a mount point, whatever resolver attaches
// there).
func NewEngine(models *yangmodel.ModelSet, resolver *mount.Resolver, log zerolog.Logger) *Engine {
	return &Engine{models: models, resolver: resolver, log: log}
}

// Register adds p to the plugin list. Registration order determines
// validate/prepare dispatch order; Revert runs in reverse.
func (e *Engine) Register(p interface{}) {
	e.plugins = append(e.plugins, p)
}

// Commit runs validate -> prepare-commit -> commit against ds's current
// running tree and candidate, per the state machine in spec section 4.E.
// A validate or prepare failure leaves ds untouched (full local failure /
// full revert); a commit-phase (post-swap) observer failure is logged,
// never propagated, since the swap has already happened.
func (e *Engine) Commit(ds *datastore.Datastore, candidate *tree.Node) error {
	source, err := ds.Root()
	if err != nil {
		return err
	}
	tx := newTransaction(uuid.NewString(), source, candidate)
	l := e.log.With().Str("txn", tx.ID).Str("datastore", ds.Name()).Logger()

	// S0 -> S1: validate. Local only: no plugin has been told to touch
	// external resources yet, so a failure here leaves everything as it
	// was, including the candidate (the caller's candidate datastore is
	// never touched by Engine.Commit itself).
	if errs := e.validate(tx); len(errs) > 0 {
		l.Warn().Int("violations", len(errs)).Msg("validate failed")
		return ValidationErrors(errs)
	}

	// S1 -> S2: prepare-commit. Any failure triggers a revert pass over
	// every plugin that has already seen Prepare, in reverse registration
	// order.
	prepared := make([]Preparer, 0, len(e.plugins))
	for _, p := range e.plugins {
		prep, ok := p.(Preparer)
		if !ok {
			continue
		}
		if err := prep.PrepareCommit(tx); err != nil {
			l.Error().Err(err).Msg("prepare-commit failed, reverting")
			e.revert(tx, prepared)
			return mgmterror.NewOperationFailedApplicationError()
		}
		prepared = append(prepared, prep)
	}

	// S2 -> S3: commit. Swap running's root for the edited candidate,
	// bump its version, then notify observers; no observer failure rolls
	// the swap back (spec section 4.E: "commit 'failures' (observer
	// errors) are reported but do not roll back").
	if err := ds.Write(candidate); err != nil {
		l.Error().Err(err).Msg("prepare-commit succeeded but write failed, reverting")
		e.revert(tx, prepared)
		return err
	}
	for _, p := range e.plugins {
		if obs, ok := p.(Committer); ok {
			func() {
				defer func() {
					if r := recover(); r != nil {
						l.Error().Interface("panic", r).Msg("commit observer panicked")
					}
				}()
				obs.Commit(tx)
			}()
		}
	}
	l.Info().Uint64("version", ds.Version()).Msg("committed")
	return nil
}

// Validate runs the validate phase only, against candidate as if it were
// about to be committed over ds's current running tree, without preparing,
// writing or notifying anything (spec section 6's standalone
// `validate(source)` RPC).
func (e *Engine) Validate(ds *datastore.Datastore, candidate *tree.Node) error {
	source, err := ds.Root()
	if err != nil {
		return err
	}
	tx := newTransaction(uuid.NewString(), source, candidate)
	if errs := e.validate(tx); len(errs) > 0 {
		return ValidationErrors(errs)
	}
	return nil
}

// revert calls Revert on every plugin in prepared (those that already saw
// PrepareCommit), in reverse registration order, per spec section 4.E.
func (e *Engine) revert(tx *Transaction, prepared []Preparer) {
	for i := len(prepared) - 1; i >= 0; i-- {
		if rev, ok := prepared[i].(Reverter); ok {
			rev.Revert(tx)
		}
	}
}
