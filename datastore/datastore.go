// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package datastore implements the named, file-backed configuration
// trees described in spec section 4.D: a read cache over a tree bound to
// YANG (directly or through a mounted schema), file persistence in
// either XML or JSON, per-datastore exclusive locking, and module-state
// reconciliation against whatever schema set was loaded when the file
// was last written.
package datastore

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vyatta-confd/engine/mgmterror"
	"github.com/vyatta-confd/engine/mount"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/xpath"
	"github.com/vyatta-confd/engine/yangmodel"
)

// Format selects the on-disk encoding a Datastore's backing file uses.
// Both must round-trip losslessly for the same schema (spec section 6).
type Format int

const (
	FormatXML Format = iota
	FormatJSON
)

// DefaultsMode selects how Read treats nodes carrying FlagDefault, per
// spec section 4.D.
type DefaultsMode int

const (
	DefaultsReportAll DefaultsMode = iota
	DefaultsTrim
	DefaultsExplicit
	DefaultsReportAllTagged
)

// LockRecord is the exclusive holder of a datastore's lock, or nil if
// unlocked.
type LockRecord struct {
	Holder string
	At     time.Time
}

// Datastore is one named, independently persisted configuration tree
// (spec section 3: "running", "candidate", "startup", or a user-defined
// name).
type Datastore struct {
	mu sync.Mutex // guards lock/version/root; the engine is otherwise
	// single-threaded per spec section 5, but the lock registry and
	// monitoring subtree (section 6) are read from a different request
	// than the one holding it, so we still serialise those few fields.

	name string
	path string
	fmt  Format

	models   *yangmodel.ModelSet
	resolver *mount.Resolver

	root    *tree.Node
	version uint64
	empty   bool
	lock    *LockRecord

	moduleState     []ModuleStateEntry
	moduleStateDiff ModuleStateDiff

	log zerolog.Logger
}

// New creates a Datastore named name, backed by the file at path, bound
// against models (and, beneath any mount point, whatever schema resolver
// attaches there). The datastore starts unloaded: the first Read loads
// and caches path's contents.
func New(name, path string, models *yangmodel.ModelSet, resolver *mount.Resolver, format Format, log zerolog.Logger) *Datastore {
	return &Datastore{
		name:     name,
		path:     path,
		fmt:      format,
		models:   models,
		resolver: resolver,
		empty:    true,
		log:      log.With().Str("datastore", name).Logger(),
	}
}

func (d *Datastore) Name() string    { return d.name }
func (d *Datastore) Version() uint64 { return d.version }
func (d *Datastore) Empty() bool     { return d.empty }

// Lock acquires the datastore's exclusive lock for session, per spec
// section 3's invariant ("no two datastore files may share an inline
// lock holder; locking is exclusive per datastore name") and section 8's
// lock-exclusion property.
func (d *Datastore) Lock(session string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lock != nil {
		d.log.Warn().Str("holder", d.lock.Holder).Str("requester", session).Msg("lock denied")
		return mgmterror.NewLockDeniedError(d.lock.Holder)
	}
	d.lock = &LockRecord{Holder: session, At: time.Now()}
	d.log.Debug().Str("session", session).Msg("locked")
	return nil
}

// Unlock releases the lock session holds. A non-holder's attempt fails
// with access-denied, per spec section 3/8.
func (d *Datastore) Unlock(session string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lock == nil {
		return nil
	}
	if d.lock.Holder != session {
		return mgmterror.NewAccessDeniedApplicationError()
	}
	d.lock = nil
	d.log.Debug().Str("session", session).Msg("unlocked")
	return nil
}

// LockedBy returns the current lock holder, the time the lock was taken
// and true, or ("", zero time, false) if unlocked. Used by the monitor package's per-datastore inventory (spec
// section 6).
func (d *Datastore) LockedBy() (string, time.Time, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lock == nil {
		return "", time.Time{}, false
	}
	return d.lock.Holder, d.lock.At, true
}

// RequireUnlockedOrHeldBy fails with access-denied if the datastore is
// locked by anyone other than session (spec section 8's "locked
// datastore" boundary behaviour). Callers performing edit-config invoke
// this before applying a patch.
func (d *Datastore) RequireUnlockedOrHeldBy(session string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.lock != nil && d.lock.Holder != session {
		return mgmterror.NewAccessDeniedApplicationError()
	}
	return nil
}

// ensureLoaded loads the backing file into d.root on first use.
func (d *Datastore) ensureLoaded() error {
	if d.root != nil {
		return nil
	}
	root, modState, err := d.load()
	if err != nil {
		return err
	}
	d.root = root
	d.moduleState = modState
	d.moduleStateDiff = DiffModuleState(modState, d.models)
	d.empty = len(root.Children) == 0
	return nil
}

// ModuleStateDiff returns the module-state diff computed when the
// backing file was last loaded (spec section 3, "Module-state diff").
// Upgrade callbacks registered with the commit engine consult this
// before binding proceeds (spec section 9, "Module-state upgrade").
func (d *Datastore) ModuleStateDiff() ModuleStateDiff {
	_ = d.ensureLoaded()
	return d.moduleStateDiff
}

// Read implements spec section 4.D's read operation. With no xpath
// filter the full cached tree is returned (defensively deep-copied so a
// caller's edits can't corrupt the cache); with one, a minimal ancestor-
// preserving projection is built instead, per the two strategies spec
// section 4.D describes.
func (d *Datastore) Read(xp string, mode DefaultsMode, withModuleState bool) (*tree.Node, []ModuleStateEntry, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, nil, err
	}

	var out *tree.Node
	if xp == "" {
		out = tree.DeepCopy(d.root)
	} else {
		matches, err := d.evalFilter(xp)
		if err != nil {
			return nil, nil, err
		}
		out = project(d.root, matches)
	}
	applyDefaultsFilter(out, mode)

	var modState []ModuleStateEntry
	if withModuleState {
		modState = d.moduleState
	}
	return out, modState, nil
}

// Filter projects root through xp (an xpath.Parse/Eval filter, bound
// against models) and mode, the same way Read does for a loaded
// Datastore's cached tree. It lets callers that hold a tree outside any
// Datastore — session's in-memory candidate, chief among them — reuse the
// same projection and defaults-mode logic rather than re-implementing it.
func Filter(root *tree.Node, models *yangmodel.ModelSet, xp string, mode DefaultsMode) (*tree.Node, error) {
	var out *tree.Node
	if xp == "" {
		out = tree.DeepCopy(root)
	} else {
		expr, err := xpath.Parse(xp, models)
		if err != nil {
			return nil, mgmterror.NewInvalidValueApplicationError()
		}
		ctx := &xpath.Context{Node: root, Root: root, Position: 1, Size: 1, Current: root}
		val, err := xpath.Eval(expr, ctx)
		if err != nil {
			return nil, fmt.Errorf("datastore: evaluating filter %q: %w", xp, err)
		}
		out = project(root, val.Nodes)
	}
	applyDefaultsFilter(out, mode)
	return out, nil
}

// evalFilter compiles and evaluates xp against the cached tree's root,
// returning the resulting node-set. Component C's list-key fast path
// (xpath.Eval -> tryListKeyFastPath) applies transparently here whenever
// xp's steps match the pattern.
func (d *Datastore) evalFilter(xp string) ([]*tree.Node, error) {
	expr, err := xpath.Parse(xp, d.models)
	if err != nil {
		return nil, mgmterror.NewInvalidValueApplicationError()
	}
	ctx := &xpath.Context{Node: d.root, Root: d.root, Position: 1, Size: 1, Current: d.root}
	val, err := xpath.Eval(expr, ctx)
	if err != nil {
		return nil, fmt.Errorf("datastore: evaluating filter %q: %w", xp, err)
	}
	return val.Nodes, nil
}

// Write replaces the datastore's root with tree, bumps its version, and
// persists it to the backing file (spec section 4.D's write operation).
// The cache is invalidated as part of the swap, so the next Read re-reads
// the freshly written file's projection semantics from the new root
// directly (no re-parse needed — the in-memory root *is* what gets
// serialised).
func (d *Datastore) Write(root *tree.Node) error {
	tree.SortRecurse(root)
	if err := d.save(root); err != nil {
		return err
	}
	d.mu.Lock()
	d.root = root
	d.version++
	d.empty = len(root.Children) == 0
	d.mu.Unlock()
	d.log.Info().Uint64("version", d.version).Msg("wrote datastore")
	return nil
}

// Root returns the live cached root without copying it. Callers that
// only read (the commit engine's transaction source, XPath evaluation)
// may use this directly; anything that might mutate must DeepCopy first.
func (d *Datastore) Root() (*tree.Node, error) {
	if err := d.ensureLoaded(); err != nil {
		return nil, err
	}
	return d.root, nil
}

// Copy replaces dst's contents with a deep copy of src's current tree
// (spec section 4.D's copy-config operation), persisting the result.
func Copy(src, dst *Datastore) error {
	root, err := src.Root()
	if err != nil {
		return err
	}
	return dst.Write(tree.DeepCopy(root))
}

// Delete empties the datastore (spec section 4.D's delete-config
// operation): the backing file becomes an empty "config" root.
func (d *Datastore) Delete() error {
	return d.Write(tree.NewRoot("config"))
}
