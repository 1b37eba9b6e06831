// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package mount implements the schema-mount resolver (spec section 4.F):
// for each mount-point candidate the bind pass encounters, it asks the
// application for a yang-library description, loads the modules it
// names into a fresh yangmodel.ModelSet, and attaches that set to the
// data node so later bind, validate and XPath work under the mounted
// schema rather than the global one (RFC 8528).
package mount

import (
	"fmt"

	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

// Module names one yang-library "module" list entry: a module the
// mounted schema must load, at a specific revision.
type Module struct {
	Name      string
	Namespace string
	Revision  string
}

// Lib is the yang-library (or legacy modules-state) description a
// mount-point callback returns: the module set the mounted subtree's
// schema is built from.
type Lib struct {
	Modules   []Module
	ContentID string
}

// Callback resolves the yang-library governing the mount point reached by
// node (whose Spec is a mount-point candidate), given canonicalPath — the
// node's canonical XPath, used as the mount-binding key (spec section 3,
// "Mount-point binding"). Returning ok=false means node isn't actually
// mounting a schema at this point (the candidate extension exists in the
// schema but the application declines to mount here).
type Callback func(node *tree.Node, canonicalPath string) (lib *Lib, ok bool, err error)

// Loader loads the modules a Lib names into a fresh ModelSet. The
// resolver calls this once per distinct mount binding; the module
// loader's file-resolution (spec section 1: "we assume a module loader
// exists") is the caller's concern, not the resolver's.
type Loader func(lib *Lib) (*yangmodel.ModelSet, error)

// Resolver is the engine-wide schema-mount state: one resolver per
// running engine context, shared by every datastore's bind pass and by
// the XPath evaluator's mount lookups.
type Resolver struct {
	global   *yangmodel.ModelSet
	callback Callback
	loader   Loader

	// bindings indexes every mount currently attached, by canonical path,
	// so ResolveAt can tell a freshly-encountered mount point from one
	// it's already loaded.
	bindings map[string]*yangmodel.ModelSet
}

// NewResolver builds a resolver that falls back to global when a node
// carries no mount, and calls cb/load to resolve and materialise new
// mounts as the bind pass discovers them.
func NewResolver(global *yangmodel.ModelSet, cb Callback, load Loader) *Resolver {
	return &Resolver{
		global:   global,
		callback: cb,
		loader:   load,
		bindings: make(map[string]*yangmodel.ModelSet),
	}
}

// Global returns the engine's global (unmounted) schema set.
func (r *Resolver) Global() *yangmodel.ModelSet { return r.global }

// ResolveAt is called by the bind pass when it reaches a data node node
// whose spec is a mount-point candidate; it computes node's canonical
// XPath itself with CanonicalPath. If the application's callback returns a yang-library,
// the modules are loaded and attached; the bind pass should then rebind
// node's existing children (gathered as generic elements in the first
// pass) against the returned set before descending further, per spec
// section 4.F: "Children seen before the callback result in generic
// elements pending a second pass."
func (r *Resolver) ResolveAt(node *tree.Node) (*yangmodel.ModelSet, bool, error) {
	stmt, ok := node.Spec.(*yangmodel.Statement)
	if !ok || stmt == nil || !stmt.IsMountPointCandidate() {
		return nil, false, nil
	}
	canonicalPath := CanonicalPath(node)
	if set, ok := r.bindings[canonicalPath]; ok {
		return set, true, nil
	}
	if r.callback == nil {
		return nil, false, nil
	}
	lib, ok, err := r.callback(node, canonicalPath)
	if err != nil {
		return nil, false, fmt.Errorf("mount: yang_lib_for(%s): %w", canonicalPath, err)
	}
	if !ok || lib == nil {
		return nil, false, nil
	}
	set, err := r.loader(lib)
	if err != nil {
		return nil, false, fmt.Errorf("mount: loading yang-library for %s: %w", canonicalPath, err)
	}
	stmt.Mount(canonicalPath, set)
	node.FlagSet(tree.FlagMountPoint)
	r.bindings[canonicalPath] = set
	return set, true, nil
}

// SpecFor implements the lookup contract of spec section 4.F: it returns
// the ModelSet governing node — the schema attached at the nearest
// mount-point ancestor (inclusive) of node, or the global schema if node
// is not beneath any mount. Every spec lookup the evaluator and validator
// perform beneath a mount MUST go through this, not r.Global() directly.
func (r *Resolver) SpecFor(node *tree.Node) *yangmodel.ModelSet {
	var found *yangmodel.ModelSet
	tree.ApplyAncestor(node, func(n *tree.Node) bool {
		if !n.IsMountPoint() {
			return true
		}
		stmt, ok := n.Spec.(*yangmodel.Statement)
		if !ok {
			return true
		}
		if set, ok := stmt.MountedSet(CanonicalPath(n)); ok {
			found = set
			return false
		}
		return true
	})
	if found != nil {
		return found
	}
	return r.global
}

// Unmount detaches the mount at canonicalPath (spec section 4.F,
// "Freeing": mount specs are owned by the declaring statement and
// released when it is released; Unmount is the release call for a single
// binding, e.g. when a mounted device is removed from the tree).
func (r *Resolver) Unmount(node *tree.Node, canonicalPath string) {
	if stmt, ok := node.Spec.(*yangmodel.Statement); ok {
		stmt.Unmount(canonicalPath)
	}
	delete(r.bindings, canonicalPath)
	node.FlagClear(tree.FlagMountPoint)
}

// CanonicalPath builds the canonical (module-prefix-qualified in
// principle; name-qualified here since tree.Node doesn't carry a
// resolved namespace per step) XPath of node, used as the stable mount-
// binding key described in spec section 3 and the GLOSSARY.
func CanonicalPath(node *tree.Node) string {
	if node == nil {
		return "/"
	}
	var segs []string
	for n := node; n != nil && n.Parent != nil; n = n.Parent {
		seg := n.Name
		if kv, ok := n.KeyValuesOK(); ok && len(kv) > 0 {
			seg = fmt.Sprintf("%s[%v]", n.Name, kv)
		}
		segs = append([]string{seg}, segs...)
	}
	path := ""
	for _, s := range segs {
		path += "/" + s
	}
	if path == "" {
		path = "/"
	}
	return path
}
