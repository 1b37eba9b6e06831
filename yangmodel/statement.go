// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package yangmodel is the YANG index (spec section 4.B): it wraps the
// module-loader's parsed statements (github.com/openconfig/goyang, the
// "module loader" spec.md assumes exists) into the richer per-statement
// view the rest of the engine needs — resolved types, cached list-key
// vectors, mount-point candidacy, and module/prefix/namespace lookup.
//
// The wrapping style follows
// _examples/other_examples/...neoul-yangtree__schema.go.go, which wraps
// *yang.Entry the same way for the same reason: goyang's Entry is a
// faithful parse of the schema but doesn't itself cache the
// engine-specific derived facts (schema order, key vector, mount
// candidacy) that get looked up on every bind and every XPath step.
package yangmodel

import (
	"strings"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/vyatta-confd/engine/tree"
)

// StatementFlags mirrors the flag set named in spec section 3.
type StatementFlags uint32

const (
	FlagMountPointCandidate StatementFlags = 1 << iota
	FlagMountPoint
)

// Statement wraps one parsed YANG statement. It implements tree.Spec so
// that a tree.Node can carry *Statement directly as its Spec back-
// reference.
type Statement struct {
	Entry *yang.Entry

	flags    StatementFlags
	keyNames []string  // cached key-name vector for list statements
	order    []string  // cached schema-declared child order
	typeInfo *TypeInfo // memoised resolved type, leaf/leaf-list only

	// mount is non-nil only on a statement whose extensions declared it a
	// mount-point candidate; it owns the per-canonical-path mounted specs
	// attached at bind time (spec section 4.F / "Mount-point binding").
	mount *mountBindings
}

// Wrap builds a Statement for e, computing the caches Statement needs
// (key names, child order, mount-point candidacy) once up front so that
// spec_of/resolve_type/key_names are O(1) thereafter.
func Wrap(e *yang.Entry) *Statement {
	s := &Statement{Entry: e}
	if e.Key != "" {
		s.keyNames = strings.Fields(e.Key)
	}
	if e.Dir != nil {
		order := make([]string, 0, len(e.Dir))
		for name := range e.Dir {
			order = append(order, name)
		}
		// goyang's Dir is a map and so has no inherent order; Wrap records
		// the names in map-iteration order, and ModelSet.indexEntry
		// (reached from Load and StatementOf) replaces it with the
		// declared order via SetChildOrder.
		s.order = order
	}
	if hasMountPointExtension(e) {
		s.flags |= FlagMountPointCandidate
	}
	return s
}

// SetChildOrder overrides the cached schema-declared order of s's data
// children. ModelSet.Load calls this once per container/list/module after
// parsing, using the order goyang exposed the substatements in, because
// goyang's Entry.Dir is a name-keyed map and loses declaration order.
func (s *Statement) SetChildOrder(names []string) {
	s.order = names
}

// hasMountPointExtension reports whether e carries the RFC 8528 YANG
// schema-mount extension ("mount-point", in the ietf-yang-schema-mount
// module's "yangmnt" prefix convention). goyang surfaces unrecognised
// extension statements on Entry.Exts; we match on the statement's local
// name since the module importing the extension may bind it to any
// prefix.
func hasMountPointExtension(e *yang.Entry) bool {
	for _, ext := range e.Exts {
		name := ext.Keyword
		if i := strings.IndexByte(name, ':'); i >= 0 {
			name = name[i+1:]
		}
		if name == "mount-point" {
			return true
		}
	}
	return false
}

// tree.Spec implementation.

func (s *Statement) SpecKind() tree.SpecKind {
	switch {
	case s.Entry == nil:
		return tree.SpecOther
	case s.Entry.IsLeafList():
		return tree.SpecLeafList
	case s.Entry.IsList():
		return tree.SpecList
	case s.Entry.IsContainer() || s.Entry.IsDir():
		return tree.SpecContainer
	case s.Entry.IsLeaf():
		return tree.SpecLeaf
	default:
		return tree.SpecOther
	}
}

func (s *Statement) KeyNames() []string { return s.keyNames }

func (s *Statement) ChildOrder(name string) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}
	return -1
}

func (s *Statement) HasPresence() bool {
	if s.Entry == nil {
		return false
	}
	if s.Entry.IsLeaf() || s.Entry.IsLeafList() {
		return true
	}
	// A non-presence container is transparent: it exists iff it has
	// children. goyang surfaces an explicit "presence" substatement as
	// Entry.Extra["presence"] on containers that declared one.
	if _, ok := s.Entry.Extra["presence"]; ok {
		return true
	}
	return s.Entry.IsList() || !s.Entry.IsDir()
}

func (s *Statement) IsConfig() bool {
	if s.Entry == nil {
		return true
	}
	return s.Entry.Config != yang.TSFalse
}

func (s *Statement) IsMountPointCandidate() bool {
	return s.flags&FlagMountPointCandidate != 0
}

// IsMountPoint reports whether this statement currently has a mounted
// schema attached (spec section 4.F). It's a stronger condition than
// IsMountPointCandidate: a candidate only becomes an active mount point
// once the bind-time callback actually returned a yang-library.
func (s *Statement) IsMountPoint() bool {
	return s.mount != nil && len(s.mount.byPath) > 0
}

func (s *Statement) Name() string {
	if s.Entry == nil {
		return ""
	}
	return s.Entry.Name
}
