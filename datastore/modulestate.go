// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"sort"

	"github.com/cespare/xxhash/v2"
	"github.com/vyatta-confd/engine/yangmodel"
)

// ModuleStateEntry is one {module, namespace, revision} triple as read
// from a datastore file's yang-library/module-set (RFC 8525) or legacy
// modules-state (RFC 7895) child (spec section 3, "Module-state diff").
type ModuleStateEntry struct {
	Module    string
	Namespace string
	Revision  string
}

// ChangeKind classifies one module between the file's declared set and
// the engine's currently loaded (running) schema set.
type ChangeKind int

const (
	Unchanged ChangeKind = iota
	Added
	Deleted
	Changed
)

// ModuleStateDiff is produced while reading a datastore file: for every
// module named in the file and every module in the running schema set,
// it classifies ADD/DEL/CHANGE/unchanged, plus a content-identifier
// scalar (spec section 3 and SPEC_FULL's "module-content-id tracking"
// supplement, from clixon's yang-library content-id leaf) so an upgrade
// callback can short-circuit when nothing changed.
type ModuleStateDiff struct {
	Entries   map[string]ChangeKind
	ContentID uint64
}

// DiffModuleState compares fileModules (what the datastore file
// declared) against the modules currently loaded in running.
func DiffModuleState(fileModules []ModuleStateEntry, running *yangmodel.ModelSet) ModuleStateDiff {
	diff := ModuleStateDiff{Entries: make(map[string]ChangeKind, len(fileModules))}

	fileByName := make(map[string]ModuleStateEntry, len(fileModules))
	for _, m := range fileModules {
		fileByName[m.Module] = m
	}

	for _, m := range fileModules {
		mod, ok := running.FindModuleByNamespace(m.Namespace)
		switch {
		case !ok:
			diff.Entries[m.Module] = Deleted
		case mod.Current() != m.Revision:
			diff.Entries[m.Module] = Changed
		default:
			diff.Entries[m.Module] = Unchanged
		}
	}
	for name := range runningModuleNames(running) {
		if _, ok := fileByName[name]; !ok {
			diff.Entries[name] = Added
		}
	}

	diff.ContentID = contentID(fileModules)
	return diff
}

// runningModuleNames enumerates every module name currently loaded,
// independent of ModelSet's internal representation.
func runningModuleNames(running *yangmodel.ModelSet) map[string]bool {
	out := make(map[string]bool)
	for _, e := range running.AllModuleEntries() {
		out[e.Name] = true
	}
	return out
}

// contentID hashes the sorted (module, revision) pairs the file
// declared into a stable scalar, the same role clixon's yang-library
// content-id leaf plays: two files with an identical module set hash
// identically regardless of declaration order, so an upgrade callback
// can compare content IDs instead of walking the full entry list.
func contentID(modules []ModuleStateEntry) uint64 {
	keys := make([]string, len(modules))
	for i, m := range modules {
		keys[i] = m.Module + "@" + m.Revision
	}
	sort.Strings(keys)

	h := xxhash.New()
	for _, k := range keys {
		_, _ = h.WriteString(k)
		_, _ = h.WriteString("\x00")
	}
	return h.Sum64()
}
