// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package yangmodel

import (
	"fmt"
	"sort"

	"github.com/openconfig/goyang/pkg/yang"
)

// ModelSet is the loaded, indexed view of every YANG module bound into
// one running instance (spec section 4.B). It owns the Statement cache
// (one *Statement per *yang.Entry, so tree.Node.Spec pointers stay
// stable) and the module/prefix/namespace lookup tables the XPath
// evaluator and the edit/commit engine both need.
//
// Loading follows the two-pass shape github.com/openconfig/goyang's own
// yang command uses (see _examples/openconfig-ygot's code generator
// entry point, and other_examples' neoul-yangtree schema loader): first
// every file is read into a *yang.Modules set and goyang resolves
// imports/augments/deviations across the whole set, then each top-level
// module is turned into a *yang.Entry tree via yang.ToEntry.
type ModelSet struct {
	modules *yang.Modules

	byModule    map[string]*yang.Entry
	byPrefix    map[string]*yang.Module // module-local prefix -> module
	byNamespace map[namespaceRevKey]*yang.Module

	statements map[*yang.Entry]*Statement

	root *Statement // synthetic container holding every module's top-level data nodes

	moduleInfos []ModuleInfo // schema inventory, populated by Load
}

// ModuleInfo names one loaded module's identity, for the schema inventory
// the monitoring subtree reports (spec section 6).
type ModuleInfo struct {
	Name      string
	Namespace string
	Revision  string
}

type namespaceRevKey struct {
	namespace string
	revision  string
}

// NewModelSet creates an empty set ready to accept module source files.
func NewModelSet() *ModelSet {
	return &ModelSet{
		modules:     yang.NewModules(),
		byModule:    make(map[string]*yang.Entry),
		byPrefix:    make(map[string]*yang.Module),
		byNamespace: make(map[namespaceRevKey]*yang.Module),
		statements:  make(map[*yang.Entry]*Statement),
	}
}

// AddFile parses and registers one YANG module source file. Call Load
// once every file and every augment/deviation module has been added.
func (ms *ModelSet) AddFile(path string) error {
	if err := ms.modules.Read(path); err != nil {
		return fmt.Errorf("yangmodel: reading %s: %w", path, err)
	}
	return nil
}

// Load resolves imports, augments and deviations across every module
// added via AddFile, then builds the Statement index. It must be called
// exactly once, after every module file has been added.
func (ms *ModelSet) Load() error {
	if errs := ms.modules.Process(); len(errs) > 0 {
		return fmt.Errorf("yangmodel: %d module errors: %v", len(errs), errs[0])
	}

	root := NewRootStatement()
	names := make([]string, 0, len(ms.modules.Modules))
	for name := range ms.modules.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	var order []string
	for _, name := range names {
		mod := ms.modules.Modules[name]
		entry := yang.ToEntry(mod)
		ms.byModule[name] = entry
		ms.byNamespace[namespaceRevKey{namespace: entry.Namespace().Name, revision: mod.Current()}] = mod
		ms.moduleInfos = append(ms.moduleInfos, ModuleInfo{
			Name:      name,
			Namespace: entry.Namespace().Name,
			Revision:  mod.Current(),
		})
		for _, imp := range mod.Import {
			ms.byPrefix[imp.Prefix.Name] = ms.modules.Modules[imp.Name]
		}
		ms.byPrefix[mod.Prefix.Name] = mod

		ms.indexEntry(entry)
		for childName, child := range entry.Dir {
			root.Entry.Dir[childName] = child
			order = append(order, childName)
		}
	}
	root.SetChildOrder(order)
	ms.root = root
	return nil
}

// indexEntry recursively wraps e and every data descendant into the
// Statement cache, restoring schema-declared child order from the
// underlying module's substatement list (goyang's Entry.Dir loses
// declaration order by being a map).
func (ms *ModelSet) indexEntry(e *yang.Entry) *Statement {
	if s, ok := ms.statements[e]; ok {
		return s
	}
	s := Wrap(e)
	ms.statements[e] = s

	if e.Dir != nil {
		order := declaredOrder(e)
		s.SetChildOrder(order)
		for _, name := range order {
			ms.indexEntry(e.Dir[name])
		}
	}
	return s
}

// declaredOrder recovers the substatement order goyang's parser saw, from
// the node underlying e, when available; it otherwise falls back to a
// lexical ordering so the set's sorted-child invariant still holds (with
// new statements simply sorting after bound ones until a real order is
// known).
func declaredOrder(e *yang.Entry) []string {
	names := make([]string, 0, len(e.Dir))
	for name := range e.Dir {
		names = append(names, name)
	}
	if e.Node != nil {
		if ordered := nodeStatementOrder(e.Node, names); ordered != nil {
			return ordered
		}
	}
	sort.Strings(names)
	return names
}

// nodeStatementOrder asks n (the underlying parse-tree node of e, when e
// wraps one directly rather than being synthesised, e.g. by a grouping
// uses-expansion) for its substatements in declaration order, keeping
// only the ones present in names.
func nodeStatementOrder(n yang.Node, names []string) []string {
	info := n.Statement()
	if info == nil {
		return nil
	}
	want := make(map[string]bool, len(names))
	for _, name := range names {
		want[name] = true
	}
	var order []string
	seen := make(map[string]bool, len(names))
	for _, sub := range info.SubStatements() {
		nm := sub.NName()
		if want[nm] && !seen[nm] {
			order = append(order, nm)
			seen[nm] = true
		}
	}
	if len(order) != len(names) {
		return nil
	}
	return order
}

// NewRootStatement builds the synthetic top-of-tree Statement that owns
// every module's top-level data nodes as its own Dir, so the engine's
// datastore root can carry a single Spec the same way any container does.
func NewRootStatement() *Statement {
	return &Statement{Entry: &yang.Entry{Name: "", Dir: map[string]*yang.Entry{}}}
}

// Root returns the synthetic statement describing the datastore root.
func (ms *ModelSet) Root() *Statement { return ms.root }

// StatementOf returns the cached Statement wrapping e, wrapping and
// caching it on first use if Load hasn't already visited it (this
// happens for entries synthesised later, e.g. by schema-mount binding).
func (ms *ModelSet) StatementOf(e *yang.Entry) *Statement {
	if e == nil {
		return nil
	}
	return ms.indexEntry(e)
}

// ResolvePrefix implements xpath.NamespaceContext: it resolves a
// module-local prefix to the canonical module name the rest of the
// engine uses, so compiled XPath expressions can be keyed and cached per
// (text, namespace context) pair without xpath importing yangmodel.
func (ms *ModelSet) ResolvePrefix(prefix string) (string, bool) {
	if prefix == "" {
		return "", true
	}
	m, ok := ms.byPrefix[prefix]
	if !ok {
		return "", false
	}
	return m.Name, true
}

// FindModuleByPrefix resolves a module-local prefix (as bound by that
// module's own "prefix" or "import ... prefix" statement) to its module.
func (ms *ModelSet) FindModuleByPrefix(prefix string) (*yang.Module, bool) {
	m, ok := ms.byPrefix[prefix]
	return m, ok
}

// FindModuleByNamespaceRevision resolves a module by its XML namespace
// and an exact revision date ("" matches a module with no revision
// statement).
func (ms *ModelSet) FindModuleByNamespaceRevision(namespace, revision string) (*yang.Module, bool) {
	m, ok := ms.byNamespace[namespaceRevKey{namespace: namespace, revision: revision}]
	return m, ok
}

// FindModuleByNamespace resolves a module by its XML namespace alone,
// independent of revision, for callers (e.g. datastore's module-state
// diff) that need to tell "this namespace no longer exists at all" apart
// from "it exists, but at a different revision than the one on file".
func (ms *ModelSet) FindModuleByNamespace(namespace string) (*yang.Module, bool) {
	for k, m := range ms.byNamespace {
		if k.namespace == namespace {
			return m, true
		}
	}
	return nil, false
}

// AllModuleEntries returns the top-level Entry of every module currently
// loaded, for callers (e.g. datastore's module-state diff) that need to
// enumerate the running schema set rather than look up one module.
func (ms *ModelSet) AllModuleEntries() []*yang.Entry {
	out := make([]*yang.Entry, 0, len(ms.byModule))
	for _, e := range ms.byModule {
		out = append(out, e)
	}
	return out
}

// ModuleInfos returns the name/namespace/revision of every loaded module,
// in the order Load processed them.
func (ms *ModelSet) ModuleInfos() []ModuleInfo { return ms.moduleInfos }

// FindDatanode resolves localName to its Statement among module's direct
// top-level data nodes.
func (ms *ModelSet) FindDatanode(module *yang.Module, localName string) (*Statement, bool) {
	entry := ms.byModule[module.Name]
	if entry == nil {
		return nil, false
	}
	child, ok := entry.Dir[localName]
	if !ok {
		return nil, false
	}
	return ms.indexEntry(child), true
}
