// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"bytes"
	"fmt"
	"os"

	"github.com/vyatta-confd/engine/tree"
)

// load reads, decodes, strips module-state, binds and default-fills the
// datastore's backing file, implementing the read-miss path of spec
// section 4.D's Read operation.
func (d *Datastore) load() (*tree.Node, []ModuleStateEntry, error) {
	data, err := os.ReadFile(d.path)
	if os.IsNotExist(err) {
		root := tree.NewRoot("config")
		return root, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("datastore: reading %s: %w", d.path, err)
	}

	var root *tree.Node
	switch d.fmt {
	case FormatJSON:
		root, err = decodeJSON(bytes.NewReader(data))
	default:
		root, err = decodeXML(bytes.NewReader(data))
	}
	if err != nil {
		return nil, nil, err
	}

	modState := stripModuleState(root)

	bind(root, d.models, d.resolver)
	tree.SortRecurse(root)
	MaterializeDefaults(root, d.models, d.resolver)
	tree.SortRecurse(root)

	d.log.Debug().Int("modules", len(modState)).Msg("loaded datastore file")
	return root, modState, nil
}

// save persists root to the datastore's backing file, fsyncing before
// returning so a crash immediately after Write can't observe a
// truncated file (spec section 4.D: "write file..., fsync").
func (d *Datastore) save(root *tree.Node) error {
	f, err := os.CreateTemp(dirOf(d.path), ".datastore-*")
	if err != nil {
		return fmt.Errorf("datastore: creating temp file: %w", err)
	}
	tmpName := f.Name()
	defer os.Remove(tmpName)

	var encErr error
	switch d.fmt {
	case FormatJSON:
		encErr = encodeJSON(f, root)
	default:
		encErr = encodeXML(f, root)
	}
	if encErr != nil {
		f.Close()
		return fmt.Errorf("datastore: encoding %s: %w", d.path, encErr)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("datastore: fsync %s: %w", d.path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("datastore: closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, d.path); err != nil {
		return fmt.Errorf("datastore: renaming into place: %w", err)
	}
	return nil
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}

// stripModuleState removes root's optional first yang-library (RFC 8525)
// or, for backward compatibility, modules-state (RFC 7895) child and
// returns its contents as a module-state entry list (spec section 4.D).
func stripModuleState(root *tree.Node) []ModuleStateEntry {
	for _, c := range root.Children {
		if c.Kind != tree.Element {
			continue
		}
		switch c.Name {
		case "yang-library":
			tree.Purge(c)
			return parseModuleSet(c)
		case "modules-state":
			tree.Purge(c)
			return parseModulesStateRFC7895(c)
		}
		break // only the first child may be the module-state container
	}
	return nil
}

func parseModuleSet(yangLibrary *tree.Node) []ModuleStateEntry {
	var out []ModuleStateEntry
	moduleSet := yangLibrary.Child("module-set")
	if moduleSet == nil {
		return nil
	}
	for _, m := range moduleSet.ChildrenNamed("module") {
		out = append(out, ModuleStateEntry{
			Module:    childText(m, "name"),
			Namespace: childText(m, "namespace"),
			Revision:  childText(m, "revision"),
		})
	}
	return out
}

func parseModulesStateRFC7895(modulesState *tree.Node) []ModuleStateEntry {
	var out []ModuleStateEntry
	for _, m := range modulesState.ChildrenNamed("module") {
		out = append(out, ModuleStateEntry{
			Module:    childText(m, "name"),
			Namespace: childText(m, "namespace"),
			Revision:  childText(m, "revision"),
		})
	}
	return out
}

func childText(n *tree.Node, name string) string {
	c := n.Child(name)
	if c == nil {
		return ""
	}
	return c.String()
}
