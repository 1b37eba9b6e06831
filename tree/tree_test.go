// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package tree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// listSpec is a minimal Spec used by tests to stand in for a bound YANG
// list statement keyed on "name", whose parent container declares children
// in the fixed order given by order.
type listSpec struct {
	kind  SpecKind
	keys  []string
	order []string
}

func (s *listSpec) SpecKind() SpecKind { return s.kind }
func (s *listSpec) KeyNames() []string { return s.keys }
func (s *listSpec) ChildOrder(name string) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}
	return -1
}
func (s *listSpec) HasPresence() bool           { return true }
func (s *listSpec) IsConfig() bool              { return true }
func (s *listSpec) IsMountPointCandidate() bool { return false }

func leafEntry(parent *Node, name string, spec Spec) *Node {
	n := New(name, nil, Element)
	n.Spec = spec
	return n
}

func listEntry(name, key string) *Node {
	n := &Node{Kind: Element, Name: "interface", Spec: &listSpec{kind: SpecList, keys: []string{"name"}}}
	nameLeaf := New("name", n, Element)
	New(key, nameLeaf, Body).Value = key
	_ = name
	return n
}

func TestInsertSchemaOrderSortsListByKey(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}

	for _, key := range []string{"d", "b", "a", "c"} {
		e := listEntry("interface", key)
		require.NoError(t, Insert(root, e, PosSchemaOrder, nil, nil))
	}

	require.Len(t, root.Children, 4)
	var order []string
	for _, c := range root.Children {
		order = append(order, c.KeyValues()[0])
	}
	require.Equal(t, []string{"a", "b", "c", "d"}, order)
}

func TestInsertDuplicateKeyRejected(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}

	require.NoError(t, Insert(root, listEntry("interface", "eth0"), PosSchemaOrder, nil, nil))
	err := Insert(root, listEntry("interface", "eth0"), PosSchemaOrder, nil, nil)
	require.Error(t, err)
}

func TestFindIndexBinarySearch(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}
	for _, key := range []string{"a", "b", "c", "d"} {
		require.NoError(t, Insert(root, listEntry("interface", key), PosSchemaOrder, nil, nil))
	}

	idx, found := FindIndex(root, "interface", []string{"c"})
	require.True(t, found)
	require.Equal(t, "c", root.Children[idx].KeyValues()[0])

	_, found = FindIndex(root, "interface", []string{"z"})
	require.False(t, found)
}

func TestSortRecurseIsIdempotent(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}
	root.Children = []*Node{listEntry("interface", "b"), listEntry("interface", "a")}
	for _, c := range root.Children {
		c.Parent = root
	}

	SortRecurse(root)
	first := append([]*Node(nil), root.Children...)
	SortRecurse(root)
	require.Equal(t, first, root.Children)
}

func TestDeepCopyEqualsOriginal(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}
	e := listEntry("interface", "eth0")
	e.FlagSet(FlagMark | FlagDefault)
	require.NoError(t, Insert(root, e, PosSchemaOrder, nil, nil))

	cp := DeepCopy(root)
	require.Equal(t, root.Name, cp.Name)
	require.Len(t, cp.Children, 1)
	require.Equal(t, "eth0", cp.Children[0].KeyValues()[0])
	require.True(t, cp.Children[0].FlagTest(FlagDefault))
	require.False(t, cp.Children[0].FlagTest(FlagMark), "MARK must not survive a deep copy")
}

func TestPurgeDetachesFromParent(t *testing.T) {
	root := NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}
	e := listEntry("interface", "eth0")
	require.NoError(t, Insert(root, e, PosSchemaOrder, nil, nil))

	Purge(e)
	require.Empty(t, root.Children)
	require.Nil(t, e.Parent)
}

func TestDiffAddedDeletedChanged(t *testing.T) {
	spec := &listSpec{order: []string{"interface"}}

	oldRoot := NewRoot("config")
	oldRoot.Spec = spec
	require.NoError(t, Insert(oldRoot, listEntry("interface", "eth0"), PosSchemaOrder, nil, nil))
	require.NoError(t, Insert(oldRoot, listEntry("interface", "eth1"), PosSchemaOrder, nil, nil))

	newRoot := NewRoot("config")
	newRoot.Spec = spec
	require.NoError(t, Insert(newRoot, listEntry("interface", "eth0"), PosSchemaOrder, nil, nil))
	require.NoError(t, Insert(newRoot, listEntry("interface", "eth2"), PosSchemaOrder, nil, nil))

	added, deleted, changed := Diff(oldRoot, newRoot)
	require.Len(t, added, 1)
	require.Equal(t, "eth2", added[0].KeyValues()[0])
	require.Len(t, deleted, 1)
	require.Equal(t, "eth1", deleted[0].KeyValues()[0])
	require.Empty(t, changed)
}
