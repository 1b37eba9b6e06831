// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package mount

import (
	"testing"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func mountCandidateNode(name string, parent *tree.Node) *tree.Node {
	n := tree.New(name, parent, tree.Element)
	n.Spec = yangmodel.Wrap(&yang.Entry{
		Name: name,
		Exts: []*yang.Statement{{Keyword: "yangmnt:mount-point"}},
	})
	return n
}

func TestCanonicalPathBuildsSlashSeparatedSteps(t *testing.T) {
	root := tree.NewRoot("config")
	devices := tree.New("devices", root, tree.Element)
	device := tree.New("device", devices, tree.Element)
	tree.New("name", device, tree.Element)

	require.Equal(t, "/devices/device", CanonicalPath(device))
	require.Equal(t, "/", CanonicalPath(root))
	require.Equal(t, "/", CanonicalPath(nil))
}

func TestResolveAtLoadsAndCachesMountedSchema(t *testing.T) {
	global := yangmodel.NewModelSet()
	mounted := yangmodel.NewModelSet()

	calls := 0
	cb := func(node *tree.Node, canonicalPath string) (*Lib, bool, error) {
		calls++
		return &Lib{Modules: []Module{{Name: "mounted-mod"}}}, true, nil
	}
	load := func(lib *Lib) (*yangmodel.ModelSet, error) {
		require.Equal(t, "mounted-mod", lib.Modules[0].Name)
		return mounted, nil
	}

	r := NewResolver(global, cb, load)

	root := tree.NewRoot("config")
	device := mountCandidateNode("device", root)

	set, ok, err := r.ResolveAt(device)
	require.NoError(t, err)
	require.True(t, ok)
	require.Same(t, mounted, set)
	require.True(t, device.IsMountPoint())

	// A second resolution at the same canonical path is served from the
	// binding cache, without calling back into the application again.
	set2, ok2, err := r.ResolveAt(device)
	require.NoError(t, err)
	require.True(t, ok2)
	require.Same(t, mounted, set2)
	require.Equal(t, 1, calls)
}

func TestResolveAtDeclinesNonMountPointCandidate(t *testing.T) {
	r := NewResolver(yangmodel.NewModelSet(), nil, nil)
	plain := tree.New("hostname", tree.NewRoot("config"), tree.Element)
	plain.Spec = yangmodel.Wrap(&yang.Entry{Name: "hostname"})

	set, ok, err := r.ResolveAt(plain)
	require.NoError(t, err)
	require.False(t, ok)
	require.Nil(t, set)
}

func TestSpecForFallsBackToGlobalAboveAnyMount(t *testing.T) {
	global := yangmodel.NewModelSet()
	r := NewResolver(global, nil, nil)

	root := tree.NewRoot("config")
	leaf := tree.New("hostname", root, tree.Element)

	require.Same(t, global, r.SpecFor(leaf))
}

func TestSpecForUsesNearestMountAncestor(t *testing.T) {
	global := yangmodel.NewModelSet()
	mounted := yangmodel.NewModelSet()
	cb := func(node *tree.Node, canonicalPath string) (*Lib, bool, error) {
		return &Lib{}, true, nil
	}
	load := func(lib *Lib) (*yangmodel.ModelSet, error) { return mounted, nil }
	r := NewResolver(global, cb, load)

	root := tree.NewRoot("config")
	device := mountCandidateNode("device", root)
	_, ok, err := r.ResolveAt(device)
	require.NoError(t, err)
	require.True(t, ok)

	child := tree.New("interfaces", device, tree.Element)
	require.Same(t, mounted, r.SpecFor(child))
}
