// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func newTestStore(t *testing.T, format Format) *Datastore {
	path := filepath.Join(t.TempDir(), "store.db")
	return New("running", path, yangmodel.NewModelSet(), nil, format, zerolog.Nop())
}

func TestWriteReadRoundTripXML(t *testing.T) {
	ds := newTestStore(t, FormatXML)

	root := tree.NewRoot("config")
	host := tree.New("hostname", root, tree.Element)
	tree.New("", host, tree.Body).Value = "router1"

	require.NoError(t, ds.Write(root))
	require.Equal(t, uint64(1), ds.Version())

	// A fresh Datastore over the same file re-loads it from disk rather
	// than reusing the in-memory root.
	reloaded := New("running", ds.path, yangmodel.NewModelSet(), nil, FormatXML, zerolog.Nop())
	got, _, err := reloaded.Read("", DefaultsReportAll, false)
	require.NoError(t, err)
	require.NotNil(t, got.Child("hostname"))
}

func TestWriteReadRoundTripJSON(t *testing.T) {
	ds := newTestStore(t, FormatJSON)

	root := tree.NewRoot("config")
	tree.New("hostname", root, tree.Element)
	require.NoError(t, ds.Write(root))

	reloaded := New("running", ds.path, yangmodel.NewModelSet(), nil, FormatJSON, zerolog.Nop())
	got, _, err := reloaded.Read("", DefaultsReportAll, false)
	require.NoError(t, err)
	require.NotNil(t, got.Child("hostname"))
}

func TestReadReturnsACopyNotTheLiveCache(t *testing.T) {
	ds := newTestStore(t, FormatXML)
	root := tree.NewRoot("config")
	tree.New("hostname", root, tree.Element)
	require.NoError(t, ds.Write(root))

	got, _, err := ds.Read("", DefaultsReportAll, false)
	require.NoError(t, err)
	tree.New("mutated", got, tree.Element)

	live, err := ds.Root()
	require.NoError(t, err)
	require.Nil(t, live.Child("mutated"), "caller mutation of a Read result must not leak into the cache")
}

func TestLockExcludesOtherHolders(t *testing.T) {
	ds := newTestStore(t, FormatXML)

	require.NoError(t, ds.Lock("session-a"))
	err := ds.Lock("session-b")
	require.Error(t, err)

	holder, _, locked := ds.LockedBy()
	require.True(t, locked)
	require.Equal(t, "session-a", holder)

	require.Error(t, ds.Unlock("session-b"), "a non-holder must not be able to unlock")
	require.NoError(t, ds.Unlock("session-a"))

	_, _, locked = ds.LockedBy()
	require.False(t, locked)
}

func TestDeleteEmptiesTheDatastore(t *testing.T) {
	ds := newTestStore(t, FormatXML)
	root := tree.NewRoot("config")
	tree.New("hostname", root, tree.Element)
	require.NoError(t, ds.Write(root))
	require.False(t, ds.Empty())

	require.NoError(t, ds.Delete())
	require.True(t, ds.Empty())
}

func TestCopyDeepCopiesSourceIntoDestination(t *testing.T) {
	src := newTestStore(t, FormatXML)
	dst := newTestStore(t, FormatXML)

	root := tree.NewRoot("config")
	tree.New("hostname", root, tree.Element)
	require.NoError(t, src.Write(root))

	require.NoError(t, Copy(src, dst))

	got, err := dst.Root()
	require.NoError(t, err)
	require.NotNil(t, got.Child("hostname"))

	srcRoot, err := src.Root()
	require.NoError(t, err)
	require.NotSame(t, srcRoot, got, "copy must not alias the source's tree")
}
