// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package commit

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func TestConfirmedCommitAutoRevertsWhenTimeoutElapses(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())
	cc := NewConfirmedCommit(e, ds, zerolog.Nop())
	e.Register(cc)

	candidate := tree.NewRoot("config")
	tree.New("hostname", candidate, tree.Element)

	cc.RequestConfirmation(20 * time.Millisecond)
	require.NoError(t, e.Commit(ds, candidate))

	root, err := ds.Root()
	require.NoError(t, err)
	require.NotNil(t, root.Child("hostname"), "the commit itself still applies immediately")

	require.Eventually(t, func() bool {
		root, err := ds.Root()
		require.NoError(t, err)
		return root.Child("hostname") == nil
	}, time.Second, 5*time.Millisecond)
}

func TestConfirmedCommitConfirmCancelsAutoRevert(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())
	cc := NewConfirmedCommit(e, ds, zerolog.Nop())
	e.Register(cc)

	candidate := tree.NewRoot("config")
	tree.New("hostname", candidate, tree.Element)

	cc.RequestConfirmation(20 * time.Millisecond)
	require.NoError(t, e.Commit(ds, candidate))
	require.True(t, cc.Pending())

	cc.Confirm()
	require.False(t, cc.Pending())

	time.Sleep(100 * time.Millisecond)
	root, err := ds.Root()
	require.NoError(t, err)
	require.NotNil(t, root.Child("hostname"))
}

func TestConfirmedCommitOrdinaryCommitDoesNotArm(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())
	cc := NewConfirmedCommit(e, ds, zerolog.Nop())
	e.Register(cc)

	candidate := tree.NewRoot("config")
	tree.New("hostname", candidate, tree.Element)

	require.NoError(t, e.Commit(ds, candidate))
	require.False(t, cc.Pending())
}
