// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package commit

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func newTestDatastore(t *testing.T) *datastore.Datastore {
	path := filepath.Join(t.TempDir(), "running.db")
	return datastore.New("running", path, yangmodel.NewModelSet(), nil, datastore.FormatXML, zerolog.Nop())
}

// trackingPlugin records the order every lifecycle method is invoked in,
// so a test can assert validate -> prepare -> commit ordering and
// reverse-order revert without inspecting Engine internals.
type trackingPlugin struct {
	name      string
	order     *[]string
	failOn    string
}

func (p *trackingPlugin) Validate(tx *Transaction) error {
	*p.order = append(*p.order, p.name+":validate")
	if p.failOn == "validate" {
		return errors.New("boom")
	}
	return nil
}

func (p *trackingPlugin) PrepareCommit(tx *Transaction) error {
	*p.order = append(*p.order, p.name+":prepare")
	if p.failOn == "prepare" {
		return errors.New("boom")
	}
	return nil
}

func (p *trackingPlugin) Commit(tx *Transaction) {
	*p.order = append(*p.order, p.name+":commit")
}

func (p *trackingPlugin) Revert(tx *Transaction) {
	*p.order = append(*p.order, p.name+":revert")
}

func TestCommitRunsValidatePrepareCommitInRegistrationOrder(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())

	var order []string
	e.Register(&trackingPlugin{name: "a", order: &order})
	e.Register(&trackingPlugin{name: "b", order: &order})

	candidate := tree.NewRoot("config")
	tree.New("hostname", candidate, tree.Element)

	err := e.Commit(ds, candidate)
	require.NoError(t, err)
	require.Equal(t, []string{
		"a:validate", "b:validate",
		"a:prepare", "b:prepare",
		"a:commit", "b:commit",
	}, order)

	root, err := ds.Root()
	require.NoError(t, err)
	require.NotNil(t, root.Child("hostname"))
	require.Equal(t, uint64(1), ds.Version())
}

func TestCommitRevertsOnPrepareFailureInReverseOrder(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())

	var order []string
	e.Register(&trackingPlugin{name: "a", order: &order})
	e.Register(&trackingPlugin{name: "b", order: &order, failOn: "prepare"})
	e.Register(&trackingPlugin{name: "c", order: &order})

	candidate := tree.NewRoot("config")
	err := e.Commit(ds, candidate)
	require.Error(t, err)

	// c never saw Prepare (b failed first), so only a's prepare is
	// reverted; c must not appear in the revert trace.
	require.Equal(t, []string{
		"a:validate", "b:validate", "c:validate",
		"a:prepare", "b:prepare",
		"a:revert",
	}, order)
	require.Equal(t, uint64(0), ds.Version())
}

func TestCommitFailsValidateLeavesDatastoreUntouched(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())

	var order []string
	e.Register(&trackingPlugin{name: "a", order: &order, failOn: "validate"})

	candidate := tree.NewRoot("config")
	err := e.Commit(ds, candidate)
	require.Error(t, err)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	require.Equal(t, []string{"a:validate"}, order)
	require.Equal(t, uint64(0), ds.Version())
}

func TestValidateDoesNotMutateDatastore(t *testing.T) {
	ds := newTestDatastore(t)
	e := NewEngine(yangmodel.NewModelSet(), nil, zerolog.Nop())

	candidate := tree.NewRoot("config")
	tree.New("hostname", candidate, tree.Element)

	require.NoError(t, e.Validate(ds, candidate))
	require.Equal(t, uint64(0), ds.Version())
	root, err := ds.Root()
	require.NoError(t, err)
	require.Nil(t, root.Child("hostname"))
}
