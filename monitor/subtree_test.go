// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package monitor

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/session"
	"github.com/vyatta-confd/engine/yangmodel"
)

func TestSubtreeReportsCapabilitiesDatastoresAndStatistics(t *testing.T) {
	models := yangmodel.NewModelSet()
	require.NoError(t, models.Load())

	ds := datastore.New("running", filepath.Join(t.TempDir(), "running.db"), models, nil, datastore.FormatXML, zerolog.Nop())
	require.NoError(t, ds.Lock("sess-1"))

	reg := &Registry{
		Capabilities: []string{"urn:ietf:params:netconf:base:1.1"},
		Datastores:   []*datastore.Datastore{ds},
		Models:       models,
		Start:        time.Now(),
	}

	stats := &session.Stats{}
	stats.InSessions.Add(3)
	stats.InRPCs.Add(5)

	root := Subtree(reg, stats)

	caps := root.Child("capabilities")
	require.NotNil(t, caps)
	require.Len(t, caps.Children, 1)

	dsNode := root.Child("datastores").Child("datastore")
	require.NotNil(t, dsNode)
	require.NotNil(t, dsNode.Child("name"))
	require.NotNil(t, dsNode.Child("locks"), "a locked datastore must report a global-lock entry")

	stat := root.Child("statistics")
	require.NotNil(t, stat)
	require.Equal(t, "3", stat.Child("in-sessions").String())
	require.Equal(t, "5", stat.Child("in-rpcs").String())
}

func TestProviderAlwaysReturnsTheSubtree(t *testing.T) {
	models := yangmodel.NewModelSet()
	require.NoError(t, models.Load())
	reg := &Registry{Models: models, Start: time.Now()}
	p := &Provider{Reg: reg, Stats: &session.Stats{}}

	out, ok, err := p.StateData("/ietf-netconf-monitoring:netconf-state", nil)
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, out.Child("netconf-state"))
}
