// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package monitor

import (
	"strconv"
	"time"

	"github.com/vyatta-confd/engine/datastore"
	"github.com/vyatta-confd/engine/session"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/yangmodel"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

// Provider adapts Subtree into a session.StateDataProvider, so `get`
// merges the monitoring subtree in alongside any other application
// plugin's state data (spec section 6's plugin callback surface).
// StateData returns a root holding the netconf-state container, since
// `get` merges the children of whatever a provider returns.
type Provider struct {
	Reg   *Registry
	Stats *session.Stats
}

func (p *Provider) StateData(xp string, at *tree.Node) (*tree.Node, bool, error) {
	root := tree.NewRoot("config")
	st := Subtree(p.Reg, p.Stats)
	st.Parent = root
	root.Children = append(root.Children, st)
	return root, true, nil
}

const netconfMonitoringNamespace = "urn:ietf:params:xml:ns:yang:ietf-netconf-monitoring"

// Registry is the read-only view Subtree needs: the set of named
// datastores an engine instance exposes and the capability strings it
// advertises, grounded on clixon_netconf_monitoring.c's netconf_hello2cb.
type Registry struct {
	Capabilities []string
	Datastores   []*datastore.Datastore
	Models       *yangmodel.ModelSet
	Start        time.Time
}

// Subtree builds the ietf-netconf-monitoring "netconf-state" container
// (spec section 6): capabilities, datastores, schemas and statistics,
// mirroring clixon_netconf_monitoring.c's four cprintf sections.
func Subtree(reg *Registry, stats *session.Stats) *tree.Node {
	root := tree.New("netconf-state", nil, tree.Element)

	caps := tree.New("capabilities", root, tree.Element)
	for _, c := range reg.Capabilities {
		entry := tree.New("capability", caps, tree.Element)
		entry.SetBody(c)
	}

	datastoresNode(root, reg.Datastores)
	schemasNode(root, reg.Models)
	statisticsNode(root, stats, reg.Start)

	return root
}

func datastoresNode(root *tree.Node, dss []*datastore.Datastore) {
	dsRoot := tree.New("datastores", root, tree.Element)
	for _, ds := range dss {
		dsNode := tree.New("datastore", dsRoot, tree.Element)
		tree.New("name", dsNode, tree.Element).SetBody(ds.Name())
		if holder, at, locked := ds.LockedBy(); locked {
			locks := tree.New("locks", dsNode, tree.Element)
			gl := tree.New("global-lock", locks, tree.Element)
			tree.New("locked-by-session", gl, tree.Element).SetBody(holder)
			tree.New("locked-time", gl, tree.Element).SetBody(at.UTC().Format(time.RFC3339))
		}
	}
}

func schemasNode(root *tree.Node, models *yangmodel.ModelSet) {
	schemasRoot := tree.New("schemas", root, tree.Element)
	if models == nil {
		return
	}
	for _, m := range models.ModuleInfos() {
		s := tree.New("schema", schemasRoot, tree.Element)
		tree.New("identifier", s, tree.Element).SetBody(m.Name)
		tree.New("version", s, tree.Element).SetBody(m.Revision)
		tree.New("format", s, tree.Element).SetBody("yang")
		tree.New("namespace", s, tree.Element).SetBody(m.Namespace)
		tree.New("location", s, tree.Element).SetBody("NETCONF")
	}
}

func statisticsNode(root *tree.Node, stats *session.Stats, start time.Time) {
	s := tree.New("statistics", root, tree.Element)
	tree.New("netconf-start-time", s, tree.Element).SetBody(start.UTC().Format(time.RFC3339))
	if stats == nil {
		return
	}
	tree.New("in-bad-hellos", s, tree.Element).SetBody(itoa(stats.InBadHellos.Load()))
	tree.New("in-sessions", s, tree.Element).SetBody(itoa(stats.InSessions.Load()))
	tree.New("dropped-sessions", s, tree.Element).SetBody(itoa(stats.DroppedSessions.Load()))
	tree.New("in-rpcs", s, tree.Element).SetBody(itoa(stats.InRPCs.Load()))
	tree.New("in-bad-rpcs", s, tree.Element).SetBody(itoa(stats.InBadRPCs.Load()))
	tree.New("out-rpc-errors", s, tree.Element).SetBody(itoa(stats.OutRPCErrors.Load()))
	tree.New("out-notifications", s, tree.Element).SetBody(itoa(stats.OutNotification.Load()))
}
