// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package monitor implements the NETCONF monitoring read-only subtree
// (spec section 6, supplemented from clixon's
// clixon_netconf_monitoring.c): capabilities, per-datastore lock state,
// schema inventory, and the session statistics counters RFC 6022 names.
// Session lifecycle counters are tracked in session.Stats and reported
// through the netconf-state subtree. This file declares and registers
// prometheus counters for the same statistics, plus a commit-duration
// histogram and a per-outcome commit counter, following cuemby-warren's
// pkg/metrics package-level-vars-plus-init registration style; nothing
// in this module updates them.
package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	InSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_in_sessions_total",
		Help: "Total number of sessions established",
	})
	DroppedSessions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_dropped_sessions_total",
		Help: "Total number of sessions dropped due to an error",
	})
	InRPCs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_in_rpcs_total",
		Help: "Total number of incoming RPCs received",
	})
	InBadRPCs = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_in_bad_rpcs_total",
		Help: "Total number of incoming RPCs that failed to parse",
	})
	OutRPCErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_out_rpc_errors_total",
		Help: "Total number of rpc-error replies sent",
	})
	OutNotifications = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_out_notifications_total",
		Help: "Total number of event notifications sent",
	})
	InBadHellos = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "confd_in_bad_hellos_total",
		Help: "Total number of malformed <hello> messages received",
	})

	CommitDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "confd_commit_duration_seconds",
		Help:    "Time taken to run the commit state machine",
		Buckets: prometheus.DefBuckets,
	})
	CommitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "confd_commits_total",
		Help: "Total number of commits by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		InSessions, DroppedSessions, InRPCs, InBadRPCs,
		OutRPCErrors, OutNotifications, InBadHellos,
		CommitDuration, CommitsTotal,
	)
}
