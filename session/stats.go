// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package session

import "sync/atomic"

// Counter is a monotonically increasing session-lifecycle counter. It is
// a thin wrapper over atomic.Int64 rather than a prometheus.Counter
// directly, so this package carries no metrics-backend dependency; the
// monitor package reads these through Stats' exported fields for its
// netconf-state statistics. The monitor package's prometheus.Counter
// values are separate and are not updated from these.
type Counter struct{ v atomic.Int64 }

func (c *Counter) Add(n int64) { c.v.Add(n) }
func (c *Counter) Load() int64 { return c.v.Load() }

// Stats holds the session-lifecycle counters spec section 6 names for
// the monitoring subtree: in-sessions, dropped-sessions, in-rpcs,
// in-bad-rpcs, out-rpc-errors, out-notifications, in-bad-hellos.
type Stats struct {
	InSessions      Counter
	DroppedSessions Counter
	InRPCs          Counter
	InBadRPCs       Counter
	OutRPCErrors    Counter
	OutNotification Counter
	InBadHellos     Counter
}
