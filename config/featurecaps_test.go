// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package config

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFeatureCapabilitiesUnionsAllIniFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ini"), []byte("[nat]\n[firewall]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ini"), []byte("[vrrp]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.txt"), []byte("[not-ini]\n"), 0o644))

	caps, err := LoadFeatureCapabilities(dir)
	require.NoError(t, err)
	sort.Strings(caps)
	require.Equal(t, []string{"firewall", "nat", "vrrp"}, caps)
}

func TestLoadFeatureCapabilitiesSkipsUnparsableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.ini"), []byte("[nat]\n"), 0o644))
	// go-ini is fairly permissive, but an unterminated section header is
	// rejected outright.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.ini"), []byte("[unterminated\n"), 0o644))

	caps, err := LoadFeatureCapabilities(dir)
	require.NoError(t, err)
	require.Contains(t, caps, "nat")
}
