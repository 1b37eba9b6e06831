// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFallsBackToCompiledInDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, FormatXML, cfg.XMLDBFormat)
	require.True(t, cfg.XMLDBModstate)
	require.Equal(t, 10*time.Minute, cfg.ConfirmedCommitTimeout)
	require.Equal(t, "/etc/confd/running.db", cfg.DatastorePaths["running"])
}

func TestLoadOverridesFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "confd.yaml")
	contents := "xmldb_format: json\ncli_buf_start: 4096\nconfirmed_commit_timeout: 30s\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, FormatJSON, cfg.XMLDBFormat)
	require.Equal(t, 4096, cfg.CLIBufStart)
	require.Equal(t, 30*time.Second, cfg.ConfirmedCommitTimeout)
}

func TestLoadOverridesFromEnvironment(t *testing.T) {
	t.Setenv("CONFD_CLI_BUF_THRESHOLD", "2048")
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, 2048, cfg.CLIBufThreshold)
}
