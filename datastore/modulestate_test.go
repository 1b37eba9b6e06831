// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package datastore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vyatta-confd/engine/yangmodel"
)

const testModuleYang = `module test-module {
  namespace "urn:test:test-module";
  prefix "tm";

  revision "2024-01-01" {
    description "current revision";
  }

  container top {
    leaf name {
      type string;
    }
  }
}
`

func loadTestModelSet(t *testing.T) *yangmodel.ModelSet {
	path := filepath.Join(t.TempDir(), "test-module.yang")
	require.NoError(t, os.WriteFile(path, []byte(testModuleYang), 0o644))

	models := yangmodel.NewModelSet()
	require.NoError(t, models.AddFile(path))
	require.NoError(t, models.Load())
	return models
}

func TestDiffModuleStateClassifiesChangedRevisionAsChangedNotDeleted(t *testing.T) {
	models := loadTestModelSet(t)

	diff := DiffModuleState([]ModuleStateEntry{
		{Module: "test-module", Namespace: "urn:test:test-module", Revision: "2023-01-01"},
	}, models)

	require.Equal(t, Changed, diff.Entries["test-module"])
}

func TestDiffModuleStateClassifiesMatchingRevisionAsUnchanged(t *testing.T) {
	models := loadTestModelSet(t)

	diff := DiffModuleState([]ModuleStateEntry{
		{Module: "test-module", Namespace: "urn:test:test-module", Revision: "2024-01-01"},
	}, models)

	require.Equal(t, Unchanged, diff.Entries["test-module"])
}

func TestDiffModuleStateClassifiesUnknownNamespaceAsDeleted(t *testing.T) {
	models := loadTestModelSet(t)

	diff := DiffModuleState([]ModuleStateEntry{
		{Module: "gone-module", Namespace: "urn:test:gone-module", Revision: "2020-01-01"},
	}, models)

	require.Equal(t, Deleted, diff.Entries["gone-module"])
}

func TestDiffModuleStateClassifiesNewlyLoadedModuleAsAdded(t *testing.T) {
	models := loadTestModelSet(t)

	diff := DiffModuleState(nil, models)

	require.Equal(t, Added, diff.Entries["test-module"])
}
