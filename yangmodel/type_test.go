// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package yangmodel

import (
	"testing"

	"github.com/openconfig/goyang/pkg/yang"
	"github.com/stretchr/testify/require"
	"github.com/vyatta-confd/engine/tree"
)

func TestResolveTypeMergesTypedefRestrictions(t *testing.T) {
	base := &yang.YangType{Kind: yang.Ystring, Pattern: []string{"[a-z]+"}}
	derived := &yang.YangType{Kind: yang.Ystring, Base: base}

	info := resolveYangType(derived)
	require.Equal(t, yang.Ystring, info.Base)
	require.Equal(t, []string{"[a-z]+"}, info.Pattern)
}

func TestResolveTypeLocalRestrictionWins(t *testing.T) {
	base := &yang.YangType{Kind: yang.Ystring, Pattern: []string{"[a-z]+"}}
	derived := &yang.YangType{Kind: yang.Ystring, Base: base, Pattern: []string{"[a-z0-9]+"}}

	info := resolveYangType(derived)
	require.Equal(t, []string{"[a-z0-9]+"}, info.Pattern)
}

func TestResolveTypeUnionNotCachedOnStatement(t *testing.T) {
	union := &yang.YangType{
		Kind: yang.Yunion,
		Type: []*yang.YangType{
			{Kind: yang.Ystring},
			{Kind: yang.Yint32},
		},
	}
	s := &Statement{Entry: &yang.Entry{Type: union}}

	info1 := s.ResolveType()
	require.Nil(t, s.typeInfo, "union resolution must not be memoised")
	require.Len(t, info1.Union, 2)

	info2 := s.ResolveType()
	require.Equal(t, info1.Base, info2.Base)
}

func TestStatementSpecKindLeaf(t *testing.T) {
	leaf := Wrap(&yang.Entry{Name: "enabled", Type: &yang.YangType{Kind: yang.Ybool}})
	require.Equal(t, tree.SpecLeaf, leaf.SpecKind())
}

func TestStatementKeyNamesSplitsOnWhitespace(t *testing.T) {
	s := Wrap(&yang.Entry{Name: "interface", Key: "name family"})
	require.Equal(t, []string{"name", "family"}, s.KeyNames())
}

func TestHasMountPointExtensionMatchesAnyPrefix(t *testing.T) {
	e := &yang.Entry{Name: "root", Exts: []*yang.Statement{
		{Keyword: "yangmnt:mount-point"},
	}}
	s := Wrap(e)
	require.True(t, s.IsMountPointCandidate())
}
