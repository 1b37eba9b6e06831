// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vyatta-confd/engine/tree"
)

// noPrefixNS has a non-zero size so that two &noPrefixNS{} values are
// distinct pointers, and so distinct compile-cache keys.
type noPrefixNS struct{ _ byte }

func (*noPrefixNS) ResolvePrefix(prefix string) (string, bool) {
	if prefix == "" {
		return "", true
	}
	return "", false
}

type listSpec struct {
	kind  tree.SpecKind
	keys  []string
	order []string
}

func (s *listSpec) SpecKind() tree.SpecKind { return s.kind }
func (s *listSpec) KeyNames() []string      { return s.keys }
func (s *listSpec) ChildOrder(name string) int {
	for i, n := range s.order {
		if n == name {
			return i
		}
	}
	return -1
}
func (s *listSpec) HasPresence() bool           { return true }
func (s *listSpec) IsConfig() bool              { return true }
func (s *listSpec) IsMountPointCandidate() bool { return false }

func buildInterfaces(names ...string) *tree.Node {
	root := tree.NewRoot("config")
	root.Spec = &listSpec{order: []string{"interface"}}
	for _, name := range names {
		e := &tree.Node{Kind: tree.Element, Name: "interface", Spec: &listSpec{kind: tree.SpecList, keys: []string{"name"}}}
		nameLeaf := tree.New("name", e, tree.Element)
		tree.New(name, nameLeaf, tree.Body).Value = name
		_ = tree.Insert(root, e, tree.PosSchemaOrder, nil, nil)
	}
	return root
}

func evalExpr(t *testing.T, exprStr string, root, node *tree.Node) Value {
	t.Helper()
	e, err := Parse(exprStr, &noPrefixNS{})
	require.NoError(t, err)
	v, err := Eval(e, &Context{Node: node, Root: root, Current: node, Position: 1, Size: 1})
	require.NoError(t, err)
	return v
}

func TestEvalAbsolutePathListKeyFastPath(t *testing.T) {
	root := buildInterfaces("eth0", "eth1", "eth2")
	v := evalExpr(t, "/interface[name='eth1']/name", root, root)
	require.Len(t, v.Nodes, 1)
	require.Equal(t, "eth1", stringValueOf(v.Nodes[0]))
}

func TestEvalCountFunction(t *testing.T) {
	root := buildInterfaces("eth0", "eth1", "eth2")
	v := evalExpr(t, "count(/interface)", root, root)
	require.Equal(t, float64(3), v.AsNumber())
}

func TestEvalBooleanAndArithmetic(t *testing.T) {
	root := buildInterfaces("eth0")
	v := evalExpr(t, "1 + 2 = 3 and not(false())", root, root)
	require.True(t, v.AsBool())
}

func TestEvalStringFunctions(t *testing.T) {
	root := buildInterfaces("eth0")
	v := evalExpr(t, "concat('a', 'b', 'c') = 'abc'", root, root)
	require.True(t, v.AsBool())

	v = evalExpr(t, "starts-with('eth0', 'eth')", root, root)
	require.True(t, v.AsBool())

	v = evalExpr(t, "substring('hello world', 1, 5)", root, root)
	require.Equal(t, "hello", v.AsString())
}

func TestEvalPredicatePositional(t *testing.T) {
	root := buildInterfaces("eth0", "eth1", "eth2")
	v := evalExpr(t, "/interface[2]/name", root, root)
	require.Len(t, v.Nodes, 1)
	require.Equal(t, "eth1", stringValueOf(v.Nodes[0]))
}

func TestFastPathMissingKeyReturnsNoMatch(t *testing.T) {
	root := buildInterfaces("eth0", "eth1")
	// A full-key predicate naming an entry that does not exist: the fast
	// path's binary search misses and the step yields no matches, not an
	// error.
	v := evalExpr(t, "/interface[name='missing']/name", root, root)
	require.Empty(t, v.Nodes)
}

func TestCompileCacheKeyedOnNamespace(t *testing.T) {
	cache := NewCompileCache()
	ns1, ns2 := &noPrefixNS{}, &noPrefixNS{}
	e1, err := cache.Compile("1+1", ns1)
	require.NoError(t, err)
	e2, err := cache.Compile("1+1", ns1)
	require.NoError(t, err)
	require.Same(t, e1, e2, "identical (expr, ns) must hit the cache")

	e3, err := cache.Compile("1+1", ns2)
	require.NoError(t, err)
	require.NotSame(t, e1, e3, "distinct ns values must not share a cache entry")
}
