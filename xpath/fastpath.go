// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import "github.com/vyatta-confd/engine/tree"

// tryListKeyFastPath recognises the single most common step shape a
// YANG "must"/"when"/leafref expression produces against a large list:
//
//	child::NAME[key1 = LITERAL][key2 = LITERAL]...
//
// where the predicates are an exact, fully-specified match on every one
// of NAME's key leaves. When every one of the five conditions below
// holds, it resolves the step with tree.FindIndex's O(log n) binary
// search instead of the generic O(n) per-candidate predicate evaluation
// evalStep otherwise performs — the difference that matters on an
// interface list with thousands of entries:
//
//  1. the step's axis is child and its test is a plain name test
//     (not a wildcard or node()/text() test);
//  2. there is exactly one context node to step from;
//  3. that context node already has at least one existing child named
//     NAME, so its list key names are known (an empty list has nothing
//     to find either way, so falling back to the slow, empty-result
//     path is harmless);
//  4. every predicate is a top-level equality test ("=" ,  never "!="
//     or a positional test) between one key leaf and a literal-valued
//     expression;
//  5. the set of predicates covers every key leaf exactly once, in any
//     order.
//
// Anything else — partial keys, comparisons other than "=", extra
// predicates beyond the key set — falls through to the generic
// evaluator, which still produces the correct, merely slower, result.
func tryListKeyFastPath(step Step, from []*tree.Node, ctx *Context) ([]*tree.Node, bool) {
	if step.Axis != AxisChild || step.Test.Kind != TestName || len(from) != 1 {
		return nil, false
	}
	parent := from[0]
	if parent == nil {
		return nil, false
	}

	var sample *tree.Node
	for _, c := range parent.Children {
		if c.Kind == tree.Element && c.Name == step.Test.Local {
			sample = c
			break
		}
	}
	if sample == nil || sample.Spec == nil || sample.Spec.SpecKind() != tree.SpecList {
		return nil, false
	}
	keyNames := sample.Spec.KeyNames()
	if len(keyNames) == 0 {
		return nil, false
	}

	values := make(map[string]string, len(keyNames))
	for _, pred := range step.Predicates {
		keyName, val, ok := matchKeyEquality(pred.Operand, ctx)
		if !ok {
			return nil, false
		}
		if _, dup := values[keyName]; dup {
			return nil, false
		}
		values[keyName] = val
	}
	if len(values) != len(keyNames) {
		return nil, false
	}

	tuple := make([]string, len(keyNames))
	for i, k := range keyNames {
		v, ok := values[k]
		if !ok {
			return nil, false
		}
		tuple[i] = v
	}

	idx, found := tree.FindIndex(parent, step.Test.Local, tuple)
	if !found {
		return nil, true
	}
	return []*tree.Node{parent.Children[idx]}, true
}

// matchKeyEquality recognises "child::KEY = LITERAL" (in either
// argument order), where KEY is a single unprefixed name step and
// LITERAL is a string/number literal or any other sub-expression whose
// value, evaluated eagerly against ctx (the step's outer context, not a
// candidate entry), is not a node-set — a string-valued variable, for
// example. A node-set-valued side such as current() does not match.
func matchKeyEquality(e *Expr, ctx *Context) (keyName, value string, ok bool) {
	if e.Kind != KindBinary || e.Op != OpEq {
		return "", "", false
	}
	if name, ok := singleChildStepName(e.Left); ok {
		if v, ok := literalValue(e.Right, ctx); ok {
			return name, v, true
		}
	}
	if name, ok := singleChildStepName(e.Right); ok {
		if v, ok := literalValue(e.Left, ctx); ok {
			return name, v, true
		}
	}
	return "", "", false
}

func singleChildStepName(e *Expr) (string, bool) {
	if e.Kind != KindLocationPath || e.Path.Absolute || len(e.Path.Steps) != 1 {
		return "", false
	}
	step := e.Path.Steps[0]
	if step.Axis != AxisChild || step.Test.Kind != TestName || len(step.Predicates) != 0 {
		return "", false
	}
	return step.Test.Local, true
}

func literalValue(e *Expr, ctx *Context) (string, bool) {
	switch e.Kind {
	case KindLiteralString:
		return e.Str, true
	case KindLiteralNumber:
		return formatXPathNumber(e.Num), true
	}
	v, err := Eval(e, ctx)
	if err != nil {
		return "", false
	}
	if v.Kind == KindNodeSet {
		return "", false
	}
	return v.AsString(), true
}
