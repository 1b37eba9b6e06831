// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import (
	"fmt"

	"github.com/vyatta-confd/engine/tree"
)

// Eval evaluates expr against ctx.
func Eval(expr *Expr, ctx *Context) (Value, error) {
	switch expr.Kind {
	case KindLiteralString:
		return strVal(expr.Str), nil
	case KindLiteralNumber:
		return numVal(expr.Num), nil
	case KindVariable:
		if v, ok := ctx.Vars[expr.VarName]; ok {
			return v, nil
		}
		return Value{}, fmt.Errorf("xpath: unbound variable $%s", expr.VarName)
	case KindUnaryMinus:
		v, err := Eval(expr.Operand, ctx)
		if err != nil {
			return Value{}, err
		}
		return numVal(-v.AsNumber()), nil
	case KindBinary:
		return evalBinary(expr, ctx)
	case KindUnion:
		var out []*tree.Node
		seen := make(map[*tree.Node]bool)
		for _, branch := range expr.Union {
			v, err := Eval(branch, ctx)
			if err != nil {
				return Value{}, err
			}
			for _, n := range v.Nodes {
				if !seen[n] {
					seen[n] = true
					out = append(out, n)
				}
			}
		}
		return nodeSet(out), nil
	case KindLocationPath:
		return evalLocationPath(expr.Path, ctx)
	case KindFuncCall:
		return evalFuncCall(expr, ctx)
	}
	return Value{}, fmt.Errorf("xpath: unhandled expression kind %d", expr.Kind)
}

func evalBinary(expr *Expr, ctx *Context) (Value, error) {
	switch expr.Op {
	case OpAnd:
		l, err := Eval(expr.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if !l.AsBool() {
			return boolVal(false), nil
		}
		r, err := Eval(expr.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return boolVal(r.AsBool()), nil
	case OpOr:
		l, err := Eval(expr.Left, ctx)
		if err != nil {
			return Value{}, err
		}
		if l.AsBool() {
			return boolVal(true), nil
		}
		r, err := Eval(expr.Right, ctx)
		if err != nil {
			return Value{}, err
		}
		return boolVal(r.AsBool()), nil
	}

	l, err := Eval(expr.Left, ctx)
	if err != nil {
		return Value{}, err
	}
	r, err := Eval(expr.Right, ctx)
	if err != nil {
		return Value{}, err
	}

	switch expr.Op {
	case OpEq, OpNe:
		return boolVal(compareEquality(l, r, expr.Op == OpEq)), nil
	case OpLt, OpLe, OpGt, OpGe:
		return boolVal(compareRelational(l, r, expr.Op)), nil
	case OpAdd:
		return numVal(l.AsNumber() + r.AsNumber()), nil
	case OpSub:
		return numVal(l.AsNumber() - r.AsNumber()), nil
	case OpMul:
		return numVal(l.AsNumber() * r.AsNumber()), nil
	case OpDiv:
		return numVal(l.AsNumber() / r.AsNumber()), nil
	case OpMod:
		lf, rf := l.AsNumber(), r.AsNumber()
		return numVal(lf - rf*float64(int64(lf/rf))), nil
	}
	return Value{}, fmt.Errorf("xpath: unhandled operator %d", expr.Op)
}

// compareEquality implements XPath 1.0 section 3.4's object-comparison
// rules: node-set vs anything compares by existence of a matching
// string-value among the set's members; otherwise both sides coerce to
// the type of whichever side is not a node-set (boolean beats number
// beats string when neither side is a node-set).
func compareEquality(l, r Value, wantEq bool) bool {
	eq := rawEquals(l, r)
	if wantEq {
		return eq
	}
	return !eq
}

func rawEquals(l, r Value) bool {
	if l.Kind == KindNodeSet && r.Kind == KindNodeSet {
		for _, a := range l.Nodes {
			for _, b := range r.Nodes {
				if stringValueOf(a) == stringValueOf(b) {
					return true
				}
			}
		}
		return false
	}
	if l.Kind == KindNodeSet || r.Kind == KindNodeSet {
		ns, other := l, r
		if r.Kind == KindNodeSet {
			ns, other = r, l
		}
		for _, n := range ns.Nodes {
			if nodeSetMemberEquals(n, other) {
				return true
			}
		}
		return false
	}
	if l.Kind == KindBool || r.Kind == KindBool {
		return l.AsBool() == r.AsBool()
	}
	if l.Kind == KindNumber || r.Kind == KindNumber {
		return l.AsNumber() == r.AsNumber()
	}
	return l.AsString() == r.AsString()
}

func nodeSetMemberEquals(n *tree.Node, other Value) bool {
	switch other.Kind {
	case KindNumber:
		return parseXPathNumber(stringValueOf(n)) == other.Number
	case KindBool:
		// The node-set side converts to boolean (true, since this is
		// only reached for a non-empty set) before comparing.
		return other.Bool
	default:
		return stringValueOf(n) == other.AsString()
	}
}

func compareRelational(l, r Value, op BinaryOp) bool {
	lf, rf := l.AsNumber(), r.AsNumber()
	switch op {
	case OpLt:
		return lf < rf
	case OpLe:
		return lf <= rf
	case OpGt:
		return lf > rf
	case OpGe:
		return lf >= rf
	}
	return false
}

func evalLocationPath(path *LocationPath, ctx *Context) (Value, error) {
	var current []*tree.Node
	if path.Absolute {
		current = []*tree.Node{ctx.Root}
	} else {
		current = []*tree.Node{ctx.Node}
	}
	for _, step := range path.Steps {
		next, err := evalStep(step, current, ctx)
		if err != nil {
			return Value{}, err
		}
		current = next
	}
	return nodeSet(current), nil
}

// evalStep evaluates one location step against every node in from,
// de-duplicating the union of each node's candidate set, then applies
// step's predicates in order (each predicate re-establishes position()
// and last() over the surviving candidate set, per XPath 1.0 section
// 2.4).
func evalStep(step Step, from []*tree.Node, ctx *Context) ([]*tree.Node, error) {
	if fast, ok := tryListKeyFastPath(step, from, ctx); ok {
		return fast, nil
	}

	seen := make(map[*tree.Node]bool)
	var candidates []*tree.Node
	for _, n := range from {
		for _, c := range axisNodes(step.Axis, n) {
			if !matchesTest(step.Test, c) {
				continue
			}
			if !seen[c] {
				seen[c] = true
				candidates = append(candidates, c)
			}
		}
	}

	for _, pred := range step.Predicates {
		var kept []*tree.Node
		for i, c := range candidates {
			pctx := ctx.child(c, i+1, len(candidates))
			v, err := Eval(pred.Operand, pctx)
			if err != nil {
				return nil, err
			}
			if predicateMatches(v, i+1) {
				kept = append(kept, c)
			}
		}
		candidates = kept
	}
	return candidates, nil
}

// predicateMatches implements XPath 1.0's rule that a predicate whose
// value is a number is a positional test (position() = that number),
// and any other value is coerced to boolean.
func predicateMatches(v Value, position int) bool {
	if v.Kind == KindNumber {
		return float64(position) == v.Number
	}
	return v.AsBool()
}

func axisNodes(axis Axis, n *tree.Node) []*tree.Node {
	switch axis {
	case AxisChild:
		return elementChildren(n)
	case AxisSelf:
		return []*tree.Node{n}
	case AxisParent:
		if n.Parent != nil {
			return []*tree.Node{n.Parent}
		}
		return nil
	case AxisAncestor:
		var out []*tree.Node
		for p := n.Parent; p != nil; p = p.Parent {
			out = append(out, p)
		}
		return out
	case AxisAncestorOrSelf:
		out := []*tree.Node{n}
		for p := n.Parent; p != nil; p = p.Parent {
			out = append(out, p)
		}
		return out
	case AxisDescendant:
		var out []*tree.Node
		collectDescendants(n, &out)
		return out
	case AxisDescendantOrSelf:
		out := []*tree.Node{n}
		collectDescendants(n, &out)
		return out
	case AxisAttribute:
		return append([]*tree.Node(nil), n.Attrs...)
	case AxisFollowingSibling:
		return siblingsAfter(n)
	case AxisPrecedingSibling:
		return siblingsBefore(n)
	}
	return nil
}

func elementChildren(n *tree.Node) []*tree.Node {
	var out []*tree.Node
	for _, c := range n.Children {
		if c.Kind == tree.Element {
			out = append(out, c)
		}
	}
	return out
}

func collectDescendants(n *tree.Node, out *[]*tree.Node) {
	for _, c := range elementChildren(n) {
		*out = append(*out, c)
		collectDescendants(c, out)
	}
}

func siblingsAfter(n *tree.Node) []*tree.Node {
	if n.Parent == nil {
		return nil
	}
	sibs := elementChildren(n.Parent)
	for i, s := range sibs {
		if s == n {
			return sibs[i+1:]
		}
	}
	return nil
}

func siblingsBefore(n *tree.Node) []*tree.Node {
	if n.Parent == nil {
		return nil
	}
	sibs := elementChildren(n.Parent)
	for i, s := range sibs {
		if s == n {
			out := append([]*tree.Node(nil), sibs[:i]...)
			reverseNodes(out)
			return out
		}
	}
	return nil
}

func reverseNodes(ns []*tree.Node) {
	for i, j := 0, len(ns)-1; i < j; i, j = i+1, j-1 {
		ns[i], ns[j] = ns[j], ns[i]
	}
}

func matchesTest(test NodeTest, n *tree.Node) bool {
	switch test.Kind {
	case TestNode:
		return true
	case TestText:
		return n.Kind == tree.Body
	case TestWildcard:
		return n.Kind == tree.Element
	case TestName:
		return n.Kind == tree.Element && n.Name == test.Local
	}
	return false
}
