// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package xpath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vyatta-confd/engine/tree"
)

// ValueKind is the dynamic type of an evaluation result, per XPath 1.0's
// four data types (section 1).
type ValueKind int

const (
	KindNodeSet ValueKind = iota
	KindBool
	KindNumber
	KindString
)

// Value is the result of evaluating an Expr.
type Value struct {
	Kind    ValueKind
	Nodes   []*tree.Node
	Bool    bool
	Number  float64
	Strval  string
}

func nodeSet(nodes []*tree.Node) Value { return Value{Kind: KindNodeSet, Nodes: nodes} }
func boolVal(b bool) Value             { return Value{Kind: KindBool, Bool: b} }
func numVal(n float64) Value           { return Value{Kind: KindNumber, Number: n} }
func strVal(s string) Value            { return Value{Kind: KindString, Strval: s} }

// AsBool / AsNumber / AsString implement XPath's object-type coercion rules
// (section 3.4's "Boolean Functions", "Number", "String" conversions).
func (v Value) AsBool() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		return v.Number != 0 && !math.IsNaN(v.Number)
	case KindString:
		return v.Strval != ""
	case KindNodeSet:
		return len(v.Nodes) > 0
	}
	return false
}

func (v Value) AsNumber() float64 {
	switch v.Kind {
	case KindNumber:
		return v.Number
	case KindBool:
		if v.Bool {
			return 1
		}
		return 0
	case KindString:
		return parseXPathNumber(v.Strval)
	case KindNodeSet:
		if len(v.Nodes) == 0 {
			return math.NaN()
		}
		return parseXPathNumber(stringValueOf(v.Nodes[0]))
	}
	return math.NaN()
}

func parseXPathNumber(s string) float64 {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return n
}

func (v Value) AsString() string {
	switch v.Kind {
	case KindString:
		return v.Strval
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatXPathNumber(v.Number)
	case KindNodeSet:
		if len(v.Nodes) == 0 {
			return ""
		}
		return stringValueOf(v.Nodes[0])
	}
	return ""
}

func formatXPathNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == math.Trunc(n) && math.Abs(n) < 1e15:
		return strconv.FormatInt(int64(n), 10)
	default:
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
}

// stringValueOf computes a node's XPath string-value (section 5.1-5.7):
// the Body value for a leaf/leaf-list, the concatenation of descendant
// text for a container/list, the attribute's own value for an attribute.
func stringValueOf(n *tree.Node) string {
	if n == nil {
		return ""
	}
	switch n.Kind {
	case tree.Body, tree.Attribute:
		return n.Value
	}
	if n.Spec != nil {
		switch n.Spec.SpecKind() {
		case tree.SpecLeaf, tree.SpecLeafList:
			for _, c := range n.Children {
				if c.Kind == tree.Body {
					return c.Value
				}
			}
			return ""
		}
	}
	var sb strings.Builder
	collectText(n, &sb)
	return sb.String()
}

func collectText(n *tree.Node, sb *strings.Builder) {
	if n.Kind == tree.Body {
		sb.WriteString(n.Value)
		return
	}
	for _, c := range n.Children {
		collectText(c, sb)
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%v(%s)", v.Kind, v.AsString())
}
