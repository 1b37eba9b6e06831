// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package commit

import (
	"regexp"
	"strconv"
	"unicode/utf8"

	"github.com/openconfig/goyang/pkg/yang"

	"github.com/vyatta-confd/engine/mgmterror"
	"github.com/vyatta-confd/engine/tree"
	"github.com/vyatta-confd/engine/xpath"
	"github.com/vyatta-confd/engine/yangmodel"
)

// validate runs every registered Validator plugin plus the engine's
// built-in YANG structural checks against tx, accumulating every
// violation rather than stopping at the first (spec section 9).
func (e *Engine) validate(tx *Transaction) []*mgmterror.Error {
	var errs []*mgmterror.Error

	errs = append(errs, e.validateConstraints(tx.Target)...)

	for _, p := range e.plugins {
		v, ok := p.(Validator)
		if !ok {
			continue
		}
		if err := v.Validate(tx); err != nil {
			if me, ok := err.(*mgmterror.Error); ok {
				errs = append(errs, me)
			} else {
				wrapped := mgmterror.NewOperationFailedApplicationError()
				wrapped.Message = err.Error()
				errs = append(errs, wrapped)
			}
		}
	}
	return errs
}

// validateConstraints walks node's whole subtree checking the built-in
// YANG constraints spec section 4.E names: mandatory, when/must
// (evaluated via component C), unique, min/max-elements, and leafref
// targets. must applies to sub-mount trees too, using the resolver's
// lookup contract for the correct schema at each point (spec section
// 4.F's fidelity property).
func (e *Engine) validateConstraints(node *tree.Node) []*mgmterror.Error {
	var errs []*mgmterror.Error
	e.walkValidate(node, node, &errs)
	return errs
}

func (e *Engine) walkValidate(root, node *tree.Node, errs *[]*mgmterror.Error) {
	stmt, _ := node.Spec.(*yangmodel.Statement)
	if stmt != nil {
		ms := e.modelSetFor(node)
		ctx := &xpath.Context{Node: node, Root: root, Position: 1, Size: 1, Current: node}

		if when, ok := stmt.WhenExpr(); ok {
			if !evalBoolExpr(when, ms, ctx) {
				// A false "when" means the node is out of context, not
				// simply invalid: in the full engine this would prune the
				// node before validate ever sees it. The built-in check
				// here flags it so an edit that leaves a when-guarded
				// node behind a false condition is still caught.
				*errs = append(*errs, whenError(node, when))
			}
		}
		for _, must := range stmt.MustExprs() {
			if !evalBoolExpr(must, ms, ctx) {
				*errs = append(*errs, mustError(node, must))
			}
		}
		if path, ok := stmt.LeafrefPath(); ok {
			if !leafrefResolves(path, ms, ctx) {
				*errs = append(*errs, leafrefError(node, path))
			}
		}
		if stmt.SpecKind() == tree.SpecList && isFirstEntry(node) {
			validateListCardinality(node, stmt, errs)
			validateUnique(node, stmt, errs)
		}
		if stmt.SpecKind() == tree.SpecLeaf || stmt.SpecKind() == tree.SpecLeafList {
			validateType(node, stmt, errs)
		}
		validateMandatoryChildren(node, stmt, ms, errs)
	}
	for _, c := range node.Children {
		if c.Kind != tree.Element {
			continue
		}
		e.walkValidate(root, c, errs)
	}
}

// validateMandatoryChildren checks, for each of node's declared schema
// children, whether a "mandatory true" leaf/choice/anydata is missing
// from node's actual data children (spec section 4.E's built-in
// "mandatory" check).
func validateMandatoryChildren(node *tree.Node, stmt *yangmodel.Statement, ms *yangmodel.ModelSet, errs *[]*mgmterror.Error) {
	if stmt.Entry == nil || stmt.Entry.Dir == nil {
		return
	}
	for name, childEntry := range stmt.Entry.Dir {
		childStmt := ms.StatementOf(childEntry)
		if !childStmt.Mandatory() {
			continue
		}
		if node.Child(name) == nil {
			*errs = append(*errs, mandatoryError(node, name))
		}
	}
}

func evalBoolExpr(expr string, ms *yangmodel.ModelSet, ctx *xpath.Context) bool {
	compiled, err := xpath.Parse(expr, ms)
	if err != nil {
		return true // unparsable constraint: fail open rather than block every commit
	}
	val, err := xpath.Eval(compiled, ctx)
	if err != nil {
		return true
	}
	return val.AsBool()
}

func leafrefResolves(path string, ms *yangmodel.ModelSet, ctx *xpath.Context) bool {
	compiled, err := xpath.Parse(path, ms)
	if err != nil {
		return true
	}
	val, err := xpath.Eval(compiled, ctx)
	if err != nil {
		return true
	}
	return len(val.Nodes) > 0
}

// isFirstEntry reports whether list is the first entry among its parent's
// same-named siblings, so list-level checks (min/max-elements, unique) run
// exactly once per list rather than once per entry.
func isFirstEntry(list *tree.Node) bool {
	if list.Parent == nil {
		return true
	}
	siblings := list.Parent.ChildrenNamed(list.Name)
	return len(siblings) == 0 || siblings[0] == list
}

func validateListCardinality(list *tree.Node, stmt *yangmodel.Statement, errs *[]*mgmterror.Error) {
	if list.Parent == nil {
		return
	}
	n := len(list.Parent.ChildrenNamed(list.Name))
	if min := stmt.MinElements(); min > 0 && n < min {
		*errs = append(*errs, minElementsError(list))
	}
	if max, ok := stmt.MaxElements(); ok && n > max {
		*errs = append(*errs, maxElementsError(list))
	}
}

func validateUnique(list *tree.Node, stmt *yangmodel.Statement, errs *[]*mgmterror.Error) {
	if list.Parent == nil {
		return
	}
	for _, uniqueExpr := range stmt.UniqueExprs() {
		leafNames := splitFields(uniqueExpr)
		seen := make(map[string]bool)
		for _, entry := range list.Parent.ChildrenNamed(list.Name) {
			key := ""
			for _, ln := range leafNames {
				if leaf := entry.Child(ln); leaf != nil {
					key += leaf.String() + "\x00"
				}
			}
			if seen[key] {
				*errs = append(*errs, uniqueError(entry, uniqueExpr))
				break
			}
			seen[key] = true
		}
	}
}

// validateType checks a leaf or leaf-list entry's body value against its
// resolved type's range, length and pattern restrictions (spec section
// 4.E's built-in "type constraints" check). Values of types this engine
// does not restriction-check (booleans, enumerations, identityrefs,
// leafrefs, and unions, whose member resolution belongs to a full type
// system rather than this structural pass) are accepted as-is by this
// check; the bind pass (datastore/bind.go) attaches statements without
// checking leaf values either.
func validateType(node *tree.Node, stmt *yangmodel.Statement, errs *[]*mgmterror.Error) {
	if err := checkTypeConstraint(node, stmt.ResolveType(), node.String()); err != nil {
		*errs = append(*errs, err)
	}
}

func checkTypeConstraint(node *tree.Node, info *yangmodel.TypeInfo, value string) *mgmterror.Error {
	switch info.Base {
	case yang.Ystring:
		return checkStringConstraint(node, info, value)
	case yang.Ybinary:
		if !isInRanges(info.Length, yang.FromUint(uint64(len(value)))) {
			return typeError(node, value, "length")
		}
	case yang.Yint8, yang.Yint16, yang.Yint32, yang.Yint64:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return typeError(node, value, "integer")
		}
		if !isInRanges(info.Range, yang.FromInt(n)) {
			return typeError(node, value, "range")
		}
	case yang.Yuint8, yang.Yuint16, yang.Yuint32, yang.Yuint64:
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return typeError(node, value, "unsigned integer")
		}
		if !isInRanges(info.Range, yang.FromUint(n)) {
			return typeError(node, value, "range")
		}
	case yang.Ydecimal64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return typeError(node, value, "decimal")
		}
		if !isInRanges(info.Range, yang.FromFloat(f)) {
			return typeError(node, value, "range")
		}
	}
	return nil
}

func checkStringConstraint(node *tree.Node, info *yangmodel.TypeInfo, value string) *mgmterror.Error {
	if !isInRanges(info.Length, yang.FromUint(uint64(utf8.RuneCountInString(value)))) {
		return typeError(node, value, "length")
	}
	for _, p := range info.Pattern {
		r, err := regexp.Compile(fixYangRegexp(p))
		if err != nil {
			continue // malformed pattern: fail open, same as evalBoolExpr
		}
		if !r.MatchString(value) {
			return typeError(node, value, "pattern")
		}
	}
	return nil
}

// isInRanges reports whether val falls within one of yrs's ranges. An empty
// yrs means "no restriction".
func isInRanges(yrs yang.YangRange, val yang.Number) bool {
	if len(yrs) == 0 {
		return true
	}
	for _, yr := range yrs {
		if (val.Less(yr.Max) || val.Equal(yr.Max)) && (yr.Min.Less(val) || yr.Min.Equal(val)) {
			return true
		}
	}
	return false
}

// fixYangRegexp anchors a YANG pattern the way RFC 7950 9.4.6 requires
// (implicit ^...$, per the W3C XML Schema regex convention YANG patterns
// follow) before handing it to Go's RE2 engine.
func fixYangRegexp(pattern string) string {
	if len(pattern) == 0 {
		return "^$"
	}
	anchored := pattern
	if anchored[0] != '^' {
		anchored = "^(?:" + anchored + ")"
	}
	if anchored[len(anchored)-1] != '$' {
		anchored = anchored + "$"
	}
	return anchored
}

func typeError(node *tree.Node, value, kind string) *mgmterror.Error {
	err := mgmterror.NewInvalidValueApplicationError()
	err.Path = pathStr(node)
	err.Message = "value " + strconv.Quote(value) + " violates " + kind + " constraint"
	return err
}

func splitFields(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if cur != "" {
				out = append(out, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func (e *Engine) modelSetFor(node *tree.Node) *yangmodel.ModelSet {
	if e.resolver == nil {
		return e.models
	}
	return e.resolver.SpecFor(node)
}

func nodePath(n *tree.Node) []string {
	var segs []string
	for cur := n; cur != nil && cur.Parent != nil; cur = cur.Parent {
		segs = append([]string{cur.Name}, segs...)
	}
	return segs
}

func whenError(n *tree.Node, expr string) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "when condition false: " + expr
	return err
}

func mustError(n *tree.Node, expr string) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "must condition false: " + expr
	return err
}

func leafrefError(n *tree.Node, path string) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "leafref target does not resolve: " + path
	return err
}

func mandatoryError(parent *tree.Node, name string) *mgmterror.Error {
	err := mgmterror.NewMissingElementApplicationError(name)
	err.Path = pathStr(parent)
	return err
}

func minElementsError(n *tree.Node) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "too few list entries"
	return err
}

func maxElementsError(n *tree.Node) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "too many list entries"
	return err
}

func uniqueError(n *tree.Node, expr string) *mgmterror.Error {
	err := mgmterror.NewOperationFailedApplicationError()
	err.Path = pathStr(n)
	err.Message = "unique constraint violated: " + expr
	return err
}

func pathStr(n *tree.Node) string {
	segs := nodePath(n)
	s := ""
	for _, seg := range segs {
		s += "/" + seg
	}
	return s
}
