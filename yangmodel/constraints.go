// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package yangmodel

import (
	"fmt"
	"strconv"

	"github.com/openconfig/goyang/pkg/yang"
)

// Mandatory reports whether s is a "mandatory true" leaf, choice or
// anydata (RFC 7950 7.6.5). goyang gives Entry a dedicated field for
// Default/Config/Key but not mandatory; like HasPresence's "presence"
// check, we read it off Entry.Extra, where goyang stashes substatements
// it has no typed field for.
func (s *Statement) Mandatory() bool {
	return extraBool(s.Entry, "mandatory")
}

// MustExprs returns every "must" constraint expression declared directly
// on s, in declaration order.
func (s *Statement) MustExprs() []string {
	return extraStrings(s.Entry, "must")
}

// WhenExpr returns s's "when" expression, if it carries one (e.g. because
// it sits inside a conditionally-present augment or choice case).
func (s *Statement) WhenExpr() (string, bool) {
	exprs := extraStrings(s.Entry, "when")
	if len(exprs) == 0 {
		return "", false
	}
	return exprs[0], true
}

// UniqueExprs returns every "unique" descendant-schema-node-id list
// declared on a list statement, unparsed (space-separated leaf names
// relative to the list entry, per RFC 7950 7.8.3).
func (s *Statement) UniqueExprs() []string {
	return extraStrings(s.Entry, "unique")
}

// MinElements returns the list/leaf-list's declared minimum instance
// count, defaulting to 0 (no constraint) when none was declared.
func (s *Statement) MinElements() int {
	if s.Entry == nil || s.Entry.ListAttr == nil || s.Entry.ListAttr.MinElements == nil {
		return 0
	}
	n, _ := strconv.Atoi(s.Entry.ListAttr.MinElements.Name)
	return n
}

// MaxElements returns the list/leaf-list's declared maximum instance
// count and true, or (0, false) when "unbounded" or undeclared.
func (s *Statement) MaxElements() (int, bool) {
	if s.Entry == nil || s.Entry.ListAttr == nil || s.Entry.ListAttr.MaxElements == nil {
		return 0, false
	}
	v := s.Entry.ListAttr.MaxElements.Name
	if v == "" || v == "unbounded" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// LeafrefPath returns the leafref "path" substatement's XPath expression
// for a leaf/leaf-list whose resolved type is leafref.
func (s *Statement) LeafrefPath() (string, bool) {
	info := s.ResolveType()
	if info.Base != yang.Yleafref {
		return "", false
	}
	if s.Entry == nil || s.Entry.Type == nil {
		return "", false
	}
	if s.Entry.Type.Path == "" {
		return "", false
	}
	return s.Entry.Type.Path, true
}

func extraStrings(e *yang.Entry, keyword string) []string {
	if e == nil {
		return nil
	}
	vals, ok := e.Extra[keyword]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vals))
	for _, v := range vals {
		out = append(out, extraArg(v))
	}
	return out
}

func extraBool(e *yang.Entry, keyword string) bool {
	vals := extraStrings(e, keyword)
	return len(vals) > 0 && vals[0] == "true"
}

// extraArg normalises one Entry.Extra value to its statement argument
// text. goyang records these either as *yang.Value (the common case for a
// single-argument substatement) or, failing that, whatever Stringer the
// concrete AST node implements.
func extraArg(v interface{}) string {
	if val, ok := v.(*yang.Value); ok {
		return val.Name
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}
