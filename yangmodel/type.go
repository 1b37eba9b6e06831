// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

package yangmodel

import "github.com/openconfig/goyang/pkg/yang"

// TypeInfo is the resolved, restriction-merged view of a leaf or
// leaf-list's type, after walking its typedef chain to the built-in base
// type (spec section 4.B, "resolve_type").
type TypeInfo struct {
	Base           yang.TypeKind
	Range          yang.YangRange
	Length         yang.YangRange
	Pattern        []string
	FractionDigits uint8
	Enum           *yang.EnumType
	IdentityBase   []*yang.Identity

	// Union holds the resolved TypeInfo of each branch when Base is
	// Yunion. Union types are deliberately never cached on the Statement
	// (see ResolveType) because which branch a given value ultimately
	// matches is a per-value decision, not a per-statement one.
	Union []*TypeInfo
}

// ResolveType returns the resolved type of a leaf or leaf-list statement:
// its built-in base kind, with every restriction (range, length, pattern,
// fraction-digits) merged down the typedef chain from the innermost
// typedef to the statement's own local restrictions, per YANG's
// restriction-narrowing rule (each level may only narrow, never widen, its
// base's restrictions).
//
// The result is memoised on s except when the resolved kind is Yunion:
// union member resolution can be position-dependent (a leafref inside a
// union resolves relative to the instance being validated), so unions are
// recomputed on every call rather than cached.
func (s *Statement) ResolveType() *TypeInfo {
	if s.Entry == nil || s.Entry.Type == nil {
		return &TypeInfo{Base: yang.Ystring}
	}
	if s.typeInfo != nil {
		return s.typeInfo
	}
	info := resolveYangType(s.Entry.Type)
	if info.Base != yang.Yunion {
		s.typeInfo = info
	}
	return info
}

// resolveYangType walks t's typedef chain (t.Base, set by goyang when t
// itself is a reference to a typedef rather than a builtin) merging
// restrictions outward-in: the outermost (closest to the leaf)
// restriction wins when both a typedef and its user specify one, matching
// YANG's "may only narrow" semantics since goyang itself already
// validates that narrowing at parse time.
func resolveYangType(t *yang.YangType) *TypeInfo {
	info := &TypeInfo{
		Base:           t.Kind,
		Range:          t.Range,
		Length:         t.Length,
		Pattern:        t.Pattern,
		FractionDigits: t.FractionDigits,
		Enum:           t.Enum,
		IdentityBase:   t.IdentityBase,
	}
	if t.Kind == yang.Yunion {
		info.Union = make([]*TypeInfo, 0, len(t.Type))
		for _, member := range t.Type {
			info.Union = append(info.Union, resolveYangType(member))
		}
		return info
	}
	if t.Base != nil && isTypedefReference(t) {
		parent := resolveYangType(t.Base)
		if info.Range == nil {
			info.Range = parent.Range
		}
		if info.Length == nil {
			info.Length = parent.Length
		}
		if len(info.Pattern) == 0 {
			info.Pattern = parent.Pattern
		}
		if info.FractionDigits == 0 {
			info.FractionDigits = parent.FractionDigits
		}
		if info.Enum == nil {
			info.Enum = parent.Enum
		}
		if info.Base == 0 {
			info.Base = parent.Base
		}
	}
	return info
}

// isTypedefReference reports whether t was declared via a typedef name
// rather than directly as a builtin keyword. goyang resolves t.Kind to
// the ultimate builtin either way, so the signal that a further typedef
// link exists worth merging restrictions from is simply that t.Base is
// populated and distinct from t itself.
func isTypedefReference(t *yang.YangType) bool {
	return t.Base != nil && t.Base != t
}
