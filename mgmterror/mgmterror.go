// Copyright (c) 2025, the confd authors.
//
// SPDX-License-Identifier: LGPL-2.1-only

// Package mgmterror implements the NETCONF-style error taxonomy that every
// core function in this module returns user-visible failures through: an
// error-type, an error-tag, a severity, an optional path to the offending
// node, and a free-form message.
package mgmterror

import "fmt"

// ErrorType is the broad category of an error, per RFC 6241 section 4.3.
type ErrorType string

const (
	ErrTypeTransport ErrorType = "transport"
	ErrTypeRPC       ErrorType = "rpc"
	ErrTypeProtocol  ErrorType = "protocol"
	ErrTypeApp       ErrorType = "application"
)

// Severity is always "error" for the errors this module raises; "warning"
// is reserved for diagnostics that do not abort the caller's operation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is a structured, user-visible failure. It satisfies the error
// interface and carries everything a NETCONF front-end needs to build an
// rpc-error element.
type Error struct {
	Type     ErrorType
	Tag      string
	Severity Severity
	Path     string
	Message  string
	AppTag   string
	Info     []InfoTag
}

// InfoTag is one <error-info> child, e.g. <bad-element>, <ok-element>.
type InfoTag struct {
	Name  string
	Value string
}

func NewMgmtErrorInfoTag(name, value string) InfoTag {
	return InfoTag{Name: name, Value: value}
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Tag, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

func newError(typ ErrorType, tag, message string) *Error {
	return &Error{
		Type:     typ,
		Tag:      tag,
		Severity: SeverityError,
		Message:  message,
	}
}

// Access / locking

func NewLockDeniedError(heldBy string) *Error {
	err := newError(ErrTypeProtocol, "lock-denied", "Lock is held by another session")
	err.Info = []InfoTag{NewMgmtErrorInfoTag("session-id", heldBy)}
	return err
}

func NewAccessDeniedApplicationError() *Error {
	return newError(ErrTypeApp, "access-denied", "Access to the requested node is denied")
}

func NewResourceDeniedProtocolError() *Error {
	return newError(ErrTypeProtocol, "resource-denied", "Request could not be completed because of insufficient resources")
}

// Data

func NewDataExistsError(path string) *Error {
	err := newError(ErrTypeApp, "data-exists", "Data already exists")
	err.Path = path
	return err
}

func NewDataMissingError(path string) *Error {
	err := newError(ErrTypeApp, "data-missing", "Data does not exist")
	err.Path = path
	return err
}

func NewNodeExistsError(path []string) *Error {
	return NewDataExistsError(pathstr(path))
}

func NewNodeNotExistsError(path []string) *Error {
	return NewDataMissingError(pathstr(path))
}

// NewDataInvalidError reports a structural violation of the tree's
// sorted-child invariant: a duplicate list-entry key tuple, or two
// non-leaf-list elements sharing a name under a container.
func NewDataInvalidError(path []string) *Error {
	err := newError(ErrTypeApp, "operation-failed", "Duplicate or invalid entry")
	err.Path = pathstr(path)
	return err
}

func NewInvalidPathError(path []string) *Error {
	err := newError(ErrTypeApp, "invalid-value", "Configuration path does not exist")
	err.Path = pathstr(path)
	return err
}

// Schema / values

func NewInvalidValueProtocolError() *Error {
	return newError(ErrTypeProtocol, "invalid-value", "Invalid value")
}

func NewInvalidValueApplicationError() *Error {
	return newError(ErrTypeApp, "invalid-value", "Invalid value")
}

func NewUnknownElementProtocolError(elem string) *Error {
	err := newError(ErrTypeProtocol, "unknown-element", "Unknown element "+elem)
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-element", elem)}
	return err
}

func NewUnknownElementApplicationError(elem string) *Error {
	err := newError(ErrTypeApp, "unknown-element", "Unknown element "+elem)
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-element", elem)}
	return err
}

func NewUnknownAttrProtocolError(attr, elem string) *Error {
	err := newError(ErrTypeProtocol, "unknown-attribute", "Unknown attribute "+attr+" on "+elem)
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-attribute", attr), NewMgmtErrorInfoTag("bad-element", elem)}
	return err
}

func NewUnknownNamespaceProtocolError(elem, ns string) *Error {
	err := newError(ErrTypeProtocol, "unknown-namespace", "Unknown namespace "+ns+" on "+elem)
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-element", elem), NewMgmtErrorInfoTag("bad-namespace", ns)}
	return err
}

func NewUnknownNamespaceApplicationError(elem, ns string) *Error {
	err := newError(ErrTypeApp, "unknown-namespace", "Unknown namespace "+ns+" on "+elem)
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-element", elem), NewMgmtErrorInfoTag("bad-namespace", ns)}
	return err
}

func NewMissingElementApplicationError(elem string) *Error {
	err := newError(ErrTypeApp, "missing-element", "Mandatory node "+elem+" is missing")
	err.Info = []InfoTag{NewMgmtErrorInfoTag("bad-element", elem)}
	return err
}

func NewPathAmbiguousError(path []string) *Error {
	err := newError(ErrTypeApp, "operation-failed", "Path is ambiguous")
	err.Path = pathstr(path)
	return err
}

// Protocol / framing

func NewMalformedMessageError() *Error {
	return newError(ErrTypeRPC, "malformed-message", "Message could not be parsed")
}

func NewOperationNotSupportedApplicationError() *Error {
	return newError(ErrTypeApp, "operation-not-supported", "Requested operation is not supported")
}

// IO / internal, surfaced as a user-visible application error per the
// commit/prepare/plugin-error wrapping rule in spec section 7.

func NewOperationFailedApplicationError() *Error {
	return newError(ErrTypeApp, "operation-failed", "Operation failed")
}

func NewOperationFailedProtocolError() *Error {
	return newError(ErrTypeProtocol, "operation-failed", "Operation failed")
}

// NewExecError wraps the failure of an external helper (a validate/commit
// script, a hook) invoked on behalf of path.
func NewExecError(path []string, out string) error {
	err := newError(ErrTypeApp, "operation-failed", out)
	err.Path = pathstr(path)
	return err
}

func pathstr(path []string) string {
	s := ""
	for _, p := range path {
		s += "/" + p
	}
	if s == "" {
		return "/"
	}
	return s
}

// IsTag reports whether err is an *Error carrying the given error-tag.
func IsTag(err error, tag string) bool {
	me, ok := err.(*Error)
	return ok && me.Tag == tag
}
