// Package delerr defines the error taxonomy of the delegation generator.
//
// Every failure the generator can report is one of a small set of typed
// errors. None of them are fatal to the host process: callers are expected
// to render them as diagnostics anchored to the reported position.
package delerr

import (
	"fmt"
)

// ErrorType defines the category of the error.
type ErrorType string

const (
	TypeSyntax  ErrorType = "SyntaxError"
	TypeSpec    ErrorType = "SpecError"
	TypeResolve ErrorType = "ResolveError"
	TypeGeneric ErrorType = "GenericError"
	TypeIO      ErrorType = "IOError"
)

// DelegenError is the interface for all generator errors.
type DelegenError interface {
	error
	Type() ErrorType
}

// Pos anchors an error to a location in an input buffer.
// A zero Line means the error has no position.
type Pos struct {
	File   string
	Line   int
	Column int
}

func (p Pos) String() string {
	if p.Line == 0 {
		return p.File
	}
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("line %d:%d", p.Line, p.Column)
}

// Error is the concrete error value produced by the generator.
type Error struct {
	Msg     string
	ErrType ErrorType
	Pos     Pos
	// Key names the offending specification key or identifier, if any.
	Key string
	// Cause is the underlying failure for IOError values.
	Cause error
}

func (e *Error) Error() string {
	loc := e.Pos.String()
	if loc != "" {
		return fmt.Sprintf("[%s] %s %s", e.ErrType, loc, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.ErrType, e.Msg)
}

func (e *Error) Type() ErrorType {
	return e.ErrType
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// At returns a copy of e anchored at pos. An already anchored error keeps its position.
func (e *Error) At(pos Pos) *Error {
	if e.Pos.Line > 0 {
		return e
	}
	c := *e
	if pos.File == "" {
		pos.File = e.Pos.File
	}
	c.Pos = pos
	return &c
}

// InFile returns a copy of e with the file name set.
func (e *Error) InFile(path string) *Error {
	if e.Pos.File != "" {
		return e
	}
	c := *e
	c.Pos.File = path
	return &c
}

func newError(t ErrorType, pos Pos, msg string) *Error {
	return &Error{Msg: msg, ErrType: t, Pos: pos}
}

// NewSyntaxError creates an error raised while parsing an input buffer.
func NewSyntaxError(pos Pos, msg string) *Error {
	return newError(TypeSyntax, pos, msg)
}

// NewMissingKey reports a required specification key that was not given.
func NewMissingKey(key string) *Error {
	e := newError(TypeSpec, Pos{}, fmt.Sprintf("missing key `%s`", key))
	e.Key = key
	return e
}

// NewDuplicateKey reports a specification key given more than once.
func NewDuplicateKey(pos Pos, key string) *Error {
	e := newError(TypeSpec, pos, fmt.Sprintf("duplicate key `%s`", key))
	e.Key = key
	return e
}

// NewUnknownKey reports a specification key the parser does not recognize.
func NewUnknownKey(pos Pos, key string) *Error {
	e := newError(TypeSpec, pos, fmt.Sprintf("unknown key `%s`", key))
	e.Key = key
	return e
}

// NewSpecError reports any other malformed specification.
func NewSpecError(pos Pos, msg string) *Error {
	return newError(TypeSpec, pos, msg)
}

// NewInterfaceNotFound reports a referenced interface absent from the resolved source.
func NewInterfaceNotFound(pos Pos, name string) *Error {
	e := newError(TypeResolve, pos, fmt.Sprintf("interface `%s` not found", name))
	e.Key = name
	return e
}

// NewDuplicateInterface reports an interface requested or defined twice.
func NewDuplicateInterface(pos Pos, name string) *Error {
	e := newError(TypeResolve, pos, fmt.Sprintf("duplicate interface identifier `%s`", name))
	e.Key = name
	return e
}

// NewAliasCollision reports an import alias bound twice while strict aliasing is on.
func NewAliasCollision(pos Pos, alias, previous, next string) *Error {
	e := newError(TypeResolve, pos, fmt.Sprintf("alias `%s` refers to both `%s` and `%s`", alias, previous, next))
	e.Key = alias
	return e
}

// NewArityMismatch reports a usage site supplying the wrong number of generic arguments.
func NewArityMismatch(pos Pos, name string, expected, actual int) *Error {
	e := newError(TypeGeneric, pos, fmt.Sprintf(
		"interface `%s` expects %d generic argument(s), found %d", name, expected, actual))
	e.Key = name
	return e
}

// NewKindMismatch reports a generic argument whose kind differs from the declared parameter.
func NewKindMismatch(pos Pos, name string, index int, expected, actual string) *Error {
	e := newError(TypeGeneric, pos, fmt.Sprintf(
		"interface `%s` generic argument %d: expected %s, found %s", name, index+1, expected, actual))
	e.Key = name
	return e
}

// NewIOError wraps a failure to read an interface source.
func NewIOError(pos Pos, path string, cause error) *Error {
	e := newError(TypeIO, pos, fmt.Sprintf("could not open file %q: %v", path, cause))
	e.Key = path
	e.Cause = cause
	return e
}
