// Package spec parses delegation requests: the key/value request of immediate
// mode, the interface table of on-demand mode and the per-use-site attribute.
package spec

import (
	"fmt"

	"martianoff/delegen/internal/syntax"
)

// Source is where interface definitions are read from: a file path or an
// inline block of definitions.
type Source struct {
	Path     string
	Inline   string
	IsInline bool
	Pos      syntax.Pos
}

// Key identifies the source for load de-duplication.
func (s *Source) Key() string {
	if s.IsInline {
		return fmt.Sprintf("inline@%d:%d", s.Pos.Line, s.Pos.Column)
	}
	return "file:" + s.Path
}

func (s *Source) String() string {
	if s.IsInline {
		return "inline source"
	}
	return s.Path
}

// Reference names an interface at a usage site, optionally with generic
// arguments and `for<...>` generics introduced for this site only.
type Reference struct {
	For    []*syntax.GenericParam
	Path   *syntax.Path
	Source *Source // nil selects the request's default source
	Pos    syntax.Pos
}

// Name is the interface name the reference is looked up by.
func (r *Reference) Name() string {
	return r.Path.Last().Ident.Name
}

// Args returns the generic arguments given on the last path segment.
func (r *Reference) Args() *syntax.GenericArgs {
	return r.Path.Last().Args
}

// Target describes the type receiving the forwarding implementation.
type Target struct {
	Name     syntax.Ident
	Generics *syntax.Generics
}

// TargetFromDecl builds a target from a parsed type declaration.
func TargetFromDecl(decl *syntax.TypeDecl) *Target {
	g := decl.Generics
	if g == nil {
		g = &syntax.Generics{}
	}
	return &Target{Name: decl.Name, Generics: g}
}

// Request is a complete delegation request.
type Request struct {
	Target     *Target
	To         string
	References []*Reference
	Where      *syntax.WhereClause
	With       *string
	Source     *Source
}

// SourceFor returns the source a reference is resolved against.
func (r *Request) SourceFor(ref *Reference) *Source {
	if ref.Source != nil {
		return ref.Source
	}
	return r.Source
}

// Table lists the interfaces available to on-demand expansion.
type Table struct {
	References []*Reference
	Source     *Source
}

// SourceFor returns the source a reference is resolved against.
func (t *Table) SourceFor(ref *Reference) *Source {
	if ref.Source != nil {
		return ref.Source
	}
	return t.Source
}

// Attribute is a use-site delegation attribute:
// `[for<...>] Path<args> to EXPR [where PREDICATES] [with { ... }]`.
type Attribute struct {
	Reference *Reference
	To        string
	Where     *syntax.WhereClause
	With      *string
}

// Request combines the attribute with the target it is attached to.
func (a *Attribute) Request(target *Target, source *Source) *Request {
	ref := *a.Reference
	if ref.Source == nil {
		ref.Source = source
	}
	return &Request{
		Target:     target,
		To:         a.To,
		References: []*Reference{&ref},
		Where:      a.Where,
		With:       a.With,
		Source:     source,
	}
}
