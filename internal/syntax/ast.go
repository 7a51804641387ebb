// Package syntax provides the tree model of interface-definition sources
// together with the lexer, parser and printer used by the generator.
//
// The model covers the subset of the trait language the generator needs to
// understand: modules, imports, type declarations (header only) and trait
// definitions with lifetime, type and const generic parameters. Anything
// else is kept as verbatim text.
package syntax

import "martianoff/delegen/delerr"

// Pos is a 1-based line/column position in an input buffer.
type Pos struct {
	Line   int
	Column int
}

// Err converts the position into an error anchor.
func (p Pos) Err() delerr.Pos {
	return delerr.Pos{Line: p.Line, Column: p.Column}
}

// Ident is a plain identifier.
type Ident struct {
	Name string
	Pos  Pos
}

// Lifetime is a lifetime reference; Name excludes the leading apostrophe.
type Lifetime struct {
	Name string
	Pos  Pos
}

// Path is a `::` separated reference to a named item.
type Path struct {
	Global   bool // leading `::`
	Segments []*PathSegment
	Pos      Pos
}

// PathSegment is one segment of a path with its optional arguments.
type PathSegment struct {
	Ident Ident
	Args  *GenericArgs // `<...>`
	Fn    *FnArgs      // `(A, B) -> C`, used by closure traits
}

// FnArgs is the parenthesized argument sugar of `Fn(A) -> B` bounds.
type FnArgs struct {
	Inputs []Type
	Output Type
}

// Head returns the first segment of the path, or nil for an empty path.
func (p *Path) Head() *PathSegment {
	if p == nil || len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[0]
}

// Last returns the final segment of the path, or nil for an empty path.
func (p *Path) Last() *PathSegment {
	if p == nil || len(p.Segments) == 0 {
		return nil
	}
	return p.Segments[len(p.Segments)-1]
}

// IsIdent reports whether the path is a bare single identifier without arguments.
func (p *Path) IsIdent() bool {
	if p == nil || p.Global || len(p.Segments) != 1 {
		return false
	}
	s := p.Segments[0]
	return s.Args == nil && s.Fn == nil
}

// GenericArgs is an angle-bracketed argument list supplied at a usage site.
type GenericArgs struct {
	Args []GenericArg
	Pos  Pos
}

// GenericArg is one argument inside GenericArgs.
type GenericArg interface{ genericArg() }

// LifetimeArg is a lifetime argument.
type LifetimeArg struct{ Lifetime *Lifetime }

// TypeArg is a type argument. A bare identifier may also denote a const
// parameter; the unifier decides by position.
type TypeArg struct{ Type Type }

// ConstArg is a const argument: a literal or a braced expression.
type ConstArg struct{ Expr Expr }

// BindingArg binds an associated type: `Item = T`.
type BindingArg struct {
	Ident Ident
	Type  Type
}

// ConstraintArg constrains an associated type: `Item: Bound`.
type ConstraintArg struct {
	Ident  Ident
	Bounds []Bound
}

func (*LifetimeArg) genericArg()   {}
func (*TypeArg) genericArg()       {}
func (*ConstArg) genericArg()      {}
func (*BindingArg) genericArg()    {}
func (*ConstraintArg) genericArg() {}

// Type is any type expression.
type Type interface{ typeNode() }

// PathType is a named type, optionally qualified: `<T as Trait>::Assoc`.
type PathType struct {
	QSelf *QSelf
	Path  *Path
}

// QSelf is the `<T as Trait>` prefix of a qualified path.
type QSelf struct {
	Type  Type
	Trait *Path // nil for `<T>::Assoc`
}

// RefType is `&'a mut T`.
type RefType struct {
	Lifetime *Lifetime
	Mut      bool
	Elem     Type
}

// PtrType is `*const T` or `*mut T`.
type PtrType struct {
	Mut  bool
	Elem Type
}

// SliceType is `[T]`.
type SliceType struct{ Elem Type }

// ArrayType is `[T; N]`.
type ArrayType struct {
	Elem Type
	Len  Expr
}

// TupleType is `(A, B)`; the empty tuple is the unit type.
type TupleType struct{ Elems []Type }

// ParenType is a parenthesized type used for grouping: `(dyn A + B)`.
type ParenType struct{ Elem Type }

// FnType is a bare function pointer type.
type FnType struct {
	ForLifetimes []*GenericParam
	Unsafe       bool
	ABI          *string // nil when no `extern`, "" for a bare `extern`
	Params       []*FnTypeParam
	Variadic     bool
	Output       Type
}

// FnTypeParam is a parameter of a bare function type; Name may be nil.
type FnTypeParam struct {
	Name *Ident
	Type Type
}

// TraitObjectType is `dyn A + B` (or the legacy form without `dyn`).
type TraitObjectType struct {
	Dyn    bool
	Bounds []Bound
}

// ImplTraitType is `impl A + B`.
type ImplTraitType struct{ Bounds []Bound }

// NeverType is `!`.
type NeverType struct{}

// InferType is `_`.
type InferType struct{}

// MacroType is a macro invocation in type position, kept verbatim.
type MacroType struct{ Text string }

func (*PathType) typeNode()        {}
func (*RefType) typeNode()         {}
func (*PtrType) typeNode()         {}
func (*SliceType) typeNode()       {}
func (*ArrayType) typeNode()       {}
func (*TupleType) typeNode()       {}
func (*ParenType) typeNode()       {}
func (*FnType) typeNode()          {}
func (*TraitObjectType) typeNode() {}
func (*ImplTraitType) typeNode()   {}
func (*NeverType) typeNode()       {}
func (*InferType) typeNode()       {}
func (*MacroType) typeNode()       {}

// Bound is a trait or lifetime bound.
type Bound interface{ boundNode() }

// TraitBound is `?Sized`, `for<'a> Fn(&'a T)` or a plain trait path.
type TraitBound struct {
	Maybe        bool
	ForLifetimes []*GenericParam
	Path         *Path
}

// LifetimeBound is `'a` in bound position.
type LifetimeBound struct{ Lifetime *Lifetime }

func (*TraitBound) boundNode()    {}
func (*LifetimeBound) boundNode() {}

// ParamKind is the kind of a generic parameter.
type ParamKind int

const (
	LifetimeParam ParamKind = iota
	TypeParam
	ConstParam
)

func (k ParamKind) String() string {
	switch k {
	case LifetimeParam:
		return "lifetime"
	case TypeParam:
		return "type"
	case ConstParam:
		return "const"
	}
	return "unknown"
}

// GenericParam is a declared generic parameter.
type GenericParam struct {
	Kind   ParamKind
	Name   string // lifetimes without apostrophe
	Pos    Pos
	Bounds []Bound // lifetime params only hold LifetimeBound values
	// Type is the type of a const parameter.
	Type Type
	// Default is the default of a type parameter.
	Default Type
	// DefaultExpr is the default of a const parameter.
	DefaultExpr Expr
}

// Generics is a declared parameter list with its where-clause.
type Generics struct {
	Params []*GenericParam
	Where  *WhereClause
}

// Empty reports whether the list declares no parameters.
func (g *Generics) Empty() bool {
	return g == nil || len(g.Params) == 0
}

// WhereClause is a list of constraint predicates.
type WhereClause struct {
	Predicates []WherePredicate
}

// WherePredicate is a single where-clause predicate.
type WherePredicate interface{ wherePredicate() }

// TypePredicate is `for<'a> T: A + B`.
type TypePredicate struct {
	ForLifetimes []*GenericParam
	Bounded      Type
	Bounds       []Bound
}

// LifetimePredicate is `'a: 'b + 'c`.
type LifetimePredicate struct {
	Lifetime *Lifetime
	Bounds   []*Lifetime
}

func (*TypePredicate) wherePredicate()     {}
func (*LifetimePredicate) wherePredicate() {}

// Expr is an expression. Only paths and literals are modelled; everything
// else is carried as verbatim source text.
type Expr interface{ exprNode() }

// PathExpr is a path in expression position.
type PathExpr struct{ Path *Path }

// LitExpr is a literal.
type LitExpr struct{ Text string }

// RawExpr is an unparsed expression.
type RawExpr struct{ Text string }

func (*PathExpr) exprNode() {}
func (*LitExpr) exprNode()  {}
func (*RawExpr) exprNode()  {}

// Attribute is an outer or inner attribute kept verbatim, e.g. `#[inline]`.
type Attribute struct {
	Text  string
	Inner bool
}

// Receiver is the `self` parameter of a method.
type Receiver struct {
	Ref      bool
	Lifetime *Lifetime
	Mut      bool
	// Type is set for the explicit form `self: Box<Self>`.
	Type Type
}

// Param is a typed function parameter.
type Param struct {
	Pattern string
	Type    Type
}

// Signature is a method signature.
type Signature struct {
	Const    bool
	Async    bool
	Unsafe   bool
	ABI      *string
	Name     Ident
	Generics *Generics
	Receiver *Receiver
	Params   []*Param
	Output   Type // nil for the unit return
}

// File is a parsed source buffer.
type File struct {
	Attrs []Attribute
	Items []Item
}

// Item is a top-level or module-level item.
type Item interface{ itemNode() }

// ModItem is `mod name { ... }` or the out-of-line `mod name;`.
type ModItem struct {
	Attrs    []Attribute
	Vis      string
	Name     Ident
	Items    []Item
	External bool
}

// UseItem is a `use` declaration.
type UseItem struct {
	Attrs  []Attribute
	Vis    string
	Global bool
	Tree   UseTree
	Pos    Pos
}

// UseTree is the tree of a `use` declaration.
type UseTree interface{ useTree() }

// UsePath is `name::tree`.
type UsePath struct {
	Name Ident
	Tree UseTree
}

// UseName is a leaf import.
type UseName struct{ Name Ident }

// UseRename is `name as rename`.
type UseRename struct {
	Name   Ident
	Rename Ident
}

// UseGlob is `*`.
type UseGlob struct{}

// UseGroup is `{a, b::c}`.
type UseGroup struct{ Trees []UseTree }

func (*UsePath) useTree()   {}
func (*UseName) useTree()   {}
func (*UseRename) useTree() {}
func (*UseGlob) useTree()   {}
func (*UseGroup) useTree()  {}

// TypeDecl is a struct, enum, union or type alias. Only the header is modelled.
type TypeDecl struct {
	Attrs    []Attribute
	Vis      string
	Keyword  string // struct, enum, union or type
	Name     Ident
	Generics *Generics
	// Body is the verbatim declaration body, including delimiters.
	Body string
}

// Trait is a trait definition.
type Trait struct {
	Attrs       []Attribute
	Vis         string
	Unsafe      bool
	Auto        bool
	Name        Ident
	Generics    *Generics
	Supertraits []Bound
	Members     []TraitMember
}

// OtherItem is any item the model does not need (functions, impls, consts, macros).
type OtherItem struct {
	Keyword string
	Text    string
}

func (*ModItem) itemNode()   {}
func (*UseItem) itemNode()   {}
func (*TypeDecl) itemNode()  {}
func (*Trait) itemNode()     {}
func (*OtherItem) itemNode() {}

// TraitMember is an item inside a trait body.
type TraitMember interface{ traitMember() }

// Method is a trait method; Default holds the verbatim default body, if any.
type Method struct {
	Attrs   []Attribute
	Sig     *Signature
	Default *string
}

// AssocType is `type Name: Bounds = Default;`.
type AssocType struct {
	Attrs    []Attribute
	Name     Ident
	Generics *Generics
	Bounds   []Bound
	Default  Type
}

// AssocConst is `const NAME: Type = Default;`.
type AssocConst struct {
	Attrs   []Attribute
	Name    Ident
	Type    Type
	Default Expr
}

// MacroMember is a macro invocation inside a trait body, kept verbatim.
type MacroMember struct{ Text string }

func (*Method) traitMember()      {}
func (*AssocType) traitMember()   {}
func (*AssocConst) traitMember()  {}
func (*MacroMember) traitMember() {}

// Methods returns the method members of the trait in declaration order.
func (t *Trait) Methods() []*Method {
	var out []*Method
	for _, m := range t.Members {
		if method, ok := m.(*Method); ok {
			out = append(out, method)
		}
	}
	return out
}

// NewPath builds an argument-less path from identifiers.
func NewPath(global bool, names ...string) *Path {
	p := &Path{Global: global}
	for _, n := range names {
		p.Segments = append(p.Segments, &PathSegment{Ident: Ident{Name: n}})
	}
	return p
}
