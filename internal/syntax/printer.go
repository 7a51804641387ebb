package syntax

import (
	"strings"
)

type printer struct {
	strings.Builder
}

// FormatType renders a type in canonical form.
func FormatType(t Type) string {
	var p printer
	p.typ(t)
	return p.String()
}

// FormatPath renders a path in canonical form.
func FormatPath(path *Path) string {
	var p printer
	p.path(path)
	return p.String()
}

// FormatBound renders a single bound.
func FormatBound(b Bound) string {
	var p printer
	p.bound(b)
	return p.String()
}

// FormatBounds renders a `+` separated bound list.
func FormatBounds(bounds []Bound) string {
	var p printer
	p.bounds(bounds)
	return p.String()
}

// FormatGenericArgs renders `<...>`, or "" for nil.
func FormatGenericArgs(a *GenericArgs) string {
	var p printer
	p.genericArgs(a)
	return p.String()
}

// FormatExpr renders an expression.
func FormatExpr(e Expr) string {
	var p printer
	p.expr(e)
	return p.String()
}

// FormatParams renders a declared parameter list. Defaults are only printed
// when withDefaults is set, since implementation headers may not carry them.
func FormatParams(params []*GenericParam, withDefaults bool) string {
	var p printer
	p.params(params, withDefaults)
	return p.String()
}

// FormatParamNames renders the parameter names as usage-site arguments: `<'a, T, N>`.
func FormatParamNames(params []*GenericParam) string {
	if len(params) == 0 {
		return ""
	}
	names := make([]string, len(params))
	for i, param := range params {
		if param.Kind == LifetimeParam {
			names[i] = "'" + param.Name
		} else {
			names[i] = param.Name
		}
	}
	return "<" + strings.Join(names, ", ") + ">"
}

// FormatPredicate renders a single where-clause predicate.
func FormatPredicate(pred WherePredicate) string {
	var p printer
	p.predicate(pred)
	return p.String()
}

// FormatWhereInline renders ` where A: B, C: D`, or "" for an empty clause.
func FormatWhereInline(w *WhereClause) string {
	if w == nil || len(w.Predicates) == 0 {
		return ""
	}
	preds := make([]string, len(w.Predicates))
	for i, pred := range w.Predicates {
		preds[i] = FormatPredicate(pred)
	}
	return " where " + strings.Join(preds, ", ")
}

// FormatWhereBlock renders a where-clause with one predicate per line, each
// indented by indent and terminated by a comma.
func FormatWhereBlock(w *WhereClause, indent string) string {
	if w == nil || len(w.Predicates) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("where\n")
	for _, pred := range w.Predicates {
		sb.WriteString(indent)
		sb.WriteString(FormatPredicate(pred))
		sb.WriteString(",\n")
	}
	return sb.String()
}

// FormatSignature renders a signature without a trailing `;`.
func FormatSignature(sig *Signature) string {
	var p printer
	p.signature(sig)
	return p.String()
}

func (p *printer) lifetime(l *Lifetime) {
	p.WriteString("'")
	p.WriteString(l.Name)
}

func (p *printer) path(path *Path) {
	if path == nil {
		return
	}
	if path.Global {
		p.WriteString("::")
	}
	for i, seg := range path.Segments {
		if i > 0 {
			p.WriteString("::")
		}
		p.WriteString(seg.Ident.Name)
		p.genericArgs(seg.Args)
		if seg.Fn != nil {
			p.WriteString("(")
			for j, in := range seg.Fn.Inputs {
				if j > 0 {
					p.WriteString(", ")
				}
				p.typ(in)
			}
			p.WriteString(")")
			if seg.Fn.Output != nil {
				p.WriteString(" -> ")
				p.typ(seg.Fn.Output)
			}
		}
	}
}

func (p *printer) genericArgs(a *GenericArgs) {
	if a == nil {
		return
	}
	p.WriteString("<")
	for i, arg := range a.Args {
		if i > 0 {
			p.WriteString(", ")
		}
		p.genericArg(arg)
	}
	p.WriteString(">")
}

func (p *printer) genericArg(arg GenericArg) {
	switch a := arg.(type) {
	case *LifetimeArg:
		p.lifetime(a.Lifetime)
	case *TypeArg:
		p.typ(a.Type)
	case *ConstArg:
		p.expr(a.Expr)
	case *BindingArg:
		p.WriteString(a.Ident.Name)
		p.WriteString(" = ")
		p.typ(a.Type)
	case *ConstraintArg:
		p.WriteString(a.Ident.Name)
		p.WriteString(": ")
		p.bounds(a.Bounds)
	}
}

func (p *printer) typ(t Type) {
	switch t := t.(type) {
	case *PathType:
		if t.QSelf != nil {
			p.WriteString("<")
			p.typ(t.QSelf.Type)
			if t.QSelf.Trait != nil {
				p.WriteString(" as ")
				p.path(t.QSelf.Trait)
			}
			p.WriteString(">::")
		}
		p.path(t.Path)
	case *RefType:
		p.WriteString("&")
		if t.Lifetime != nil {
			p.lifetime(t.Lifetime)
			p.WriteString(" ")
		}
		if t.Mut {
			p.WriteString("mut ")
		}
		p.typ(t.Elem)
	case *PtrType:
		if t.Mut {
			p.WriteString("*mut ")
		} else {
			p.WriteString("*const ")
		}
		p.typ(t.Elem)
	case *SliceType:
		p.WriteString("[")
		p.typ(t.Elem)
		p.WriteString("]")
	case *ArrayType:
		p.WriteString("[")
		p.typ(t.Elem)
		p.WriteString("; ")
		p.expr(t.Len)
		p.WriteString("]")
	case *TupleType:
		p.WriteString("(")
		for i, e := range t.Elems {
			if i > 0 {
				p.WriteString(", ")
			}
			p.typ(e)
		}
		if len(t.Elems) == 1 {
			p.WriteString(",")
		}
		p.WriteString(")")
	case *ParenType:
		p.WriteString("(")
		p.typ(t.Elem)
		p.WriteString(")")
	case *FnType:
		p.forLifetimes(t.ForLifetimes)
		if t.Unsafe {
			p.WriteString("unsafe ")
		}
		p.abi(t.ABI)
		p.WriteString("fn(")
		for i, param := range t.Params {
			if i > 0 {
				p.WriteString(", ")
			}
			if param.Name != nil {
				p.WriteString(param.Name.Name)
				p.WriteString(": ")
			}
			p.typ(param.Type)
		}
		if t.Variadic {
			if len(t.Params) > 0 {
				p.WriteString(", ")
			}
			p.WriteString("...")
		}
		p.WriteString(")")
		if t.Output != nil {
			p.WriteString(" -> ")
			p.typ(t.Output)
		}
	case *TraitObjectType:
		if t.Dyn {
			p.WriteString("dyn ")
		}
		p.bounds(t.Bounds)
	case *ImplTraitType:
		p.WriteString("impl ")
		p.bounds(t.Bounds)
	case *NeverType:
		p.WriteString("!")
	case *InferType:
		p.WriteString("_")
	case *MacroType:
		p.WriteString(t.Text)
	}
}

func (p *printer) abi(abi *string) {
	if abi == nil {
		return
	}
	p.WriteString("extern ")
	if *abi != "" {
		p.WriteString(*abi)
		p.WriteString(" ")
	}
}

func (p *printer) forLifetimes(params []*GenericParam) {
	if len(params) == 0 {
		return
	}
	p.WriteString("for")
	p.params(params, false)
	p.WriteString(" ")
}

func (p *printer) bounds(bounds []Bound) {
	for i, b := range bounds {
		if i > 0 {
			p.WriteString(" + ")
		}
		p.bound(b)
	}
}

func (p *printer) bound(b Bound) {
	switch b := b.(type) {
	case *TraitBound:
		if b.Maybe {
			p.WriteString("?")
		}
		p.forLifetimes(b.ForLifetimes)
		p.path(b.Path)
	case *LifetimeBound:
		p.lifetime(b.Lifetime)
	}
}

func (p *printer) params(params []*GenericParam, withDefaults bool) {
	if len(params) == 0 {
		return
	}
	p.WriteString("<")
	for i, param := range params {
		if i > 0 {
			p.WriteString(", ")
		}
		p.param(param, withDefaults)
	}
	p.WriteString(">")
}

func (p *printer) param(param *GenericParam, withDefaults bool) {
	switch param.Kind {
	case LifetimeParam:
		p.WriteString("'")
		p.WriteString(param.Name)
		if len(param.Bounds) > 0 {
			p.WriteString(": ")
			p.bounds(param.Bounds)
		}
	case TypeParam:
		p.WriteString(param.Name)
		if len(param.Bounds) > 0 {
			p.WriteString(": ")
			p.bounds(param.Bounds)
		}
		if withDefaults && param.Default != nil {
			p.WriteString(" = ")
			p.typ(param.Default)
		}
	case ConstParam:
		p.WriteString("const ")
		p.WriteString(param.Name)
		p.WriteString(": ")
		p.typ(param.Type)
		if withDefaults && param.DefaultExpr != nil {
			p.WriteString(" = ")
			p.expr(param.DefaultExpr)
		}
	}
}

func (p *printer) predicate(pred WherePredicate) {
	switch pred := pred.(type) {
	case *TypePredicate:
		p.forLifetimes(pred.ForLifetimes)
		p.typ(pred.Bounded)
		p.WriteString(":")
		if len(pred.Bounds) > 0 {
			p.WriteString(" ")
			p.bounds(pred.Bounds)
		}
	case *LifetimePredicate:
		p.lifetime(pred.Lifetime)
		p.WriteString(":")
		for i, l := range pred.Bounds {
			if i > 0 {
				p.WriteString(" +")
			}
			p.WriteString(" ")
			p.lifetime(l)
		}
	}
}

func (p *printer) expr(e Expr) {
	switch e := e.(type) {
	case *PathExpr:
		p.path(e.Path)
	case *LitExpr:
		p.WriteString(e.Text)
	case *RawExpr:
		p.WriteString(e.Text)
	}
}

func (p *printer) receiver(r *Receiver) {
	if r.Ref {
		p.WriteString("&")
		if r.Lifetime != nil {
			p.lifetime(r.Lifetime)
			p.WriteString(" ")
		}
	}
	if r.Mut {
		p.WriteString("mut ")
	}
	p.WriteString("self")
	if r.Type != nil {
		p.WriteString(": ")
		p.typ(r.Type)
	}
}

func (p *printer) signature(sig *Signature) {
	if sig.Const {
		p.WriteString("const ")
	}
	if sig.Async {
		p.WriteString("async ")
	}
	if sig.Unsafe {
		p.WriteString("unsafe ")
	}
	p.abi(sig.ABI)
	p.WriteString("fn ")
	p.WriteString(sig.Name.Name)
	var where *WhereClause
	if sig.Generics != nil {
		p.params(sig.Generics.Params, true)
		where = sig.Generics.Where
	}
	p.WriteString("(")
	n := 0
	if sig.Receiver != nil {
		p.receiver(sig.Receiver)
		n++
	}
	for _, param := range sig.Params {
		if n > 0 {
			p.WriteString(", ")
		}
		p.WriteString(param.Pattern)
		p.WriteString(": ")
		p.typ(param.Type)
		n++
	}
	p.WriteString(")")
	if sig.Output != nil {
		p.WriteString(" -> ")
		p.typ(sig.Output)
	}
	p.WriteString(FormatWhereInline(where))
}
