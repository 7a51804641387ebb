package syntax

// Modifier is a tree transformation. It has one hook per node kind; the
// Walker passed to each hook performs the default structural recursion, so a
// transformation only overrides the hooks it cares about and calls back into
// the walker for everything else.
//
// Hooks for interface-typed nodes return the (possibly replaced) node. Hooks
// for concrete nodes rewrite in place.
type Modifier interface {
	ModifyTrait(w *Walker, t *Trait)
	ModifyTraitMember(w *Walker, m TraitMember)
	ModifySignature(w *Walker, sig *Signature)
	ModifyGenerics(w *Walker, g *Generics)
	ModifyGenericParam(w *Walker, param *GenericParam)
	ModifyWherePredicate(w *Walker, pred WherePredicate) WherePredicate
	ModifyBound(w *Walker, b Bound) Bound
	ModifyType(w *Walker, t Type) Type
	ModifyPath(w *Walker, path *Path)
	ModifyGenericArg(w *Walker, arg GenericArg) GenericArg
	ModifyLifetime(w *Walker, l *Lifetime)
	ModifyExpr(w *Walker, e Expr) Expr
}

// BaseModifier implements every hook as plain structural recursion. Embed it
// and override the hooks a transformation needs.
type BaseModifier struct{}

func (BaseModifier) ModifyTrait(w *Walker, t *Trait)              { w.WalkTrait(t) }
func (BaseModifier) ModifyTraitMember(w *Walker, m TraitMember)   { w.WalkTraitMember(m) }
func (BaseModifier) ModifySignature(w *Walker, sig *Signature)    { w.WalkSignature(sig) }
func (BaseModifier) ModifyGenerics(w *Walker, g *Generics)        { w.WalkGenerics(g) }
func (BaseModifier) ModifyGenericParam(w *Walker, p *GenericParam) { w.WalkGenericParam(p) }
func (BaseModifier) ModifyWherePredicate(w *Walker, pred WherePredicate) WherePredicate {
	return w.WalkWherePredicate(pred)
}
func (BaseModifier) ModifyBound(w *Walker, b Bound) Bound { return w.WalkBound(b) }
func (BaseModifier) ModifyType(w *Walker, t Type) Type    { return w.WalkType(t) }
func (BaseModifier) ModifyPath(w *Walker, path *Path)     { w.WalkPath(path) }
func (BaseModifier) ModifyGenericArg(w *Walker, arg GenericArg) GenericArg {
	return w.WalkGenericArg(arg)
}
func (BaseModifier) ModifyLifetime(w *Walker, l *Lifetime) {}
func (BaseModifier) ModifyExpr(w *Walker, e Expr) Expr    { return w.WalkExpr(e) }

// Walker drives a Modifier over a tree. The exported node methods dispatch to
// the modifier; the Walk* methods recurse into the node's children.
type Walker struct {
	m Modifier
}

// NewWalker returns a walker driving m.
func NewWalker(m Modifier) *Walker {
	return &Walker{m: m}
}

func (w *Walker) Trait(t *Trait) {
	if t != nil {
		w.m.ModifyTrait(w, t)
	}
}

func (w *Walker) TraitMember(m TraitMember) {
	if m != nil {
		w.m.ModifyTraitMember(w, m)
	}
}

func (w *Walker) Signature(sig *Signature) {
	if sig != nil {
		w.m.ModifySignature(w, sig)
	}
}

func (w *Walker) Generics(g *Generics) {
	if g != nil {
		w.m.ModifyGenerics(w, g)
	}
}

func (w *Walker) GenericParam(param *GenericParam) {
	if param != nil {
		w.m.ModifyGenericParam(w, param)
	}
}

func (w *Walker) WhereClause(wc *WhereClause) {
	if wc == nil {
		return
	}
	for i, pred := range wc.Predicates {
		wc.Predicates[i] = w.WherePredicate(pred)
	}
}

func (w *Walker) WherePredicate(pred WherePredicate) WherePredicate {
	if pred == nil {
		return nil
	}
	return w.m.ModifyWherePredicate(w, pred)
}

func (w *Walker) Bound(b Bound) Bound {
	if b == nil {
		return nil
	}
	return w.m.ModifyBound(w, b)
}

func (w *Walker) Bounds(bounds []Bound) {
	for i, b := range bounds {
		bounds[i] = w.Bound(b)
	}
}

func (w *Walker) Type(t Type) Type {
	if t == nil {
		return nil
	}
	return w.m.ModifyType(w, t)
}

func (w *Walker) Path(path *Path) {
	if path != nil {
		w.m.ModifyPath(w, path)
	}
}

func (w *Walker) GenericArg(arg GenericArg) GenericArg {
	if arg == nil {
		return nil
	}
	return w.m.ModifyGenericArg(w, arg)
}

func (w *Walker) Lifetime(l *Lifetime) {
	if l != nil {
		w.m.ModifyLifetime(w, l)
	}
}

func (w *Walker) Expr(e Expr) Expr {
	if e == nil {
		return nil
	}
	return w.m.ModifyExpr(w, e)
}

func (w *Walker) WalkTrait(t *Trait) {
	w.Generics(t.Generics)
	w.Bounds(t.Supertraits)
	for _, m := range t.Members {
		w.TraitMember(m)
	}
}

func (w *Walker) WalkTraitMember(m TraitMember) {
	switch m := m.(type) {
	case *Method:
		w.Signature(m.Sig)
	case *AssocType:
		w.Generics(m.Generics)
		w.Bounds(m.Bounds)
		m.Default = w.Type(m.Default)
	case *AssocConst:
		m.Type = w.Type(m.Type)
		m.Default = w.Expr(m.Default)
	}
}

func (w *Walker) WalkSignature(sig *Signature) {
	w.Generics(sig.Generics)
	if r := sig.Receiver; r != nil {
		w.Lifetime(r.Lifetime)
		r.Type = w.Type(r.Type)
	}
	for _, param := range sig.Params {
		param.Type = w.Type(param.Type)
	}
	sig.Output = w.Type(sig.Output)
}

func (w *Walker) WalkGenerics(g *Generics) {
	for _, param := range g.Params {
		w.GenericParam(param)
	}
	w.WhereClause(g.Where)
}

func (w *Walker) WalkGenericParam(param *GenericParam) {
	w.Bounds(param.Bounds)
	param.Type = w.Type(param.Type)
	param.Default = w.Type(param.Default)
	param.DefaultExpr = w.Expr(param.DefaultExpr)
}

func (w *Walker) WalkWherePredicate(pred WherePredicate) WherePredicate {
	switch pred := pred.(type) {
	case *TypePredicate:
		for _, param := range pred.ForLifetimes {
			w.GenericParam(param)
		}
		pred.Bounded = w.Type(pred.Bounded)
		w.Bounds(pred.Bounds)
	case *LifetimePredicate:
		w.Lifetime(pred.Lifetime)
		for _, l := range pred.Bounds {
			w.Lifetime(l)
		}
	}
	return pred
}

func (w *Walker) WalkBound(b Bound) Bound {
	switch b := b.(type) {
	case *TraitBound:
		for _, param := range b.ForLifetimes {
			w.GenericParam(param)
		}
		w.Path(b.Path)
	case *LifetimeBound:
		w.Lifetime(b.Lifetime)
	}
	return b
}

func (w *Walker) WalkType(t Type) Type {
	switch t := t.(type) {
	case *PathType:
		if t.QSelf != nil {
			t.QSelf.Type = w.Type(t.QSelf.Type)
			w.Path(t.QSelf.Trait)
			// The remainder of a qualified path is relative to the
			// qualified self type, not a path of its own.
			w.WalkPath(t.Path)
		} else {
			w.Path(t.Path)
		}
	case *RefType:
		w.Lifetime(t.Lifetime)
		t.Elem = w.Type(t.Elem)
	case *PtrType:
		t.Elem = w.Type(t.Elem)
	case *SliceType:
		t.Elem = w.Type(t.Elem)
	case *ArrayType:
		t.Elem = w.Type(t.Elem)
		t.Len = w.Expr(t.Len)
	case *TupleType:
		for i, e := range t.Elems {
			t.Elems[i] = w.Type(e)
		}
	case *ParenType:
		t.Elem = w.Type(t.Elem)
	case *FnType:
		for _, param := range t.ForLifetimes {
			w.GenericParam(param)
		}
		for _, param := range t.Params {
			param.Type = w.Type(param.Type)
		}
		t.Output = w.Type(t.Output)
	case *TraitObjectType:
		w.Bounds(t.Bounds)
	case *ImplTraitType:
		w.Bounds(t.Bounds)
	}
	return t
}

func (w *Walker) WalkPath(path *Path) {
	for _, seg := range path.Segments {
		if seg.Args != nil {
			for i, arg := range seg.Args.Args {
				seg.Args.Args[i] = w.GenericArg(arg)
			}
		}
		if seg.Fn != nil {
			for i, in := range seg.Fn.Inputs {
				seg.Fn.Inputs[i] = w.Type(in)
			}
			seg.Fn.Output = w.Type(seg.Fn.Output)
		}
	}
}

func (w *Walker) WalkGenericArg(arg GenericArg) GenericArg {
	switch a := arg.(type) {
	case *LifetimeArg:
		w.Lifetime(a.Lifetime)
	case *TypeArg:
		a.Type = w.Type(a.Type)
	case *ConstArg:
		a.Expr = w.Expr(a.Expr)
	case *BindingArg:
		a.Type = w.Type(a.Type)
	case *ConstraintArg:
		w.Bounds(a.Bounds)
	}
	return arg
}

func (w *Walker) WalkExpr(e Expr) Expr {
	if pe, ok := e.(*PathExpr); ok {
		w.Path(pe.Path)
	}
	return e
}
