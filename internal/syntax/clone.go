package syntax

// Deep copies. Resolved interface definitions are shared between usage sites
// and must never be mutated, so every rewrite starts from a clone.

func CloneLifetime(l *Lifetime) *Lifetime {
	if l == nil {
		return nil
	}
	c := *l
	return &c
}

func ClonePath(p *Path) *Path {
	if p == nil {
		return nil
	}
	c := &Path{Global: p.Global, Pos: p.Pos, Segments: make([]*PathSegment, len(p.Segments))}
	for i, seg := range p.Segments {
		c.Segments[i] = CloneSegment(seg)
	}
	return c
}

func CloneSegment(seg *PathSegment) *PathSegment {
	if seg == nil {
		return nil
	}
	c := &PathSegment{Ident: seg.Ident, Args: CloneGenericArgs(seg.Args)}
	if seg.Fn != nil {
		c.Fn = &FnArgs{Inputs: cloneTypes(seg.Fn.Inputs), Output: CloneType(seg.Fn.Output)}
	}
	return c
}

func CloneGenericArgs(a *GenericArgs) *GenericArgs {
	if a == nil {
		return nil
	}
	c := &GenericArgs{Pos: a.Pos, Args: make([]GenericArg, len(a.Args))}
	for i, arg := range a.Args {
		c.Args[i] = CloneGenericArg(arg)
	}
	return c
}

func CloneGenericArg(arg GenericArg) GenericArg {
	switch a := arg.(type) {
	case *LifetimeArg:
		return &LifetimeArg{Lifetime: CloneLifetime(a.Lifetime)}
	case *TypeArg:
		return &TypeArg{Type: CloneType(a.Type)}
	case *ConstArg:
		return &ConstArg{Expr: CloneExpr(a.Expr)}
	case *BindingArg:
		return &BindingArg{Ident: a.Ident, Type: CloneType(a.Type)}
	case *ConstraintArg:
		return &ConstraintArg{Ident: a.Ident, Bounds: CloneBounds(a.Bounds)}
	}
	return arg
}

func cloneTypes(ts []Type) []Type {
	if ts == nil {
		return nil
	}
	out := make([]Type, len(ts))
	for i, t := range ts {
		out[i] = CloneType(t)
	}
	return out
}

func CloneType(t Type) Type {
	switch t := t.(type) {
	case nil:
		return nil
	case *PathType:
		c := &PathType{Path: ClonePath(t.Path)}
		if t.QSelf != nil {
			c.QSelf = &QSelf{Type: CloneType(t.QSelf.Type), Trait: ClonePath(t.QSelf.Trait)}
		}
		return c
	case *RefType:
		return &RefType{Lifetime: CloneLifetime(t.Lifetime), Mut: t.Mut, Elem: CloneType(t.Elem)}
	case *PtrType:
		return &PtrType{Mut: t.Mut, Elem: CloneType(t.Elem)}
	case *SliceType:
		return &SliceType{Elem: CloneType(t.Elem)}
	case *ArrayType:
		return &ArrayType{Elem: CloneType(t.Elem), Len: CloneExpr(t.Len)}
	case *TupleType:
		return &TupleType{Elems: cloneTypes(t.Elems)}
	case *ParenType:
		return &ParenType{Elem: CloneType(t.Elem)}
	case *FnType:
		c := &FnType{
			ForLifetimes: CloneParams(t.ForLifetimes),
			Unsafe:       t.Unsafe,
			ABI:          cloneString(t.ABI),
			Variadic:     t.Variadic,
			Output:       CloneType(t.Output),
		}
		for _, param := range t.Params {
			cp := &FnTypeParam{Type: CloneType(param.Type)}
			if param.Name != nil {
				name := *param.Name
				cp.Name = &name
			}
			c.Params = append(c.Params, cp)
		}
		return c
	case *TraitObjectType:
		return &TraitObjectType{Dyn: t.Dyn, Bounds: CloneBounds(t.Bounds)}
	case *ImplTraitType:
		return &ImplTraitType{Bounds: CloneBounds(t.Bounds)}
	case *NeverType:
		return &NeverType{}
	case *InferType:
		return &InferType{}
	case *MacroType:
		return &MacroType{Text: t.Text}
	}
	return t
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func CloneBounds(bounds []Bound) []Bound {
	if bounds == nil {
		return nil
	}
	out := make([]Bound, len(bounds))
	for i, b := range bounds {
		out[i] = CloneBound(b)
	}
	return out
}

func CloneBound(b Bound) Bound {
	switch b := b.(type) {
	case *TraitBound:
		return &TraitBound{Maybe: b.Maybe, ForLifetimes: CloneParams(b.ForLifetimes), Path: ClonePath(b.Path)}
	case *LifetimeBound:
		return &LifetimeBound{Lifetime: CloneLifetime(b.Lifetime)}
	}
	return b
}

func CloneExpr(e Expr) Expr {
	switch e := e.(type) {
	case *PathExpr:
		return &PathExpr{Path: ClonePath(e.Path)}
	case *LitExpr:
		return &LitExpr{Text: e.Text}
	case *RawExpr:
		return &RawExpr{Text: e.Text}
	}
	return e
}

func CloneParam(p *GenericParam) *GenericParam {
	if p == nil {
		return nil
	}
	return &GenericParam{
		Kind:        p.Kind,
		Name:        p.Name,
		Pos:         p.Pos,
		Bounds:      CloneBounds(p.Bounds),
		Type:        CloneType(p.Type),
		Default:     CloneType(p.Default),
		DefaultExpr: CloneExpr(p.DefaultExpr),
	}
}

func CloneParams(params []*GenericParam) []*GenericParam {
	if params == nil {
		return nil
	}
	out := make([]*GenericParam, len(params))
	for i, p := range params {
		out[i] = CloneParam(p)
	}
	return out
}

func ClonePredicate(pred WherePredicate) WherePredicate {
	switch pred := pred.(type) {
	case *TypePredicate:
		return &TypePredicate{
			ForLifetimes: CloneParams(pred.ForLifetimes),
			Bounded:      CloneType(pred.Bounded),
			Bounds:       CloneBounds(pred.Bounds),
		}
	case *LifetimePredicate:
		c := &LifetimePredicate{Lifetime: CloneLifetime(pred.Lifetime)}
		for _, l := range pred.Bounds {
			c.Bounds = append(c.Bounds, CloneLifetime(l))
		}
		return c
	}
	return pred
}

func CloneWhere(wc *WhereClause) *WhereClause {
	if wc == nil {
		return nil
	}
	c := &WhereClause{Predicates: make([]WherePredicate, len(wc.Predicates))}
	for i, pred := range wc.Predicates {
		c.Predicates[i] = ClonePredicate(pred)
	}
	return c
}

func CloneGenerics(g *Generics) *Generics {
	if g == nil {
		return nil
	}
	return &Generics{Params: CloneParams(g.Params), Where: CloneWhere(g.Where)}
}

func CloneSignature(sig *Signature) *Signature {
	if sig == nil {
		return nil
	}
	c := &Signature{
		Const:    sig.Const,
		Async:    sig.Async,
		Unsafe:   sig.Unsafe,
		ABI:      cloneString(sig.ABI),
		Name:     sig.Name,
		Generics: CloneGenerics(sig.Generics),
		Output:   CloneType(sig.Output),
	}
	if r := sig.Receiver; r != nil {
		c.Receiver = &Receiver{Ref: r.Ref, Lifetime: CloneLifetime(r.Lifetime), Mut: r.Mut, Type: CloneType(r.Type)}
	}
	for _, param := range sig.Params {
		c.Params = append(c.Params, &Param{Pattern: param.Pattern, Type: CloneType(param.Type)})
	}
	return c
}

func cloneAttrs(attrs []Attribute) []Attribute {
	if attrs == nil {
		return nil
	}
	return append([]Attribute(nil), attrs...)
}

func CloneTraitMember(m TraitMember) TraitMember {
	switch m := m.(type) {
	case *Method:
		return &Method{Attrs: cloneAttrs(m.Attrs), Sig: CloneSignature(m.Sig), Default: cloneString(m.Default)}
	case *AssocType:
		return &AssocType{
			Attrs:    cloneAttrs(m.Attrs),
			Name:     m.Name,
			Generics: CloneGenerics(m.Generics),
			Bounds:   CloneBounds(m.Bounds),
			Default:  CloneType(m.Default),
		}
	case *AssocConst:
		return &AssocConst{Attrs: cloneAttrs(m.Attrs), Name: m.Name, Type: CloneType(m.Type), Default: CloneExpr(m.Default)}
	case *MacroMember:
		return &MacroMember{Text: m.Text}
	}
	return m
}

func CloneTrait(t *Trait) *Trait {
	if t == nil {
		return nil
	}
	c := &Trait{
		Attrs:       cloneAttrs(t.Attrs),
		Vis:         t.Vis,
		Unsafe:      t.Unsafe,
		Auto:        t.Auto,
		Name:        t.Name,
		Generics:    CloneGenerics(t.Generics),
		Supertraits: CloneBounds(t.Supertraits),
	}
	for _, m := range t.Members {
		c.Members = append(c.Members, CloneTraitMember(m))
	}
	return c
}
