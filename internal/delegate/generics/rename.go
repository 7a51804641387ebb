package generics

import "martianoff/delegen/internal/syntax"

// renamer rewrites parameter references through a substitution. Replacement
// trees are inserted as clones and not walked again, so the substitution is
// simultaneous.
type renamer struct {
	syntax.BaseModifier
	sub    *Substitution
	shadow map[string]int
}

func newRenamer(sub *Substitution) *syntax.Walker {
	return syntax.NewWalker(&renamer{sub: sub, shadow: make(map[string]int)})
}

func (r *renamer) visible(name string) bool {
	return r.shadow[name] == 0
}

// ModifySignature hides method-level parameters that reuse an interface parameter name.
func (r *renamer) ModifySignature(w *syntax.Walker, sig *syntax.Signature) {
	var names []string
	if sig.Generics != nil {
		for _, p := range sig.Generics.Params {
			if p.Kind == syntax.LifetimeParam {
				names = append(names, "'"+p.Name)
			} else {
				names = append(names, p.Name)
			}
		}
	}
	for _, n := range names {
		r.shadow[n]++
	}
	w.WalkSignature(sig)
	for _, n := range names {
		r.shadow[n]--
	}
}

func (r *renamer) ModifyType(w *syntax.Walker, t syntax.Type) syntax.Type {
	pt, ok := t.(*syntax.PathType)
	if !ok || pt.QSelf != nil || pt.Path.Global {
		return w.WalkType(t)
	}
	head := pt.Path.Head()
	if head == nil || head.Args != nil || head.Fn != nil || !r.visible(head.Ident.Name) {
		return w.WalkType(t)
	}
	repl, ok := r.sub.Types[head.Ident.Name]
	if !ok {
		return w.WalkType(t)
	}
	if len(pt.Path.Segments) == 1 {
		return syntax.CloneType(repl)
	}

	// Projection off a parameter, `T::Item`.
	rest := &syntax.Path{Segments: pt.Path.Segments[1:], Pos: pt.Path.Pos}
	w.WalkPath(rest)
	if rp, ok := repl.(*syntax.PathType); ok && rp.QSelf == nil && plainPath(rp.Path) {
		joined := syntax.ClonePath(rp.Path)
		joined.Segments = append(joined.Segments, rest.Segments...)
		return &syntax.PathType{Path: joined}
	}
	return &syntax.PathType{QSelf: &syntax.QSelf{Type: syntax.CloneType(repl)}, Path: rest}
}

// plainPath reports whether no segment of p carries arguments.
func plainPath(p *syntax.Path) bool {
	for _, seg := range p.Segments {
		if seg.Args != nil || seg.Fn != nil {
			return false
		}
	}
	return true
}

func (r *renamer) ModifyLifetime(_ *syntax.Walker, l *syntax.Lifetime) {
	if !r.visible("'" + l.Name) {
		return
	}
	if repl, ok := r.sub.Lifetimes[l.Name]; ok {
		l.Name = repl.Name
	}
}

func (r *renamer) constFor(path *syntax.Path) (syntax.Expr, bool) {
	if !path.IsIdent() || !r.visible(path.Head().Ident.Name) {
		return nil, false
	}
	c, ok := r.sub.Consts[path.Head().Ident.Name]
	return c, ok
}

func (r *renamer) ModifyGenericArg(w *syntax.Walker, arg syntax.GenericArg) syntax.GenericArg {
	if ta, ok := arg.(*syntax.TypeArg); ok {
		if pt, ok := ta.Type.(*syntax.PathType); ok && pt.QSelf == nil {
			if _, isType := r.sub.Types[pt.Path.Head().Ident.Name]; !isType {
				if c, ok := r.constFor(pt.Path); ok {
					return &syntax.ConstArg{Expr: syntax.CloneExpr(c)}
				}
			}
		}
	}
	return w.WalkGenericArg(arg)
}

func (r *renamer) ModifyExpr(w *syntax.Walker, e syntax.Expr) syntax.Expr {
	if pe, ok := e.(*syntax.PathExpr); ok {
		if c, ok := r.constFor(pe.Path); ok {
			return syntax.CloneExpr(c)
		}
	}
	return w.WalkExpr(e)
}

// ApplyType returns a rewritten copy of t.
func (s *Substitution) ApplyType(t syntax.Type) syntax.Type {
	return newRenamer(s).Type(syntax.CloneType(t))
}

// ApplyExpr returns a rewritten copy of e.
func (s *Substitution) ApplyExpr(e syntax.Expr) syntax.Expr {
	return newRenamer(s).Expr(syntax.CloneExpr(e))
}

// ApplyPath returns a rewritten copy of p.
func (s *Substitution) ApplyPath(p *syntax.Path) *syntax.Path {
	c := syntax.ClonePath(p)
	newRenamer(s).Path(c)
	return c
}

// ApplyBounds returns rewritten copies of bounds.
func (s *Substitution) ApplyBounds(bounds []syntax.Bound) []syntax.Bound {
	c := syntax.CloneBounds(bounds)
	newRenamer(s).Bounds(c)
	return c
}

// ApplyGenerics returns a rewritten copy of g.
func (s *Substitution) ApplyGenerics(g *syntax.Generics) *syntax.Generics {
	c := syntax.CloneGenerics(g)
	newRenamer(s).Generics(c)
	return c
}

// ApplyWhere returns a rewritten copy of wc.
func (s *Substitution) ApplyWhere(wc *syntax.WhereClause) *syntax.WhereClause {
	c := syntax.CloneWhere(wc)
	newRenamer(s).WhereClause(c)
	return c
}

// ApplySignature returns a rewritten copy of sig. Method-level parameters
// shadow interface parameters of the same name.
func (s *Substitution) ApplySignature(sig *syntax.Signature) *syntax.Signature {
	c := syntax.CloneSignature(sig)
	newRenamer(s).Signature(c)
	return c
}
