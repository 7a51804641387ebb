// Package prefixer re-anchors paths in generated code. A path whose leading
// segment names one of the configured external roots gets a fixed root path
// spliced in front of it, so the emitted text resolves the same way wherever
// it is expanded.
package prefixer

import (
	"martianoff/delegen/internal/syntax"
)

// Prefixer splices a root path in front of external paths. It holds no
// state besides its configuration and may be reused.
type Prefixer struct {
	root      *syntax.Path
	externals map[string]bool
}

// New returns a prefixer that anchors paths starting with any of externals under root.
func New(root *syntax.Path, externals []string) *Prefixer {
	ext := make(map[string]bool, len(externals))
	for _, e := range externals {
		ext[e] = true
	}
	return &Prefixer{root: syntax.ClonePath(root), externals: ext}
}

// Root returns a copy of the configured root path.
func (p *Prefixer) Root() *syntax.Path {
	return syntax.ClonePath(p.root)
}

// IsExternal reports whether name is a configured external root.
func (p *Prefixer) IsExternal(name string) bool {
	return p.externals[name]
}

func (p *Prefixer) walker() *syntax.Walker {
	return syntax.NewWalker(&modifier{p: p})
}

// PrefixType returns a prefixed copy of t.
func (p *Prefixer) PrefixType(t syntax.Type) syntax.Type {
	return p.walker().Type(syntax.CloneType(t))
}

// PrefixPath returns a prefixed copy of path.
func (p *Prefixer) PrefixPath(path *syntax.Path) *syntax.Path {
	c := syntax.ClonePath(path)
	p.walker().Path(c)
	return c
}

// PrefixBound returns a prefixed copy of b.
func (p *Prefixer) PrefixBound(b syntax.Bound) syntax.Bound {
	return p.walker().Bound(syntax.CloneBound(b))
}

// PrefixSignature returns a prefixed copy of sig.
func (p *Prefixer) PrefixSignature(sig *syntax.Signature) *syntax.Signature {
	c := syntax.CloneSignature(sig)
	p.walker().Signature(c)
	return c
}

// PrefixGenerics returns a prefixed copy of g.
func (p *Prefixer) PrefixGenerics(g *syntax.Generics) *syntax.Generics {
	c := syntax.CloneGenerics(g)
	p.walker().Generics(c)
	return c
}

// PrefixParams returns prefixed copies of params.
func (p *Prefixer) PrefixParams(params []*syntax.GenericParam) []*syntax.GenericParam {
	c := syntax.CloneParams(params)
	w := p.walker()
	for _, param := range c {
		w.GenericParam(param)
	}
	return c
}

// PrefixWhere returns a prefixed copy of wc.
func (p *Prefixer) PrefixWhere(wc *syntax.WhereClause) *syntax.WhereClause {
	c := syntax.CloneWhere(wc)
	p.walker().WhereClause(c)
	return c
}

type modifier struct {
	syntax.BaseModifier
	p *Prefixer
}

func (m *modifier) ModifyPath(w *syntax.Walker, path *syntax.Path) {
	// Arguments are walked first so the root segments spliced in below are
	// never visited again.
	w.WalkPath(path)
	head := path.Head()
	if head == nil || !m.p.externals[head.Ident.Name] || len(m.p.root.Segments) == 0 {
		return
	}
	root := syntax.ClonePath(m.p.root)
	path.Global = root.Global
	path.Segments = append(root.Segments, path.Segments...)
}
