// Package resolver extracts interface definitions from a parsed source and
// qualifies the paths they use.
//
// Resolution runs in two passes. The first pass walks every module and
// records what each locally visible name refers to: imported names, renamed
// imports and declared types or interfaces. The second pass extracts each
// interface definition, drops its default method bodies and rewrites every
// path whose leading segment is a known alias into its qualified form, so the
// definition can be expanded far away from the module it was declared in.
package resolver

import (
	"sort"
	"strings"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/logger"
	"martianoff/delegen/internal/syntax"
)

// Options controls resolution.
type Options struct {
	// StrictAliases turns an alias bound to two different paths into an
	// error instead of letting the last binding win.
	StrictAliases bool
}

// Interface is a resolved interface definition. It is immutable once
// resolution completes; callers clone what they rewrite.
type Interface struct {
	Name string
	// Module is the declaration path of the enclosing module.
	Module []string
	// Trait is the definition with default bodies stripped and paths qualified.
	Trait *syntax.Trait
}

// Params returns the declared generic parameters.
func (i *Interface) Params() []*syntax.GenericParam {
	if i.Trait.Generics == nil {
		return nil
	}
	return i.Trait.Generics.Params
}

// QualifiedName returns the declaration path joined with the name.
func (i *Interface) QualifiedName() string {
	return strings.Join(extend(i.Module, i.Name), "::")
}

// Result is the outcome of resolving one source.
type Result struct {
	Symbols    *SymbolTable
	Interfaces map[string]*Interface
}

// Lookup returns the interface with the given name.
func (r *Result) Lookup(name string) (*Interface, bool) {
	i, ok := r.Interfaces[name]
	return i, ok
}

// Sorted returns the interfaces ordered by name.
func (r *Result) Sorted() []*Interface {
	out := make([]*Interface, 0, len(r.Interfaces))
	for _, i := range r.Interfaces {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// ResolveSource parses src and resolves it.
func ResolveSource(src string, opts Options) (*Result, error) {
	file, err := syntax.ParseFile(src)
	if err != nil {
		return nil, err
	}
	return Resolve(file, opts)
}

// Resolve builds the symbol table of file and extracts its interfaces.
func Resolve(file *syntax.File, opts Options) (*Result, error) {
	res := &Result{
		Symbols:    newSymbolTable(opts.StrictAliases),
		Interfaces: make(map[string]*Interface),
	}
	if err := res.collect(file.Items, nil); err != nil {
		return nil, err
	}
	if err := res.extract(file.Items, nil); err != nil {
		return nil, err
	}
	logger.Debugw("resolved source", "aliases", res.Symbols.Len(), "interfaces", len(res.Interfaces))
	return res, nil
}

func (r *Result) collect(items []syntax.Item, module []string) error {
	for _, item := range items {
		var err error
		switch it := item.(type) {
		case *syntax.ModItem:
			err = r.collect(it.Items, extend(module, it.Name.Name))
		case *syntax.UseItem:
			err = r.Symbols.collectUse(it.Tree, nil)
		case *syntax.TypeDecl:
			err = r.Symbols.define(it.Name.Name, extend(module, it.Name.Name), it.Name.Pos)
		case *syntax.Trait:
			err = r.Symbols.define(it.Name.Name, extend(module, it.Name.Name), it.Name.Pos)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *Result) extract(items []syntax.Item, module []string) error {
	for _, item := range items {
		switch it := item.(type) {
		case *syntax.ModItem:
			if err := r.extract(it.Items, extend(module, it.Name.Name)); err != nil {
				return err
			}
		case *syntax.Trait:
			name := it.Name.Name
			if _, dup := r.Interfaces[name]; dup {
				return delerr.NewDuplicateInterface(it.Name.Pos.Err(), name)
			}
			r.Interfaces[name] = &Interface{
				Name:   name,
				Module: append([]string(nil), module...),
				Trait:  r.qualify(it),
			}
			logger.Debugw("resolved interface", "name", name, "module", strings.Join(module, "::"))
		}
	}
	return nil
}

// qualify returns a copy of t without default bodies and with aliases expanded.
func (r *Result) qualify(t *syntax.Trait) *syntax.Trait {
	c := syntax.CloneTrait(t)
	for _, m := range c.Members {
		if method, ok := m.(*syntax.Method); ok {
			method.Default = nil
		}
	}
	q := &qualifier{symbols: r.Symbols, shadowed: map[string]int{"Self": 1}}
	if c.Generics != nil {
		for _, p := range c.Generics.Params {
			if p.Kind != syntax.LifetimeParam {
				q.shadowed[p.Name]++
			}
		}
	}
	syntax.NewWalker(q).Trait(c)
	return c
}

// qualifier rewrites alias-headed paths to their qualified form.
type qualifier struct {
	syntax.BaseModifier
	symbols  *SymbolTable
	shadowed map[string]int
}

func (q *qualifier) ModifySignature(w *syntax.Walker, sig *syntax.Signature) {
	var names []string
	if sig.Generics != nil {
		for _, p := range sig.Generics.Params {
			if p.Kind != syntax.LifetimeParam {
				names = append(names, p.Name)
			}
		}
	}
	for _, n := range names {
		q.shadowed[n]++
	}
	w.WalkSignature(sig)
	for _, n := range names {
		q.shadowed[n]--
	}
}

func (q *qualifier) ModifyPath(w *syntax.Walker, path *syntax.Path) {
	head := path.Head()
	if head != nil && !path.Global && q.shadowed[head.Ident.Name] == 0 {
		if full, ok := q.symbols.Lookup(head.Ident.Name); ok && len(full) > 0 {
			segs := make([]*syntax.PathSegment, 0, len(full)+len(path.Segments)-1)
			for _, name := range full[:len(full)-1] {
				segs = append(segs, &syntax.PathSegment{Ident: syntax.Ident{Name: name, Pos: head.Ident.Pos}})
			}
			last := &syntax.PathSegment{
				Ident: syntax.Ident{Name: full[len(full)-1], Pos: head.Ident.Pos},
				Args:  head.Args,
				Fn:    head.Fn,
			}
			segs = append(segs, last)
			path.Segments = append(segs, path.Segments[1:]...)
		}
	}
	w.WalkPath(path)
}
