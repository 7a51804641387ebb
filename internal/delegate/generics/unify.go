// Package generics binds an interface's declared generic parameters to the
// arguments supplied at a usage site, rewrites trees through the resulting
// substitution and merges generic parameter lists and where-clauses.
package generics

import (
	"sort"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/syntax"
)

// Substitution maps declared parameter names to usage-site arguments. One
// substitution is built per usage site and never shared.
type Substitution struct {
	Lifetimes map[string]*syntax.Lifetime
	Types     map[string]syntax.Type
	Consts    map[string]syntax.Expr
}

// NewSubstitution returns an empty substitution.
func NewSubstitution() *Substitution {
	return &Substitution{
		Lifetimes: make(map[string]*syntax.Lifetime),
		Types:     make(map[string]syntax.Type),
		Consts:    make(map[string]syntax.Expr),
	}
}

// Empty reports whether the substitution binds nothing.
func (s *Substitution) Empty() bool {
	return len(s.Lifetimes) == 0 && len(s.Types) == 0 && len(s.Consts) == 0
}

// Names returns every bound name, sorted.
func (s *Substitution) Names() []string {
	var out []string
	for k := range s.Lifetimes {
		out = append(out, "'"+k)
	}
	for k := range s.Types {
		out = append(out, k)
	}
	for k := range s.Consts {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func argKind(arg syntax.GenericArg) syntax.ParamKind {
	switch arg.(type) {
	case *syntax.LifetimeArg:
		return syntax.LifetimeParam
	case *syntax.ConstArg:
		return syntax.ConstParam
	}
	return syntax.TypeParam
}

func hasDefault(p *syntax.GenericParam) bool {
	return p.Default != nil || p.DefaultExpr != nil
}

// Unify binds the declared params of the named interface to args by position.
// Associated-type bindings in args are not positional and are ignored.
// Trailing parameters with defaults may be omitted; their defaults are bound
// after being rewritten through the arguments bound before them.
func Unify(iface string, params []*syntax.GenericParam, args *syntax.GenericArgs) (*Substitution, error) {
	var positional []syntax.GenericArg
	var pos delerr.Pos
	if args != nil {
		pos = args.Pos.Err()
		for _, arg := range args.Args {
			switch arg.(type) {
			case *syntax.BindingArg, *syntax.ConstraintArg:
				continue
			}
			positional = append(positional, arg)
		}
	}

	required := len(params)
	for required > 0 && hasDefault(params[required-1]) {
		required--
	}
	if len(positional) < required || len(positional) > len(params) {
		return nil, delerr.NewArityMismatch(pos, iface, len(params), len(positional))
	}

	sub := NewSubstitution()
	for i, param := range params {
		if i >= len(positional) {
			switch param.Kind {
			case syntax.TypeParam:
				sub.Types[param.Name] = sub.ApplyType(param.Default)
			case syntax.ConstParam:
				sub.Consts[param.Name] = sub.ApplyExpr(param.DefaultExpr)
			}
			continue
		}
		arg := positional[i]
		mismatch := func() error {
			return delerr.NewKindMismatch(pos, iface, i, param.Kind.String(), argKind(arg).String())
		}
		switch param.Kind {
		case syntax.LifetimeParam:
			a, ok := arg.(*syntax.LifetimeArg)
			if !ok {
				return nil, mismatch()
			}
			sub.Lifetimes[param.Name] = syntax.CloneLifetime(a.Lifetime)
		case syntax.TypeParam:
			a, ok := arg.(*syntax.TypeArg)
			if !ok {
				return nil, mismatch()
			}
			sub.Types[param.Name] = syntax.CloneType(a.Type)
		case syntax.ConstParam:
			switch a := arg.(type) {
			case *syntax.ConstArg:
				sub.Consts[param.Name] = syntax.CloneExpr(a.Expr)
			case *syntax.TypeArg:
				// A bare identifier parses as a type; in const position it names a const.
				pt, ok := a.Type.(*syntax.PathType)
				if !ok || pt.QSelf != nil || !pt.Path.IsIdent() {
					return nil, mismatch()
				}
				sub.Consts[param.Name] = &syntax.PathExpr{Path: syntax.ClonePath(pt.Path)}
			default:
				return nil, mismatch()
			}
		}
	}
	return sub, nil
}
