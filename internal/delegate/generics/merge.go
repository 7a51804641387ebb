package generics

import (
	"sort"

	"martianoff/delegen/internal/syntax"
)

// MergeParams combines two declared parameter lists. A parameter of addition
// with the same kind and name as one in target contributes its bounds to it;
// any other parameter is appended. The result is ordered lifetimes, types,
// consts, stable within each kind. Neither input is modified or aliased.
func MergeParams(target, addition []*syntax.GenericParam) []*syntax.GenericParam {
	out := syntax.CloneParams(target)
	for _, add := range addition {
		if existing := findParam(out, add.Kind, add.Name); existing != nil {
			existing.Bounds = append(existing.Bounds, syntax.CloneBounds(add.Bounds)...)
			continue
		}
		out = append(out, syntax.CloneParam(add))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func findParam(params []*syntax.GenericParam, kind syntax.ParamKind, name string) *syntax.GenericParam {
	for _, p := range params {
		if p.Kind == kind && p.Name == name {
			return p
		}
	}
	return nil
}

// MergeWhere appends the predicates of addition to a copy of target. A nil
// target adopts a copy of addition.
func MergeWhere(target, addition *syntax.WhereClause) *syntax.WhereClause {
	if addition == nil || len(addition.Predicates) == 0 {
		return syntax.CloneWhere(target)
	}
	if target == nil {
		return syntax.CloneWhere(addition)
	}
	out := syntax.CloneWhere(target)
	for _, pred := range addition.Predicates {
		out.Predicates = append(out.Predicates, syntax.ClonePredicate(pred))
	}
	return out
}

// MergeGenerics merges parameter lists and where-clauses of two generics.
func MergeGenerics(target, addition *syntax.Generics) *syntax.Generics {
	var tp, ap []*syntax.GenericParam
	var tw, aw *syntax.WhereClause
	if target != nil {
		tp, tw = target.Params, target.Where
	}
	if addition != nil {
		ap, aw = addition.Params, addition.Where
	}
	return &syntax.Generics{Params: MergeParams(tp, ap), Where: MergeWhere(tw, aw)}
}
