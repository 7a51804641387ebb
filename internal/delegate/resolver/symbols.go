package resolver

import (
	"sort"
	"strings"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/syntax"
)

// SymbolTable maps a locally visible name to the fully qualified path it
// denotes. It is built once per source and read-only afterwards.
type SymbolTable struct {
	entries map[string][]string
	strict  bool
}

func newSymbolTable(strict bool) *SymbolTable {
	return &SymbolTable{entries: make(map[string][]string), strict: strict}
}

// define binds alias to path. Rebinding to a different path is an error in
// strict mode; otherwise the last binding wins.
func (t *SymbolTable) define(alias string, path []string, pos syntax.Pos) error {
	if prev, ok := t.entries[alias]; ok && t.strict && !equalPaths(prev, path) {
		return delerr.NewAliasCollision(pos.Err(), alias, strings.Join(prev, "::"), strings.Join(path, "::"))
	}
	t.entries[alias] = append([]string(nil), path...)
	return nil
}

// Lookup returns the qualified path bound to alias.
func (t *SymbolTable) Lookup(alias string) ([]string, bool) {
	p, ok := t.entries[alias]
	return p, ok
}

// Len returns the number of bound aliases.
func (t *SymbolTable) Len() int {
	return len(t.entries)
}

// Aliases returns the bound aliases in sorted order.
func (t *SymbolTable) Aliases() []string {
	out := make([]string, 0, len(t.entries))
	for k := range t.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Map returns a copy of the table with paths joined by `::`.
func (t *SymbolTable) Map() map[string]string {
	out := make(map[string]string, len(t.entries))
	for k, v := range t.entries {
		out[k] = strings.Join(v, "::")
	}
	return out
}

func equalPaths(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func extend(prefix []string, names ...string) []string {
	out := make([]string, 0, len(prefix)+len(names))
	out = append(out, prefix...)
	return append(out, names...)
}

// collectUse records the aliases introduced by one use tree under prefix.
func (t *SymbolTable) collectUse(tree syntax.UseTree, prefix []string) error {
	switch u := tree.(type) {
	case *syntax.UsePath:
		return t.collectUse(u.Tree, extend(prefix, u.Name.Name))
	case *syntax.UseName:
		if u.Name.Name == "self" {
			if len(prefix) == 0 {
				return nil
			}
			return t.define(prefix[len(prefix)-1], prefix, u.Name.Pos)
		}
		return t.define(u.Name.Name, extend(prefix, u.Name.Name), u.Name.Pos)
	case *syntax.UseRename:
		if u.Rename.Name == "_" {
			return nil
		}
		target := extend(prefix, u.Name.Name)
		if u.Name.Name == "self" {
			target = prefix
		}
		return t.define(u.Rename.Name, target, u.Rename.Pos)
	case *syntax.UseGroup:
		for _, sub := range u.Trees {
			if err := t.collectUse(sub, prefix); err != nil {
				return err
			}
		}
	case *syntax.UseGlob:
		// Glob imports bind no names the resolver can know about.
	}
	return nil
}
