package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// segmentRenamer renames every path segment called from to to.
type segmentRenamer struct {
	BaseModifier
	from, to string
	seen     int
}

func (r *segmentRenamer) ModifyPath(w *Walker, path *Path) {
	for _, seg := range path.Segments {
		if seg.Ident.Name == r.from {
			seg.Ident.Name = r.to
			r.seen++
		}
	}
	w.WalkPath(path)
}

type lifetimeCounter struct {
	BaseModifier
	names []string
}

func (c *lifetimeCounter) ModifyLifetime(_ *Walker, l *Lifetime) {
	c.names = append(c.names, l.Name)
}

func TestWalkerReachesNestedPaths(t *testing.T) {
	ty, err := ParseType("Vec<(T, &[T; 2], fn(T) -> Box<dyn Fn(T) + Send>, <T as Tr<T>>::Out)>")
	require.NoError(t, err)

	r := &segmentRenamer{from: "T", to: "X"}
	out := NewWalker(r).Type(ty)

	assert.Equal(t, "Vec<(X, &[X; 2], fn(X) -> Box<dyn Fn(X) + Send>, <X as Tr<X>>::Out)>", FormatType(out))
	assert.Equal(t, 6, r.seen)
}

func TestWalkerSignature(t *testing.T) {
	p, err := NewParser("fn f<'b>(&'a self, x: &'b T) -> Ref<'a, T> where 'a: 'b")
	require.NoError(t, err)
	sig, err := p.ParseSignature()
	require.NoError(t, err)

	c := &lifetimeCounter{}
	NewWalker(c).Signature(sig)
	assert.Equal(t, []string{"a", "b", "a", "b", "a"}, c.names)
}

func TestBaseModifierIsIdentity(t *testing.T) {
	const src = "for<'a> fn(&'a [u8; N], impl Iterator<Item = &'a T>) -> Option<<T as Tr>::Out>"
	ty, err := ParseType(src)
	require.NoError(t, err)
	out := NewWalker(&BaseModifier{}).Type(ty)
	assert.Equal(t, src, FormatType(out))
}

func TestCloneIsDeep(t *testing.T) {
	ty, err := ParseType("HashMap<K, Vec<V>>")
	require.NoError(t, err)
	c := CloneType(ty)

	NewWalker(&segmentRenamer{from: "V", to: "W"}).Type(c)
	assert.Equal(t, "HashMap<K, Vec<V>>", FormatType(ty))
	assert.Equal(t, "HashMap<K, Vec<W>>", FormatType(c))
}

func TestCloneTrait(t *testing.T) {
	f, err := ParseFile("trait Shape<T>: Clone where T: Copy { fn area(&self, by: T) -> f64 { 1.0 } type Out; }")
	require.NoError(t, err)
	orig := f.Items[0].(*Trait)
	c := CloneTrait(orig)

	c.Methods()[0].Sig.Name.Name = "perimeter"
	c.Generics.Params[0].Name = "U"
	*c.Methods()[0].Default = "{}"

	assert.Equal(t, "area", orig.Methods()[0].Sig.Name.Name)
	assert.Equal(t, "T", orig.Generics.Params[0].Name)
	assert.Equal(t, "{ 1.0 }", *orig.Methods()[0].Default)
	assert.Equal(t, FormatBounds(orig.Supertraits), FormatBounds(c.Supertraits))
}
