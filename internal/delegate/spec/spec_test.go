package spec

import (
	"testing"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequest(t *testing.T) {
	src := `
target => Wrapper<T: Clone> where T: Send,
to => self.inner.get::<A, B>(),
traits => { Shape, for<U> geo::Scale<U>, { Area, Perimeter } from "metrics.rs", Extra from { trait Extra {} } },
where => { T: 'static },
with => { type Output = f64; },
source => "shapes.rs",
`
	req, err := ParseRequest(src)
	require.NoError(t, err)

	assert.Equal(t, "Wrapper", req.Target.Name.Name)
	assert.Equal(t, "<T: Clone>", syntax.FormatParams(req.Target.Generics.Params, true))
	assert.Equal(t, " where T: Send", syntax.FormatWhereInline(req.Target.Generics.Where))
	assert.Equal(t, "self.inner.get::<A, B>()", req.To)
	assert.Equal(t, " where T: 'static", syntax.FormatWhereInline(req.Where))
	require.NotNil(t, req.With)
	assert.Equal(t, "type Output = f64;", *req.With)
	assert.Equal(t, "shapes.rs", req.Source.Path)

	require.Len(t, req.References, 5)
	names := make([]string, len(req.References))
	for i, ref := range req.References {
		names[i] = ref.Name()
	}
	assert.Equal(t, []string{"Shape", "Scale", "Area", "Perimeter", "Extra"}, names)

	scale := req.References[1]
	assert.Equal(t, "geo::Scale<U>", syntax.FormatPath(scale.Path))
	assert.Equal(t, "<U>", syntax.FormatParams(scale.For, false))
	assert.Equal(t, "<U>", syntax.FormatGenericArgs(scale.Args()))

	assert.Equal(t, "shapes.rs", req.SourceFor(req.References[0]).Path)
	assert.Equal(t, "metrics.rs", req.SourceFor(req.References[2]).Path)
	assert.Same(t, req.References[2].Source, req.References[3].Source)

	inline := req.SourceFor(req.References[4])
	assert.True(t, inline.IsInline)
	assert.Contains(t, inline.Inline, "trait Extra {}")
	assert.NotEqual(t, inline.Key(), req.Source.Key())
}

func TestParseRequestMinimal(t *testing.T) {
	req, err := ParseRequest(`target => Point, to => self.0, traits => { Shape }, source => r#"a "b".rs"#`)
	require.NoError(t, err)
	assert.Equal(t, "Point", req.Target.Name.Name)
	assert.True(t, req.Target.Generics.Empty())
	assert.Nil(t, req.Where)
	assert.Nil(t, req.With)
	assert.Equal(t, `a "b".rs`, req.Source.Path)
}

func TestParseRequestErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		errType delerr.ErrorType
		key     string
		message string
	}{
		{
			name:    "Duplicate target",
			src:     `target => A, target => B, to => x, traits => { T }, source => "s"`,
			errType: delerr.TypeSpec,
			key:     "target",
			message: "duplicate key `target`",
		},
		{
			name:    "Unknown key",
			src:     `target => A, via => x`,
			errType: delerr.TypeSpec,
			key:     "via",
			message: "unknown key `via`",
		},
		{
			name:    "Missing to",
			src:     `target => A, traits => { T }, source => "s"`,
			errType: delerr.TypeSpec,
			key:     "to",
			message: "missing key `to`",
		},
		{
			name:    "Missing traits",
			src:     `target => A, to => self.a`,
			errType: delerr.TypeSpec,
			key:     "traits",
			message: "missing key `traits`",
		},
		{
			name:    "No source",
			src:     `target => A, to => x, traits => { T }`,
			errType: delerr.TypeSpec,
			message: "interface `T` has no source",
		},
		{
			name:    "Empty traits",
			src:     `target => A, to => x, traits => { }, source => "s"`,
			errType: delerr.TypeSpec,
			message: "no interfaces listed",
		},
		{
			name:    "Missing separator",
			src:     `target => A to => x`,
			errType: delerr.TypeSyntax,
			message: "expected `,` between entries",
		},
		{
			name:    "Bad source",
			src:     `target => A, to => x, traits => { T }, source => shapes`,
			errType: delerr.TypeSyntax,
			message: "expected a source path",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(tt.src)
			require.Error(t, err)
			var derr *delerr.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.errType, derr.Type())
			assert.Contains(t, err.Error(), tt.message)
			if tt.key != "" {
				assert.Equal(t, tt.key, derr.Key)
			}
		})
	}
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(`traits => { Shape, { Iter } from "iter.rs" }, source => "shapes.rs"`)
	require.NoError(t, err)
	require.Len(t, table.References, 2)
	assert.Equal(t, "shapes.rs", table.SourceFor(table.References[0]).Path)
	assert.Equal(t, "iter.rs", table.SourceFor(table.References[1]).Path)

	_, err = ParseTable(`traits => { Shape }, target => X`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown key `target`")

	_, err = ParseTable(`source => "s"`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing key `traits`")
}

func TestParseAttribute(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		path  string
		for_  string
		to    string
		where string
		with  string
	}{
		{name: "Plain", src: "Shape to self.inner", path: "Shape", to: "self.inner"},
		{
			name: "All parts",
			src:  "for<'a> Iter<'a, u8> to &self.items where T: 'a with { type Extra = (); }",
			path: "Iter<'a, u8>", for_: "<'a>", to: "&self.items", where: " where T: 'a", with: "type Extra = ();",
		},
		{name: "Call expression", src: "geo::Scale<f64> to self.get(1, 2) with {}", path: "geo::Scale<f64>", to: "self.get(1, 2)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attr, err := ParseAttribute(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.path, syntax.FormatPath(attr.Reference.Path))
			assert.Equal(t, tt.for_, syntax.FormatParams(attr.Reference.For, false))
			assert.Equal(t, tt.to, attr.To)
			assert.Equal(t, tt.where, syntax.FormatWhereInline(attr.Where))
			if tt.with != "" {
				require.NotNil(t, attr.With)
				assert.Equal(t, tt.with, *attr.With)
			}
		})
	}

	_, err := ParseAttribute("Shape self.inner")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected `to`")

	_, err = ParseAttribute("Shape to")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected expression")
}

func TestAttributeRequest(t *testing.T) {
	attr, err := ParseAttribute("Shape to self.0")
	require.NoError(t, err)
	target, err := ParseTargetItem("#[derive(Debug)]\npub struct Meters<T: Copy>(T) where T: Send;")
	require.NoError(t, err)

	src := &Source{Path: "shapes.rs"}
	req := attr.Request(target, src)
	assert.Equal(t, "Meters", req.Target.Name.Name)
	assert.Equal(t, " where T: Send", syntax.FormatWhereInline(req.Target.Generics.Where))
	require.Len(t, req.References, 1)
	assert.Same(t, src, req.SourceFor(req.References[0]))
	assert.Nil(t, attr.Reference.Source, "attribute reference is not modified")
}

func TestParseTargetItemErrors(t *testing.T) {
	for _, src := range []string{"trait T {}", "type A = u8;", "struct A; struct B;"} {
		_, err := ParseTargetItem(src)
		require.Error(t, err, src)
		var derr *delerr.Error
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, delerr.TypeSpec, derr.Type())
	}
}
