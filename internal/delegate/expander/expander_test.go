package expander

import (
	"testing"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/prefixer"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/syntax"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shapes = `
mod geo {
    use std::fmt::Display;

    pub trait Shape {
        fn area(&self) -> f64;
        #[inline]
        fn describe(&self, prefix: &dyn Display) -> String {
            format!("{}{}", prefix, self.area())
        }
    }

    pub trait Scale<T, const N: usize = 2> {
        type Output;
        fn scale(&mut self, by: T) -> [T; N];
    }

    pub unsafe trait Raw<'a> {
        fn bytes(&'a self) -> &'a [u8];
    }
}
`

func newExpander(t *testing.T) *Expander {
	t.Helper()
	root, err := syntax.ParsePath("::delegate_trait::__private")
	require.NoError(t, err)
	return New(prefixer.New(root, []string{"std", "core"}))
}

func expand(t *testing.T, request string) ([]*Block, error) {
	t.Helper()
	req, err := spec.ParseRequest(request + `, source => "shapes.rs"`)
	require.NoError(t, err)
	res, err := resolver.ResolveSource(shapes, resolver.Options{})
	require.NoError(t, err)
	return newExpander(t).Expand(req, Catalogs{req.Source.Key(): res})
}

func TestExpandShape(t *testing.T) {
	blocks, err := expand(t, `target => Wrapper<T: Clone>, to => self.inner, traits => { Shape }, with => { type Output = f64; }`)
	require.NoError(t, err)
	require.Len(t, blocks, 1)

	expected := `impl<T: Clone> Shape for Wrapper<T> {
    type Output = f64;

    ::delegate_trait::__private::delegate! {
        to self.inner {
            #[through(Shape)]
            fn area(&self) -> f64;

            #[inline]
            #[through(Shape)]
            fn describe(&self, prefix: &dyn ::delegate_trait::__private::std::fmt::Display) -> String;
        }
    }
}
`
	assert.Equal(t, expected, blocks[0].Text)
	assert.Equal(t, "Shape", blocks[0].Interface)
}

func TestExpandGenericInterface(t *testing.T) {
	blocks, err := expand(t, `
target => Wrapper<T: Clone> where T: Send,
to => self.0,
traits => { for<U: Copy> geo::Scale<U>, Raw<'static> },
where => { U: std::fmt::Debug }`)
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	expected := `impl<T: Clone, U: Copy> geo::Scale<U> for Wrapper<T>
where
    T: Send,
    U: ::delegate_trait::__private::std::fmt::Debug,
{
    ::delegate_trait::__private::delegate! {
        to self.0 {
            #[through(geo::Scale)]
            fn scale(&mut self, by: U) -> [U; 2];
        }
    }
}
`
	assert.Equal(t, expected, blocks[0].Text)
	assert.Equal(t, "geo::Scale<U>", syntax.FormatPath(blocks[0].Path))

	assert.Contains(t, blocks[1].Text, "unsafe impl<T: Clone> Raw<'static> for Wrapper<T>\n")
	assert.Contains(t, blocks[1].Text, "fn bytes(&'static self) -> &'static [u8];")

	joined := Render(blocks)
	assert.Equal(t, blocks[0].Text+"\n"+blocks[1].Text, joined)
}

func TestExpandErrors(t *testing.T) {
	tests := []struct {
		name    string
		request string
		errType delerr.ErrorType
		message string
	}{
		{"Not found", `target => W, to => self.0, traits => { Foo }`, delerr.TypeResolve, "interface `Foo` not found"},
		{"Duplicate reference", `target => W, to => self.0, traits => { Shape, geo::Shape }`, delerr.TypeResolve, "duplicate interface identifier `Shape`"},
		{"Arity", `target => W, to => self.0, traits => { Raw }`, delerr.TypeGeneric, "interface `Raw` expects 1 generic argument(s), found 0"},
		{"Kind", `target => W, to => self.0, traits => { Scale<'a> }`, delerr.TypeGeneric, "generic argument 1: expected type, found lifetime"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := expand(t, tt.request)
			require.Error(t, err)
			var derr *delerr.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.errType, derr.Type())
			assert.Contains(t, err.Error(), tt.message)
			assert.Equal(t, 1, derr.Pos.Line, "anchored at the reference")
		})
	}
}

func TestExpandIsDeterministic(t *testing.T) {
	request := `target => Wrapper<'a, T>, to => self.inner, traits => { Shape, Scale<T, 3>, Raw<'a> }`
	first, err := expand(t, request)
	require.NoError(t, err)
	second, err := expand(t, request)
	require.NoError(t, err)
	assert.Equal(t, Render(first), Render(second))
}

func TestExpandWithoutRoot(t *testing.T) {
	req, err := spec.ParseRequest(`target => W, to => self.0, traits => { Shape }, source => { trait Shape { fn f(&self) -> std::X; } }`)
	require.NoError(t, err)
	res, err := resolver.ResolveSource(req.Source.Inline, resolver.Options{})
	require.NoError(t, err)

	e := New(prefixer.New(&syntax.Path{}, nil))
	blocks, err := e.Expand(req, Catalogs{req.Source.Key(): res})
	require.NoError(t, err)
	assert.Contains(t, blocks[0].Text, "    delegate! {\n")
	assert.Contains(t, blocks[0].Text, "fn f(&self) -> std::X;")
}
