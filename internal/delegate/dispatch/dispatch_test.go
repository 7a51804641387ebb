package dispatch

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/delegate"
	"martianoff/delegen/internal/delegate/expander"
	"martianoff/delegen/internal/delegate/prefixer"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/source"
	"martianoff/delegen/internal/syntax"
)

const interfaces = `
use std::fmt::Debug;

pub trait Shape {
    fn area(&self) -> f64;
    fn debug(&self) -> &dyn Debug;
}

pub trait Stack<T, const N: usize> {
    fn push(&mut self, item: T) -> Result<(), [T; N]>;
}
`

const table = `traits => { Shape, Stack }, source => {` + interfaces + `}`

func newOptions(t *testing.T, c *cache.DiskCache) Options {
	t.Helper()
	root, err := syntax.ParsePath("::delegate_trait::__private")
	require.NoError(t, err)
	externals := []string{"std"}
	return Options{
		Loader:   source.NewFileLoader(t.TempDir()),
		Expander: expander.New(prefixer.New(root, externals)),
		Cache:    c,
		Settings: delegate.Settings(root, externals, resolver.Options{}),
	}
}

func newTable(t *testing.T, c *cache.DiskCache) *Table {
	t.Helper()
	tbl, err := NewTable(context.Background(), table, newOptions(t, c))
	require.NoError(t, err)
	return tbl
}

func TestTableIndexesInterfaces(t *testing.T) {
	tbl := newTable(t, nil)
	assert.Equal(t, []string{"Shape", "Stack"}, tbl.Names())

	e, ok := tbl.Lookup("Stack")
	require.True(t, ok)
	assert.Equal(t, "Stack", e.Interface.Name)
	assert.True(t, e.Source.IsInline)

	_, ok = tbl.Lookup("Missing")
	assert.False(t, ok)
}

func TestExpand(t *testing.T) {
	tbl := newTable(t, nil)
	item := "#[derive(Debug)]\npub struct Meters<T>(Vec<T>);\n"

	out, err := tbl.Expand([]byte("Stack<T, 4> to self.0 where T: Clone"), []byte(item))
	require.NoError(t, err)

	expected := `#[derive(Debug)]
pub struct Meters<T>(Vec<T>);

impl<T> Stack<T, 4> for Meters<T>
where
    T: Clone,
{
    ::delegate_trait::__private::delegate! {
        to self.0 {
            #[through(Stack)]
            fn push(&mut self, item: T) -> Result<(), [T; 4]>;
        }
    }
}
`
	assert.Equal(t, expected, string(out))
}

func TestExpandErrors(t *testing.T) {
	tbl := newTable(t, nil)
	tests := []struct {
		name    string
		args    string
		item    string
		errType delerr.ErrorType
		message string
	}{
		{"Unknown interface", "Foo to self.0", "struct A;", delerr.TypeResolve, "interface `Foo` not found"},
		{"Bad attribute", "Shape self.0", "struct A;", delerr.TypeSyntax, "expected `to`"},
		{"Not a type", "Shape to self.0", "fn f() {}", delerr.TypeSpec, "delegation target"},
		{"Arity", "Stack<u8> to self.0", "struct A;", delerr.TypeGeneric, "interface `Stack` expects 2 generic argument(s), found 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tbl.Expand([]byte(tt.args), []byte(tt.item))
			require.Error(t, err)
			var derr *delerr.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.errType, derr.Type())
			assert.Contains(t, err.Error(), tt.message)
			assert.Greater(t, derr.Pos.Line, 0, "errors carry a position")
		})
	}
}

func TestNewTableErrors(t *testing.T) {
	opts := newOptions(t, nil)
	tests := []struct {
		name    string
		spec    string
		message string
	}{
		{"Missing interface", `traits => { Nope }, source => { trait A {} }`, "interface `Nope` not found"},
		{"Duplicate interface", `traits => { A, m::A }, source => { trait A {} }`, "duplicate interface identifier `A`"},
		{"Missing file", `traits => { A }, source => "a.rs"`, `could not open file "a.rs"`},
		{"No traits", `source => "a.rs"`, "missing key `traits`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTable(context.Background(), tt.spec, opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

// On-demand expansion and immediate generation share the expander, so the
// same request yields the same forwarding text.
func TestMatchesImmediateMode(t *testing.T) {
	opts := newOptions(t, nil)
	tbl, err := NewTable(context.Background(), table, opts)
	require.NoError(t, err)

	item := "struct Wrapper<'a, T: Clone> { inner: &'a T }"
	out, err := tbl.Expand([]byte("for<U> Stack<U, 2> to self.inner with { type X = (); }"), []byte(item))
	require.NoError(t, err)

	gen := delegate.NewGenerator(opts.Loader, opts.Expander, resolver.Options{}, opts.Settings)
	immediate, err := gen.Generate(context.Background(), `
target => Wrapper<'a, T: Clone>,
to => self.inner,
traits => { for<U> Stack<U, 2> },
with => { type X = (); },
source => {`+interfaces+`}`)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(string(out), item+"\n\n"))
	assert.Equal(t, immediate.Text, strings.TrimPrefix(string(out), item+"\n\n"))
}

func TestExpandUsesDiskCache(t *testing.T) {
	c, err := cache.Open(filepath.Join(t.TempDir(), "cache"))
	require.NoError(t, err)
	tbl := newTable(t, c)

	args, item := []byte("Shape to self.0"), []byte("struct A(B);")
	first, err := tbl.Expand(args, item)
	require.NoError(t, err)

	key := cache.Fingerprint(
		cache.Part{Name: "table", Content: []byte(tbl.digest)},
		cache.Part{Name: "args", Content: args},
		cache.Part{Name: "item", Content: item})
	entry, ok, err := c.Get(key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first, entry.Output)
	assert.Equal(t, []string{"Shape"}, entry.Interfaces)

	second, err := tbl.Expand(args, item)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestConcurrentExpand(t *testing.T) {
	tbl := newTable(t, nil)
	want, err := tbl.Expand([]byte("Shape to self.0"), []byte("struct A(B);"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([][]byte, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = tbl.Expand([]byte("Shape to self.0"), []byte("struct A(B);"))
		}(i)
	}
	wg.Wait()
	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
