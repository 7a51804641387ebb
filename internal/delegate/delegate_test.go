package delegate

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/cache"
	"martianoff/delegen/internal/delegate/expander"
	"martianoff/delegen/internal/delegate/prefixer"
	"martianoff/delegen/internal/delegate/resolver"
	"martianoff/delegen/internal/delegate/source"
	"martianoff/delegen/internal/syntax"
)

func newGenerator(t *testing.T, dir string, opts resolver.Options) *Generator {
	t.Helper()
	root, err := syntax.ParsePath("::delegate_trait::__private")
	require.NoError(t, err)
	externals := []string{"std", "core"}
	exp := expander.New(prefixer.New(root, externals))
	return NewGenerator(source.NewFileLoader(dir), exp, opts, Settings(root, externals, opts))
}

func TestGenerateMatchesExpected(t *testing.T) {
	dir := testdataDir(t)
	request, err := os.ReadFile(filepath.Join(dir, "wrapper.delegate"))
	require.NoError(t, err)
	expected, err := os.ReadFile(filepath.Join(dir, "wrapper.expected.rs"))
	require.NoError(t, err)

	out, err := newGenerator(t, dir, resolver.Options{}).Generate(context.Background(), string(request))
	require.NoError(t, err)
	assert.Equal(t, string(expected), out.Text)
	assert.Equal(t, []string{"Shape", "Scale", "Sink"}, out.Interfaces)
	assert.True(t, cache.IsFingerprint(out.Fingerprint))
}

func TestGenerateIsDeterministic(t *testing.T) {
	dir := testdataDir(t)
	request, err := os.ReadFile(filepath.Join(dir, "wrapper.delegate"))
	require.NoError(t, err)

	g := newGenerator(t, dir, resolver.Options{})
	first, err := g.Generate(context.Background(), string(request))
	require.NoError(t, err)
	second, err := g.Generate(context.Background(), string(request))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	strict := newGenerator(t, dir, resolver.Options{StrictAliases: true})
	third, err := strict.Generate(context.Background(), string(request))
	require.NoError(t, err)
	assert.Equal(t, first.Text, third.Text)
	assert.NotEqual(t, first.Fingerprint, third.Fingerprint, "settings are part of the fingerprint")
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name    string
		request string
		errType delerr.ErrorType
		message string
	}{
		{"Missing interface", `target => W, to => self.0, traits => { Foo }, source => "shapes.rs"`, delerr.TypeResolve, "interface `Foo` not found"},
		{"Arity", `target => W, to => self.0, traits => { Sink }, source => "shapes.rs"`, delerr.TypeGeneric, "expects 1 generic argument(s), found 0"},
		{"Missing source file", `target => W, to => self.0, traits => { Shape }, source => "nope.rs"`, delerr.TypeIO, `could not open file "nope.rs"`},
		{"Duplicate key", `target => W, target => V`, delerr.TypeSpec, "duplicate key `target`"},
		{"Broken source", `target => W, to => self.0, traits => { A from { trait A { fn f(&self) } } }`, delerr.TypeSyntax, ""},
	}
	g := newGenerator(t, testdataDir(t), resolver.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), tt.request)
			require.Error(t, err)
			var derr *delerr.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.errType, derr.Type())
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestResolveErrorsNameTheSourceFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dup.rs"), []byte("trait A {}\nmod m { trait A {} }\n"), 0o644))

	_, err := newGenerator(t, dir, resolver.Options{}).
		Generate(context.Background(), `target => W, to => self.0, traits => { A }, source => "dup.rs"`)
	require.Error(t, err)
	var derr *delerr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, "dup.rs", derr.Pos.File)
	assert.Contains(t, err.Error(), "duplicate interface identifier `A`")
}

func TestGenerateFile(t *testing.T) {
	dir := t.TempDir()
	shapes, err := os.ReadFile(filepath.Join(testdataDir(t), "shapes.rs"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.rs"), shapes, 0o644))
	specPath := filepath.Join(dir, "point.delegate")
	require.NoError(t, os.WriteFile(specPath, []byte(`target => Point, to => self.0, traits => { Shape }, source => "shapes.rs"`), 0o644))
	outPath := filepath.Join(dir, "gen", "point.rs")

	g := newGenerator(t, dir, resolver.Options{})
	ctx := context.Background()

	res, err := g.GenerateFile(ctx, specPath, outPath)
	require.NoError(t, err)
	assert.True(t, res.Written)

	written, err := os.ReadFile(outPath)
	require.NoError(t, err)
	fp, ok := ReadFingerprint(string(written))
	require.True(t, ok)
	assert.Equal(t, res.Output.Fingerprint, fp)
	assert.True(t, strings.HasSuffix(string(written), "\n"+res.Output.Text))
	assert.Contains(t, string(written), "impl Shape for Point {\n")
	require.NoError(t, g.Check(ctx, specPath, outPath))

	res, err = g.GenerateFile(ctx, specPath, outPath)
	require.NoError(t, err)
	assert.False(t, res.Written, "unchanged output is not rewritten")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.rs"), append(shapes, []byte("\npub trait Extra {}\n")...), 0o644))
	err = g.Check(ctx, specPath, outPath)
	var mismatch *cache.MismatchError
	require.ErrorAs(t, err, &mismatch)

	res, err = g.GenerateFile(ctx, specPath, outPath)
	require.NoError(t, err)
	assert.True(t, res.Written, "changed source rewrites the output")
	require.NoError(t, g.Check(ctx, specPath, outPath))
}

func TestGenerateFileAnchorsSpecErrors(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "bad.delegate")
	require.NoError(t, os.WriteFile(specPath, []byte("target => W,\nvia => x"), 0o644))

	_, err := newGenerator(t, dir, resolver.Options{}).GenerateFile(context.Background(), specPath, filepath.Join(dir, "out.rs"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), specPath+":2:1 unknown key `via`")
}

func TestReadFingerprint(t *testing.T) {
	fp := cache.Fingerprint()
	got, ok := ReadFingerprint(Header(fp) + "\nimpl A for B {}\n")
	assert.True(t, ok)
	assert.Equal(t, fp, got)

	_, ok = ReadFingerprint("impl A for B {}\n")
	assert.False(t, ok)
	_, ok = ReadFingerprint(Header("h1:short"))
	assert.False(t, ok)
}
