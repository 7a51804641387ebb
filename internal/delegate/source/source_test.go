package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/spec"
)

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.rs"), []byte("trait Shape {}"), 0o644))
	loader := NewFileLoader(dir)
	ctx := context.Background()

	text, err := loader.Load(ctx, &spec.Source{Path: "shapes.rs"})
	require.NoError(t, err)
	assert.Equal(t, "trait Shape {}", text)

	text, err = loader.Load(ctx, &spec.Source{Path: filepath.Join(dir, "shapes.rs")})
	require.NoError(t, err)
	assert.Equal(t, "trait Shape {}", text)

	text, err = loader.Load(ctx, &spec.Source{Inline: "trait Inline {}", IsInline: true})
	require.NoError(t, err)
	assert.Equal(t, "trait Inline {}", text)
}

func TestFileLoaderMissing(t *testing.T) {
	loader := NewFileLoader(t.TempDir())
	_, err := loader.Load(context.Background(), &spec.Source{Path: "missing.rs"})
	require.Error(t, err)

	var derr *delerr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, delerr.TypeIO, derr.Type())
	assert.Equal(t, "missing.rs", derr.Key)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), `could not open file "missing.rs"`)
}

func TestFileLoaderCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileLoader(t.TempDir()).Load(ctx, &spec.Source{Path: "x.rs"})
	assert.ErrorIs(t, err, context.Canceled)
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content, msg string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Unix(1700000000, 0)},
	})
	require.NoError(t, err)
}

func TestGitLoader(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	commitFile(t, repo, dir, "api/shapes.rs", "trait Shape { fn v1(&self); }", "first")
	head, err := repo.Head()
	require.NoError(t, err)
	_, err = repo.CreateTag("v1", head.Hash(), nil)
	require.NoError(t, err)
	commitFile(t, repo, dir, "api/shapes.rs", "trait Shape { fn v2(&self); }", "second")

	// Uncommitted edits are not visible at any revision.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "api", "shapes.rs"), []byte("dirty"), 0o644))

	tests := []struct {
		name     string
		dir      string
		rev      string
		expected string
	}{
		{"Tag", dir, "v1", "trait Shape { fn v1(&self); }"},
		{"Head", dir, "HEAD", "trait Shape { fn v2(&self); }"},
		{"Parent", dir, "HEAD~1", "trait Shape { fn v1(&self); }"},
		{"Nested directory", filepath.Join(dir, "api"), "HEAD", "trait Shape { fn v2(&self); }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "api/shapes.rs"
			if tt.dir != dir {
				path = "shapes.rs"
			}
			text, err := NewGitLoader(tt.dir, tt.rev).Load(context.Background(), &spec.Source{Path: path})
			require.NoError(t, err)
			assert.Equal(t, tt.expected, text)
		})
	}
}

func TestGitLoaderErrors(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "a.rs", "trait A {}", "init")

	_, err = NewGitLoader(dir, "HEAD").Load(context.Background(), &spec.Source{Path: "b.rs"})
	require.Error(t, err)
	var derr *delerr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, delerr.TypeIO, derr.Type())

	_, err = NewGitLoader(dir, "no-such-rev").Load(context.Background(), &spec.Source{Path: "a.rs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "revision no-such-rev not found")

	_, err = NewGitLoader(t.TempDir(), "HEAD").Load(context.Background(), &spec.Source{Path: "a.rs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open repository")
}
