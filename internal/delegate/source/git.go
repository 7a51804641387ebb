package source

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"martianoff/delegen/delerr"
	"martianoff/delegen/internal/delegate/spec"
	"martianoff/delegen/internal/logger"
)

// GitLoader reads file sources as they were at a revision of the repository
// enclosing Dir. The working tree is never touched.
type GitLoader struct {
	Dir string
	Rev string

	once sync.Once
	err  error
	root string
	tree *object.Tree
}

// NewGitLoader creates a loader for revision rev of the repository containing dir.
func NewGitLoader(dir, rev string) *GitLoader {
	return &GitLoader{Dir: dir, Rev: rev}
}

func (l *GitLoader) open() error {
	l.once.Do(func() {
		repo, err := git.PlainOpenWithOptions(l.Dir, &git.PlainOpenOptions{DetectDotGit: true})
		if err != nil {
			l.err = errors.Wrapf(err, "open repository at %s", l.Dir)
			return
		}
		worktree, err := repo.Worktree()
		if err != nil {
			l.err = errors.Wrap(err, "locate worktree")
			return
		}
		hash, err := resolveRevision(repo, l.Rev)
		if err != nil {
			l.err = err
			return
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			l.err = errors.Wrapf(err, "read commit %s", hash)
			return
		}
		if l.tree, err = commit.Tree(); err != nil {
			l.err = errors.Wrapf(err, "read tree of %s", hash)
			return
		}
		if l.root, err = filepath.Abs(worktree.Filesystem.Root()); err != nil {
			l.err = errors.Wrap(err, "resolve worktree root")
			return
		}
		logger.Debugw("opened git revision", "rev", l.Rev, "commit", hash.String(), "root", l.root)
	})
	return l.err
}

// resolveRevision tries rev as a tag, then a branch, then any revision expression.
func resolveRevision(repo *git.Repository, rev string) (*plumbing.Hash, error) {
	if hash, err := repo.ResolveRevision(plumbing.Revision(plumbing.NewTagReferenceName(rev))); err == nil {
		return hash, nil
	}
	if hash, err := repo.ResolveRevision(plumbing.Revision(plumbing.NewBranchReferenceName(rev))); err == nil {
		return hash, nil
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, errors.Wrapf(err, "revision %s not found", rev)
	}
	return hash, nil
}

// Load returns inline text directly and reads file sources from the revision.
func (l *GitLoader) Load(ctx context.Context, src *spec.Source) (string, error) {
	if src.IsInline {
		return src.Inline, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := l.open(); err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, err)
	}
	abs, err := filepath.Abs(resolvePath(l.Dir, src.Path))
	if err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, errors.Wrap(err, "resolve path"))
	}
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, errors.Wrap(err, "path outside repository"))
	}
	file, err := l.tree.File(filepath.ToSlash(rel))
	if err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, errors.Wrapf(err, "at revision %s", l.Rev))
	}
	contents, err := file.Contents()
	if err != nil {
		return "", delerr.NewIOError(src.Pos.Err(), src.Path, errors.Wrap(err, "read blob"))
	}
	return contents, nil
}
