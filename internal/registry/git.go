package registry

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// LoadRevision loads the snippet tree under root as it exists at a git
// revision. root may be any directory inside a repository; rev accepts
// anything go-git can resolve (branch, tag, short hash, HEAD~2) and an empty
// rev means HEAD.
func LoadRevision(ctx context.Context, root, rev string, opts ...Option) (*Registry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &LoadError{Path: root, Err: err}
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, &LoadError{Path: root, Err: fmt.Errorf("open repository: %w", err)}
	}

	subdir := "."
	if wt, err := repo.Worktree(); err == nil {
		top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
		if err != nil {
			top = wt.Filesystem.Root()
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		rel, err := filepath.Rel(top, abs)
		if err != nil || strings.HasPrefix(rel, "..") {
			return nil, &LoadError{Path: root, Err: fmt.Errorf("not inside worktree %s", top)}
		}
		subdir = filepath.ToSlash(rel)
	}

	if rev == "" {
		rev = "HEAD"
	}
	hash, err := repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, &LoadError{Path: root, Err: fmt.Errorf("resolve %s: %w", rev, err)}
	}

	commit, err := repo.CommitObject(*hash)
	if err != nil {
		return nil, &LoadError{Path: root, Err: fmt.Errorf("read commit %s: %w", hash, err)}
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, &LoadError{Path: root, Err: fmt.Errorf("read tree: %w", err)}
	}

	if subdir = path.Clean(subdir); subdir != "." {
		tree, err = tree.Tree(subdir)
		if err != nil {
			return nil, &LoadError{Path: root, Err: fmt.Errorf("%s at %s: %w", subdir, rev, err)}
		}
	}

	// Blobs are read up front; the object storage is not shared with the
	// parallel parse.
	var files []sourceFile
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if hidden(f.Name) || !wanted(f.Name) {
			return nil
		}
		contents, readErr := f.Contents()
		data := []byte(contents)
		files = append(files, sourceFile{
			path: f.Name,
			read: func() ([]byte, error) { return data, readErr },
		})
		return nil
	})
	if err != nil {
		return nil, &LoadError{Path: root, Err: fmt.Errorf("walk tree: %w", err)}
	}

	reg, err := newLoader(opts).build(ctx, files)
	if err != nil {
		return nil, err
	}
	reg.revision = hash.String()
	return reg, nil
}
