package localstate

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GitReader reads the tree of the HEAD commit
type GitReader struct {
	root string
}

// NewGitReader creates a reader for the repository at root
func NewGitReader(root string) *GitReader {
	return &GitReader{root: root}
}

// Read returns the files recorded in HEAD. Uncommitted working tree changes
// are not considered, so an operation interrupted between write and commit is
// planned again on the next run.
func (r *GitReader) Read(ctx context.Context) (*State, error) {
	info, err := os.Stat(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyState(true), nil
		}
		return nil, &RepositoryAccessError{Path: r.root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RepositoryAccessError{Path: r.root, Err: errors.New("not a directory")}
	}

	repo, err := git.PlainOpen(r.root)
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return emptyState(true), nil
		}
		return nil, &RepositoryAccessError{Path: r.root, Err: err}
	}

	head, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return emptyState(false), nil
		}
		return nil, &RepositoryAccessError{Path: r.root, Err: fmt.Errorf("resolve HEAD: %w", err)}
	}

	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		return nil, &RepositoryAccessError{Path: r.root, Err: fmt.Errorf("read HEAD commit: %w", err)}
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, &RepositoryAccessError{Path: r.root, Err: fmt.Errorf("read HEAD tree: %w", err)}
	}

	state := emptyState(false)
	state.Head = head.Hash().String()
	err = tree.Files().ForEach(func(f *object.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		state.Entries[f.Name] = Entry{Path: f.Name, Hash: f.Hash.String(), Size: f.Size}
		return nil
	})
	if err != nil {
		return nil, &RepositoryAccessError{Path: r.root, Err: fmt.Errorf("walk HEAD tree: %w", err)}
	}

	return state, nil
}
