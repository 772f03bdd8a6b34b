package localstate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"github.com/spf13/afero"
)

// TreeReader reads files straight from the working tree. It is used when
// commits are disabled and the output directory is plain files.
type TreeReader struct {
	fs   afero.Fs
	root string
}

// NewTreeReader creates a reader for the directory root on fs
func NewTreeReader(fs afero.Fs, root string) *TreeReader {
	return &TreeReader{fs: fs, root: root}
}

// Read walks the directory, skipping DefaultIgnore and paths matched by the
// root .gitignore. Hashes are git blob hashes so they compare equal with
// GitReader entries.
func (r *TreeReader) Read(ctx context.Context) (*State, error) {
	info, err := r.fs.Stat(r.root)
	if err != nil {
		if os.IsNotExist(err) {
			return emptyState(true), nil
		}
		return nil, &RepositoryAccessError{Path: r.root, Err: err}
	}
	if !info.IsDir() {
		return nil, &RepositoryAccessError{Path: r.root, Err: errors.New("not a directory")}
	}

	matcher, err := r.ignoreMatcher()
	if err != nil {
		return nil, &RepositoryAccessError{Path: r.root, Err: err}
	}

	state := emptyState(false)
	err = afero.Walk(r.fs, r.root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == r.root {
			return nil
		}

		rel, err := filepath.Rel(r.root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if IsIgnored(rel) || matcher.Match(strings.Split(rel, "/"), info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), TempPrefix) {
			return nil
		}

		content, err := afero.ReadFile(r.fs, p)
		if err != nil {
			return err
		}
		state.Entries[rel] = Entry{Path: rel, Hash: HashContent(content), Size: int64(len(content))}
		return nil
	})
	if err != nil {
		return nil, &RepositoryAccessError{Path: r.root, Err: err}
	}

	return state, nil
}

// ignoreMatcher loads the root .gitignore, if any
func (r *TreeReader) ignoreMatcher() (gitignore.Matcher, error) {
	data, err := afero.ReadFile(r.fs, filepath.Join(r.root, ".gitignore"))
	if err != nil {
		if os.IsNotExist(err) {
			return gitignore.NewMatcher(nil), nil
		}
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, nil))
	}
	return gitignore.NewMatcher(patterns), nil
}
