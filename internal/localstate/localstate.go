package localstate

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
)

// Entry is a file recorded in the output repository
type Entry struct {
	Path string // slash-separated, relative to the repository root
	Hash string // git blob hash of the content
	Size int64
}

// State is the latest recorded state of the output repository
type State struct {
	Entries map[string]Entry
	// NeedsInit is set when the output path is missing or is not a
	// repository yet
	NeedsInit bool
	// Head is the commit the entries were read from, empty for unborn or
	// working tree reads
	Head string
}

func emptyState(needsInit bool) *State {
	return &State{Entries: make(map[string]Entry), NeedsInit: needsInit}
}

// Reader produces the current state of a repository
type Reader interface {
	Read(ctx context.Context) (*State, error)
}

// RepositoryAccessError is returned when the output path cannot be read
type RepositoryAccessError struct {
	Path string
	Err  error
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("cannot access repository %s: %v", e.Path, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error {
	return e.Err
}

// DefaultIgnore lists top-level names that are never managed
var DefaultIgnore = []string{".git", ".gitignore", ".github", "README.md", "LICENSE"}

// TempPrefix names in-flight temp files written next to solutions
const TempPrefix = ".golfsync-tmp-"

// IsIgnored reports whether a relative path falls under DefaultIgnore
func IsIgnored(rel string) bool {
	first := rel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		first = rel[:i]
	}
	first = path.Clean(first)
	for _, name := range DefaultIgnore {
		if first == name {
			return true
		}
	}
	return false
}

// HashContent returns the git blob hash of content, matching the hash stored
// in a commit tree
func HashContent(content []byte) string {
	return plumbing.ComputeHash(plumbing.BlobObject, content).String()
}
