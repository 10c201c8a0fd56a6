// Package git reads past versions of the database from the git history of
// the bm home directory.
package git

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pcubillos/bibmanager-sub000/internal/bibtex"
	"github.com/pcubillos/bibmanager-sub000/internal/reference"
	"github.com/pcubillos/bibmanager-sub000/internal/storage"
)

// ErrNotGitRepo indicates the directory is not a git repository.
var ErrNotGitRepo = errors.New("not a git repository")

// ErrCommitNotFound indicates the specified commit does not exist.
var ErrCommitNotFound = errors.New("commit not found")

// FindRepoRoot finds the root of the git repository containing the given path.
// Returns ErrNotGitRepo if not in a git repository.
func FindRepoRoot(path string) (string, error) {
	cmd := exec.Command("git", "-C", path, "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrNotGitRepo
	}
	return strings.TrimSpace(string(output)), nil
}

// ValidateCommit verifies that a commit reference exists.
// Supports SHA, HEAD, HEAD~N, branch names, tags, etc.
// Returns the resolved full SHA or ErrCommitNotFound.
func ValidateCommit(repoRoot, commitRef string) (string, error) {
	cmd := exec.Command("git", "-C", repoRoot, "rev-parse", "--verify", commitRef+"^{commit}")
	output, err := cmd.Output()
	if err != nil {
		return "", ErrCommitNotFound
	}
	return strings.TrimSpace(string(output)), nil
}

// EntriesAtCommit returns the entries of the store file at storePath as
// committed in commitRef. A store absent from that commit yields no
// entries.
func EntriesAtCommit(storePath, commitRef string) ([]*reference.Entry, error) {
	repoRoot, err := FindRepoRoot(filepath.Dir(storePath))
	if err != nil {
		return nil, err
	}
	sha, err := ValidateCommit(repoRoot, commitRef)
	if err != nil {
		return nil, err
	}
	rel, err := relativePath(repoRoot, storePath)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("git", "-C", repoRoot, "show", sha+":"+rel)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s at %s: %w", rel, commitRef, err)
	}
	return parseStore(output)
}

// relativePath returns path relative to repoRoot in git's slash form.
// Symlinks are resolved on both sides, since git reports the real root.
func relativePath(repoRoot, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(abs))
	if err != nil {
		return "", err
	}
	root, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(root, filepath.Join(dir, filepath.Base(abs)))
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// parseStore decodes committed JSONL content.
func parseStore(data []byte) ([]*reference.Entry, error) {
	var entries []*reference.Entry
	var warn bibtex.Warnings
	for i, line := range bytes.Split(data, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		e, err := storage.DecodeLine(line, &warn)
		if err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", i+1, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
