// Package gitrepo reads build metadata from a git repository on disk.
//
// The repository is opened read-only with go-git, so no git binary is
// required and nothing is ever written or fetched.
package gitrepo

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/dantte-lp/gitbuildnumber/internal/buildnumber"
)

// tagSeparator joins several tags pointing at the same commit.
const tagSeparator = ";"

// Extraction errors.
var (
	// ErrRepositoryNotFound indicates no repository encloses the start directory.
	ErrRepositoryNotFound = errors.New("git repository not found")

	// ErrNoHead indicates the repository has no commits or an unresolvable HEAD.
	ErrNoHead = errors.New("git HEAD cannot be resolved")
)

// Extractor implements buildnumber.Extractor on top of go-git.
type Extractor struct{}

var _ buildnumber.Extractor = Extractor{}

// Extract opens the repository enclosing dir, searching parent directories
// for a .git entry, and reads revision, branch, tags and commit count of HEAD.
func (Extractor) Extract(dir string) (buildnumber.Record, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return buildnumber.Record{}, fmt.Errorf("%w from %s", ErrRepositoryNotFound, dir)
		}
		return buildnumber.Record{}, fmt.Errorf("open repository from %s: %w", dir, err)
	}

	head, err := repo.Head()
	if err != nil {
		return buildnumber.Record{}, fmt.Errorf("%w: %w", ErrNoHead, err)
	}

	var branch string
	if head.Name().IsBranch() {
		branch = head.Name().Short()
	}

	tag, err := tagsAt(repo, head.Hash())
	if err != nil {
		return buildnumber.Record{}, err
	}

	count, err := commitsCount(repo, head.Hash())
	if err != nil {
		return buildnumber.Record{}, err
	}

	return buildnumber.NewRecord(head.Hash().String(), branch, tag, count), nil
}

// tagsAt returns the sorted, joined names of all tags whose target commit is
// commit. Annotated tags are peeled to the commit they point at.
func tagsAt(repo *git.Repository, commit plumbing.Hash) (string, error) {
	iter, err := repo.Tags()
	if err != nil {
		return "", fmt.Errorf("list tags: %w", err)
	}
	defer iter.Close()

	var names []string
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		target := ref.Hash()

		tagObj, err := repo.TagObject(target)
		switch {
		case err == nil:
			c, err := tagObj.Commit()
			if err != nil {
				// Tag of a tree or blob.
				return nil
			}
			target = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return fmt.Errorf("read tag %s: %w", ref.Name().Short(), err)
		}

		if target == commit {
			names = append(names, ref.Name().Short())
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("scan tags: %w", err)
	}

	sort.Strings(names)
	return strings.Join(names, tagSeparator), nil
}

// commitsCount returns the number of distinct commits reachable from head.
func commitsCount(repo *git.Repository, head plumbing.Hash) (int, error) {
	iter, err := repo.Log(&git.LogOptions{From: head})
	if err != nil {
		return 0, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	count := 0
	err = iter.ForEach(func(*object.Commit) error {
		count++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count commits: %w", err)
	}
	return count, nil
}
