// Package gitctx captures a read-only snapshot of the git repository holding
// the package definitions, so console output can be correlated with the data
// state an audit ran against. It never mutates the repository.
package gitctx

import (
	"fmt"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
)

// RepoContext describes the definitions repository at collection time.
type RepoContext struct {
	Branch        string   `json:"branch"`
	SHA           string   `json:"sha"`
	Dirty         bool     `json:"dirty"`
	ModifiedFiles []string `json:"modified_files,omitempty"`
}

// Collect inspects the repository containing dir. Returns nil when dir is not
// inside a git worktree or the repository has no commits yet.
func Collect(dir string) *RepoContext {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}
	ctx := &RepoContext{
		Branch: head.Name().Short(),
		SHA:    head.Hash().String(),
	}

	wt, err := repo.Worktree()
	if err != nil {
		return ctx
	}
	status, err := wt.Status()
	if err != nil {
		return ctx
	}
	for path, s := range status {
		if s.Staging != git.Unmodified || s.Worktree != git.Unmodified {
			ctx.ModifiedFiles = append(ctx.ModifiedFiles, filepath.ToSlash(path))
		}
	}
	sort.Strings(ctx.ModifiedFiles)
	ctx.Dirty = len(ctx.ModifiedFiles) > 0
	return ctx
}

// Describe renders the context for console output, e.g. "main @ 1a2b3c4 (dirty)".
// A nil receiver describes a directory outside any repository.
func (c *RepoContext) Describe() string {
	if c == nil {
		return "no git repository"
	}
	sha := c.SHA
	if len(sha) > 7 {
		sha = sha[:7]
	}
	desc := fmt.Sprintf("%s @ %s", c.Branch, sha)
	if c.Dirty {
		desc += " (dirty)"
	}
	return desc
}
