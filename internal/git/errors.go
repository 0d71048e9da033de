package git

import "errors"

var (
	// ErrNotRepository indicates the directory is not inside a git work tree.
	ErrNotRepository = errors.New("not a git repository")
	// ErrNoCommits indicates the repository has no HEAD commit yet.
	ErrNoCommits = errors.New("repository has no commits")
)
