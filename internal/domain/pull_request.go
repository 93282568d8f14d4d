// Package domain contains the core data structures and domain logic for the application.
package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPullRequestNotFound is returned by a gateway when a pull request number
// has no corresponding pull request (deleted, never created, or an issue).
var ErrPullRequestNotFound = errors.New("pull request not found")

// PullRequest holds the numeric fields and author of a single pull request.
// Values are read-only once fetched from the hosting service.
type PullRequest struct {
	Number         int
	Additions      int
	Deletions      int
	Comments       int
	ReviewComments int
	Commits        int
	Author         string
}

// TotalComments is the sum of issue comments and review comments.
func (p PullRequest) TotalComments() int {
	return p.Comments + p.ReviewComments
}

// Repository identifies a repository to analyze.
type Repository struct {
	Org  string `yaml:"org" json:"org" toml:"org"`
	Name string `yaml:"repo" json:"repo" toml:"repo"`
}

// Slug returns the "org/repo" form.
func (r Repository) Slug() string {
	return r.Org + "/" + r.Name
}

func (r Repository) String() string {
	return r.Slug()
}

// ParseRepository parses an "org/repo" string.
func ParseRepository(s string) (Repository, error) {
	org, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || org == "" || name == "" || strings.Contains(name, "/") {
		return Repository{}, fmt.Errorf("invalid repository %q: expected org/repo", s)
	}
	return Repository{Org: org, Name: name}, nil
}
