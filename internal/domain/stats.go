package domain

import (
	"encoding/json"
	"sort"
)

// Field names of the numeric sequences. They double as output file names.
const (
	FieldAdditions = "additions_count"
	FieldDeletions = "deletions_count"
	FieldComments  = "comments_count"
	FieldCommits   = "commits_count"

	// FieldAuthors is the summary key of the per-author pull request counts.
	FieldAuthors = "user"
)

// AuthorCounts maps an author login to the number of pull requests they opened.
type AuthorCounts map[string]int

// Increment adds one pull request to login, starting from zero when absent.
func (a AuthorCounts) Increment(login string) {
	count, ok := a[login]
	if !ok {
		count = 0
	}
	a[login] = count + 1
}

// Total returns the sum of all counts.
func (a AuthorCounts) Total() int {
	total := 0
	for _, count := range a {
		total += count
	}
	return total
}

// Logins returns the author logins in ascending order.
func (a AuthorCounts) Logins() []string {
	logins := make([]string, 0, len(a))
	for login := range a {
		logins = append(logins, login)
	}
	sort.Strings(logins)
	return logins
}

// Series is one named numeric sequence of a Collection.
type Series struct {
	Name   string
	Values []int
}

// Collection is the in-memory aggregate built during one repository's analysis.
// The numeric sequences are indexed by arrival order, not by pull request number.
type Collection struct {
	Additions []int
	Deletions []int
	Comments  []int
	Commits   []int
	Authors   AuthorCounts

	// Numbers records the pull request number of each arrival.
	Numbers []int
}

// NewCollection returns an empty Collection.
func NewCollection() *Collection {
	return &Collection{
		Additions: []int{},
		Deletions: []int{},
		Comments:  []int{},
		Commits:   []int{},
		Authors:   AuthorCounts{},
		Numbers:   []int{},
	}
}

// Add appends a pull request to every sequence and counts its author.
func (c *Collection) Add(pr PullRequest) {
	c.Additions = append(c.Additions, pr.Additions)
	c.Deletions = append(c.Deletions, pr.Deletions)
	c.Comments = append(c.Comments, pr.TotalComments())
	c.Commits = append(c.Commits, pr.Commits)
	c.Numbers = append(c.Numbers, pr.Number)
	c.Authors.Increment(pr.Author)
}

// Len returns the number of pull requests collected.
func (c *Collection) Len() int {
	return len(c.Additions)
}

// Series returns the numeric sequences in a stable order.
func (c *Collection) Series() []Series {
	return []Series{
		{Name: FieldAdditions, Values: c.Additions},
		{Name: FieldDeletions, Values: c.Deletions},
		{Name: FieldComments, Values: c.Comments},
		{Name: FieldCommits, Values: c.Commits},
	}
}

// Percentiles maps a percentile label ("25", "50", ...) to its truncated value.
type Percentiles map[string]int

// Summary holds the percentile statistics of every numeric field and the
// author counts passed through unchanged.
type Summary struct {
	Percentiles map[string]Percentiles
	Authors     map[string]int
}

// MarshalJSON flattens the summary into one object: each numeric field maps to
// its percentiles and FieldAuthors maps to the author counts.
func (s Summary) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Percentiles)+1)
	for field, p := range s.Percentiles {
		out[field] = p
	}
	authors := s.Authors
	if authors == nil {
		authors = map[string]int{}
	}
	out[FieldAuthors] = authors
	return json.Marshal(out)
}
