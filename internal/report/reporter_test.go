package report

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/naka-gawa/prstats/internal/domain"
)

var testRepo = domain.Repository{Org: "octo", Name: "hello"}

func newTestReporter(t *testing.T, workbook bool) (*FileReporter, string) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	root := t.TempDir()
	return NewFileReporter(root, workbook, logger), root
}

func singlePRCollection() *domain.Collection {
	coll := domain.NewCollection()
	coll.Add(domain.PullRequest{Number: 1, Additions: 10, Deletions: 2, Comments: 3, Commits: 1, Author: "alice"})
	return coll
}

func singlePRSummary() domain.Summary {
	return domain.Summary{
		Percentiles: map[string]domain.Percentiles{
			domain.FieldAdditions: {"25": 10, "50": 10, "75": 10, "90": 10, "95": 10},
			domain.FieldDeletions: {"25": 2, "50": 2, "75": 2, "90": 2, "95": 2},
			domain.FieldComments:  {"25": 3, "50": 3, "75": 3, "90": 3, "95": 3},
			domain.FieldCommits:   {"25": 1, "50": 1, "75": 1, "90": 1, "95": 1},
		},
		Authors: map[string]int{"alice": 1},
	}
}

const singlePRStats = `{
    "additions_count": {
        "25": 10,
        "50": 10,
        "75": 10,
        "90": 10,
        "95": 10
    },
    "comments_count": {
        "25": 3,
        "50": 3,
        "75": 3,
        "90": 3,
        "95": 3
    },
    "commits_count": {
        "25": 1,
        "50": 1,
        "75": 1,
        "90": 1,
        "95": 1
    },
    "deletions_count": {
        "25": 2,
        "50": 2,
        "75": 2,
        "90": 2,
        "95": 2
    },
    "user": {
        "alice": 1
    }
}`

func TestFileReporter_Layout(t *testing.T) {
	reporter, root := newTestReporter(t, false)
	coll := singlePRCollection()

	require.NoError(t, reporter.Prepare(testRepo))
	require.NoError(t, reporter.Plot(testRepo, coll))
	require.NoError(t, reporter.WriteSummary(testRepo, coll, singlePRSummary()))

	base := filepath.Join(root, "octo", "hello")
	for _, name := range []string{"additions_count", "deletions_count", "comments_count", "commits_count", "pr_count"} {
		info, err := os.Stat(filepath.Join(base, "plots", name+".png"))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}

	stats, err := os.ReadFile(filepath.Join(base, "stats.txt"))
	require.NoError(t, err)
	assert.Equal(t, singlePRStats, string(stats))

	assert.NoFileExists(t, filepath.Join(base, workbookFileName))
}

func TestFileReporter_Idempotent(t *testing.T) {
	reporter, root := newTestReporter(t, false)
	coll := singlePRCollection()
	statsPath := filepath.Join(root, "octo", "hello", "stats.txt")

	var outputs []string
	for i := 0; i < 2; i++ {
		require.NoError(t, reporter.Prepare(testRepo))
		require.NoError(t, reporter.Plot(testRepo, coll))
		require.NoError(t, reporter.WriteSummary(testRepo, coll, singlePRSummary()))
		data, err := os.ReadFile(statsPath)
		require.NoError(t, err)
		outputs = append(outputs, string(data))
	}
	assert.Equal(t, outputs[0], outputs[1])
}

const emptyStats = `{
    "additions_count": {
        "25": 0,
        "50": 0,
        "75": 0,
        "90": 0,
        "95": 0
    },
    "comments_count": {
        "25": 0,
        "50": 0,
        "75": 0,
        "90": 0,
        "95": 0
    },
    "commits_count": {
        "25": 0,
        "50": 0,
        "75": 0,
        "90": 0,
        "95": 0
    },
    "deletions_count": {
        "25": 0,
        "50": 0,
        "75": 0,
        "90": 0,
        "95": 0
    },
    "user": {}
}`

func TestFileReporter_EmptyCollection(t *testing.T) {
	reporter, root := newTestReporter(t, true)
	coll := domain.NewCollection()

	require.NoError(t, reporter.Prepare(testRepo))
	require.NoError(t, reporter.Plot(testRepo, coll))
	zero := domain.Percentiles{"25": 0, "50": 0, "75": 0, "90": 0, "95": 0}
	summary := domain.Summary{
		Percentiles: map[string]domain.Percentiles{
			domain.FieldAdditions: zero,
			domain.FieldDeletions: zero,
			domain.FieldComments:  zero,
			domain.FieldCommits:   zero,
		},
		Authors: map[string]int{},
	}
	require.NoError(t, reporter.WriteSummary(testRepo, coll, summary))

	base := filepath.Join(root, "octo", "hello")
	assert.FileExists(t, filepath.Join(base, "plots", "pr_count.png"))
	stats, err := os.ReadFile(filepath.Join(base, "stats.txt"))
	require.NoError(t, err)
	assert.Equal(t, emptyStats, string(stats))
	assert.FileExists(t, filepath.Join(base, workbookFileName))
}

func TestFileReporter_Workbook(t *testing.T) {
	reporter, root := newTestReporter(t, true)
	coll := singlePRCollection()
	coll.Add(domain.PullRequest{Number: 3, Additions: 4, Deletions: 1, Comments: 0, Commits: 2, Author: "bob"})

	require.NoError(t, reporter.Prepare(testRepo))
	require.NoError(t, reporter.WriteSummary(testRepo, coll, singlePRSummary()))

	f, err := excelize.OpenFile(filepath.Join(root, "octo", "hello", workbookFileName))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{pullRequestsSheet, authorsSheet, percentilesSheet}, f.GetSheetList())

	rows, err := f.GetRows(pullRequestsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"index", "number", "additions_count", "deletions_count", "comments_count", "commits_count"}, rows[0])
	assert.Equal(t, []string{"1", "3", "4", "1", "0", "2"}, rows[2])

	authors, err := f.GetRows(authorsSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"login", "pr_count"}, {"alice", "1"}, {"bob", "1"}}, authors)

	percentiles, err := f.GetRows(percentilesSheet)
	require.NoError(t, err)
	require.Len(t, percentiles, 5)
	assert.Equal(t, []string{"field", "25", "50", "75", "90", "95"}, percentiles[0])
	assert.Equal(t, []string{"additions_count", "10", "10", "10", "10", "10"}, percentiles[1])
}
