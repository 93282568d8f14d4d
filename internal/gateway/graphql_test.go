package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/prstats/internal/domain"
)

func TestGraphQLGateway_GetPullRequest(t *testing.T) {
	testCases := []struct {
		name           string
		responseBody   string
		expected       domain.PullRequest
		expectNotFound bool
		expectError    bool
		expectedErrMsg string
	}{
		{
			name: "happy path - sums review thread comments",
			responseBody: `{"data":{"repository":{"pullRequest":{"number":4,"additions":10,"deletions":2,` +
				`"author":{"login":"alice"},"commits":{"totalCount":3},"comments":{"totalCount":1},` +
				`"reviewThreads":{"nodes":[{"comments":{"totalCount":2}},{"comments":{"totalCount":1}}]}}}}}`,
			expected: domain.PullRequest{Number: 4, Additions: 10, Deletions: 2, Comments: 1, ReviewComments: 3, Commits: 3, Author: "alice"},
		},
		{
			name: "deleted author - reported as ghost",
			responseBody: `{"data":{"repository":{"pullRequest":{"number":4,"additions":1,"deletions":0,` +
				`"author":null,"commits":{"totalCount":1},"comments":{"totalCount":0},` +
				`"reviewThreads":{"pageInfo":{"hasNextPage":false,"endCursor":null},"nodes":[]}}}}}`,
			expected: domain.PullRequest{Number: 4, Additions: 1, Commits: 1, Author: "ghost"},
		},
		{
			name: "not found - returns the sentinel",
			responseBody: `{"data":{"repository":{"pullRequest":null}},"errors":[{"type":"NOT_FOUND",` +
				`"path":["repository","pullRequest"],"message":"Could not resolve to a PullRequest with the number of 4."}]}`,
			expectNotFound: true,
		},
		{
			name: "error case - missing repository is fatal",
			responseBody: `{"data":{"repository":null},"errors":[{"type":"NOT_FOUND",` +
				`"path":["repository"],"message":"Could not resolve to a Repository with the name 'octo/hello'."}]}`,
			expectError:    true,
			expectedErrMsg: "failed to execute GraphQL query",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				assert.Contains(t, string(body), "pullRequest(number: $number)")

				w.WriteHeader(http.StatusOK)
				fmt.Fprint(w, tc.responseBody)
			}
			gateway, server := setupTestGraphQLGateway(t, http.HandlerFunc(handler))
			defer server.Close()

			pr, err := gateway.GetPullRequest(context.Background(), "octo", "hello", 4)
			switch {
			case tc.expectNotFound:
				assert.ErrorIs(t, err, domain.ErrPullRequestNotFound)
			case tc.expectError:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrPullRequestNotFound)
				assert.Contains(t, err.Error(), tc.expectedErrMsg)
			default:
				assert.NoError(t, err)
				assert.Equal(t, tc.expected, pr)
			}
		})
	}
}

func TestGraphQLGateway_GetPullRequest_ReviewThreadPages(t *testing.T) {
	pages := []string{
		`{"data":{"repository":{"pullRequest":{"number":4,"additions":10,"deletions":2,` +
			`"author":{"login":"alice"},"commits":{"totalCount":3},"comments":{"totalCount":1},` +
			`"reviewThreads":{"pageInfo":{"hasNextPage":true,"endCursor":"Y3Vyc29yOjEwMA=="},` +
			`"nodes":[{"comments":{"totalCount":2}},{"comments":{"totalCount":1}}]}}}}}`,
		`{"data":{"repository":{"pullRequest":{"number":4,"additions":10,"deletions":2,` +
			`"author":{"login":"alice"},"commits":{"totalCount":3},"comments":{"totalCount":1},` +
			`"reviewThreads":{"pageInfo":{"hasNextPage":false,"endCursor":"Y3Vyc29yOjEwMQ=="},` +
			`"nodes":[{"comments":{"totalCount":4}}]}}}}}`,
	}
	var cursors []interface{}
	handler := func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Variables map[string]interface{} `json:"variables"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cursors = append(cursors, req.Variables["threadCursor"])
		require.LessOrEqual(t, len(cursors), len(pages))

		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, pages[len(cursors)-1])
	}
	gateway, server := setupTestGraphQLGateway(t, http.HandlerFunc(handler))
	defer server.Close()

	pr, err := gateway.GetPullRequest(context.Background(), "octo", "hello", 4)
	require.NoError(t, err)
	assert.Equal(t, domain.PullRequest{Number: 4, Additions: 10, Deletions: 2, Comments: 1, ReviewComments: 7, Commits: 3, Author: "alice"}, pr)
	assert.Equal(t, []interface{}{nil, "Y3Vyc29yOjEwMA=="}, cursors)
}
