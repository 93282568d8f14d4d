package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/prstats/internal/domain"
)

// ghostLogin is the account GitHub substitutes for deleted users.
const ghostLogin = "ghost"

// GraphQLGateway fetches pull requests through the GraphQL API.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        logrus.FieldLogger
}

// pullRequestQuery fetches the counters of a single pull request together
// with one page of its review threads.
type pullRequestQuery struct {
	Repository struct {
		PullRequest *struct {
			Number    int
			Additions int
			Deletions int
			Author    struct {
				Login string
			}
			Commits struct {
				TotalCount int
			}
			Comments struct {
				TotalCount int
			}
			ReviewThreads struct {
				PageInfo struct {
					HasNextPage bool
					EndCursor   githubv4.String
				}
				Nodes []struct {
					Comments struct {
						TotalCount int
					}
				}
			} `graphql:"reviewThreads(first: 100, after: $threadCursor)"`
		} `graphql:"pullRequest(number: $number)"`
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQL backed gateway.
func NewGraphQLGateway(opts Options, logger logrus.FieldLogger) (*GraphQLGateway, error) {
	httpClient, err := newHTTPClient(opts.Token)
	if err != nil {
		return nil, err
	}
	client := githubv4.NewClient(httpClient)
	if opts.BaseURL != "" {
		client = githubv4.NewEnterpriseClient(graphqlEndpoint(opts.BaseURL), httpClient)
	}
	return &GraphQLGateway{
		graphqlClient: client,
		logger:        logger,
	}, nil
}

// GetPullRequest fetches one pull request. An unresolvable number maps to
// domain.ErrPullRequestNotFound. Review comments are summed over every page
// of review threads.
func (g *GraphQLGateway) GetPullRequest(ctx context.Context, org, repo string, number int) (domain.PullRequest, error) {
	variables := map[string]interface{}{
		"owner":        githubv4.String(org),
		"name":         githubv4.String(repo),
		"number":       githubv4.Int(number),
		"threadCursor": (*githubv4.String)(nil),
	}
	logger := g.logger.WithField("number", number)

	var result domain.PullRequest
	for page := 0; ; page++ {
		var q pullRequestQuery
		err := g.graphqlClient.Query(ctx, &q, variables)
		if q.Repository.PullRequest == nil {
			if page == 0 && (err == nil || isGraphQLNotFound(err)) {
				return domain.PullRequest{}, domain.ErrPullRequestNotFound
			}
			if err == nil {
				err = errors.New("pull request disappeared while paging review threads")
			}
			return domain.PullRequest{}, fmt.Errorf("failed to execute GraphQL query for %s/%s#%d: %w", org, repo, number, err)
		}
		if err != nil {
			return domain.PullRequest{}, fmt.Errorf("failed to execute GraphQL query for %s/%s#%d: %w", org, repo, number, err)
		}

		pr := q.Repository.PullRequest
		if page == 0 {
			result = domain.PullRequest{
				Number:    pr.Number,
				Additions: pr.Additions,
				Deletions: pr.Deletions,
				Comments:  pr.Comments.TotalCount,
				Commits:   pr.Commits.TotalCount,
				Author:    authorLogin(pr.Author.Login),
			}
		}
		for _, thread := range pr.ReviewThreads.Nodes {
			result.ReviewComments += thread.Comments.TotalCount
		}
		if !pr.ReviewThreads.PageInfo.HasNextPage {
			break
		}
		variables["threadCursor"] = githubv4.NewString(pr.ReviewThreads.PageInfo.EndCursor)
		logger.WithField("page", page+1).Debug("fetching next page of review threads")
	}
	logger.Debug("fetched pull request")
	return result, nil
}

// authorLogin maps the null author of a deleted account to the placeholder
// login the REST API reports for it.
func authorLogin(login string) string {
	if login == "" {
		return ghostLogin
	}
	return login
}

// isGraphQLNotFound reports whether err is the NOT_FOUND error GitHub returns
// for a pull request number that does not exist.
func isGraphQLNotFound(err error) bool {
	return strings.Contains(err.Error(), "Could not resolve to a PullRequest")
}
