// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/naka-gawa/prstats/internal/domain"
)

// API backends accepted by New.
const (
	APIREST    = "rest"
	APIGraphQL = "graphql"
)

// PullRequestGetter fetches a single pull request by number.
// A missing number must be reported as domain.ErrPullRequestNotFound.
type PullRequestGetter interface {
	GetPullRequest(ctx context.Context, org, repo string, number int) (domain.PullRequest, error)
}

// Options configures the connection to GitHub.
type Options struct {
	Token string
	// BaseURL is the GitHub Enterprise host URL. Empty means github.com.
	BaseURL string
	API     string
}

// GitHubGateway fetches pull requests through the REST API.
type GitHubGateway struct {
	restClient *github.Client
	logger     logrus.FieldLogger
}

// New returns the gateway for the backend selected in opts.
func New(opts Options, logger logrus.FieldLogger) (PullRequestGetter, error) {
	switch opts.API {
	case "", APIREST:
		g, err := NewGitHubGateway(opts, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	case APIGraphQL:
		g, err := NewGraphQLGateway(opts, logger)
		if err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("unknown API backend %q", opts.API)
	}
}

// NewGitHubGateway is a constructor that creates a new REST backed gateway.
func NewGitHubGateway(opts Options, logger logrus.FieldLogger) (*GitHubGateway, error) {
	httpClient, err := newHTTPClient(opts.Token)
	if err != nil {
		return nil, err
	}
	client := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		client, err = client.WithEnterpriseURLs(opts.BaseURL, opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to configure enterprise URL %q: %w", opts.BaseURL, err)
		}
	}
	return &GitHubGateway{
		restClient: client,
		logger:     logger,
	}, nil
}

// newHTTPClient builds the shared transport: secondary rate limit waiting,
// plus token authentication when a token is configured.
func newHTTPClient(token string) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	if token == "" {
		return &http.Client{Transport: rateLimitWaiter}, nil
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}, nil
}

// GetPullRequest fetches one pull request. A 404 maps to domain.ErrPullRequestNotFound.
func (g *GitHubGateway) GetPullRequest(ctx context.Context, org, repo string, number int) (domain.PullRequest, error) {
	pr, resp, err := g.restClient.PullRequests.Get(ctx, org, repo, number)
	if err != nil {
		if isNotFound(resp, err) {
			return domain.PullRequest{}, domain.ErrPullRequestNotFound
		}
		return domain.PullRequest{}, fmt.Errorf("failed to get pull request %s/%s#%d: %w", org, repo, number, err)
	}
	g.logger.WithField("number", number).Debug("fetched pull request")
	return domain.PullRequest{
		Number:         pr.GetNumber(),
		Additions:      pr.GetAdditions(),
		Deletions:      pr.GetDeletions(),
		Comments:       pr.GetComments(),
		ReviewComments: pr.GetReviewComments(),
		Commits:        pr.GetCommits(),
		Author:         pr.GetUser().GetLogin(),
	}, nil
}

func isNotFound(resp *github.Response, err error) bool {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return true
	}
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}

// graphqlEndpoint derives the GraphQL endpoint of an Enterprise host.
func graphqlEndpoint(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	base = strings.TrimSuffix(base, "/api/v3")
	return base + "/api/graphql"
}
