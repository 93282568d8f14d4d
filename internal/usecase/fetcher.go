// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"iter"

	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/prstats/internal/domain"
	"github.com/naka-gawa/prstats/internal/gateway"
)

// DefaultFaultTolerance is the number of missing pull request numbers
// the Fetcher skips before it stops probing.
const DefaultFaultTolerance = 1

// Fetcher walks pull request numbers sequentially starting at 1.
type Fetcher struct {
	getter         gateway.PullRequestGetter
	faultTolerance int
	logger         logrus.FieldLogger
}

// NewFetcher creates a new Fetcher. A negative fault tolerance is treated as zero.
func NewFetcher(getter gateway.PullRequestGetter, faultTolerance int, logger logrus.FieldLogger) *Fetcher {
	if faultTolerance < 0 {
		faultTolerance = 0
	}
	return &Fetcher{
		getter:         getter,
		faultTolerance: faultTolerance,
		logger:         logger,
	}
}

// Pulls returns a lazy sequence of the repository's pull requests in ascending
// number order. Each step looks up exactly one number. A missing number consumes
// one unit of the fault tolerance budget, which is never refilled; the sequence
// ends at the first miss once the budget is spent. Any other gateway error is
// yielded once and ends the sequence.
func (f *Fetcher) Pulls(ctx context.Context, repo domain.Repository) iter.Seq2[domain.PullRequest, error] {
	return func(yield func(domain.PullRequest, error) bool) {
		budget := f.faultTolerance
		for number := 1; ; number++ {
			pr, err := f.getter.GetPullRequest(ctx, repo.Org, repo.Name, number)
			switch {
			case err == nil:
				if !yield(pr, nil) {
					return
				}
			case errors.Is(err, domain.ErrPullRequestNotFound):
				if budget == 0 {
					f.logger.WithField("number", number).Debug("pull request missing and no tolerance left, stopping")
					return
				}
				budget--
				f.logger.WithFields(logrus.Fields{"number": number, "remaining_tolerance": budget}).Debug("skipping missing pull request")
			default:
				yield(domain.PullRequest{}, err)
				return
			}
		}
	}
}
