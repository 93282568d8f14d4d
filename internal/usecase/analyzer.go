package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/prstats/internal/domain"
)

// Reporter renders the results of one repository's analysis.
type Reporter interface {
	// Prepare creates the output location of the repository.
	Prepare(repo domain.Repository) error
	// Plot renders the charts of the collection.
	Plot(repo domain.Repository, coll *domain.Collection) error
	// WriteSummary writes the percentile summary.
	WriteSummary(repo domain.Repository, coll *domain.Collection, summary domain.Summary) error
}

// AnalyzerOptions controls how multiple repositories are processed.
type AnalyzerOptions struct {
	// Parallel is the number of repositories analyzed at once. Values below 1 mean 1.
	Parallel int
	// KeepGoing continues with the remaining repositories after a failure
	// and reports all failures at the end.
	KeepGoing bool
}

// Analyzer is the use case that runs the fetch, aggregate, summarize and
// report pipeline for each repository.
type Analyzer struct {
	fetcher    *Fetcher
	summarizer *Summarizer
	reporter   Reporter
	logger     logrus.FieldLogger
	opts       AnalyzerOptions
}

// NewAnalyzer creates a new Analyzer instance.
func NewAnalyzer(fetcher *Fetcher, summarizer *Summarizer, reporter Reporter, logger logrus.FieldLogger, opts AnalyzerOptions) *Analyzer {
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}
	return &Analyzer{
		fetcher:    fetcher,
		summarizer: summarizer,
		reporter:   reporter,
		logger:     logger,
		opts:       opts,
	}
}

// Run analyzes every repository. With the default options repositories are
// processed in list order and the first failure stops the run.
func (a *Analyzer) Run(ctx context.Context, repos []domain.Repository) error {
	logger := a.logger.WithField("run_id", uuid.NewString())
	logger.WithField("repositories", len(repos)).Info("starting analysis")

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(a.opts.Parallel)

	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	for _, repo := range repos {
		eg.Go(func() error {
			// A previous repository failed; later ones are not analyzed.
			if egCtx.Err() != nil {
				return nil
			}
			_, err := a.analyze(egCtx, repo, logger)
			if err == nil {
				return nil
			}
			if !a.opts.KeepGoing {
				return err
			}
			logger.WithField("repo", repo.Slug()).WithError(err).Error("analysis failed, continuing")
			mu.Lock()
			result = multierror.Append(result, err)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	return result.ErrorOrNil()
}

// analyze runs the pipeline for a single repository and returns its summary.
func (a *Analyzer) analyze(ctx context.Context, repo domain.Repository, logger logrus.FieldLogger) (domain.Summary, error) {
	logger = logger.WithField("repo", repo.Slug())

	if err := a.reporter.Prepare(repo); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to prepare output for %s: %w", repo, err)
	}

	logger.Info("fetching PRs")
	coll, err := Aggregate(a.fetcher.Pulls(ctx, repo))
	if err != nil {
		return domain.Summary{}, fmt.Errorf("failed to fetch pull requests for %s: %w", repo, err)
	}
	logger.WithFields(logrus.Fields{"pull_requests": coll.Len(), "authors": len(coll.Authors)}).Info("fetched PRs")

	if err := a.reporter.Plot(repo, coll); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to plot %s: %w", repo, err)
	}

	summary := a.summarizer.Summarize(coll)
	if err := a.reporter.WriteSummary(repo, coll, summary); err != nil {
		return domain.Summary{}, fmt.Errorf("failed to write summary for %s: %w", repo, err)
	}
	logger.Info("completed analysis")
	return summary, nil
}
