package usecase

import (
	"iter"

	"github.com/naka-gawa/prstats/internal/domain"
)

// Aggregate consumes the sequence in a single pass and builds a Collection.
// It stops at the first error in the sequence and returns it.
func Aggregate(pulls iter.Seq2[domain.PullRequest, error]) (*domain.Collection, error) {
	coll := domain.NewCollection()
	for pr, err := range pulls {
		if err != nil {
			return nil, err
		}
		coll.Add(pr)
	}
	return coll, nil
}
