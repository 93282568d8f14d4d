package usecase

import (
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
	"github.com/sirupsen/logrus"

	"github.com/naka-gawa/prstats/internal/domain"
)

// SummaryPercentiles are the percentiles reported for every numeric field.
var SummaryPercentiles = []int{25, 50, 75, 90, 95}

// Summarizer computes percentile statistics over a Collection.
type Summarizer struct {
	logger logrus.FieldLogger
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(logger logrus.FieldLogger) *Summarizer {
	return &Summarizer{logger: logger}
}

// Summarize computes the percentiles of each numeric field and copies the
// author counts. An empty field reports zero for every percentile.
func (s *Summarizer) Summarize(coll *domain.Collection) domain.Summary {
	summary := domain.Summary{
		Percentiles: make(map[string]domain.Percentiles, 4),
		Authors:     make(map[string]int, len(coll.Authors)),
	}
	for _, series := range coll.Series() {
		data := stats.LoadRawData(series.Values)
		summary.Percentiles[series.Name] = percentiles(data)
		s.logDistribution(series.Name, data)
	}
	for login, count := range coll.Authors {
		summary.Authors[login] = count
	}
	return summary
}

func (s *Summarizer) logDistribution(field string, data stats.Float64Data) {
	if data.Len() == 0 {
		s.logger.WithField("field", field).Debug("no values to summarize")
		return
	}
	mean, _ := data.Mean()
	median, _ := data.Median()
	maxValue, _ := data.Max()
	s.logger.WithFields(logrus.Fields{
		"field":  field,
		"mean":   mean,
		"median": median,
		"max":    maxValue,
	}).Debug("summarized field")
}

func percentiles(data stats.Float64Data) domain.Percentiles {
	sorted := make(stats.Float64Data, data.Len())
	copy(sorted, data)
	sort.Sort(sorted)

	out := make(domain.Percentiles, len(SummaryPercentiles))
	for _, p := range SummaryPercentiles {
		value := 0
		if sorted.Len() > 0 {
			value = int(interpolatedPercentile(sorted, float64(p)))
		}
		out[strconv.Itoa(p)] = value
	}
	return out
}

// interpolatedPercentile interpolates linearly between the closest ranks of
// sorted, placing rank p/100*(n-1). Fractions of at least one half are
// measured back from the upper rank so exact results do not truncate one low.
// sorted must not be empty.
func interpolatedPercentile(sorted stats.Float64Data, p float64) float64 {
	rank := p / 100 * float64(len(sorted)-1)
	lower := math.Floor(rank)
	upper := math.Min(lower+1, float64(len(sorted)-1))
	lo, hi := sorted[int(lower)], sorted[int(upper)]
	if lo == hi {
		return lo
	}
	t := rank - lower
	// The explicit conversions keep each product rounded on its own.
	if t >= 0.5 {
		return hi - float64((hi-lo)*(1-t))
	}
	return lo + float64((hi-lo)*t)
}
