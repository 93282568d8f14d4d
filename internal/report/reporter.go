// Package report renders analysis results to the output directory:
// charts, the JSON percentile summary and an optional Excel workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/naka-gawa/prstats/internal/domain"
)

const (
	plotsDirName     = "plots"
	statsFileName    = "stats.txt"
	authorsPlotName  = "pr_count"
	plotWidth        = 6 * vg.Inch
	plotHeight       = 4 * vg.Inch
	barWidth         = 20
	indexAxisLabel   = "PR Number"
	authorsAxisLabel = "PR Count"
)

// FileReporter writes the results of each repository under
// <root>/<org>/<repo>/.
type FileReporter struct {
	root     string
	workbook bool
	logger   logrus.FieldLogger
}

// NewFileReporter creates a reporter rooted at root. When workbook is true an
// Excel workbook is written next to stats.txt.
func NewFileReporter(root string, workbook bool, logger logrus.FieldLogger) *FileReporter {
	return &FileReporter{
		root:     root,
		workbook: workbook,
		logger:   logger,
	}
}

// Dir returns the output directory of repo.
func (r *FileReporter) Dir(repo domain.Repository) string {
	return filepath.Join(r.root, repo.Org, repo.Name)
}

func (r *FileReporter) plotPath(repo domain.Repository, name string) string {
	return filepath.Join(r.Dir(repo), plotsDirName, name+".png")
}

// Prepare creates <root>/<org>/<repo>/plots. Existing directories are fine.
func (r *FileReporter) Prepare(repo domain.Repository) error {
	dir := filepath.Join(r.Dir(repo), plotsDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}
	return nil
}

// Plot writes one line chart per numeric field and a bar chart of the
// pull request count per author.
func (r *FileReporter) Plot(repo domain.Repository, coll *domain.Collection) error {
	for _, series := range coll.Series() {
		r.logger.WithField("repo", repo.Slug()).Debugf("making plot for %s", series.Name)
		p, err := lineChart(fmt.Sprintf("%s %s", repo.Slug(), series.Name), series.Name, series.Values)
		if err != nil {
			return err
		}
		if err := save(p, r.plotPath(repo, series.Name)); err != nil {
			return err
		}
	}

	r.logger.WithField("repo", repo.Slug()).Debugf("making plot for %s", authorsPlotName)
	p, err := barChart(fmt.Sprintf("%s %s", repo.Slug(), authorsPlotName), coll.Authors)
	if err != nil {
		return err
	}
	return save(p, r.plotPath(repo, authorsPlotName))
}

// WriteSummary writes stats.txt and, when enabled, report.xlsx.
func (r *FileReporter) WriteSummary(repo domain.Repository, coll *domain.Collection, summary domain.Summary) error {
	data, err := json.MarshalIndent(summary, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal summary to JSON: %w", err)
	}
	path := filepath.Join(r.Dir(repo), statsFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	if !r.workbook {
		return nil
	}
	return writeWorkbook(filepath.Join(r.Dir(repo), workbookFileName), repo, coll, summary)
}

// lineChart plots values against their arrival index.
func lineChart(title, field string, values []int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = indexAxisLabel
	p.Y.Label.Text = field
	if len(values) == 0 {
		return p, nil
	}

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = float64(v)
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s line: %w", field, err)
	}
	p.Add(line)
	return p, nil
}

// barChart plots one bar per author, ordered by login.
func barChart(title string, authors domain.AuthorCounts) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.Y.Label.Text = authorsAxisLabel
	if len(authors) == 0 {
		return p, nil
	}

	logins := authors.Logins()
	counts := make(plotter.Values, len(logins))
	for i, login := range logins {
		counts[i] = float64(authors[login])
	}
	bars, err := plotter.NewBarChart(counts, vg.Points(barWidth))
	if err != nil {
		return nil, fmt.Errorf("failed to build author bars: %w", err)
	}
	p.Add(bars)
	p.NominalX(logins...)
	return p, nil
}

func save(p *plot.Plot, path string) error {
	if err := p.Save(plotWidth, plotHeight, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}
