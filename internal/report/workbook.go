package report

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/naka-gawa/prstats/internal/domain"
)

const (
	workbookFileName = "report.xlsx"

	pullRequestsSheet = "pull_requests"
	authorsSheet      = "authors"
	percentilesSheet  = "percentiles"

	chartRowSpan = 16
)

// writeWorkbook writes the raw sequences, author counts and percentiles to an
// Excel workbook with a native chart per sheet series.
func writeWorkbook(path string, repo domain.Repository, coll *domain.Collection, summary domain.Summary) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", cerr)
		}
	}()

	if err := f.SetSheetName("Sheet1", pullRequestsSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, sheet := range []string{authorsSheet, percentilesSheet} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
		}
	}

	if err := writePullRequestsSheet(f, repo, coll); err != nil {
		return err
	}
	if err := writeAuthorsSheet(f, repo, coll.Authors); err != nil {
		return err
	}
	if err := writePercentilesSheet(f, summary); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func writePullRequestsSheet(f *excelize.File, repo domain.Repository, coll *domain.Collection) error {
	series := coll.Series()
	header := []interface{}{"index", "number"}
	for _, s := range series {
		header = append(header, s.Name)
	}
	if err := f.SetSheetRow(pullRequestsSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	n := coll.Len()
	for i := 0; i < n; i++ {
		row := []interface{}{i, ""}
		if i < len(coll.Numbers) {
			row[1] = coll.Numbers[i]
		}
		for _, s := range series {
			row = append(row, s.Values[i])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(pullRequestsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	if n == 0 {
		return nil
	}

	for j, s := range series {
		col, err := excelize.ColumnNumberToName(j + 3)
		if err != nil {
			return err
		}
		anchor, err := excelize.CoordinatesToCellName(len(header)+2, j*chartRowSpan+2)
		if err != nil {
			return err
		}
		chart := &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$1", pullRequestsSheet, col),
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", pullRequestsSheet, n+1),
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", pullRequestsSheet, col, col, n+1),
			}},
			Title: []excelize.RichTextRun{{Text: fmt.Sprintf("%s %s", repo.Slug(), s.Name)}},
		}
		if err := f.AddChart(pullRequestsSheet, anchor, chart); err != nil {
			return fmt.Errorf("failed to add %s chart: %w", s.Name, err)
		}
	}
	return nil
}

func writeAuthorsSheet(f *excelize.File, repo domain.Repository, authors domain.AuthorCounts) error {
	if err := f.SetSheetRow(authorsSheet, "A1", &[]interface{}{"login", "pr_count"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	logins := authors.Logins()
	for i, login := range logins {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(authorsSheet, cell, &[]interface{}{login, authors[login]}); err != nil {
			return fmt.Errorf("failed to write author %s: %w", login, err)
		}
	}
	if len(logins) == 0 {
		return nil
	}

	last := len(logins) + 1
	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", authorsSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", authorsSheet, last),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", authorsSheet, last),
		}},
		Title: []excelize.RichTextRun{{Text: fmt.Sprintf("%s %s", repo.Slug(), authorsPlotName)}},
	}
	if err := f.AddChart(authorsSheet, "D2", chart); err != nil {
		return fmt.Errorf("failed to add author chart: %w", err)
	}
	return nil
}

func writePercentilesSheet(f *excelize.File, summary domain.Summary) error {
	labels := percentileLabels(summary)
	header := []interface{}{"field"}
	for _, label := range labels {
		header = append(header, label)
	}
	if err := f.SetSheetRow(percentilesSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	fields := make([]string, 0, len(summary.Percentiles))
	for field := range summary.Percentiles {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for i, field := range fields {
		row := []interface{}{field}
		for _, label := range labels {
			row = append(row, summary.Percentiles[field][label])
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(percentilesSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write percentiles of %s: %w", field, err)
		}
	}
	return nil
}

// percentileLabels returns the labels used in summary in ascending numeric order.
func percentileLabels(summary domain.Summary) []string {
	seen := map[string]bool{}
	var labels []string
	for _, p := range summary.Percentiles {
		for label := range p {
			if !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	sort.Slice(labels, func(i, j int) bool {
		a, _ := strconv.Atoi(labels[i])
		b, _ := strconv.Atoi(labels[j])
		return a < b
	})
	return labels
}
