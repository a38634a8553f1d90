// Package pages parses analytics export files and classifies page URLs
// into the site's page categories.
package pages

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Row is one line of a top-pages export: a page URL with its visit metrics
// for the export's time window.
type Row struct {
	URL        string
	Visitors   int
	Pageviews  int
	BounceRate *int // percent, nil when the export has "-"
	TimeOnPage *int // seconds, nil when the export has "-"
}

var (
	minutesRe = regexp.MustCompile(`(\d+)m`)
	secondsRe = regexp.MustCompile(`(\d+)s`)
)

// ParseTimeOnPage converts a duration string like "7m 38s" or "17s" to
// seconds. "-" and the empty string mean the metric is missing.
func ParseTimeOnPage(s string) *int {
	if s == "" || s == "-" {
		return nil
	}

	total := 0
	matched := false
	if m := minutesRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n * 60
		matched = true
	}
	if m := secondsRe.FindStringSubmatch(s); m != nil {
		n, _ := strconv.Atoi(m[1])
		total += n
		matched = true
	}
	if !matched {
		return nil
	}
	return &total
}

// ParseBounceRate converts a bounce rate string like "42%" to an integer
// percentage. "-" and the empty string mean the metric is missing.
func ParseBounceRate(s string) *int {
	if s == "" || s == "-" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "%"))
	if err != nil {
		return nil
	}
	return &n
}

// ParseRow parses one tab-separated export line. It returns an error for
// rows that cannot be salvaged (wrong column count, non-numeric counts);
// callers skip such rows instead of aborting.
func ParseRow(line string) (Row, error) {
	parts := strings.Split(line, "\t")
	if len(parts) < 5 {
		return Row{}, fmt.Errorf("expected 5 columns, got %d", len(parts))
	}

	visitors, err := strconv.Atoi(parts[1])
	if err != nil {
		return Row{}, fmt.Errorf("invalid visitors %q: %w", parts[1], err)
	}
	pageviews, err := strconv.Atoi(parts[2])
	if err != nil {
		return Row{}, fmt.Errorf("invalid pageviews %q: %w", parts[2], err)
	}
	if visitors < 0 || pageviews < 0 {
		return Row{}, fmt.Errorf("negative counts in row for %s", parts[0])
	}

	return Row{
		URL:        parts[0],
		Visitors:   visitors,
		Pageviews:  pageviews,
		BounceRate: ParseBounceRate(parts[3]),
		TimeOnPage: ParseTimeOnPage(parts[4]),
	}, nil
}

// ReadRows reads a tab-separated export (one header row, then data rows).
// Malformed rows are skipped row-by-row and logged at debug level.
func ReadRows(r io.Reader, logger *slog.Logger) ([]Row, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var rows []Row
	first := true
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if first {
			first = false // header
			continue
		}
		if line == "" {
			continue
		}

		row, err := ParseRow(line)
		if err != nil {
			if logger != nil {
				logger.Debug("Skipping malformed export row", slog.Any("error", err))
			}
			continue
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return rows, fmt.Errorf("reading export: %w", err)
	}
	return rows, nil
}

// ReadFile reads a top-pages export file.
func ReadFile(path string, logger *slog.Logger) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export %s: %w", path, err)
	}
	defer f.Close()
	return ReadRows(f, logger)
}
