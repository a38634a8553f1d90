package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"brcstats/internal/pages"
	"brcstats/internal/reports"
	"brcstats/internal/stats"
	"brcstats/internal/timeframe"
)

var (
	summaryOutput string
	summaryHTML   bool

	summaryCmd = &cobra.Command{
		Use:   "summary",
		Short: "Build the month-over-month traffic summary",
		Long: `Reads every monthly top-pages export in the data directory, rolls the
content pages up by organism community using the taxonomy cache, and
writes the monthly summary report.`,
		RunE: runSummary,
	}
)

func init() {
	summaryCmd.Flags().StringVar(&summaryOutput, "output", "", "report file (default: monthly-summary.txt in the reports dir)")
	summaryCmd.Flags().BoolVar(&summaryHTML, "html", false, "also write an HTML rendition")
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	files, err := exportFiles(cfg.DataDirectory)
	if err != nil {
		return err
	}

	type monthFile struct {
		month timeframe.Month
		path  string
	}
	var monthFiles []monthFile
	for _, file := range files {
		month, ok := timeframe.MonthFromFilename(filepath.Base(file))
		if !ok {
			continue
		}
		monthFiles = append(monthFiles, monthFile{month: month, path: file})
	}
	if len(monthFiles) == 0 {
		return fmt.Errorf("no monthly exports in %s", cfg.DataDirectory)
	}
	sort.Slice(monthFiles, func(i, j int) bool {
		return monthFiles[i].month.Before(monthFiles[j].month)
	})

	snap := loadSnapshot(cfg.CacheDirectory, logger)
	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	taxLineage := func(id string) string { return snap.LineageForTaxon(id) }
	asmLineage := func(id string) string { return snap.LineageForAssembly(id) }

	var months []reports.MonthData
	for _, mf := range monthFiles {
		rows, err := pages.ReadFile(mf.path, logger)
		if err != nil {
			return err
		}
		s := stats.Collect(rows)
		months = append(months, reports.MonthData{
			Month:                 mf.month,
			Stats:                 s,
			OrganismsByCommunity:  stats.RollupByCommunity(s.Organisms, taxLineage, classifier),
			AssembliesByCommunity: stats.RollupByCommunity(s.Assemblies, asmLineage, classifier),
			WorkflowsByCommunity:  stats.RollupWorkflowsByCommunity(s.Workflows, asmLineage, classifier),
		})
	}
	logger.Info("Processed monthly exports", slog.Int("months", len(months)))

	output := summaryOutput
	if output == "" {
		output = filepath.Join(cfg.ReportsDirectory, "monthly-summary.txt")
	}

	var buf bytes.Buffer
	if err := reports.WriteMonthlySummary(&buf, months, time.Now()); err != nil {
		return err
	}
	if err := writeReport(output, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("Wrote monthly summary", slog.String("file", output))

	if summaryHTML {
		html, err := reports.RenderSummaryHTML(months, time.Now())
		if err != nil {
			return err
		}
		htmlPath := strings.TrimSuffix(output, ".txt") + ".html"
		if err := writeReport(htmlPath, html); err != nil {
			return err
		}
		logger.Info("Wrote HTML monthly summary", slog.String("file", htmlPath))
	}
	return nil
}
