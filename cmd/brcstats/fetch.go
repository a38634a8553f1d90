package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"brcstats/internal/config"
	"brcstats/internal/plausible"
	"brcstats/internal/reports"
	"brcstats/internal/timeframe"
)

var (
	fetchPeriod string
	fetchStart  string
	fetchEnd    string
	fetchOutput string

	monthsFrom      string
	monthsTo        string
	monthsWithDemog bool

	fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Fetch analytics exports from Plausible",
	}
	fetchPagesCmd = &cobra.Command{
		Use:   "pages",
		Short: "Fetch the top-pages breakdown and write a TSV export",
		RunE:  runFetchPages,
	}
	fetchDemographicsCmd = &cobra.Command{
		Use:   "demographics",
		Short: "Fetch country, device, browser and source breakdowns",
		RunE:  runFetchDemographics,
	}
	fetchMonthsCmd = &cobra.Command{
		Use:   "months",
		Short: "Fetch one top-pages export per calendar month",
		Long: `Fetches a top-pages export for every month in the range that does not
already have one on disk. The end month defaults to the previous month,
since the current month is still incomplete.`,
		RunE: runFetchMonths,
	}
)

func init() {
	for _, cmd := range []*cobra.Command{fetchPagesCmd, fetchDemographicsCmd} {
		cmd.Flags().StringVar(&fetchPeriod, "period", "30d", "preset period (7d, 30d, 6mo, month, year)")
		cmd.Flags().StringVar(&fetchStart, "start", "", "custom range start (YYYY-MM-DD)")
		cmd.Flags().StringVar(&fetchEnd, "end", "", "custom range end (YYYY-MM-DD)")
	}
	fetchPagesCmd.Flags().StringVar(&fetchOutput, "output", "", "output file (default: derived from the range)")

	fetchMonthsCmd.Flags().StringVar(&monthsFrom, "from", "2024-10", "first month (YYYY-MM)")
	fetchMonthsCmd.Flags().StringVar(&monthsTo, "to", "", "last month (YYYY-MM, default: previous month)")
	fetchMonthsCmd.Flags().BoolVar(&monthsWithDemog, "with-demographics", false, "also fetch demographics per month")

	fetchCmd.AddCommand(fetchPagesCmd, fetchDemographicsCmd, fetchMonthsCmd)
	rootCmd.AddCommand(fetchCmd)
}

func flagDateRange() (plausible.DateRange, error) {
	if fetchStart != "" || fetchEnd != "" {
		if fetchStart == "" || fetchEnd == "" {
			return plausible.DateRange{}, errors.New("--start and --end must be used together")
		}
		return plausible.DateRange{Start: fetchStart, End: fetchEnd}, nil
	}
	return plausible.DateRange{Period: fetchPeriod}, nil
}

func runFetchPages(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()
	client, err := newPlausibleClient(cfg, logger)
	if err != nil {
		return err
	}
	dr, err := flagDateRange()
	if err != nil {
		return err
	}
	return fetchPages(cmd.Context(), cfg, logger, client, dr, fetchOutput)
}

func fetchPages(ctx context.Context, cfg *config.Config, logger *slog.Logger, client *plausible.Client, dr plausible.DateRange, output string) error {
	rows, err := client.Breakdown(ctx, plausible.PropertyPage, dr)
	if err != nil {
		return err
	}

	if output == "" {
		output = filepath.Join(cfg.DataDirectory, plausible.TopPagesFilename(dr, time.Now()))
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	var buf bytes.Buffer
	if err := plausible.WriteTopPagesTSV(&buf, rows); err != nil {
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	logger.Info("Wrote top-pages export",
		slog.String("file", output),
		slog.Int("rows", len(rows)))
	return nil
}

func runFetchDemographics(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()
	client, err := newPlausibleClient(cfg, logger)
	if err != nil {
		return err
	}
	dr, err := flagDateRange()
	if err != nil {
		return err
	}
	return fetchDemographics(cmd.Context(), cfg, logger, client, dr)
}

func fetchDemographics(ctx context.Context, cfg *config.Config, logger *slog.Logger, client *plausible.Client, dr plausible.DateRange) error {
	properties := []string{
		plausible.PropertyCountry,
		plausible.PropertyDevice,
		plausible.PropertyBrowser,
		plausible.PropertySource,
	}

	if err := os.MkdirAll(cfg.DataDirectory, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	for _, property := range properties {
		rows, err := client.Breakdown(ctx, property, dr)
		if err != nil {
			return err
		}

		switch property {
		case plausible.PropertyCountry:
			rows = reports.ResolveCountryNames(rows)
		case plausible.PropertyDevice, plausible.PropertyBrowser:
			rows = reports.TitleCaseKeys(rows)
		}

		output := filepath.Join(cfg.DataDirectory, "demographics-"+plausible.BreakdownFilename(property, dr))
		var buf bytes.Buffer
		if err := plausible.WriteBreakdownTSV(&buf, property, rows); err != nil {
			return err
		}
		if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}

		logger.Info("Wrote demographics export",
			slog.String("file", output),
			slog.Int("rows", len(rows)))
	}
	return nil
}

func runFetchMonths(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()
	client, err := newPlausibleClient(cfg, logger)
	if err != nil {
		return err
	}

	from, err := timeframe.ParseMonth(monthsFrom)
	if err != nil {
		return err
	}
	to := timeframe.MonthOf(time.Now()).Previous()
	if monthsTo != "" {
		if to, err = timeframe.ParseMonth(monthsTo); err != nil {
			return err
		}
	}

	months := timeframe.Iterate(from, to)
	if len(months) == 0 {
		return fmt.Errorf("empty month range %s to %s", from, to)
	}

	for _, month := range months {
		first, last := month.Range()
		dr := plausible.DateRange{Start: first, End: last}

		pagesFile := filepath.Join(cfg.DataDirectory, plausible.TopPagesFilename(dr, time.Now()))
		if _, err := os.Stat(pagesFile); err == nil {
			logger.Info("Export already exists, skipping", slog.String("month", month.Label()))
		} else {
			logger.Info("Fetching month", slog.String("month", month.Label()))
			if err := fetchPages(cmd.Context(), cfg, logger, client, dr, pagesFile); err != nil {
				return err
			}
		}

		if monthsWithDemog {
			countryFile := filepath.Join(cfg.DataDirectory,
				"demographics-"+plausible.BreakdownFilename(plausible.PropertyCountry, dr))
			if _, err := os.Stat(countryFile); err == nil {
				continue
			}
			if err := fetchDemographics(cmd.Context(), cfg, logger, client, dr); err != nil {
				return err
			}
		}
	}
	return nil
}
