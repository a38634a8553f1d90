package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"brcstats/internal/community"
	"brcstats/internal/config"
	"brcstats/internal/logging"
	"brcstats/internal/ncbi"
	"brcstats/internal/pages"
	"brcstats/internal/plausible"
	"brcstats/internal/taxonomy"
)

func setup() (*config.Config, *slog.Logger) {
	cfg := config.GetConfig()
	return cfg, logging.Setup(cfg)
}

func newClassifier(cfg *config.Config) (*community.Classifier, error) {
	if cfg.CommunityTablePath == "" {
		return community.Default(), nil
	}
	table, err := community.LoadTable(cfg.CommunityTablePath)
	if err != nil {
		return nil, err
	}
	return community.New(table), nil
}

func newNCBIClient(cfg *config.Config, logger *slog.Logger) *ncbi.Client {
	return ncbi.NewClient(ncbi.Config{
		EutilsBaseURL:   cfg.EutilsBaseURL,
		DatasetsBaseURL: cfg.DatasetsBaseURL,
		MinInterval:     time.Duration(cfg.LookupIntervalMs) * time.Millisecond,
	}, logger)
}

func newPlausibleClient(cfg *config.Config, logger *slog.Logger) (*plausible.Client, error) {
	if cfg.PlausibleAPIKey == "" || cfg.PlausibleSiteID == "" {
		return nil, errors.New("PLAUSIBLE_API_KEY and PLAUSIBLE_SITE_ID must be set")
	}
	return plausible.NewClient(cfg.PlausibleBaseURL, cfg.PlausibleAPIKey, cfg.PlausibleSiteID, logger), nil
}

// exportFiles lists the top-pages export files under the data directory.
func exportFiles(dataDir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dataDir, "top-pages-*.tab"))
	if err != nil {
		return nil, fmt.Errorf("scanning data dir %s: %w", dataDir, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// latestExport returns the most recently modified export file.
func latestExport(dataDir string) (string, error) {
	files, err := exportFiles(dataDir)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no top-pages exports in %s", dataDir)
	}

	newest := files[0]
	var newestMod time.Time
	for _, f := range files {
		info, err := os.Stat(f)
		if err != nil {
			continue
		}
		if info.ModTime().After(newestMod) {
			newest = f
			newestMod = info.ModTime()
		}
	}
	return newest, nil
}

// scanIdentifiers collects the unique tax IDs and assembly IDs referenced
// by all export files, sorted for stable hashing.
func scanIdentifiers(dataDir string, logger *slog.Logger) (taxIDs, assemblyIDs []string, err error) {
	files, err := exportFiles(dataDir)
	if err != nil {
		return nil, nil, err
	}

	taxSet := make(map[string]bool)
	asmSet := make(map[string]bool)
	for _, file := range files {
		rows, err := pages.ReadFile(file, logger)
		if err != nil {
			return nil, nil, err
		}
		for _, row := range rows {
			cat := pages.Classify(row.URL)
			switch cat.Kind {
			case pages.KindOrganism:
				taxSet[cat.TaxID] = true
			case pages.KindAssembly, pages.KindWorkflow:
				asmSet[cat.AssemblyID] = true
			}
		}
	}

	for id := range taxSet {
		taxIDs = append(taxIDs, id)
	}
	for id := range asmSet {
		assemblyIDs = append(assemblyIDs, id)
	}
	sort.Strings(taxIDs)
	sort.Strings(assemblyIDs)
	return taxIDs, assemblyIDs, nil
}

// loadSnapshot reads the latest taxonomy cache. Cache problems degrade to
// an empty snapshot (reports render Unknown) rather than aborting; the
// cache is enrichment, not required input.
func loadSnapshot(cacheDir string, logger *slog.Logger) *taxonomy.Snapshot {
	store, err := taxonomy.NewStore(cacheDir, logger)
	if err != nil {
		logger.Warn("Taxonomy cache unavailable, names will be Unknown", slog.Any("error", err))
		return taxonomy.NewSnapshot()
	}
	snap, err := store.Load("")
	if err != nil {
		logger.Warn("Taxonomy cache unreadable, names will be Unknown", slog.Any("error", err))
		return taxonomy.NewSnapshot()
	}
	return snap
}

func writeReport(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating report dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
