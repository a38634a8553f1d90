package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"brcstats/internal/taxonomy"
)

var (
	refreshForce bool
	showVersion  string

	taxonomyCmd = &cobra.Command{
		Use:   "taxonomy",
		Short: "Manage the versioned taxonomy cache",
	}
	taxonomyRefreshCmd = &cobra.Command{
		Use:   "refresh",
		Short: "Resolve taxonomy for every ID referenced by the exports",
		Long: `Scans the export files for organism tax IDs and assembly accessions,
looks up whatever the cache does not already cover via NCBI, and writes a
new cache version. A cache that already covers every ID is left alone
unless --force is given.`,
		RunE: runTaxonomyRefresh,
	}
	taxonomyShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print a summary of a cache version",
		RunE:  runTaxonomyShow,
	}
)

func init() {
	taxonomyRefreshCmd.Flags().BoolVar(&refreshForce, "force", false, "re-resolve every ID, not just missing ones")
	taxonomyShowCmd.Flags().StringVar(&showVersion, "version", "", "cache version (default: latest)")
	taxonomyCmd.AddCommand(taxonomyRefreshCmd, taxonomyShowCmd)
	rootCmd.AddCommand(taxonomyCmd)
}

func runTaxonomyRefresh(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()
	ctx := cmd.Context()

	taxIDs, assemblyIDs, err := scanIdentifiers(cfg.DataDirectory, logger)
	if err != nil {
		return err
	}
	logger.Info("Scanned exports",
		slog.Int("tax_ids", len(taxIDs)),
		slog.Int("assembly_ids", len(assemblyIDs)))

	store, err := taxonomy.NewStore(cfg.CacheDirectory, logger)
	if err != nil {
		return err
	}
	snap, err := store.Load("")
	if err != nil {
		return err
	}

	missingTax, missingAsm := snap.ScanMissing(taxIDs, assemblyIDs)
	if refreshForce {
		missingTax, missingAsm = taxIDs, assemblyIDs
	}
	if len(missingTax) == 0 && len(missingAsm) == 0 {
		logger.Info("Taxonomy cache already covers all IDs, nothing to do")
		return nil
	}

	client := newNCBIClient(cfg, logger)
	for i, id := range missingTax {
		logger.Info("Resolving taxon",
			slog.String("tax_id", id),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(missingTax))))
		snap.Taxonomy[id] = client.ResolveTaxon(ctx, id)
	}
	for i, id := range missingAsm {
		logger.Info("Resolving assembly",
			slog.String("assembly_id", id),
			slog.String("progress", fmt.Sprintf("%d/%d", i+1, len(missingAsm))))
		snap.Assembly[id] = client.ResolveAssembly(ctx, id)
	}

	// Assembly lookups only yield a tax ID; resolve any taxa we have not
	// seen yet so their lineages can be joined in.
	for _, asm := range snap.Assembly {
		if asm.TaxID == "" {
			continue
		}
		if _, ok := snap.Taxonomy[asm.TaxID]; !ok {
			snap.Taxonomy[asm.TaxID] = client.ResolveTaxon(ctx, asm.TaxID)
		}
	}
	snap.FillAssemblyLineages()
	snap.SourceDataHash = taxonomy.SourceHash(taxIDs, assemblyIDs)

	path, err := store.Save(snap, "")
	if err != nil {
		return err
	}
	logger.Info("Wrote taxonomy cache version",
		slog.String("file", path),
		slog.Int("taxonomy_entries", len(snap.Taxonomy)),
		slog.Int("assembly_entries", len(snap.Assembly)))
	return nil
}

func runTaxonomyShow(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	store, err := taxonomy.NewStore(cfg.CacheDirectory, logger)
	if err != nil {
		return err
	}
	snap, err := store.Load(showVersion)
	if err != nil {
		return err
	}

	fmt.Printf("Version:          %s\n", snap.Version)
	fmt.Printf("Created:          %s\n", snap.Created)
	fmt.Printf("Source data hash: %s\n", snap.SourceDataHash)
	fmt.Printf("Taxonomy entries: %d\n", len(snap.Taxonomy))
	fmt.Printf("Assembly entries: %d\n", len(snap.Assembly))

	failed := 0
	for _, e := range snap.Taxonomy {
		if e.Error != "" {
			failed++
		}
	}
	for _, e := range snap.Assembly {
		if e.Error != "" {
			failed++
		}
	}
	fmt.Printf("Failed lookups:   %d\n", failed)
	return nil
}
