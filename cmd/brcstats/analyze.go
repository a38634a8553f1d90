package main

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"brcstats/internal/community"
	"brcstats/internal/pages"
	"brcstats/internal/reports"
	"brcstats/internal/stats"
	"brcstats/internal/taxonomy"
)

var (
	analyzeOutput  string
	analyzeHTML    bool
	analyzeOffline bool

	analyzeCmd = &cobra.Command{
		Use:   "analyze [file]",
		Short: "Build the organism, pathogen and workflow analysis reports",
		Long: `Classifies every page of a top-pages export, joins organism and
assembly names from the taxonomy cache, and writes the organism analysis
report plus a workflow analysis report when the export has workflow page
traffic. Without a file argument the newest export in the data directory
is analyzed. The "organisms without assembly visits" section needs live
NCBI assembly listings; --offline skips it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runAnalyze,
	}
)

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOutput, "output", "", "report file (default: derived from the input name)")
	analyzeCmd.Flags().BoolVar(&analyzeHTML, "html", false, "also write an HTML rendition")
	analyzeCmd.Flags().BoolVar(&analyzeOffline, "offline", false, "skip the live NCBI assembly listing check")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, logger := setup()

	var input string
	if len(args) > 0 {
		input = args[0]
	} else {
		var err error
		if input, err = latestExport(cfg.DataDirectory); err != nil {
			return err
		}
	}

	rows, err := pages.ReadFile(input, logger)
	if err != nil {
		return err
	}
	pageStats := stats.Collect(rows)

	snap := loadSnapshot(cfg.CacheDirectory, logger)
	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	var organismsNoAssembly []stats.Entry
	if analyzeOffline {
		logger.Info("Offline mode, skipping assembly listing check")
	} else {
		client := newNCBIClient(cfg, logger)
		organismsNoAssembly = pageStats.OrganismsWithoutAssemblyVisits(func(taxID string) []string {
			return client.AssembliesForTaxon(cmd.Context(), taxID)
		})
	}

	data := reports.AnalysisData{
		Stats:               pageStats,
		OrganismsNoAssembly: organismsNoAssembly,
		OrganismNames:       namesForOrganisms(snap, pageStats.Organisms),
		AssemblyNames:       namesForAssemblies(snap, pageStats.Assemblies),
		BiasedAssemblies:    cfg.BiasedAssemblies(),
	}

	output := analyzeOutput
	if output == "" {
		base := strings.TrimSuffix(filepath.Base(input), ".tab")
		output = filepath.Join(cfg.ReportsDirectory, base+"-organism-analysis.txt")
	}

	var buf bytes.Buffer
	if err := reports.WriteAnalysis(&buf, data); err != nil {
		return err
	}
	if err := writeReport(output, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("Wrote analysis report", slog.String("file", output))

	if analyzeHTML {
		html, err := reports.RenderAnalysisHTML(reports.HTMLAnalysis{
			Period:              strings.TrimSuffix(filepath.Base(input), ".tab"),
			Generated:           time.Now(),
			Data:                data,
			OrganismCommunities: organismCommunities(snap, classifier, pageStats.Organisms),
			AssemblyCommunities: assemblyCommunities(snap, classifier, pageStats.Assemblies),
		})
		if err != nil {
			return err
		}
		htmlPath := strings.TrimSuffix(output, ".txt") + ".html"
		if err := writeReport(htmlPath, html); err != nil {
			return err
		}
		logger.Info("Wrote HTML analysis report", slog.String("file", htmlPath))
	}

	if len(pageStats.Workflows) == 0 {
		logger.Info("No workflow pages in the export, skipping workflow report")
		return nil
	}
	wfData := reports.WorkflowData{
		Stats:            pageStats,
		AssemblyNames:    namesForWorkflowAssemblies(snap, pageStats),
		BiasedAssemblies: cfg.BiasedAssemblies(),
	}
	wfOutput := filepath.Join(cfg.ReportsDirectory,
		strings.TrimSuffix(filepath.Base(input), ".tab")+"-workflow-analysis.txt")

	buf.Reset()
	if err := reports.WriteWorkflowAnalysis(&buf, wfData); err != nil {
		return err
	}
	if err := writeReport(wfOutput, buf.Bytes()); err != nil {
		return err
	}
	logger.Info("Wrote workflow analysis report", slog.String("file", wfOutput))
	return nil
}

func namesForOrganisms(snap *taxonomy.Snapshot, entries []stats.Entry) map[string]string {
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.ID] = snap.NameForTaxon(e.ID)
	}
	return names
}

func namesForAssemblies(snap *taxonomy.Snapshot, entries []stats.Entry) map[string]string {
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.ID] = snap.NameForAssembly(e.ID)
	}
	return names
}

// namesForWorkflowAssemblies covers every assembly seen on a workflow
// page, including those whose own assembly page drew no traffic.
func namesForWorkflowAssemblies(snap *taxonomy.Snapshot, s stats.PageStats) map[string]string {
	names := namesForAssemblies(snap, s.Assemblies)
	for _, wf := range s.Workflows {
		if _, ok := names[wf.AssemblyID]; !ok {
			names[wf.AssemblyID] = snap.NameForAssembly(wf.AssemblyID)
		}
	}
	return names
}

func organismCommunities(snap *taxonomy.Snapshot, classifier *community.Classifier, entries []stats.Entry) map[string]community.Community {
	out := make(map[string]community.Community, len(entries))
	for _, e := range entries {
		out[e.ID] = classifier.Classify(snap.LineageForTaxon(e.ID))
	}
	return out
}

func assemblyCommunities(snap *taxonomy.Snapshot, classifier *community.Classifier, entries []stats.Entry) map[string]community.Community {
	out := make(map[string]community.Community, len(entries))
	for _, e := range entries {
		out[e.ID] = classifier.Classify(snap.LineageForAssembly(e.ID))
	}
	return out
}
