package reports_test

import (
	"strings"
	"testing"
	"time"

	"brcstats/internal/community"
	"brcstats/internal/pages"
	"brcstats/internal/plausible"
	"brcstats/internal/reports"
	"brcstats/internal/stats"
	"brcstats/internal/timeframe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnalysisData() reports.AnalysisData {
	s := stats.Collect([]pages.Row{
		{URL: "/", Visitors: 500, Pageviews: 800},
		{URL: "/data/organisms/9606", Visitors: 100, Pageviews: 150},
		{URL: "/data/assemblies/GCA_001008285_1", Visitors: 25, Pageviews: 30},
		{URL: "/data/assemblies/GCA_000002_2", Visitors: 8, Pageviews: 9},
		{URL: "/data/assemblies/GCA_001008285_1/workflow-variant-calling", Visitors: 10, Pageviews: 12},
		{URL: "/data/priority-pathogens/monkeypox-virus", Visitors: 15, Pageviews: 18},
	})
	return reports.AnalysisData{
		Stats:               s,
		OrganismsNoAssembly: s.Organisms,
		OrganismNames:       map[string]string{"9606": "Homo sapiens"},
		AssemblyNames:       map[string]string{"GCA_001008285_1": "Monkeypox virus"},
		BiasedAssemblies:    map[string]bool{"GCA_001008285_1": true},
	}
}

func TestWriteAnalysis(t *testing.T) {
	var sb strings.Builder
	require.NoError(t, reports.WriteAnalysis(&sb, sampleAnalysisData()))
	out := sb.String()

	t.Run("Carries the section headers", func(t *testing.T) {
		assert.Contains(t, out, "ORGANISM AND PATHOGEN PAGE ANALYSIS")
		assert.Contains(t, out, "OVERALL STATISTICS")
		assert.Contains(t, out, "HIGH-LEVEL NAVIGATION PAGES")
		assert.Contains(t, out, "PRIORITY PATHOGEN PAGES")
		assert.Contains(t, out, "ORGANISM PAGES (All - Regardless of Assembly Status)")
		assert.Contains(t, out, "ASSEMBLY PAGES (Where Available Workflow Pages Were Not Visited)")
	})

	t.Run("Totals reflect the aggregated stats", func(t *testing.T) {
		assert.Contains(t, out, "Organism pages (all): 1 unique, 100 visitors, 150 pageviews")
		assert.Contains(t, out, "Assembly pages (all): 2 unique, 33 visitors, 39 pageviews")
		assert.Contains(t, out, "Assembly pages (with no workflow page visits): 1 unique, 8 visitors, 9 pageviews")
	})

	t.Run("Names and bias markers are rendered", func(t *testing.T) {
		assert.Contains(t, out, "Homo sapiens")
		assert.Contains(t, out, "Monkeypox Virus") // pathogen slug title-cased
		assert.Contains(t, out, "*")
		assert.Contains(t, out, "first-in-list bias")
	})

	t.Run("Unresolved names fall back to Unknown", func(t *testing.T) {
		assert.Contains(t, out, "Unknown")
	})
}

func sampleMonths() []reports.MonthData {
	classifier := community.Default()
	lineages := map[string]string{
		"9606":            "cellular organisms; Eukaryota; Mammalia",
		"GCA_001008285_1": "Viruses; Poxviridae",
		"GCA_000002_2":    "Bacteria; Proteobacteria",
	}
	lineageFor := func(id string) string { return lineages[id] }

	var months []reports.MonthData
	for _, tc := range []struct {
		month    string
		visitors int
	}{{"2025-01", 100}, {"2025-02", 140}} {
		m, _ := timeframe.ParseMonth(tc.month)
		s := stats.Collect([]pages.Row{
			{URL: "/", Visitors: 500, Pageviews: 800},
			{URL: "/data/organisms/9606", Visitors: tc.visitors, Pageviews: tc.visitors + 50},
			{URL: "/data/assemblies/GCA_000002_2", Visitors: 8, Pageviews: 9},
			{URL: "/learn", Visitors: 6, Pageviews: 7},
		})
		months = append(months, reports.MonthData{
			Month:                 m,
			Stats:                 s,
			OrganismsByCommunity:  stats.RollupByCommunity(s.Organisms, lineageFor, classifier),
			AssembliesByCommunity: stats.RollupByCommunity(s.Assemblies, lineageFor, classifier),
			WorkflowsByCommunity: stats.RollupWorkflowsByCommunity(s.Workflows, lineageFor,
				classifier),
		})
	}
	return months
}

func TestWriteMonthlySummary(t *testing.T) {
	var sb strings.Builder
	generated := time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC)
	require.NoError(t, reports.WriteMonthlySummary(&sb, sampleMonths(), generated))
	out := sb.String()

	assert.Contains(t, out, "MONTHLY TRAFFIC SUMMARY")
	assert.Contains(t, out, "Generated: 2025-03-05 10:30")
	assert.Contains(t, out, "Jan 2025")
	assert.Contains(t, out, "Feb 2025")
	assert.Contains(t, out, "ORGANISM PAGES BY COMMUNITY")
	assert.Contains(t, out, "LEARN / FEATURED ANALYSES PAGES")
	for _, comm := range community.Order {
		assert.Contains(t, out, string(comm))
	}
}

func TestRenderAnalysisHTML(t *testing.T) {
	out, err := reports.RenderAnalysisHTML(reports.HTMLAnalysis{
		Period:    "2025-01-01 to 2025-01-31",
		Generated: time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC),
		Data:      sampleAnalysisData(),
		OrganismCommunities: map[string]community.Community{
			"9606": community.Hosts,
		},
		AssemblyCommunities: map[string]community.Community{
			"GCA_001008285_1": community.Viruses,
		},
	})
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "chart.js")
	assert.Contains(t, html, "Homo sapiens")
	assert.Contains(t, html, community.Colors[community.Hosts])
	assert.Contains(t, html, "Viruses")
	assert.Contains(t, html, "2025-01-01 to 2025-01-31")
}

func TestRenderSummaryHTML(t *testing.T) {
	out, err := reports.RenderSummaryHTML(sampleMonths(), time.Date(2025, 3, 5, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	html := string(out)

	assert.Contains(t, html, "Monthly Traffic Summary")
	assert.Contains(t, html, "Jan 2025")
	assert.Contains(t, html, community.Colors[community.Hosts])
	assert.Contains(t, html, "orgTrend")
}

func TestResolveCountryNames(t *testing.T) {
	rows := reports.ResolveCountryNames([]plausible.Row{
		{Key: "US", Visitors: 10},
		{Key: "DE", Visitors: 5},
		{Key: "ZZ", Visitors: 2},
		{Key: "", Visitors: 1},
	})

	require.Len(t, rows, 4)
	assert.Equal(t, "United States", rows[0].Key)
	assert.Equal(t, "Germany", rows[1].Key)
	assert.Equal(t, "ZZ", rows[2].Key)
	assert.Equal(t, "Unknown", rows[3].Key)
}

func TestTitleCaseKeys(t *testing.T) {
	rows := reports.TitleCaseKeys([]plausible.Row{
		{Key: "mobile"},
		{Key: ""},
	})
	assert.Equal(t, "Mobile", rows[0].Key)
	assert.Equal(t, "Unknown", rows[1].Key)
}
