package stats_test

import (
	"math/rand"
	"testing"

	"brcstats/internal/community"
	"brcstats/internal/pages"
	"brcstats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []pages.Row {
	return []pages.Row{
		{URL: "/", Visitors: 500, Pageviews: 800},
		{URL: "/roadmap", Visitors: 40, Pageviews: 50},
		{URL: "/data/organisms/9606", Visitors: 100, Pageviews: 150},
		{URL: "/data/organisms/10244", Visitors: 30, Pageviews: 40},
		{URL: "/data/assemblies/GCA_001008285_1", Visitors: 25, Pageviews: 30},
		{URL: "/data/assemblies/GCA_000002_2", Visitors: 8, Pageviews: 9},
		{URL: "/data/assemblies/GCA_001008285_1/workflow-variant-calling", Visitors: 10, Pageviews: 12},
		{URL: "/data/priority-pathogens/monkeypox-virus", Visitors: 15, Pageviews: 18},
		{URL: "/learn", Visitors: 6, Pageviews: 7},
		{URL: "/learn/getting-started", Visitors: 4, Pageviews: 5},
		{URL: "/favicon.ico", Visitors: 999, Pageviews: 999},
	}
}

func TestCollect(t *testing.T) {
	s := stats.Collect(sampleRows())

	t.Run("Groups navigation pages by display name", func(t *testing.T) {
		require.Contains(t, s.Navigation, "Home")
		assert.Equal(t, stats.Bucket{Count: 1, Visitors: 500, Pageviews: 800}, s.Navigation["Home"])
		assert.Equal(t, 40, s.Navigation["Roadmap"].Visitors)
	})

	t.Run("Content pages are keyed by their IDs", func(t *testing.T) {
		require.Len(t, s.Organisms, 2)
		assert.Equal(t, "9606", s.Organisms[0].ID)
		assert.Equal(t, 100, s.Organisms[0].Visitors)
		assert.Equal(t, 150, s.Organisms[0].Pageviews)

		require.Len(t, s.Workflows, 1)
		assert.Equal(t, "GCA_001008285_1", s.Workflows[0].AssemblyID)
		assert.Equal(t, "variant-calling", s.Workflows[0].Workflow)
		assert.Equal(t, 10, s.Workflows[0].Visitors)
	})

	t.Run("Learn pages accumulate into one bucket", func(t *testing.T) {
		assert.Equal(t, stats.Bucket{Count: 2, Visitors: 10, Pageviews: 12}, s.Learn)
	})

	t.Run("Unclassified pages are dropped", func(t *testing.T) {
		total := stats.Totals(s.Organisms)
		assert.Equal(t, 130, total.Visitors)
		assert.NotContains(t, s.Navigation, "/favicon.ico")
	})

	t.Run("Order of input rows does not matter", func(t *testing.T) {
		rows := sampleRows()
		rng := rand.New(rand.NewSource(7))
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		shuffled := stats.Collect(rows)
		assert.Equal(t, s, shuffled)
	})
}

func TestSorting(t *testing.T) {
	t.Run("Visitors descending with ID as tie break", func(t *testing.T) {
		s := stats.Collect([]pages.Row{
			{URL: "/data/organisms/300", Visitors: 5, Pageviews: 5},
			{URL: "/data/organisms/100", Visitors: 5, Pageviews: 5},
			{URL: "/data/organisms/200", Visitors: 9, Pageviews: 9},
		})
		require.Len(t, s.Organisms, 3)
		assert.Equal(t, "200", s.Organisms[0].ID)
		assert.Equal(t, "100", s.Organisms[1].ID)
		assert.Equal(t, "300", s.Organisms[2].ID)
	})
}

func TestAssembliesWithoutWorkflowVisits(t *testing.T) {
	s := stats.Collect(sampleRows())

	missing := s.AssembliesWithoutWorkflowVisits()
	require.Len(t, missing, 1)
	assert.Equal(t, "GCA_000002_2", missing[0].ID)
}

func TestOrganismsWithoutAssemblyVisits(t *testing.T) {
	s := stats.Collect(sampleRows())

	// 9606's known assembly was visited; 10244's assemblies were not.
	known := map[string][]string{
		"9606":  {"GCA_001008285_1"},
		"10244": {"GCA_009999999_1"},
	}
	missing := s.OrganismsWithoutAssemblyVisits(func(taxID string) []string {
		return known[taxID]
	})

	require.Len(t, missing, 1)
	assert.Equal(t, "10244", missing[0].ID)
}

func TestRollupByCommunity(t *testing.T) {
	classifier := community.Default()
	lineages := map[string]string{
		"9606":  "cellular organisms; Eukaryota; Opisthokonta; Metazoa; Chordata; Mammalia; Primates",
		"10244": "Viruses; Varidnaviria; Poxviridae; Orthopoxvirus; Monkeypox virus",
	}

	s := stats.Collect(sampleRows())
	rollup := stats.RollupByCommunity(s.Organisms, func(id string) string {
		return lineages[id]
	}, classifier)

	assert.Equal(t, stats.Bucket{Count: 1, Visitors: 100, Pageviews: 150}, rollup[community.Hosts])
	assert.Equal(t, stats.Bucket{Count: 1, Visitors: 30, Pageviews: 40}, rollup[community.Viruses])

	t.Run("Unresolvable lineages land in Other", func(t *testing.T) {
		rollup := stats.RollupByCommunity(s.Organisms, func(string) string { return "Unknown" }, classifier)
		assert.Equal(t, 2, rollup[community.Other].Count)
	})
}
