package stats_test

import (
	"testing"

	"brcstats/internal/pages"
	"brcstats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sec(n int) *int { return &n }

func workflowRows() []pages.Row {
	return []pages.Row{
		{URL: "/data/assemblies/GCA_001008285_1/workflow-github-com-iwc-workflows-chipseq-pe-main", Visitors: 10, Pageviews: 14, TimeOnPage: sec(120)},
		{URL: "/data/assemblies/GCA_000002_2/workflow-github-com-iwc-workflows-chipseq-pe-main", Visitors: 4, Pageviews: 5, TimeOnPage: sec(30)},
		{URL: "/data/assemblies/GCA_000002_2/workflow-github-com-iwc-workflows-variant-calling-versions-v1", Visitors: 7, Pageviews: 9, TimeOnPage: sec(458)},
		{URL: "/data/assemblies/GCA_000002_2/workflow-variant-calling", Visitors: 2, Pageviews: 2},
	}
}

func TestGroupWorkflowsByName(t *testing.T) {
	s := stats.Collect(workflowRows())
	groups := stats.GroupWorkflowsByName(s.Workflows)
	require.Len(t, groups, 3)

	t.Run("Traffic accumulates per workflow name, visitors descending", func(t *testing.T) {
		assert.Equal(t, "chipseq-pe", groups[0].Name)
		assert.Equal(t, 14, groups[0].Visitors)
		assert.Equal(t, 19, groups[0].Pageviews)
		assert.Equal(t, "variant-calling", groups[1].Name)
		assert.Equal(t, 7, groups[1].Visitors)
	})

	t.Run("Assembly spread counts unique assemblies", func(t *testing.T) {
		assert.Equal(t, []string{"GCA_000002_2", "GCA_001008285_1"}, groups[0].Assemblies)
		assert.Equal(t, []string{"GCA_000002_2"}, groups[1].Assemblies)
	})

	t.Run("Slugs outside the IWC naming group under unknown", func(t *testing.T) {
		assert.Equal(t, "unknown", groups[2].Name)
		assert.Equal(t, 2, groups[2].Visitors)
	})

	t.Run("Missing time figures are left out of the samples", func(t *testing.T) {
		assert.ElementsMatch(t, []int{120, 30}, groups[0].Times)
		assert.Empty(t, groups[2].Times)
	})
}

func TestGroupWorkflowsByNameAndAssembly(t *testing.T) {
	s := stats.Collect(workflowRows())
	combos := stats.GroupWorkflowsByNameAndAssembly(s.Workflows)
	require.Len(t, combos, 4)

	assert.Equal(t, "chipseq-pe", combos[0].Name)
	assert.Equal(t, "GCA_001008285_1", combos[0].AssemblyID)
	assert.Equal(t, 10, combos[0].Visitors)
	assert.Equal(t, "variant-calling", combos[1].Name)
	assert.Equal(t, "GCA_000002_2", combos[1].AssemblyID)
}

func TestGroupWorkflowsByAssembly(t *testing.T) {
	s := stats.Collect(workflowRows())
	groups := stats.GroupWorkflowsByAssembly(s.Workflows)
	require.Len(t, groups, 2)

	assert.Equal(t, "GCA_000002_2", groups[0].AssemblyID)
	assert.Equal(t, 13, groups[0].Visitors)
	assert.Equal(t, 16, groups[0].Pageviews)
	assert.ElementsMatch(t, []int{30, 458}, groups[0].Times)
	assert.Equal(t, "GCA_001008285_1", groups[1].AssemblyID)
}

func TestTimeAverages(t *testing.T) {
	t.Run("Mean truncates to whole seconds", func(t *testing.T) {
		mean := stats.MeanSeconds([]int{120, 30, 458})
		require.NotNil(t, mean)
		assert.Equal(t, 202, *mean)
	})

	t.Run("Odd sample counts take the middle value", func(t *testing.T) {
		median := stats.MedianSeconds([]int{458, 120, 30})
		require.NotNil(t, median)
		assert.Equal(t, 120, *median)
	})

	t.Run("Even sample counts average the middle pair", func(t *testing.T) {
		median := stats.MedianSeconds([]int{10, 20, 30, 41})
		require.NotNil(t, median)
		assert.Equal(t, 25, *median)
	})

	t.Run("No samples yields nil", func(t *testing.T) {
		assert.Nil(t, stats.MeanSeconds(nil))
		assert.Nil(t, stats.MedianSeconds(nil))
	})
}
