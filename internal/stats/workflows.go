package stats

import (
	"sort"

	"brcstats/internal/pages"
)

// WorkflowGroup accumulates workflow page traffic for one workflow name
// across all assemblies it was configured on.
type WorkflowGroup struct {
	Name       string
	Visitors   int
	Pageviews  int
	Assemblies []string // unique, sorted
	Times      []int    // per-page time-on-page samples, seconds
}

// WorkflowAssemblyGroup accumulates traffic for one workflow name on one
// assembly.
type WorkflowAssemblyGroup struct {
	Name       string
	AssemblyID string
	Visitors   int
	Pageviews  int
	Times      []int
}

// AssemblyWorkflowGroup accumulates the workflow page traffic of one
// assembly, regardless of which workflows were opened.
type AssemblyWorkflowGroup struct {
	AssemblyID string
	Visitors   int
	Pageviews  int
	Times      []int
}

// GroupWorkflowsByName rolls workflow entries up by their short workflow
// name. Groups come back sorted by visitors descending, name ascending on
// ties.
func GroupWorkflowsByName(entries []WorkflowEntry) []WorkflowGroup {
	byName := make(map[string]*WorkflowGroup)
	assemblies := make(map[string]map[string]bool)
	for _, e := range entries {
		name := pages.WorkflowName(e.Workflow)
		g, ok := byName[name]
		if !ok {
			g = &WorkflowGroup{Name: name}
			byName[name] = g
			assemblies[name] = make(map[string]bool)
		}
		g.Visitors += e.Visitors
		g.Pageviews += e.Pageviews
		assemblies[name][e.AssemblyID] = true
		if e.TimeOnPage != nil {
			g.Times = append(g.Times, *e.TimeOnPage)
		}
	}

	out := make([]WorkflowGroup, 0, len(byName))
	for name, g := range byName {
		for id := range assemblies[name] {
			g.Assemblies = append(g.Assemblies, id)
		}
		sort.Strings(g.Assemblies)
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Visitors != out[j].Visitors {
			return out[i].Visitors > out[j].Visitors
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// GroupWorkflowsByNameAndAssembly rolls workflow entries up by the
// workflow-assembly combination, sorted by visitors descending.
func GroupWorkflowsByNameAndAssembly(entries []WorkflowEntry) []WorkflowAssemblyGroup {
	type key struct{ name, assembly string }
	byCombo := make(map[key]*WorkflowAssemblyGroup)
	for _, e := range entries {
		k := key{pages.WorkflowName(e.Workflow), e.AssemblyID}
		g, ok := byCombo[k]
		if !ok {
			g = &WorkflowAssemblyGroup{Name: k.name, AssemblyID: k.assembly}
			byCombo[k] = g
		}
		g.Visitors += e.Visitors
		g.Pageviews += e.Pageviews
		if e.TimeOnPage != nil {
			g.Times = append(g.Times, *e.TimeOnPage)
		}
	}

	out := make([]WorkflowAssemblyGroup, 0, len(byCombo))
	for _, g := range byCombo {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Visitors != b.Visitors {
			return a.Visitors > b.Visitors
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.AssemblyID < b.AssemblyID
	})
	return out
}

// GroupWorkflowsByAssembly rolls workflow entries up by their parent
// assembly, sorted by visitors descending.
func GroupWorkflowsByAssembly(entries []WorkflowEntry) []AssemblyWorkflowGroup {
	byAssembly := make(map[string]*AssemblyWorkflowGroup)
	for _, e := range entries {
		g, ok := byAssembly[e.AssemblyID]
		if !ok {
			g = &AssemblyWorkflowGroup{AssemblyID: e.AssemblyID}
			byAssembly[e.AssemblyID] = g
		}
		g.Visitors += e.Visitors
		g.Pageviews += e.Pageviews
		if e.TimeOnPage != nil {
			g.Times = append(g.Times, *e.TimeOnPage)
		}
	}

	out := make([]AssemblyWorkflowGroup, 0, len(byAssembly))
	for _, g := range byAssembly {
		out = append(out, *g)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Visitors != out[j].Visitors {
			return out[i].Visitors > out[j].Visitors
		}
		return out[i].AssemblyID < out[j].AssemblyID
	})
	return out
}

// WorkflowTimes collects every time-on-page sample across all workflow
// entries.
func WorkflowTimes(entries []WorkflowEntry) []int {
	var times []int
	for _, e := range entries {
		if e.TimeOnPage != nil {
			times = append(times, *e.TimeOnPage)
		}
	}
	return times
}

// MeanSeconds returns the truncated mean of the samples, nil when there
// are none.
func MeanSeconds(times []int) *int {
	if len(times) == 0 {
		return nil
	}
	sum := 0
	for _, t := range times {
		sum += t
	}
	mean := sum / len(times)
	return &mean
}

// MedianSeconds returns the truncated median of the samples, nil when
// there are none. Even-length inputs take the mean of the middle pair.
func MedianSeconds(times []int) *int {
	if len(times) == 0 {
		return nil
	}
	sorted := make([]int, len(times))
	copy(sorted, times)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	median := sorted[mid]
	if len(sorted)%2 == 0 {
		median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &median
}
