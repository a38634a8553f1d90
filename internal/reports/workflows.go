package reports

import (
	"fmt"
	"io"
	"strings"

	"brcstats/internal/stats"
)

// topWorkflowComboRows caps the workflow-organism intersection table.
const topWorkflowComboRows = 20

// WorkflowData is everything the workflow analysis report needs.
type WorkflowData struct {
	Stats            stats.PageStats
	AssemblyNames    map[string]string // assembly ID -> organism name
	BiasedAssemblies map[string]bool
}

// WriteWorkflowAnalysis renders the workflow configuration page analysis
// as text: per-workflow traffic with assembly spread and time-on-page
// figures, the busiest workflow-organism combinations, and the
// per-assembly view.
func WriteWorkflowAnalysis(w io.Writer, data WorkflowData) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	line := strings.Repeat("-", 80)

	entries := data.Stats.Workflows
	byWorkflow := stats.GroupWorkflowsByName(entries)
	byAssembly := stats.GroupWorkflowsByAssembly(entries)

	b.WriteString(rule + "\n")
	b.WriteString("WORKFLOW CONFIGURATION PAGE ANALYSIS\n")
	b.WriteString(rule + "\n\n")

	fmt.Fprintf(&b, "Found %d workflow configuration page entries\n\n", len(entries))

	writeWorkflowOverall(&b, line, entries, byWorkflow, byAssembly)
	writeWorkflowTable(&b, line, byWorkflow)
	writeWorkflowComboTable(&b, line, stats.GroupWorkflowsByNameAndAssembly(entries), data.AssemblyNames)
	writeWorkflowAssemblyTable(&b, line, byAssembly, data)

	b.WriteString("* = May have first-in-list bias (appears early in assembly listings)\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeWorkflowOverall(b *strings.Builder, line string, entries []stats.WorkflowEntry,
	byWorkflow []stats.WorkflowGroup, byAssembly []stats.AssemblyWorkflowGroup) {
	totals := stats.WorkflowTotals(entries)
	times := stats.WorkflowTimes(entries)

	b.WriteString("OVERALL STATISTICS\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "Total unique assemblies with workflow visits: %d\n", len(byAssembly))
	fmt.Fprintf(b, "Total unique workflows: %d\n", len(byWorkflow))
	fmt.Fprintf(b, "Total visitors to workflow pages: %d\n", totals.Visitors)
	fmt.Fprintf(b, "Total pageviews: %d\n", totals.Pageviews)
	fmt.Fprintf(b, "Average time on page: %s\n", formatSeconds(stats.MeanSeconds(times)))
	fmt.Fprintf(b, "Median time on page: %s\n", formatSeconds(stats.MedianSeconds(times)))
	b.WriteString("\n\n")
}

func writeWorkflowTable(b *strings.Builder, line string, groups []stats.WorkflowGroup) {
	b.WriteString("PER-WORKFLOW BREAKDOWN\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-35s %-10s %-10s %-12s %-12s %-12s\n",
		"Workflow", "Visitors", "Pageviews", "Assemblies", "Avg Time", "Median Time")
	b.WriteString(line + "\n")

	for _, g := range groups {
		fmt.Fprintf(b, "%-35s %-10d %-10d %-12d %-12s %-12s\n",
			truncate(g.Name, 33), g.Visitors, g.Pageviews, len(g.Assemblies),
			formatSeconds(stats.MeanSeconds(g.Times)), formatSeconds(stats.MedianSeconds(g.Times)))
	}
	b.WriteString("\n\n")
}

func writeWorkflowComboTable(b *strings.Builder, line string, combos []stats.WorkflowAssemblyGroup, names map[string]string) {
	b.WriteString("WORKFLOW-ORGANISM INTERSECTIONS (Top 20)\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-30s %-30s %-10s %-10s\n", "Workflow", "Organism", "Visitors", "Pageviews")
	b.WriteString(line + "\n")

	if len(combos) > topWorkflowComboRows {
		combos = combos[:topWorkflowComboRows]
	}
	for _, g := range combos {
		fmt.Fprintf(b, "%-30s %-30s %-10d %-10d\n",
			truncate(g.Name, 28), truncate(lookupName(names, g.AssemblyID), 28),
			g.Visitors, g.Pageviews)
	}
	b.WriteString("\n\n")
}

func writeWorkflowAssemblyTable(b *strings.Builder, line string, groups []stats.AssemblyWorkflowGroup, data WorkflowData) {
	b.WriteString("PER-ASSEMBLY BREAKDOWN\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-20s %-30s %-10s %-10s %-12s %-12s\n",
		"Assembly ID", "Organism", "Visitors", "Pageviews", "Avg Time", "Median Time")
	b.WriteString(line + "\n")

	for _, g := range groups {
		marker := "  "
		if data.BiasedAssemblies[g.AssemblyID] {
			marker = " *"
		}
		fmt.Fprintf(b, "%-20s %-30s %-10d %-10d %-12s %-12s%s\n",
			g.AssemblyID, truncate(lookupName(data.AssemblyNames, g.AssemblyID), 28),
			g.Visitors, g.Pageviews,
			formatSeconds(stats.MeanSeconds(g.Times)), formatSeconds(stats.MedianSeconds(g.Times)), marker)
	}
	b.WriteString("\n")
}
