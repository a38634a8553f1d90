// Package reports renders the analysis and summary outputs, as plain text
// and as standalone HTML pages.
package reports

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brcstats/internal/stats"
)

// topAssemblyRows caps the assembly tables; the long tail of single-visit
// assemblies adds nothing to the report.
const topAssemblyRows = 20

// AnalysisData is everything the organism analysis report needs: the
// aggregated stats plus the resolved display names and the derived
// "not visited" views.
type AnalysisData struct {
	Stats               stats.PageStats
	OrganismsNoAssembly []stats.Entry
	OrganismNames       map[string]string // tax ID -> organism name
	AssemblyNames       map[string]string // assembly ID -> organism name
	BiasedAssemblies    map[string]bool
}

// navigationOrder fixes the row order of the navigation table; the map in
// PageStats has no order of its own.
var navigationOrder = []string{
	"Home", "Organisms Index", "Assemblies Index",
	"Priority Pathogens Index", "Roadmap", "About", "Calendar",
}

// WriteAnalysis renders the organism and pathogen page analysis as text.
func WriteAnalysis(w io.Writer, data AnalysisData) error {
	var b strings.Builder
	rule := strings.Repeat("=", 80)
	line := strings.Repeat("-", 80)

	b.WriteString(rule + "\n")
	b.WriteString("ORGANISM AND PATHOGEN PAGE ANALYSIS\n")
	b.WriteString(rule + "\n\n")

	writeOverallStatistics(&b, line, data)
	writeNavigationTable(&b, line, data.Stats)
	writePathogenTable(&b, line, data.Stats.Pathogens)
	writeOrganismTable(&b, line, "ORGANISM PAGES (All - Regardless of Assembly Status)",
		data.Stats.Organisms, data.OrganismNames)
	writeOrganismTable(&b, line, "ORGANISM PAGES (Where Available Assembly Pages Were Not Visited)",
		data.OrganismsNoAssembly, data.OrganismNames)
	writeAssemblyTable(&b, line, "ASSEMBLY PAGES (All - Regardless of Workflow Status)",
		data.Stats.Assemblies, data)
	writeAssemblyTable(&b, line, "ASSEMBLY PAGES (Where Available Workflow Pages Were Not Visited)",
		data.Stats.AssembliesWithoutWorkflowVisits(), data)

	b.WriteString("* = May have first-in-list bias (appears early in assembly listings)\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func writeOverallStatistics(b *strings.Builder, line string, data AnalysisData) {
	org := stats.Totals(data.Stats.Organisms)
	orgNoAsm := stats.Totals(data.OrganismsNoAssembly)
	pathogens := stats.Totals(data.Stats.Pathogens)
	asm := stats.Totals(data.Stats.Assemblies)
	asmNoWf := stats.Totals(data.Stats.AssembliesWithoutWorkflowVisits())

	b.WriteString("OVERALL STATISTICS\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "Organism pages (all): %d unique, %d visitors, %d pageviews\n",
		org.Count, org.Visitors, org.Pageviews)
	fmt.Fprintf(b, "Organism pages (with no assembly page visits): %d unique, %d visitors, %d pageviews\n",
		orgNoAsm.Count, orgNoAsm.Visitors, orgNoAsm.Pageviews)
	fmt.Fprintf(b, "Priority pathogen pages: %d unique, %d visitors, %d pageviews\n",
		pathogens.Count, pathogens.Visitors, pathogens.Pageviews)
	fmt.Fprintf(b, "Assembly pages (all): %d unique, %d visitors, %d pageviews\n",
		asm.Count, asm.Visitors, asm.Pageviews)
	fmt.Fprintf(b, "Assembly pages (with no workflow page visits): %d unique, %d visitors, %d pageviews\n",
		asmNoWf.Count, asmNoWf.Visitors, asmNoWf.Pageviews)
	b.WriteString("\n\n")
}

func writeNavigationTable(b *strings.Builder, line string, s stats.PageStats) {
	b.WriteString("HIGH-LEVEL NAVIGATION PAGES\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-40s %-10s %-10s\n", "Page", "Visitors", "Pageviews")
	b.WriteString(line + "\n")

	for _, name := range navigationOrder {
		bucket, ok := s.Navigation[name]
		if !ok {
			continue
		}
		fmt.Fprintf(b, "%-40s %-10d %-10d\n", name, bucket.Visitors, bucket.Pageviews)
	}
	if s.Learn.Count > 0 {
		fmt.Fprintf(b, "%-40s %-10d %-10d\n", "Learn", s.Learn.Visitors, s.Learn.Pageviews)
	}
	b.WriteString("\n\n")
}

func writePathogenTable(b *strings.Builder, line string, pathogens []stats.Entry) {
	b.WriteString("PRIORITY PATHOGEN PAGES\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-40s %-10s %-10s %-12s\n", "Pathogen", "Visitors", "Pageviews", "Avg Time")
	b.WriteString(line + "\n")

	caser := cases.Title(language.AmericanEnglish)
	for _, e := range pathogens {
		name := caser.String(strings.ReplaceAll(e.ID, "-", " "))
		fmt.Fprintf(b, "%-40s %-10d %-10d %-12s\n",
			name, e.Visitors, e.Pageviews, formatSeconds(e.TimeOnPage))
	}
	b.WriteString("\n\n")
}

func writeOrganismTable(b *strings.Builder, line, title string, entries []stats.Entry, names map[string]string) {
	b.WriteString(title + "\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-15s %-35s %-10s %-10s %-12s\n", "Tax ID", "Organism", "Visitors", "Pageviews", "Avg Time")
	b.WriteString(line + "\n")

	for _, e := range entries {
		fmt.Fprintf(b, "%-15s %-35s %-10d %-10d %-12s\n",
			e.ID, truncateName(lookupName(names, e.ID)), e.Visitors, e.Pageviews, formatSeconds(e.TimeOnPage))
	}
	b.WriteString("\n\n")
}

func writeAssemblyTable(b *strings.Builder, line, title string, entries []stats.Entry, data AnalysisData) {
	b.WriteString(title + "\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-25s %-35s %-10s %-10s %-12s\n", "Assembly ID", "Organism", "Visitors", "Pageviews", "Avg Time")
	b.WriteString(line + "\n")

	if len(entries) > topAssemblyRows {
		entries = entries[:topAssemblyRows]
	}
	for _, e := range entries {
		marker := "  "
		if data.BiasedAssemblies[e.ID] {
			marker = " *"
		}
		fmt.Fprintf(b, "%-25s %-35s %-10d %-10d %-12s%s\n",
			e.ID, truncateName(lookupName(data.AssemblyNames, e.ID)),
			e.Visitors, e.Pageviews, formatSeconds(e.TimeOnPage), marker)
	}
	b.WriteString("\n\n")
}

func lookupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return "Unknown"
}

func truncateName(name string) string {
	return truncate(name, 33)
}

func truncate(name string, max int) string {
	if len(name) > max {
		return name[:max-3] + "..."
	}
	return name
}

// formatSeconds renders seconds for the text tables; nil is "N/A".
func formatSeconds(seconds *int) string {
	if seconds == nil {
		return "N/A"
	}
	minutes := *seconds / 60
	secs := *seconds % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// Timestamp renders a report generation time.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
