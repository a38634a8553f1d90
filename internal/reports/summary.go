package reports

import (
	"fmt"
	"io"
	"strings"
	"time"

	"brcstats/internal/community"
	"brcstats/internal/stats"
	"brcstats/internal/timeframe"
)

// MonthData is one month's aggregated traffic, with the content pages
// already rolled up by community.
type MonthData struct {
	Month                 timeframe.Month
	Stats                 stats.PageStats
	OrganismsByCommunity  stats.Rollup
	AssembliesByCommunity stats.Rollup
	WorkflowsByCommunity  stats.Rollup
}

const summaryWidth = 120

// WriteMonthlySummary renders the month-over-month traffic summary as
// text. Months are expected in chronological order.
func WriteMonthlySummary(w io.Writer, months []MonthData, generated time.Time) error {
	var b strings.Builder
	rule := strings.Repeat("=", summaryWidth)
	line := strings.Repeat("-", summaryWidth)

	b.WriteString(rule + "\n")
	b.WriteString("BRC ANALYTICS - MONTHLY TRAFFIC SUMMARY\n")
	fmt.Fprintf(&b, "Generated: %s\n", Timestamp(generated))
	b.WriteString(rule + "\n\n")

	writeHighLevelSection(&b, line, months)
	writeContentTotalsSection(&b, line, months)
	writeCommunitySection(&b, line, "ORGANISM PAGES BY COMMUNITY (Unique Pages / Visitors)", months,
		func(m MonthData) stats.Rollup { return m.OrganismsByCommunity })
	writeCommunitySection(&b, line, "ASSEMBLY PAGES BY COMMUNITY (Unique Pages / Visitors)", months,
		func(m MonthData) stats.Rollup { return m.AssembliesByCommunity })
	writeCommunitySection(&b, line, "WORKFLOW PAGES BY COMMUNITY (Unique Pages / Visitors)", months,
		func(m MonthData) stats.Rollup { return m.WorkflowsByCommunity })
	writeLearnSection(&b, months)

	b.WriteString(rule + "\n")
	b.WriteString("NOTES:\n")
	b.WriteString("- 'Organism Pages' = /data/organisms/{tax_id} (individual organism detail pages)\n")
	b.WriteString("- 'Assembly Pages' = /data/assemblies/{assembly_id} (individual assembly detail pages)\n")
	b.WriteString("- 'Workflow Pages' = /data/assemblies/{id}/workflow-{...} (workflow configuration pages)\n")
	b.WriteString("- Index pages (Organisms Index, etc.) are navigation/listing pages, not detail pages\n")
	b.WriteString("- Community classification based on NCBI taxonomy lineage\n")
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func monthLabel(m timeframe.Month) string {
	return time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

func writeHighLevelSection(b *strings.Builder, line string, months []MonthData) {
	b.WriteString("HIGH-LEVEL PAGES (Visitors / Pageviews)\n")
	b.WriteString(line + "\n")

	fmt.Fprintf(b, "%-12s", "Month")
	for _, page := range navigationOrder {
		name := page
		if len(name) > 15 {
			name = name[:15]
		}
		fmt.Fprintf(b, "%18s", name)
	}
	b.WriteString("\n" + line + "\n")

	for _, m := range months {
		fmt.Fprintf(b, "%-12s", monthLabel(m.Month))
		for _, page := range navigationOrder {
			bucket := m.Stats.Navigation[page]
			fmt.Fprintf(b, "%8d/%-8d ", bucket.Visitors, bucket.Pageviews)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
}

func writeContentTotalsSection(b *strings.Builder, line string, months []MonthData) {
	b.WriteString("CONTENT PAGES - TOTALS (Unique Pages / Visitors / Pageviews)\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-12s%25s%25s%25s%25s\n",
		"Month", "Organism Pages", "Assembly Pages", "Workflow Pages", "Priority Pathogens")
	b.WriteString(line + "\n")

	for _, m := range months {
		org := stats.Totals(m.Stats.Organisms)
		asm := stats.Totals(m.Stats.Assemblies)
		wf := stats.WorkflowTotals(m.Stats.Workflows)
		pp := stats.Totals(m.Stats.Pathogens)

		fmt.Fprintf(b, "%-12s", monthLabel(m.Month))
		for _, bucket := range []stats.Bucket{org, asm, wf, pp} {
			fmt.Fprintf(b, "%6d / %5d / %-6d", bucket.Count, bucket.Visitors, bucket.Pageviews)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
}

func writeCommunitySection(b *strings.Builder, line, title string, months []MonthData, pick func(MonthData) stats.Rollup) {
	b.WriteString(title + "\n")
	b.WriteString(line + "\n")

	fmt.Fprintf(b, "%-12s", "Month")
	for _, comm := range community.Order {
		fmt.Fprintf(b, "%14s", string(comm))
	}
	b.WriteString("\n" + line + "\n")

	for _, m := range months {
		rollup := pick(m)
		fmt.Fprintf(b, "%-12s", monthLabel(m.Month))
		for _, comm := range community.Order {
			bucket := rollup[comm]
			fmt.Fprintf(b, "%5d/%-7d  ", bucket.Count, bucket.Visitors)
		}
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
}

func writeLearnSection(b *strings.Builder, months []MonthData) {
	line := strings.Repeat("-", 50)
	b.WriteString("LEARN / FEATURED ANALYSES PAGES\n")
	b.WriteString(line + "\n")
	fmt.Fprintf(b, "%-12s%12s%12s\n", "Month", "Visitors", "Pageviews")
	b.WriteString(line + "\n")

	for _, m := range months {
		fmt.Fprintf(b, "%-12s%12d%12d\n", monthLabel(m.Month), m.Stats.Learn.Visitors, m.Stats.Learn.Pageviews)
	}
	b.WriteString("\n\n")
}
