package reports

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"brcstats/internal/community"
	"brcstats/internal/stats"
)

type summaryDataset struct {
	Label string `json:"label"`
	Data  []int  `json:"data"`
	Color string `json:"borderColor"`
	Fill  string `json:"backgroundColor"`
}

type summaryTotalsRow struct {
	Month     string
	Organisms stats.Bucket
	Asm       stats.Bucket
	Workflows stats.Bucket
	Pathogens stats.Bucket
}

type htmlSummaryView struct {
	GeneratedAt string
	Months      template.JS
	OrgSeries   template.JS
	AsmSeries   template.JS
	Totals      []summaryTotalsRow
}

// RenderSummaryHTML renders the monthly summary as a standalone HTML
// page with per-community trend lines.
func RenderSummaryHTML(months []MonthData, generated time.Time) ([]byte, error) {
	view := htmlSummaryView{GeneratedAt: Timestamp(generated)}

	labels := make([]string, 0, len(months))
	for _, m := range months {
		labels = append(labels, monthLabel(m.Month))
		view.Totals = append(view.Totals, summaryTotalsRow{
			Month:     monthLabel(m.Month),
			Organisms: stats.Totals(m.Stats.Organisms),
			Asm:       stats.Totals(m.Stats.Assemblies),
			Workflows: stats.WorkflowTotals(m.Stats.Workflows),
			Pathogens: stats.Totals(m.Stats.Pathogens),
		})
	}

	labelsJSON, err := json.Marshal(labels)
	if err != nil {
		return nil, fmt.Errorf("marshal chart labels: %w", err)
	}
	view.Months = template.JS(labelsJSON)

	if view.OrgSeries, err = communitySeries(months, func(m MonthData) stats.Rollup {
		return m.OrganismsByCommunity
	}); err != nil {
		return nil, err
	}
	if view.AsmSeries, err = communitySeries(months, func(m MonthData) stats.Rollup {
		return m.AssembliesByCommunity
	}); err != nil {
		return nil, err
	}

	tmpl, err := template.New("summary").Parse(summaryHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

// communitySeries builds one Chart.js dataset per community that saw any
// traffic, with visitor counts aligned to the month labels.
func communitySeries(months []MonthData, pick func(MonthData) stats.Rollup) (template.JS, error) {
	var datasets []summaryDataset
	for _, comm := range community.Order {
		data := make([]int, 0, len(months))
		seen := false
		for _, m := range months {
			bucket := pick(m)[comm]
			if bucket.Visitors > 0 {
				seen = true
			}
			data = append(data, bucket.Visitors)
		}
		if !seen {
			continue
		}
		datasets = append(datasets, summaryDataset{
			Label: string(comm),
			Data:  data,
			Color: community.Colors[comm],
			Fill:  community.Colors[comm],
		})
	}
	out, err := json.Marshal(datasets)
	if err != nil {
		return "", fmt.Errorf("marshal chart datasets: %w", err)
	}
	return template.JS(out), nil
}

const summaryHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>BRC Analytics - Monthly Summary</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            line-height: 1.6;
            color: #111827;
            padding: 2rem;
            max-width: 1200px;
            margin: 0 auto;
        }
        header { margin-bottom: 2rem; padding-bottom: 1rem; border-bottom: 2px solid #e5e7eb; }
        h1 { font-size: 1.875rem; font-weight: 700; margin-bottom: 0.5rem; }
        h2 {
            font-size: 1.25rem;
            font-weight: 600;
            margin: 2rem 0 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 1px solid #e5e7eb;
        }
        .subtitle { color: #6b7280; font-size: 0.875rem; }
        .chart-box { max-width: 900px; margin-bottom: 1rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { text-align: left; padding: 0.6rem; border-bottom: 1px solid #e5e7eb; }
        th { background: #f3f4f6; font-weight: 600; }
        .number { text-align: right; font-variant-numeric: tabular-nums; }
    </style>
</head>
<body>
    <header>
        <h1>Monthly Traffic Summary</h1>
        <div class="subtitle">Generated: {{.GeneratedAt}}</div>
    </header>

    <h2>Organism Page Visitors by Community</h2>
    <div class="chart-box"><canvas id="orgTrend"></canvas></div>

    <h2>Assembly Page Visitors by Community</h2>
    <div class="chart-box"><canvas id="asmTrend"></canvas></div>

    <h2>Content Page Totals (Unique Pages / Visitors / Pageviews)</h2>
    <table>
        <thead>
            <tr>
                <th>Month</th>
                <th class="number">Organism Pages</th>
                <th class="number">Assembly Pages</th>
                <th class="number">Workflow Pages</th>
                <th class="number">Priority Pathogens</th>
            </tr>
        </thead>
        <tbody>
            {{range .Totals}}
            <tr>
                <td>{{.Month}}</td>
                <td class="number">{{.Organisms.Count}} / {{.Organisms.Visitors}} / {{.Organisms.Pageviews}}</td>
                <td class="number">{{.Asm.Count}} / {{.Asm.Visitors}} / {{.Asm.Pageviews}}</td>
                <td class="number">{{.Workflows.Count}} / {{.Workflows.Visitors}} / {{.Workflows.Pageviews}}</td>
                <td class="number">{{.Pathogens.Count}} / {{.Pathogens.Visitors}} / {{.Pathogens.Pageviews}}</td>
            </tr>
            {{end}}
        </tbody>
    </table>

    <script>
        const months = {{.Months}};
        new Chart(document.getElementById('orgTrend'), {
            type: 'line',
            data: { labels: months, datasets: {{.OrgSeries}} }
        });
        new Chart(document.getElementById('asmTrend'), {
            type: 'line',
            data: { labels: months, datasets: {{.AsmSeries}} }
        });
    </script>
</body>
</html>`
