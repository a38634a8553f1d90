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

// HTMLAnalysis is the input for the HTML rendition of the analysis
// report. Community maps key entry IDs to their resolved community; IDs
// missing from the maps render as Other.
type HTMLAnalysis struct {
	Period              string
	Generated           time.Time
	Data                AnalysisData
	OrganismCommunities map[string]community.Community
	AssemblyCommunities map[string]community.Community
}

type chartData struct {
	Labels template.JS
	Values template.JS
	Colors template.JS
}

type card struct {
	Title string
	Value string
}

type htmlRow struct {
	ID        string
	Name      string
	Community community.Community
	Visitors  int
	Pageviews int
	Biased    bool
}

type htmlAnalysisView struct {
	Period       string
	GeneratedAt  string
	Cards        []card
	NavChart     chartData
	OrgChart     chartData
	AsmChart     chartData
	OrganismRows []htmlRow
	AssemblyRows []htmlRow
}

// RenderAnalysisHTML renders the analysis report as a standalone HTML
// page with Chart.js visualizations.
func RenderAnalysisHTML(a HTMLAnalysis) ([]byte, error) {
	view, err := buildAnalysisView(a)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("analysis").Parse(analysisHTMLTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute template: %w", err)
	}
	return buf.Bytes(), nil
}

func buildAnalysisView(a HTMLAnalysis) (htmlAnalysisView, error) {
	org := stats.Totals(a.Data.Stats.Organisms)
	asm := stats.Totals(a.Data.Stats.Assemblies)
	wf := stats.WorkflowTotals(a.Data.Stats.Workflows)
	pp := stats.Totals(a.Data.Stats.Pathogens)

	view := htmlAnalysisView{
		Period:      a.Period,
		GeneratedAt: Timestamp(a.Generated),
		Cards: []card{
			{"Organism Pages", fmt.Sprintf("%d / %d visitors", org.Count, org.Visitors)},
			{"Assembly Pages", fmt.Sprintf("%d / %d visitors", asm.Count, asm.Visitors)},
			{"Workflow Pages", fmt.Sprintf("%d / %d visitors", wf.Count, wf.Visitors)},
			{"Priority Pathogens", fmt.Sprintf("%d / %d visitors", pp.Count, pp.Visitors)},
		},
	}

	var err error
	if view.NavChart, err = navigationChart(a.Data.Stats); err != nil {
		return view, err
	}
	if view.OrgChart, err = communityChart(rollupFor(a.Data.Stats.Organisms, a.OrganismCommunities)); err != nil {
		return view, err
	}
	if view.AsmChart, err = communityChart(rollupFor(a.Data.Stats.Assemblies, a.AssemblyCommunities)); err != nil {
		return view, err
	}

	for _, e := range a.Data.Stats.Organisms {
		view.OrganismRows = append(view.OrganismRows, htmlRow{
			ID:        e.ID,
			Name:      lookupName(a.Data.OrganismNames, e.ID),
			Community: communityOf(a.OrganismCommunities, e.ID),
			Visitors:  e.Visitors,
			Pageviews: e.Pageviews,
		})
	}
	assemblies := a.Data.Stats.Assemblies
	if len(assemblies) > topAssemblyRows {
		assemblies = assemblies[:topAssemblyRows]
	}
	for _, e := range assemblies {
		view.AssemblyRows = append(view.AssemblyRows, htmlRow{
			ID:        e.ID,
			Name:      lookupName(a.Data.AssemblyNames, e.ID),
			Community: communityOf(a.AssemblyCommunities, e.ID),
			Visitors:  e.Visitors,
			Pageviews: e.Pageviews,
			Biased:    a.Data.BiasedAssemblies[e.ID],
		})
	}
	return view, nil
}

func communityOf(m map[string]community.Community, id string) community.Community {
	if comm, ok := m[id]; ok {
		return comm
	}
	return community.Other
}

func rollupFor(entries []stats.Entry, communities map[string]community.Community) stats.Rollup {
	rollup := make(stats.Rollup)
	for _, e := range entries {
		comm := communityOf(communities, e.ID)
		bucket := rollup[comm]
		bucket.Count++
		bucket.Visitors += e.Visitors
		bucket.Pageviews += e.Pageviews
		rollup[comm] = bucket
	}
	return rollup
}

func navigationChart(s stats.PageStats) (chartData, error) {
	var labels []string
	var values []int
	for _, name := range navigationOrder {
		bucket, ok := s.Navigation[name]
		if !ok {
			continue
		}
		labels = append(labels, name)
		values = append(values, bucket.Visitors)
	}
	colors := make([]string, len(labels))
	for i := range colors {
		colors[i] = "#3b82f6"
	}
	return marshalChart(labels, values, colors)
}

func communityChart(rollup stats.Rollup) (chartData, error) {
	var labels []string
	var values []int
	var colors []string
	for _, comm := range community.Order {
		bucket, ok := rollup[comm]
		if !ok || bucket.Visitors == 0 {
			continue
		}
		labels = append(labels, string(comm))
		values = append(values, bucket.Visitors)
		colors = append(colors, community.Colors[comm])
	}
	return marshalChart(labels, values, colors)
}

func marshalChart(labels []string, values []int, colors []string) (chartData, error) {
	var cd chartData
	for _, pair := range []struct {
		dst *template.JS
		src any
	}{
		{&cd.Labels, labels},
		{&cd.Values, values},
		{&cd.Colors, colors},
	} {
		data, err := json.Marshal(pair.src)
		if err != nil {
			return cd, fmt.Errorf("marshal chart data: %w", err)
		}
		*pair.dst = template.JS(data)
	}
	return cd, nil
}

const analysisHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>BRC Analytics - Organism Analysis</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js@4"></script>
    <style>
        :root {
            --bg-primary: #ffffff;
            --bg-secondary: #f3f4f6;
            --text-primary: #111827;
            --text-secondary: #6b7280;
            --border-color: #e5e7eb;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            line-height: 1.6;
            color: var(--text-primary);
            background-color: var(--bg-primary);
            padding: 2rem;
            max-width: 1200px;
            margin: 0 auto;
        }
        header {
            margin-bottom: 2rem;
            padding-bottom: 1rem;
            border-bottom: 2px solid var(--border-color);
        }
        h1 { font-size: 1.875rem; font-weight: 700; margin-bottom: 0.5rem; }
        h2 {
            font-size: 1.25rem;
            font-weight: 600;
            margin-bottom: 1rem;
            padding-bottom: 0.5rem;
            border-bottom: 1px solid var(--border-color);
        }
        .subtitle { color: var(--text-secondary); font-size: 0.875rem; }
        .grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(200px, 1fr));
            gap: 1rem;
            margin-bottom: 2rem;
        }
        .card { background: var(--bg-secondary); border-radius: 0.5rem; padding: 1rem; }
        .card-title {
            font-size: 0.75rem;
            color: var(--text-secondary);
            text-transform: uppercase;
            letter-spacing: 0.05em;
            margin-bottom: 0.25rem;
        }
        .card-value { font-size: 1.25rem; font-weight: 600; }
        .section { margin-bottom: 2rem; }
        .chart-box { max-width: 700px; margin-bottom: 1rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { text-align: left; padding: 0.6rem; border-bottom: 1px solid var(--border-color); }
        th { background: var(--bg-secondary); font-weight: 600; }
        .number { text-align: right; font-variant-numeric: tabular-nums; }
        footer {
            margin-top: 3rem;
            padding-top: 1rem;
            border-top: 1px solid var(--border-color);
            text-align: center;
            color: var(--text-secondary);
            font-size: 0.75rem;
        }
    </style>
</head>
<body>
    <header>
        <h1>Organism and Pathogen Page Analysis</h1>
        <div class="subtitle">Period: {{.Period}} &middot; Generated: {{.GeneratedAt}}</div>
    </header>

    <section class="section">
        <div class="grid">
            {{range .Cards}}
            <div class="card">
                <div class="card-title">{{.Title}}</div>
                <div class="card-value">{{.Value}}</div>
            </div>
            {{end}}
        </div>
    </section>

    <section class="section">
        <h2>High-Level Navigation Pages</h2>
        <div class="chart-box"><canvas id="navChart"></canvas></div>
    </section>

    <section class="section">
        <h2>Organism Pages by Community</h2>
        <div class="chart-box"><canvas id="orgChart"></canvas></div>
        <table>
            <thead>
                <tr>
                    <th>Tax ID</th><th>Organism</th><th>Community</th>
                    <th class="number">Visitors</th><th class="number">Pageviews</th>
                </tr>
            </thead>
            <tbody>
                {{range .OrganismRows}}
                <tr>
                    <td>{{.ID}}</td><td>{{.Name}}</td><td>{{.Community}}</td>
                    <td class="number">{{.Visitors}}</td><td class="number">{{.Pageviews}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </section>

    <section class="section">
        <h2>Assembly Pages by Community</h2>
        <div class="chart-box"><canvas id="asmChart"></canvas></div>
        <table>
            <thead>
                <tr>
                    <th>Assembly ID</th><th>Organism</th><th>Community</th>
                    <th class="number">Visitors</th><th class="number">Pageviews</th>
                </tr>
            </thead>
            <tbody>
                {{range .AssemblyRows}}
                <tr>
                    <td>{{.ID}}{{if .Biased}} *{{end}}</td><td>{{.Name}}</td><td>{{.Community}}</td>
                    <td class="number">{{.Visitors}}</td><td class="number">{{.Pageviews}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        <p class="subtitle">* = May have first-in-list bias (appears early in assembly listings)</p>
    </section>

    <script>
        new Chart(document.getElementById('navChart'), {
            type: 'bar',
            data: {
                labels: {{.NavChart.Labels}},
                datasets: [{
                    label: 'Visitors',
                    data: {{.NavChart.Values}},
                    backgroundColor: {{.NavChart.Colors}}
                }]
            },
            options: { plugins: { legend: { display: false } } }
        });
        new Chart(document.getElementById('orgChart'), {
            type: 'doughnut',
            data: {
                labels: {{.OrgChart.Labels}},
                datasets: [{
                    data: {{.OrgChart.Values}},
                    backgroundColor: {{.OrgChart.Colors}}
                }]
            }
        });
        new Chart(document.getElementById('asmChart'), {
            type: 'doughnut',
            data: {
                labels: {{.AsmChart.Labels}},
                datasets: [{
                    data: {{.AsmChart.Values}},
                    backgroundColor: {{.AsmChart.Colors}}
                }]
            }
        });
    </script>

    <footer>
        <p>BRC Analytics</p>
    </footer>
</body>
</html>`
