// Package stats aggregates classified page rows into the figures the
// reports are built from.
package stats

import (
	"sort"

	"brcstats/internal/community"
	"brcstats/internal/pages"
)

// Bucket accumulates traffic over a group of pages.
type Bucket struct {
	Count     int
	Visitors  int
	Pageviews int
}

func (b *Bucket) add(visitors, pageviews int) {
	b.Count++
	b.Visitors += visitors
	b.Pageviews += pageviews
}

// Entry is one content page keyed by its domain ID (tax ID, assembly
// accession or pathogen slug).
type Entry struct {
	ID         string
	Visitors   int
	Pageviews  int
	TimeOnPage *int // seconds, nil when the export had no figure
}

// WorkflowEntry is one workflow configuration page.
type WorkflowEntry struct {
	AssemblyID string
	Workflow   string
	Visitors   int
	Pageviews  int
	TimeOnPage *int // seconds, nil when the export had no figure
}

// PageStats holds the classified traffic of one export file.
type PageStats struct {
	Navigation map[string]Bucket // keyed by page name ("Home", "Roadmap", ...)
	Organisms  []Entry
	Pathogens  []Entry
	Assemblies []Entry
	Workflows  []WorkflowEntry
	Learn      Bucket
}

// Collect classifies every row and groups it into PageStats. Content
// entries come back sorted by visitors descending, ID ascending on ties,
// so downstream rendering is deterministic regardless of input order.
func Collect(rows []pages.Row) PageStats {
	stats := PageStats{Navigation: make(map[string]Bucket)}

	for _, row := range rows {
		cat := pages.Classify(row.URL)
		switch cat.Kind {
		case pages.KindNavigation:
			bucket := stats.Navigation[cat.Page]
			bucket.add(row.Visitors, row.Pageviews)
			stats.Navigation[cat.Page] = bucket
		case pages.KindOrganism:
			stats.Organisms = append(stats.Organisms, entryFromRow(cat.TaxID, row))
		case pages.KindPriorityPathogen:
			stats.Pathogens = append(stats.Pathogens, entryFromRow(cat.Pathogen, row))
		case pages.KindAssembly:
			stats.Assemblies = append(stats.Assemblies, entryFromRow(cat.AssemblyID, row))
		case pages.KindWorkflow:
			stats.Workflows = append(stats.Workflows, WorkflowEntry{
				AssemblyID: cat.AssemblyID,
				Workflow:   cat.Workflow,
				Visitors:   row.Visitors,
				Pageviews:  row.Pageviews,
				TimeOnPage: row.TimeOnPage,
			})
		case pages.KindLearn:
			stats.Learn.add(row.Visitors, row.Pageviews)
		}
	}

	sortEntries(stats.Organisms)
	sortEntries(stats.Pathogens)
	sortEntries(stats.Assemblies)
	sort.SliceStable(stats.Workflows, func(i, j int) bool {
		a, b := stats.Workflows[i], stats.Workflows[j]
		if a.Visitors != b.Visitors {
			return a.Visitors > b.Visitors
		}
		if a.AssemblyID != b.AssemblyID {
			return a.AssemblyID < b.AssemblyID
		}
		return a.Workflow < b.Workflow
	})
	return stats
}

func entryFromRow(id string, row pages.Row) Entry {
	return Entry{ID: id, Visitors: row.Visitors, Pageviews: row.Pageviews, TimeOnPage: row.TimeOnPage}
}

func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Visitors != entries[j].Visitors {
			return entries[i].Visitors > entries[j].Visitors
		}
		return entries[i].ID < entries[j].ID
	})
}

// Totals sums a slice of entries into one bucket.
func Totals(entries []Entry) Bucket {
	var b Bucket
	for _, e := range entries {
		b.add(e.Visitors, e.Pageviews)
	}
	return b
}

// WorkflowTotals sums workflow entries into one bucket.
func WorkflowTotals(entries []WorkflowEntry) Bucket {
	var b Bucket
	for _, e := range entries {
		b.add(e.Visitors, e.Pageviews)
	}
	return b
}

// AssembliesWithWorkflows returns the set of assembly IDs that had at
// least one workflow page visit.
func (s PageStats) AssembliesWithWorkflows() map[string]bool {
	set := make(map[string]bool, len(s.Workflows))
	for _, wf := range s.Workflows {
		set[wf.AssemblyID] = true
	}
	return set
}

// AssembliesWithoutWorkflowVisits returns the assembly pages whose
// workflow pages saw no traffic in the same period.
func (s PageStats) AssembliesWithoutWorkflowVisits() []Entry {
	visited := s.AssembliesWithWorkflows()
	var out []Entry
	for _, e := range s.Assemblies {
		if !visited[e.ID] {
			out = append(out, e)
		}
	}
	return out
}

// AssemblyIDs returns the set of assembly IDs seen in the data.
func (s PageStats) AssemblyIDs() map[string]bool {
	set := make(map[string]bool, len(s.Assemblies))
	for _, e := range s.Assemblies {
		set[e.ID] = true
	}
	return set
}

// OrganismsWithoutAssemblyVisits returns the organism pages none of whose
// known assemblies appear in the data. assembliesFor lists the assembly
// accessions registered for a tax ID, in underscore form.
func (s PageStats) OrganismsWithoutAssemblyVisits(assembliesFor func(taxID string) []string) []Entry {
	inData := s.AssemblyIDs()
	var out []Entry
	for _, e := range s.Organisms {
		seen := false
		for _, asm := range assembliesFor(e.ID) {
			if inData[asm] {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, e)
		}
	}
	return out
}

// Rollup accumulates per-community traffic for one page group.
type Rollup map[community.Community]Bucket

// RollupByCommunity groups entries by the community their lineage maps
// to. lineageFor resolves an entry ID to an NCBI lineage string; entries
// it cannot resolve land in Other.
func RollupByCommunity(entries []Entry, lineageFor func(id string) string, classifier *community.Classifier) Rollup {
	rollup := make(Rollup)
	for _, e := range entries {
		comm := classifier.Classify(lineageFor(e.ID))
		bucket := rollup[comm]
		bucket.add(e.Visitors, e.Pageviews)
		rollup[comm] = bucket
	}
	return rollup
}

// RollupWorkflowsByCommunity groups workflow entries by the community of
// their parent assembly.
func RollupWorkflowsByCommunity(entries []WorkflowEntry, lineageFor func(assemblyID string) string, classifier *community.Classifier) Rollup {
	rollup := make(Rollup)
	for _, e := range entries {
		comm := classifier.Classify(lineageFor(e.AssemblyID))
		bucket := rollup[comm]
		bucket.add(e.Visitors, e.Pageviews)
		rollup[comm] = bucket
	}
	return rollup
}
