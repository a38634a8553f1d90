package pages

import "regexp"

// Kind identifies which part of the site a page URL belongs to.
type Kind string

const (
	KindNavigation       Kind = "navigation"
	KindOrganism         Kind = "organism"
	KindAssembly         Kind = "assembly"
	KindWorkflow         Kind = "workflow"
	KindPriorityPathogen Kind = "priority_pathogen"
	KindLearn            Kind = "learn"
	KindUnclassified     Kind = "unclassified"
)

// Category is the classification of a single page URL. Exactly one of the
// identifier fields is populated, depending on Kind.
type Category struct {
	Kind Kind

	// Page is the display name of a navigation page.
	Page string
	// TaxID is the NCBI taxonomy ID from an organism page URL.
	TaxID string
	// AssemblyID is the accession token from an assembly or workflow page
	// URL. It may use underscores in place of version dots
	// (GCA_001008285_1 for GCA_001008285.1) and is treated as opaque.
	AssemblyID string
	// Workflow is the workflow name from a workflow page URL.
	Workflow string
	// Pathogen is the slug from a priority pathogen page URL.
	Pathogen string
}

// navigationPages maps the site's top-level landing URLs to display names.
var navigationPages = map[string]string{
	"/":                        "Home",
	"/data/organisms":          "Organisms Index",
	"/data/assemblies":         "Assemblies Index",
	"/data/priority-pathogens": "Priority Pathogens Index",
	"/roadmap":                 "Roadmap",
	"/about":                   "About",
	"/calendar":                "Calendar",
}

// LearnPage is the display name shared by all /learn pages.
const LearnPage = "Learn"

var (
	organismRe = regexp.MustCompile(`^/data/organisms/(\d+)$`)
	pathogenRe = regexp.MustCompile(`^/data/priority-pathogens/([^/]+)$`)
	workflowRe = regexp.MustCompile(`^/data/assemblies/([^/]+)/workflow-(.+)$`)
	assemblyRe = regexp.MustCompile(`^/data/assemblies/([^/]+)$`)
	learnRe    = regexp.MustCompile(`^/learn(/.*)?$`)

	// Workflow slugs embed the IWC repository path; the short name sits
	// between the repo prefix and the main/versions ref segment.
	workflowNameRe = regexp.MustCompile(`^github-com-iwc-workflows-(.+?)-(main|versions)`)
)

// Classify maps a URL path to its page category. It is a pure function of
// the URL string: rules are tried in a fixed order, the workflow pattern
// before the plain assembly pattern (workflow URLs are a sub-path of
// assembly URLs), and anything unmatched falls through to Unclassified.
func Classify(url string) Category {
	if name, ok := navigationPages[url]; ok {
		return Category{Kind: KindNavigation, Page: name}
	}
	if m := organismRe.FindStringSubmatch(url); m != nil {
		return Category{Kind: KindOrganism, TaxID: m[1]}
	}
	if m := pathogenRe.FindStringSubmatch(url); m != nil {
		return Category{Kind: KindPriorityPathogen, Pathogen: m[1]}
	}
	if m := workflowRe.FindStringSubmatch(url); m != nil {
		return Category{Kind: KindWorkflow, AssemblyID: m[1], Workflow: m[2]}
	}
	if m := assemblyRe.FindStringSubmatch(url); m != nil {
		return Category{Kind: KindAssembly, AssemblyID: m[1]}
	}
	if learnRe.MatchString(url) {
		return Category{Kind: KindLearn, Page: LearnPage}
	}
	return Category{Kind: KindUnclassified}
}

// WorkflowName reduces a workflow page slug to the short workflow name
// ("chipseq-pe", "variant-calling"). Slugs that do not follow the IWC
// repository naming come back as "unknown".
func WorkflowName(slug string) string {
	if m := workflowNameRe.FindStringSubmatch(slug); m != nil {
		return m[1]
	}
	return "unknown"
}
