// Package community classifies taxonomic lineages into the coarse organism
// communities used for reporting.
package community

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Community is one of the fixed reporting groups.
type Community string

const (
	Viruses   Community = "Viruses"
	Bacteria  Community = "Bacteria"
	Fungi     Community = "Fungi"
	Protists  Community = "Protists"
	Vectors   Community = "Vectors"
	Hosts     Community = "Hosts"
	Helminths Community = "Helminths"
	Other     Community = "Other"
)

// Order is the declared community order. It doubles as the tie-break rule:
// when a lineage matches patterns from more than one community, the first
// community in this order wins.
var Order = []Community{Viruses, Bacteria, Fungi, Protists, Vectors, Hosts, Helminths, Other}

// Colors are the chart colors used by the HTML reports.
var Colors = map[Community]string{
	Viruses:   "#dc2626",
	Bacteria:  "#2563eb",
	Fungi:     "#65a30d",
	Protists:  "#7c3aed",
	Vectors:   "#ea580c",
	Hosts:     "#0891b2",
	Helminths: "#db2777",
	Other:     "#6b7280",
}

// Rule binds one community to its lineage substring patterns.
type Rule struct {
	Community Community `yaml:"community"`
	Patterns  []string  `yaml:"patterns"`
}

// DefaultTable is the canonical pattern table. Patterns are matched as
// case-insensitive substrings of the lineage, in declared order.
var DefaultTable = []Rule{
	{Viruses, []string{"Viruses", "Viridae", "virus", "Monkeypox", "Influenza", "Variola", "Orthopoxvirus"}},
	{Bacteria, []string{"Bacteria", "Proteobacteria", "Firmicutes", "Actinobacteria"}},
	{Fungi, []string{"Fungi", "Ascomycota", "Basidiomycota", "Mucoromycota", "Microsporidia"}},
	{Protists, []string{
		"Apicomplexa", "Plasmodium", "Trypanosoma", "Leishmania",
		"Acanthamoeba", "Giardia", "Cryptosporidium", "Toxoplasma",
		"Babesia", "Theileria", "Entamoeba", "Trichomonas", "Naegleria",
	}},
	{Vectors, []string{
		"Diptera", "Culicidae", "Anopheles", "Aedes", "Culex", "Glossina",
		"Ixodida", "Triatoma", "Rhodnius", "Phlebotomus", "Lutzomyia",
	}},
	{Hosts, []string{"Mammalia", "Aves", "Homo sapiens", "Mus musculus", "Gallus"}},
	{Helminths, []string{
		"Nematoda", "Platyhelminthes", "Schistosoma", "Ascaris",
		"Brugia", "Onchocerca", "Wuchereria", "Strongyloides",
		"Trichuris", "Ancylostoma", "Necator", "Fasciola", "Taenia",
	}},
}

// Classifier matches lineages against an ordered pattern table. The zero
// value is not usable; construct with New or Default.
type Classifier struct {
	rules []compiledRule
}

type compiledRule struct {
	community Community
	patterns  []string // lower-cased
}

// New builds a classifier from a pattern table.
func New(table []Rule) *Classifier {
	c := &Classifier{rules: make([]compiledRule, 0, len(table))}
	for _, r := range table {
		cr := compiledRule{community: r.Community, patterns: make([]string, 0, len(r.Patterns))}
		for _, p := range r.Patterns {
			cr.patterns = append(cr.patterns, strings.ToLower(p))
		}
		c.rules = append(c.rules, cr)
	}
	return c
}

// Default returns a classifier over DefaultTable.
func Default() *Classifier {
	return New(DefaultTable)
}

// LoadTable reads a pattern table override from a YAML file.
func LoadTable(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading community table %s: %w", path, err)
	}
	var table []Rule
	if err := yaml.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parsing community table %s: %w", path, err)
	}
	if len(table) == 0 {
		return nil, fmt.Errorf("community table %s is empty", path)
	}
	return table, nil
}

// Classify maps a semicolon-delimited lineage to a community. Empty or
// "Unknown" lineages are Other, as is anything no pattern matches.
func (c *Classifier) Classify(lineage string) Community {
	if lineage == "" || lineage == "Unknown" {
		return Other
	}
	lower := strings.ToLower(lineage)
	for _, rule := range c.rules {
		for _, p := range rule.patterns {
			if strings.Contains(lower, p) {
				return rule.community
			}
		}
	}
	return Other
}
