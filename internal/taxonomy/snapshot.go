// Package taxonomy provides the versioned on-disk cache of taxonomy and
// assembly metadata used to enrich traffic reports.
package taxonomy

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

// Unknown is the placeholder used wherever a name or lineage could not be
// resolved. Reports render it verbatim.
const Unknown = "Unknown"

// Entry holds the cached metadata for one taxonomy ID.
type Entry struct {
	Name      string `json:"name"`
	Lineage   string `json:"lineage"`
	FetchedAt string `json:"fetched_at"`
	Error     string `json:"error,omitempty"`
}

// AssemblyEntry holds the cached metadata for one genome assembly. Lineage
// is filled in a second pass by joining TaxID against the taxonomy map.
type AssemblyEntry struct {
	TaxID     string `json:"tax_id"`
	Name      string `json:"name"`
	Lineage   string `json:"lineage"`
	FetchedAt string `json:"fetched_at"`
	Error     string `json:"error,omitempty"`
}

// Snapshot is one immutable, timestamped version of the cache.
type Snapshot struct {
	Version        string                   `json:"version"`
	Created        string                   `json:"created"`
	SourceDataHash string                   `json:"source_data_hash"`
	Taxonomy       map[string]Entry         `json:"taxonomy"`
	Assembly       map[string]AssemblyEntry `json:"assembly"`
}

// NewSnapshot returns an empty snapshot. An empty snapshot is the valid
// state when no cache exists yet.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Taxonomy: make(map[string]Entry),
		Assembly: make(map[string]AssemblyEntry),
	}
}

// ScanMissing returns the required IDs that the snapshot does not cover.
// A non-empty result means the cache needs a refresh; it is not corruption.
func (s *Snapshot) ScanMissing(taxIDs, assemblyIDs []string) (missingTax, missingAssembly []string) {
	for _, id := range taxIDs {
		if _, ok := s.Taxonomy[id]; !ok {
			missingTax = append(missingTax, id)
		}
	}
	for _, id := range assemblyIDs {
		if _, ok := s.Assembly[id]; !ok {
			missingAssembly = append(missingAssembly, id)
		}
	}
	return missingTax, missingAssembly
}

// FillAssemblyLineages copies the taxonomy lineage onto every assembly
// entry whose TaxID is present in the taxonomy map. Idempotent.
func (s *Snapshot) FillAssemblyLineages() {
	for id, asm := range s.Assembly {
		if asm.TaxID == "" {
			continue
		}
		if tax, ok := s.Taxonomy[asm.TaxID]; ok {
			asm.Lineage = tax.Lineage
			s.Assembly[id] = asm
		}
	}
}

// NameForTaxon returns the cached organism name for a tax ID, or Unknown.
func (s *Snapshot) NameForTaxon(taxID string) string {
	if e, ok := s.Taxonomy[taxID]; ok && e.Name != "" {
		return e.Name
	}
	return Unknown
}

// NameForAssembly returns the cached organism name for an assembly ID, or
// Unknown.
func (s *Snapshot) NameForAssembly(assemblyID string) string {
	if e, ok := s.Assembly[assemblyID]; ok && e.Name != "" {
		return e.Name
	}
	return Unknown
}

// LineageForTaxon returns the cached lineage for a tax ID, or Unknown.
func (s *Snapshot) LineageForTaxon(taxID string) string {
	if e, ok := s.Taxonomy[taxID]; ok && e.Lineage != "" {
		return e.Lineage
	}
	return Unknown
}

// LineageForAssembly returns the cached lineage for an assembly ID, or
// Unknown.
func (s *Snapshot) LineageForAssembly(assemblyID string) string {
	if e, ok := s.Assembly[assemblyID]; ok && e.Lineage != "" {
		return e.Lineage
	}
	return Unknown
}

// SourceHash fingerprints the set of IDs a snapshot was built to cover.
// Informational only; nothing verifies it against the maps' contents.
func SourceHash(taxIDs, assemblyIDs []string) string {
	tax := append([]string(nil), taxIDs...)
	asm := append([]string(nil), assemblyIDs...)
	sort.Strings(tax)
	sort.Strings(asm)

	combined := strings.Join(tax, ",") + "|" + strings.Join(asm, ",")
	sum := sha256.Sum256([]byte(combined))
	return hex.EncodeToString(sum[:])[:16]
}

// Timestamp is the wire format for FetchedAt and Created fields.
func Timestamp(t time.Time) string {
	return t.Format(time.RFC3339)
}
