// Package ncbi resolves taxonomy and genome-assembly metadata from the
// NCBI eutils and Datasets APIs.
package ncbi

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"brcstats/internal/taxonomy"
)

const (
	DefaultEutilsBaseURL   = "https://eutils.ncbi.nlm.nih.gov"
	DefaultDatasetsBaseURL = "https://api.ncbi.nlm.nih.gov"

	// DefaultMinInterval paces lookups to stay under NCBI's unauthenticated
	// rate limit of ~3 requests per second.
	DefaultMinInterval = 350 * time.Millisecond

	requestTimeout = 30 * time.Second
)

// Client performs the external lookups. Every request waits on the pacing
// limiter first, so batch drivers looping over many IDs inherit the rate
// policy without their own sleeps.
type Client struct {
	eutilsBaseURL   string
	datasetsBaseURL string
	httpClient      *http.Client
	limiter         *rate.Limiter
	logger          *slog.Logger
}

// Config holds the client's construction parameters. Zero-value fields get
// defaults; tests pass a limiter of rate.NewLimiter(rate.Inf, 1) to run
// without pacing.
type Config struct {
	EutilsBaseURL   string
	DatasetsBaseURL string
	MinInterval     time.Duration
	HTTPClient      *http.Client
	Limiter         *rate.Limiter
}

// NewClient creates a resolver client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.EutilsBaseURL == "" {
		cfg.EutilsBaseURL = DefaultEutilsBaseURL
	}
	if cfg.DatasetsBaseURL == "" {
		cfg.DatasetsBaseURL = DefaultDatasetsBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: requestTimeout}
	}
	if cfg.Limiter == nil {
		interval := cfg.MinInterval
		if interval <= 0 {
			interval = DefaultMinInterval
		}
		cfg.Limiter = rate.NewLimiter(rate.Every(interval), 1)
	}
	return &Client{
		eutilsBaseURL:   strings.TrimRight(cfg.EutilsBaseURL, "/"),
		datasetsBaseURL: strings.TrimRight(cfg.DatasetsBaseURL, "/"),
		httpClient:      cfg.HTTPClient,
		limiter:         cfg.Limiter,
		logger:          logger,
	}
}

type taxonResponse struct {
	Taxa []struct {
		ScientificName string `xml:"ScientificName"`
		Lineage        string `xml:"Lineage"`
	} `xml:"Taxon"`
}

type assemblyReport struct {
	Reports []struct {
		Accession string `json:"accession"`
		Organism  struct {
			TaxID        json.Number `json:"tax_id"`
			OrganismName string      `json:"organism_name"`
			CommonName   string      `json:"common_name"`
		} `json:"organism"`
	} `json:"reports"`
}

// ResolveTaxon fetches the scientific name and lineage for a taxonomy ID.
// Any failure degrades to an Unknown entry with the error noted; a bad
// lookup must never stop the rest of a batch.
func (c *Client) ResolveTaxon(ctx context.Context, taxID string) taxonomy.Entry {
	fetchedAt := taxonomy.Timestamp(time.Now())
	entry := taxonomy.Entry{Name: taxonomy.Unknown, Lineage: taxonomy.Unknown, FetchedAt: fetchedAt}

	endpoint := fmt.Sprintf("%s/entrez/eutils/efetch.fcgi?db=taxonomy&id=%s&retmode=xml",
		c.eutilsBaseURL, url.QueryEscape(taxID))
	body, err := c.get(ctx, endpoint, "")
	if err != nil {
		entry.Error = err.Error()
		c.warn("taxonomy lookup failed", taxID, err)
		return entry
	}

	var parsed taxonResponse
	if err := xml.Unmarshal(body, &parsed); err != nil {
		entry.Error = fmt.Sprintf("parsing taxonomy response: %v", err)
		c.warn("taxonomy lookup failed", taxID, err)
		return entry
	}
	if len(parsed.Taxa) == 0 {
		entry.Error = "no taxon in response"
		return entry
	}

	if name := parsed.Taxa[0].ScientificName; name != "" {
		entry.Name = name
	}
	if lineage := parsed.Taxa[0].Lineage; lineage != "" {
		entry.Lineage = lineage
	}
	return entry
}

// ResolveAssembly fetches organism metadata for a genome assembly
// accession. Underscore version separators are normalized to dots before
// querying (GCA_001008285_1 -> GCA_001008285.1). Lineage is left Unknown;
// it is filled later from the taxonomy map.
func (c *Client) ResolveAssembly(ctx context.Context, assemblyID string) taxonomy.AssemblyEntry {
	fetchedAt := taxonomy.Timestamp(time.Now())
	entry := taxonomy.AssemblyEntry{Name: taxonomy.Unknown, Lineage: taxonomy.Unknown, FetchedAt: fetchedAt}

	accession := normalizeAccession(assemblyID)
	endpoint := fmt.Sprintf("%s/datasets/v2/genome/accession/%s/dataset_report",
		c.datasetsBaseURL, url.PathEscape(accession))
	body, err := c.get(ctx, endpoint, "application/json")
	if err != nil {
		entry.Error = err.Error()
		c.warn("assembly lookup failed", assemblyID, err)
		return entry
	}

	var parsed assemblyReport
	if err := json.Unmarshal(body, &parsed); err != nil {
		entry.Error = fmt.Sprintf("parsing assembly response: %v", err)
		c.warn("assembly lookup failed", assemblyID, err)
		return entry
	}
	if len(parsed.Reports) == 0 {
		entry.Error = "no report for accession"
		return entry
	}

	org := parsed.Reports[0].Organism
	entry.TaxID = org.TaxID.String()
	if entry.TaxID == "0" {
		entry.TaxID = ""
	}
	if org.OrganismName != "" {
		entry.Name = org.OrganismName
	}
	return entry
}

// AssembliesForTaxon lists the assembly accessions known for an organism,
// normalized to the site's underscore form. Failures return an empty list.
func (c *Client) AssembliesForTaxon(ctx context.Context, taxID string) []string {
	endpoint := fmt.Sprintf("%s/datasets/v2/genome/taxon/%s/dataset_report",
		c.datasetsBaseURL, url.PathEscape(taxID))
	body, err := c.get(ctx, endpoint, "application/json")
	if err != nil {
		c.warn("assembly listing failed", taxID, err)
		return nil
	}

	var parsed assemblyReport
	if err := json.Unmarshal(body, &parsed); err != nil {
		c.warn("assembly listing failed", taxID, err)
		return nil
	}

	accessions := make([]string, 0, len(parsed.Reports))
	for _, report := range parsed.Reports {
		if report.Accession != "" {
			accessions = append(accessions, strings.ReplaceAll(report.Accession, ".", "_"))
		}
	}
	return accessions
}

func (c *Client) get(ctx context.Context, endpoint, accept string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	return body, nil
}

func (c *Client) warn(msg, id string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, slog.String("id", id), slog.Any("error", err))
	}
}

// normalizeAccession converts the site's underscore-versioned assembly IDs
// back to NCBI accession form: the trailing _N becomes .N when it looks
// like a version suffix. The prefix left of the split must itself keep an
// underscore, so an unversioned GCA_001008285 stays intact.
func normalizeAccession(assemblyID string) string {
	idx := strings.LastIndex(assemblyID, "_")
	if idx <= 0 || idx == len(assemblyID)-1 {
		return assemblyID
	}
	if !strings.Contains(assemblyID[:idx], "_") {
		return assemblyID
	}
	suffix := assemblyID[idx+1:]
	for _, r := range suffix {
		if r < '0' || r > '9' {
			return assemblyID
		}
	}
	return assemblyID[:idx] + "." + suffix
}
