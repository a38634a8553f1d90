// Package plausible queries the Plausible Stats API v1 and writes the
// tab-separated exports the analysis pipeline consumes.
package plausible

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// PropertyPage is the breakdown property for top-pages exports.
	PropertyPage = "event:page"

	// Visit dimension properties used by the demographics exports.
	PropertyCountry = "visit:country"
	PropertyDevice  = "visit:device"
	PropertyBrowser = "visit:browser"
	PropertySource  = "visit:source"

	// maxPageLimit is the v1 API's per-request maximum.
	maxPageLimit = 1000

	defaultTimeout = 30 * time.Second
)

// Client talks to one Plausible instance for one site.
type Client struct {
	baseURL    string
	apiKey     string
	siteID     string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an API client. baseURL must not have a trailing slash
// problem; it is normalized here.
func NewClient(baseURL, apiKey, siteID string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		siteID:     siteID,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger,
	}
}

// SetHTTPClient overrides the HTTP client; intended for tests.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.httpClient = hc
}

// DateRange selects the query window: either a preset period ("7d", "30d",
// "6mo", "month", "year", ...) or a custom start/end date pair.
type DateRange struct {
	Period string
	Start  string // YYYY-MM-DD, used when Period is empty
	End    string // YYYY-MM-DD
}

// IsCustom reports whether the range is an explicit date pair.
func (d DateRange) IsCustom() bool {
	return d.Period == ""
}

// Slug renders the range for use in file names.
func (d DateRange) Slug() string {
	if d.IsCustom() {
		return fmt.Sprintf("%s-to-%s", d.Start, d.End)
	}
	return d.Period
}

// Row is one breakdown result: a dimension value with its visit metrics.
type Row struct {
	Key           string
	Visitors      int
	Pageviews     int
	BounceRate    *float64
	VisitDuration *float64 // seconds
}

type breakdownResponse struct {
	Results []map[string]json.RawMessage `json:"results"`
}

// Breakdown queries the v1 stats breakdown endpoint for one property,
// following pagination until a short page signals the end.
func (c *Client) Breakdown(ctx context.Context, property string, dr DateRange) ([]Row, error) {
	params := url.Values{}
	params.Set("site_id", c.siteID)
	params.Set("property", property)
	params.Set("metrics", "visitors,pageviews,bounce_rate,visit_duration")
	params.Set("limit", fmt.Sprintf("%d", maxPageLimit))
	if dr.IsCustom() {
		params.Set("period", "custom")
		params.Set("date", fmt.Sprintf("%s,%s", dr.Start, dr.End))
	} else {
		params.Set("period", dr.Period)
	}

	dimension := dimensionKey(property)
	var rows []Row
	for page := 1; ; page++ {
		params.Set("page", fmt.Sprintf("%d", page))
		endpoint := fmt.Sprintf("%s/api/v1/stats/breakdown?%s", c.baseURL, params.Encode())

		results, err := c.fetchPage(ctx, endpoint)
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			break
		}

		for _, raw := range results {
			rows = append(rows, decodeRow(raw, dimension))
		}
		if c.logger != nil {
			c.logger.Debug("Fetched breakdown page",
				slog.String("property", property),
				slog.Int("page", page),
				slog.Int("results", len(results)))
		}

		if len(results) < maxPageLimit {
			break
		}
	}
	return rows, nil
}

func (c *Client) fetchPage(ctx context.Context, endpoint string) ([]map[string]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying analytics API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading analytics response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analytics API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed breakdownResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parsing analytics response: %w", err)
	}
	return parsed.Results, nil
}

// dimensionKey maps a breakdown property to the key its results use
// ("event:page" -> "page", "visit:country" -> "country").
func dimensionKey(property string) string {
	if idx := strings.Index(property, ":"); idx >= 0 {
		return property[idx+1:]
	}
	return property
}

func decodeRow(raw map[string]json.RawMessage, dimension string) Row {
	var row Row
	if v, ok := raw[dimension]; ok {
		_ = json.Unmarshal(v, &row.Key)
	}
	if v, ok := raw["visitors"]; ok {
		_ = json.Unmarshal(v, &row.Visitors)
	}
	if v, ok := raw["pageviews"]; ok {
		_ = json.Unmarshal(v, &row.Pageviews)
	}
	// Absent metrics come back as JSON null; keep them nil, not zero.
	if v, ok := raw["bounce_rate"]; ok && string(v) != "null" {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			row.BounceRate = &f
		}
	}
	if v, ok := raw["visit_duration"]; ok && string(v) != "null" {
		var f float64
		if json.Unmarshal(v, &f) == nil {
			row.VisitDuration = &f
		}
	}
	return row
}
