package ncbi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/time/rate"

	"brcstats/internal/ncbi"
	"brcstats/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*ncbi.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := ncbi.NewClient(ncbi.Config{
		EutilsBaseURL:   server.URL,
		DatasetsBaseURL: server.URL,
		Limiter:         rate.NewLimiter(rate.Inf, 1),
	}, nil)
	return client, server
}

func TestResolveTaxon(t *testing.T) {
	t.Run("Parses name and lineage from eutils XML", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Contains(t, r.URL.RawQuery, "db=taxonomy")
			assert.Contains(t, r.URL.RawQuery, "id=9606")
			w.Write([]byte(`<?xml version="1.0"?>
<TaxaSet>
  <Taxon>
    <TaxId>9606</TaxId>
    <ScientificName>Homo sapiens</ScientificName>
    <Lineage>cellular organisms; Eukaryota; Mammalia</Lineage>
  </Taxon>
</TaxaSet>`))
		}))

		entry := client.ResolveTaxon(context.Background(), "9606")
		assert.Equal(t, "Homo sapiens", entry.Name)
		assert.Equal(t, "cellular organisms; Eukaryota; Mammalia", entry.Lineage)
		assert.Empty(t, entry.Error)
		assert.NotEmpty(t, entry.FetchedAt)
	})

	t.Run("Server errors degrade to Unknown with a note", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		entry := client.ResolveTaxon(context.Background(), "9606")
		assert.Equal(t, taxonomy.Unknown, entry.Name)
		assert.Equal(t, taxonomy.Unknown, entry.Lineage)
		assert.NotEmpty(t, entry.Error)
	})

	t.Run("Malformed XML degrades to Unknown", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("<TaxaSet><Taxon>"))
		}))

		entry := client.ResolveTaxon(context.Background(), "9606")
		assert.Equal(t, taxonomy.Unknown, entry.Name)
		assert.NotEmpty(t, entry.Error)
	})

	t.Run("Unreachable server degrades rather than panics", func(t *testing.T) {
		server := httptest.NewServer(http.NotFoundHandler())
		server.Close()
		client := ncbi.NewClient(ncbi.Config{
			EutilsBaseURL:   server.URL,
			DatasetsBaseURL: server.URL,
			Limiter:         rate.NewLimiter(rate.Inf, 1),
		}, nil)

		entry := client.ResolveTaxon(context.Background(), "9606")
		assert.Equal(t, taxonomy.Unknown, entry.Name)
		assert.NotEmpty(t, entry.Error)
	})
}

func TestResolveAssembly(t *testing.T) {
	t.Run("Normalizes accession and extracts organism", func(t *testing.T) {
		var requestedPath string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestedPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reports":[{"accession":"GCA_001008285.1","organism":{"tax_id":10244,"organism_name":"Monkeypox virus"}}]}`))
		}))

		entry := client.ResolveAssembly(context.Background(), "GCA_001008285_1")
		require.Contains(t, requestedPath, "GCA_001008285.1")
		assert.Equal(t, "10244", entry.TaxID)
		assert.Equal(t, "Monkeypox virus", entry.Name)
		assert.Equal(t, taxonomy.Unknown, entry.Lineage, "lineage is filled later from the taxonomy map")
	})

	t.Run("Accession without a version suffix passes through unchanged", func(t *testing.T) {
		var requestedPath string
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestedPath = r.URL.Path
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"reports":[{"accession":"GCA_001008285.1","organism":{"tax_id":10244,"organism_name":"Monkeypox virus"}}]}`))
		}))

		client.ResolveAssembly(context.Background(), "GCA_001008285")
		assert.Contains(t, requestedPath, "/GCA_001008285/")
		assert.NotContains(t, requestedPath, "GCA.001008285")
	})

	t.Run("Empty report list yields Unknown", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"reports":[]}`))
		}))

		entry := client.ResolveAssembly(context.Background(), "GCA_404_1")
		assert.Equal(t, taxonomy.Unknown, entry.Name)
		assert.Empty(t, entry.TaxID)
		assert.NotEmpty(t, entry.Error)
	})
}

func TestAssembliesForTaxon(t *testing.T) {
	t.Run("Returns accessions in underscore form", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"reports":[{"accession":"GCA_001008285.1"},{"accession":"GCF_000001405.40"}]}`))
		}))

		got := client.AssembliesForTaxon(context.Background(), "9606")
		assert.Equal(t, []string{"GCA_001008285_1", "GCF_000001405_40"}, got)
	})

	t.Run("Failures return an empty list", func(t *testing.T) {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusBadGateway)
		}))

		assert.Empty(t, client.AssembliesForTaxon(context.Background(), "9606"))
	})
}
