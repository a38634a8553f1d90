package taxonomy_test

import (
	"os"
	"path/filepath"
	"testing"

	"brcstats/internal/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *taxonomy.Store {
	t.Helper()
	store, err := taxonomy.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return store
}

func TestStoreLoad(t *testing.T) {
	t.Run("Missing cache is a valid empty state", func(t *testing.T) {
		store := newTestStore(t)

		snap, err := store.Load("")
		require.NoError(t, err)
		assert.Empty(t, snap.Version)
		assert.Empty(t, snap.Taxonomy)
		assert.Empty(t, snap.Assembly)
	})

	t.Run("Missing named version is also empty", func(t *testing.T) {
		store := newTestStore(t)

		snap, err := store.Load("2025-01-01_00-00-00")
		require.NoError(t, err)
		assert.Empty(t, snap.Taxonomy)
	})

	t.Run("Legacy flat caches load with a legacy version", func(t *testing.T) {
		dir := t.TempDir()
		legacy := `{"taxonomy": {"9606": {"name": "Homo sapiens", "lineage": "Mammalia"}}, "assembly": {}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "cache_old.json"), []byte(legacy), 0o644))

		store, err := taxonomy.NewStore(dir, nil)
		require.NoError(t, err)
		snap, err := store.Load("old")
		require.NoError(t, err)
		assert.Equal(t, "legacy", snap.Version)
		assert.Equal(t, "Homo sapiens", snap.NameForTaxon("9606"))
	})
}

func TestStoreSaveRoundTrip(t *testing.T) {
	store := newTestStore(t)

	snap := taxonomy.NewSnapshot()
	snap.Taxonomy["9606"] = taxonomy.Entry{Name: "Homo sapiens", Lineage: "cellular organisms; Mammalia"}
	snap.Assembly["GCA_000001_1"] = taxonomy.AssemblyEntry{TaxID: "9606", Name: "Homo sapiens", Lineage: "Unknown"}
	snap.SourceDataHash = taxonomy.SourceHash([]string{"9606"}, []string{"GCA_000001_1"})

	path, err := store.Save(snap, "")
	require.NoError(t, err)
	assert.FileExists(t, path)

	t.Run("Load with no version resolves the latest pointer", func(t *testing.T) {
		loaded, err := store.Load("")
		require.NoError(t, err)
		assert.Equal(t, snap.Taxonomy, loaded.Taxonomy)
		assert.Equal(t, snap.Assembly, loaded.Assembly)
		assert.Equal(t, snap.Version, loaded.Version)
		assert.Equal(t, snap.SourceDataHash, loaded.SourceDataHash)
	})

	t.Run("Saving again keeps prior versions inspectable", func(t *testing.T) {
		second := taxonomy.NewSnapshot()
		second.Taxonomy["5833"] = taxonomy.Entry{Name: "Plasmodium falciparum", Lineage: "Apicomplexa"}
		_, err := store.Save(second, "2099-01-01_00-00-00")
		require.NoError(t, err)

		latest, err := store.Load("")
		require.NoError(t, err)
		assert.Equal(t, "2099-01-01_00-00-00", latest.Version)

		prior, err := store.Load(snap.Version)
		require.NoError(t, err)
		assert.Equal(t, "Homo sapiens", prior.NameForTaxon("9606"))
	})
}

func TestScanMissing(t *testing.T) {
	snap := taxonomy.NewSnapshot()
	snap.Taxonomy["9606"] = taxonomy.Entry{Name: "Homo sapiens"}
	snap.Assembly["GCA_1"] = taxonomy.AssemblyEntry{Name: "x"}

	missingTax, missingAsm := snap.ScanMissing([]string{"9606", "5833"}, []string{"GCA_1", "GCA_2"})
	assert.Equal(t, []string{"5833"}, missingTax)
	assert.Equal(t, []string{"GCA_2"}, missingAsm)

	t.Run("Fully covered snapshot has nothing missing", func(t *testing.T) {
		mt, ma := snap.ScanMissing([]string{"9606"}, []string{"GCA_1"})
		assert.Empty(t, mt)
		assert.Empty(t, ma)
	})
}

func TestFillAssemblyLineages(t *testing.T) {
	snap := taxonomy.NewSnapshot()
	snap.Taxonomy["9606"] = taxonomy.Entry{Name: "Homo sapiens", Lineage: "cellular organisms; Mammalia"}
	snap.Assembly["GCA_1"] = taxonomy.AssemblyEntry{TaxID: "9606", Name: "Homo sapiens", Lineage: "Unknown"}
	snap.Assembly["GCA_2"] = taxonomy.AssemblyEntry{TaxID: "", Name: "Unknown", Lineage: "Unknown"}
	snap.Assembly["GCA_3"] = taxonomy.AssemblyEntry{TaxID: "404", Name: "x", Lineage: "Unknown"}

	snap.FillAssemblyLineages()
	assert.Equal(t, "cellular organisms; Mammalia", snap.Assembly["GCA_1"].Lineage)
	assert.Equal(t, "Unknown", snap.Assembly["GCA_2"].Lineage)
	assert.Equal(t, "Unknown", snap.Assembly["GCA_3"].Lineage)

	t.Run("Fill is idempotent", func(t *testing.T) {
		before := snap.Assembly
		snap.FillAssemblyLineages()
		assert.Equal(t, before, snap.Assembly)
	})
}

func TestSourceHash(t *testing.T) {
	h1 := taxonomy.SourceHash([]string{"b", "a"}, []string{"z"})
	h2 := taxonomy.SourceHash([]string{"a", "b"}, []string{"z"})
	assert.Equal(t, h1, h2, "hash must not depend on input order")
	assert.Len(t, h1, 16)

	h3 := taxonomy.SourceHash([]string{"a", "b", "c"}, []string{"z"})
	assert.NotEqual(t, h1, h3)
}
