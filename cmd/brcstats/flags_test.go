package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFlags(t *testing.T) {
	t.Run("fetch months takes a from-to month range", func(t *testing.T) {
		flags := fetchMonthsCmd.Flags()
		require.NotNil(t, flags.Lookup("from"))
		require.NotNil(t, flags.Lookup("to"))
		assert.Equal(t, "2024-10", flags.Lookup("from").DefValue)
		assert.NotNil(t, flags.Lookup("with-demographics"))
	})

	t.Run("analyze takes the export file as an optional argument", func(t *testing.T) {
		assert.NoError(t, analyzeCmd.Args(analyzeCmd, nil))
		assert.NoError(t, analyzeCmd.Args(analyzeCmd, []string{"top-pages-2025-01-01-to-2025-01-31.tab"}))
		assert.Error(t, analyzeCmd.Args(analyzeCmd, []string{"a.tab", "b.tab"}))
		assert.Nil(t, analyzeCmd.Flags().Lookup("input"))
	})

	t.Run("serve exposes a port flag", func(t *testing.T) {
		require.NotNil(t, serveCmd.Flags().Lookup("port"))
	})
}
