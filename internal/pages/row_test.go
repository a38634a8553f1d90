package pages_test

import (
	"strings"
	"testing"

	"brcstats/internal/pages"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOnPage(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"7m 38s", intPtr(458)},
		{"17s", intPtr(17)},
		{"2m", intPtr(120)},
		{"1m 0s", intPtr(60)},
		{"-", nil},
		{"", nil},
		{"n/a", nil},
	}
	for _, c := range cases {
		got := pages.ParseTimeOnPage(c.in)
		if c.want == nil {
			assert.Nil(t, got, c.in)
		} else {
			require.NotNil(t, got, c.in)
			assert.Equal(t, *c.want, *got, c.in)
		}
	}
}

func TestReadRows(t *testing.T) {
	input := strings.Join([]string{
		"Page url\tVisitors\tPageviews\tBounce rate\tTime on Page",
		"/data/organisms/9606\t100\t150\t-\t2m 30s",
		"/data/assemblies/GCA_000001_1\t40\t60\t10%\t45s",
		"bad row with too few columns",
		"/broken\tNaN\t5\t-\t-",
		"",
		"/about\t7\t9\t50%\t-",
	}, "\n")

	rows, err := pages.ReadRows(strings.NewReader(input), nil)
	require.NoError(t, err)
	require.Len(t, rows, 3, "malformed rows must be skipped, not fatal")

	assert.Equal(t, "/data/organisms/9606", rows[0].URL)
	assert.Equal(t, 100, rows[0].Visitors)
	assert.Equal(t, 150, rows[0].Pageviews)
	assert.Nil(t, rows[0].BounceRate)
	require.NotNil(t, rows[0].TimeOnPage)
	assert.Equal(t, 150, *rows[0].TimeOnPage)

	require.NotNil(t, rows[1].BounceRate)
	assert.Equal(t, 10, *rows[1].BounceRate)

	assert.Equal(t, "/about", rows[2].URL)
	assert.Nil(t, rows[2].TimeOnPage)
}

func intPtr(n int) *int { return &n }
