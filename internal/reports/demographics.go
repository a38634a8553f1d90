package reports

import (
	"github.com/pariz/gountries"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"brcstats/internal/plausible"
)

// ResolveCountryNames replaces ISO alpha-2 country codes in a country
// breakdown with full country names. Codes the country database does not
// know are upper-cased and kept; empty keys become Unknown.
func ResolveCountryNames(rows []plausible.Row) []plausible.Row {
	caser := cases.Upper(language.AmericanEnglish)
	countries := gountries.New()

	result := make([]plausible.Row, len(rows))
	for i, row := range rows {
		out := row
		switch {
		case row.Key == "":
			out.Key = "Unknown"
		default:
			country, err := countries.FindCountryByAlpha(row.Key)
			if err != nil {
				out.Key = caser.String(row.Key)
			} else {
				out.Key = country.Name.Common
			}
		}
		result[i] = out
	}
	return result
}

// TitleCaseKeys normalizes device and browser breakdown keys for display
// ("mobile" -> "Mobile").
func TitleCaseKeys(rows []plausible.Row) []plausible.Row {
	caser := cases.Title(language.AmericanEnglish)
	result := make([]plausible.Row, len(rows))
	for i, row := range rows {
		out := row
		if out.Key == "" {
			out.Key = "Unknown"
		} else {
			out.Key = caser.String(out.Key)
		}
		result[i] = out
	}
	return result
}
