package plausible

import (
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// topPagesHeader matches the export format the analysis pipeline parses.
const topPagesHeader = "Page url\tVisitors\tPageviews\tBounce rate\tTime on Page"

// FormatDuration renders seconds as "<M>m <S>s" or "<S>s"; nil or zero is
// the missing marker "-".
func FormatDuration(seconds *float64) string {
	if seconds == nil || *seconds == 0 {
		return "-"
	}
	total := int(*seconds)
	minutes := total / 60
	secs := total % 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %02ds", minutes, secs)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatBounceRate renders a bounce rate as "<int>%"; nil is "-".
func FormatBounceRate(rate *float64) string {
	if rate == nil {
		return "-"
	}
	return fmt.Sprintf("%d%%", int(*rate+0.5))
}

// WriteTopPagesTSV writes breakdown rows in the top-pages export format.
func WriteTopPagesTSV(w io.Writer, rows []Row) error {
	if _, err := fmt.Fprintln(w, topPagesHeader); err != nil {
		return err
	}
	for _, row := range rows {
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			row.Key, row.Visitors, row.Pageviews,
			FormatBounceRate(row.BounceRate), FormatDuration(row.VisitDuration))
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteBreakdownTSV writes a demographics breakdown (country, device,
// browser, source) with the dimension named in the header.
func WriteBreakdownTSV(w io.Writer, property string, rows []Row) error {
	caser := cases.Title(language.AmericanEnglish)
	header := caser.String(dimensionKey(property))
	if _, err := fmt.Fprintf(w, "%s\tVisitors\tPageviews\tBounce Rate\tDuration\n", header); err != nil {
		return err
	}
	for _, row := range rows {
		key := row.Key
		if key == "" {
			key = "Unknown"
		}
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			key, row.Visitors, row.Pageviews,
			FormatBounceRate(row.BounceRate), FormatDuration(row.VisitDuration))
		if err != nil {
			return err
		}
	}
	return nil
}

// TopPagesFilename derives the default export file name for a range:
// custom ranges embed the date pair, presets embed the fetch date so
// repeated pulls of a rolling window stay distinguishable.
func TopPagesFilename(dr DateRange, now time.Time) string {
	if dr.IsCustom() {
		return fmt.Sprintf("top-pages-%s.tab", dr.Slug())
	}
	stamp := strings.ToLower(now.Format("02-Jan-2006"))
	return fmt.Sprintf("top-pages-%s-%s.tab", dr.Period, stamp)
}

// BreakdownFilename derives the export file name for a demographics
// property ("visit:country" -> "country-<range>.tab").
func BreakdownFilename(property string, dr DateRange) string {
	return fmt.Sprintf("%s-%s.tab", dimensionKey(property), dr.Slug())
}
