package fsds

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const ddateLayout = "20060102"

var displayPrinter = message.NewPrinter(language.AmericanEnglish)

// FormatDisplayValue renders a sign-adjusted value the way statements
// print them: comma-grouped, two decimals only when fractional, and
// parentheses instead of a minus sign.
func FormatDisplayValue(v float64) string {
	rounded := math.Round(v*100) / 100
	abs := math.Abs(rounded)

	var text string
	if abs == math.Trunc(abs) {
		text = displayPrinter.Sprintf("%d", int64(abs))
	} else {
		text = displayPrinter.Sprintf("%.2f", abs)
	}

	if rounded < 0 {
		return "(" + text + ")"
	}
	return text
}

// parseDDate parses the YYYYMMDD date format the flat files use.
func parseDDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := time.Parse(ddateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// derivePeriodStart computes the first day of a duration fact's period
// from its end date and quarter count.
func derivePeriodStart(end time.Time, qtrs int) time.Time {
	if qtrs <= 0 {
		return end
	}
	return end.AddDate(0, -3*qtrs, 0).AddDate(0, 0, 1)
}

// periodStartOf derives the YYYYMMDD first day of a resolved duration
// row's period. Instant rows and unresolved rows have no start.
func periodStartOf(row StatementRow) string {
	if row.Qtrs <= 0 || row.DDate == "" {
		return ""
	}
	end, err := parseDDate(row.DDate)
	if err != nil {
		return ""
	}
	return derivePeriodStart(end, row.Qtrs).Format(ddateLayout)
}

// quartersBetween estimates the quarter count a (start, end] range spans.
func quartersBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	// A period starting on the day after a quarter boundary still covers
	// the month it starts in.
	if start.Day() <= end.Day() {
		months++
	}
	q := (months + 2) / 3
	if q < 1 {
		q = 1
	}
	return q
}

// PeriodLabel names a reporting period: FY-2024 for a four-quarter span,
// Q3-2024 for a single quarter, P5-2024 for anything longer or odd.
func PeriodLabel(end time.Time, qtrs int) string {
	year := end.Year()
	switch {
	case qtrs == 4:
		return fmt.Sprintf("FY-%d", year)
	case qtrs >= 1 && qtrs <= 3:
		return fmt.Sprintf("Q%d-%d", qtrs, year)
	case qtrs > 4:
		return fmt.Sprintf("P%d-%d", qtrs, year)
	default:
		return fmt.Sprintf("FY-%d", year)
	}
}
