package aggregate

import (
	"math"
	"strconv"

	"github.com/docker/go-units"
	"github.com/dustin/go-humanize"
)

var compactUnits = []string{"", "k", "M", "B", "T"}

// FormatScore renders a score with one decimal.
func FormatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', 1, 64)
}

// FormatPercent renders a score as "81.3%".
func FormatPercent(score float64) string {
	return FormatScore(score) + "%"
}

// FormatFixed renders v with the given number of decimals.
func FormatFixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// FormatCost renders a dollar amount with four decimals.
func FormatCost(cost float64) string {
	return "$" + FormatFixed(cost, 4)
}

// FormatDate returns the date part of an ISO timestamp, or "-".
func FormatDate(iso string) string {
	if iso == "" {
		return "-"
	}

	if len(iso) > 10 {
		return iso[:10]
	}

	return iso
}

// FormatCount renders an integer with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatCompact renders large counts in short form, e.g. "1.25M".
func FormatCompact(n float64) string {
	if math.Abs(n) < 1000 {
		return strconv.FormatFloat(math.Round(n), 'f', -1, 64)
	}

	return units.CustomSize("%.4g%s", n, 1000.0, compactUnits)
}

// FormatLatency renders an optional latency in milliseconds.
func FormatLatency(ms *int64) string {
	if ms == nil {
		return "-"
	}

	return strconv.FormatInt(*ms, 10) + " ms"
}
