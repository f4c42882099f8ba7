// Package humandate converts the human-readable text YouTube serves in
// place of machine dates and counters ("2 weeks ago", "1.2K", "12:34")
// into usable values.
package humandate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Granularity is the unit a relative date string was expressed in. A
// date estimated from "2 weeks ago" is only accurate to within a week,
// and filter evaluation widens date comparisons by this window.
type Granularity time.Duration

const (
	GranularityExact  Granularity = 0
	GranularityMinute Granularity = Granularity(time.Minute)
	GranularityHour   Granularity = Granularity(time.Hour)
	GranularityDay    Granularity = Granularity(24 * time.Hour)
	GranularityWeek   Granularity = Granularity(7 * 24 * time.Hour)
	GranularityMonth  Granularity = Granularity(30 * 24 * time.Hour)
	GranularityYear   Granularity = Granularity(365 * 24 * time.Hour)
)

func (g Granularity) Window() time.Duration {
	return time.Duration(g)
}

// Estimate is a calendar date derived from relative text, accurate only
// to the granularity the text was expressed in.
type Estimate struct {
	Date        time.Time
	Granularity Granularity
}

var relativeRegex = regexp.MustCompile(`(?i)(\d+)\s+(second|minute|hour|day|week|month|year)s?\s+ago`)

var unitGranularity = map[string]Granularity{
	"second": GranularityMinute,
	"minute": GranularityMinute,
	"hour":   GranularityHour,
	"day":    GranularityDay,
	"week":   GranularityWeek,
	"month":  GranularityMonth,
	"year":   GranularityYear,
}

// ParseRelative resolves text like "2 weeks ago" against now. Leading
// qualifiers ("Streamed ", "Premiered ") and the "(edited)" suffix are
// tolerated. It reports false for text it cannot resolve.
func ParseRelative(text string, now time.Time) (Estimate, bool) {
	groups := relativeRegex.FindStringSubmatch(text)
	if len(groups) < 3 {
		return Estimate{}, false
	}
	n, err := strconv.Atoi(groups[1])
	if err != nil {
		return Estimate{}, false
	}
	unit := strings.ToLower(groups[2])

	var date time.Time
	switch unit {
	case "second":
		date = now.Add(-time.Duration(n) * time.Second)
	case "minute":
		date = now.Add(-time.Duration(n) * time.Minute)
	case "hour":
		date = now.Add(-time.Duration(n) * time.Hour)
	case "day":
		date = now.AddDate(0, 0, -n)
	case "week":
		date = now.AddDate(0, 0, -7*n)
	case "month":
		date = now.AddDate(0, -n, 0)
	case "year":
		date = now.AddDate(-n, 0, 0)
	default:
		return Estimate{}, false
	}

	return Estimate{Date: date, Granularity: unitGranularity[unit]}, true
}

// ParsePrecise parses the exact date formats the upstream embeds in
// enriched metadata: RFC 3339 timestamps and plain "2006-01-02" dates.
func ParsePrecise(text string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		t, err := time.Parse(layout, text)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", text)
}

var countMultipliers = map[byte]int64{
	'K': 1_000,
	'M': 1_000_000,
	'B': 1_000_000_000,
}

// ParseCount converts abbreviated counters like "1.2K", "58K" or "3M"
// into integers. Fractional prefixes truncate toward zero. Plain
// numbers, with or without thousands separators, pass through.
func ParseCount(text string) int64 {
	text = strings.ToUpper(strings.TrimSpace(text))
	text = strings.ReplaceAll(text, ",", "")
	if text == "" {
		return 0
	}

	if mult, ok := countMultipliers[text[len(text)-1]]; ok {
		f, err := strconv.ParseFloat(text[:len(text)-1], 64)
		if err != nil {
			return 0
		}
		return int64(f * float64(mult))
	}

	n, err := strconv.ParseInt(text, 10, 64)
	if err == nil {
		return n
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

// ParseViewCount strips the unit suffix off strings like "1,234 views"
// or "1.2M views" before delegating to ParseCount.
func ParseViewCount(text string) int64 {
	text = strings.TrimSpace(text)
	if idx := strings.IndexByte(text, ' '); idx >= 0 {
		text = text[:idx]
	}
	if strings.EqualFold(text, "no") {
		return 0
	}
	return ParseCount(text)
}

// ParseDuration converts clock-style length text ("12:34", "1:02:03")
// into seconds.
func ParseDuration(text string) (int64, error) {
	parts := strings.Split(strings.TrimSpace(text), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("unrecognized duration format: %q", text)
	}
	var total int64
	for _, p := range parts {
		n, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unrecognized duration format: %q", text)
		}
		total = total*60 + n
	}
	return total, nil
}
