package autopopulate

import (
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
)

// DateLayout is the format draft dates are written in.
const DateLayout = "2006-01-02"

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"2 January, 2006",
	"2 Jan 2006",
	"2 Jan, 2006",
	"01/02/2006",
	"1/2/2006",
	"01/02/06",
	"1/2/06",
	"02.01.2006",
	"2.1.2006",
	"01-02-2006",
	"January 2006",
	"Jan 2006",
}

var (
	ordinalPattern = regexp.MustCompile(`(?i)(\d)(st|nd|rd|th)\b`)
	weekdayPattern = regexp.MustCompile(`(?i)^(mon|tue|tues|wed|thu|thur|thurs|fri|sat|sun)[a-z]*\.?,?\s+`)
	spacePattern   = regexp.MustCompile(`\s+`)

	monthNames    = `(?:jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?`
	embeddedDates = regexp.MustCompile(`(?i)` +
		`\d{4}[-/]\d{1,2}[-/]\d{1,2}` +
		`|\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}` +
		`|` + monthNames + `\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}` +
		`|\d{1,2}(?:st|nd|rd|th)?\s+` + monthNames + `,?\s+\d{4}`)
)

// ParseDate parses a written date in any of the common intake-form formats and returns it as
// YYYY-MM-DD. Slash dates are read month first. When the whole answer is not a date, the first
// date embedded in the text is used.
func ParseDate(value string) (string, bool) {
	if t, ok := parseDateValue(value); ok {
		return t.Format(DateLayout), true
	}

	for _, candidate := range embeddedDates.FindAllString(value, -1) {
		if t, ok := parseDateValue(candidate); ok {
			return t.Format(DateLayout), true
		}
	}

	return "", false
}

func parseDateValue(value string) (time.Time, bool) {
	cleaned := normalizeDate(value)
	if cleaned == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, cleaned); err == nil {
			return t, true
		}
	}

	t, err := dateparse.ParseIn(cleaned, time.UTC)
	if err != nil || t.Year() < 1970 || t.Year() > 2100 {
		return time.Time{}, false
	}

	return t, true
}

func normalizeDate(value string) string {
	cleaned := strings.TrimSpace(value)
	cleaned = strings.TrimSuffix(cleaned, ".")
	cleaned = weekdayPattern.ReplaceAllString(cleaned, "")
	cleaned = ordinalPattern.ReplaceAllString(cleaned, "$1")
	cleaned = spacePattern.ReplaceAllString(cleaned, " ")
	cleaned = strings.ReplaceAll(cleaned, ". ", " ")
	cleaned = titleWords(cleaned)

	return strings.ReplaceAll(cleaned, "Sept ", "Sep ")
}

// titleWords capitalizes each alphabetic word so month names match time.Parse layouts.
func titleWords(s string) string {
	runes := []rune(strings.ToLower(s))
	start := true

	for i, r := range runes {
		if unicode.IsLetter(r) {
			if start {
				runes[i] = unicode.ToUpper(r)
			}

			start = false

			continue
		}

		start = true
	}

	return string(runes)
}
