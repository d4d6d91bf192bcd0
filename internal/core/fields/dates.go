package fields

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	dateparser "github.com/markusmobius/go-dateparser"
)

// DateLayout is the canonical output form of every date field.
const DateLayout = "2006-01-02"

var (
	reYMD = regexp.MustCompile(`^(\d{4})\s*[-./]\s*(\d{1,2})\s*[-./]\s*(\d{1,2})\.?$`)
	reDMY = regexp.MustCompile(`^(\d{1,2})\s*[-./]\s*(\d{1,2})\s*[-./]\s*(\d{2}|\d{4})$`)

	reFindYMD = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
	reFindDMY = regexp.MustCompile(`\b\d{1,2}\s?[./]\s?\d{1,2}\s?[./]\s?\d{4}\b`)
)

var dpConfig = &dateparser.Configuration{
	DateOrder:     dateparser.DMY,
	Languages:     []string{"en", "cs"},
	StrictParsing: true,
}

// Relative phrases ("today", "14 days") never describe an invoice date.
var dpParser = &dateparser.Parser{
	ParserTypes: []dateparser.ParserType{dateparser.AbsoluteTime},
}

var (
	reDigits  = regexp.MustCompile(`\d+`)
	reLetters = regexp.MustCompile(`\pL{3,}`)
)

// ParseDate reads a date the way invoices write it and returns it as
// YYYY-MM-DD. Ambiguous numeric dates are read day first. The bool is false
// when no complete, valid date could be found.
func ParseDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if reYMD.MatchString(s) || reDMY.MatchString(s) {
		t, ok := parseNumeric(s)
		if !ok {
			return "", false
		}
		return t.Format(DateLayout), true
	}
	if t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false)); err == nil && agrees(s, t) {
		return t.Format(DateLayout), true
	}
	if dt, err := dpParser.Parse(dpConfig, s); err == nil && agrees(s, dt.Time) {
		return dt.Time.Format(DateLayout), true
	}
	for _, re := range []*regexp.Regexp{reFindYMD, reFindDMY} {
		if m := re.FindString(s); m != "" {
			if t, ok := parseNumeric(m); ok {
				return t.Format(DateLayout), true
			}
		}
	}
	return "", false
}

func parseNumeric(s string) (time.Time, bool) {
	if m := reYMD.FindStringSubmatch(s); m != nil {
		return civil(m[1], m[2], m[3])
	}
	if m := reDMY.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		if t, ok := civil(year, m[2], m[1]); ok {
			return t, true
		}
		// 03/15/2024 can only be month first.
		if mid, _ := strconv.Atoi(m[2]); mid > 12 {
			return civil(year, m[1], m[2])
		}
	}
	return time.Time{}, false
}

// agrees reports whether t is spelled out by s: a four digit year, plus the
// day and month as the remaining short numbers, or the day alone when the
// month is written as a word. Parsers that roll 31.02 forward or fill in
// missing parts fail this check.
func agrees(s string, t time.Time) bool {
	if !plausible(t) {
		return false
	}
	var (
		short []int
		year  bool
		years int
	)
	for _, tok := range reDigits.FindAllString(s, -1) {
		n, _ := strconv.Atoi(tok)
		switch len(tok) {
		case 4:
			years++
			year = n == t.Year()
		case 1, 2:
			short = append(short, n)
		}
	}
	if years != 1 || !year {
		return false
	}
	day, month := t.Day(), int(t.Month())
	switch len(short) {
	case 1:
		return short[0] == day && reLetters.MatchString(s)
	case 2:
		return (short[0] == day && short[1] == month) || (short[0] == month && short[1] == day)
	}
	return false
}

// civil builds a date and rejects overflow such as 31.02.
func civil(y, m, d string) (time.Time, bool) {
	year, _ := strconv.Atoi(y)
	month, _ := strconv.Atoi(m)
	day, _ := strconv.Atoi(d)
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return time.Time{}, false
	}
	return t, plausible(t)
}

func plausible(t time.Time) bool {
	return t.Year() >= 1900 && t.Year() <= 2199
}
