// Package resolvetest provides a deterministic date engine for tests.
package resolvetest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"raidline/internal/match"
)

// Engine understands the small French vocabulary used in tests: weekdays,
// relative days, d/m[/y], "12 août" and times such as 21h15 or 21:15.
// Weekdays always resolve strictly after the reference date. A date typed
// without a year that would be more than six months in the past moves to
// the next year.
type Engine struct{}

var (
	clockRE   = regexp.MustCompile(`^(\d{1,2})(?:h|:)(\d{2})$`)
	numericRE = regexp.MustCompile(`^(\d{1,2})[/.-](\d{1,2})(?:[/.-](\d{2}|\d{4}))?$`)
	dayRE     = regexp.MustCompile(`^(\d{1,2})(?:er)?$`)

	weekdays = map[string]time.Weekday{
		"lundi":    time.Monday, "mardi": time.Tuesday, "mercredi": time.Wednesday, "jeudi": time.Thursday,
		"vendredi": time.Friday, "samedi": time.Saturday, "dimanche": time.Sunday,
	}
	offsets = map[string]int{"aujourdhui": 0, "demain": 1, "apresdemain": 2, "hier": -1, "avanthier": -2}
	months  = map[string]time.Month{
		"janvier":   time.January, "fevrier": time.February, "mars": time.March, "avril": time.April,
		"mai":       time.May, "juin": time.June, "juillet": time.July, "aout": time.August,
		"septembre": time.September, "octobre": time.October, "novembre": time.November, "decembre": time.December,
	}
)

func (Engine) Parse(text string, ref time.Time) (time.Time, bool) {
	loc := ref.Location()
	y, m, d := ref.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)
	var (
		hour, minute int
		dated        bool
	)
	fields := strings.Fields(text)
	for i := 0; i < len(fields); i++ {
		tok := fields[i]
		word := match.Fold(tok, match.Dates)
		if sm := clockRE.FindStringSubmatch(tok); sm != nil {
			hour, _ = strconv.Atoi(sm[1])
			minute, _ = strconv.Atoi(sm[2])
			if hour > 23 || minute > 59 {
				return time.Time{}, false
			}
			continue
		}
		if sm := numericRE.FindStringSubmatch(tok); sm != nil {
			dd, _ := strconv.Atoi(sm[1])
			mm, _ := strconv.Atoi(sm[2])
			year := y
			explicit := sm[3] != ""
			if explicit {
				year, _ = strconv.Atoi(sm[3])
				if year < 100 {
					year += 2000
				}
			}
			t, ok := civil(year, time.Month(mm), dd, loc)
			if !ok {
				return time.Time{}, false
			}
			if !explicit && t.Before(day.AddDate(0, -6, 0)) {
				t = t.AddDate(1, 0, 0)
			}
			day, dated = t, true
			continue
		}
		if wd, ok := weekdays[word]; ok {
			delta := (int(wd) - int(ref.Weekday()) + 7) % 7
			if delta == 0 {
				delta = 7
			}
			day, dated = day.AddDate(0, 0, delta), true
			continue
		}
		if off, ok := offsets[word]; ok {
			day, dated = day.AddDate(0, 0, off), true
			continue
		}
		if sm := dayRE.FindStringSubmatch(tok); sm != nil && i+1 < len(fields) {
			month, ok := months[match.Fold(fields[i+1], match.Dates)]
			if !ok {
				return time.Time{}, false
			}
			dd, _ := strconv.Atoi(sm[1])
			t, ok := civil(y, month, dd, loc)
			if !ok {
				return time.Time{}, false
			}
			if t.Before(day.AddDate(0, -6, 0)) {
				t = t.AddDate(1, 0, 0)
			}
			day, dated = t, true
			i++
			continue
		}
		return time.Time{}, false
	}
	if !dated && hour == 0 && minute == 0 {
		return time.Time{}, false
	}
	dy, dm, dd := day.Date()
	return time.Date(dy, dm, dd, hour, minute, 0, 0, loc), true
}

func civil(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	if month < time.January || month > time.December || day < 1 {
		return time.Time{}, false
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
