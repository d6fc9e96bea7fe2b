package resolve

import (
	"regexp"
	"slices"
	"strings"
	"time"

	dps "github.com/markusmobius/go-dateparser"

	"raidline/internal/match"
)

var (
	frenchClock = regexp.MustCompile(`(\d{1,2})h(\d{2})`)
	// yearless spots a day and month typed without a year: "9/8" or "12 août".
	yearless = regexp.MustCompile(`(^|\s)(\d{1,2}[/.-]\d{1,2}|\d{1,2}(er)?\s+\pL+)(\s|$)`)
)

// DateParser is the production Engine, backed by go-dateparser.
//
// Dates without a year land in the current year unless that puts them
// more than six months back, in which case they move to the next one. A
// weekday names the next such day, never today.
type DateParser struct {
	Location *time.Location
	// Languages defaults to French.
	Languages []string
}

func (p DateParser) Parse(text string, ref time.Time) (time.Time, bool) {
	loc := p.Location
	if loc == nil {
		loc = ref.Location()
	}
	langs := p.Languages
	if len(langs) == 0 {
		langs = []string{"fr"}
	}
	ref = ref.In(loc)
	cfg := &dps.Configuration{
		Languages:           langs,
		DateOrder:           dps.DMY,
		CurrentTime:         ref,
		DefaultTimezone:     loc,
		PreferredDateSource: dps.Future,
	}
	dt, err := dps.Parse(cfg, frenchClock.ReplaceAllString(text, "$1:$2"))
	if err != nil || dt.Time.IsZero() {
		return time.Time{}, false
	}
	t := dt.Time.In(loc)
	y, m, d := ref.Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if yearless.MatchString(text) {
		t = nearestYear(t, today)
	}
	if namesWeekday(text) && sameDay(t, today) {
		t = t.AddDate(0, 0, 7)
	}
	return t, true
}

// nearestYear moves t into today's year, or the next one when that would
// be more than six months ago.
func nearestYear(t, today time.Time) time.Time {
	moved := time.Date(today.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, t.Location())
	if moved.Day() != t.Day() {
		// 29 February outside a leap year.
		return t
	}
	if moved.Before(today.AddDate(0, -6, 0)) {
		moved = moved.AddDate(1, 0, 0)
	}
	return moved
}

func namesWeekday(text string) bool {
	for _, tok := range strings.Fields(text) {
		if slices.Contains(weekdays, match.Fold(tok, match.Dates)) {
			return true
		}
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
