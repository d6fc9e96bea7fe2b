package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// When is a calendar point. Date-only values keep their civil date at
// midnight UTC; timed values keep the instant with its zone offset.
// The zero When means "no date given".
type When struct {
	Time          time.Time
	TimeSpecified bool
}

// Date builds a date-only When.
func Date(year int, month time.Month, day int) When {
	return When{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps only the civil date of t, read in t's own location.
func DateOf(t time.Time) When {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// At builds a When carrying a time of day, truncated to the minute.
func At(t time.Time) When {
	return When{Time: t.Truncate(time.Minute), TimeSpecified: true}
}

func (w When) IsZero() bool {
	return w.Time.IsZero()
}

// Civil returns the calendar date of w.
func (w When) Civil() (int, time.Month, int) {
	return w.Time.Date()
}

// SameDate reports whether both points fall on the same calendar date.
func (w When) SameDate(o When) bool {
	y1, m1, d1 := w.Civil()
	y2, m2, d2 := o.Civil()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Equal is exact equality: same flag, same instant.
func (w When) Equal(o When) bool {
	return w.TimeSpecified == o.TimeSpecified && w.Time.Equal(o.Time)
}

// DateBefore reports whether w's calendar date is strictly before the
// calendar date of t in t's location.
func (w When) DateBefore(t time.Time) bool {
	y1, m1, d1 := w.Civil()
	y2, m2, d2 := t.Date()
	if y1 != y2 {
		return y1 < y2
	}
	if m1 != m2 {
		return m1 < m2
	}
	return d1 < d2
}

func (w When) String() string {
	if w.IsZero() {
		return ""
	}
	if !w.TimeSpecified {
		return w.Time.Format(dateLayout)
	}
	return w.Time.Format(time.RFC3339)
}

type whenJSON struct {
	DateTime      string `json:"datetime"`
	TimeSpecified bool   `json:"time_specified"`
}

func (w When) MarshalJSON() ([]byte, error) {
	return json.Marshal(whenJSON{DateTime: w.String(), TimeSpecified: w.TimeSpecified})
}

func (w *When) UnmarshalJSON(data []byte) error {
	var raw whenJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.DateTime == "" {
		*w = When{}
		return nil
	}
	if !raw.TimeSpecified {
		t, err := time.Parse(dateLayout, raw.DateTime)
		if err != nil {
			return Errorf(ErrValidation, "date invalide : %q", raw.DateTime)
		}
		*w = DateOf(t)
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw.DateTime)
	if err != nil {
		return Errorf(ErrValidation, "date invalide : %q", raw.DateTime)
	}
	*w = When{Time: t, TimeSpecified: true}
	return nil
}

var (
	frenchWeekdays = [...]string{"dimanche", "lundi", "mardi", "mercredi", "jeudi", "vendredi", "samedi"}
	frenchMonths   = [...]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"}
)

// Label renders w in French, e.g. "le mardi 18 août 2020 à 21h15".
func (w When) Label() string {
	if w.IsZero() {
		return "sans date"
	}
	t := w.Time
	out := fmt.Sprintf("le %s %d %s %d", frenchWeekdays[t.Weekday()], t.Day(), frenchMonths[t.Month()-1], t.Year())
	if w.TimeSpecified {
		out += fmt.Sprintf(" à %dh%02d", t.Hour(), t.Minute())
	}
	return out
}

// Headline is the short poster form, e.g. "Mardi 18 août, à 21h15".
func (w When) Headline() string {
	if w.IsZero() {
		return "Date à définir"
	}
	t := w.Time
	day := frenchWeekdays[t.Weekday()]
	out := fmt.Sprintf("%s%s %d %s", strings.ToUpper(day[:1]), day[1:], t.Day(), frenchMonths[t.Month()-1])
	if w.TimeSpecified {
		out += fmt.Sprintf(", à %dh%02d", t.Hour(), t.Minute())
	}
	return out
}
