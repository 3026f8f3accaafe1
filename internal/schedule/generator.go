package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrEmptyCatalog indicates generation was attempted without templates or
// without hosts.
var ErrEmptyCatalog = errors.New("schedule: template catalog and host pool must not be empty")

const (
	// WindowDays is the number of days in the visible schedule window.
	WindowDays = 7

	eventsPerDay    = 4
	defaultCapacity = 10

	// DateLayout is the ISO calendar-day format used for anchors, day keys
	// and event dates.
	DateLayout = "2006-01-02"
)

// Generate derives the deterministic 7-day window anchored at today.
//
// Template rotation and host assignment are pure functions of the calendar
// date, so regenerating the same date always reproduces identical event
// identities. Events whose id already appears in prevIndex keep that
// event's registration list; everything else starts empty.
func Generate(templates []Template, hosts []string, prevIndex map[string]Event, today time.Time) (Document, error) {
	if len(templates) == 0 || len(hosts) == 0 {
		return Document{}, ErrEmptyCatalog
	}

	anchor := truncateToDay(today)
	doc := Document{
		SchemaVersion: SchemaVersion,
		Anchor:        anchor.Format(DateLayout),
		Days:          make([]Day, 0, WindowDays),
		Events:        make(map[string][]Event, WindowDays),
	}

	for i := 0; i < WindowDays; i++ {
		date := anchor.AddDate(0, 0, i)
		key := date.Format(DateLayout)
		doc.Days = append(doc.Days, Day{Key: key, Label: dayLabel(date)})

		number := dayNumber(date)
		start := (number * 3) % len(templates)
		bucket := make([]Event, 0, eventsPerDay)

		for j := 0; j < eventsPerDay; j++ {
			tpl := templates[(start+j)%len(templates)]
			capacity := tpl.Capacity
			if capacity <= 0 {
				capacity = defaultCapacity
			}

			event := Event{
				ID:         key + "-" + tpl.ID,
				Name:       tpl.Name,
				Date:       key,
				Time:       tpl.Time,
				Duration:   tpl.Duration,
				Host:       hosts[(number+j)%len(hosts)],
				Capacity:   capacity,
				Registered: []Registrant{},
			}
			if prev, ok := prevIndex[event.ID]; ok && len(prev.Registered) > 0 {
				event.Registered = append([]Registrant(nil), prev.Registered...)
			}
			bucket = append(bucket, event)
		}

		doc.Events[key] = bucket
	}

	return doc, nil
}

// dayNumber counts calendar days since 1970-01-01 for the given date. It
// is computed from the date components alone so a calendar date maps to
// the same number regardless of the wall-clock timezone it arrived in.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayLabel(t time.Time) string {
	return fmt.Sprintf("%s %02d.%02d", t.Format("Mon"), t.Day(), int(t.Month()))
}
