package ical

import (
	"fmt"
	"strings"
	"time"
)

// Event is one calendar entry. Start and End are wall-clock times in the
// calendar's local timezone (Europe/Berlin).
type Event struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Calendar renders a set of events as an RFC 5545 document.
type Calendar struct {
	ProductID string
	Name      string
	Desc      string
	// AlarmBefore adds a display alarm the given duration before each
	// event. Zero disables alarms.
	AlarmBefore time.Duration

	now func() time.Time
}

// New returns a calendar with the product identifier used across exports.
func New(name, desc string) *Calendar {
	return &Calendar{
		ProductID: "-//BKSB Elternsprechtag//DE",
		Name:      name,
		Desc:      desc,
		now:       time.Now,
	}
}

// Render produces the .ics payload with CRLF line endings.
func (cal *Calendar) Render(events []Event) string {
	stamp := cal.now().UTC().Format("20060102T150405Z")

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:" + cal.ProductID,
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
	}
	if cal.Name != "" {
		lines = append(lines, "X-WR-CALNAME:"+escapeText(cal.Name))
	}
	if cal.Desc != "" {
		lines = append(lines, "X-WR-CALDESC:"+escapeText(cal.Desc))
	}
	lines = append(lines, berlinTimezone()...)

	for _, ev := range events {
		lines = append(lines,
			"BEGIN:VEVENT",
			"UID:"+ev.UID,
			"DTSTAMP:"+stamp,
			"DTSTART;TZID=Europe/Berlin:"+ev.Start.Format("20060102T150405"),
			"DTEND;TZID=Europe/Berlin:"+ev.End.Format("20060102T150405"),
			"SUMMARY:"+escapeText(ev.Summary),
			"DESCRIPTION:"+escapeText(ev.Description),
			"LOCATION:"+escapeText(ev.Location),
			"STATUS:CONFIRMED",
			"SEQUENCE:0",
		)
		if cal.AlarmBefore > 0 {
			minutes := int(cal.AlarmBefore.Minutes())
			lines = append(lines,
				"BEGIN:VALARM",
				fmt.Sprintf("TRIGGER:-PT%dM", minutes),
				"ACTION:DISPLAY",
				fmt.Sprintf("DESCRIPTION:Erinnerung: Termin in %d Minuten", minutes),
				"END:VALARM",
			)
		}
		lines = append(lines, "END:VEVENT")
	}

	lines = append(lines, "END:VCALENDAR")
	return strings.Join(lines, "\r\n") + "\r\n"
}

// berlinTimezone spells out the CET/CEST rules so importing clients do not
// have to guess the offset around the DST transitions.
func berlinTimezone() []string {
	return []string{
		"BEGIN:VTIMEZONE",
		"TZID:Europe/Berlin",
		"BEGIN:DAYLIGHT",
		"TZOFFSETFROM:+0100",
		"TZOFFSETTO:+0200",
		"TZNAME:CEST",
		"DTSTART:19700329T020000",
		"RRULE:FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU",
		"END:DAYLIGHT",
		"BEGIN:STANDARD",
		"TZOFFSETFROM:+0200",
		"TZOFFSETTO:+0100",
		"TZNAME:CET",
		"DTSTART:19701025T030000",
		"RRULE:FREQ=YEARLY;BYMONTH=10;BYDAY=-1SU",
		"END:STANDARD",
		"END:VTIMEZONE",
	}
}

// escapeText applies RFC 5545 text escaping for commas, semicolons,
// backslashes and newlines.
func escapeText(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		";", `\;`,
		",", `\,`,
		"\n", `\n`,
	)
	return r.Replace(s)
}

// ParseSlotTimes resolves a slot's date (YYYY-MM-DD) and time range
// ("HH:MM - HH:MM") into start and end wall-clock times.
func ParseSlotTimes(date, timeRange string) (time.Time, time.Time, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parse slot date %q: %w", date, err)
	}

	parts := strings.SplitN(timeRange, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("malformed slot time range %q", timeRange)
	}

	start, err := atTime(day, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atTime(day, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	return start, end, nil
}

func atTime(day time.Time, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse slot time %q: %w", clock, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
}
