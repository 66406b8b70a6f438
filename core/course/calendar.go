package course

import (
	"fmt"
	"strings"
	"time"
)

const icsTimestampLayout = "20060102T150405Z"

// CalendarEvent renders an iCalendar invite for a chapter's scheduled
// block. Pure formatting: DTSTART comes from the chapter's start date and
// time, DTEND from its duration; a meeting link, when present, is appended
// to the description.
func (ch Chapter) CalendarEvent() string {
	start := ch.startInstant()
	end := start.Add(time.Duration(ch.Duration) * time.Minute)

	description := ch.Description
	if ch.Meeting != nil {
		description += "\n\nMeeting Link: " + ch.Meeting.URL
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"BEGIN:VEVENT",
		"DTSTART:" + start.UTC().Format(icsTimestampLayout),
		"DTEND:" + end.UTC().Format(icsTimestampLayout),
		"SUMMARY:" + ch.Title,
		"DESCRIPTION:" + strings.ReplaceAll(description, "\n", `\n`),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n")
}

func (ch Chapter) startInstant() time.Time {
	var hours, minutes int
	if _, err := fmt.Sscanf(ch.StartTime, "%d:%d", &hours, &minutes); err != nil {
		hours, minutes = 0, 0
	}
	d := ch.StartDate.Time
	return time.Date(d.Year(), d.Month(), d.Day(), hours, minutes, 0, 0, time.UTC)
}
