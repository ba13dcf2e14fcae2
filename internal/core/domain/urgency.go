package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout        = "2006-01-02"
	DisplayDateLayout = "Jan 2, 2006"

	// HorizonDays is the furthest future date that still produces a reminder.
	HorizonDays = 60

	secondsPerDay = 24 * 60 * 60
)

// Tier is one urgency bucket of the reminder table.
type Tier struct {
	Type     NotificationType
	Priority int
}

// ParseCalendarDate reads a classifier date. It accepts YYYY-MM-DD and
// RFC 3339 timestamps; the calendar date is taken in the value's own offset.
func ParseCalendarDate(raw string) (time.Time, bool) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, value); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// CivilDate drops the time-of-day of t as observed in loc.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysUntil counts whole calendar days from today to due. Both are civil dates.
func DaysUntil(due, today time.Time) int {
	return int((due.Unix() - today.Unix()) / secondsPerDay)
}

// ClassifyUrgency returns the tier for daysUntil; ok is false past the horizon.
func ClassifyUrgency(daysUntil int) (Tier, bool) {
	switch {
	case daysUntil < 0:
		return Tier{Type: NotificationOverdue, Priority: 10}, true
	case daysUntil == 0:
		return Tier{Type: NotificationUrgent, Priority: 10}, true
	case daysUntil == 1:
		return Tier{Type: NotificationUrgent, Priority: 9}, true
	case daysUntil <= 3:
		return Tier{Type: NotificationUrgent, Priority: 8}, true
	case daysUntil <= 7:
		return Tier{Type: NotificationDueDate, Priority: 7}, true
	case daysUntil <= 14:
		return Tier{Type: NotificationDueDate, Priority: 6}, true
	case daysUntil <= 30:
		return Tier{Type: NotificationDueDate, Priority: 5}, true
	case daysUntil <= HorizonDays:
		return Tier{Type: NotificationDueDate, Priority: 4}, true
	default:
		return Tier{}, false
	}
}

func FormatDisplayDate(t time.Time) string {
	return t.Format(DisplayDateLayout)
}

// ReminderMessage renders the feed text for a document due in daysUntil days.
func ReminderMessage(title string, daysUntil int, due time.Time) string {
	date := FormatDisplayDate(due)
	switch {
	case daysUntil < 0:
		ago := -daysUntil
		unit := "days"
		if ago == 1 {
			unit = "day"
		}
		return fmt.Sprintf("OVERDUE: \"%s\" was due %d %s ago (%s)", title, ago, unit, date)
	case daysUntil == 0:
		return fmt.Sprintf("DUE TODAY: \"%s\" is due today (%s)", title, date)
	case daysUntil == 1:
		return fmt.Sprintf("DUE TOMORROW: \"%s\" is due tomorrow (%s)", title, date)
	case daysUntil <= 3:
		return fmt.Sprintf("URGENT: \"%s\" is due in %d days (%s)", title, daysUntil, date)
	case daysUntil <= 7:
		return fmt.Sprintf("This Week: \"%s\" is due in %d days (%s)", title, daysUntil, date)
	case daysUntil <= 14:
		return fmt.Sprintf("Next 2 Weeks: \"%s\" is due in %d days (%s)", title, daysUntil, date)
	case daysUntil <= 30:
		return fmt.Sprintf("This Month: \"%s\" is due in %d days (%s)", title, daysUntil, date)
	default:
		return fmt.Sprintf("Next 2 Months: \"%s\" is due in %d days (%s)", title, daysUntil, date)
	}
}
