package service

import (
	"strings"
	"time"

	"github.com/zlnvch/cocreate/models"
)

const (
	GroupToday          = "Today"
	GroupYesterday      = "Yesterday"
	GroupPrevious7Days  = "Previous 7 Days"
	GroupPrevious30Days = "Previous 30 Days"
	GroupOlder          = "Older"
)

var groupOrder = []string{GroupToday, GroupYesterday, GroupPrevious7Days, GroupPrevious30Days, GroupOlder}

const dayMillis = 24 * 60 * 60 * 1000

type SessionGroup struct {
	Label    string           `json:"label"`
	Sessions []models.Session `json:"sessions"`
}

// FilterSessions keeps sessions whose title contains query, ignoring case,
// and whose mode equals mode. An empty mode matches every mode.
func FilterSessions(sessions []models.Session, query string, mode models.Mode) []models.Session {
	query = strings.ToLower(query)
	out := make([]models.Session, 0, len(sessions))
	for _, session := range sessions {
		if !strings.Contains(strings.ToLower(session.Title), query) {
			continue
		}
		if mode != "" && session.Mode != mode {
			continue
		}
		out = append(out, session)
	}
	return out
}

// BucketByRecency partitions sessions into the fixed recency groups. Today
// and Yesterday compare calendar days in now's location; the rest use
// whole elapsed days, floored. Empty groups are left out and every group
// keeps the input order.
func BucketByRecency(sessions []models.Session, now time.Time) []SessionGroup {
	today := calendarDay(now, now.Location())
	yesterday := calendarDay(now.Add(-dayMillis*time.Millisecond), now.Location())

	buckets := make(map[string][]models.Session, len(groupOrder))
	for _, session := range sessions {
		var label string
		switch day := calendarDay(session.Date, now.Location()); {
		case day.Equal(today):
			label = GroupToday
		case day.Equal(yesterday):
			label = GroupYesterday
		default:
			daysAgo := floorDiv(now.Sub(session.Date).Milliseconds(), dayMillis)
			switch {
			case daysAgo <= 7:
				label = GroupPrevious7Days
			case daysAgo <= 30:
				label = GroupPrevious30Days
			default:
				label = GroupOlder
			}
		}
		buckets[label] = append(buckets[label], session)
	}

	groups := make([]SessionGroup, 0, len(buckets))
	for _, label := range groupOrder {
		if len(buckets[label]) == 0 {
			continue
		}
		groups = append(groups, SessionGroup{Label: label, Sessions: buckets[label]})
	}
	return groups
}

func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func floorDiv(a int64, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
