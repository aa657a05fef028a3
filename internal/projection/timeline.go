package projection

import (
	"time"

	"github.com/nhle/planner/internal/model"
)

// Bar is one row of a schedule timeline. Offset and Length are in whole
// days relative to the timeline origin.
type Bar struct {
	Task     model.ScheduleTask
	Offset   int
	Length   int
	HasDates bool
}

// Timeline lays out a schedule against its earliest start date. Tasks
// without both dates get HasDates=false and zero geometry. The returned
// origin is the zero time when no task carries dates.
func Timeline(res model.ScheduleResult) ([]Bar, time.Time) {
	var origin time.Time
	for _, t := range res.Tasks {
		if s, ok := t.Start(); ok {
			s = truncateDay(s)
			if origin.IsZero() || s.Before(origin) {
				origin = s
			}
		}
	}

	bars := make([]Bar, 0, len(res.Tasks))
	for _, t := range res.Tasks {
		b := Bar{Task: t}
		s, okS := t.Start()
		e, okE := t.End()
		if okS && okE && !origin.IsZero() {
			s, e = truncateDay(s), truncateDay(e)
			b.HasDates = true
			b.Offset = days(origin, s)
			b.Length = days(s, e) + 1
			if b.Length < 1 {
				b.Length = 1
			}
		}
		bars = append(bars, b)
	}
	return bars, origin
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func days(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}
