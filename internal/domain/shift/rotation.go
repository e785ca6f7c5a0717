package shift

import (
	"fmt"
	"time"
)

// DaySchedule is the resolved expectation for one calendar date: either a
// day off, or a scheduled start/end and capacity. For combined rotation
// slots (e.g. "B+C") the capacity is the sum of slot hours, the start is
// the first slot's and the end the last slot's.
type DaySchedule struct {
	Off       bool
	Start     string
	End       string
	Hours     float64
	EndOffset int
	Label     string
}

// ScheduleFor resolves the schedule in effect for the date the session
// opened on.
func (p Policy) ScheduleFor(date time.Time) DaySchedule {
	if p.Type != TypeRotational || p.Rotation == nil {
		return DaySchedule{
			Start:     p.StartTime,
			End:       p.EndTime,
			Hours:     p.ExpectedHours,
			EndOffset: p.EndDayOffset,
			Label:     p.Name,
		}
	}
	return p.Rotation.scheduleFor(date)
}

func (r *Rotation) scheduleFor(date time.Time) DaySchedule {
	idx := r.dayIndex(date)
	day := r.Days[idx]
	if day.Off {
		return DaySchedule{Off: true, Label: "OFF"}
	}

	var sched DaySchedule
	for i, label := range day.Slots {
		slot, ok := r.slot(label)
		if !ok {
			continue
		}
		if i == 0 {
			sched.Start = slot.Start
			sched.Label = slot.Label
		} else {
			sched.Label = fmt.Sprintf("%s+%s", sched.Label, slot.Label)
		}
		sched.End = slot.End
		sched.EndOffset = slot.Offset
		sched.Hours += slot.Hours
	}
	return sched
}

// dayIndex maps a date onto the cyclic pattern: days since the pattern
// epoch modulo pattern length.
func (r *Rotation) dayIndex(date time.Time) int {
	epoch, err := time.ParseInLocation("2006-01-02", r.Epoch, date.Location())
	if err != nil {
		return 0
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	days := int(day.Sub(epoch).Hours() / 24)
	n := len(r.Days)
	idx := days % n
	if idx < 0 {
		idx += n
	}
	return idx
}

// AverageWorkHours is the mean capacity over the pattern's working days.
// It gives a day's entitlement independent of which slot the cycle would
// have landed on.
func (r *Rotation) AverageWorkHours() float64 {
	var total float64
	var worked int
	for _, day := range r.Days {
		if day.Off {
			continue
		}
		for _, label := range day.Slots {
			if slot, ok := r.slot(label); ok {
				total += slot.Hours
			}
		}
		worked++
	}
	if worked == 0 {
		return 0
	}
	return total / float64(worked)
}

func (r *Rotation) slot(label string) (RotationSlot, bool) {
	for _, s := range r.Slots {
		if s.Label == label {
			return s, true
		}
	}
	return RotationSlot{}, false
}

// ScheduledWindow returns the scheduled start and end instants for a
// session opening on the given date. The end is the start-of-day time's
// date plus the end time of day, advanced by the slot's midnight-crossing
// count; a zero offset with an end at or before the start still means the
// following day.
func (sched DaySchedule) ScheduledWindow(date time.Time) (time.Time, time.Time, error) {
	if sched.Off {
		return time.Time{}, time.Time{}, fmt.Errorf("no scheduled window on a day off")
	}
	start, err := atClock(date, sched.Start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := atClock(date, sched.End)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	days := sched.EndOffset
	if days == 0 && !end.After(start) {
		days = 1
	}
	return start, end.AddDate(0, 0, days), nil
}

func parseClock(value string) (time.Time, error) {
	return time.Parse("15:04", value)
}

func atClock(date time.Time, clock string) (time.Time, error) {
	t, err := parseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}
