package timesheet

import (
	"math"
	"time"

	"timeclock/internal/domain/shift"
)

type Status string

const (
	StatusPresent        Status = "present"
	StatusLate           Status = "late"
	StatusEarlyLeave     Status = "early_leave"
	StatusLateEarlyLeave Status = "late & early_leave"
	StatusOngoing        Status = "ongoing"
)

// Result is the classifier output for one session. Hour fields are
// rounded to two decimals.
type Result struct {
	EmployeeID  string      `json:"employeeId"`
	Date        string      `json:"date"`
	ShiftName   string      `json:"shiftName"`
	Start       time.Time   `json:"start"`
	End         *time.Time  `json:"end,omitempty"`
	TotalHours  float64     `json:"totalHours"`
	BreakHours  float64     `json:"breakHours"`
	ActualWork  float64     `json:"actualWork"`
	Capacity    float64     `json:"capacity"`
	Overtime    float64     `json:"overtime"`
	Multiplier  float64     `json:"multiplier"`
	Status      Status      `json:"status"`
	IsHoliday   bool        `json:"isHoliday"`
	OffDay      bool        `json:"offDay,omitempty"`
	CloseReason CloseReason `json:"closeReason"`
	Defaulted   bool        `json:"policyDefaulted,omitempty"`
}

// Classify evaluates a session against the policy in effect at its
// opening instant. It is pure and total: any legal session and policy
// yield a result; missing data surfaces in the status, never as an error.
func Classify(s Session, p shift.Policy) Result {
	day := s.Start
	weekday := day.Weekday()
	sched := p.ScheduleFor(day)

	result := Result{
		EmployeeID:  s.EmployeeID,
		Date:        day.Format("2006-01-02"),
		ShiftName:   shiftName(p, sched),
		Start:       s.Start,
		IsHoliday:   p.IsHolidayWeekday(weekday),
		OffDay:      sched.Off,
		CloseReason: s.CloseReason,
		Defaulted:   p.Defaulted,
	}
	// An open session has no measured hours at all: breaks observed before
	// the window closed stay unreported so worked + breaks never exceeds
	// the total.
	if s.HasFinalOut() {
		end := s.End
		result.End = &end
		result.TotalHours = s.End.Sub(s.Start).Hours()
		result.BreakHours = s.BreakHours()
	}
	result.ActualWork = math.Max(0, result.TotalHours-result.BreakHours)

	if sched.Off {
		// Work on a rostered day off: pure overtime when the policy pays
		// holidays, otherwise the day is treated as a holiday shift.
		result.Multiplier = p.MultNormal
		if !p.IsHolidayPaid {
			result.IsHoliday = true
			result.Multiplier = p.MultHoliday
		}
	} else {
		result.Capacity = sched.Hours
		result.Multiplier = p.MultNormal
		if result.IsHoliday {
			result.Multiplier = p.MultHoliday
		}
	}

	threshold := float64(p.OTThresholdMin) / 60
	if result.ActualWork > result.Capacity+threshold {
		result.Overtime = (result.ActualWork - result.Capacity) * result.Multiplier
	}

	result.Status = classifyStatus(s, sched, p)

	result.TotalHours = round2(result.TotalHours)
	result.BreakHours = round2(result.BreakHours)
	result.ActualWork = round2(result.ActualWork)
	result.Overtime = round2(result.Overtime)
	return result
}

func classifyStatus(s Session, sched shift.DaySchedule, p shift.Policy) Status {
	if !s.HasFinalOut() {
		return StatusOngoing
	}
	if sched.Off {
		return StatusPresent
	}

	schedStart, schedEnd, err := sched.ScheduledWindow(s.Start)
	if err != nil {
		return StatusPresent
	}

	late := s.Start.After(schedStart.Add(time.Duration(p.GraceInMin) * time.Minute))
	early := s.End.Before(schedEnd.Add(-time.Duration(p.GraceOutMin) * time.Minute))

	switch {
	case late && early:
		return StatusLateEarlyLeave
	case late:
		return StatusLate
	case early:
		return StatusEarlyLeave
	}
	return StatusPresent
}

func shiftName(p shift.Policy, sched shift.DaySchedule) string {
	if p.Type == shift.TypeRotational && sched.Label != "" {
		return p.Name + " " + sched.Label
	}
	if p.Name == "" {
		return "Standard"
	}
	return p.Name
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
