package timesheet

import (
	"sort"
	"time"

	"timeclock/internal/domain/shift"
)

// DaySheetRow aggregates all of one employee's sessions opening on one
// calendar date.
type DaySheetRow struct {
	EmployeeID string   `json:"employeeId"`
	Date       string   `json:"date"`
	ShiftName  string   `json:"shiftName"`
	TotalHours float64  `json:"totalHours"`
	BreakHours float64  `json:"breakHours"`
	ActualWork float64  `json:"actualWork"`
	Capacity   float64  `json:"capacity"`
	Overtime   float64  `json:"overtime"`
	Status     Status   `json:"status"`
	IsHoliday  bool     `json:"isHoliday"`
	Sessions   int      `json:"sessions"`
	Results    []Result `json:"results,omitempty"`
}

// BuildDaySheet folds classified sessions into one row per
// (employee, session-start-date). A recomputation over unchanged inputs
// yields identical rows.
func BuildDaySheet(results []Result) []DaySheetRow {
	byKey := make(map[string]*DaySheetRow)
	var order []string
	for _, r := range results {
		key := r.EmployeeID + "|" + r.Date
		row, ok := byKey[key]
		if !ok {
			row = &DaySheetRow{
				EmployeeID: r.EmployeeID,
				Date:       r.Date,
				ShiftName:  r.ShiftName,
				Capacity:   r.Capacity,
				Status:     r.Status,
				IsHoliday:  r.IsHoliday,
			}
			byKey[key] = row
			order = append(order, key)
		}
		row.Sessions++
		row.TotalHours = round2(row.TotalHours + r.TotalHours)
		row.BreakHours = round2(row.BreakHours + r.BreakHours)
		row.ActualWork = round2(row.ActualWork + r.ActualWork)
		row.Overtime = round2(row.Overtime + r.Overtime)
		row.Status = combineStatus(row.Status, r.Status)
		row.Results = append(row.Results, r)
	}

	sort.Strings(order)
	rows := make([]DaySheetRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *byKey[key])
	}
	return rows
}

// combineStatus keeps the most severe status when a date holds several
// sessions: an unclosed session dominates, then lateness/early leave.
func combineStatus(a, b Status) Status {
	if a == b {
		return a
	}
	if a == StatusOngoing || b == StatusOngoing {
		return StatusOngoing
	}
	lateA, earlyA := splitStatus(a)
	lateB, earlyB := splitStatus(b)
	return joinStatus(lateA || lateB, earlyA || earlyB)
}

func splitStatus(s Status) (late, early bool) {
	switch s {
	case StatusLate:
		return true, false
	case StatusEarlyLeave:
		return false, true
	case StatusLateEarlyLeave:
		return true, true
	}
	return false, false
}

func joinStatus(late, early bool) Status {
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

// MonthSummary is the per-employee roll-up over a reporting window.
type MonthSummary struct {
	EmployeeID    string  `json:"employeeId"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	ActualWork    float64 `json:"actualWork"`
	Overtime      float64 `json:"overtime"`
	HolidayCredit float64 `json:"holidayCredit"`
	PresentDays   int     `json:"presentDays"`
	LateDays      int     `json:"lateDays"`
	EarlyDays     int     `json:"earlyDays"`
	AbsentDays    int     `json:"absentDays"`
}

// PolicyResolver yields the policy in effect for the employee on a date.
type PolicyResolver func(date time.Time) shift.Policy

// Rollup sums a window of day-sheet rows and counts absences: scheduled
// working days with no session at all.
func Rollup(employeeID string, rows []DaySheetRow, from, to time.Time, policyFor PolicyResolver) MonthSummary {
	summary := MonthSummary{
		EmployeeID: employeeID,
		From:       from.Format("2006-01-02"),
		To:         to.Format("2006-01-02"),
	}

	byDate := make(map[string]DaySheetRow, len(rows))
	for _, row := range rows {
		if row.EmployeeID != employeeID {
			continue
		}
		byDate[row.Date] = row
		summary.ActualWork = round2(summary.ActualWork + row.ActualWork)
		summary.Overtime = round2(summary.Overtime + row.Overtime)
		late, early := splitStatus(row.Status)
		if late {
			summary.LateDays++
		}
		if early {
			summary.EarlyDays++
		}
		if row.ActualWork > 0 {
			summary.PresentDays++
		}
	}

	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		if _, worked := byDate[day.Format("2006-01-02")]; worked {
			continue
		}
		policy := policyFor(day)
		if policy.IsHolidayWeekday(day.Weekday()) {
			continue
		}
		if policy.ScheduleFor(day).Off {
			continue
		}
		summary.AbsentDays++
	}

	return summary
}

// BonusCredit is one day's share of holiday premium, emitted as a
// projection after classification. The classifier never mutates session
// hours for it.
type BonusCredit struct {
	EmployeeID string  `json:"employeeId"`
	Date       string  `json:"date"`
	Hours      float64 `json:"hours"`
}

// HolidayCredits computes paid-holiday entries for an employee over a
// window. A holiday with no session earns a day's entitlement in credit
// when the policy pays holidays and the employee worked at least
// MinDaysForPaidHoliday days in the preceding rolling week. With
// DistributeHolidayBonus set, each holiday's credit is amortized evenly
// across the window's worked days instead of landing on the holiday.
func HolidayCredits(employeeID string, rows []DaySheetRow, from, to time.Time, policyFor PolicyResolver) []BonusCredit {
	workedDates := make(map[string]bool)
	var workedOrder []string
	for _, row := range rows {
		if row.EmployeeID != employeeID || row.ActualWork <= 0 {
			continue
		}
		if !workedDates[row.Date] {
			workedDates[row.Date] = true
			workedOrder = append(workedOrder, row.Date)
		}
	}
	sort.Strings(workedOrder)

	var credits []BonusCredit
	distributed := make(map[string]float64)

	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		policy := policyFor(day)
		if !policy.IsHolidayPaid || !policy.IsHolidayWeekday(day.Weekday()) {
			continue
		}
		if workedDates[day.Format("2006-01-02")] {
			// The worked holiday is already compensated by the holiday
			// multiplier; no absence credit.
			continue
		}
		if countWorkedDays(workedDates, day, 7) < policy.MinDaysForPaidHoliday {
			continue
		}

		// A fixed schedule credits its expected hours; a rotational one
		// credits the pattern's average working-day hours, since the holiday
		// itself has no meaningful slot.
		credit := policy.ExpectedHours
		if policy.Type == shift.TypeRotational && policy.Rotation != nil {
			credit = policy.Rotation.AverageWorkHours()
		}
		if credit <= 0 {
			continue
		}

		if policy.DistributeHolidayBonus && len(workedOrder) > 0 {
			share := credit / float64(len(workedOrder))
			for _, date := range workedOrder {
				distributed[date] += share
			}
			continue
		}
		credits = append(credits, BonusCredit{
			EmployeeID: employeeID,
			Date:       day.Format("2006-01-02"),
			Hours:      round2(credit),
		})
	}

	for _, date := range workedOrder {
		if hours, ok := distributed[date]; ok {
			credits = append(credits, BonusCredit{
				EmployeeID: employeeID,
				Date:       date,
				Hours:      round2(hours),
			})
		}
	}
	sort.Slice(credits, func(i, j int) bool { return credits[i].Date < credits[j].Date })
	return credits
}

// countWorkedDays counts distinct worked days in the `days`-day window
// ending the day before `until`. A day counts iff its actual work was
// positive.
func countWorkedDays(workedDates map[string]bool, until time.Time, days int) int {
	count := 0
	for i := 1; i <= days; i++ {
		if workedDates[until.AddDate(0, 0, -i).Format("2006-01-02")] {
			count++
		}
	}
	return count
}

// ExceptionReport surfaces every non-fatal deviation for human review.
type ExceptionReport struct {
	AbandonedSessions []Result       `json:"abandonedSessions"`
	OrphanOuts        []Diagnostic   `json:"orphanOuts"`
	UnresolvedCodes   map[string]int `json:"unresolvedCodes"`
	OngoingSessions   []Result       `json:"ongoingSessions"`
	DefaultedPolicies []Result       `json:"defaultedPolicies"`
}

// BuildExceptions partitions classifier output and diagnostics into the
// exception report.
func BuildExceptions(results []Result, diags []Diagnostic, unresolved map[string]int) ExceptionReport {
	report := ExceptionReport{
		OrphanOuts:      diags,
		UnresolvedCodes: unresolved,
	}
	if report.UnresolvedCodes == nil {
		report.UnresolvedCodes = map[string]int{}
	}
	for _, r := range results {
		switch r.CloseReason {
		case CloseNextIn:
			report.AbandonedSessions = append(report.AbandonedSessions, r)
		case CloseWindow:
			report.OngoingSessions = append(report.OngoingSessions, r)
		}
		if r.Defaulted {
			report.DefaultedPolicies = append(report.DefaultedPolicies, r)
		}
	}
	return report
}
