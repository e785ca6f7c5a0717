package timesheet

import (
	"math"
	"testing"
	"time"

	"timeclock/internal/domain/shift"
)

func administrativePolicy() shift.Policy {
	return shift.Policy{
		Name:            "Administrative",
		Type:            shift.TypeFixed,
		StartTime:       "08:00",
		EndTime:         "16:00",
		ExpectedHours:   8,
		GraceInMin:      15,
		GraceOutMin:     15,
		OTThresholdMin:  30,
		MultNormal:      1.5,
		MultHoliday:     2.0,
		HolidayWeekdays: []time.Weekday{time.Friday},
		IsHolidayPaid:   true,
		Active:          true,
	}
}

func closedSession(start, end time.Time, breaks ...Break) Session {
	return Session{EmployeeID: "emp-1", Start: start, End: end, Breaks: breaks, CloseReason: CloseNormal}
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 0.011
}

// 2026-03-04 is a Wednesday, 2026-03-06 a Friday.

func TestClassifyOrdinaryDay(t *testing.T) {
	s := closedSession(at(4, 8, 5), at(4, 16, 10), Break{Out: at(4, 12, 0), In: at(4, 12, 45)})
	r := Classify(s, administrativePolicy())

	if !near(r.TotalHours, 8.08) {
		t.Fatalf("expected total 8.08, got %v", r.TotalHours)
	}
	if !near(r.BreakHours, 0.75) {
		t.Fatalf("expected breaks 0.75, got %v", r.BreakHours)
	}
	if !near(r.ActualWork, 7.33) {
		t.Fatalf("expected actual 7.33, got %v", r.ActualWork)
	}
	if r.Capacity != 8 {
		t.Fatalf("expected capacity 8, got %v", r.Capacity)
	}
	if r.Overtime != 0 {
		t.Fatalf("expected no overtime, got %v", r.Overtime)
	}
	if r.Status != StatusPresent {
		t.Fatalf("expected present, got %s", r.Status)
	}
	if r.IsHoliday {
		t.Fatal("Wednesday is not a holiday")
	}
}

func TestClassifyLateAndEarlyLeave(t *testing.T) {
	s := closedSession(at(4, 8, 25), at(4, 15, 40))
	r := Classify(s, administrativePolicy())

	if !near(r.TotalHours, 7.25) || !near(r.ActualWork, 7.25) {
		t.Fatalf("expected 7.25 worked, got total %v actual %v", r.TotalHours, r.ActualWork)
	}
	if r.BreakHours != 0 {
		t.Fatalf("expected no breaks, got %v", r.BreakHours)
	}
	if r.Overtime != 0 {
		t.Fatalf("expected no overtime, got %v", r.Overtime)
	}
	if r.Status != StatusLateEarlyLeave {
		t.Fatalf("expected late & early_leave, got %s", r.Status)
	}
}

func TestClassifyOvernightRotationalSlot(t *testing.T) {
	p := shift.Policy{
		Name:           "Guard",
		Type:           shift.TypeRotational,
		GraceInMin:     15,
		GraceOutMin:    15,
		OTThresholdMin: 30,
		MultNormal:     1.5,
		MultHoliday:    2.0,
		Rotation: &shift.Rotation{
			Epoch: "2026-03-02",
			Slots: []shift.RotationSlot{{Label: "N", Start: "16:00", End: "08:00", Hours: 16, Offset: 1}},
			Days:  []shift.RotationDay{{Slots: []string{"N"}}, {Off: true}},
		},
		Active: true,
	}
	// Monday 16:02 in, Tuesday 08:10 out.
	s := closedSession(at(2, 16, 2), at(3, 8, 10))
	r := Classify(s, p)

	if !near(r.TotalHours, 16.13) || !near(r.ActualWork, 16.13) {
		t.Fatalf("expected about 16.13 worked, got total %v actual %v", r.TotalHours, r.ActualWork)
	}
	if r.Capacity != 16 {
		t.Fatalf("expected capacity 16, got %v", r.Capacity)
	}
	if r.Overtime != 0 {
		t.Fatalf("expected no overtime under the threshold, got %v", r.Overtime)
	}
	if r.Status != StatusPresent {
		t.Fatalf("expected present, got %s", r.Status)
	}
}

func TestClassifyHolidayWorked(t *testing.T) {
	s := closedSession(at(6, 8, 0), at(6, 14, 0))
	r := Classify(s, administrativePolicy())

	if !r.IsHoliday {
		t.Fatal("Friday must be flagged as holiday")
	}
	if !near(r.ActualWork, 6) || r.Capacity != 8 {
		t.Fatalf("expected 6 worked against capacity 8, got %v/%v", r.ActualWork, r.Capacity)
	}
	if r.Overtime != 0 {
		t.Fatalf("capacity not exceeded, expected no overtime, got %v", r.Overtime)
	}
	if r.Multiplier != 2.0 {
		t.Fatalf("expected holiday multiplier 2.0, got %v", r.Multiplier)
	}
	if r.Status != StatusEarlyLeave {
		t.Fatalf("expected early_leave, got %s", r.Status)
	}
}

func TestClassifyOvertimeAccrual(t *testing.T) {
	// 08:00 to 17:30 with no breaks: 9.5h against capacity 8, threshold
	// 30min. Overtime = 1.5h * 1.5.
	s := closedSession(at(4, 8, 0), at(4, 17, 30))
	r := Classify(s, administrativePolicy())

	if !near(r.Overtime, 2.25) {
		t.Fatalf("expected overtime 2.25, got %v", r.Overtime)
	}
	if r.Status != StatusPresent {
		t.Fatalf("expected present, got %s", r.Status)
	}
}

func TestClassifyOngoingSession(t *testing.T) {
	s := Session{EmployeeID: "emp-1", Start: at(4, 15, 30), CloseReason: CloseWindow}
	r := Classify(s, administrativePolicy())

	if r.Status != StatusOngoing {
		t.Fatalf("expected ongoing, got %s", r.Status)
	}
	if r.TotalHours != 0 || r.ActualWork != 0 || r.Overtime != 0 {
		t.Fatalf("open session has no measured hours, got %+v", r)
	}
	if r.End != nil {
		t.Fatal("open session must have no end")
	}
}

func TestClassifyOngoingSessionWithBreakReportsNoHours(t *testing.T) {
	// IN 08:00, OUT 12:00, IN 12:30, then the window closed: the break is
	// kept on the session but must not surface while the total is zero.
	s := Session{
		EmployeeID:  "emp-1",
		Start:       at(4, 8, 0),
		Breaks:      []Break{{Out: at(4, 12, 0), In: at(4, 12, 30)}},
		CloseReason: CloseWindow,
	}
	r := Classify(s, administrativePolicy())

	if r.Status != StatusOngoing {
		t.Fatalf("expected ongoing, got %s", r.Status)
	}
	if r.BreakHours != 0 {
		t.Fatalf("open session must report no break hours, got %v", r.BreakHours)
	}
	if r.ActualWork+r.BreakHours > r.TotalHours+0.011 {
		t.Fatalf("worked+breaks exceeds total: %+v", r)
	}
}

func TestClassifyOffDayWork(t *testing.T) {
	p := shift.Policy{
		Name:           "Guard",
		Type:           shift.TypeRotational,
		OTThresholdMin: 30,
		MultNormal:     1.5,
		MultHoliday:    2.0,
		IsHolidayPaid:  true,
		Rotation: &shift.Rotation{
			Epoch: "2026-03-02",
			Slots: []shift.RotationSlot{{Label: "D", Start: "08:00", End: "16:00", Hours: 8}},
			Days:  []shift.RotationDay{{Slots: []string{"D"}}, {Off: true}},
		},
		Active: true,
	}
	// Tuesday is the OFF day in this pattern.
	s := closedSession(at(3, 8, 0), at(3, 14, 0))
	r := Classify(s, p)

	if !r.OffDay {
		t.Fatal("expected an off-day session")
	}
	if r.Capacity != 0 {
		t.Fatalf("off day has no capacity, got %v", r.Capacity)
	}
	if !near(r.Overtime, 9) { // 6h * 1.5, all of it past zero capacity
		t.Fatalf("expected pure overtime 9, got %v", r.Overtime)
	}
	if r.Status != StatusPresent {
		t.Fatalf("expected present on off-day work, got %s", r.Status)
	}
}

// Totality: any legal session and policy produce a result with
// non-negative hour fields and actual+breaks <= total within tolerance.
func TestClassifyTotal(t *testing.T) {
	policy := administrativePolicy()
	sessions := []Session{
		{EmployeeID: "e", Start: at(4, 8, 0), CloseReason: CloseNextIn},
		{EmployeeID: "e", Start: at(4, 8, 0), Breaks: []Break{{Out: at(4, 12, 0), In: at(4, 12, 30)}}, CloseReason: CloseWindow},
		closedSession(at(4, 8, 0), at(4, 8, 0)),
		closedSession(at(4, 23, 59), at(5, 0, 1)),
		closedSession(at(4, 8, 0), at(4, 20, 0), Break{Out: at(4, 12, 0), In: at(4, 15, 0)}),
	}
	for i, s := range sessions {
		r := Classify(s, policy)
		if r.ActualWork < 0 || r.Overtime < 0 || r.BreakHours < 0 {
			t.Fatalf("case %d: negative output %+v", i, r)
		}
		if r.ActualWork+r.BreakHours > r.TotalHours+1.0/3600+0.011 {
			t.Fatalf("case %d: actual+breaks exceeds total: %+v", i, r)
		}
	}
}

func TestClassifyDefaultedPolicyFlagged(t *testing.T) {
	s := closedSession(at(4, 8, 0), at(4, 16, 0))
	r := Classify(s, shift.DefaultPolicy("Standard"))
	if !r.Defaulted {
		t.Fatal("expected defaulted flag to carry through")
	}
	if r.ShiftName != "Standard" {
		t.Fatalf("expected Standard shift name, got %s", r.ShiftName)
	}
}
