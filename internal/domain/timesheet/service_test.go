package timesheet

import (
	"context"
	"testing"
	"time"

	"timeclock/internal/domain/punch"
	"timeclock/internal/domain/shift"
)

type fakePunchSource struct {
	punches []punch.Punch
}

func (f *fakePunchSource) ListForEmployee(_ context.Context, employeeID string, from, to time.Time) ([]punch.Punch, error) {
	var out []punch.Punch
	for _, p := range f.punches {
		if p.EmployeeID == employeeID && !p.OccurredAt.Before(from) && p.OccurredAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePunchSource) ListRaw(_ context.Context, _, _ string, from, to time.Time) ([]punch.Punch, error) {
	var out []punch.Punch
	for _, p := range f.punches {
		if !p.OccurredAt.Before(from) && p.OccurredAt.Before(to) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakePunchSource) UnresolvedCodes(context.Context, time.Time, time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}

type fakePolicySource struct {
	policy shift.Policy
}

func (f *fakePolicySource) PolicyFor(context.Context, string, time.Time) (shift.Policy, error) {
	return f.policy, nil
}

type fakeEmployeeSource struct {
	ids []string
}

func (f *fakeEmployeeSource) ListIDs(context.Context, string) ([]string, error) {
	return f.ids, nil
}

func TestMonthlyRollsCreditsIntoSummary(t *testing.T) {
	policy := administrativePolicy()
	policy.MinDaysForPaidHoliday = 4

	// Full days Mon 2026-03-02 .. Thu 05; Friday 06 is the unworked holiday.
	var punches []punch.Punch
	for day := 2; day <= 5; day++ {
		punches = append(punches,
			punchAt(punch.KindIn, at(day, 8, 0)),
			punchAt(punch.KindOut, at(day, 16, 0)),
		)
	}

	svc := NewService(
		&fakePunchSource{punches: punches},
		&fakePolicySource{policy: policy},
		&fakeEmployeeSource{ids: []string{"emp-1"}},
		DefaultReconstructConfig(),
		t.TempDir(),
	)

	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
	report, err := svc.Monthly(context.Background(), "emp-1", from, to)
	if err != nil {
		t.Fatalf("monthly failed: %v", err)
	}

	if report.Summary.ActualWork != 32 || report.Summary.PresentDays != 4 {
		t.Fatalf("expected 32h over 4 present days, got %+v", report.Summary)
	}
	if len(report.Credits) != 1 || report.Credits[0].Date != "2026-03-06" {
		t.Fatalf("expected one credit on the holiday, got %+v", report.Credits)
	}
	if report.Summary.HolidayCredit != 8 {
		t.Fatalf("summary must carry the credit sum, got %v", report.Summary.HolidayCredit)
	}
	// Saturday 07 is the only scheduled day with no session.
	if report.Summary.AbsentDays != 1 {
		t.Fatalf("expected 1 absence, got %d", report.Summary.AbsentDays)
	}
}
