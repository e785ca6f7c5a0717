package timesheet

import (
	"testing"
	"time"

	"timeclock/internal/domain/punch"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func punchAt(kind punch.EventKind, t time.Time) punch.Punch {
	return punch.Punch{EmployeeID: "emp-1", DeviceCode: "101", OccurredAt: t, Kind: kind}
}

func TestReconstructOrdinaryDayWithBreak(t *testing.T) {
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 5)),
		punchAt(punch.KindOut, at(4, 12, 0)),
		punchAt(punch.KindIn, at(4, 12, 45)),
		punchAt(punch.KindOut, at(4, 16, 10)),
	}
	sessions, diags := Reconstruct(punches, DefaultReconstructConfig())
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if s.CloseReason != CloseNormal {
		t.Fatalf("expected closed-normally, got %s", s.CloseReason)
	}
	if !s.Start.Equal(at(4, 8, 5)) || !s.End.Equal(at(4, 16, 10)) {
		t.Fatalf("unexpected bounds %v..%v", s.Start, s.End)
	}
	if len(s.Breaks) != 1 {
		t.Fatalf("expected 1 break, got %d", len(s.Breaks))
	}
	if got := s.BreakHours(); got != 0.75 {
		t.Fatalf("expected 0.75 break hours, got %v", got)
	}
}

func TestReconstructLongGapSplitsSessions(t *testing.T) {
	// 11:00 -> 15:30 is 4.5h, at or over the 4h threshold: the first
	// session closes at its OUT and the second stays open.
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindOut, at(4, 11, 0)),
		punchAt(punch.KindIn, at(4, 15, 30)),
	}
	sessions, diags := Reconstruct(punches, DefaultReconstructConfig())
	if len(diags) != 0 {
		t.Fatalf("expected no diagnostics, got %v", diags)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	first, second := sessions[0], sessions[1]
	if first.CloseReason != CloseNormal || !first.End.Equal(at(4, 11, 0)) {
		t.Fatalf("first session should close normally at 11:00, got %+v", first)
	}
	if second.CloseReason != CloseWindow || second.HasFinalOut() {
		t.Fatalf("second session should be open at window end, got %+v", second)
	}
	if !second.Start.Equal(at(4, 15, 30)) {
		t.Fatalf("second session should open at 15:30, got %v", second.Start)
	}
}

func TestReconstructBackToBackIn(t *testing.T) {
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindIn, at(4, 9, 0)),
		punchAt(punch.KindOut, at(4, 16, 0)),
	}
	sessions, _ := Reconstruct(punches, DefaultReconstructConfig())
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].CloseReason != CloseNextIn || sessions[0].HasFinalOut() {
		t.Fatalf("first session should be abandoned without a final OUT, got %+v", sessions[0])
	}
	if sessions[1].CloseReason != CloseNormal || !sessions[1].End.Equal(at(4, 16, 0)) {
		t.Fatalf("second session should close at 16:00, got %+v", sessions[1])
	}
}

func TestReconstructOrphanOutDiscarded(t *testing.T) {
	punches := []punch.Punch{
		punchAt(punch.KindOut, at(4, 7, 0)),
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindOut, at(4, 16, 0)),
	}
	sessions, diags := Reconstruct(punches, DefaultReconstructConfig())
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	if len(diags) != 1 || diags[0].Kind != DiagOrphanOut {
		t.Fatalf("expected one orphan-out diagnostic, got %v", diags)
	}
	if !sessions[0].Start.Equal(at(4, 8, 0)) {
		t.Fatalf("orphan OUT must not affect the session, got start %v", sessions[0].Start)
	}
}

func TestReconstructLastOutBeforeNextInWins(t *testing.T) {
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindOut, at(4, 12, 0)),
		punchAt(punch.KindOut, at(4, 12, 30)),
		punchAt(punch.KindIn, at(4, 13, 0)),
		punchAt(punch.KindOut, at(4, 16, 0)),
	}
	sessions, _ := Reconstruct(punches, DefaultReconstructConfig())
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	s := sessions[0]
	if len(s.Breaks) != 1 || !s.Breaks[0].Out.Equal(at(4, 12, 30)) {
		t.Fatalf("break should start at the last OUT before the IN, got %+v", s.Breaks)
	}
	if !s.End.Equal(at(4, 16, 0)) {
		t.Fatalf("expected end 16:00, got %v", s.End)
	}
}

func TestReconstructBreakKindsBehaveLikeInOut(t *testing.T) {
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindBreakOut, at(4, 12, 0)),
		punchAt(punch.KindBreakIn, at(4, 12, 30)),
		punchAt(punch.KindOut, at(4, 16, 0)),
	}
	sessions, _ := Reconstruct(punches, DefaultReconstructConfig())
	if len(sessions) != 1 || len(sessions[0].Breaks) != 1 {
		t.Fatalf("expected 1 session with 1 break, got %+v", sessions)
	}
	if got := sessions[0].BreakHours(); got != 0.5 {
		t.Fatalf("expected 0.5 break hours, got %v", got)
	}
}

func TestReconstructMaxSpanForcesClose(t *testing.T) {
	cfg := ReconstructConfig{BreakThreshold: 4 * time.Hour, MaxSpan: 48 * time.Hour}
	punches := []punch.Punch{
		punchAt(punch.KindIn, at(2, 8, 0)),
		punchAt(punch.KindIn, at(5, 8, 0)),
	}
	sessions, _ := Reconstruct(punches, cfg)
	if len(sessions) != 2 {
		t.Fatalf("expected forced close plus new session, got %d", len(sessions))
	}
	if sessions[0].CloseReason != CloseWindow {
		t.Fatalf("expected first session closed by window, got %s", sessions[0].CloseReason)
	}
}

// A punch after a session's close must not change that session.
func TestReconstructMonotoneVisibility(t *testing.T) {
	base := []punch.Punch{
		punchAt(punch.KindIn, at(4, 8, 0)),
		punchAt(punch.KindOut, at(4, 16, 0)),
	}
	before, _ := Reconstruct(base, DefaultReconstructConfig())

	extended := append(append([]punch.Punch{}, base...),
		punchAt(punch.KindIn, at(5, 8, 0)),
		punchAt(punch.KindOut, at(5, 16, 0)),
	)
	after, _ := Reconstruct(extended, DefaultReconstructConfig())

	if len(before) != 1 || len(after) != 2 {
		t.Fatalf("expected 1 then 2 sessions, got %d and %d", len(before), len(after))
	}
	if !before[0].Start.Equal(after[0].Start) || !before[0].End.Equal(after[0].End) || before[0].CloseReason != after[0].CloseReason {
		t.Fatalf("earlier session changed: %+v vs %+v", before[0], after[0])
	}
}
