package timesheet

import (
	"fmt"
	"time"

	"timeclock/internal/domain/punch"
)

type CloseReason string

const (
	CloseNormal CloseReason = "closed-normally"
	CloseNextIn CloseReason = "closed-by-next-in"
	CloseWindow CloseReason = "closed-by-window"
)

type Break struct {
	Out time.Time `json:"out"`
	In  time.Time `json:"in"`
}

// Session is one contiguous work attempt: a first IN, breaks, and an
// optional final OUT. End is zero when no final OUT was observed.
type Session struct {
	EmployeeID  string      `json:"employeeId"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end,omitempty"`
	Breaks      []Break     `json:"breaks,omitempty"`
	CloseReason CloseReason `json:"closeReason"`
}

func (s Session) HasFinalOut() bool {
	return !s.End.IsZero()
}

func (s Session) BreakHours() float64 {
	var total float64
	for _, b := range s.Breaks {
		total += b.In.Sub(b.Out).Hours()
	}
	return total
}

// Diagnostic records a non-fatal deviation for the exception report.
type Diagnostic struct {
	Kind       string    `json:"kind"`
	EmployeeID string    `json:"employeeId"`
	At         time.Time `json:"at"`
	Message    string    `json:"message"`
}

const DiagOrphanOut = "orphan_out"

// ReconstructConfig carries the thresholds that were hard-coded in older
// attendance systems. BreakThreshold separates a break from a session
// boundary; MaxSpan force-closes sessions the policy can never produce.
type ReconstructConfig struct {
	BreakThreshold time.Duration
	MaxSpan        time.Duration
}

func DefaultReconstructConfig() ReconstructConfig {
	return ReconstructConfig{
		BreakThreshold: 4 * time.Hour,
		MaxSpan:        48 * time.Hour,
	}
}

// Reconstruct folds an ordered punch stream for one employee into
// sessions. Punches must be in non-decreasing instant order.
//
// Rules: an OUT..IN gap under the break threshold is a break; a gap at or
// over it closes the session at the OUT. A fresh IN with no intervening
// OUT abandons the open session. An OUT with no open session is discarded
// with a diagnostic. The trailing session closes at its last OUT, or stays
// open (closed-by-window) when none was seen.
func Reconstruct(punches []punch.Punch, cfg ReconstructConfig) ([]Session, []Diagnostic) {
	if cfg.BreakThreshold <= 0 {
		cfg.BreakThreshold = DefaultReconstructConfig().BreakThreshold
	}

	var sessions []Session
	var diags []Diagnostic
	var open *Session
	var pendingOut time.Time

	closeAt := func(end time.Time, reason CloseReason) {
		open.End = end
		open.CloseReason = reason
		sessions = append(sessions, *open)
		open = nil
		pendingOut = time.Time{}
	}

	for _, p := range punches {
		if open != nil && cfg.MaxSpan > 0 && p.OccurredAt.Sub(open.Start) > cfg.MaxSpan {
			if pendingOut.IsZero() {
				closeAt(time.Time{}, CloseWindow)
			} else {
				closeAt(pendingOut, CloseNormal)
			}
		}

		switch {
		case p.Kind.IsArrival():
			if open == nil {
				open = &Session{EmployeeID: p.EmployeeID, Start: p.OccurredAt}
				continue
			}
			if !pendingOut.IsZero() {
				if p.OccurredAt.Sub(pendingOut) < cfg.BreakThreshold {
					open.Breaks = append(open.Breaks, Break{Out: pendingOut, In: p.OccurredAt})
					pendingOut = time.Time{}
					continue
				}
				closeAt(pendingOut, CloseNormal)
				open = &Session{EmployeeID: p.EmployeeID, Start: p.OccurredAt}
				continue
			}
			// Back-to-back IN: the first session ends with no check-out.
			closeAt(time.Time{}, CloseNextIn)
			open = &Session{EmployeeID: p.EmployeeID, Start: p.OccurredAt}

		case p.Kind.IsDeparture():
			if open == nil {
				diags = append(diags, Diagnostic{
					Kind:       DiagOrphanOut,
					EmployeeID: p.EmployeeID,
					At:         p.OccurredAt,
					Message:    fmt.Sprintf("OUT punch at %s with no open session", p.OccurredAt.Format("2006-01-02 15:04")),
				})
				continue
			}
			if pendingOut.IsZero() || p.OccurredAt.Sub(pendingOut) < cfg.BreakThreshold {
				// The last OUT preceding the next IN closes the session.
				pendingOut = p.OccurredAt
				continue
			}
			closeAt(pendingOut, CloseNormal)
			diags = append(diags, Diagnostic{
				Kind:       DiagOrphanOut,
				EmployeeID: p.EmployeeID,
				At:         p.OccurredAt,
				Message:    fmt.Sprintf("OUT punch at %s after session already closed", p.OccurredAt.Format("2006-01-02 15:04")),
			})
		}
	}

	if open != nil {
		if pendingOut.IsZero() {
			closeAt(time.Time{}, CloseWindow)
		} else {
			closeAt(pendingOut, CloseNormal)
		}
	}

	return sessions, diags
}
