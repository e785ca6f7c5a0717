package punch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"timeclock/internal/domain/device"
)

const (
	SyncSuccess = "success"
	SyncWarning = "warning"
	SyncError   = "error"
)

// SyncSummary is the per-terminal outcome envelope. Failures are reported
// in Status, never as transport errors.
type SyncSummary struct {
	TerminalID  string `json:"terminalId"`
	Terminal    string `json:"terminal,omitempty"`
	Scanned     int    `json:"scanned"`
	SyncedCount int    `json:"syncedCount"`
	Skipped     int    `json:"skipped"`
	Unresolved  int    `json:"unresolved"`
	Status      string `json:"status"`
	Message     string `json:"message,omitempty"`
}

type AggregateSummary struct {
	Terminals   []SyncSummary `json:"terminals"`
	Scanned     int           `json:"scanned"`
	SyncedCount int           `json:"syncedCount"`
	Skipped     int           `json:"skipped"`
	Unresolved  int           `json:"unresolved"`
	Failures    int           `json:"failures"`
}

type TerminalStore interface {
	Get(ctx context.Context, id string) (*device.Terminal, error)
	ListActive(ctx context.Context) ([]device.Terminal, error)
	SetHealth(ctx context.Context, id, health, lastErr string) error
	MarkSynced(ctx context.Context, id string, at time.Time) error
}

type LogStore interface {
	Insert(ctx context.Context, p Punch) error
}

type CodeResolver interface {
	ResolveCode(ctx context.Context, code string, at time.Time) (string, error)
}

type SyncRecorder interface {
	RecordSync(scanned, inserted, skipped int, failed bool)
}

// Ingestor pulls raw records from terminals and appends novel punches to
// the log. One terminal's failure never affects another's sync.
type Ingestor struct {
	Terminals TerminalStore
	Log       LogStore
	Codes     CodeResolver
	Dial      device.Dialer
	Metrics   SyncRecorder
	Now       func() time.Time
}

func NewIngestor(terminals TerminalStore, log LogStore, codes CodeResolver, dial device.Dialer, m SyncRecorder) *Ingestor {
	return &Ingestor{
		Terminals: terminals,
		Log:       log,
		Codes:     codes,
		Dial:      dial,
		Metrics:   m,
		Now:       time.Now,
	}
}

func (ing *Ingestor) SyncTerminal(ctx context.Context, terminalID string) SyncSummary {
	terminal, err := ing.Terminals.Get(ctx, terminalID)
	if err != nil {
		return SyncSummary{TerminalID: terminalID, Status: SyncError, Message: err.Error()}
	}
	return ing.syncOne(ctx, *terminal)
}

// SyncAll polls every active terminal in parallel. Per-device polling is
// sequential; failures are isolated per device.
func (ing *Ingestor) SyncAll(ctx context.Context) AggregateSummary {
	terminals, err := ing.Terminals.ListActive(ctx)
	if err != nil {
		slog.Error("terminal list failed", "err", err)
		return AggregateSummary{Failures: 1}
	}

	summaries := make([]SyncSummary, len(terminals))
	var wg sync.WaitGroup
	for i, terminal := range terminals {
		wg.Add(1)
		go func(i int, t device.Terminal) {
			defer wg.Done()
			summaries[i] = ing.syncOne(ctx, t)
		}(i, terminal)
	}
	wg.Wait()

	agg := AggregateSummary{Terminals: summaries}
	for _, s := range summaries {
		agg.Scanned += s.Scanned
		agg.SyncedCount += s.SyncedCount
		agg.Skipped += s.Skipped
		agg.Unresolved += s.Unresolved
		if s.Status == SyncError {
			agg.Failures++
		}
	}
	return agg
}

func (ing *Ingestor) syncOne(ctx context.Context, terminal device.Terminal) SyncSummary {
	summary := SyncSummary{TerminalID: terminal.ID, Terminal: terminal.Name}
	client := ing.Dial(terminal.Address, terminal.Port)

	if err := client.Probe(ctx); err != nil {
		ing.setHealth(ctx, terminal.ID, device.HealthOffline, err.Error())
		ing.recordSync(0, 0, 0, true)
		summary.Status = SyncError
		summary.Message = fmt.Sprintf("terminal unreachable: %v", err)
		return summary
	}

	records, err := client.FetchAll(ctx)
	if err != nil {
		ing.setHealth(ctx, terminal.ID, device.HealthError, err.Error())
		ing.recordSync(0, 0, 0, true)
		summary.Status = SyncError
		summary.Message = fmt.Sprintf("fetch failed: %v", err)
		return summary
	}

	insertFailures := 0
	for _, rec := range records {
		summary.Scanned++

		employeeID, err := ing.Codes.ResolveCode(ctx, rec.UserCode, rec.At)
		if err != nil {
			slog.Warn("device code lookup failed", "terminal", terminal.Name, "code", rec.UserCode, "err", err)
			employeeID = ""
		}
		if employeeID == "" {
			summary.Unresolved++
		}

		p := Punch{
			EmployeeID: employeeID,
			DeviceCode: rec.UserCode,
			TerminalID: terminal.ID,
			OccurredAt: rec.At,
			Kind:       MapKind(terminal.Role, rec.Status, rec.At),
			Verify:     MapVerify(rec.Verify),
			RawStatus:  int16(rec.Status),
		}
		switch err := ing.Log.Insert(ctx, p); err {
		case nil:
			summary.SyncedCount++
		case ErrDuplicate:
			summary.Skipped++
		default:
			insertFailures++
			slog.Warn("punch insert failed", "terminal", terminal.Name, "code", rec.UserCode, "err", err)
		}
	}

	if err := ing.Terminals.MarkSynced(ctx, terminal.ID, ing.Now()); err != nil {
		slog.Warn("terminal sync mark failed", "terminal", terminal.Name, "err", err)
	}
	ing.recordSync(summary.Scanned, summary.SyncedCount, summary.Skipped, insertFailures > 0)

	switch {
	case insertFailures > 0:
		summary.Status = SyncWarning
		summary.Message = fmt.Sprintf("%d records failed to insert", insertFailures)
	case summary.Unresolved > 0:
		summary.Status = SyncWarning
		summary.Message = fmt.Sprintf("%d punches from unlinked device codes", summary.Unresolved)
	default:
		summary.Status = SyncSuccess
	}
	return summary
}

func (ing *Ingestor) setHealth(ctx context.Context, id, health, message string) {
	if err := ing.Terminals.SetHealth(ctx, id, health, message); err != nil {
		slog.Warn("terminal health update failed", "terminalId", id, "err", err)
	}
}

func (ing *Ingestor) recordSync(scanned, inserted, skipped int, failed bool) {
	if ing.Metrics != nil {
		ing.Metrics.RecordSync(scanned, inserted, skipped, failed)
	}
}
