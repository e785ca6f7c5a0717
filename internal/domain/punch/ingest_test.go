package punch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"timeclock/internal/domain/device"
)

type fakeTerminalStore struct {
	terminals map[string]device.Terminal
	health    map[string]string
	synced    map[string]time.Time
}

func newFakeTerminalStore(terminals ...device.Terminal) *fakeTerminalStore {
	s := &fakeTerminalStore{
		terminals: make(map[string]device.Terminal),
		health:    make(map[string]string),
		synced:    make(map[string]time.Time),
	}
	for _, t := range terminals {
		s.terminals[t.ID] = t
	}
	return s
}

func (s *fakeTerminalStore) Get(_ context.Context, id string) (*device.Terminal, error) {
	t, ok := s.terminals[id]
	if !ok {
		return nil, device.ErrNotFound
	}
	return &t, nil
}

func (s *fakeTerminalStore) ListActive(_ context.Context) ([]device.Terminal, error) {
	var out []device.Terminal
	for _, t := range s.terminals {
		if t.Active {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *fakeTerminalStore) SetHealth(_ context.Context, id, health, _ string) error {
	s.health[id] = health
	return nil
}

func (s *fakeTerminalStore) MarkSynced(_ context.Context, id string, at time.Time) error {
	s.health[id] = device.HealthOnline
	s.synced[id] = at
	return nil
}

// fakeLog enforces the (terminal, code, instant) uniqueness the real table
// gets from its index.
type fakeLog struct {
	rows []Punch
	seen map[string]bool
}

func newFakeLog() *fakeLog {
	return &fakeLog{seen: make(map[string]bool)}
}

func (l *fakeLog) Insert(_ context.Context, p Punch) error {
	key := fmt.Sprintf("%s|%s|%d", p.TerminalID, p.DeviceCode, p.OccurredAt.Unix())
	if l.seen[key] {
		return ErrDuplicate
	}
	l.seen[key] = true
	l.rows = append(l.rows, p)
	return nil
}

type fakeResolver map[string]string

func (r fakeResolver) ResolveCode(_ context.Context, code string, _ time.Time) (string, error) {
	return r[code], nil
}

type fakeClient struct {
	probeErr error
	fetchErr error
	records  []device.RawRecord
}

func (c *fakeClient) Probe(context.Context) error { return c.probeErr }

func (c *fakeClient) FetchAll(context.Context) ([]device.RawRecord, error) {
	if c.fetchErr != nil {
		return nil, c.fetchErr
	}
	return c.records, nil
}

func dialerFor(clients map[string]*fakeClient) device.Dialer {
	return func(address string, _ int) device.Client {
		return clients[address]
	}
}

func testTime(hour, minute int) time.Time {
	return time.Date(2026, 3, 4, hour, minute, 0, 0, time.UTC)
}

func TestSyncTerminalIngestsAndReplayIsIdempotent(t *testing.T) {
	terminal := device.Terminal{ID: "t1", Name: "Gate", Address: "10.0.0.5", Port: 4370, Role: device.RoleAuto, Active: true}
	store := newFakeTerminalStore(terminal)
	log := newFakeLog()
	client := &fakeClient{records: []device.RawRecord{
		{UserCode: "101", At: testTime(8, 0), Status: 0, Verify: 1},
		{UserCode: "101", At: testTime(16, 0), Status: 1, Verify: 1},
	}}
	ing := NewIngestor(store, log, fakeResolver{"101": "emp-1"}, dialerFor(map[string]*fakeClient{"10.0.0.5": client}), nil)

	first := ing.SyncTerminal(context.Background(), "t1")
	if first.Status != SyncSuccess {
		t.Fatalf("expected success, got %s (%s)", first.Status, first.Message)
	}
	if first.SyncedCount != 2 || first.Skipped != 0 {
		t.Fatalf("expected 2 synced 0 skipped, got %d/%d", first.SyncedCount, first.Skipped)
	}
	if len(log.rows) != 2 {
		t.Fatalf("expected 2 log rows, got %d", len(log.rows))
	}

	second := ing.SyncTerminal(context.Background(), "t1")
	if second.SyncedCount != 0 || second.Skipped != 2 {
		t.Fatalf("replay: expected 0 synced 2 skipped, got %d/%d", second.SyncedCount, second.Skipped)
	}
	if len(log.rows) != 2 {
		t.Fatalf("replay must not grow the log, got %d rows", len(log.rows))
	}
	if store.health["t1"] != device.HealthOnline {
		t.Fatalf("expected online health, got %s", store.health["t1"])
	}
}

func TestSyncTerminalUnreachableMarksOffline(t *testing.T) {
	terminal := device.Terminal{ID: "t1", Name: "Gate", Address: "10.0.0.5", Port: 4370, Role: device.RoleAuto, Active: true}
	store := newFakeTerminalStore(terminal)
	client := &fakeClient{probeErr: errors.New("dial timeout")}
	ing := NewIngestor(store, newFakeLog(), fakeResolver{}, dialerFor(map[string]*fakeClient{"10.0.0.5": client}), nil)

	summary := ing.SyncTerminal(context.Background(), "t1")
	if summary.Status != SyncError {
		t.Fatalf("expected error status, got %s", summary.Status)
	}
	if store.health["t1"] != device.HealthOffline {
		t.Fatalf("expected offline health, got %s", store.health["t1"])
	}
}

func TestSyncTerminalFetchFailureMarksError(t *testing.T) {
	terminal := device.Terminal{ID: "t1", Name: "Gate", Address: "10.0.0.5", Port: 4370, Role: device.RoleAuto, Active: true}
	store := newFakeTerminalStore(terminal)
	client := &fakeClient{fetchErr: errors.New("bad frame")}
	ing := NewIngestor(store, newFakeLog(), fakeResolver{}, dialerFor(map[string]*fakeClient{"10.0.0.5": client}), nil)

	summary := ing.SyncTerminal(context.Background(), "t1")
	if summary.Status != SyncError {
		t.Fatalf("expected error status, got %s", summary.Status)
	}
	if store.health["t1"] != device.HealthError {
		t.Fatalf("expected error health, got %s", store.health["t1"])
	}
}

func TestSyncTerminalKeepsUnresolvedCodes(t *testing.T) {
	terminal := device.Terminal{ID: "t1", Name: "Gate", Address: "10.0.0.5", Port: 4370, Role: device.RoleAuto, Active: true}
	store := newFakeTerminalStore(terminal)
	log := newFakeLog()
	client := &fakeClient{records: []device.RawRecord{
		{UserCode: "999", At: testTime(8, 0), Status: 0, Verify: 1},
	}}
	ing := NewIngestor(store, log, fakeResolver{}, dialerFor(map[string]*fakeClient{"10.0.0.5": client}), nil)

	summary := ing.SyncTerminal(context.Background(), "t1")
	if summary.Status != SyncWarning {
		t.Fatalf("expected warning for unlinked code, got %s", summary.Status)
	}
	if summary.Unresolved != 1 || summary.SyncedCount != 1 {
		t.Fatalf("unlinked record must still be ingested: %+v", summary)
	}
	if len(log.rows) != 1 || log.rows[0].EmployeeID != "" || log.rows[0].DeviceCode != "999" {
		t.Fatalf("expected unlinked row with raw code retained, got %+v", log.rows)
	}
}

type fakeRecorder struct {
	scanned, inserted, skipped, failures int
}

func (r *fakeRecorder) RecordSync(scanned, inserted, skipped int, failed bool) {
	r.scanned += scanned
	r.inserted += inserted
	r.skipped += skipped
	if failed {
		r.failures++
	}
}

type failingLog struct{}

func (failingLog) Insert(context.Context, Punch) error { return errors.New("insert refused") }

func TestSyncTerminalInsertFailureCountsAsSyncFailure(t *testing.T) {
	terminal := device.Terminal{ID: "t1", Name: "Gate", Address: "10.0.0.5", Port: 4370, Role: device.RoleAuto, Active: true}
	store := newFakeTerminalStore(terminal)
	client := &fakeClient{records: []device.RawRecord{
		{UserCode: "101", At: testTime(8, 0), Status: 0, Verify: 1},
	}}
	rec := &fakeRecorder{}
	ing := NewIngestor(store, failingLog{}, fakeResolver{"101": "emp-1"}, dialerFor(map[string]*fakeClient{"10.0.0.5": client}), rec)

	summary := ing.SyncTerminal(context.Background(), "t1")
	if summary.Status != SyncWarning {
		t.Fatalf("expected warning for failed inserts, got %s", summary.Status)
	}
	if rec.failures != 1 {
		t.Fatalf("failed inserts must count as a sync failure, got %d", rec.failures)
	}
	if rec.scanned != 1 || rec.inserted != 0 {
		t.Fatalf("unexpected counters %+v", rec)
	}
}

func TestSyncAllIsolatesFailures(t *testing.T) {
	good := device.Terminal{ID: "t1", Name: "In door", Address: "10.0.0.5", Port: 4370, Role: device.RoleIn, Active: true}
	bad := device.Terminal{ID: "t2", Name: "Out door", Address: "10.0.0.6", Port: 4370, Role: device.RoleOut, Active: true}
	store := newFakeTerminalStore(good, bad)
	log := newFakeLog()
	clients := map[string]*fakeClient{
		"10.0.0.5": {records: []device.RawRecord{{UserCode: "101", At: testTime(8, 0), Status: 1, Verify: 1}}},
		"10.0.0.6": {probeErr: errors.New("unreachable")},
	}
	ing := NewIngestor(store, log, fakeResolver{"101": "emp-1"}, dialerFor(clients), nil)

	agg := ing.SyncAll(context.Background())
	if agg.SyncedCount != 1 {
		t.Fatalf("expected healthy terminal to sync 1 punch, got %d", agg.SyncedCount)
	}
	if agg.Failures != 1 {
		t.Fatalf("expected 1 failure, got %d", agg.Failures)
	}
	// The in-door terminal forces kind IN even though the raw status said OUT.
	if log.rows[0].Kind != KindIn {
		t.Fatalf("expected door role mapping, got %s", log.rows[0].Kind)
	}
}
