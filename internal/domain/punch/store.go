package punch

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"timeclock/internal/platform/querier"
)

// ErrDuplicate means the (terminal, device code, instant) triple is already
// in the log. Ingest treats it as "already ingested".
var ErrDuplicate = errors.New("punch already ingested")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// Insert appends one punch. The log is append-only; the unique index on
// (terminal_id, device_code, occurred_at) makes the insert idempotent even
// across crashed syncs.
func (s *Store) Insert(ctx context.Context, p Punch) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO punches (employee_id, device_code, terminal_id, occurred_at, kind, verify_mode, raw_status)
    VALUES (NULLIF($1, ''), $2, NULLIF($3, '')::uuid, $4, $5, $6, $7)
  `, p.EmployeeID, p.DeviceCode, p.TerminalID, p.OccurredAt, string(p.Kind), string(p.Verify), p.RawStatus)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// ListForEmployee returns the employee's punches in the window in
// non-decreasing instant order, as the reconstructor requires.
func (s *Store) ListForEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Punch, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, COALESCE(employee_id::text, ''), device_code, COALESCE(terminal_id::text, ''), occurred_at, kind, verify_mode, raw_status
    FROM punches
    WHERE employee_id = $1 AND occurred_at >= $2 AND occurred_at < $3
    ORDER BY occurred_at, id
  `, employeeID, from, to)
	if err != nil {
		return nil, err
	}
	return scanPunches(rows)
}

func (s *Store) ListRaw(ctx context.Context, employeeID, department string, from, to time.Time) ([]Punch, error) {
	query := `
    SELECT p.id, COALESCE(p.employee_id::text, ''), p.device_code, COALESCE(p.terminal_id::text, ''), p.occurred_at, p.kind, p.verify_mode, p.raw_status
    FROM punches p`
	args := []any{from, to}
	where := ` WHERE p.occurred_at >= $1 AND p.occurred_at < $2`
	if employeeID != "" {
		args = append(args, employeeID)
		where += ` AND p.employee_id = $3`
	} else if department != "" {
		args = append(args, department)
		query += ` JOIN employees e ON p.employee_id = e.id`
		where += ` AND e.department = $3`
	}
	rows, err := s.DB.Query(ctx, query+where+` ORDER BY p.occurred_at, p.id`, args...)
	if err != nil {
		return nil, err
	}
	return scanPunches(rows)
}

// UnresolvedCodes lists device codes in the window that are not linked to
// any employee, with occurrence counts, for the exception report.
func (s *Store) UnresolvedCodes(ctx context.Context, from, to time.Time) (map[string]int, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT device_code, COUNT(1)
    FROM punches
    WHERE employee_id IS NULL AND occurred_at >= $1 AND occurred_at < $2
    GROUP BY device_code
    ORDER BY device_code
  `, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var code string
		var count int
		if err := rows.Scan(&code, &count); err != nil {
			return nil, err
		}
		out[code] = count
	}
	return out, rows.Err()
}

// AdoptCode backfills employee ids on log rows whose device code was
// unresolved at ingest time. The raw code stays on the row.
func (s *Store) AdoptCode(ctx context.Context, employeeID, code string, from time.Time, to *time.Time) (int64, error) {
	query := `
    UPDATE punches SET employee_id = $1
    WHERE employee_id IS NULL AND device_code = $2 AND occurred_at >= $3`
	args := []any{employeeID, code, from}
	if to != nil {
		query += ` AND occurred_at <= $4`
		args = append(args, *to)
	}
	tag, err := s.DB.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPunches(rows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}) ([]Punch, error) {
	defer rows.Close()
	var out []Punch
	for rows.Next() {
		var p Punch
		var kind, verify string
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.DeviceCode, &p.TerminalID, &p.OccurredAt, &kind, &verify, &p.RawStatus); err != nil {
			return nil, err
		}
		p.Kind = EventKind(kind)
		p.Verify = VerifyMode(verify)
		out = append(out, p)
	}
	return out, rows.Err()
}
