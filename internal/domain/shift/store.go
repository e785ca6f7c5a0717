package shift

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB          *pgxpool.Pool
	DefaultName string
}

func NewStore(db *pgxpool.Pool, defaultName string) *Store {
	return &Store{DB: db, DefaultName: defaultName}
}

const policyColumns = `
  id, name, type, start_time, end_time, expected_hours,
  grace_in, grace_out, ot_threshold, end_day_offset,
  mult_normal, mult_holiday, holiday_weekdays,
  is_holiday_paid, min_days_for_paid_holiday, distribute_holiday_bonus,
  rotation_pattern, active`

func (s *Store) CreatePolicy(ctx context.Context, p Policy) (string, error) {
	weekdays, err := MarshalWeekdays(p.HolidayWeekdays)
	if err != nil {
		return "", err
	}
	var rotation []byte
	if p.Rotation != nil {
		rotation, err = json.Marshal(p.Rotation)
		if err != nil {
			return "", err
		}
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO shift_policies (
      name, type, start_time, end_time, expected_hours,
      grace_in, grace_out, ot_threshold, end_day_offset,
      mult_normal, mult_holiday, holiday_weekdays,
      is_holiday_paid, min_days_for_paid_holiday, distribute_holiday_bonus,
      rotation_pattern, active
    ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,true)
    RETURNING id
  `, p.Name, p.Type, p.StartTime, p.EndTime, p.ExpectedHours,
		p.GraceInMin, p.GraceOutMin, p.OTThresholdMin, p.EndDayOffset,
		p.MultNormal, p.MultHoliday, weekdays,
		p.IsHolidayPaid, p.MinDaysForPaidHoliday, p.DistributeHolidayBonus,
		rotation).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) ListPolicies(ctx context.Context) ([]Policy, error) {
	rows, err := s.DB.Query(ctx, `SELECT `+policyColumns+` FROM shift_policies ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) GetPolicy(ctx context.Context, id string) (*Policy, error) {
	row := s.DB.QueryRow(ctx, `SELECT `+policyColumns+` FROM shift_policies WHERE id = $1`, id)
	p, err := scanPolicy(row)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// PolicyFor resolves the policy in effect for (employee, instant): the
// newest assignment whose window contains the instant. When none covers
// it, the documented default policy is substituted and flagged.
func (s *Store) PolicyFor(ctx context.Context, employeeID string, at time.Time) (Policy, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT `+policyColumns+`
    FROM shift_assignments a
    JOIN shift_policies p ON a.policy_id = p.id
    WHERE a.employee_id = $1
      AND a.start_at <= $2
      AND (a.end_at IS NULL OR a.end_at >= $2)
    ORDER BY a.start_at DESC
    LIMIT 1
  `, employeeID, at)
	p, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return DefaultPolicy(s.DefaultName), nil
	}
	if err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Assign supersedes the employee's current assignment at startAt and opens
// a new one. Both writes commit as one unit.
func (s *Store) Assign(ctx context.Context, employeeID, policyID string, startAt time.Time) (string, error) {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
    UPDATE shift_assignments
    SET end_at = $1
    WHERE employee_id = $2 AND end_at IS NULL AND start_at < $1
  `, startAt, employeeID); err != nil {
		return "", err
	}

	var id string
	if err := tx.QueryRow(ctx, `
    INSERT INTO shift_assignments (employee_id, policy_id, start_at)
    VALUES ($1, $2, $3)
    RETURNING id
  `, employeeID, policyID, startAt).Scan(&id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func scanPolicy(row pgx.Row) (Policy, error) {
	var p Policy
	var weekdays, rotation []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Type, &p.StartTime, &p.EndTime, &p.ExpectedHours,
		&p.GraceInMin, &p.GraceOutMin, &p.OTThresholdMin, &p.EndDayOffset,
		&p.MultNormal, &p.MultHoliday, &weekdays,
		&p.IsHolidayPaid, &p.MinDaysForPaidHoliday, &p.DistributeHolidayBonus,
		&rotation, &p.Active,
	)
	if err != nil {
		return Policy{}, err
	}
	if p.HolidayWeekdays, err = ParseWeekdays(weekdays); err != nil {
		return Policy{}, err
	}
	if len(rotation) > 0 {
		var r Rotation
		if err := json.Unmarshal(rotation, &r); err != nil {
			return Policy{}, err
		}
		p.Rotation = &r
	}
	return p, nil
}
