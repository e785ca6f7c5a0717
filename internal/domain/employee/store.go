package employee

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"timeclock/internal/platform/querier"
)

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

// ResolveCode maps a device user code to an employee id for the given
// instant. The newest window containing the instant wins. An empty id with
// a nil error means the code is unlinked.
func (s *Store) ResolveCode(ctx context.Context, code string, at time.Time) (string, error) {
	var employeeID string
	err := s.DB.QueryRow(ctx, `
    SELECT employee_id
    FROM employee_device_codes
    WHERE code = $1
      AND valid_from <= $2
      AND (valid_to IS NULL OR valid_to >= $2)
    ORDER BY valid_from DESC
    LIMIT 1
  `, code, at).Scan(&employeeID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return employeeID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Employee, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, employee_number, first_name, last_name, COALESCE(department, ''), status, created_at
    FROM employees
    WHERE id = $1
  `, id)
	var e Employee
	if err := row.Scan(&e.ID, &e.EmployeeNumber, &e.FirstName, &e.LastName, &e.Department, &e.Status, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) ListIDs(ctx context.Context, department string) ([]string, error) {
	query := `SELECT id FROM employees WHERE status = 'active' ORDER BY employee_number`
	args := []any{}
	if department != "" {
		query = `SELECT id FROM employees WHERE status = 'active' AND department = $1 ORDER BY employee_number`
		args = append(args, department)
	}
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// LinkCode opens a linkage window for a device code, closing any window
// still open for the same code so windows never overlap.
func (s *Store) LinkCode(ctx context.Context, employeeID, code string, from time.Time) (string, error) {
	_, err := s.DB.Exec(ctx, `
    UPDATE employee_device_codes
    SET valid_to = $1
    WHERE code = $2 AND valid_to IS NULL AND valid_from < $1
  `, from, code)
	if err != nil {
		return "", err
	}

	var id string
	err = s.DB.QueryRow(ctx, `
    INSERT INTO employee_device_codes (employee_id, code, valid_from)
    VALUES ($1, $2, $3)
    RETURNING id
  `, employeeID, code, from).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}
