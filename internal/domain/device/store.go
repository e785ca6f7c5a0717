package device

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"timeclock/internal/platform/querier"
)

var ErrDuplicate = errors.New("terminal already registered for address and port")
var ErrNotFound = errors.New("terminal not found")

type Store struct {
	DB querier.Querier
}

func NewStore(db querier.Querier) *Store {
	return &Store{DB: db}
}

func (s *Store) Add(ctx context.Context, name, address string, port int, role string) (string, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO terminals (name, address, port, role, active, health)
    VALUES ($1, $2, $3, $4, true, 'offline')
    RETURNING id
  `, name, address, port, role).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return "", ErrDuplicate
		}
		return "", err
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id string) (*Terminal, error) {
	row := s.DB.QueryRow(ctx, `
    SELECT id, name, address, port, role, active, health, last_sync, COALESCE(last_error, ''), created_at
    FROM terminals
    WHERE id = $1
  `, id)
	var t Terminal
	if err := row.Scan(&t.ID, &t.Name, &t.Address, &t.Port, &t.Role, &t.Active, &t.Health, &t.LastSync, &t.LastError, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *Store) List(ctx context.Context) ([]Terminal, error) {
	return s.list(ctx, `
    SELECT id, name, address, port, role, active, health, last_sync, COALESCE(last_error, ''), created_at
    FROM terminals
    ORDER BY name
  `)
}

func (s *Store) ListActive(ctx context.Context) ([]Terminal, error) {
	return s.list(ctx, `
    SELECT id, name, address, port, role, active, health, last_sync, COALESCE(last_error, ''), created_at
    FROM terminals
    WHERE active
    ORDER BY name
  `)
}

func (s *Store) list(ctx context.Context, query string) ([]Terminal, error) {
	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Terminal
	for rows.Next() {
		var t Terminal
		if err := rows.Scan(&t.ID, &t.Name, &t.Address, &t.Port, &t.Role, &t.Active, &t.Health, &t.LastSync, &t.LastError, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SetHealth records the outcome of a sync attempt. lastErr is cleared when
// empty.
func (s *Store) SetHealth(ctx context.Context, id, health, lastErr string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE terminals SET health = $1, last_error = NULLIF($2, '') WHERE id = $3
  `, health, lastErr, id)
	return err
}

func (s *Store) MarkSynced(ctx context.Context, id string, at time.Time) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE terminals SET health = 'online', last_error = NULL, last_sync = $1 WHERE id = $2
  `, at, id)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM terminals WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
