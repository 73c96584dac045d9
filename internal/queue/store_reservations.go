package queue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garywelz/copernicus-web-sub000/internal/services"
)

// ReserveName records a canonical name reservation for a job. A second
// reservation of the same name fails with services.ErrNameAllocationConflict.
func (s *Store) ReserveName(ctx context.Context, name, jobToken string) error {
	err := s.execWithoutResultRetry(
		ctx,
		`INSERT INTO name_reservations (name, job_token, reserved_at) VALUES (?, ?, ?)`,
		name,
		jobToken,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return services.Wrap(services.ErrNameAllocationConflict, "naming", "reserve",
				fmt.Sprintf("canonical name %q is already reserved", name), err)
		}
		return fmt.Errorf("reserve name: %w", err)
	}
	return nil
}

// ReservedNames returns reserved canonical names, optionally filtered by prefix.
func (s *Store) ReservedNames(ctx context.Context, prefix string) ([]string, error) {
	query := `SELECT name FROM name_reservations`
	var args []any
	if prefix != "" {
		query += ` WHERE name LIKE ?`
		args = append(args, prefix+"%")
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ReleaseName drops a reservation, used when a job fails after naming so the
// name can be reissued.
func (s *Store) ReleaseName(ctx context.Context, name string) error {
	if err := s.execWithoutResultRetry(ctx, `DELETE FROM name_reservations WHERE name = ?`, name); err != nil {
		return fmt.Errorf("release name: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "constraint failed")
}
