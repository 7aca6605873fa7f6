package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/user"
)

const userColumns = `id, name, email, role, organization_id, points, active, created_at, updated_at`

// CreateUser inserts the user. An organization id, when set, must resolve
// to an existing organization. A duplicate email maps to user.ErrEmailTaken.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if u.OrganizationID != "" {
			if err := checkReference(ctx, tx, "organizations", "organization_id", u.OrganizationID); err != nil {
				return err
			}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			u.ID, u.Name, u.Email, string(u.Role), u.OrganizationID, u.Points, u.Active,
			toMillis(u.CreatedAt), toMillis(u.UpdatedAt),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailTaken
			}
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

// GetUser returns the active user with the given id. Deactivated users
// are reported as not found.
func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ? AND active = 1`, id)
	return scanUser(row)
}

// GetUserByEmail returns the active user with the given email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? AND active = 1`, email)
	return scanUser(row)
}

// ListUsers returns all active users.
func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.queryUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE active = 1
		ORDER BY created_at, id`)
}

// ListUsersByOrganization returns the organization's active members,
// ordered by name.
func (s *Store) ListUsersByOrganization(ctx context.Context, orgID string) ([]user.User, error) {
	return s.queryUsers(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE organization_id = ? AND active = 1
		ORDER BY name, id`, orgID)
}

// UpdateUser applies the patch to the user and returns the stored result.
// Deactivated users cannot be updated, and a changed organization must
// resolve to an existing one.
func (s *Store) UpdateUser(ctx context.Context, userID string, patch user.Patch, now time.Time) (user.User, error) {
	var updated user.User
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
		current, err := scanUser(row)
		if err != nil {
			return err
		}
		if !current.Active {
			return storage.ErrNotFound
		}
		if patch.OrganizationID != nil && *patch.OrganizationID != "" {
			if err := checkReference(ctx, tx, "organizations", "organization_id", *patch.OrganizationID); err != nil {
				return err
			}
		}
		updated = patch.Apply(current, now)
		_, err = tx.ExecContext(ctx, `
			UPDATE users SET name = ?, email = ?, role = ?, organization_id = ?,
				points = ?, active = ?, updated_at = ?
			WHERE id = ?`,
			updated.Name, updated.Email, string(updated.Role), updated.OrganizationID,
			updated.Points, updated.Active, toMillis(updated.UpdatedAt), updated.ID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailTaken
			}
			return fmt.Errorf("update user: %w", err)
		}
		return nil
	})
	if err != nil {
		return user.User{}, err
	}
	return updated, nil
}

// DeactivateUser marks the user inactive. The row survives so task
// history stays resolvable.
func (s *Store) DeactivateUser(ctx context.Context, userID string, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET active = 0, updated_at = ? WHERE id = ?`,
		toMillis(now), userID,
	)
	if err != nil {
		return fmt.Errorf("deactivate user: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate user rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AwardPoints adds points to the user's balance. A missing or inactive
// recipient is reported as not found.
func (s *Store) AwardPoints(ctx context.Context, userID string, points int, now time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET points = points + ?, updated_at = ?
		WHERE id = ? AND active = 1`,
		points, toMillis(now), userID,
	)
	if err != nil {
		return fmt.Errorf("award points: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("award points rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) queryUsers(ctx context.Context, query string, args ...any) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row rowScanner) (user.User, error) {
	var u user.User
	var role string
	var createdAt, updatedAt int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &u.OrganizationID,
		&u.Points, &u.Active, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, storage.ErrNotFound
		}
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = user.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return u, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
