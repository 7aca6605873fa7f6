package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/taskhub/internal/org"
	"github.com/louisbranch/taskhub/internal/storage"
)

const orgColumns = `id, name, description, owner_id, created_at, updated_at`

// CreateOrganization inserts the organization. The owner must resolve to
// an existing user; an owner with no organization yet is adopted into the
// new one.
func (s *Store) CreateOrganization(ctx context.Context, o org.Organization) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkReference(ctx, tx, "users", "owner_id", o.OwnerID); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO organizations (`+orgColumns+`)
			VALUES (?, ?, ?, ?, ?, ?)`,
			o.ID, o.Name, o.Description, o.OwnerID,
			toMillis(o.CreatedAt), toMillis(o.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert organization: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET organization_id = ?, updated_at = ?
			WHERE id = ? AND organization_id = ''`,
			o.ID, toMillis(o.UpdatedAt), o.OwnerID,
		); err != nil {
			return fmt.Errorf("adopt organization owner: %w", err)
		}
		return nil
	})
}

// GetOrganization returns the organization with the given id.
func (s *Store) GetOrganization(ctx context.Context, id string) (org.Organization, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id)
	return scanOrganization(row)
}

// ListOrganizations returns all organizations, oldest first.
func (s *Store) ListOrganizations(ctx context.Context) ([]org.Organization, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orgColumns+` FROM organizations ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	var orgs []org.Organization
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, err
		}
		orgs = append(orgs, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return orgs, nil
}

// UpdateOrganization applies the patch and returns the stored result. A
// changed owner must resolve to an existing user.
func (s *Store) UpdateOrganization(ctx context.Context, orgID string, patch org.Patch, now time.Time) (org.Organization, error) {
	var updated org.Organization
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = ?`, orgID)
		current, err := scanOrganization(row)
		if err != nil {
			return err
		}
		if patch.OwnerID != nil && *patch.OwnerID != "" {
			if err := checkReference(ctx, tx, "users", "owner_id", *patch.OwnerID); err != nil {
				return err
			}
		}
		updated = patch.Apply(current, now)
		if _, err := tx.ExecContext(ctx, `
			UPDATE organizations SET name = ?, description = ?, owner_id = ?, updated_at = ?
			WHERE id = ?`,
			updated.Name, updated.Description, updated.OwnerID,
			toMillis(updated.UpdatedAt), updated.ID,
		); err != nil {
			return fmt.Errorf("update organization: %w", err)
		}
		return nil
	})
	if err != nil {
		return org.Organization{}, err
	}
	return updated, nil
}

// DeleteOrganization removes the organization. Members keep their rows
// but are detached from it.
func (s *Store) DeleteOrganization(ctx context.Context, orgID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, orgID)
		if err != nil {
			return fmt.Errorf("delete organization: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("delete organization rows affected: %w", err)
		}
		if rows == 0 {
			return storage.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET organization_id = '' WHERE organization_id = ?`, orgID); err != nil {
			return fmt.Errorf("detach organization members: %w", err)
		}
		return nil
	})
}

func scanOrganization(row rowScanner) (org.Organization, error) {
	var o org.Organization
	var createdAt, updatedAt int64
	err := row.Scan(&o.ID, &o.Name, &o.Description, &o.OwnerID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return org.Organization{}, storage.ErrNotFound
		}
		return org.Organization{}, fmt.Errorf("scan organization: %w", err)
	}
	o.CreatedAt = fromMillis(createdAt)
	o.UpdatedAt = fromMillis(updatedAt)
	return o, nil
}
