package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/louisbranch/taskhub/internal/invite"
	"github.com/louisbranch/taskhub/internal/storage"
	"github.com/louisbranch/taskhub/internal/user"
)

const invitationColumns = `id, organization_id, email, inviter_id, role, token,
	expires_at, accepted_at, created_at, updated_at`

// CreateInvitation inserts the invitation after resolving its organization
// and inviter. When a live invitation already exists for the same
// organization and email, that one is renewed with the new role, token,
// and expiry instead of inserting a duplicate.
func (s *Store) CreateInvitation(ctx context.Context, inv invite.Invitation, now time.Time) (invite.Invitation, error) {
	var stored invite.Invitation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		if err := checkReference(ctx, tx, "organizations", "organization_id", inv.OrganizationID); err != nil {
			return err
		}
		if inv.InviterID != "" {
			if err := checkReference(ctx, tx, "users", "inviter_id", inv.InviterID); err != nil {
				return err
			}
		}

		row := tx.QueryRowContext(ctx, `
			SELECT `+invitationColumns+` FROM user_invitations
			WHERE organization_id = ? AND email = ? AND accepted_at IS NULL AND expires_at > ?`,
			inv.OrganizationID, inv.Email, toMillis(now),
		)
		existing, err := scanInvitation(row)
		switch {
		case err == nil:
			existing.Token = inv.Token
			existing.ExpiresAt = inv.ExpiresAt
			existing.InviterID = inv.InviterID
			existing.Role = inv.Role
			existing.UpdatedAt = now.UTC()
			if _, err := tx.ExecContext(ctx, `
				UPDATE user_invitations SET token = ?, expires_at = ?, inviter_id = ?, role = ?, updated_at = ?
				WHERE id = ?`,
				existing.Token, toMillis(existing.ExpiresAt), existing.InviterID,
				string(existing.Role), toMillis(existing.UpdatedAt), existing.ID,
			); err != nil {
				return fmt.Errorf("renew invitation: %w", err)
			}
			stored = existing
			return nil
		case errors.Is(err, storage.ErrNotFound):
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO user_invitations (`+invitationColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				inv.ID, inv.OrganizationID, inv.Email, inv.InviterID, string(inv.Role),
				inv.Token, toMillis(inv.ExpiresAt), toNullMillis(inv.AcceptedAt),
				toMillis(inv.CreatedAt), toMillis(inv.UpdatedAt),
			); err != nil {
				return fmt.Errorf("insert invitation: %w", err)
			}
			stored = inv
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return invite.Invitation{}, err
	}
	return stored, nil
}

// GetInvitation returns the invitation with the given id.
func (s *Store) GetInvitation(ctx context.Context, id string) (invite.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM user_invitations WHERE id = ?`, id)
	return scanInvitation(row)
}

// GetInvitationByToken returns the invitation holding the given token.
func (s *Store) GetInvitationByToken(ctx context.Context, token string) (invite.Invitation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+invitationColumns+` FROM user_invitations WHERE token = ?`, token)
	return scanInvitation(row)
}

// ListInvitations returns the invitations still redeemable at the given
// time, newest first.
func (s *Store) ListInvitations(ctx context.Context, now time.Time) ([]invite.Invitation, error) {
	return s.queryInvitations(ctx, `
		SELECT `+invitationColumns+` FROM user_invitations
		WHERE accepted_at IS NULL AND expires_at > ?
		ORDER BY created_at DESC, id`, toMillis(now))
}

// ListInvitationsByOrganization returns all of the organization's
// invitations, redeemed and expired included, newest first.
func (s *Store) ListInvitationsByOrganization(ctx context.Context, orgID string) ([]invite.Invitation, error) {
	return s.queryInvitations(ctx, `
		SELECT `+invitationColumns+` FROM user_invitations
		WHERE organization_id = ?
		ORDER BY created_at DESC, id`, orgID)
}

// DeleteInvitation removes the invitation.
func (s *Store) DeleteInvitation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_invitations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invitation rows affected: %w", err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// AcceptInvitation redeems the live invitation identified by token. The
// new user joins the invitation's organization under the invitation's
// email and role, and the invitation is stamped accepted, all atomically.
func (s *Store) AcceptInvitation(ctx context.Context, token string, newUser user.User, now time.Time) (invite.Invitation, error) {
	var accepted invite.Invitation
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `
			SELECT `+invitationColumns+` FROM user_invitations WHERE token = ?`, token)
		inv, err := scanInvitation(row)
		if err != nil {
			return err
		}
		if !inv.Live(now) {
			return invite.ErrNotRedeemable
		}

		newUser.OrganizationID = inv.OrganizationID
		newUser.Email = inv.Email
		newUser.Role = inv.Role
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			newUser.ID, newUser.Name, newUser.Email, string(newUser.Role),
			newUser.OrganizationID, newUser.Points, newUser.Active,
			toMillis(newUser.CreatedAt), toMillis(newUser.UpdatedAt),
		); err != nil {
			if isUniqueViolation(err) {
				return user.ErrEmailTaken
			}
			return fmt.Errorf("insert invited user: %w", err)
		}

		acceptedAt := now.UTC()
		inv.AcceptedAt = &acceptedAt
		inv.UpdatedAt = acceptedAt
		if _, err := tx.ExecContext(ctx, `
			UPDATE user_invitations SET accepted_at = ?, updated_at = ? WHERE id = ?`,
			toMillis(acceptedAt), toMillis(inv.UpdatedAt), inv.ID,
		); err != nil {
			return fmt.Errorf("stamp invitation accepted: %w", err)
		}

		accepted = inv
		return nil
	})
	if err != nil {
		return invite.Invitation{}, err
	}
	return accepted, nil
}

func (s *Store) queryInvitations(ctx context.Context, query string, args ...any) ([]invite.Invitation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query invitations: %w", err)
	}
	defer rows.Close()

	var invitations []invite.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invitations: %w", err)
	}
	return invitations, nil
}

func scanInvitation(row rowScanner) (invite.Invitation, error) {
	var inv invite.Invitation
	var role string
	var expiresAt, createdAt, updatedAt int64
	var acceptedAt sql.NullInt64
	err := row.Scan(&inv.ID, &inv.OrganizationID, &inv.Email, &inv.InviterID, &role,
		&inv.Token, &expiresAt, &acceptedAt, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return invite.Invitation{}, storage.ErrNotFound
		}
		return invite.Invitation{}, fmt.Errorf("scan invitation: %w", err)
	}
	inv.Role = user.Role(role)
	inv.ExpiresAt = fromMillis(expiresAt)
	inv.AcceptedAt = fromNullMillis(acceptedAt)
	inv.CreatedAt = fromMillis(createdAt)
	inv.UpdatedAt = fromMillis(updatedAt)
	return inv, nil
}
