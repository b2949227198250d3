package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const invitationsTable = "invitations"

var invitationColumns = []string{"id", "email", "role", "secret_hash", "invited_by", "expires_at", "used_at", "used_by", "created_at"}

// InvitationsRepository persists staff invitations.
type InvitationsRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

func NewInvitationsRepository(db DB) *InvitationsRepository {
	return &InvitationsRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create stores a new invitation.
func (r *InvitationsRepository) Create(ctx context.Context, inv models.Invitation) error {
	sql, args, err := r.builder.Insert(invitationsTable).
		Columns("id", "email", "role", "secret_hash", "invited_by", "expires_at", "created_at").
		Values(inv.ID, inv.Email, inv.Role, inv.SecretHash, inv.InvitedBy, inv.ExpiresAt, inv.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert invitation: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert invitation: %w", err)
	}
	return nil
}

// Get returns the invitation with the given id.
func (r *InvitationsRepository) Get(ctx context.Context, id string) (models.Invitation, error) {
	var inv models.Invitation
	sql, args, err := r.builder.Select(invitationColumns...).
		From(invitationsTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return inv, fmt.Errorf("build invitation query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.db, &inv, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return inv, repository.ErrNotFound
		}
		return inv, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

// MarkUsed consumes an invitation. It returns repository.ErrConflict when the
// invitation was already used.
func (r *InvitationsRepository) MarkUsed(ctx context.Context, id, userID string, at time.Time) error {
	sql, args, err := r.markUsedQuery(id, userID, at).ToSql()
	if err != nil {
		return fmt.Errorf("build mark used: %w", err)
	}

	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("mark invitation used: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *InvitationsRepository) markUsedQuery(id, userID string, at time.Time) squirrel.UpdateBuilder {
	return r.builder.Update(invitationsTable).
		Set("used_at", at).
		Set("used_by", userID).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Eq{"used_at": nil})
}
