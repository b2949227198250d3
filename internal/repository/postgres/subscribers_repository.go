package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"github.com/mamadbah2/bakery/internal/domain/models"
	"github.com/mamadbah2/bakery/internal/repository"
)

const subscribersTable = "push_subscribers"

// SubscribersRepository stores phone numbers that receive shift notifications.
type SubscribersRepository struct {
	db      DB
	builder squirrel.StatementBuilderType
}

func NewSubscribersRepository(db DB) *SubscribersRepository {
	return &SubscribersRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Upsert registers a subscriber, replacing the phone and role of an existing user.
func (r *SubscribersRepository) Upsert(ctx context.Context, sub models.Subscriber) error {
	sql, args, err := r.upsertQuery(sub).ToSql()
	if err != nil {
		return fmt.Errorf("build upsert subscriber: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert subscriber: %w", err)
	}
	return nil
}

// List returns every subscriber.
func (r *SubscribersRepository) List(ctx context.Context) ([]models.Subscriber, error) {
	sql, args, err := r.builder.Select("user_id", "phone", "role").
		From(subscribersTable).
		OrderBy("user_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build subscribers query: %w", err)
	}

	var subs []models.Subscriber
	if err := pgxscan.Select(ctx, r.db, &subs, sql, args...); err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subs, nil
}

// ByPhone finds the subscriber registered with phone.
func (r *SubscribersRepository) ByPhone(ctx context.Context, phone string) (models.Subscriber, error) {
	var sub models.Subscriber
	sql, args, err := r.builder.Select("user_id", "phone", "role").
		From(subscribersTable).
		Where(squirrel.Eq{"phone": phone}).
		Limit(1).
		ToSql()
	if err != nil {
		return sub, fmt.Errorf("build subscriber query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.db, &sub, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return sub, repository.ErrNotFound
		}
		return sub, fmt.Errorf("get subscriber: %w", err)
	}
	return sub, nil
}

func (r *SubscribersRepository) upsertQuery(sub models.Subscriber) squirrel.InsertBuilder {
	return r.builder.Insert(subscribersTable).
		Columns("user_id", "phone", "role").
		Values(sub.UserID, sub.Phone, sub.Role).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET phone = EXCLUDED.phone, role = EXCLUDED.role")
}
