package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

func TestProductsQuery(t *testing.T) {
	repo := NewRecordsRepository(nil)

	tests := []struct {
		name       string
		activeOnly bool
		wantSQL    string
		wantArgs   []any
	}{
		{
			name:       "active only",
			activeOnly: true,
			wantSQL:    "SELECT id, name, price, is_active FROM breads WHERE is_active = $1 ORDER BY created_at, id",
			wantArgs:   []any{true},
		},
		{
			name:    "whole catalog",
			wantSQL: "SELECT id, name, price, is_active FROM breads ORDER BY created_at, id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := repo.productsQuery(tt.activeOnly).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, len(tt.wantArgs), len(args))
			for i := range tt.wantArgs {
				assert.Equal(t, tt.wantArgs[i], args[i])
			}
		})
	}
}

func TestRecordsQueryUsesHalfOpenRange(t *testing.T) {
	repo := NewRecordsRepository(nil)
	from := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	sql, args, err := repo.recordsQuery(salesTable, []string{"id", "quantity"}, models.RecordFilter{
		Shift: models.ShiftNight,
		From:  from,
		To:    to,
	}).ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, quantity FROM sales_records WHERE shift = $1 AND created_at >= $2 AND created_at < $3 ORDER BY created_at, id", sql)
	require.Len(t, args, 3)
	assert.Equal(t, "night", args[0])
	assert.Equal(t, from, args[1])
	assert.Equal(t, to, args[2])
}

func TestRecordsQueryOpenBounds(t *testing.T) {
	repo := NewRecordsRepository(nil)

	sql, args, err := repo.recordsQuery(productionTable, []string{"id"}, models.RecordFilter{}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM production_records ORDER BY created_at, id", sql)
	assert.Empty(t, args)
}

func TestMarkUsedQueryOnlyTouchesUnusedInvitations(t *testing.T) {
	repo := NewInvitationsRepository(nil)
	at := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

	sql, args, err := repo.markUsedQuery("inv-1", "user-9", at).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE invitations SET used_at = $1, used_by = $2 WHERE id = $3 AND used_at IS NULL", sql)
	assert.Equal(t, []any{at, "user-9", "inv-1"}, args)
}

func TestSubscriberUpsertQuery(t *testing.T) {
	repo := NewSubscribersRepository(nil)

	sql, args, err := repo.upsertQuery(models.Subscriber{UserID: "u1", Phone: "224600000000", Role: "manager"}).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "INSERT INTO push_subscribers")
	assert.Contains(t, sql, "ON CONFLICT (user_id) DO UPDATE")
	assert.Equal(t, []any{"u1", "224600000000", "manager"}, args)
}
