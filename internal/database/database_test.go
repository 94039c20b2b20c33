package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"turfbook/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRequest(rollno string, slot int, date string) *models.BookingRequest {
	return &models.BookingRequest{
		Name:        "Test User " + rollno,
		RollNo:      rollno,
		Email:       rollno + "@example.edu",
		Purpose:     "practice",
		PlayerCount: 10,
		Slot:        slot,
		Date:        date,
	}
}

func TestCreateRequestDualWrite(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	r := newRequest("23b0001", 5, "2025-06-01")
	require.NoError(t, db.CreateRequest(ctx, r))

	assert.NotZero(t, r.ID)
	assert.Equal(t, models.StatusPending, r.Status)
	assert.False(t, r.CreatedAt.IsZero())

	got, err := db.GetRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r.RollNo, got.RollNo)
	assert.Equal(t, models.StatusPending, got.Status)

	// The paired status record must exist with matching status.
	records, err := db.ListSlotStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, r.RollNo, records[0].RollNo)
	assert.Equal(t, r.Slot, records[0].Slot)
	assert.Equal(t, models.StatusPending, records[0].Status)
}

func TestGetRequestNotFound(t *testing.T) {
	db := testDB(t)

	_, err := db.GetRequest(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptRequestCascade(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	first := newRequest("23b0001", 5, "2025-06-01")
	second := newRequest("23b0002", 5, "2025-06-01")
	third := newRequest("23b0003", 5, "2025-06-01")
	other := newRequest("23b0004", 6, "2025-06-01")
	for _, r := range []*models.BookingRequest{first, second, third, other} {
		require.NoError(t, db.CreateRequest(ctx, r))
		time.Sleep(2 * time.Millisecond) // distinct created_at ordering
	}

	// Accepting the second request must still decline the others for the
	// same (slot, date); ordering is advisory, not enforced.
	accepted, declined, err := db.AcceptRequest(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, accepted.Status)
	require.Len(t, declined, 2)
	assert.Equal(t, first.ID, declined[0].ID)
	assert.Equal(t, third.ID, declined[1].ID)
	for _, d := range declined {
		assert.Equal(t, models.StatusDeclined, d.Status)
	}

	// Different slot is untouched.
	got, err := db.GetRequest(ctx, other.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, got.Status)

	// Authoritative rows and projections agree.
	for _, id := range []int64{first.ID, third.ID} {
		got, err := db.GetRequest(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, models.StatusDeclined, got.Status)
	}
	records, err := db.ListSlotStatuses(ctx)
	require.NoError(t, err)
	statusByRoll := make(map[string]string)
	for _, rec := range records {
		statusByRoll[rec.RollNo] = rec.Status
	}
	assert.Equal(t, models.StatusDeclined, statusByRoll["23b0001"])
	assert.Equal(t, models.StatusAccepted, statusByRoll["23b0002"])
	assert.Equal(t, models.StatusDeclined, statusByRoll["23b0003"])
	assert.Equal(t, models.StatusPending, statusByRoll["23b0004"])
}

func TestAcceptRequestNotFound(t *testing.T) {
	db := testDB(t)

	_, _, err := db.AcceptRequest(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeclineRequest(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	r := newRequest("23b0001", 3, "2025-06-01")
	require.NoError(t, db.CreateRequest(ctx, r))

	updated, err := db.DeclineRequest(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDeclined, updated.Status)

	records, err := db.ListSlotStatuses(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, models.StatusDeclined, records[0].Status)
}

func TestDeleteRequestRemovesProjection(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	r := newRequest("23b0001", 3, "2025-06-01")
	require.NoError(t, db.CreateRequest(ctx, r))

	require.NoError(t, db.DeleteRequest(ctx, r.ID))

	_, err := db.GetRequest(ctx, r.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	records, err := db.ListSlotStatuses(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.ErrorIs(t, db.DeleteRequest(ctx, r.ID), ErrNotFound)
}

func TestListPendingOrder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	ids := make([]int64, 0, 3)
	for _, rollno := range []string{"23b0001", "23b0002", "23b0003"} {
		r := newRequest(rollno, 7, "2025-06-02")
		require.NoError(t, db.CreateRequest(ctx, r))
		ids = append(ids, r.ID)
		time.Sleep(2 * time.Millisecond)
	}

	pending, err := db.ListPending(ctx, 7, "2025-06-02")
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for i, p := range pending {
		assert.Equal(t, ids[i], p.ID)
	}

	second, err := db.GetRequest(ctx, ids[1])
	require.NoError(t, err)
	earlier, err := db.CountEarlierPending(ctx, 7, "2025-06-02", second.CreatedAt)
	require.NoError(t, err)
	assert.Equal(t, 1, earlier)
}

func TestAcceptedHolder(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	_, err := db.AcceptedHolder(ctx, 5, "2025-06-01")
	assert.ErrorIs(t, err, ErrNotFound)

	r := newRequest("23b0001", 5, "2025-06-01")
	require.NoError(t, db.CreateRequest(ctx, r))
	_, _, err = db.AcceptRequest(ctx, r.ID)
	require.NoError(t, err)

	holder, err := db.AcceptedHolder(ctx, 5, "2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, "23b0001", holder.RollNo)
	assert.Equal(t, models.StatusAccepted, holder.Status)
}

func TestBans(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	banned, err := db.IsBanned(ctx, "23b0001")
	require.NoError(t, err)
	assert.False(t, banned)

	entry, err := db.AddBan(ctx, "23b0001", "repeated no-shows")
	require.NoError(t, err)
	assert.Equal(t, "23b0001", entry.RollNo)

	banned, err = db.IsBanned(ctx, "23b0001")
	require.NoError(t, err)
	assert.True(t, banned)

	_, err = db.AddBan(ctx, "23b0001", "again")
	assert.ErrorIs(t, err, ErrAlreadyBanned)

	bans, err := db.ListBans(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)

	require.NoError(t, db.RemoveBan(ctx, "23b0001"))
	assert.ErrorIs(t, db.RemoveBan(ctx, "23b0001"), ErrNotFound)
}
