package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types"
)

func presentation(id, code, userID string, expiresAt time.Time) *types.Presentation {
	return &types.Presentation{
		ID:          id,
		ScreenCode:  code,
		UserID:      userID,
		FileSize:    1024,
		TotalSlides: 2,
		Slides:      []types.Slide{{PageNumber: 1}, {PageNumber: 2}},
		ExpiresAt:   expiresAt,
	}
}

func TestUsersAreUniqueByEmail(t *testing.T) {
	m := New()
	ctx := context.Background()

	acc, err := m.CreateUser(ctx, "Ada", "Ada@Example.com", "hash")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", acc.Email)

	_, err = m.CreateUser(ctx, "Other", "ada@example.com", "hash")
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	got, hash, err := m.GetUserByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, acc.ID, got.ID)
	assert.Equal(t, "hash", hash)
}

func TestAddStorageUsedNeverGoesNegative(t *testing.T) {
	m := New()
	ctx := context.Background()
	acc, err := m.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)

	used, err := m.AddStorageUsed(ctx, acc.ID, 2.5)
	require.NoError(t, err)
	assert.Equal(t, 2.5, used)

	used, err = m.AddStorageUsed(ctx, acc.ID, -10)
	require.NoError(t, err)
	assert.Equal(t, 0.0, used)

	_, err = m.AddStorageUsed(ctx, "missing", 1)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestUpdateUserKeepsUsage(t *testing.T) {
	m := New()
	ctx := context.Background()
	acc, err := m.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	_, err = m.AddStorageUsed(ctx, acc.ID, 5)
	require.NoError(t, err)

	acc.Name = "Ada L."
	acc.StorageUsedMB = 0
	require.NoError(t, m.UpdateUser(ctx, acc))

	got, err := m.GetUserByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, 5.0, got.StorageUsedMB)
}

func TestPresentationCodesAreUnique(t *testing.T) {
	m := New()
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)

	require.NoError(t, m.CreatePresentation(ctx, presentation("a", "AAAAAA", "1", exp)))
	assert.ErrorIs(t, m.CreatePresentation(ctx, presentation("b", "AAAAAA", "1", exp)), storage.ErrCodeTaken)

	empty := presentation("c", "CCCCCC", "1", exp)
	empty.Slides = nil
	assert.ErrorIs(t, m.CreatePresentation(ctx, empty), storage.ErrEmptySlides)
}

func TestListOmitsSlides(t *testing.T) {
	m := New()
	ctx := context.Background()
	require.NoError(t, m.CreatePresentation(ctx, presentation("a", "AAAAAA", "1", time.Now().Add(time.Hour))))

	list, err := m.ListPresentationsByUser(ctx, "1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Slides)

	got, err := m.GetPresentationByCode(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Len(t, got.Slides, 2)
}

func TestDeleteExpiredRespectsLimit(t *testing.T) {
	m := New()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, m.CreatePresentation(ctx, presentation("a", "AAAAAA", "1", now.Add(-time.Hour))))
	require.NoError(t, m.CreatePresentation(ctx, presentation("b", "BBBBBB", "1", now.Add(-time.Minute))))
	require.NoError(t, m.CreatePresentation(ctx, presentation("c", "CCCCCC", "1", now.Add(time.Hour))))

	removed, err := m.DeleteExpiredPresentations(ctx, now, 1)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	removed, err = m.DeleteExpiredPresentations(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, removed, 1)

	_, err = m.GetPresentationByCode(ctx, "CCCCCC")
	assert.NoError(t, err)
}

func TestUsageReportCountsLivePresentations(t *testing.T) {
	m := New()
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	ada, err := m.CreateUser(ctx, "Ada", "ada@example.com", "hash")
	require.NoError(t, err)
	bob, err := m.CreateUser(ctx, "Bob", "bob@example.com", "hash")
	require.NoError(t, err)
	_, err = m.AddStorageUsed(ctx, ada.ID, 3)
	require.NoError(t, err)

	require.NoError(t, m.CreatePresentation(ctx, presentation("a", "AAAAAA", ada.ID, now.Add(time.Hour))))
	require.NoError(t, m.CreatePresentation(ctx, presentation("b", "BBBBBB", ada.ID, now.Add(-time.Hour))))

	report, err := m.UsageReport(ctx, now)
	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, ada.ID, report[0].UserID)
	assert.Equal(t, 1, report[0].LivePresentations)
	assert.Equal(t, 2, report[0].LiveSlides)
	assert.Equal(t, int64(1024), report[0].LiveBytes)
	assert.Equal(t, bob.ID, report[1].UserID)
	assert.Zero(t, report[1].LivePresentations)
}
