package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/princekumarofficial/zcreens-service/internal/services/presentations"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/storage/memory"
	"github.com/princekumarofficial/zcreens-service/internal/types"
)

func setupCache(t *testing.T) (*CacheService, *memory.Memory, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := memory.New()
	return NewCacheService(store, client), store, mr, client
}

func presentation(code string, expiresIn time.Duration) *types.Presentation {
	now := time.Now().UTC()
	return &types.Presentation{
		ID:          "id-" + code,
		ScreenCode:  code,
		UserID:      "7",
		FileName:    "deck.pdf",
		Slides:      []types.Slide{{PageNumber: 1, Image: "data:x", Width: 1920, Height: 1080}},
		TotalSlides: 1,
		CreatedAt:   now,
		ExpiresAt:   now.Add(expiresIn),
	}
}

func TestGetPresentationByCode_CachesWithExpiryBoundTTL(t *testing.T) {
	c, _, mr, _ := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.CreatePresentation(ctx, presentation("CACHE1", 3*time.Minute)))

	got, err := c.GetPresentationByCode(ctx, "CACHE1")
	require.NoError(t, err)
	assert.Equal(t, "id-CACHE1", got.ID)

	key := fmt.Sprintf(PresentationKey, "CACHE1")
	require.True(t, mr.Exists(key))
	ttl := mr.TTL(key)
	assert.LessOrEqual(t, ttl, 3*time.Minute)
	assert.Greater(t, ttl, 2*time.Minute)
}

func TestGetPresentationByCode_ServesFromCache(t *testing.T) {
	c, store, _, _ := setupCache(t)
	ctx := context.Background()

	p := presentation("CACHE2", time.Hour)
	require.NoError(t, c.CreatePresentation(ctx, p))
	_, err := c.GetPresentationByCode(ctx, "CACHE2")
	require.NoError(t, err)

	// Remove behind the cache's back; the cached copy still answers.
	require.NoError(t, store.DeletePresentation(ctx, p))
	got, err := c.GetPresentationByCode(ctx, "CACHE2")
	require.NoError(t, err)
	assert.Equal(t, p.Slides, got.Slides)
}

func TestDeletePresentation_Invalidates(t *testing.T) {
	c, _, mr, _ := setupCache(t)
	ctx := context.Background()

	p := presentation("CACHE3", time.Hour)
	require.NoError(t, c.CreatePresentation(ctx, p))
	_, err := c.GetPresentationByCode(ctx, "CACHE3")
	require.NoError(t, err)
	_, err = c.ListPresentationsByUser(ctx, "7")
	require.NoError(t, err)

	require.NoError(t, c.DeletePresentation(ctx, p))
	assert.False(t, mr.Exists(fmt.Sprintf(PresentationKey, "CACHE3")))
	assert.False(t, mr.Exists(fmt.Sprintf(UserPresentationKey, "7")))

	_, err = c.GetPresentationByCode(ctx, "CACHE3")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteUser_InvalidatesOwnedPresentations(t *testing.T) {
	c, _, mr, _ := setupCache(t)
	ctx := context.Background()

	acc, err := c.CreateUser(ctx, "Owner", "owner@example.com", "h")
	require.NoError(t, err)
	p := presentation("QWERTY", time.Hour)
	p.UserID = acc.ID
	require.NoError(t, c.CreatePresentation(ctx, p))

	svc := presentations.NewService(c, nil)
	_, err = svc.Resolve(ctx, "QWERTY")
	require.NoError(t, err)
	require.True(t, mr.Exists(fmt.Sprintf(PresentationKey, "QWERTY")))

	require.NoError(t, c.DeleteUser(ctx, acc.ID))
	assert.False(t, mr.Exists(fmt.Sprintf(PresentationKey, "QWERTY")))

	_, err = svc.Resolve(ctx, "QWERTY")
	assert.ErrorIs(t, err, presentations.ErrNotFound)
}

func TestAddStorageUsed_InvalidatesAccount(t *testing.T) {
	c, _, mr, _ := setupCache(t)
	ctx := context.Background()

	acc, err := c.CreateUser(ctx, "A", "a@example.com", "h")
	require.NoError(t, err)
	_, err = c.GetUserByID(ctx, acc.ID)
	require.NoError(t, err)
	require.True(t, mr.Exists(fmt.Sprintf(AccountKey, acc.ID)))

	used, err := c.AddStorageUsed(ctx, acc.ID, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, used)
	assert.False(t, mr.Exists(fmt.Sprintf(AccountKey, acc.ID)))

	fresh, err := c.GetUserByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1.5, fresh.StorageUsedMB)
}

func TestClearCache(t *testing.T) {
	c, _, mr, client := setupCache(t)
	ctx := context.Background()

	require.NoError(t, c.CreatePresentation(ctx, presentation("CLR001", time.Hour)))
	_, err := c.GetPresentationByCode(ctx, "CLR001")
	require.NoError(t, err)
	require.NoError(t, mr.Set("ratelimit:uploads:7", "x"))

	rec := httptest.NewRecorder()
	ClearCache(client)(rec, httptest.NewRequest(http.MethodDelete, "/admin/cache?type=all", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			DeletedKeys int `json:"deleted_keys"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.DeletedKeys)
	assert.True(t, mr.Exists("ratelimit:uploads:7"))
}

func TestGetCacheStats(t *testing.T) {
	_, _, _, client := setupCache(t)

	rec := httptest.NewRecorder()
	GetCacheStats(client)(rec, httptest.NewRequest(http.MethodGet, "/admin/cache/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis_connected":true`)
}
