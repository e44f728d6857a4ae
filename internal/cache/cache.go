package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

// CacheService wraps storage with Redis caching
type CacheService struct {
	storage storage.Storage
	redis   *redis.Client
}

// NewCacheService creates a new cache service
func NewCacheService(storage storage.Storage, redisClient *redis.Client) *CacheService {
	return &CacheService{
		storage: storage,
		redis:   redisClient,
	}
}

// Cache key patterns
const (
	PresentationKey     = "presentation:code:%s" // presentation:code:SCREENCODE
	UserPresentationKey = "presentation:user:%s" // presentation:user:userID
	AccountKey          = "account:%s"           // account:userID
)

// Cache durations
const (
	PresentationCacheDuration = 10 * time.Minute
	ListCacheDuration         = 45 * time.Second
	AccountCacheDuration      = 2 * time.Minute
)

func (c *CacheService) getJSON(ctx context.Context, key string, dst interface{}) bool {
	cached, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(cached, dst) == nil
}

func (c *CacheService) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.redis.Set(ctx, key, data, ttl)
}

// GetPresentationByCode returns the cached presentation or loads it. Entries
// never outlive the presentation's own expiry.
func (c *CacheService) GetPresentationByCode(ctx context.Context, code string) (*types.Presentation, error) {
	key := fmt.Sprintf(PresentationKey, code)

	var p types.Presentation
	if c.getJSON(ctx, key, &p) {
		return &p, nil
	}

	// Cache miss - fetch from database
	loaded, err := c.storage.GetPresentationByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	ttl := PresentationCacheDuration
	if untilExpiry := time.Until(loaded.ExpiresAt); untilExpiry < ttl {
		ttl = untilExpiry
	}
	c.setJSON(ctx, key, loaded, ttl)

	return loaded, nil
}

func (c *CacheService) ListPresentationsByUser(ctx context.Context, userID string) ([]types.Presentation, error) {
	key := fmt.Sprintf(UserPresentationKey, userID)

	var list []types.Presentation
	if c.getJSON(ctx, key, &list) {
		return list, nil
	}

	list, err := c.storage.ListPresentationsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, list, ListCacheDuration)

	return list, nil
}

func (c *CacheService) GetUserByID(ctx context.Context, id string) (*users.Account, error) {
	key := fmt.Sprintf(AccountKey, id)

	var acc users.Account
	if c.getJSON(ctx, key, &acc) {
		return &acc, nil
	}

	loaded, err := c.storage.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.setJSON(ctx, key, loaded, AccountCacheDuration)

	return loaded, nil
}

// InvalidatePresentation clears the cached presentation and its owner's list.
func (c *CacheService) InvalidatePresentation(ctx context.Context, code, userID string) {
	keys := []string{fmt.Sprintf(PresentationKey, code)}
	if userID != "" {
		keys = append(keys, fmt.Sprintf(UserPresentationKey, userID))
	}
	c.redis.Del(ctx, keys...)
}

// InvalidateAccount clears the cached account.
func (c *CacheService) InvalidateAccount(ctx context.Context, userID string) {
	c.redis.Del(ctx, fmt.Sprintf(AccountKey, userID))
}

// Methods to pass through to storage (implement storage.Storage interface)
func (c *CacheService) CreatePresentation(ctx context.Context, p *types.Presentation) error {
	if err := c.storage.CreatePresentation(ctx, p); err != nil {
		return err
	}
	c.InvalidatePresentation(ctx, p.ScreenCode, p.UserID)
	return nil
}

func (c *CacheService) DeletePresentation(ctx context.Context, p *types.Presentation) error {
	if err := c.storage.DeletePresentation(ctx, p); err != nil {
		return err
	}
	c.InvalidatePresentation(ctx, p.ScreenCode, p.UserID)
	return nil
}

func (c *CacheService) DeleteExpiredPresentations(ctx context.Context, now time.Time, limit int) ([]types.Presentation, error) {
	removed, err := c.storage.DeleteExpiredPresentations(ctx, now, limit)
	if err != nil {
		return nil, err
	}
	for _, p := range removed {
		c.InvalidatePresentation(ctx, p.ScreenCode, p.UserID)
	}
	return removed, nil
}

func (c *CacheService) CreateUser(ctx context.Context, name, email, passwordHash string) (*users.Account, error) {
	return c.storage.CreateUser(ctx, name, email, passwordHash)
}

func (c *CacheService) GetUserByEmail(ctx context.Context, email string) (*users.Account, string, error) {
	return c.storage.GetUserByEmail(ctx, email)
}

func (c *CacheService) ListUsers(ctx context.Context) ([]users.Account, error) {
	return c.storage.ListUsers(ctx)
}

func (c *CacheService) UpdateUser(ctx context.Context, account *users.Account) error {
	if err := c.storage.UpdateUser(ctx, account); err != nil {
		return err
	}
	c.InvalidateAccount(ctx, account.ID)
	return nil
}

// DeleteUser also drops the cached presentations of the account, which the
// store removes along with it.
func (c *CacheService) DeleteUser(ctx context.Context, id string) error {
	owned, err := c.storage.ListPresentationsByUser(ctx, id)
	if err != nil {
		return err
	}
	if err := c.storage.DeleteUser(ctx, id); err != nil {
		return err
	}
	c.InvalidateAccount(ctx, id)
	c.redis.Del(ctx, fmt.Sprintf(UserPresentationKey, id))
	for _, p := range owned {
		c.InvalidatePresentation(ctx, p.ScreenCode, "")
	}
	return nil
}

func (c *CacheService) AddStorageUsed(ctx context.Context, userID string, deltaMB float64) (float64, error) {
	used, err := c.storage.AddStorageUsed(ctx, userID, deltaMB)
	if err != nil {
		return 0, err
	}
	c.InvalidateAccount(ctx, userID)
	return used, nil
}
