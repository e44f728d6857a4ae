// Package memory is an in-process storage.Storage used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/princekumarofficial/zcreens-service/internal/storage"
	"github.com/princekumarofficial/zcreens-service/internal/types"
	"github.com/princekumarofficial/zcreens-service/internal/types/users"
)

type userRecord struct {
	account  users.Account
	password string
}

type Memory struct {
	mu            sync.RWMutex
	nextUserID    int
	users         map[string]*userRecord
	presentations map[string]*types.Presentation // by screen code
	now           func() time.Time
}

func New() *Memory {
	return &Memory{
		users:         make(map[string]*userRecord),
		presentations: make(map[string]*types.Presentation),
		now:           time.Now,
	}
}

func (m *Memory) CreateUser(_ context.Context, name, email, passwordHash string) (*users.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.account.Email == email {
			return nil, storage.ErrEmailTaken
		}
	}

	m.nextUserID++
	now := m.now()
	acc := users.Account{
		ID:             strconv.Itoa(m.nextUserID),
		Name:           name,
		Email:          email,
		Plan:           users.PlanStarter,
		Role:           users.RoleUser,
		StorageLimitMB: users.StorageLimitForPlan(users.PlanStarter),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	m.users[acc.ID] = &userRecord{account: acc, password: passwordHash}

	out := acc
	return &out, nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*users.Account, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.account.Email == email {
			out := u.account
			return &out, u.password, nil
		}
	}
	return nil, "", storage.ErrNotFound
}

func (m *Memory) GetUserByID(_ context.Context, id string) (*users.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	out := u.account
	return &out, nil
}

func (m *Memory) ListUsers(_ context.Context) ([]users.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]users.Account, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u.account)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) UpdateUser(_ context.Context, account *users.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[account.ID]
	if !ok {
		return storage.ErrNotFound
	}
	for id, other := range m.users {
		if id != account.ID && other.account.Email == strings.ToLower(account.Email) {
			return storage.ErrEmailTaken
		}
	}

	// Usage is owned by AddStorageUsed and never overwritten here.
	used := u.account.StorageUsedMB
	u.account = *account
	u.account.Email = strings.ToLower(account.Email)
	u.account.StorageUsedMB = used
	u.account.UpdatedAt = m.now()
	account.StorageUsedMB = used
	return nil
}

func (m *Memory) DeleteUser(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return storage.ErrNotFound
	}
	delete(m.users, id)
	for code, p := range m.presentations {
		if p.UserID == id {
			delete(m.presentations, code)
		}
	}
	return nil
}

func (m *Memory) AddStorageUsed(_ context.Context, userID string, deltaMB float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return 0, storage.ErrNotFound
	}
	u.account.StorageUsedMB += deltaMB
	if u.account.StorageUsedMB < 0 {
		u.account.StorageUsedMB = 0
	}
	return u.account.StorageUsedMB, nil
}

func (m *Memory) CreatePresentation(_ context.Context, p *types.Presentation) error {
	if len(p.Slides) == 0 {
		return storage.ErrEmptySlides
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.presentations[p.ScreenCode]; ok {
		return storage.ErrCodeTaken
	}
	m.presentations[p.ScreenCode] = clonePresentation(p, true)
	return nil
}

func (m *Memory) GetPresentationByCode(_ context.Context, code string) (*types.Presentation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.presentations[code]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePresentation(p, true), nil
}

func (m *Memory) ListPresentationsByUser(_ context.Context, userID string) ([]types.Presentation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []types.Presentation
	for _, p := range m.presentations {
		if p.UserID == userID {
			out = append(out, *clonePresentation(p, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) DeletePresentation(_ context.Context, p *types.Presentation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.presentations[p.ScreenCode]
	if !ok || existing.ID != p.ID {
		return nil
	}
	delete(m.presentations, p.ScreenCode)
	return nil
}

func (m *Memory) DeleteExpiredPresentations(_ context.Context, now time.Time, limit int) ([]types.Presentation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed []types.Presentation
	for code, p := range m.presentations {
		if limit > 0 && len(removed) >= limit {
			break
		}
		if p.ExpiresAt.Before(now) {
			removed = append(removed, *clonePresentation(p, false))
			delete(m.presentations, code)
		}
	}
	return removed, nil
}

func clonePresentation(p *types.Presentation, withSlides bool) *types.Presentation {
	out := *p
	out.Slides = nil
	if withSlides && len(p.Slides) > 0 {
		out.Slides = make([]types.Slide, len(p.Slides))
		copy(out.Slides, p.Slides)
	}
	return &out
}

func (m *Memory) UsageReport(_ context.Context, now time.Time) ([]users.UsageReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byUser := make(map[string]*users.UsageReport, len(m.users))
	report := make([]users.UsageReport, 0, len(m.users))
	for _, u := range m.users {
		report = append(report, users.UsageReport{
			UserID:         u.account.ID,
			Email:          u.account.Email,
			Plan:           u.account.Plan,
			StorageUsedMB:  u.account.StorageUsedMB,
			StorageLimitMB: u.account.StorageLimitMB,
		})
	}
	for i := range report {
		byUser[report[i].UserID] = &report[i]
	}
	for _, p := range m.presentations {
		row, ok := byUser[p.UserID]
		if !ok || p.Expired(now) {
			continue
		}
		row.LivePresentations++
		row.LiveSlides += p.TotalSlides
		row.LiveBytes += p.FileSize
	}

	sort.Slice(report, func(i, j int) bool {
		if report[i].StorageUsedMB != report[j].StorageUsedMB {
			return report[i].StorageUsedMB > report[j].StorageUsedMB
		}
		return report[i].UserID < report[j].UserID
	})
	return report, nil
}
