package users

import "time"

type Plan string

const (
	PlanStarter  Plan = "starter"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// StorageLimitForPlan returns the plan's storage allowance in megabytes.
func StorageLimitForPlan(plan Plan) float64 {
	switch plan {
	case PlanPro:
		return 1000
	case PlanBusiness:
		return 5000
	default:
		return 100
	}
}

func (p Plan) Valid() bool {
	return p == PlanStarter || p == PlanPro || p == PlanBusiness
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type SignUpRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// UpdateRequest is the admin edit payload; empty fields are left unchanged.
type UpdateRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Plan  Plan   `json:"plan" validate:"omitempty,oneof=starter pro business"`
	Role  Role   `json:"role" validate:"omitempty,oneof=user admin"`
}

type Account struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Plan           Plan      `json:"plan"`
	Role           Role      `json:"role"`
	StorageUsedMB  float64   `json:"storage_used"`
	StorageLimitMB float64   `json:"storage_limit"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvailableStorageMB is the remaining allowance; negative when over the limit.
func (a *Account) AvailableStorageMB() float64 {
	return a.StorageLimitMB - a.StorageUsedMB
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Apply copies the non-empty fields of req onto the account, recomputing the
// storage limit when the plan changes.
func (a *Account) Apply(req UpdateRequest) {
	if req.Name != "" {
		a.Name = req.Name
	}
	if req.Email != "" {
		a.Email = req.Email
	}
	if req.Plan != "" && req.Plan != a.Plan {
		a.Plan = req.Plan
		a.StorageLimitMB = StorageLimitForPlan(req.Plan)
	}
	if req.Role != "" {
		a.Role = req.Role
	}
}

// UsageReport is one row of the admin storage report: the account's ledger
// next to what its live presentations actually hold.
type UsageReport struct {
	UserID            string  `json:"user_id"`
	Email             string  `json:"email"`
	Plan              Plan    `json:"plan"`
	StorageUsedMB     float64 `json:"storage_used"`
	StorageLimitMB    float64 `json:"storage_limit"`
	LivePresentations int     `json:"live_presentations"`
	LiveSlides        int     `json:"live_slides"`
	LiveBytes         int64   `json:"live_bytes"`
}
