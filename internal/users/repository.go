package users

import (
	"context"
	"errors"
	"time"

	"github.com/seatrack/seatrack/backend/go-services/internal/models"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store defines persistence operations for user records. Find methods return
// (nil, nil) when nothing matches. Implementations hand out copies, so callers
// may not mutate stored state through a returned pointer.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByProvider(ctx context.Context, provider, providerID string) (*models.User, error)
	Insert(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, id int64, p Patch) (*models.User, error)
	Delete(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}

// Patch lists the fields to change; nil fields are left as they are.
type Patch struct {
	Name       *string
	Email      *string
	Role       *models.Role
	Status     *models.Status
	Provider   *string
	ProviderID *string
	Avatar     *string
	AvatarKey  *string
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Name == nil && p.Email == nil && p.Role == nil && p.Status == nil &&
		p.Provider == nil && p.ProviderID == nil && p.Avatar == nil && p.AvatarKey == nil
}

func (p Patch) apply(u *models.User, now time.Time) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Email != nil {
		u.Email = models.NormalizeEmail(*p.Email)
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.Provider != nil {
		u.Provider = *p.Provider
	}
	if p.ProviderID != nil {
		u.ProviderID = *p.ProviderID
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.AvatarKey != nil {
		u.AvatarKey = *p.AvatarKey
	}
	u.UpdatedAt = now
}

// prepareInsert fills defaults shared by every backend.
func prepareInsert(u *models.User, now time.Time) {
	u.Email = models.NormalizeEmail(u.Email)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	if u.Status == "" {
		u.Status = models.StatusActive
	}
	if u.JoinedAt.IsZero() {
		u.JoinedAt = now
	}
	u.UpdatedAt = now
}
