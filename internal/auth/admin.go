package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/seatrack/seatrack/backend/go-services/internal/apperr"
	"github.com/seatrack/seatrack/backend/go-services/internal/models"
	"github.com/seatrack/seatrack/backend/go-services/internal/rbac"
	"github.com/seatrack/seatrack/backend/go-services/internal/users"
	"github.com/seatrack/seatrack/backend/go-services/pkg/logger"
)

// Every operation in this file requires the actor to hold the admin role.

// ListUsers returns all accounts, sanitized, in id order.
func (s *Service) ListUsers(ctx context.Context, actor models.Role) ([]*models.User, error) {
	if err := rbac.Require(rbac.Admin, actor); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	out := make([]*models.User, 0, len(all))
	for _, u := range all {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// ChangeRole sets the role of user id. Any role may move to any other role.
func (s *Service) ChangeRole(ctx context.Context, actor models.Role, id int64, role string) (*models.User, error) {
	if err := rbac.Require(rbac.Admin, actor); err != nil {
		return nil, err
	}
	r, ok := models.ParseRole(role)
	if !ok {
		return nil, apperr.InvalidRole
	}
	u, err := s.update(ctx, id, users.Patch{Role: &r})
	if err == nil {
		logger.Infof("admin: user id=%d role set to %s", id, r)
	}
	return u, err
}

// ChangeStatus activates or deactivates user id.
func (s *Service) ChangeStatus(ctx context.Context, actor models.Role, id int64, status string) (*models.User, error) {
	if err := rbac.Require(rbac.Admin, actor); err != nil {
		return nil, err
	}
	st, ok := models.ParseStatus(status)
	if !ok {
		return nil, apperr.InvalidStatus
	}
	u, err := s.update(ctx, id, users.Patch{Status: &st})
	if err == nil {
		logger.Infof("admin: user id=%d status set to %s", id, st)
	}
	return u, err
}

// DeleteUser removes user id. Admin accounts cannot be deleted.
func (s *Service) DeleteUser(ctx context.Context, actor models.Role, id int64) (*models.User, error) {
	if err := rbac.Require(rbac.Admin, actor); err != nil {
		return nil, err
	}
	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("delete user %d: %w", id, err)
	}
	if u == nil {
		return nil, apperr.NotFound
	}
	if u.Role == models.RoleAdmin {
		return nil, apperr.AdminProtected
	}
	removed, err := s.store.Delete(ctx, id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, apperr.NotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete user %d: %w", id, err)
	}
	logger.Infof("admin: deleted user id=%d", id)
	return removed.Sanitized(), nil
}

// Stats summarizes the account population.
type Stats struct {
	TotalUsers  int                 `json:"totalUsers"`
	ActiveUsers int                 `json:"activeUsers"`
	UsersByRole map[models.Role]int `json:"usersByRole"`
	Roles       []rbac.RoleInfo     `json:"roles"`
}

func (s *Service) Stats(ctx context.Context, actor models.Role) (*Stats, error) {
	if err := rbac.Require(rbac.Admin, actor); err != nil {
		return nil, err
	}
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	st := &Stats{UsersByRole: make(map[models.Role]int), Roles: rbac.Roles()}
	for _, r := range models.AllRoles() {
		st.UsersByRole[r] = 0
	}
	for _, u := range all {
		st.TotalUsers++
		if u.IsActive() {
			st.ActiveUsers++
		}
		st.UsersByRole[u.Role]++
	}
	return st, nil
}
