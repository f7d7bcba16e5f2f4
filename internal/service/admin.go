package service

import (
	"context"
	"log/slog"

	"github.com/geocoder89/learnhub/internal/access"
	"github.com/geocoder89/learnhub/internal/domain/admin"
	"github.com/geocoder89/learnhub/internal/domain/user"
)

var (
	// StaffRoles may read the user directory and platform statistics.
	StaffRoles = []access.Role{access.RoleAdmin, access.RoleManager, access.RoleHR}
	// CourseStatsRoles may read per-course statistics.
	CourseStatsRoles = []access.Role{access.RoleAdmin, access.RoleManager}
	AdminOnly        = []access.Role{access.RoleAdmin}
)

// AdminService aggregates platform data for staff. Counts are read live on
// every call.
type AdminService struct {
	users UserStore
	stats StatsStore
}

func NewAdminService(users UserStore, stats StatsStore) *AdminService {
	return &AdminService{users: users, stats: stats}
}

func (s *AdminService) Statistics(ctx context.Context, id access.Identity) (admin.Statistics, error) {
	if err := access.Authorize(id, StaffRoles...); err != nil {
		return admin.Statistics{}, err
	}
	return s.stats.Statistics(ctx)
}

func (s *AdminService) CourseStats(ctx context.Context, id access.Identity) ([]admin.CourseStat, error) {
	if err := access.Authorize(id, CourseStatsRoles...); err != nil {
		return nil, err
	}
	return s.stats.CourseStats(ctx)
}

func (s *AdminService) ListUsers(ctx context.Context, id access.Identity) ([]admin.UserSummary, error) {
	if err := access.Authorize(id, StaffRoles...); err != nil {
		return nil, err
	}
	return s.users.ListUsersWithCounts(ctx)
}

func (s *AdminService) GetUser(ctx context.Context, id access.Identity, userID string) (admin.UserDetail, error) {
	if err := access.Authorize(id, StaffRoles...); err != nil {
		return admin.UserDetail{}, err
	}
	if err := requireID(userID, user.ErrNotFound); err != nil {
		return admin.UserDetail{}, err
	}
	return s.users.GetUserDetail(ctx, userID)
}

// UpdateUserRole accepts only the exact role names; anything else is a
// validation error naming the valid set.
func (s *AdminService) UpdateUserRole(ctx context.Context, id access.Identity, userID, role string) (user.User, error) {
	if err := access.Authorize(id, AdminOnly...); err != nil {
		return user.User{}, err
	}

	r, err := access.ParseRole(role)
	if err != nil {
		return user.User{}, err
	}

	if err := requireID(userID, user.ErrNotFound); err != nil {
		return user.User{}, err
	}

	u, err := s.users.UpdateUserRole(ctx, userID, r)
	if err != nil {
		return user.User{}, err
	}

	slog.Default().InfoContext(ctx, "user.role_changed",
		"target_user_id", userID,
		"new_role", r.String(),
	)
	return u, nil
}

// DeleteUser removes a user and their enrollments. Users who still teach
// courses are refused with a conflict.
func (s *AdminService) DeleteUser(ctx context.Context, id access.Identity, userID string) error {
	if err := access.Authorize(id, AdminOnly...); err != nil {
		return err
	}
	if err := requireID(userID, user.ErrNotFound); err != nil {
		return err
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		return err
	}

	slog.Default().InfoContext(ctx, "user.deleted", "target_user_id", userID)
	return nil
}
