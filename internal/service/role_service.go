package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/policy"
	"prizetalk/internal/repository/rdb"
)

// RoleService resolves effective roles. Nothing is cached: a reassignment is
// visible to the very next check.
type RoleService struct {
	roles *rdb.RoleRepository
	users *rdb.UserRepository
	log   *zap.Logger
}

func NewRoleService(db *gorm.DB, log *zap.Logger) *RoleService {
	return &RoleService{
		roles: &rdb.RoleRepository{DB: db},
		users: &rdb.UserRepository{DB: db},
		log:   log.Named("role"),
	}
}

// EffectiveRole returns the latest assigned role, "user" when there is none.
func (s *RoleService) EffectiveRole(ctx context.Context, userID uint64) (string, error) {
	role, err := s.roles.Latest(ctx, userID)
	if err != nil {
		return "", storeErr(s.log, "resolve role", err, "user not found")
	}
	return role, nil
}

// Subject builds the policy subject for a verified user.
func (s *RoleService) Subject(ctx context.Context, userID uint64) (policy.Subject, error) {
	role, err := s.EffectiveRole(ctx, userID)
	if err != nil {
		return policy.Subject{}, err
	}
	return policy.Subject{UserID: userID, Role: role}, nil
}

// Assign appends a role assignment. Only staff admins may assign.
func (s *RoleService) Assign(ctx context.Context, actorID, userID uint64, role string) (*model.UserRole, error) {
	if !policy.ValidRole(role) {
		return nil, apperr.Invalid("unknown role " + role)
	}
	actor, err := s.Subject(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(policy.AssignRole, actor, policy.Resource{}) {
		return nil, apperr.Forbidden("only staff admins can assign roles")
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "assign role", err, "user not found")
	}
	if !ok {
		return nil, apperr.Missing("user not found")
	}

	assigned, err := s.roles.Assign(ctx, userID, role)
	if err != nil {
		return nil, storeErr(s.log, "assign role", err, "user not found")
	}
	s.log.Info("role assigned", zap.Uint64("actor_id", actorID), zap.Uint64("user_id", userID), zap.String("role", role))
	return assigned, nil
}

// History lists a user's role assignments newest first. Staff admins only.
func (s *RoleService) History(ctx context.Context, actorID, userID uint64) ([]model.UserRole, error) {
	actor, err := s.Subject(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.Allow(policy.AssignRole, actor, policy.Resource{}) {
		return nil, apperr.Forbidden("only staff admins can view role history")
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "role history", err, "user not found")
	}
	if !ok {
		return nil, apperr.Missing("user not found")
	}
	rows, err := s.roles.History(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "role history", err, "")
	}
	return rows, nil
}
