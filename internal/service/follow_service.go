package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/repository/rdb"
)

type FollowService struct {
	follows *rdb.FollowRepository
	users   *rdb.UserRepository
	roles   *RoleService
	log     *zap.Logger
}

func NewFollowService(db *gorm.DB, log *zap.Logger) *FollowService {
	return &FollowService{
		follows: &rdb.FollowRepository{DB: db},
		users:   &rdb.UserRepository{DB: db},
		roles:   NewRoleService(db, log),
		log:     log.Named("follow"),
	}
}

// Profile is a user with follow counters as seen by a viewer.
type Profile struct {
	ID             uint64 `json:"id"`
	Username       string `json:"username"`
	Role           string `json:"role"`
	FollowersCount int64  `json:"followers_count"`
	FollowingCount int64  `json:"following_count"`
	IsFollowing    bool   `json:"is_following"`
}

// Toggle flips the follow edge and returns "following" or "unfollowed".
func (s *FollowService) Toggle(ctx context.Context, followerID, followeeID uint64) (string, error) {
	if followerID == followeeID {
		return "", apperr.Invalid("cannot follow yourself")
	}
	if err := s.mustExist(ctx, followeeID); err != nil {
		return "", err
	}
	state, err := s.follows.Toggle(ctx, followerID, followeeID)
	if err != nil {
		return "", storeErr(s.log, "toggle follow", err, "user not found")
	}
	s.log.Debug("follow toggled",
		zap.Uint64("follower_id", followerID),
		zap.Uint64("followee_id", followeeID),
		zap.String("state", state))
	return state, nil
}

func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID uint64) (bool, error) {
	ok, err := s.follows.IsFollowing(ctx, followerID, followeeID)
	if err != nil {
		return false, storeErr(s.log, "check follow", err, "")
	}
	return ok, nil
}

// ListFollowers pages by edge id. A zero next cursor means the last page.
func (s *FollowService) ListFollowers(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	if err := s.mustExist(ctx, userID); err != nil {
		return nil, 0, err
	}
	limit, _ = clampPage(limit, 0)
	rows, next, err := s.follows.ListFollowers(ctx, userID, cursor, limit)
	if err != nil {
		return nil, 0, storeErr(s.log, "list followers", err, "")
	}
	return rows, next, nil
}

func (s *FollowService) ListFollowings(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	if err := s.mustExist(ctx, userID); err != nil {
		return nil, 0, err
	}
	limit, _ = clampPage(limit, 0)
	rows, next, err := s.follows.ListFollowings(ctx, userID, cursor, limit)
	if err != nil {
		return nil, 0, storeErr(s.log, "list followings", err, "")
	}
	return rows, next, nil
}

// Profile loads userID's public profile. viewerID is 0 for anonymous callers.
func (s *FollowService) Profile(ctx context.Context, userID, viewerID uint64) (*Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "load profile", err, "user not found")
	}
	counters, err := s.users.Profile(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "load profile", err, "user not found")
	}
	role, err := s.roles.EffectiveRole(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := &Profile{
		ID:             user.ID,
		Username:       user.Username,
		Role:           role,
		FollowersCount: counters.FollowersCount,
		FollowingCount: counters.FollowingCount,
	}
	if viewerID != 0 && viewerID != userID {
		if p.IsFollowing, err = s.IsFollowing(ctx, viewerID, userID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (s *FollowService) mustExist(ctx context.Context, userID uint64) error {
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return storeErr(s.log, "lookup user", err, "")
	}
	if !ok {
		return apperr.Missing("user not found")
	}
	return nil
}
