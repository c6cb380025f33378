package rdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prizetalk/internal/model"
)

const (
	FollowStateFollowing  = "following"
	FollowStateUnfollowed = "unfollowed"
)

type FollowRepository struct {
	DB *gorm.DB
}

// Toggle flips the follow edge and both counters in one transaction.
// The edge delete/insert is keyed by the unique pair, so two concurrent
// toggles can never leave a duplicate edge or double count.
func (r *FollowRepository) Toggle(ctx context.Context, followerID, followingID uint64) (string, error) {
	var state string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&model.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			state = FollowStateUnfollowed
			if err := r.adjustCounts(tx, followerID, followingID, -1); err != nil {
				return err
			}
			return insertOutbox(tx, model.EventUnfollow, followerID, "user", followingID, nil)
		}

		res = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "follower_id"}, {Name: "following_id"}},
			DoNothing: true,
		}).Create(&model.Follow{FollowerID: followerID, FollowingID: followingID})
		if res.Error != nil {
			return res.Error
		}
		state = FollowStateFollowing
		// a concurrent request inserted the same edge and already counted it
		if res.RowsAffected == 0 {
			return nil
		}
		if err := r.adjustCounts(tx, followerID, followingID, +1); err != nil {
			return err
		}
		return insertOutbox(tx, model.EventFollow, followerID, "user", followingID, nil)
	})
	return state, err
}

func (r *FollowRepository) IsFollowing(ctx context.Context, followerID, followingID uint64) (bool, error) {
	var n int64
	if err := r.DB.WithContext(ctx).
		Model(&model.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// FollowingIDs lists everyone userID follows.
func (r *FollowRepository) FollowingIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("following_id", &ids).Error
	return ids, err
}

// ListFollowings pages the users userID follows, newest first. next is 0 on the last page.
func (r *FollowRepository) ListFollowings(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	return r.page(ctx, "follower_id = ?", userID, cursor, limit)
}

// ListFollowers pages the users following userID, newest first.
func (r *FollowRepository) ListFollowers(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	return r.page(ctx, "following_id = ?", userID, cursor, limit)
}

func (r *FollowRepository) page(ctx context.Context, cond string, userID, cursor uint64, limit int) ([]model.Follow, uint64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	q := r.DB.WithContext(ctx).Model(&model.Follow{}).Where(cond, userID)
	if cursor > 0 {
		q = q.Where("id < ?", cursor)
	}
	var rows []model.Follow
	// one extra row tells us whether another page exists
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	var next uint64
	if len(rows) > limit {
		rows = rows[:limit]
		next = rows[limit-1].ID
	}
	return rows, next, nil
}

// adjustCounts moves both counters by delta, never below zero.
func (r *FollowRepository) adjustCounts(tx *gorm.DB, followerID, followingID uint64, delta int64) error {
	if err := ensureProfile(tx, followerID); err != nil {
		return err
	}
	if err := ensureProfile(tx, followingID); err != nil {
		return err
	}
	if err := tx.Model(&model.UserProfile{}).
		Where("user_id = ?", followerID).
		UpdateColumn("following_count", clampedAdd("following_count", delta)).Error; err != nil {
		return err
	}
	return tx.Model(&model.UserProfile{}).
		Where("user_id = ?", followingID).
		UpdateColumn("followers_count", clampedAdd("followers_count", delta)).Error
}

// clampedAdd builds col+delta floored at zero. col comes from a fixed set of
// counter names, never from input.
func clampedAdd(col string, delta int64) clause.Expr {
	return gorm.Expr("CASE WHEN "+col+" + ? < 0 THEN 0 ELSE "+col+" + ? END", delta, delta)
}
