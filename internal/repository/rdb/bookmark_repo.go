package rdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prizetalk/internal/model"
)

const (
	BookmarkAdded   = "added"
	BookmarkRemoved = "removed"
)

type BookmarkRepository struct {
	DB *gorm.DB
}

// Toggle removes the bookmark if present, otherwise adds it.
func (r *BookmarkRepository) Toggle(ctx context.Context, userID, postID uint64) (string, error) {
	var state string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&model.Bookmark{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			state = BookmarkRemoved
			return nil
		}
		state = BookmarkAdded
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "post_id"}},
			DoNothing: true,
		}).Create(&model.Bookmark{UserID: userID, PostID: postID}).Error
	})
	return state, err
}

// ListPostIDs returns bookmarked post ids, most recent bookmark first.
func (r *BookmarkRepository) ListPostIDs(ctx context.Context, userID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.DB.WithContext(ctx).Model(&model.Bookmark{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Pluck("post_id", &ids).Error
	return ids, err
}
