package rdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
)

type CommentRepository struct {
	DB *gorm.DB
}

type CommentRow struct {
	ID              uint64    `json:"id"`
	PostID          uint64    `json:"post_id"`
	UserID          uint64    `json:"user_id"`
	ParentCommentID *uint64   `json:"parent_comment_id"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"created_at"`
	Username        string    `json:"username"`
	LikesCount      int64     `json:"likes_count"`
	DislikesCount   int64     `json:"dislikes_count"`
}

func (r *CommentRepository) Create(ctx context.Context, c *model.PostComment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *CommentRepository) FindByID(ctx context.Context, id uint64) (*model.PostComment, error) {
	var c model.PostComment
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

// ListByPost returns top-level comments (parentID nil) or the replies of
// parentID, oldest first.
func (r *CommentRepository) ListByPost(ctx context.Context, postID uint64, parentID *uint64) ([]CommentRow, error) {
	db := r.DB.WithContext(ctx)
	reactions := db.Model(&model.Reaction{}).
		Select("comment_id, SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS dislikes",
			model.ReactionLike, model.ReactionDislike).
		Where("comment_id IS NOT NULL").
		Group("comment_id")

	q := db.Table("post_comments AS c").
		Select("c.id, c.post_id, c.user_id, c.parent_comment_id, c.content, c.created_at, u.username, "+
			"COALESCE(rc.likes, 0) AS likes_count, COALESCE(rc.dislikes, 0) AS dislikes_count").
		Joins("JOIN users u ON u.id = c.user_id").
		Joins("LEFT JOIN (?) AS rc ON rc.comment_id = c.id", reactions).
		Where("c.post_id = ?", postID)
	if parentID == nil {
		q = q.Where("c.parent_comment_id IS NULL")
	} else {
		q = q.Where("c.parent_comment_id = ?", *parentID)
	}

	rows := []CommentRow{}
	err := q.Order("c.created_at ASC").Order("c.id ASC").Scan(&rows).Error
	return rows, err
}

func (r *CommentRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.PostComment{}, id)
	return res.RowsAffected > 0, res.Error
}
