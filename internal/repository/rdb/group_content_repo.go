package rdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
)

type GroupPostRepository struct {
	DB *gorm.DB
}

type GroupCommentRepository struct {
	DB *gorm.DB
}

type GroupPostRow struct {
	ID            uint64    `json:"id"`
	GroupID       uint64    `json:"group_id"`
	UserID        uint64    `json:"user_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Username      string    `json:"username"`
	LikesCount    int64     `json:"likes_count"`
	DislikesCount int64     `json:"dislikes_count"`
	CommentsCount int64     `json:"comments_count"`
	Tags          []string  `gorm:"-" json:"tags"`
}

type GroupCommentRow struct {
	ID            uint64    `json:"id"`
	GroupPostID   uint64    `json:"group_post_id"`
	UserID        uint64    `json:"user_id"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Username      string    `json:"username"`
	LikesCount    int64     `json:"likes_count"`
	DislikesCount int64     `json:"dislikes_count"`
}

func (r *GroupPostRepository) Create(ctx context.Context, p *model.GroupPost, tags []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}
		return linkGroupPostTags(tx, p.ID, tags)
	})
}

func (r *GroupPostRepository) FindByID(ctx context.Context, id uint64) (*model.GroupPost, error) {
	var p model.GroupPost
	err := r.DB.WithContext(ctx).First(&p, id).Error
	return &p, err
}

// List returns the group's posts newest first, restricted to posts carrying all tags.
func (r *GroupPostRepository) List(ctx context.Context, groupID uint64, tags []string) ([]GroupPostRow, error) {
	db := r.DB.WithContext(ctx)
	reactions := db.Model(&model.GroupReaction{}).
		Select("group_post_id, SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS dislikes",
			model.ReactionLike, model.ReactionDislike).
		Where("group_post_id IS NOT NULL").
		Group("group_post_id")
	comments := db.Model(&model.GroupComment{}).
		Select("group_post_id, COUNT(*) AS cnt").
		Group("group_post_id")

	q := db.Table("group_posts AS gp").
		Select("gp.id, gp.group_id, gp.user_id, gp.title, gp.content, gp.created_at, u.username, "+
			"COALESCE(rc.likes, 0) AS likes_count, COALESCE(rc.dislikes, 0) AS dislikes_count, "+
			"COALESCE(cc.cnt, 0) AS comments_count").
		Joins("JOIN users u ON u.id = gp.user_id").
		Joins("LEFT JOIN (?) AS rc ON rc.group_post_id = gp.id", reactions).
		Joins("LEFT JOIN (?) AS cc ON cc.group_post_id = gp.id", comments).
		Where("gp.group_id = ?", groupID)
	q = tagContainment(q, db, "group_post_tags", "group_post_id", "gp.id", tags)

	rows := []GroupPostRow{}
	if err := q.Order("gp.created_at DESC").Order("gp.id DESC").Scan(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uint64, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	byPost, err := tagsByOwner(db, "group_post_tags", "group_post_id", ids)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Tags = byPost[rows[i].ID]
		if rows[i].Tags == nil {
			rows[i].Tags = []string{}
		}
	}
	return rows, nil
}

func (r *GroupPostRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.GroupPost{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *GroupCommentRepository) Create(ctx context.Context, c *model.GroupComment) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GroupCommentRepository) FindByID(ctx context.Context, id uint64) (*model.GroupComment, error) {
	var c model.GroupComment
	err := r.DB.WithContext(ctx).First(&c, id).Error
	return &c, err
}

// GroupOf returns the group the comment belongs to.
func (r *GroupCommentRepository) GroupOf(ctx context.Context, commentID uint64) (uint64, error) {
	var groupID uint64
	err := r.DB.WithContext(ctx).Table("group_comments AS gc").
		Select("gp.group_id").
		Joins("JOIN group_posts gp ON gp.id = gc.group_post_id").
		Where("gc.id = ?", commentID).
		Limit(1).
		Scan(&groupID).Error
	return groupID, err
}

func (r *GroupCommentRepository) List(ctx context.Context, groupPostID uint64) ([]GroupCommentRow, error) {
	db := r.DB.WithContext(ctx)
	reactions := db.Model(&model.GroupReaction{}).
		Select("group_comment_id, SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS dislikes",
			model.ReactionLike, model.ReactionDislike).
		Where("group_comment_id IS NOT NULL").
		Group("group_comment_id")

	rows := []GroupCommentRow{}
	err := db.Table("group_comments AS gc").
		Select("gc.id, gc.group_post_id, gc.user_id, gc.content, gc.created_at, u.username, "+
			"COALESCE(rc.likes, 0) AS likes_count, COALESCE(rc.dislikes, 0) AS dislikes_count").
		Joins("JOIN users u ON u.id = gc.user_id").
		Joins("LEFT JOIN (?) AS rc ON rc.group_comment_id = gc.id", reactions).
		Where("gc.group_post_id = ?", groupPostID).
		Order("gc.created_at ASC").Order("gc.id ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *GroupCommentRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.GroupComment{}, id)
	return res.RowsAffected > 0, res.Error
}
