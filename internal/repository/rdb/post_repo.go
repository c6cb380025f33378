package rdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
)

type PostRepository struct {
	DB *gorm.DB
}

type CategoryRepository struct {
	DB *gorm.DB
}

// PostRow is a post with its author name, aggregate counts and tags.
type PostRow struct {
	ID            uint64    `json:"id"`
	UserID        uint64    `json:"user_id"`
	CategoryID    uint64    `json:"category_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	CreatedAt     time.Time `json:"created_at"`
	Username      string    `json:"username"`
	LikesCount    int64     `json:"likes_count"`
	DislikesCount int64     `json:"dislikes_count"`
	CommentsCount int64     `json:"comments_count"`
	Tags          []string  `gorm:"-" json:"tags"`
}

// PostFilter fields are ANDed. Zero values do not filter.
type PostFilter struct {
	CategoryID uint64
	AuthorID   uint64
	FollowedBy uint64   // only authors this user follows; ignored while they follow nobody
	IDs        []uint64 // non-nil restricts to these posts
	Tags       []string // post must carry all of them
	Limit      int
	Offset     int
}

// Create inserts the post and links its tags in one transaction.
func (r *PostRepository) Create(ctx context.Context, post *model.CommunityPost, tags []string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(post).Error; err != nil {
			return err
		}
		return linkPostTags(tx, post.ID, tags)
	})
}

func (r *PostRepository) FindByID(ctx context.Context, id uint64) (*model.CommunityPost, error) {
	var post model.CommunityPost
	err := r.DB.WithContext(ctx).First(&post, id).Error
	return &post, err
}

func (r *PostRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.CommunityPost{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

func (r *PostRepository) List(ctx context.Context, f PostFilter) ([]PostRow, error) {
	db := r.DB.WithContext(ctx)

	reactions := db.Model(&model.Reaction{}).
		Select("post_id, SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS likes, "+
			"SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END) AS dislikes",
			model.ReactionLike, model.ReactionDislike).
		Where("post_id IS NOT NULL").
		Group("post_id")
	comments := db.Model(&model.PostComment{}).
		Select("post_id, COUNT(*) AS cnt").
		Group("post_id")

	q := db.Table("community_posts AS cp").
		Select("cp.id, cp.user_id, cp.category_id, cp.title, cp.content, cp.created_at, u.username, "+
			"COALESCE(rc.likes, 0) AS likes_count, COALESCE(rc.dislikes, 0) AS dislikes_count, "+
			"COALESCE(cc.cnt, 0) AS comments_count").
		Joins("JOIN users u ON u.id = cp.user_id").
		Joins("LEFT JOIN (?) AS rc ON rc.post_id = cp.id", reactions).
		Joins("LEFT JOIN (?) AS cc ON cc.post_id = cp.id", comments)

	if f.CategoryID != 0 {
		q = q.Where("cp.category_id = ?", f.CategoryID)
	}
	if f.AuthorID != 0 {
		q = q.Where("cp.user_id = ?", f.AuthorID)
	}
	if f.IDs != nil {
		q = q.Where("cp.id IN ?", f.IDs)
	}
	if f.FollowedBy != 0 {
		var follows int64
		if err := db.Model(&model.Follow{}).Where("follower_id = ?", f.FollowedBy).Count(&follows).Error; err != nil {
			return nil, err
		}
		if follows > 0 {
			followed := db.Model(&model.Follow{}).Select("following_id").Where("follower_id = ?", f.FollowedBy)
			q = q.Where("cp.user_id IN (?)", followed)
		}
	}
	q = tagContainment(q, db, "post_tags", "post_id", "cp.id", f.Tags)

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // gorm: no LIMIT clause
	}
	rows := []PostRow{}
	if err := q.Order("cp.created_at DESC").Order("cp.id DESC").
		Limit(limit).Offset(f.Offset).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, r.attachTags(db, rows)
}

// Get returns one post shaped like a List row.
func (r *PostRepository) Get(ctx context.Context, id uint64) (*PostRow, error) {
	db := r.DB.WithContext(ctx)
	var row PostRow
	err := db.Table("community_posts AS cp").
		Select("cp.id, cp.user_id, cp.category_id, cp.title, cp.content, cp.created_at, u.username").
		Joins("JOIN users u ON u.id = cp.user_id").
		Where("cp.id = ?", id).
		Take(&row).Error
	if err != nil {
		return nil, err
	}
	counts := struct {
		Likes    int64
		Dislikes int64
	}{}
	if err := db.Model(&model.Reaction{}).
		Select("COALESCE(SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END), 0) AS likes, "+
			"COALESCE(SUM(CASE WHEN reaction_type = ? THEN 1 ELSE 0 END), 0) AS dislikes",
			model.ReactionLike, model.ReactionDislike).
		Where("post_id = ?", id).
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	row.LikesCount, row.DislikesCount = counts.Likes, counts.Dislikes
	if err := db.Model(&model.PostComment{}).Where("post_id = ?", id).Count(&row.CommentsCount).Error; err != nil {
		return nil, err
	}
	rows := []PostRow{row}
	if err := r.attachTags(db, rows); err != nil {
		return nil, err
	}
	return &rows[0], nil
}

func (r *PostRepository) attachTags(db *gorm.DB, rows []PostRow) error {
	ids := make([]uint64, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.ID)
	}
	tags, err := tagsByOwner(db, "post_tags", "post_id", ids)
	if err != nil {
		return err
	}
	for i := range rows {
		rows[i].Tags = tags[rows[i].ID]
		if rows[i].Tags == nil {
			rows[i].Tags = []string{}
		}
	}
	return nil
}

// Delete removes the post. Comments, tag links, reactions and bookmarks
// go with it through ON DELETE CASCADE.
func (r *PostRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.CommunityPost{}, id)
	return res.RowsAffected > 0, res.Error
}

func (r *CategoryRepository) List(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.DB.WithContext(ctx).Order("id ASC").Find(&list).Error
	return list, err
}

func (r *CategoryRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}
