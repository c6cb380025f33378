package rdb

import (
	"context"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/policy"
)

type GroupRepository struct {
	DB *gorm.DB
}

type GroupRow struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	CreatedBy    uint64    `json:"created_by"`
	CreatorName  string    `json:"creator_name"`
	CreatedAt    time.Time `json:"created_at"`
	MembersCount int64     `json:"members_count"`
}

// Create inserts the group and makes its creator an admin member in one transaction.
func (r *GroupRepository) Create(ctx context.Context, g *model.Group) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(g).Error; err != nil {
			return err
		}
		return tx.Create(&model.GroupMember{
			GroupID: g.ID,
			UserID:  g.CreatedBy,
			Role:    policy.GroupAdmin,
		}).Error
	})
}

func (r *GroupRepository) FindByID(ctx context.Context, id uint64) (*model.Group, error) {
	var g model.Group
	err := r.DB.WithContext(ctx).First(&g, id).Error
	return &g, err
}

// List returns groups newest first. memberOf, when non-zero, keeps only the
// groups that user belongs to.
func (r *GroupRepository) List(ctx context.Context, memberOf uint64, offset, limit int) ([]GroupRow, error) {
	db := r.DB.WithContext(ctx)
	counts := db.Model(&model.GroupMember{}).Select("group_id, COUNT(*) AS cnt").Group("group_id")
	q := db.Table("discussion_groups AS g").
		Select("g.id, g.name, g.description, g.created_by, u.username AS creator_name, g.created_at, "+
			"COALESCE(mc.cnt, 0) AS members_count").
		Joins("JOIN users u ON u.id = g.created_by").
		Joins("LEFT JOIN (?) AS mc ON mc.group_id = g.id", counts)
	if memberOf != 0 {
		mine := db.Model(&model.GroupMember{}).Select("group_id").Where("user_id = ?", memberOf)
		q = q.Where("g.id IN (?)", mine)
	}
	list := []GroupRow{}
	err := q.Order("g.id DESC").Offset(offset).Limit(limit).Scan(&list).Error
	return list, err
}

// Delete removes the group. Members, posts, comments, tag links and
// reactions cascade.
func (r *GroupRepository) Delete(ctx context.Context, id uint64) (bool, error) {
	res := r.DB.WithContext(ctx).Delete(&model.Group{}, id)
	return res.RowsAffected > 0, res.Error
}
