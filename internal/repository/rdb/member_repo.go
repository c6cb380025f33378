package rdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
)

type MemberRepository struct {
	DB *gorm.DB
}

type MemberRow struct {
	UserID   uint64    `json:"user_id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

// Join inserts the membership. A second join hits the unique (group_id, user_id)
// index and returns its error for the caller to map to a conflict.
func (r *MemberRepository) Join(ctx context.Context, groupID, userID uint64, role string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model.GroupMember{GroupID: groupID, UserID: userID, Role: role}).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventGroupJoined, userID, "group", groupID, map[string]any{"role": role})
	})
}

// Leave reports whether a membership row was removed.
func (r *MemberRepository) Leave(ctx context.Context, groupID, userID uint64) (bool, error) {
	var removed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&model.GroupMember{})
		if res.Error != nil || res.RowsAffected == 0 {
			return res.Error
		}
		removed = true
		return insertOutbox(tx, model.EventGroupLeft, userID, "group", groupID, nil)
	})
	return removed, err
}

// Role returns the membership role, "" when userID is not a member.
func (r *MemberRepository) Role(ctx context.Context, groupID, userID uint64) (string, error) {
	var m model.GroupMember
	err := r.DB.WithContext(ctx).Select("role").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Take(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return m.Role, err
}

func (r *MemberRepository) List(ctx context.Context, groupID uint64) ([]MemberRow, error) {
	rows := []MemberRow{}
	err := r.DB.WithContext(ctx).Table("group_members AS m").
		Select("m.user_id, u.username, m.role, m.joined_at").
		Joins("JOIN users u ON u.id = m.user_id").
		Where("m.group_id = ?", groupID).
		Order("m.joined_at ASC").Order("m.id ASC").
		Scan(&rows).Error
	return rows, err
}

// UpdateRole reports whether the member existed.
func (r *MemberRepository) UpdateRole(ctx context.Context, groupID, userID, actorID uint64, role string) (bool, error) {
	var found bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Count(&n).Error; err != nil || n == 0 {
			return err
		}
		found = true
		// MySQL reports 0 affected rows when the role is unchanged, so existence is checked above
		if err := tx.Model(&model.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, userID).
			Update("role", role).Error; err != nil {
			return err
		}
		return insertOutbox(tx, model.EventGroupRoleSet, actorID, "group", groupID,
			map[string]any{"user_id": userID, "role": role})
	})
	return found, err
}
