package rdb

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prizetalk/internal/model"
	"prizetalk/internal/policy"
)

type UserRepository struct {
	DB *gorm.DB
}

type RoleRepository struct {
	DB *gorm.DB
}

// Create inserts the user with its first role and an empty profile in one transaction.
func (r *UserRepository) Create(ctx context.Context, user *model.User, role string) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if err := tx.Create(&model.UserRole{UserID: user.ID, Role: role, AssignedAt: time.Now().UTC()}).Error; err != nil {
			return err
		}
		return ensureProfile(tx, user.ID)
	})
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).First(&user, id).Error
	return &user, err
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	return &user, err
}

func (r *UserRepository) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&n).Error
	return n > 0, err
}

func (r *UserRepository) Exists(ctx context.Context, id uint64) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// Profile returns the counters row, zero valued if it was never created.
func (r *UserRepository) Profile(ctx context.Context, userID uint64) (*model.UserProfile, error) {
	p := model.UserProfile{UserID: userID}
	err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &p, nil
	}
	return &p, err
}

// ensureProfile creates the counters row if absent.
func ensureProfile(tx *gorm.DB, userID uint64) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&model.UserProfile{UserID: userID}).Error
}

// Latest returns the most recently assigned role, or "user" when none exists
// (including for ids that do not exist).
func (r *RoleRepository) Latest(ctx context.Context, userID uint64) (string, error) {
	var row model.UserRole
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("assigned_at DESC").Order("id DESC").
		Limit(1).
		Find(&row).Error
	if err != nil {
		return "", err
	}
	if row.ID == 0 {
		return policy.RoleUser, nil
	}
	return row.Role, nil
}

// Assign appends a role row. Earlier rows are kept as history.
func (r *RoleRepository) Assign(ctx context.Context, userID uint64, role string) (*model.UserRole, error) {
	row := &model.UserRole{UserID: userID, Role: role, AssignedAt: time.Now().UTC()}
	err := r.DB.WithContext(ctx).Create(row).Error
	return row, err
}

func (r *RoleRepository) History(ctx context.Context, userID uint64) ([]model.UserRole, error) {
	var rows []model.UserRole
	err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("assigned_at DESC").Order("id DESC").
		Find(&rows).Error
	return rows, err
}
