package model

import "time"

type User struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:255;not null" json:"username"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	CreatedAt    time.Time `json:"created_at"`

	Roles   []UserRole   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Profile *UserProfile `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// UserRole is append-only. The newest row by AssignedAt (then ID) is the effective role.
type UserRole struct {
	ID         uint64    `gorm:"primaryKey"`
	UserID     uint64    `gorm:"not null;index:idx_user_role_time,priority:1"`
	Role       string    `gorm:"size:32;not null"`
	AssignedAt time.Time `gorm:"not null;index:idx_user_role_time,priority:2"`
}

// UserProfile holds the denormalized follow counters.
type UserProfile struct {
	UserID         uint64 `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	FollowersCount int64  `gorm:"not null;default:0" json:"followers_count"`
	FollowingCount int64  `gorm:"not null;default:0" json:"following_count"`
}
