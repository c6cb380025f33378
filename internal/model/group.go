package model

import "time"

type Group struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedBy   uint64    `gorm:"not null;index" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`

	Creator User          `gorm:"foreignKey:CreatedBy;constraint:OnDelete:CASCADE" json:"-"`
	Members []GroupMember `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
	Posts   []GroupPost   `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

// GROUPS is reserved in MySQL 8.
func (Group) TableName() string { return "discussion_groups" }

// GroupMember exists while UserID belongs to GroupID. Role is member, moderator or admin.
type GroupMember struct {
	ID       uint64    `gorm:"primaryKey" json:"id"`
	GroupID  uint64    `gorm:"not null;uniqueIndex:uk_group_user,priority:1" json:"group_id"`
	UserID   uint64    `gorm:"not null;uniqueIndex:uk_group_user,priority:2;index" json:"user_id"`
	Role     string    `gorm:"size:16;not null;default:member" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

type GroupPost struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	GroupID   uint64    `gorm:"not null;index:idx_group_post_time,priority:1" json:"group_id"`
	UserID    uint64    `gorm:"not null;index" json:"user_id"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"index:idx_group_post_time,priority:2" json:"created_at"`

	Author    User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Comments  []GroupComment  `gorm:"foreignKey:GroupPostID;constraint:OnDelete:CASCADE" json:"-"`
	Tags      []GroupPostTag  `gorm:"foreignKey:GroupPostID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []GroupReaction `gorm:"foreignKey:GroupPostID;constraint:OnDelete:CASCADE" json:"-"`
}

type GroupComment struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	GroupPostID uint64    `gorm:"not null;index" json:"group_post_id"`
	UserID      uint64    `gorm:"not null;index" json:"user_id"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CreatedAt   time.Time `json:"created_at"`

	Author    User            `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []GroupReaction `gorm:"foreignKey:GroupCommentID;constraint:OnDelete:CASCADE" json:"-"`
}

type GroupPostTag struct {
	GroupPostID uint64 `gorm:"primaryKey;autoIncrement:false"`
	TagID       uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position    int    `gorm:"not null;default:0"`

	Tag Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}
