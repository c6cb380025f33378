package model

import "time"

type Category struct {
	ID   uint64 `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" json:"name"`
}

type CommunityPost struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	UserID     uint64    `gorm:"not null;index" json:"user_id"`
	CategoryID uint64    `gorm:"not null;index" json:"category_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`

	Author    User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Category  Category      `gorm:"foreignKey:CategoryID" json:"-"`
	Comments  []PostComment `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Tags      []PostTag     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
	Bookmarks []Bookmark    `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"-"`
}

// PostComment with a nil ParentCommentID is top level.
type PostComment struct {
	ID              uint64    `gorm:"primaryKey" json:"id"`
	PostID          uint64    `gorm:"not null;index" json:"post_id"`
	UserID          uint64    `gorm:"not null;index" json:"user_id"`
	ParentCommentID *uint64   `gorm:"index" json:"parent_comment_id"`
	Content         string    `gorm:"type:text;not null" json:"content"`
	CreatedAt       time.Time `json:"created_at"`

	Author    User          `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Replies   []PostComment `gorm:"foreignKey:ParentCommentID;constraint:OnDelete:CASCADE" json:"-"`
	Reactions []Reaction    `gorm:"foreignKey:CommentID;constraint:OnDelete:CASCADE" json:"-"`
}

// Tag is the dictionary shared by public and group posts.
type Tag struct {
	ID      uint64 `gorm:"primaryKey" json:"id"`
	TagName string `gorm:"uniqueIndex;size:100;not null" json:"tag_name"`
}

type PostTag struct {
	PostID   uint64 `gorm:"primaryKey;autoIncrement:false"`
	TagID    uint64 `gorm:"primaryKey;autoIncrement:false;index"`
	Position int    `gorm:"not null;default:0"` // index in the author's tag list

	Tag Tag `gorm:"foreignKey:TagID;constraint:OnDelete:CASCADE"`
}

type Bookmark struct {
	ID        uint64    `gorm:"primaryKey" json:"id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_bookmark_user_post,priority:1" json:"user_id"`
	PostID    uint64    `gorm:"not null;uniqueIndex:uk_bookmark_user_post,priority:2;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
