package model

import "time"

const (
	ReactionLike    = "like"
	ReactionDislike = "dislike"
)

// Reaction targets exactly one of a post or a comment. The unique indexes
// keep at most one row per (user, target); NULLs never collide.
type Reaction struct {
	ID           uint64    `gorm:"primaryKey" json:"id"`
	UserID       uint64    `gorm:"not null;uniqueIndex:uk_reaction_user_post,priority:1;uniqueIndex:uk_reaction_user_comment,priority:1" json:"user_id"`
	PostID       *uint64   `gorm:"uniqueIndex:uk_reaction_user_post,priority:2" json:"post_id"`
	CommentID    *uint64   `gorm:"uniqueIndex:uk_reaction_user_comment,priority:2" json:"comment_id"`
	ReactionType string    `gorm:"size:16;not null" json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// GroupReaction is the group-scope counterpart of Reaction.
type GroupReaction struct {
	ID             uint64    `gorm:"primaryKey" json:"id"`
	UserID         uint64    `gorm:"not null;uniqueIndex:uk_greaction_user_post,priority:1;uniqueIndex:uk_greaction_user_comment,priority:1" json:"user_id"`
	GroupPostID    *uint64   `gorm:"uniqueIndex:uk_greaction_user_post,priority:2" json:"group_post_id"`
	GroupCommentID *uint64   `gorm:"uniqueIndex:uk_greaction_user_comment,priority:2" json:"group_comment_id"`
	ReactionType   string    `gorm:"size:16;not null" json:"reaction_type"`
	CreatedAt      time.Time `json:"created_at"`

	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}
