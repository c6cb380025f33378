package model

import "time"

// Follow exists while FollowerID follows FollowingID.
type Follow struct {
	ID          uint64    `gorm:"primaryKey" json:"id"`
	FollowerID  uint64    `gorm:"not null;uniqueIndex:uk_follow_pair,priority:1" json:"follower_id"`
	FollowingID uint64    `gorm:"not null;uniqueIndex:uk_follow_pair,priority:2;index:idx_following_id" json:"following_id"`
	CreatedAt   time.Time `json:"created_at"`

	Follower  User `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"-"`
	Following User `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"-"`
}

// Outbox event types.
const (
	EventFollow       = "follow"
	EventUnfollow     = "unfollow"
	EventReactionAdd  = "reaction_added"
	EventReactionDel  = "reaction_removed"
	EventReactionSwap = "reaction_updated"
	EventGroupJoined  = "group_joined"
	EventGroupLeft    = "group_left"
	EventGroupRoleSet = "group_role_changed"
)

// Outbox statuses.
const (
	OutboxPending int8 = 0
	OutboxSent    int8 = 1
	OutboxFailed  int8 = 2
)

// SocialOutbox rows are written in the same transaction as the social mutation
// they describe and drained by the relay worker.
type SocialOutbox struct {
	ID          uint64 `gorm:"primaryKey"`
	EventType   string `gorm:"size:32;not null"`
	ActorID     uint64 `gorm:"not null;index"`
	SubjectType string `gorm:"size:32;not null"` // user / post / comment / group_post / group_comment / group
	SubjectID   uint64 `gorm:"not null"`
	Payload     string `gorm:"type:text;not null"`
	Status      int8   `gorm:"not null;default:0;index"`
	Retry       int    `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (SocialOutbox) TableName() string { return "social_outbox" }
