package rdb

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prizetalk/internal/model"
)

const (
	ReactionAdded   = "added"
	ReactionRemoved = "removed"
	ReactionUpdated = "updated"
)

// Target is what a reaction points at.
type Target int

const (
	TargetPost Target = iota
	TargetComment
	TargetGroupPost
	TargetGroupComment
)

type reactionTable struct {
	table   string
	column  string
	subject string
}

// Identifiers interpolated into reaction SQL come only from here.
var reactionTables = map[Target]reactionTable{
	TargetPost:         {table: "reactions", column: "post_id", subject: "post"},
	TargetComment:      {table: "reactions", column: "comment_id", subject: "comment"},
	TargetGroupPost:    {table: "group_reactions", column: "group_post_id", subject: "group_post"},
	TargetGroupComment: {table: "group_reactions", column: "group_comment_id", subject: "group_comment"},
}

func (t Target) String() string { return reactionTables[t].subject }

type ReactionRepository struct {
	DB *gorm.DB
}

type reactionRow struct {
	ID           uint64
	ReactionType string
}

// Toggle applies the like/dislike toggle for (user, target) atomically:
// no row inserts kind, the same kind deletes it, the other kind updates it.
func (r *ReactionRepository) Toggle(ctx context.Context, t Target, userID, targetID uint64, kind string) (string, error) {
	rt := reactionTables[t]
	var result string
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := r.current(tx, rt, userID, targetID)
		if err != nil {
			return err
		}

		if existing.ID == 0 {
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: rt.column}},
				DoNothing: true,
			}).Create(newReaction(t, userID, targetID, kind))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected > 0 {
				result = ReactionAdded
				return r.record(tx, model.EventReactionAdd, rt, userID, targetID, kind)
			}
			// lost an insert race to a concurrent request; toggle against its row
			if existing, err = r.current(tx, rt, userID, targetID); err != nil {
				return err
			}
		}

		if existing.ReactionType == kind {
			if err := tx.Exec("DELETE FROM "+rt.table+" WHERE id = ?", existing.ID).Error; err != nil {
				return err
			}
			result = ReactionRemoved
			return r.record(tx, model.EventReactionDel, rt, userID, targetID, kind)
		}

		if err := tx.Table(rt.table).Where("id = ?", existing.ID).
			Update("reaction_type", kind).Error; err != nil {
			return err
		}
		result = ReactionUpdated
		return r.record(tx, model.EventReactionSwap, rt, userID, targetID, kind)
	})
	return result, err
}

// current reads the caller's reaction row, locking it where the store supports row locks.
func (r *ReactionRepository) current(tx *gorm.DB, rt reactionTable, userID, targetID uint64) (reactionRow, error) {
	var row reactionRow
	q := tx.Table(rt.table).Select("id, reaction_type").
		Where("user_id = ? AND "+rt.column+" = ?", userID, targetID)
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Limit(1).Scan(&row).Error
	return row, err
}

func (r *ReactionRepository) record(tx *gorm.DB, event string, rt reactionTable, userID, targetID uint64, kind string) error {
	return insertOutbox(tx, event, userID, rt.subject, targetID, map[string]any{"reaction_type": kind})
}

// Of returns the caller's current reaction on the target, "" if none.
func (r *ReactionRepository) Of(ctx context.Context, t Target, userID, targetID uint64) (string, error) {
	rt := reactionTables[t]
	var row reactionRow
	err := r.DB.WithContext(ctx).Table(rt.table).Select("id, reaction_type").
		Where("user_id = ? AND "+rt.column+" = ?", userID, targetID).
		Limit(1).Scan(&row).Error
	return row.ReactionType, err
}

func newReaction(t Target, userID, targetID uint64, kind string) any {
	id := targetID
	switch t {
	case TargetPost:
		return &model.Reaction{UserID: userID, PostID: &id, ReactionType: kind}
	case TargetComment:
		return &model.Reaction{UserID: userID, CommentID: &id, ReactionType: kind}
	case TargetGroupPost:
		return &model.GroupReaction{UserID: userID, GroupPostID: &id, ReactionType: kind}
	default:
		return &model.GroupReaction{UserID: userID, GroupCommentID: &id, ReactionType: kind}
	}
}
