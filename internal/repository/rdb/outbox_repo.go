package rdb

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"prizetalk/internal/model"
)

type OutboxRepository struct {
	DB *gorm.DB
}

type FollowCountReconcilerRepo struct {
	DB *gorm.DB
}

// CounterRow is one profile as stored, before reconciliation.
type CounterRow struct {
	UserID         uint64
	FollowersCount int64
	FollowingCount int64
}

// insertOutbox must be called with the transaction of the mutation it records.
func insertOutbox(tx *gorm.DB, event string, actorID uint64, subjectType string, subjectID uint64, extra map[string]any) error {
	body := map[string]any{
		"event":        event,
		"event_time":   time.Now().UTC().Format(time.RFC3339Nano),
		"actor_id":     actorID,
		"subject_type": subjectType,
		"subject_id":   subjectID,
	}
	for k, v := range extra {
		body[k] = v
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return tx.Create(&model.SocialOutbox{
		EventType:   event,
		ActorID:     actorID,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Payload:     string(payload),
		Status:      model.OutboxPending,
	}).Error
}

// Pending returns undelivered events oldest first. Failed rows are retried
// until maxRetry is reached.
func (r *OutboxRepository) Pending(ctx context.Context, batchSize, maxRetry int) ([]model.SocialOutbox, error) {
	var list []model.SocialOutbox
	err := r.DB.WithContext(ctx).
		Where("status = ? OR (status = ? AND retry < ?)", model.OutboxPending, model.OutboxFailed, maxRetry).
		Order("id ASC").
		Limit(batchSize).
		Find(&list).Error
	return list, err
}

func (r *OutboxRepository) MarkSent(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Update("status", model.OutboxSent).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uint64) error {
	return r.DB.WithContext(ctx).Model(&model.SocialOutbox{}).Where("id = ?", id).
		Updates(map[string]any{"status": model.OutboxFailed, "retry": gorm.Expr("retry + 1")}).Error
}

// Batch returns up to batchSize profiles after lastID and the id to resume from.
func (r *FollowCountReconcilerRepo) Batch(ctx context.Context, batchSize int, lastID uint64) ([]CounterRow, uint64, error) {
	var list []CounterRow
	if err := r.DB.WithContext(ctx).Model(&model.UserProfile{}).
		Select("user_id", "followers_count", "following_count").
		Where("user_id > ?", lastID).
		Order("user_id ASC").
		Limit(batchSize).
		Find(&list).Error; err != nil {
		return nil, lastID, err
	}
	if len(list) == 0 {
		return nil, lastID, nil
	}
	return list, list[len(list)-1].UserID, nil
}

// Actual counts the follow edges of userID.
func (r *FollowCountReconcilerRepo) Actual(ctx context.Context, userID uint64) (followers, following int64, err error) {
	db := r.DB.WithContext(ctx).Model(&model.Follow{})
	if err = db.Where("following_id = ?", userID).Count(&followers).Error; err != nil {
		return 0, 0, err
	}
	err = r.DB.WithContext(ctx).Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&following).Error
	return followers, following, err
}

func (r *FollowCountReconcilerRepo) Fix(ctx context.Context, userID uint64, followers, following int64) error {
	return r.DB.WithContext(ctx).Model(&model.UserProfile{}).Where("user_id = ?", userID).
		Updates(map[string]any{"followers_count": followers, "following_count": following}).Error
}
