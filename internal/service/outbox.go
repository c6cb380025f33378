package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg"
	"prizetalk/internal/repository/rdb"
)

const maxOutboxRetry = 5

// Sender delivers one outbox event. A non-nil error leaves the row for retry
// and the retry runs every sender again, so delivery is at least once.
// Downstream consumers dedupe on the outbox row id.
type Sender func(ctx context.Context, ob *model.SocialOutbox) error

// OutboxRelayer forwards social events written by the toggles to the senders.
// It runs in cmd/worker, never inside the API process.
type OutboxRelayer struct {
	repo      *rdb.OutboxRepository
	batchSize int
	interval  time.Duration
	sender    Sender
	log       *zap.Logger
}

func NewOutboxRelayer(db *gorm.DB, sender Sender, batchSize int, interval time.Duration, log *zap.Logger) *OutboxRelayer {
	if batchSize <= 0 {
		batchSize = 200
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &OutboxRelayer{
		repo:      &rdb.OutboxRepository{DB: db},
		batchSize: batchSize,
		interval:  interval,
		sender:    sender,
		log:       log.Named("outbox"),
	}
}

// Run drains the outbox every interval until ctx is cancelled.
func (r *OutboxRelayer) Run(ctx context.Context) {
	t := time.NewTicker(r.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := r.DrainOnce(ctx); err != nil && !errors.Is(err, context.Canceled) {
				r.log.Error("drain outbox", zap.Error(err))
			}
		}
	}
}

// DrainOnce sends one batch and reports how many events were delivered.
func (r *OutboxRelayer) DrainOnce(ctx context.Context) (int, error) {
	rows, err := r.repo.Pending(ctx, r.batchSize, maxOutboxRetry)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range rows {
		ob := rows[i]
		if err := r.sender(ctx, &ob); err != nil {
			r.log.Warn("send outbox event",
				zap.Uint64("id", ob.ID),
				zap.String("event", ob.EventType),
				zap.Int("retry", ob.Retry),
				zap.Error(err))
			if err := r.repo.MarkFailed(ctx, ob.ID); err != nil {
				return sent, err
			}
			continue
		}
		if err := r.repo.MarkSent(ctx, ob.ID); err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// LogSender only logs the event. Used when no broker is configured.
func LogSender(log *zap.Logger) Sender {
	return func(_ context.Context, ob *model.SocialOutbox) error {
		log.Info("social event",
			zap.String("event", ob.EventType),
			zap.Uint64("actor_id", ob.ActorID),
			zap.String("subject_type", ob.SubjectType),
			zap.Uint64("subject_id", ob.SubjectID),
			zap.String("payload", ob.Payload))
		return nil
	}
}

// Publisher is satisfied by *pkg.KafkaProducer.
type Publisher interface {
	Publish(ctx context.Context, key, eventType, eventID string, value []byte) error
}

// KafkaSender publishes the payload keyed by actor, keeping one actor's
// events in order. The outbox row id is the event id, identical on every
// redelivery.
func KafkaSender(p Publisher) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		return p.Publish(ctx, pkg.KeyFromID(ob.ActorID), ob.EventType, pkg.KeyFromID(ob.ID), []byte(ob.Payload))
	}
}

type Mailer interface {
	Send(to, subject, htmlBody string) error
}

// MailSender emails the followed user on follow events and ignores the rest.
func MailSender(db *gorm.DB, m Mailer) Sender {
	users := &rdb.UserRepository{DB: db}
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		if ob.EventType != model.EventFollow {
			return nil
		}
		follower, err := users.FindByID(ctx, ob.ActorID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		followee, err := users.FindByID(ctx, ob.SubjectID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return m.Send(followee.Email, "You have a new follower", pkg.NewFollowerHTML(follower.Username))
	}
}

// MultiSender calls every sender in order and stops at the first failure.
// Senders before the failing one run again on retry.
func MultiSender(senders ...Sender) Sender {
	return func(ctx context.Context, ob *model.SocialOutbox) error {
		for _, s := range senders {
			if err := s(ctx, ob); err != nil {
				return err
			}
		}
		return nil
	}
}

// FollowCountReconciler rewrites drifted follow counters from the follow table.
type FollowCountReconciler struct {
	repo      *rdb.FollowCountReconcilerRepo
	batchSize int
	log       *zap.Logger
}

func NewFollowCountReconciler(db *gorm.DB, batchSize int, log *zap.Logger) *FollowCountReconciler {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &FollowCountReconciler{
		repo:      &rdb.FollowCountReconcilerRepo{DB: db},
		batchSize: batchSize,
		log:       log.Named("reconcile"),
	}
}

// ReconcileOnce walks every profile and returns how many it corrected.
func (r *FollowCountReconciler) ReconcileOnce(ctx context.Context) (int, error) {
	var lastID uint64
	fixed := 0
	for {
		rows, next, err := r.repo.Batch(ctx, r.batchSize, lastID)
		if err != nil {
			return fixed, err
		}
		if len(rows) == 0 {
			return fixed, nil
		}
		for _, row := range rows {
			followers, following, err := r.repo.Actual(ctx, row.UserID)
			if err != nil {
				return fixed, err
			}
			if followers == row.FollowersCount && following == row.FollowingCount {
				continue
			}
			if err := r.repo.Fix(ctx, row.UserID, followers, following); err != nil {
				return fixed, err
			}
			r.log.Info("follow counters corrected",
				zap.Uint64("user_id", row.UserID),
				zap.Int64("followers_was", row.FollowersCount),
				zap.Int64("followers", followers),
				zap.Int64("following_was", row.FollowingCount),
				zap.Int64("following", following))
			fixed++
		}
		lastID = next
	}
}
