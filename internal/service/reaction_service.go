package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/repository/rdb"
)

type ReactionService struct {
	reactions *rdb.ReactionRepository
	posts     *rdb.PostRepository
	comments  *rdb.CommentRepository
	log       *zap.Logger
}

func NewReactionService(db *gorm.DB, log *zap.Logger) *ReactionService {
	return &ReactionService{
		reactions: &rdb.ReactionRepository{DB: db},
		posts:     &rdb.PostRepository{DB: db},
		comments:  &rdb.CommentRepository{DB: db},
		log:       log.Named("reaction"),
	}
}

func validKind(kind string) error {
	if kind != model.ReactionLike && kind != model.ReactionDislike {
		return apperr.Invalid("reaction_type must be like or dislike")
	}
	return nil
}

// TogglePost returns "added", "removed" or "updated".
func (s *ReactionService) TogglePost(ctx context.Context, userID, postID uint64, kind string) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return "", storeErr(s.log, "react to post", err, "")
	}
	if !ok {
		return "", apperr.Missing("post not found")
	}
	return s.toggle(ctx, rdb.TargetPost, userID, postID, kind)
}

func (s *ReactionService) ToggleComment(ctx context.Context, userID, commentID uint64, kind string) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	if _, err := s.comments.FindByID(ctx, commentID); err != nil {
		return "", storeErr(s.log, "react to comment", err, "comment not found")
	}
	return s.toggle(ctx, rdb.TargetComment, userID, commentID, kind)
}

func (s *ReactionService) toggle(ctx context.Context, t rdb.Target, userID, targetID uint64, kind string) (string, error) {
	result, err := s.reactions.Toggle(ctx, t, userID, targetID, kind)
	if err != nil {
		return "", storeErr(s.log, "toggle reaction", err, t.String()+" not found")
	}
	return result, nil
}
