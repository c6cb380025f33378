package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/repository/rdb"
)

type BookmarkService struct {
	bookmarks *rdb.BookmarkRepository
	posts     *rdb.PostRepository
	log       *zap.Logger
}

func NewBookmarkService(db *gorm.DB, log *zap.Logger) *BookmarkService {
	return &BookmarkService{
		bookmarks: &rdb.BookmarkRepository{DB: db},
		posts:     &rdb.PostRepository{DB: db},
		log:       log.Named("bookmark"),
	}
}

// Toggle returns "added" or "removed".
func (s *BookmarkService) Toggle(ctx context.Context, userID, postID uint64) (string, error) {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return "", storeErr(s.log, "toggle bookmark", err, "")
	}
	if !ok {
		return "", apperr.Missing("post not found")
	}
	state, err := s.bookmarks.Toggle(ctx, userID, postID)
	if err != nil {
		return "", storeErr(s.log, "toggle bookmark", err, "post not found")
	}
	return state, nil
}

// List returns the caller's bookmarked posts, newest post first.
func (s *BookmarkService) List(ctx context.Context, userID uint64) ([]rdb.PostRow, error) {
	ids, err := s.bookmarks.ListPostIDs(ctx, userID)
	if err != nil {
		return nil, storeErr(s.log, "list bookmarks", err, "")
	}
	if ids == nil {
		ids = []uint64{}
	}
	rows, err := s.posts.List(ctx, rdb.PostFilter{IDs: ids})
	if err != nil {
		return nil, storeErr(s.log, "list bookmarks", err, "")
	}
	return rows, nil
}
