package service

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/policy"
	"prizetalk/internal/repository/rdb"
)

type PostService struct {
	posts      *rdb.PostRepository
	categories *rdb.CategoryRepository
	roles      *RoleService
	log        *zap.Logger
}

func NewPostService(db *gorm.DB, log *zap.Logger) *PostService {
	return &PostService{
		posts:      &rdb.PostRepository{DB: db},
		categories: &rdb.CategoryRepository{DB: db},
		roles:      NewRoleService(db, log),
		log:        log.Named("post"),
	}
}

type CreatePostInput struct {
	CategoryID uint64
	Title      string
	Content    string
	Tags       []string
}

type ListPostsInput struct {
	CategoryID uint64
	AuthorID   uint64
	Tags       []string
	Following  bool // only authors the viewer follows
	Limit      int
	Offset     int
}

func (s *PostService) Create(ctx context.Context, userID uint64, in CreatePostInput) (*rdb.PostRow, error) {
	title := pkg.SanitizeText(in.Title)
	content := pkg.SanitizeRich(in.Content)
	if title == "" || content == "" || in.CategoryID == 0 {
		return nil, apperr.Invalid("title, content and category_id are required")
	}
	ok, err := s.categories.Exists(ctx, in.CategoryID)
	if err != nil {
		return nil, storeErr(s.log, "create post", err, "")
	}
	if !ok {
		return nil, apperr.Missing("category not found")
	}

	post := &model.CommunityPost{
		UserID:     userID,
		CategoryID: in.CategoryID,
		Title:      title,
		Content:    content,
	}
	if err := s.posts.Create(ctx, post, NormalizeTags(in.Tags)); err != nil {
		return nil, storeErr(s.log, "create post", err, "")
	}
	return s.Get(ctx, post.ID)
}

// List returns posts newest first. Following requires a viewer.
func (s *PostService) List(ctx context.Context, viewerID uint64, in ListPostsInput) ([]rdb.PostRow, error) {
	limit, offset := clampPage(in.Limit, in.Offset)
	f := rdb.PostFilter{
		CategoryID: in.CategoryID,
		AuthorID:   in.AuthorID,
		Tags:       NormalizeTags(in.Tags),
		Limit:      limit,
		Offset:     offset,
	}
	if in.Following {
		if viewerID == 0 {
			return nil, apperr.Unauthorized("login required to list followed authors")
		}
		f.FollowedBy = viewerID
	}
	rows, err := s.posts.List(ctx, f)
	if err != nil {
		return nil, storeErr(s.log, "list posts", err, "")
	}
	return rows, nil
}

func (s *PostService) Get(ctx context.Context, id uint64) (*rdb.PostRow, error) {
	row, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, storeErr(s.log, "get post", err, "post not found")
	}
	return row, nil
}

// Delete hard-deletes a public post. Comments, tag links, reactions and
// bookmarks cascade.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint64) error {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return storeErr(s.log, "delete post", err, "post not found")
	}
	actor, err := s.roles.Subject(ctx, actorID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.DeletePost, actor, policy.Resource{OwnerID: post.UserID}) {
		return apperr.Forbidden("Only staff admins can delete posts")
	}
	removed, err := s.posts.Delete(ctx, postID)
	if err != nil {
		return storeErr(s.log, "delete post", err, "post not found")
	}
	if !removed {
		return apperr.Missing("post not found")
	}
	s.log.Info("post deleted", zap.Uint64("post_id", postID), zap.Uint64("actor_id", actorID))
	return nil
}

func (s *PostService) Categories(ctx context.Context) ([]model.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeErr(s.log, "list categories", err, "")
	}
	return list, nil
}
