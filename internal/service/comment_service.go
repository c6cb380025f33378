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

type CommentService struct {
	comments *rdb.CommentRepository
	posts    *rdb.PostRepository
	roles    *RoleService
	log      *zap.Logger
}

func NewCommentService(db *gorm.DB, log *zap.Logger) *CommentService {
	return &CommentService{
		comments: &rdb.CommentRepository{DB: db},
		posts:    &rdb.PostRepository{DB: db},
		roles:    NewRoleService(db, log),
		log:      log.Named("comment"),
	}
}

// Create adds a comment to postID. A reply's parent must belong to the same post.
func (s *CommentService) Create(ctx context.Context, userID, postID uint64, content string, parentID *uint64) (*model.PostComment, error) {
	content = pkg.SanitizeRich(content)
	if content == "" {
		return nil, apperr.Invalid("content is required")
	}
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	if parentID != nil {
		parent, err := s.comments.FindByID(ctx, *parentID)
		if err != nil {
			return nil, storeErr(s.log, "create comment", err, "parent comment not found")
		}
		if parent.PostID != postID {
			return nil, apperr.Invalid("parent comment belongs to another post")
		}
	}

	c := &model.PostComment{PostID: postID, UserID: userID, ParentCommentID: parentID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeErr(s.log, "create comment", err, "post not found")
	}
	return c, nil
}

// List returns the top-level comments of postID, or the replies to parentID.
func (s *CommentService) List(ctx context.Context, postID uint64, parentID *uint64) ([]rdb.CommentRow, error) {
	if err := s.postExists(ctx, postID); err != nil {
		return nil, err
	}
	rows, err := s.comments.ListByPost(ctx, postID, parentID)
	if err != nil {
		return nil, storeErr(s.log, "list comments", err, "")
	}
	return rows, nil
}

func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint64) error {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return storeErr(s.log, "delete comment", err, "comment not found")
	}
	actor, err := s.roles.Subject(ctx, actorID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.DeleteComment, actor, policy.Resource{OwnerID: c.UserID}) {
		return apperr.Forbidden("only the author or a staff admin can delete this comment")
	}
	removed, err := s.comments.Delete(ctx, commentID)
	if err != nil {
		return storeErr(s.log, "delete comment", err, "comment not found")
	}
	if !removed {
		return apperr.Missing("comment not found")
	}
	return nil
}

func (s *CommentService) postExists(ctx context.Context, postID uint64) error {
	ok, err := s.posts.Exists(ctx, postID)
	if err != nil {
		return storeErr(s.log, "lookup post", err, "")
	}
	if !ok {
		return apperr.Missing("post not found")
	}
	return nil
}
