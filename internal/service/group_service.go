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

// GroupService runs private discussion groups. Content inside a group is
// visible to members and staff admins only.
type GroupService struct {
	groups    *rdb.GroupRepository
	members   *rdb.MemberRepository
	posts     *rdb.GroupPostRepository
	comments  *rdb.GroupCommentRepository
	reactions *rdb.ReactionRepository
	roles     *RoleService
	log       *zap.Logger
}

func NewGroupService(db *gorm.DB, log *zap.Logger) *GroupService {
	return &GroupService{
		groups:    &rdb.GroupRepository{DB: db},
		members:   &rdb.MemberRepository{DB: db},
		posts:     &rdb.GroupPostRepository{DB: db},
		comments:  &rdb.GroupCommentRepository{DB: db},
		reactions: &rdb.ReactionRepository{DB: db},
		roles:     NewRoleService(db, log),
		log:       log.Named("group"),
	}
}

// access loads the group and the caller's standing in it.
func (s *GroupService) access(ctx context.Context, groupID, userID uint64) (*model.Group, policy.Subject, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, policy.Subject{}, storeErr(s.log, "load group", err, "group not found")
	}
	subj, err := s.roles.Subject(ctx, userID)
	if err != nil {
		return nil, policy.Subject{}, err
	}
	if subj.GroupRole, err = s.members.Role(ctx, groupID, userID); err != nil {
		return nil, policy.Subject{}, storeErr(s.log, "load membership", err, "")
	}
	return g, subj, nil
}

func (s *GroupService) canView(ctx context.Context, groupID, userID uint64) (*model.Group, policy.Subject, error) {
	g, subj, err := s.access(ctx, groupID, userID)
	if err != nil {
		return nil, subj, err
	}
	if !policy.Allow(policy.ViewGroup, subj, policy.Resource{OwnerID: g.CreatedBy}) {
		return nil, subj, apperr.Forbidden("only members can view this group")
	}
	return g, subj, nil
}

func (s *GroupService) canContribute(ctx context.Context, groupID, userID uint64) error {
	g, subj, err := s.access(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.ContributeToGroup, subj, policy.Resource{OwnerID: g.CreatedBy}) {
		return apperr.Forbidden("join the group to take part")
	}
	return nil
}

func (s *GroupService) Create(ctx context.Context, userID uint64, name, description string) (*model.Group, error) {
	name = pkg.SanitizeText(name)
	if name == "" {
		return nil, apperr.Invalid("group name is required")
	}
	g := &model.Group{Name: name, Description: pkg.SanitizeRich(description), CreatedBy: userID}
	if err := s.groups.Create(ctx, g); err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Wrap(apperr.Conflict, "group name already taken", err)
		}
		return nil, storeErr(s.log, "create group", err, "")
	}
	s.log.Info("group created", zap.Uint64("group_id", g.ID), zap.Uint64("user_id", userID))
	return g, nil
}

// List pages groups newest first. mine keeps only the caller's groups.
func (s *GroupService) List(ctx context.Context, userID uint64, mine bool, limit, offset int) ([]rdb.GroupRow, error) {
	limit, offset = clampPage(limit, offset)
	var memberOf uint64
	if mine {
		if userID == 0 {
			return nil, apperr.Unauthorized("login required to list your groups")
		}
		memberOf = userID
	}
	rows, err := s.groups.List(ctx, memberOf, offset, limit)
	if err != nil {
		return nil, storeErr(s.log, "list groups", err, "")
	}
	return rows, nil
}

func (s *GroupService) Get(ctx context.Context, groupID uint64) (*model.Group, error) {
	g, err := s.groups.FindByID(ctx, groupID)
	if err != nil {
		return nil, storeErr(s.log, "get group", err, "group not found")
	}
	return g, nil
}

func (s *GroupService) Delete(ctx context.Context, actorID, groupID uint64) error {
	g, subj, err := s.access(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.DeleteGroup, subj, policy.Resource{OwnerID: g.CreatedBy}) {
		return apperr.Forbidden("only the creator, a group admin or a staff admin can delete this group")
	}
	if _, err := s.groups.Delete(ctx, groupID); err != nil {
		return storeErr(s.log, "delete group", err, "group not found")
	}
	s.log.Info("group deleted", zap.Uint64("group_id", groupID), zap.Uint64("actor_id", actorID))
	return nil
}

func (s *GroupService) Join(ctx context.Context, groupID, userID uint64) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	if err := s.members.Join(ctx, groupID, userID, policy.GroupMember); err != nil {
		if apperr.IsUniqueViolation(err) {
			return apperr.Wrap(apperr.Conflict, "already a member of this group", err)
		}
		return storeErr(s.log, "join group", err, "group not found")
	}
	return nil
}

// Leave removes the caller's membership. The creator must delete the group instead.
func (s *GroupService) Leave(ctx context.Context, groupID, userID uint64) error {
	g, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if g.CreatedBy == userID {
		return apperr.Invalid("group creator cannot leave; delete the group instead")
	}
	removed, err := s.members.Leave(ctx, groupID, userID)
	if err != nil {
		return storeErr(s.log, "leave group", err, "")
	}
	if !removed {
		return apperr.Missing("not a member of this group")
	}
	return nil
}

func (s *GroupService) Members(ctx context.Context, actorID, groupID uint64) ([]rdb.MemberRow, error) {
	if _, _, err := s.canView(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	rows, err := s.members.List(ctx, groupID)
	if err != nil {
		return nil, storeErr(s.log, "list members", err, "")
	}
	return rows, nil
}

// UpdateMemberRole sets a member's group role. The creator always stays admin.
func (s *GroupService) UpdateMemberRole(ctx context.Context, actorID, groupID, userID uint64, role string) error {
	if !policy.ValidGroupRole(role) {
		return apperr.Invalid("role must be member, moderator or admin")
	}
	g, subj, err := s.access(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.ManageGroupMembers, subj, policy.Resource{OwnerID: g.CreatedBy}) {
		return apperr.Forbidden("only group admins can change member roles")
	}
	if userID == g.CreatedBy && role != policy.GroupAdmin {
		return apperr.Invalid("group creator must stay admin")
	}
	found, err := s.members.UpdateRole(ctx, groupID, userID, actorID, role)
	if err != nil {
		return storeErr(s.log, "update member role", err, "")
	}
	if !found {
		return apperr.Missing("member not found")
	}
	return nil
}

func (s *GroupService) CreatePost(ctx context.Context, actorID, groupID uint64, title, content string, tags []string) (*model.GroupPost, error) {
	title = pkg.SanitizeText(title)
	content = pkg.SanitizeRich(content)
	if title == "" || content == "" {
		return nil, apperr.Invalid("title and content are required")
	}
	if err := s.canContribute(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	p := &model.GroupPost{GroupID: groupID, UserID: actorID, Title: title, Content: content}
	if err := s.posts.Create(ctx, p, NormalizeTags(tags)); err != nil {
		return nil, storeErr(s.log, "create group post", err, "group not found")
	}
	return p, nil
}

func (s *GroupService) ListPosts(ctx context.Context, actorID, groupID uint64, tags []string) ([]rdb.GroupPostRow, error) {
	if _, _, err := s.canView(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	rows, err := s.posts.List(ctx, groupID, NormalizeTags(tags))
	if err != nil {
		return nil, storeErr(s.log, "list group posts", err, "")
	}
	return rows, nil
}

// post loads a group post and checks it lives in groupID.
func (s *GroupService) post(ctx context.Context, groupID, postID uint64) (*model.GroupPost, error) {
	p, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, storeErr(s.log, "load group post", err, "post not found")
	}
	if p.GroupID != groupID {
		return nil, apperr.Missing("post not found")
	}
	return p, nil
}

func (s *GroupService) DeletePost(ctx context.Context, actorID, groupID, postID uint64) error {
	_, subj, err := s.access(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	p, err := s.post(ctx, groupID, postID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.DeleteGroupPost, subj, policy.Resource{OwnerID: p.UserID}) {
		return apperr.Forbidden("only the author, a group admin or a staff admin can delete this post")
	}
	if _, err := s.posts.Delete(ctx, postID); err != nil {
		return storeErr(s.log, "delete group post", err, "post not found")
	}
	return nil
}

func (s *GroupService) CreateComment(ctx context.Context, actorID, groupID, postID uint64, content string) (*model.GroupComment, error) {
	content = pkg.SanitizeRich(content)
	if content == "" {
		return nil, apperr.Invalid("content is required")
	}
	if err := s.canContribute(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return nil, err
	}
	c := &model.GroupComment{GroupPostID: postID, UserID: actorID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, storeErr(s.log, "create group comment", err, "post not found")
	}
	return c, nil
}

func (s *GroupService) ListComments(ctx context.Context, actorID, groupID, postID uint64) ([]rdb.GroupCommentRow, error) {
	if _, _, err := s.canView(ctx, groupID, actorID); err != nil {
		return nil, err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return nil, err
	}
	rows, err := s.comments.List(ctx, postID)
	if err != nil {
		return nil, storeErr(s.log, "list group comments", err, "")
	}
	return rows, nil
}

// comment loads a group comment and checks it lives in groupID.
func (s *GroupService) comment(ctx context.Context, groupID, commentID uint64) (*model.GroupComment, error) {
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, storeErr(s.log, "load group comment", err, "comment not found")
	}
	owner, err := s.comments.GroupOf(ctx, commentID)
	if err != nil {
		return nil, storeErr(s.log, "load group comment", err, "comment not found")
	}
	if owner != groupID {
		return nil, apperr.Missing("comment not found")
	}
	return c, nil
}

func (s *GroupService) DeleteComment(ctx context.Context, actorID, groupID, commentID uint64) error {
	_, subj, err := s.access(ctx, groupID, actorID)
	if err != nil {
		return err
	}
	c, err := s.comment(ctx, groupID, commentID)
	if err != nil {
		return err
	}
	if !policy.Allow(policy.DeleteGroupComment, subj, policy.Resource{OwnerID: c.UserID}) {
		return apperr.Forbidden("only the author, a group admin or a staff admin can delete this comment")
	}
	if _, err := s.comments.Delete(ctx, commentID); err != nil {
		return storeErr(s.log, "delete group comment", err, "comment not found")
	}
	return nil
}

// ReactPost toggles the caller's reaction on a group post.
func (s *GroupService) ReactPost(ctx context.Context, actorID, groupID, postID uint64, kind string) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	if err := s.canContribute(ctx, groupID, actorID); err != nil {
		return "", err
	}
	if _, err := s.post(ctx, groupID, postID); err != nil {
		return "", err
	}
	result, err := s.reactions.Toggle(ctx, rdb.TargetGroupPost, actorID, postID, kind)
	if err != nil {
		return "", storeErr(s.log, "toggle group reaction", err, "post not found")
	}
	return result, nil
}

func (s *GroupService) ReactComment(ctx context.Context, actorID, groupID, commentID uint64, kind string) (string, error) {
	if err := validKind(kind); err != nil {
		return "", err
	}
	if err := s.canContribute(ctx, groupID, actorID); err != nil {
		return "", err
	}
	if _, err := s.comment(ctx, groupID, commentID); err != nil {
		return "", err
	}
	result, err := s.reactions.Toggle(ctx, rdb.TargetGroupComment, actorID, commentID, kind)
	if err != nil {
		return "", storeErr(s.log, "toggle group reaction", err, "comment not found")
	}
	return result, nil
}
