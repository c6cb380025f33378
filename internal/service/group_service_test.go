package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"prizetalk/internal/model"
	"prizetalk/internal/pkg/apperr"
	"prizetalk/internal/policy"
	"prizetalk/internal/repository/rdb"
	"prizetalk/internal/repository/rdb/rdbtest"
	"prizetalk/internal/service"
)

type groupFixture struct {
	svc                    *service.GroupService
	group                  *model.Group
	creator, member, other *model.User
	staff                  *model.User
}

func newGroupFixture(t *testing.T) groupFixture {
	t.Helper()
	db := rdbtest.Open(t)
	f := groupFixture{
		svc:     service.NewGroupService(db, zap.NewNop()),
		creator: rdbtest.User(t, db, "creator", policy.RoleUser),
		member:  rdbtest.User(t, db, "member", policy.RoleUser),
		other:   rdbtest.User(t, db, "other", policy.RoleUser),
		staff:   rdbtest.User(t, db, "staff", policy.RoleStaffAdmin),
	}
	g, err := f.svc.Create(context.Background(), f.creator.ID, "Nobel readers", "laureates only")
	require.NoError(t, err)
	f.group = g
	require.NoError(t, f.svc.Join(context.Background(), g.ID, f.member.ID))
	return f
}

func TestGroupCreateDuplicateName(t *testing.T) {
	f := newGroupFixture(t)
	_, err := f.svc.Create(context.Background(), f.other.ID, "Nobel readers", "")
	assert.Equal(t, apperr.Conflict, kindOf(t, err))
	_, err = f.svc.Create(context.Background(), f.other.ID, "  ", "")
	assert.Equal(t, apperr.Validation, kindOf(t, err))
}

func TestGroupJoinTwiceConflicts(t *testing.T) {
	f := newGroupFixture(t)
	err := f.svc.Join(context.Background(), f.group.ID, f.member.ID)
	assert.Equal(t, apperr.Conflict, kindOf(t, err))
	err = f.svc.Join(context.Background(), 999, f.member.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestGroupLeave(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	err := f.svc.Leave(ctx, f.group.ID, f.creator.ID)
	require.Equal(t, apperr.Validation, kindOf(t, err))
	assert.Contains(t, apperr.Message(err), "delete the group instead")

	require.NoError(t, f.svc.Leave(ctx, f.group.ID, f.member.ID))
	members, err := f.svc.Members(ctx, f.creator.ID, f.group.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, f.creator.ID, members[0].UserID)

	err = f.svc.Leave(ctx, f.group.ID, f.member.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestGroupContentVisibility(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	post, err := f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "Favourite laureate", "Ishiguro", []string{" Nobel ", "fiction"})
	require.NoError(t, err)

	_, err = f.svc.CreatePost(ctx, f.other.ID, f.group.ID, "t", "c", nil)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	_, err = f.svc.ListPosts(ctx, f.other.ID, f.group.ID, nil)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	_, err = f.svc.Members(ctx, f.other.ID, f.group.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))

	rows, err := f.svc.ListPosts(ctx, f.staff.ID, f.group.ID, []string{"NOBEL"})
	require.NoError(t, err, "staff admins read any group")
	require.Len(t, rows, 1)
	assert.Equal(t, post.ID, rows[0].ID)
	assert.Equal(t, []string{"nobel", "fiction"}, rows[0].Tags)

	_, err = f.svc.CreatePost(ctx, f.staff.ID, f.group.ID, "t", "c", nil)
	assert.Equal(t, apperr.Authorization, kindOf(t, err), "contributing needs membership")
}

func TestGroupDeletePostMatrix(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Join(ctx, f.group.ID, f.other.ID))

	post, err := f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)

	err = f.svc.DeletePost(ctx, f.other.ID, f.group.ID, post.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err), "plain member cannot delete others' posts")

	require.NoError(t, f.svc.DeletePost(ctx, f.creator.ID, f.group.ID, post.ID), "creator is group admin")

	post, err = f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePost(ctx, f.member.ID, f.group.ID, post.ID), "author deletes own post")

	post, err = f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePost(ctx, f.staff.ID, f.group.ID, post.ID))
}

func TestGroupCommentsAndReactions(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Join(ctx, f.group.ID, f.other.ID))

	post, err := f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)
	c, err := f.svc.CreateComment(ctx, f.member.ID, f.group.ID, post.ID, "hello")
	require.NoError(t, err)

	res, err := f.svc.ReactPost(ctx, f.other.ID, f.group.ID, post.ID, model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, rdb.ReactionAdded, res)
	res, err = f.svc.ReactPost(ctx, f.other.ID, f.group.ID, post.ID, model.ReactionDislike)
	require.NoError(t, err)
	assert.Equal(t, rdb.ReactionUpdated, res)
	res, err = f.svc.ReactComment(ctx, f.other.ID, f.group.ID, c.ID, model.ReactionLike)
	require.NoError(t, err)
	assert.Equal(t, rdb.ReactionAdded, res)

	comments, err := f.svc.ListComments(ctx, f.member.ID, f.group.ID, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(1), comments[0].LikesCount)

	err = f.svc.DeleteComment(ctx, f.other.ID, f.group.ID, c.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	require.NoError(t, f.svc.DeleteComment(ctx, f.member.ID, f.group.ID, c.ID))
}

func TestGroupContentIsScopedToItsGroup(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	second, err := f.svc.Create(ctx, f.member.ID, "Oscar night", "")
	require.NoError(t, err)

	post, err := f.svc.CreatePost(ctx, f.member.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)

	err = f.svc.DeletePost(ctx, f.member.ID, second.ID, post.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
	_, err = f.svc.CreateComment(ctx, f.member.ID, second.ID, post.ID, "x")
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestGroupMemberRoles(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Join(ctx, f.group.ID, f.other.ID))

	err := f.svc.UpdateMemberRole(ctx, f.member.ID, f.group.ID, f.other.ID, policy.GroupAdmin)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	err = f.svc.UpdateMemberRole(ctx, f.creator.ID, f.group.ID, f.other.ID, "owner")
	assert.Equal(t, apperr.Validation, kindOf(t, err))
	err = f.svc.UpdateMemberRole(ctx, f.creator.ID, f.group.ID, f.creator.ID, policy.GroupMember)
	assert.Equal(t, apperr.Validation, kindOf(t, err))

	require.NoError(t, f.svc.UpdateMemberRole(ctx, f.creator.ID, f.group.ID, f.member.ID, policy.GroupAdmin))

	post, err := f.svc.CreatePost(ctx, f.other.ID, f.group.ID, "t", "c", nil)
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePost(ctx, f.member.ID, f.group.ID, post.ID), "promoted admin moderates")

	err = f.svc.UpdateMemberRole(ctx, f.creator.ID, f.group.ID, f.staff.ID, policy.GroupMember)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestGroupDelete(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()

	err := f.svc.Delete(ctx, f.member.ID, f.group.ID)
	assert.Equal(t, apperr.Authorization, kindOf(t, err))
	require.NoError(t, f.svc.Delete(ctx, f.creator.ID, f.group.ID))
	_, err = f.svc.Get(ctx, f.group.ID)
	assert.Equal(t, apperr.NotFound, kindOf(t, err))
}

func TestGroupListMine(t *testing.T) {
	f := newGroupFixture(t)
	ctx := context.Background()
	_, err := f.svc.Create(ctx, f.other.ID, "Grammy talk", "")
	require.NoError(t, err)

	all, err := f.svc.List(ctx, 0, false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := f.svc.List(ctx, f.member.ID, true, 0, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, f.group.ID, mine[0].ID)

	_, err = f.svc.List(ctx, 0, true, 0, 0)
	assert.Equal(t, apperr.Authentication, kindOf(t, err))
}
