package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeletionMatrix(t *testing.T) {
	const author, other = 10, 20
	res := Resource{OwnerID: author}

	staff := Subject{UserID: other, Role: RoleStaffAdmin}
	authorSub := Subject{UserID: author, Role: RoleUser}
	stranger := Subject{UserID: other, Role: RoleAdmin}
	grpAdmin := Subject{UserID: other, Role: RoleUser, GroupRole: GroupAdmin}
	grpMod := Subject{UserID: other, Role: RoleUser, GroupRole: GroupModerator}

	cases := []struct {
		name   string
		action Action
		sub    Subject
		want   bool
	}{
		{"staff deletes public post", DeletePost, staff, true},
		{"author cannot delete public post", DeletePost, authorSub, false},
		{"global admin cannot delete public post", DeletePost, stranger, false},

		{"staff deletes comment", DeleteComment, staff, true},
		{"author deletes comment", DeleteComment, authorSub, true},
		{"stranger cannot delete comment", DeleteComment, stranger, false},

		{"staff deletes group", DeleteGroup, staff, true},
		{"creator deletes group", DeleteGroup, authorSub, true},
		{"group admin deletes group", DeleteGroup, grpAdmin, true},
		{"group moderator cannot delete group", DeleteGroup, grpMod, false},

		{"staff deletes group post", DeleteGroupPost, staff, true},
		{"group admin deletes group post", DeleteGroupPost, grpAdmin, true},
		{"author deletes group post", DeleteGroupPost, authorSub, true},
		{"moderator cannot delete group post", DeleteGroupPost, grpMod, false},

		{"staff deletes group comment", DeleteGroupComment, staff, true},
		{"group admin deletes group comment", DeleteGroupComment, grpAdmin, true},
		{"author deletes group comment", DeleteGroupComment, authorSub, true},
		{"stranger cannot delete group comment", DeleteGroupComment, stranger, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allow(tc.action, tc.sub, res))
		})
	}
}

func TestGroupAccess(t *testing.T) {
	outsider := Subject{UserID: 1, Role: RoleUser}
	memberSub := Subject{UserID: 1, Role: RoleUser, GroupRole: GroupMember}
	staff := Subject{UserID: 2, Role: RoleStaffAdmin}

	assert.False(t, Allow(ViewGroup, outsider, Resource{}))
	assert.True(t, Allow(ViewGroup, memberSub, Resource{}))
	assert.True(t, Allow(ViewGroup, staff, Resource{}))

	assert.True(t, Allow(ContributeToGroup, memberSub, Resource{}))
	assert.False(t, Allow(ContributeToGroup, staff, Resource{}))

	assert.False(t, Allow(ManageGroupMembers, memberSub, Resource{}))
	assert.True(t, Allow(ManageGroupMembers, Subject{GroupRole: GroupAdmin}, Resource{}))
	assert.True(t, Allow(AssignRole, staff, Resource{}))
	assert.False(t, Allow(AssignRole, Subject{Role: RoleAdmin}, Resource{}))
}

func TestZeroUserIsNeverOwner(t *testing.T) {
	assert.False(t, Allow(DeleteComment, Subject{}, Resource{}))
}

func TestValidRoles(t *testing.T) {
	assert.True(t, ValidRole(RoleDataCurator))
	assert.False(t, ValidRole("root"))
	assert.True(t, ValidGroupRole(GroupModerator))
	assert.False(t, ValidGroupRole(RoleStaffAdmin))
}
