// Package policy decides every role, ownership and membership gated action.
// It is pure: callers resolve the subject's role and group membership first.
package policy

// Global roles. A user with no assignment holds RoleUser.
const (
	RoleUser        = "user"
	RoleModerator   = "moderator"
	RoleAdmin       = "admin"
	RoleDataCurator = "data_curator"
	RoleStaffAdmin  = "staff_admin"
)

// Group membership roles.
const (
	GroupMember    = "member"
	GroupModerator = "moderator"
	GroupAdmin     = "admin"
)

var roles = map[string]struct{}{
	RoleUser: {}, RoleModerator: {}, RoleAdmin: {}, RoleDataCurator: {}, RoleStaffAdmin: {},
}

var groupRoles = map[string]struct{}{
	GroupMember: {}, GroupModerator: {}, GroupAdmin: {},
}

func ValidRole(r string) bool {
	_, ok := roles[r]
	return ok
}

func ValidGroupRole(r string) bool {
	_, ok := groupRoles[r]
	return ok
}

type Action int

const (
	DeletePost Action = iota
	DeleteComment
	DeleteGroup
	DeleteGroupPost
	DeleteGroupComment
	ViewGroup
	ContributeToGroup
	ManageGroupMembers
	AssignRole
)

func (a Action) String() string {
	switch a {
	case DeletePost:
		return "delete_post"
	case DeleteComment:
		return "delete_comment"
	case DeleteGroup:
		return "delete_group"
	case DeleteGroupPost:
		return "delete_group_post"
	case DeleteGroupComment:
		return "delete_group_comment"
	case ViewGroup:
		return "view_group"
	case ContributeToGroup:
		return "contribute_to_group"
	case ManageGroupMembers:
		return "manage_group_members"
	case AssignRole:
		return "assign_role"
	}
	return "unknown"
}

// Subject is the verified caller. GroupRole is empty when the caller is not
// a member of the group the resource belongs to.
type Subject struct {
	UserID    uint64
	Role      string
	GroupRole string
}

// Resource describes the target. OwnerID is the creator (post/comment author,
// group created_by).
type Resource struct {
	OwnerID uint64
}

type rule func(Subject, Resource) bool

func staffAdmin(s Subject, _ Resource) bool { return s.Role == RoleStaffAdmin }
func owner(s Subject, r Resource) bool      { return s.UserID != 0 && s.UserID == r.OwnerID }
func groupAdmin(s Subject, _ Resource) bool { return s.GroupRole == GroupAdmin }
func member(s Subject, _ Resource) bool     { return s.GroupRole != "" }

// Rules are OR-ed. An action missing from the table is denied.
var matrix = map[Action][]rule{
	DeletePost:         {staffAdmin},
	DeleteComment:      {staffAdmin, owner},
	DeleteGroup:        {staffAdmin, owner, groupAdmin},
	DeleteGroupPost:    {staffAdmin, groupAdmin, owner},
	DeleteGroupComment: {staffAdmin, groupAdmin, owner},
	ViewGroup:          {staffAdmin, member},
	ContributeToGroup:  {member},
	ManageGroupMembers: {staffAdmin, groupAdmin},
	AssignRole:         {staffAdmin},
}

func Allow(action Action, s Subject, r Resource) bool {
	for _, ok := range matrix[action] {
		if ok(s, r) {
			return true
		}
	}
	return false
}
