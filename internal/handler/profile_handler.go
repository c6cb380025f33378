package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/model"
	"prizetalk/internal/service"
)

type ProfileHandler struct {
	follows *service.FollowService
	roles   *service.RoleService
}

type AssignRoleReq struct {
	Role string `json:"role" binding:"required"`
}

type followPager func(ctx context.Context, userID, cursor uint64, limit int) ([]model.Follow, uint64, error)

func NewProfileHandler(follows *service.FollowService, roles *service.RoleService) *ProfileHandler {
	return &ProfileHandler{follows: follows, roles: roles}
}

// Get GET /api/profiles/:id/
func (h *ProfileHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	p, err := h.follows.Profile(c.Request.Context(), id, userIDFromCtx(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Follow POST /api/profiles/:id/follow/ toggles the caller's follow of :id.
func (h *ProfileHandler) Follow(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	state, err := h.follows.Toggle(c.Request.Context(), userIDFromCtx(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": state})
}

// Followers GET /api/profiles/:id/followers/?cursor&limit
func (h *ProfileHandler) Followers(c *gin.Context) {
	h.page(c, h.follows.ListFollowers)
}

// Following GET /api/profiles/:id/following/?cursor&limit
func (h *ProfileHandler) Following(c *gin.Context) {
	h.page(c, h.follows.ListFollowings)
}

func (h *ProfileHandler) page(c *gin.Context, list followPager) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cursor, ok := uintQuery(c, "cursor")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	rows, next, err := list(c.Request.Context(), id, cursor, limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"list": rows, "next_cursor": next})
}

// AssignRole POST /api/users/:id/roles/
func (h *ProfileHandler) AssignRole(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AssignRoleReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	assigned, err := h.roles.Assign(c.Request.Context(), userIDFromCtx(c), id, req.Role)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":     assigned.UserID,
		"role":        assigned.Role,
		"assigned_at": assigned.AssignedAt,
	})
}

// RoleHistory GET /api/users/:id/roles/
func (h *ProfileHandler) RoleHistory(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.roles.History(c.Request.Context(), userIDFromCtx(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]gin.H, 0, len(rows))
	for _, r := range rows {
		out = append(out, gin.H{"role": r.Role, "assigned_at": r.AssignedAt})
	}
	c.JSON(http.StatusOK, out)
}
