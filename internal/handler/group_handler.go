package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/service"
)

type GroupHandler struct {
	svc *service.GroupService
}

type CreateGroupReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateMemberReq struct {
	Role string `json:"role" binding:"required"`
}

type CreateGroupPostReq struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type CreateGroupCommentReq struct {
	Content string `json:"content"`
}

func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// List GET /api/groups/?mine&limit&offset
func (h *GroupHandler) List(c *gin.Context) {
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), userIDFromCtx(c), boolQuery(c, "mine"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create POST /api/groups/
func (h *GroupHandler) Create(c *gin.Context) {
	var req CreateGroupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	g, err := h.svc.Create(c.Request.Context(), userIDFromCtx(c), req.Name, req.Description)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

// Get GET /api/groups/:id/
func (h *GroupHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	g, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

// Delete DELETE /api/groups/:id/
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Group deleted"})
}

// Join POST /api/groups/:id/join/
func (h *GroupHandler) Join(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Join(c.Request.Context(), id, userIDFromCtx(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Joined group"})
}

// Leave POST /api/groups/:id/leave/
func (h *GroupHandler) Leave(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Leave(c.Request.Context(), id, userIDFromCtx(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Left group"})
}

// Members GET /api/groups/:id/members/
func (h *GroupHandler) Members(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Members(c.Request.Context(), userIDFromCtx(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// UpdateMember PATCH /api/groups/:id/members/:user_id/
func (h *GroupHandler) UpdateMember(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	userID, ok := idParam(c, "user_id")
	if !ok {
		return
	}
	var req UpdateMemberReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "role is required")
		return
	}
	if err := h.svc.UpdateMemberRole(c.Request.Context(), userIDFromCtx(c), id, userID, req.Role); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": req.Role})
}

// Posts GET /api/groups/:id/posts/?tags=a,b
func (h *GroupHandler) Posts(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListPosts(c.Request.Context(), userIDFromCtx(c), id, service.SplitTags(c.Query("tags")))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreatePost POST /api/groups/:id/posts/
func (h *GroupHandler) CreatePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateGroupPostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	post, err := h.svc.CreatePost(c.Request.Context(), userIDFromCtx(c), id, req.Title, req.Content, req.Tags)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// DeletePost DELETE /api/groups/:id/posts/:post_id/
func (h *GroupHandler) DeletePost(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	if err := h.svc.DeletePost(c.Request.Context(), userIDFromCtx(c), id, postID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}

// Comments GET /api/groups/:id/posts/:post_id/comments/
func (h *GroupHandler) Comments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	list, err := h.svc.ListComments(c.Request.Context(), userIDFromCtx(c), id, postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// CreateComment POST /api/groups/:id/posts/:post_id/comments/
func (h *GroupHandler) CreateComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	var req CreateGroupCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	comment, err := h.svc.CreateComment(c.Request.Context(), userIDFromCtx(c), id, postID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment DELETE /api/groups/:id/comments/:comment_id/
func (h *GroupHandler) DeleteComment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	commentID, ok := idParam(c, "comment_id")
	if !ok {
		return
	}
	if err := h.svc.DeleteComment(c.Request.Context(), userIDFromCtx(c), id, commentID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}

// ReactPost POST /api/groups/:id/reactions/post/:post_id/
func (h *GroupHandler) ReactPost(c *gin.Context) {
	h.react(c, "post_id", h.svc.ReactPost)
}

// ReactComment POST /api/groups/:id/reactions/comment/:comment_id/
func (h *GroupHandler) ReactComment(c *gin.Context) {
	h.react(c, "comment_id", h.svc.ReactComment)
}

type groupToggleFunc func(ctx context.Context, actorID, groupID, targetID uint64, kind string) (string, error)

func (h *GroupHandler) react(c *gin.Context, param string, toggle groupToggleFunc) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	targetID, ok := idParam(c, param)
	if !ok {
		return
	}
	var req ReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	result, err := toggle(c.Request.Context(), userIDFromCtx(c), id, targetID, req.ReactionType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result, "reaction_type": req.ReactionType})
}
