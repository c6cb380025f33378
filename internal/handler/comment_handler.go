package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/service"
)

type CommentHandler struct {
	svc *service.CommentService
}

type CreateCommentReq struct {
	Content         string  `json:"content"`
	ParentCommentID *uint64 `json:"parent_comment_id"`
}

func NewCommentHandler(svc *service.CommentService) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// List GET /api/comments/:post_id/?parent_id
func (h *CommentHandler) List(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	var parent *uint64
	if c.Query("parent_id") != "" {
		id, ok := uintQuery(c, "parent_id")
		if !ok {
			return
		}
		parent = &id
	}
	list, err := h.svc.List(c.Request.Context(), postID, parent)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create POST /api/comments/:post_id/
func (h *CommentHandler) Create(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	var req CreateCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	comment, err := h.svc.Create(c.Request.Context(), userIDFromCtx(c), postID, req.Content, req.ParentCommentID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// Delete DELETE /api/comments/item/:id/
func (h *CommentHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment deleted"})
}
