package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/service"
)

type ReactionHandler struct {
	reactions *service.ReactionService
	bookmarks *service.BookmarkService
}

type ReactionReq struct {
	ReactionType string `json:"reaction_type"`
}

type toggleFunc func(ctx context.Context, userID, targetID uint64, kind string) (string, error)

func NewReactionHandler(reactions *service.ReactionService, bookmarks *service.BookmarkService) *ReactionHandler {
	return &ReactionHandler{reactions: reactions, bookmarks: bookmarks}
}

// Post POST /api/reactions/post/:id/
func (h *ReactionHandler) Post(c *gin.Context) {
	h.react(c, h.reactions.TogglePost)
}

// Comment POST /api/reactions/comment/:id/
func (h *ReactionHandler) Comment(c *gin.Context) {
	h.react(c, h.reactions.ToggleComment)
}

func (h *ReactionHandler) react(c *gin.Context, toggle toggleFunc) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req ReactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	result, err := toggle(c.Request.Context(), userIDFromCtx(c), id, req.ReactionType)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": result, "reaction_type": req.ReactionType})
}

// Bookmark POST /api/bookmarks/:post_id/ toggles the bookmark.
func (h *ReactionHandler) Bookmark(c *gin.Context) {
	postID, ok := idParam(c, "post_id")
	if !ok {
		return
	}
	state, err := h.bookmarks.Toggle(c.Request.Context(), userIDFromCtx(c), postID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": state})
}

// Bookmarks GET /api/bookmarks/
func (h *ReactionHandler) Bookmarks(c *gin.Context) {
	list, err := h.bookmarks.List(c.Request.Context(), userIDFromCtx(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
