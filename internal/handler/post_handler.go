package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/service"
)

type PostHandler struct {
	svc *service.PostService
}

type CreatePostReq struct {
	CategoryID uint64   `json:"category_id"`
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Tags       []string `json:"tags"`
}

func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{svc: svc}
}

// Categories GET /api/categories/
func (h *PostHandler) Categories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// List GET /api/community/?category_id&author_id&tags=a,b&following=true&limit&offset
func (h *PostHandler) List(c *gin.Context) {
	categoryID, ok := uintQuery(c, "category_id")
	if !ok {
		return
	}
	authorID, ok := uintQuery(c, "author_id")
	if !ok {
		return
	}
	limit, ok := intQuery(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), userIDFromCtx(c), service.ListPostsInput{
		CategoryID: categoryID,
		AuthorID:   authorID,
		Tags:       service.SplitTags(c.Query("tags")),
		Following:  boolQuery(c, "following"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Create POST /api/community/
func (h *PostHandler) Create(c *gin.Context) {
	var req CreatePostReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	post, err := h.svc.Create(c.Request.Context(), userIDFromCtx(c), service.CreatePostInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Content:    req.Content,
		Tags:       req.Tags,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get GET /api/community/:id/
func (h *PostHandler) Get(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	post, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete DELETE /api/community/:id/
func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userIDFromCtx(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Post deleted"})
}
