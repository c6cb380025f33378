package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"prizetalk/internal/service"
)

type AwardHandler struct {
	svc *service.AwardService
}

func NewAwardHandler(svc *service.AwardService) *AwardHandler {
	return &AwardHandler{svc: svc}
}

// Tables GET /api/awards/tables/
func (h *AwardHandler) Tables(c *gin.Context) {
	list, err := h.svc.Tables(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Table GET /api/awards/tables/:table/?limit&offset
func (h *AwardHandler) Table(c *gin.Context) {
	limit, ok := intQuery(c, "limit", service.DefaultAwardRows)
	if !ok {
		return
	}
	offset, ok := intQuery(c, "offset", 0)
	if !ok {
		return
	}
	data, err := h.svc.Table(c.Request.Context(), c.Param("table"), limit, offset)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}
