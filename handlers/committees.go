package handlers

import (
	"net/http"

	"github.com/banghwa/staffboard/internal/committee"
	"github.com/gin-gonic/gin"
)

type updateCellRequest struct {
	Field string  `json:"field" binding:"required"`
	Value *string `json:"value" binding:"required"`
}

type CommitteeHandler struct {
	svc *committee.Service
}

func NewCommitteeHandler(svc *committee.Service) *CommitteeHandler {
	return &CommitteeHandler{svc: svc}
}

func (h *CommitteeHandler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	g := api.Group("/committees")
	g.GET("", h.Load)
	g.PATCH("/:id", auth, h.UpdateCell)
}

// Load returns the table with its column headers, seeding it on first use.
func (h *CommitteeHandler) Load(c *gin.Context) {
	rows, err := h.svc.Load(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load committees")
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": committee.Columns, "rows": rows})
}

// UpdateCell writes one cell. An empty value clears it.
func (h *CommitteeHandler) UpdateCell(c *gin.Context) {
	var req updateCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	id := c.Param("id")
	if err := h.svc.UpdateCell(c.Request.Context(), id, req.Field, *req.Value); err != nil {
		respondError(c, err, "failed to update committee")
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "field": req.Field, "value": *req.Value})
}
