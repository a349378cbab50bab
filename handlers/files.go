package handlers

import (
	"net/http"

	"github.com/banghwa/staffboard/internal/files"
	"github.com/banghwa/staffboard/pkg/middleware"
	"github.com/gin-gonic/gin"
)

type addFileRequest struct {
	Name string `json:"name" binding:"required"`
	Link string `json:"link" binding:"required"`
	Type string `json:"type" binding:"required,oneof=image pdf"`
}

// FileHandler manages the shared image/PDF records of static menus.
type FileHandler struct {
	svc *files.Service
}

func NewFileHandler(svc *files.Service) *FileHandler {
	return &FileHandler{svc: svc}
}

func (h *FileHandler) Register(api *gin.RouterGroup, auth gin.HandlerFunc) {
	g := api.Group("/files/:menu")
	g.GET("", h.List)
	g.POST("", auth, middleware.RequireAdmin(), h.Add)
	g.DELETE("/:id", auth, middleware.RequireAdmin(), h.Remove)
}

func (h *FileHandler) List(c *gin.Context) {
	views, err := h.svc.List(c.Request.Context(), c.Param("menu"))
	if err != nil {
		respondError(c, err, "failed to load files")
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": views})
}

func (h *FileHandler) Add(c *gin.Context) {
	var req addFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err), "")
		return
	}
	v, err := h.svc.Add(c.Request.Context(), c.Param("menu"), req.Name, req.Link, req.Type)
	if err != nil {
		respondError(c, err, "failed to add file")
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *FileHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), c.Param("menu"), c.Param("id")); err != nil {
		respondError(c, err, "failed to remove file")
		return
	}
	c.Status(http.StatusNoContent)
}
