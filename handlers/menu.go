package handlers

import (
	"net/http"

	"github.com/banghwa/staffboard/internal/menu"
	"github.com/gin-gonic/gin"
)

func RegisterMenu(api *gin.RouterGroup, reg *menu.Registry) {
	api.GET("/menu", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"menu": reg.Entries()})
	})
}
