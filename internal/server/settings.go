package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	settingsdomain "github.com/smallbiznis/creditdash/internal/settings/domain"
)

func (s *Server) ListSettings(c *gin.Context) {
	category := strings.TrimSpace(c.Query("category"))

	resp, err := s.settingsSvc.List(c.Request.Context(), category)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpsertSettings(c *gin.Context) {
	var req struct {
		Values map[string]*string `json:"values"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(req.Values) == 0 {
		AbortWithError(c, settingsdomain.ErrInvalidKey)
		return
	}

	resp, err := s.settingsSvc.UpsertMany(c.Request.Context(), strings.TrimSpace(c.Param("category")), req.Values)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
