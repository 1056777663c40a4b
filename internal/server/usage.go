package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/creditdash/internal/selection"
	usagedomain "github.com/smallbiznis/creditdash/internal/usage/domain"
	"go.uber.org/zap"
)

type queryUsageRequest struct {
	CustomerID string `json:"customerId"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
}

func (s *Server) QueryUsage(c *gin.Context) {
	var req queryUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.usageSvc.Fetch(c.Request.Context(), usagedomain.FetchRequest{
		CustomerID: strings.TrimSpace(req.CustomerID),
		Window: usagedomain.Window{
			Start: strings.TrimSpace(req.StartDate),
			End:   strings.TrimSpace(req.EndDate),
		},
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	// Remember what was queried so the dashboard can restore it later.
	// A failed save must not spoil the result.
	if err := s.selections.Save(c.Request.Context(), selection.Selection{
		CustomerID: strings.TrimSpace(req.CustomerID),
		StartDate:  strings.TrimSpace(req.StartDate),
		EndDate:    strings.TrimSpace(req.EndDate),
	}); err != nil {
		s.log.Warn("failed to save usage selection", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportUsage(c *gin.Context) {
	var query usagedomain.ExportRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	export, err := s.usageSvc.Export(c.Request.Context(), usagedomain.ExportRequest{
		CustomerID: strings.TrimSpace(query.CustomerID),
		Start:      strings.TrimSpace(query.Start),
		End:        strings.TrimSpace(query.End),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	c.Data(http.StatusOK, "text/csv", export.Content)
}

func (s *Server) GetUsageSelection(c *gin.Context) {
	sel, err := s.selections.Load(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sel == nil {
		c.Status(http.StatusNoContent)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sel})
}
