package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edulend/edulend/internal/services"
	"github.com/edulend/edulend/pkg/errors"
	"github.com/edulend/edulend/pkg/response"
)

// DashboardHandler serves admin aggregates and the CIBIL lookup.
type DashboardHandler struct {
	dashboard *services.DashboardService
}

func NewDashboardHandler(dashboard *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// GET /api/dashboard/summary
func (h *DashboardHandler) Summary(c *gin.Context) {
	summary, err := h.dashboard.Summary(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, summary)
}

// GET /api/cibil/:pan
func (h *DashboardHandler) CibilScore(c *gin.Context) {
	pan := strings.ToUpper(strings.TrimSpace(c.Param("pan")))
	if len(pan) != 10 {
		response.Error(c, errors.NewBadRequest("pan must be 10 characters"))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"pan":   pan,
		"score": services.MockCibilScore(pan),
	})
}
