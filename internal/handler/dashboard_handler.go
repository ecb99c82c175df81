package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/studyhall/planner-api/internal/models"
	appErrors "github.com/studyhall/planner-api/pkg/errors"
	"github.com/studyhall/planner-api/pkg/response"
)

type dashboardService interface {
	Summary(ctx context.Context, userID string) (*models.DashboardSummary, bool, error)
}

// DashboardHandler serves the composed dashboard payload.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Summary godoc
// @Summary Get the caller's dashboard
// @Description Today's classes, pending tasks, recent study activity and counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, fromCache, err := h.service.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, summary, nil, map[string]interface{}{"cached": fromCache})
}
