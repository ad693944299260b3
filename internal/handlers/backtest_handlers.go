package handlers

import (
	"errors"
	"net/http"

	"github.com/epeers/portfolio/internal/backtest"
	"github.com/epeers/portfolio/internal/models"
	"github.com/epeers/portfolio/internal/simulation"
	"github.com/gin-gonic/gin"
)

// BacktestHandler handles POST /backtests.
type BacktestHandler struct {
	orchestrator *simulation.BacktestOrchestrator
}

// NewBacktestHandler creates a BacktestHandler.
func NewBacktestHandler(orchestrator *simulation.BacktestOrchestrator) *BacktestHandler {
	return &BacktestHandler{orchestrator: orchestrator}
}

// Run handles POST /backtests
// @Summary Run a backtest
// @Description Runs a Buy-and-Hold, DCA, or VA backtest over a historical date range
// @Tags backtests
// @Accept json
// @Produce json
// @Param request body models.BacktestRequest true "Backtest request"
// @Success 200 {object} models.BacktestResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /backtests [post]
func (h *BacktestHandler) Run(c *gin.Context) {
	var req models.BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.orchestrator.RunBacktest(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, backtest.ErrOversell) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "engine_invariant_violation",
				Message: err.Error(),
			})
			return
		}
		if errors.Is(err, backtest.ErrCancelled) {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error:   "cancelled",
				Message: err.Error(),
			})
			return
		}
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
