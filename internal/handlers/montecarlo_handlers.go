package handlers

import (
	"net/http"

	"github.com/epeers/portfolio/internal/models"
	"github.com/epeers/portfolio/internal/simulation"
	"github.com/gin-gonic/gin"
)

// MonteCarloHandler handles GET /monte-carlo.
type MonteCarloHandler struct {
	orchestrator *simulation.MonteCarloOrchestrator
}

// NewMonteCarloHandler creates a MonteCarloHandler.
func NewMonteCarloHandler(orchestrator *simulation.MonteCarloOrchestrator) *MonteCarloHandler {
	return &MonteCarloHandler{orchestrator: orchestrator}
}

// Run handles GET /monte-carlo
// @Summary Run a Monte Carlo DCA simulation
// @Description Forward-simulates a Dollar-Cost-Averaging strategy over synthetic monthly returns
// @Tags montecarlo
// @Produce json
// @Param ticker_id query int true "Asset id"
// @Param monthly_investment query number true "Monthly investment amount"
// @Param investment_months query int true "Investment horizon in months"
// @Param simulation_method query string true "Normal Distribution | Bootstrap | T-Student"
// @Success 200 {object} models.MonteCarloResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 500 {object} models.ErrorResponse
// @Router /monte-carlo [get]
func (h *MonteCarloHandler) Run(c *gin.Context) {
	var req models.MonteCarloRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	resp, err := h.orchestrator.RunMonteCarlo(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error:   "bad_request",
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, resp)
}
