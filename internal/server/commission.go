package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/commission"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/pkg/money"
)

// GetCommission handles GET /api/commission/:agentUserId (spec §4.9).
// Query params: period=YYYY-MM, currency, base_rate, grace_days,
// penalty_per_day (rate fields accept either fraction or percentage form,
// normalized via pkg/money.NormalizeRate).
func (s *Server) GetCommission(c *gin.Context) {
	agentUserID, err := strconv.ParseInt(c.Param("agentUserId"), 10, 64)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	reportingPeriod := period.Period(c.Query("period"))
	currency := c.DefaultQuery("currency", "ARS")

	cfg, err := parseAgentConfig(c)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	report, err := s.commSvc.Calculate(c.Request.Context(), agentUserID, reportingPeriod, cfg, currency)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func parseAgentConfig(c *gin.Context) (commission.AgentConfig, error) {
	rawBaseRate, err := decimal.NewFromString(c.DefaultQuery("base_rate", "0.05"))
	if err != nil {
		return commission.AgentConfig{}, err
	}
	rawPenalty, err := decimal.NewFromString(c.DefaultQuery("penalty_per_day", "0.1"))
	if err != nil {
		return commission.AgentConfig{}, err
	}
	graceDays, err := strconv.Atoi(c.DefaultQuery("grace_days", "7"))
	if err != nil {
		return commission.AgentConfig{}, err
	}

	return commission.AgentConfig{
		BaseRate:      money.NormalizeRate(rawBaseRate),
		GraceDays:     graceDays,
		PenaltyPerDay: money.NormalizeRate(rawPenalty),
	}, nil
}
