package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/debt"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
)

// paymentSortWhitelist is spec §6's `GET /payments` sort whitelist; any
// other requested column is rejected rather than interpolated into SQL.
var paymentSortWhitelist = map[string]bool{
	"posted_at":  true,
	"created_at": true,
	"amount":     true,
	"group_id":   true,
	"method":     true,
	"status":     true,
}

type breakdownItemDTO struct {
	Period string `json:"period" binding:"required"`
	Amount string `json:"amount" binding:"required"`
}

type postPaymentRequest struct {
	MemberID       string             `json:"member_id" binding:"required"`
	Amount         *string            `json:"amount"`
	Method         string             `json:"method" binding:"required"`
	Notes          string             `json:"notes"`
	IdempotencyKey string             `json:"idempotency_key" binding:"required"`
	Channel        string             `json:"channel"`
	IntendedPeriod string             `json:"intended_period"`
	ExternalRef    string             `json:"external_ref"`
	Strategy       string             `json:"strategy"`
	Breakdown      []breakdownItemDTO `json:"breakdown"`
	Currency       string             `json:"currency"`
}

// PostPayment handles POST /api/payments (spec §4.7 PaymentPoster).
func (s *Server) PostPayment(c *gin.Context) {
	var body postPaymentRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	memberID, err := snowflake.ParseString(body.MemberID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := paymentdomain.PostRequest{
		MemberID:          memberID,
		Method:            paymentdomain.Method(body.Method),
		Notes:             body.Notes,
		IdempotencyKey:    body.IdempotencyKey,
		Channel:           body.Channel,
		IntendedPeriod:    body.IntendedPeriod,
		ExternalRef:       body.ExternalRef,
		Strategy:          paymentdomain.Strategy(body.Strategy),
		Currency:          body.Currency,
		ActorUserID:       actorUserID(c),
		ActorAgentID:      actorUserID(c),
		MemberDisplayName: c.GetHeader("X-Member-Display-Name"),
	}

	if body.Amount != nil {
		amt, err := decimal.NewFromString(*body.Amount)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Amount = &amt
	}

	for _, b := range body.Breakdown {
		amt, err := decimal.NewFromString(b.Amount)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Breakdown = append(req.Breakdown, paymentdomain.BreakdownItem{
			Period: period.Period(b.Period),
			Amount: amt,
		})
	}

	result, err := s.poster.Post(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// ListPayments handles GET /api/payments (spec §6): the calling agent's
// own payments, filterable by date/client/method/status/free-text and
// sortable per the whitelisted columns.
func (s *Server) ListPayments(c *gin.Context) {
	filter := paymentdomain.ListFilter{
		Status: paymentdomain.Status(c.Query("status")),
		Method: paymentdomain.Method(c.Query("method")),
		Query:  c.Query("q"),
	}

	if sortColumn := c.Query("sort"); sortColumn != "" {
		if !paymentSortWhitelist[sortColumn] {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.SortColumn = sortColumn
	}
	if c.Query("order") == "desc" {
		filter.SortDesc = true
	}

	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.DateFrom = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.DateTo = &t
	}

	page := paymentdomain.Page{}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "100")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		page.Offset = offset
	}

	payments, err := s.poster.List(c.Request.Context(), actorUserID(c), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// GetMemberDebt handles GET /api/members/:memberId/debt (spec §4.5).
func (s *Server) GetMemberDebt(c *gin.Context) {
	memberID, err := snowflake.ParseString(c.Param("memberId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	window := debt.Window{}
	if from := c.Query("from"); from != "" {
		p := period.Period(from)
		window.From = &p
	}
	if to := c.Query("to"); to != "" {
		p := period.Period(to)
		window.To = &p
	}

	state, err := s.debtSvc.PeriodState(c.Request.Context(), memberID, window)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetPaymentReceipt handles GET /api/payments/:paymentId/receipt.
func (s *Server) GetPaymentReceipt(c *gin.Context) {
	paymentID, err := snowflake.ParseString(c.Param("paymentId"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	receipt, err := s.receiptSvc.FindByPaymentID(c.Request.Context(), paymentID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}
