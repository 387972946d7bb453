package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
	cashmovementsdomain "github.com/sepelio/nucleo/internal/cashmovements"
)

type arqueoRequestDTO struct {
	AgentUserID        int64    `json:"agent_user_id" binding:"required"`
	Accounts           []string `json:"accounts"`
	Currency           string   `json:"currency" binding:"required"`
	DestinationAccount string   `json:"destination_account"`
	MinAmount          string   `json:"min_amount"`
}

// PostArqueo handles POST /api/cash-movements/arqueo (spec §4.8).
func (s *Server) PostArqueo(c *gin.Context) {
	var body arqueoRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := cashmovementsdomain.ArqueoRequest{
		AgentUserID:        body.AgentUserID,
		Currency:           body.Currency,
		DestinationAccount: account.Code(body.DestinationAccount),
		ExecutingAdminID:   actorUserID(c),
	}
	for _, a := range body.Accounts {
		req.Accounts = append(req.Accounts, account.Code(a))
	}
	if body.MinAmount != "" {
		amt, err := decimal.NewFromString(body.MinAmount)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.MinAmount = amt
	}

	pairs, err := s.cashSvc.Arqueo(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

type pettyDepositRequestDTO struct {
	AdminUserID int64  `json:"admin_user_id" binding:"required"`
	Currency    string `json:"currency" binding:"required"`
}

// PostPettyDeposit handles POST /api/cash-movements/petty-deposit.
func (s *Server) PostPettyDeposit(c *gin.Context) {
	var body pettyDepositRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	role, _ := actorRole(c)
	pair, err := s.cashSvc.PettyDeposit(c.Request.Context(), cashmovementsdomain.PettyDepositRequest{
		AdminUserID:       body.AdminUserID,
		Currency:          body.Currency,
		ActorUserID:       actorUserID(c),
		ActorIsSuperAdmin: role == roleSuperAdmin,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type vaultIngressRequestDTO struct {
	Currency string `json:"currency" binding:"required"`
	Amount   string `json:"amount"`
	MoveAll  bool   `json:"move_all"`
}

// PostVaultIngress handles POST /api/cash-movements/vault-ingress.
func (s *Server) PostVaultIngress(c *gin.Context) {
	var body vaultIngressRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	req := cashmovementsdomain.VaultIngressRequest{
		SuperAdminUserID: actorUserID(c),
		Currency:         body.Currency,
		MoveAll:          body.MoveAll,
	}
	if body.Amount != "" {
		amt, err := decimal.NewFromString(body.Amount)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		req.Amount = amt
	}

	pairs, err := s.cashSvc.VaultIngress(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"pairs": pairs})
}

type vaultEgressRequestDTO struct {
	Currency string `json:"currency" binding:"required"`
	Amount   string `json:"amount" binding:"required"`
}

// PostVaultEgress handles POST /api/cash-movements/vault-egress.
func (s *Server) PostVaultEgress(c *gin.Context) {
	var body vaultEgressRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	amt, err := decimal.NewFromString(body.Amount)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pair, err := s.cashSvc.VaultEgress(c.Request.Context(), cashmovementsdomain.VaultEgressRequest{
		SuperAdminUserID: actorUserID(c),
		Currency:         body.Currency,
		Amount:           amt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type commissionPayoutRequestDTO struct {
	AgentUserID   int64  `json:"agent_user_id" binding:"required"`
	Period        string `json:"period" binding:"required"`
	SourceAccount string `json:"source_account" binding:"required"`
	Currency      string `json:"currency" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
}

// PostCommissionPayout handles POST /api/cash-movements/commission-payout.
func (s *Server) PostCommissionPayout(c *gin.Context) {
	var body commissionPayoutRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	amt, err := decimal.NewFromString(body.Amount)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	pair, err := s.cashSvc.CommissionPayout(c.Request.Context(), cashmovementsdomain.CommissionPayoutRequest{
		AgentUserID:   body.AgentUserID,
		Period:        body.Period,
		SourceAccount: account.Code(body.SourceAccount),
		Currency:      body.Currency,
		Amount:        amt,
		ActorUserID:   actorUserID(c),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}
