package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

// currencyTotals is one currency's aggregate row in ListLedgerEntries'
// per-currency totals (spec §6).
type currencyTotals struct {
	Currency string          `json:"currency"`
	Debits   decimal.Decimal `json:"debits"`
	Credits  decimal.Decimal `json:"credits"`
	Net      decimal.Decimal `json:"net"`
	Lines    int             `json:"lines"`
}

// ListLedgerEntries handles GET /api/ledger/entries (spec §6): an
// admin-visible ledger tail, filterable, with per-currency totals.
func (s *Server) ListLedgerEntries(c *gin.Context) {
	filter := ledgerdomain.ListFilter{
		AccountCode: account.Code(c.Query("account_code")),
		Currency:    c.Query("currency"),
		Kind:        ledgerdomain.Kind(c.Query("kind")),
	}

	if raw := c.Query("owner_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.OwnerUserID = &id
	}
	if raw := c.Query("agent_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.AgentID = &id
	}
	if raw := c.Query("member_group_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.MemberGroupID = &id
	}
	if from := c.Query("date_from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Window.From = &t
	}
	if to := c.Query("date_to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		filter.Window.To = &t
	}

	page := ledgerdomain.Page{Limit: 50}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		page.Limit = limit
	}
	if offset, err := strconv.Atoi(c.DefaultQuery("offset", "0")); err == nil {
		page.Offset = offset
	}

	entries, err := s.ledgerSvc.List(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	byCurrency := make(map[string]*currencyTotals, 2)
	order := make([]string, 0, 2)
	for _, e := range entries {
		t, ok := byCurrency[e.Currency]
		if !ok {
			t = &currencyTotals{Currency: e.Currency, Debits: decimal.Zero, Credits: decimal.Zero}
			byCurrency[e.Currency] = t
			order = append(order, e.Currency)
		}
		switch e.Side {
		case ledgerdomain.SideDebit:
			t.Debits = t.Debits.Add(e.Amount)
		case ledgerdomain.SideCredit:
			t.Credits = t.Credits.Add(e.Amount)
		}
		t.Lines++
	}

	totals := make([]currencyTotals, 0, len(order))
	for _, cur := range order {
		t := byCurrency[cur]
		t.Net = t.Debits.Sub(t.Credits)
		totals = append(totals, *t)
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries, "totals": totals})
}
