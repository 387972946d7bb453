package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	accountingdomain "github.com/sepelio/nucleo/internal/accounting"
	"github.com/sepelio/nucleo/internal/account"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
)

// ListBoxes handles GET /api/accounting/boxes (spec §4.10).
func (s *Server) ListBoxes(c *gin.Context) {
	role, _ := actorRole(c)
	boxes, err := s.acctSvc.ListBoxesByUser(c.Request.Context(), role, accountingdomain.BoxFilter{
		Currency: c.DefaultQuery("currency", "ARS"),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boxes": boxes})
}

// GetBoxMovements handles GET /api/accounting/boxes/:accountCode/movements.
func (s *Server) GetBoxMovements(c *gin.Context) {
	role, _ := actorRole(c)

	var ownerUserID *int64
	if raw := c.Query("owner_user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		ownerUserID = &id
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	detail, err := s.acctSvc.MovementDetail(c.Request.Context(), role, ownerUserID, account.Code(c.Param("accountCode")),
		accountingdomain.MovementFilter{Currency: c.DefaultQuery("currency", "ARS")},
		ledgerdomain.Page{Offset: offset, Limit: limit},
	)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}
