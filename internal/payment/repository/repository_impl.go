// Package repository implements the Payment/Allocation storage port with
// raw parameterized SQL, following the teacher's repository_impl.go
// convention (internal/ledger/repository, internal/subscription/repository).
package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	"github.com/sepelio/nucleo/internal/period"
)

type repo struct{}

// Provide returns the gorm-backed paymentdomain.Repository.
func Provide() paymentdomain.Repository {
	return &repo{}
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	err := db.WithContext(ctx).Where("idempotency_key = ?", key).First(&p).Error
	if err != nil {
		if gorm.ErrRecordNotFound == err {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) error {
	return tx.WithContext(ctx).Exec(
		`INSERT INTO payments (
			id, kind, status, member_id, group_id, agent_id, agent_user_id, amount,
			currency, method, channel, notes, idempotency_key, external_ref, meta,
			created_at, posted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		string(payment.Kind),
		string(payment.Status),
		payment.MemberID,
		payment.GroupID,
		payment.AgentID,
		payment.AgentUserID,
		payment.Amount,
		payment.Currency,
		string(payment.Method),
		payment.Channel,
		payment.Notes,
		payment.IdempotencyKey,
		payment.ExternalRef,
		payment.Meta,
		payment.CreatedAt,
		payment.PostedAt,
	).Error
}

func (r *repo) MarkPosted(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID, postedAt time.Time) error {
	return tx.WithContext(ctx).Exec(
		`UPDATE payments SET status = ?, posted_at = ? WHERE id = ?`,
		string(paymentdomain.StatusPosted),
		postedAt.UTC(),
		paymentID,
	).Error
}

func (r *repo) InsertAllocations(ctx context.Context, tx *gorm.DB, allocations []paymentdomain.Allocation) error {
	for _, a := range allocations {
		if err := tx.WithContext(ctx).Exec(
			`INSERT INTO allocations (id, payment_id, member_id, period, amount_applied, status_after, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID,
			a.PaymentID,
			a.MemberID,
			string(a.Period),
			a.AmountApplied,
			string(a.StatusAfter),
			a.CreatedAt,
		).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) PaidByPeriod(ctx context.Context, db *gorm.DB, memberID snowflake.ID) ([]paymentdomain.PeriodPaid, error) {
	type row struct {
		Period string
		Paid   decimal.Decimal
	}
	var rows []row
	if err := db.WithContext(ctx).
		Table("allocations a").
		Select("a.period, COALESCE(SUM(a.amount_applied), 0) AS paid").
		Joins("JOIN payments p ON p.id = a.payment_id").
		Where("a.member_id = ? AND p.status IN ?", memberID, []string{string(paymentdomain.StatusPosted), string(paymentdomain.StatusSettled)}).
		Group("a.period").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]paymentdomain.PeriodPaid, 0, len(rows))
	for _, rr := range rows {
		out = append(out, paymentdomain.PeriodPaid{Period: period.Period(rr.Period), Paid: rr.Paid})
	}
	return out, nil
}

func (r *repo) PaidForPeriod(ctx context.Context, tx *gorm.DB, memberID snowflake.ID, p period.Period) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := tx.WithContext(ctx).
		Table("allocations a").
		Select("COALESCE(SUM(a.amount_applied), 0)").
		Joins("JOIN payments pm ON pm.id = a.payment_id").
		Where("a.member_id = ? AND a.period = ? AND pm.status IN ?", memberID, string(p), []string{string(paymentdomain.StatusPosted), string(paymentdomain.StatusSettled)}).
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *repo) ListByAgent(ctx context.Context, db *gorm.DB, agentUserID int64, filter paymentdomain.ListFilter, page paymentdomain.Page) ([]paymentdomain.Payment, error) {
	q := db.WithContext(ctx).Where("agent_user_id = ?", agentUserID)

	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.Method != "" {
		q = q.Where("method = ?", string(filter.Method))
	}
	if query := strings.TrimSpace(filter.Query); query != "" {
		like := "%" + query + "%"
		q = q.Where("external_ref ILIKE ? OR notes ILIKE ?", like, like)
	}
	if filter.DateFrom != nil {
		q = q.Where("posted_at >= ?", filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		q = q.Where("posted_at <= ?", filter.DateTo.UTC())
	}

	sortColumn := filter.SortColumn
	if sortColumn == "" {
		sortColumn = "posted_at"
	}
	dir := "ASC"
	if filter.SortDesc {
		dir = "DESC"
	}
	q = q.Order(sortColumn + " " + dir)

	limit := page.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	offset := page.Offset
	if offset < 0 {
		offset = 0
	}

	var payments []paymentdomain.Payment
	if err := q.Limit(limit).Offset(offset).Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*paymentdomain.Payment, error) {
	var p paymentdomain.Payment
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindAllocationsByPaymentID(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]paymentdomain.Allocation, error) {
	var allocations []paymentdomain.Allocation
	if err := db.WithContext(ctx).Where("payment_id = ?", paymentID).Order("period ASC").Find(&allocations).Error; err != nil {
		return nil, err
	}
	return allocations, nil
}

func (r *repo) AllocationsForAgentPeriod(ctx context.Context, db *gorm.DB, agentUserID int64, reportingPeriod period.Period) ([]paymentdomain.AgentAllocation, error) {
	type row struct {
		AmountApplied decimal.Decimal
		PostedAt      time.Time
	}
	var rows []row
	if err := db.WithContext(ctx).
		Table("allocations a").
		Select("a.amount_applied, p.posted_at").
		Joins("JOIN payments p ON p.id = a.payment_id").
		Where("p.agent_user_id = ? AND a.period = ? AND p.status IN ?", agentUserID, string(reportingPeriod), []string{string(paymentdomain.StatusPosted), string(paymentdomain.StatusSettled)}).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]paymentdomain.AgentAllocation, 0, len(rows))
	for _, rr := range rows {
		out = append(out, paymentdomain.AgentAllocation{AmountApplied: rr.AmountApplied, PostedAt: rr.PostedAt})
	}
	return out, nil
}
