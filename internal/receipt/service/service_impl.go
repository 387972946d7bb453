package service

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/sepelio/nucleo/internal/clock"
	"github.com/sepelio/nucleo/internal/receipt/domain"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	Renderer domain.Renderer
}

type service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	renderer domain.Renderer
}

// NewService constructs the receipt issuing Service.
func NewService(p Params) domain.Service {
	return &service{
		db:       p.DB,
		log:      p.Log.Named("receipt.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		renderer: p.Renderer,
	}
}

func (s *service) Issue(ctx context.Context, tx *gorm.DB, data domain.Data) (*domain.Receipt, error) {
	postedAt := data.PostedAt
	if postedAt.IsZero() {
		postedAt = s.clock.Now()
	}
	serial, err := s.repo.NextSerial(ctx, tx, domain.ReceiptSerialCounterKey(postedAt.Year()))
	if err != nil {
		return nil, fmt.Errorf("allocate receipt serial: %w", err)
	}
	data.SerialNumber = serial
	data.ReceiptID = s.genID.Generate()

	pdfURI, err := s.renderer.Render(ctx, data)
	if err != nil {
		s.log.Warn("receipt render failed, continuing without PDF", zap.Error(err), zap.Int64("payment_id", int64(data.PaymentID)))
		pdfURI = ""
	}

	r := &domain.Receipt{
		ID:           data.ReceiptID,
		PaymentID:    data.PaymentID,
		SerialNumber: serial,
		QRPayload:    data.QRPayload,
		PDFURI:       pdfURI,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, tx, r); err != nil {
		return nil, fmt.Errorf("persist receipt: %w", err)
	}
	return r, nil
}

func (s *service) FindByPaymentID(ctx context.Context, paymentID snowflake.ID) (*domain.Receipt, error) {
	return s.repo.FindByPaymentID(ctx, s.db, paymentID)
}
