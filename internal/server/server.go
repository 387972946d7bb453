// Package server exposes the cooperative's core operations over HTTP:
// payment posting, debt/period-state reads, cash-box movements,
// commission calculation and accounting queries. Routing, middleware and
// error-mapping follow the teacher's internal/server conventions
// (gin.Engine + fx.Lifecycle-managed http.Server + a single mapError
// dispatch table), generalized to this domain's services.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	accountingdomain "github.com/sepelio/nucleo/internal/accounting"
	cashmovementsdomain "github.com/sepelio/nucleo/internal/cashmovements"
	commissiondomain "github.com/sepelio/nucleo/internal/commission"
	"github.com/sepelio/nucleo/internal/config"
	"github.com/sepelio/nucleo/internal/debt"
	ledgerdomain "github.com/sepelio/nucleo/internal/ledger/domain"
	memberdomain "github.com/sepelio/nucleo/internal/member/domain"
	"github.com/sepelio/nucleo/internal/observability"
	obsmiddleware "github.com/sepelio/nucleo/internal/observability/logger"
	obsmetrics "github.com/sepelio/nucleo/internal/observability/metrics"
	obstracing "github.com/sepelio/nucleo/internal/observability/tracing"
	paymentdomain "github.com/sepelio/nucleo/internal/payment/domain"
	receiptdomain "github.com/sepelio/nucleo/internal/receipt/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine) {
	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

// Server wires the core cooperative operations onto gin routes.
type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB

	memberRepo memberdomain.Repository
	poster     paymentdomain.Poster
	receiptSvc receiptdomain.Service
	debtSvc    debt.Service
	cashSvc    cashmovementsdomain.Service
	commSvc    commissiondomain.Service
	acctSvc    accountingdomain.Service
	ledgerSvc  ledgerdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	MemberRepo memberdomain.Repository
	Poster     paymentdomain.Poster
	ReceiptSvc receiptdomain.Service
	DebtSvc    debt.Service
	CashSvc    cashmovementsdomain.Service
	CommSvc    commissiondomain.Service
	AcctSvc    accountingdomain.Service
	LedgerSvc  ledgerdomain.Service
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		memberRepo: p.MemberRepo,
		poster:     p.Poster,
		receiptSvc: p.ReceiptSvc,
		debtSvc:    p.DebtSvc,
		cashSvc:    p.CashSvc,
		commSvc:    p.CommSvc,
		acctSvc:    p.AcctSvc,
		ledgerSvc:  p.LedgerSvc,
	}

	s.registerRoutes()
	return s
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api", s.AuthRequired())

	members := api.Group("/members/:memberId")
	members.GET("/debt", s.GetMemberDebt)

	payments := api.Group("/payments")
	payments.POST("", s.PostPayment)
	payments.GET("", s.ListPayments)
	payments.GET("/:paymentId/receipt", s.GetPaymentReceipt)

	cash := api.Group("/cash-movements", s.RequireRole(roleAdmin, roleSuperAdmin))
	cash.POST("/arqueo", s.PostArqueo)
	cash.POST("/petty-deposit", s.PostPettyDeposit)
	cash.POST("/vault-ingress", s.RequireRole(roleSuperAdmin), s.PostVaultIngress)
	cash.POST("/vault-egress", s.RequireRole(roleSuperAdmin), s.PostVaultEgress)
	cash.POST("/commission-payout", s.PostCommissionPayout)

	commission := api.Group("/commission")
	commission.GET("/:agentUserId", s.GetCommission)

	accounting := api.Group("/accounting", s.RequireRole(roleAdmin, roleSuperAdmin))
	accounting.GET("/boxes", s.ListBoxes)
	accounting.GET("/boxes/:accountCode/movements", s.GetBoxMovements)

	ledger := api.Group("/ledger", s.RequireRole(roleAdmin, roleSuperAdmin))
	ledger.GET("/entries", s.ListLedgerEntries)
}
