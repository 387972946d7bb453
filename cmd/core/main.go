// Command core is the single entrypoint for the cooperative's ledger and
// collections service: HTTP API, Postgres-backed ledger/payment/member
// storage, and the posting pipeline (debt -> payment -> ledger -> receipt).
// It supersedes the teacher's per-surface apps/* binaries, which wired a
// multi-tenant SaaS billing platform this domain does not have.
package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/accounting"
	"github.com/sepelio/nucleo/internal/audit"
	"github.com/sepelio/nucleo/internal/cashmovements"
	"github.com/sepelio/nucleo/internal/clock"
	"github.com/sepelio/nucleo/internal/commission"
	"github.com/sepelio/nucleo/internal/config"
	"github.com/sepelio/nucleo/internal/debt"
	"github.com/sepelio/nucleo/internal/events"
	"github.com/sepelio/nucleo/internal/ledger"
	"github.com/sepelio/nucleo/internal/member"
	"github.com/sepelio/nucleo/internal/migration"
	"github.com/sepelio/nucleo/internal/observability"
	"github.com/sepelio/nucleo/internal/payment"
	"github.com/sepelio/nucleo/internal/pdfreceipt"
	"github.com/sepelio/nucleo/internal/period"
	"github.com/sepelio/nucleo/internal/pricing"
	"github.com/sepelio/nucleo/internal/ratelimit"
	"github.com/sepelio/nucleo/internal/receipt"
	"github.com/sepelio/nucleo/internal/server"
	"github.com/sepelio/nucleo/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		clock.Module,
		fx.Provide(config.NewCollectionsConfigHolder),
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		db.Module,
		period.Module,

		member.Module,
		ledger.Module,
		pricing.Module,
		debt.Module,
		audit.Module,
		events.Module,
		pdfreceipt.Module,
		receipt.Module,
		payment.Module,
		ratelimit.Module,
		cashmovements.Module,
		commission.Module,
		accounting.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}
