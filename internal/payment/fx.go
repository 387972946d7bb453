package payment

import (
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/payment/repository"
	paymentservice "github.com/sepelio/nucleo/internal/payment/service"
)

var Module = fx.Module("payment.service",
	fx.Provide(
		repository.Provide,
		paymentservice.NewService,
	),
)
