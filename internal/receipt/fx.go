package receipt

import (
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/receipt/repository"
	"github.com/sepelio/nucleo/internal/receipt/service"
)

var Module = fx.Module("receipt",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
