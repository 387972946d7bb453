package audit

import (
	"github.com/sepelio/nucleo/internal/audit/repository"
	"github.com/sepelio/nucleo/internal/audit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("audit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
