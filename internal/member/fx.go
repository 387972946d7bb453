package member

import (
	"go.uber.org/fx"

	"github.com/sepelio/nucleo/internal/member/repository"
)

var Module = fx.Module("member",
	fx.Provide(repository.Provide),
)
