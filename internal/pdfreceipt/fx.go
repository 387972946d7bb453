package pdfreceipt

import "go.uber.org/fx"

var Module = fx.Module("pdfreceipt",
	fx.Provide(NewRenderer),
)
