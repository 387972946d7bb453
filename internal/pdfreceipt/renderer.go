// Package pdfreceipt is the default domain.Renderer: it lays out a receipt
// document with maroto, adapted from the teacher's
// internal/providers/pdf/receipt.go (InvoiceData/ReceiptData row layout)
// down to the cooperative's single-page cash receipt, and writes the
// result under a configured directory.
package pdfreceipt

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sepelio/nucleo/internal/receipt/domain"
)

// Config points the renderer at a writable directory. Empty Dir disables
// persistence: Render then returns "" and Issue proceeds without a PDF,
// since a receipt row without an artifact is still valid (QR/serial are
// the durable proof, per spec §4.7).
type Config struct {
	Dir string
}

type Params struct {
	fx.In

	Log    *zap.Logger
	Config Config `optional:"true"`
}

type renderer struct {
	log *zap.Logger
	dir string
}

// NewRenderer constructs the maroto-backed domain.Renderer.
func NewRenderer(p Params) domain.Renderer {
	return &renderer{log: p.Log.Named("pdfreceipt"), dir: p.Config.Dir}
}

func (r *renderer) Render(ctx context.Context, data domain.Data) (string, error) {
	if r.dir == "" {
		return "", nil
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{Pattern: "Page {current} of {total}", Place: props.RightBottom}).
		Build()
	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, "Recibo de pago", props.Text{Size: 18, Style: fontstyle.Bold, Align: align.Left}),
		text.NewCol(4, fmt.Sprintf("N° %08d", data.SerialNumber), props.Text{Size: 12, Align: align.Right}),
	)

	m.AddRow(25,
		col.New(6).Add(
			text.New("Socio: "+data.MemberName, props.Text{Top: 0}),
			text.New(fmt.Sprintf("Grupo: %d", data.GroupID), props.Text{Top: 5}),
			text.New("Fecha: "+data.PostedAt.Format("2006-01-02 15:04"), props.Text{Top: 10}),
		),
		col.New(6).Add(
			text.New("Método: "+data.Method, props.Text{Top: 0}),
			text.New("Períodos: "+strings.Join(data.Periods, ", "), props.Text{Top: 5}),
		),
	)

	m.AddRow(15,
		text.NewCol(12, fmt.Sprintf("%s %s pagado", data.Amount, data.Currency), props.Text{
			Size: 14, Style: fontstyle.Bold, Top: 5,
		}),
	)

	if data.QRPayload != "" {
		m.AddRow(10, text.NewCol(12, data.QRPayload, props.Text{Size: 7}))
	}

	doc, err := m.Generate()
	if err != nil {
		return "", fmt.Errorf("render receipt pdf: %w", err)
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%d.pdf", data.ReceiptID))
	if err := os.WriteFile(path, doc.GetBytes(), 0o644); err != nil {
		return "", fmt.Errorf("write receipt pdf: %w", err)
	}
	return "file://" + path, nil
}
