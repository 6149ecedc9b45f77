package pdf

import (
	"context"
	"io"

	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateOrderReceipt(ctx context.Context, data ReceiptData) (io.Reader, error)
}

type PDFProvider struct {
	logoPath string
}

func New() Provider {
	return &PDFProvider{}
}

// NewWithLogo renders logoPath in the receipt header.
func NewWithLogo(logoPath string) Provider {
	return &PDFProvider{logoPath: logoPath}
}
