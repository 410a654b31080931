package providers

import (
	"github.com/smallbiznis/invoicekit/internal/providers/email"
	"github.com/smallbiznis/invoicekit/internal/providers/pdf"
	"github.com/smallbiznis/invoicekit/internal/providers/storage"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
	storage.Module,
)
