package payments

import (
	"fmt"

	"github.com/opunath26/idea-arena-server/config"
)

func NewProcessor(cfg config.Config) (Processor, error) {
	switch cfg.PaymentProvider {
	case "stripe":
		return NewStripe(cfg.StripeSecret), nil
	case "stub":
		return NewStub(cfg.SiteDomain), nil
	default:
		return nil, fmt.Errorf("unknown payment provider: %s", cfg.PaymentProvider)
	}
}
