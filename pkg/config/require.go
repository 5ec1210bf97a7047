package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustProvider checks the credentials that the selected payment provider needs.
func (c Config) MustProvider() {
	switch c.PaymentProvider {
	case "stripe":
		MustNonEmpty(c.StripeSecretKey, "STRIPE_SECRET_KEY")
	case "midtrans":
		MustNonEmpty(c.MidtransServerKey, "MIDTRANS_SERVER_KEY")
	default:
		log.Fatalf("unsupported PAYMENT_PROVIDER %q", c.PaymentProvider)
	}
}
