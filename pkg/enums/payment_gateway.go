package enums

import (
	"fmt"
	"strings"
)

// PaymentGateway identifies how a top-up payment is collected.
type PaymentGateway string

const (
	PaymentGatewayManual      PaymentGateway = "manual"
	PaymentGatewayPaystack    PaymentGateway = "paystack"
	PaymentGatewayFlutterwave PaymentGateway = "flutterwave"
	PaymentGatewayPaypal      PaymentGateway = "paypal"
)

var validPaymentGateways = []PaymentGateway{
	PaymentGatewayManual,
	PaymentGatewayPaystack,
	PaymentGatewayFlutterwave,
	PaymentGatewayPaypal,
}

// String implements fmt.Stringer.
func (g PaymentGateway) String() string {
	return string(g)
}

// IsValid reports whether the value is a known PaymentGateway.
func (g PaymentGateway) IsValid() bool {
	for _, candidate := range validPaymentGateways {
		if candidate == g {
			return true
		}
	}
	return false
}

// IsAutomatic reports whether the gateway settles without an admin review.
func (g PaymentGateway) IsAutomatic() bool {
	return g.IsValid() && g != PaymentGatewayManual
}

// ParsePaymentGateway converts raw input into a PaymentGateway.
// Matching is case-insensitive since gateway names arrive from clients.
func ParsePaymentGateway(value string) (PaymentGateway, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validPaymentGateways {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment gateway %q", value)
}
