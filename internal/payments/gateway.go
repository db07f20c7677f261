package payments

import (
	"context"
	"fmt"
	"strings"
)

// PaymentRequest is the gateway's answer to an initiation call.
type PaymentRequest struct {
	GatewayRef  string
	RedirectURL string
}

// CallbackResult is the gateway's verdict on a callback payload.
type CallbackResult struct {
	Success     bool
	GatewayRef  string
	AmountRials int64
}

// GatewayAdapter abstracts a payment provider. Implementations must be
// safe for concurrent use.
type GatewayAdapter interface {
	// Name identifies the provider, stored on every transaction it handles.
	Name() string

	// RequestPayment registers the payment with the provider and returns
	// the reference and the URL the payer should be redirected to.
	RequestPayment(ctx context.Context, amountRials int64, callbackURL, description, transactionID string) (PaymentRequest, error)

	// VerifyCallback validates a callback payload.
	VerifyCallback(ctx context.Context, data map[string]string) (CallbackResult, error)
}

// MockGateway is the development adapter. It accepts every initiation and
// verifies any callback whose ref carries the MOCK- prefix.
type MockGateway struct{}

func (MockGateway) Name() string { return "mock" }

func (MockGateway) RequestPayment(_ context.Context, _ int64, callbackURL, _, transactionID string) (PaymentRequest, error) {
	ref := "MOCK-" + transactionID
	return PaymentRequest{
		GatewayRef:  ref,
		RedirectURL: fmt.Sprintf("%s?status=ok&ref=%s&transaction_id=%s", callbackURL, ref, transactionID),
	}, nil
}

func (MockGateway) VerifyCallback(_ context.Context, data map[string]string) (CallbackResult, error) {
	ref := strings.TrimSpace(data["ref"])
	if ref == "" {
		ref = strings.TrimSpace(data["gateway_ref"])
	}
	if strings.HasPrefix(ref, "MOCK-") {
		return CallbackResult{Success: true, GatewayRef: ref}, nil
	}
	return CallbackResult{Success: false, GatewayRef: ref}, nil
}
