// internal/services/payment_service.go
package services

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/refund"

	"github.com/kucukkal/dealer-backend/internal/config"
)

// PaymentService collects card deposits through Stripe while a sale is
// negotiated, and refunds them when a stalled negotiation is cleaned
// up. Without a configured key every call is a no-op, so deployments
// that take deposits at the counter run unchanged.
type PaymentService struct {
	cfg *config.Config
}

type DepositIntent struct {
	Ref          string `json:"ref"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

func NewPaymentService(cfg *config.Config) *PaymentService {
	// Initialize Stripe
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{cfg: cfg}
}

func (s *PaymentService) Enabled() bool {
	return s.cfg.Payment.StripeSecretKey != ""
}

// CreateDepositIntent opens a PaymentIntent for a card deposit. Returns
// nil without error when Stripe is not configured.
func (s *PaymentService) CreateDepositIntent(vin, saleID, username string, amount float64) (*DepositIntent, error) {
	if !s.Enabled() || amount <= 0 {
		return nil, nil
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount * 100)),
		Currency: stripe.String("usd"),
	}
	params.AddMetadata("vin_number", vin)
	params.AddMetadata("sale_id", saleID)
	params.AddMetadata("created_by", username)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create deposit intent: %w", err)
	}

	return &DepositIntent{
		Ref:          pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

// RefundDeposit returns a collected deposit in full. Called by the
// stalled-negotiation sweep before an abandoned sale is dropped.
func (s *PaymentService) RefundDeposit(paymentRef string) error {
	if !s.Enabled() || paymentRef == "" {
		return nil
	}

	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentRef),
		Reason:        stripe.String("requested_by_customer"),
	}
	if _, err := refund.New(params); err != nil {
		return fmt.Errorf("failed to refund deposit %s: %w", paymentRef, err)
	}

	logrus.WithField("payment_ref", paymentRef).Info("Deposit refunded")
	return nil
}
