// Package billing creates payment-provider checkout sessions for metered usage.
package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
)

// CheckoutClient creates a checkout session for an amount in minor units
// and returns the provider's session identifier.
type CheckoutClient interface {
	CreateCheckoutSession(ctx context.Context, amountCents int64) (string, error)
}

// StripeCheckout implements CheckoutClient against the Stripe API.
type StripeCheckout struct {
	api        *client.API
	successURL string
	cancelURL  string
}

// NewStripeCheckout creates a Stripe-backed checkout client.
func NewStripeCheckout(apiKey, successURL, cancelURL string) (*StripeCheckout, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API key is required")
	}

	api := &client.API{}
	api.Init(apiKey, nil)

	return &StripeCheckout{
		api:        api,
		successURL: successURL,
		cancelURL:  cancelURL,
	}, nil
}

// CreateCheckoutSession opens a one-off card payment session covering the
// user's accumulated token and image usage.
func (s *StripeCheckout) CreateCheckoutSession(ctx context.Context, amountCents int64) (string, error) {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("Tokens & Images"),
					},
					UnitAmount: stripe.Int64(amountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(s.successURL),
		CancelURL:  stripe.String(s.cancelURL),
	}
	params.Context = ctx

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}

	return session.ID, nil
}
