package billing

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"
)

// CustomerCreator is the slice of billing the user service needs.
type CustomerCreator interface {
	CreateCustomer(ctx context.Context, userID, email string) (string, error)
}

type Billing struct {
	sc            *stripe.Client
	webhookSecret string
}

func NewBilling(secretKey, webhookSecret string) *Billing {
	return &Billing{
		sc:            stripe.NewClient(secretKey),
		webhookSecret: webhookSecret,
	}
}

func (b *Billing) CreateCustomer(ctx context.Context, userID, email string) (string, error) {
	params := &stripe.CustomerCreateParams{
		Email:    stripe.String(email),
		Metadata: map[string]string{"user_id": userID},
	}
	customer, err := b.sc.V1Customers.Create(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to create customer: %w", err)
	}
	return customer.ID, nil
}

// CreateCheckoutSession starts a one-time payment for a credit pack.
// The pack id rides along in the session metadata so the webhook can
// credit the right amount.
func (b *Billing) CreateCheckoutSession(ctx context.Context, customerID string, pack *CreditPack, successURL, cancelURL string) (*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionCreateParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: []*string{stripe.String("card")},
		LineItems: []*stripe.CheckoutSessionCreateLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: stripe.String(string(stripe.CurrencyUSD)),
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s Credit Pack", pack.DisplayName)),
						Description: stripe.String(fmt.Sprintf("%d story credits", pack.Credits)),
					},
					UnitAmount: stripe.Int64(pack.PriceCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(successURL),
		CancelURL:  stripe.String(cancelURL),
		Metadata: map[string]string{
			"type":    "credit_purchase",
			"pack_id": pack.ID,
		},
	}
	return b.sc.V1CheckoutSessions.Create(ctx, params)
}

func (b *Billing) VerifyWebhookSignature(payload []byte, signature string) (*stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, b.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("webhook signature verification failed: %w", err)
	}
	return &event, nil
}
