package payments

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"
	checkoutsession "github.com/stripe/stripe-go/v84/checkout/session"

	pkgerrors "github.com/gatepasshq/gatepass-backend/pkg/errors"
	pkgstripe "github.com/gatepasshq/gatepass-backend/pkg/stripe"
)

// CreateSessionInput describes one hosted checkout for a single ticket.
type CreateSessionInput struct {
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	LineItemName  string
	UnitAmount    decimal.Decimal
	Currency      string
	Metadata      SessionMetadata
}

// Session is the gateway-agnostic view of a hosted checkout session.
type Session struct {
	ID               string
	URL              string
	Paid             bool
	PaymentReference string
	AmountTotalCents int64
	Metadata         map[string]string
}

// Gateway is the hosted-checkout collaborator. It creates sessions at
// registration time and resolves them for the client-side verifier.
type Gateway interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error)
	RetrieveSession(ctx context.Context, id string) (*Session, error)
}

type stripeGateway struct{}

// NewStripeGateway wraps the initialized Stripe client behind the Gateway
// interface so services can be tested against stubs.
func NewStripeGateway(api *pkgstripe.Client) Gateway {
	if api == nil {
		return nil
	}
	return &stripeGateway{}
}

// CentsFromDecimal converts a decimal monetary amount into provider cents.
func CentsFromDecimal(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func (g *stripeGateway) CreateSession(ctx context.Context, input CreateSessionInput) (*Session, error) {
	currency := input.Currency
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(input.SuccessURL),
		CancelURL:          stripe.String(input.CancelURL),
		CustomerEmail:      stripe.String(input.CustomerEmail),
		ClientReferenceID:  stripe.String(input.Metadata.ExternalUserID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(input.LineItemName),
					},
					UnitAmount: stripe.Int64(CentsFromDecimal(input.UnitAmount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	params.Context = ctx
	for key, value := range input.Metadata.Encode() {
		params.AddMetadata(key, value)
	}

	created, err := checkoutsession.New(params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	if created.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "checkout session has no redirect url")
	}
	return fromStripeSession(created), nil
}

func (g *stripeGateway) RetrieveSession(ctx context.Context, id string) (*Session, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	found, err := checkoutsession.Get(id, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "retrieve checkout session")
	}
	return fromStripeSession(found), nil
}

func fromStripeSession(s *stripe.CheckoutSession) *Session {
	out := &Session{
		ID:               s.ID,
		URL:              s.URL,
		Paid:             s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotalCents: s.AmountTotal,
		Metadata:         s.Metadata,
	}
	if s.PaymentIntent != nil {
		out.PaymentReference = s.PaymentIntent.ID
	}
	return out
}
