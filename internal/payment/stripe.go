package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	stripeEventCompleted      = "checkout.session.completed"
	stripeEventAsyncSucceeded = "checkout.session.async_payment_succeeded"
)

type StripeGateway struct {
	sc            *client.API
	webhookSecret string
}

// NewStripe builds the gateway. With an empty webhookSecret events are parsed
// without verification and reported as unverified.
func NewStripe(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{
		sc:            client.New(secretKey, nil),
		webhookSecret: webhookSecret,
	}
}

func (g *StripeGateway) Name() string { return "stripe" }

func (g *StripeGateway) SignatureHeader() string { return "Stripe-Signature" }

func (g *StripeGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(req.SuccessURL),
		CancelURL:          stripe.String(req.CancelURL),
		ClientReferenceID:  stripe.String(req.OrderID.String()),
	}
	params.Context = ctx
	params.AddMetadata("orderId", req.OrderID.String())
	params.AddMetadata("userId", req.UserID.String())

	for _, it := range req.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(it.Name),
		}
		if it.Description != "" {
			product.Description = stripe.String(it.Description)
		}
		if it.ImageURL != nil {
			product.Images = stripe.StringSlice([]string{*it.ImageURL})
		}

		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(req.Currency),
				ProductData: product,
				UnitAmount:  stripe.Int64(it.UnitAmount),
			},
			Quantity: stripe.Int64(it.Quantity),
		})
	}

	s, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	out := &Session{ID: s.ID}
	if s.URL != "" {
		url := s.URL
		out.URL = &url
	}
	return out, nil
}

func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	var ev stripe.Event
	verified := false

	if g.webhookSecret == "" {
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
	} else {
		var err error
		ev, err = webhook.ConstructEventWithOptions(payload, signature, g.webhookSecret, webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		verified = true
	}

	out := &Event{ID: ev.ID, Type: string(ev.Type), Kind: EventOther, Verified: verified}

	switch ev.Type {
	case stripeEventCompleted, stripeEventAsyncSucceeded:
		if ev.Data == nil {
			return nil, fmt.Errorf("%w: event has no data", ErrMalformedEvent)
		}
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(ev.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrMalformedEvent, err)
		}
		if cs.ID == "" {
			return nil, fmt.Errorf("%w: checkout session without id", ErrMalformedEvent)
		}
		// card payments are paid on completion; delayed methods finish with the async event
		if ev.Type == stripeEventCompleted && cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
			return out, nil
		}
		out.Kind = EventCheckoutCompleted
		out.SessionID = cs.ID
		out.OrderRef = cs.ClientReferenceID
	}
	return out, nil
}

func (g *StripeGateway) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := g.sc.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return false, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired, nil
}
