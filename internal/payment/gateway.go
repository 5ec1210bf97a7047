package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Skotchmaster/art_shop/pkg/config"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrMalformedEvent   = errors.New("malformed webhook event")
)

// SessionIDPlaceholder is substituted by the gateway with the real session id
// in the success URL.
const SessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

type EventKind int

const (
	EventOther EventKind = iota
	EventCheckoutCompleted
)

type Event struct {
	ID        string
	Type      string
	Kind      EventKind
	SessionID string
	// OrderRef is the order id the session was created for, if the gateway echoes it.
	OrderRef string
	Verified bool
}

type LineItem struct {
	ProductID   uuid.UUID
	Name        string
	Description string
	ImageURL    *string
	UnitAmount  int64
	Quantity    int64
}

type SessionRequest struct {
	OrderID    uuid.UUID
	UserID     uuid.UUID
	Currency   string
	Items      []LineItem
	Total      int64
	SuccessURL string
	CancelURL  string
}

type Session struct {
	ID  string
	URL *string
}

type Gateway interface {
	Name() string
	// SignatureHeader is the request header carrying the webhook signature, or
	// "" when the signature travels inside the payload.
	SignatureHeader() string
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
	SessionPaid(ctx context.Context, sessionID string) (bool, error)
}

func New(cfg config.Config) (Gateway, error) {
	switch strings.ToLower(cfg.PaymentProvider) {
	case "stripe":
		return NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret), nil
	case "midtrans":
		return NewMidtrans(cfg.MidtransServerKey, cfg.MidtransProduction), nil
	default:
		return nil, fmt.Errorf("unsupported payment provider %q", cfg.PaymentProvider)
	}
}
