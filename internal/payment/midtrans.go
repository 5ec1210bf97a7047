package payment

import (
	"context"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
	"github.com/midtrans/midtrans-go/snap"
)

const midtransNameLimit = 50

// MidtransGateway uses Snap for checkout and the Core API for status checks.
// The order id doubles as the Midtrans transaction id, so it is also the
// session id.
type MidtransGateway struct {
	snap      snap.Client
	core      coreapi.Client
	serverKey string
}

func NewMidtrans(serverKey string, production bool) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	g := &MidtransGateway{serverKey: serverKey}
	g.snap.New(serverKey, env)
	g.core.New(serverKey, env)
	return g
}

func (g *MidtransGateway) Name() string { return "midtrans" }

func (g *MidtransGateway) SignatureHeader() string { return "" }

func (g *MidtransGateway) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	orderID := req.OrderID.String()

	items := make([]midtrans.ItemDetails, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, midtrans.ItemDetails{
			ID:    it.ProductID.String(),
			Name:  truncate(it.Name, midtransNameLimit),
			Price: it.UnitAmount,
			Qty:   int32(it.Quantity),
		})
	}

	sreq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: req.Total,
		},
		Items: &items,
		Callbacks: &snap.Callbacks{
			Finish: strings.ReplaceAll(req.SuccessURL, SessionIDPlaceholder, orderID),
		},
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, mErr := g.snap.CreateTransaction(sreq)
	if mErr != nil {
		return nil, fmt.Errorf("midtrans: create transaction: %w", mErr)
	}

	out := &Session{ID: orderID}
	if resp.RedirectURL != "" {
		url := resp.RedirectURL
		out.URL = &url
	}
	return out, nil
}

type midtransNotification struct {
	TransactionID     string `json:"transaction_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// ParseEvent verifies the notification signature carried in the body. The
// signature argument is unused.
func (g *MidtransGateway) ParseEvent(payload []byte, _ string) (*Event, error) {
	var n midtransNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if n.OrderID == "" {
		return nil, fmt.Errorf("%w: missing order_id", ErrMalformedEvent)
	}

	verified := false
	if g.serverKey != "" {
		if !VerifyMidtransSignature(n.OrderID, n.StatusCode, n.GrossAmount, n.SignatureKey, g.serverKey) {
			return nil, ErrInvalidSignature
		}
		verified = true
	}

	out := &Event{
		ID:       n.TransactionID + ":" + n.TransactionStatus,
		Type:     n.TransactionStatus,
		Kind:     EventOther,
		Verified: verified,
	}
	if midtransPaid(n.TransactionStatus, n.FraudStatus) {
		out.Kind = EventCheckoutCompleted
		out.SessionID = n.OrderID
		out.OrderRef = n.OrderID
	}
	return out, nil
}

func (g *MidtransGateway) SessionPaid(ctx context.Context, sessionID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	res, mErr := g.core.CheckTransaction(sessionID)
	if mErr != nil {
		return false, fmt.Errorf("midtrans: check transaction: %w", mErr)
	}
	return midtransPaid(res.TransactionStatus, res.FraudStatus), nil
}

// VerifyMidtransSignature checks sha512(order_id+status_code+gross_amount+server_key).
func VerifyMidtransSignature(orderID, statusCode, grossAmount, signature, serverKey string) bool {
	sum := sha512.Sum512([]byte(orderID + statusCode + grossAmount + serverKey))
	expected := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToLower(signature))) == 1
}

func midtransPaid(status, fraud string) bool {
	switch status {
	case "settlement":
		return true
	case "capture":
		return fraud == "" || fraud == "accept"
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
