package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/checkout/session"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"
)

// EventCheckoutCompleted is the Stripe event type the reconciler acts on.
const EventCheckoutCompleted = "checkout.session.completed"

type LineItem struct {
	Name            string
	UnitAmountCents int64
	Quantity        int64
}

type CheckoutParams struct {
	Currency   string
	LineItems  []LineItem
	SuccessURL string
	CancelURL  string
	Metadata   map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	AmountTotal     int64
	PaymentIntentID string
	Metadata        map[string]string
}

// Event is a verified webhook callback. Session is populated for
// checkout.session.completed events.
type Event struct {
	Type    string
	Session *CheckoutSession
}

type StripeProvider struct {
	webhookSecret string
}

func NewStripeProvider(secretKey, webhookSecret string) *StripeProvider {
	stripe.Key = secretKey

	// A hanging Stripe call would otherwise block the requesting worker
	// indefinitely.
	stripe.SetHTTPClient(&http.Client{Timeout: 15 * time.Second})

	return &StripeProvider{
		webhookSecret: webhookSecret,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(params.LineItems))
	for _, item := range params.LineItems {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(params.Currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitAmountCents),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	sessionParams := &stripe.CheckoutSessionParams{
		Params: stripe.Params{
			Context:  ctx,
			Metadata: params.Metadata,
		},
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(params.SuccessURL),
		CancelURL:          stripe.String(params.CancelURL),
	}

	sess, err := session.New(sessionParams)
	if err != nil {
		return nil, fmt.Errorf("session.New -> %w", err)
	}

	return fromStripeSession(sess), nil
}

func (p *StripeProvider) RetrieveSession(ctx context.Context, id string) (*CheckoutSession, error) {
	sess, err := session.Get(id, &stripe.CheckoutSessionParams{
		Params: stripe.Params{Context: ctx},
	})
	if err != nil {
		return nil, fmt.Errorf("session.Get -> %w", err)
	}

	return fromStripeSession(sess), nil
}

// VerifyWebhook checks the payload signature against the endpoint secret
// and decodes the event. An invalid signature must never produce an event.
func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (Event, error) {
	stripeEvent, err := webhook.ConstructEvent(payload, signature, p.webhookSecret)
	if err != nil {
		return Event{}, fmt.Errorf("webhook.ConstructEvent -> %w", err)
	}

	event := Event{Type: string(stripeEvent.Type)}

	if event.Type == EventCheckoutCompleted {
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(stripeEvent.Data.Raw, &sess); err != nil {
			return Event{}, fmt.Errorf("unmarshal checkout session -> %w", err)
		}

		event.Session = fromStripeSession(&sess)
	} else {
		zap.L().Debug("ignoring stripe event", zap.String("type", event.Type))
	}

	return event, nil
}

func fromStripeSession(sess *stripe.CheckoutSession) *CheckoutSession {
	cs := &CheckoutSession{
		ID:          sess.ID,
		URL:         sess.URL,
		AmountTotal: sess.AmountTotal,
		Metadata:    sess.Metadata,
	}
	if sess.PaymentIntent != nil {
		cs.PaymentIntentID = sess.PaymentIntent.ID
	}

	return cs
}
