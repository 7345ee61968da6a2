package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured    = errors.New("payments not configured")
	ErrUnknownTier      = errors.New("unknown tier")
	ErrMissingCustomer  = errors.New("missing customerId")
	ErrInvalidSignature = errors.New("invalid webhook signature")
)

const (
	TierStarter = "starter"
	TierGrowth  = "growth"
)

type PaymentService interface {
	Checkout(ctx context.Context, tier string) (string, error)
	Portal(ctx context.Context, customerID string) (string, error)
	HandleWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

type Options struct {
	SecretKey     string
	WebhookSecret string
	PriceStarter  string
	PriceGrowth   string
	SiteURL       string
	// Backends overrides the Stripe API endpoint (tests).
	Backends *stripe.Backends
}

// WebhookEvent is the part of a verified Stripe event that gets logged.
type WebhookEvent struct {
	ID           string
	Type         string
	ObjectID     string
	Customer     string
	Subscription string
	Status       string
	PriceIDs     []string
	Metadata     map[string]string
}

type StripeService struct {
	api    *client.API
	opts   Options
	logger *zap.Logger
}

func NewStripeService(opts Options, logger *zap.Logger) *StripeService {
	opts.SiteURL = strings.TrimRight(opts.SiteURL, "/")
	if opts.SiteURL == "" {
		opts.SiteURL = "http://localhost:3000"
	}
	s := &StripeService{opts: opts, logger: logger}
	if opts.SecretKey != "" {
		s.api = client.New(opts.SecretKey, opts.Backends)
	}
	return s
}

func (s *StripeService) priceFor(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case TierStarter:
		return s.opts.PriceStarter
	case TierGrowth:
		return s.opts.PriceGrowth
	}
	return ""
}

// Checkout creates a subscription Checkout Session and returns its URL.
func (s *StripeService) Checkout(ctx context.Context, tier string) (string, error) {
	price := s.priceFor(tier)
	if price == "" {
		return "", ErrUnknownTier
	}
	if s.api == nil {
		return "", ErrNotConfigured
	}
	tier = strings.ToLower(strings.TrimSpace(tier))

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes:       stripe.StringSlice([]string{"card"}),
		LineItems:                []*stripe.CheckoutSessionLineItemParams{{Price: stripe.String(price), Quantity: stripe.Int64(1)}},
		AllowPromotionCodes:      stripe.Bool(true),
		SuccessURL:               stripe.String(s.opts.SiteURL + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(s.opts.SiteURL + "/checkout/cancel"),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionAuto)),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{"tier": tier},
		},
	}
	params.Context = ctx
	params.AddMetadata("tier", tier)

	sess, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		s.logger.Error("Stripe checkout failed", zap.String("tier", tier), zap.Error(err))
		return "", fmt.Errorf("checkout: %w", err)
	}
	s.logger.Info("Checkout session created", zap.String("session", sess.ID), zap.String("tier", tier))
	return sess.URL, nil
}

// Portal opens a billing portal session for an existing customer.
func (s *StripeService) Portal(ctx context.Context, customerID string) (string, error) {
	if strings.TrimSpace(customerID) == "" {
		return "", ErrMissingCustomer
	}
	if s.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(s.opts.SiteURL + "/account"),
	}
	params.Context = ctx

	sess, err := s.api.BillingPortalSessions.New(params)
	if err != nil {
		s.logger.Error("Stripe portal failed", zap.String("customer", customerID), zap.Error(err))
		return "", fmt.Errorf("portal: %w", err)
	}
	return sess.URL, nil
}

// HandleWebhook verifies the Stripe-Signature header and logs the events we
// care about. Other event types are accepted and ignored.
func (s *StripeService) HandleWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if s.opts.WebhookSecret == "" {
		return nil, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.opts.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{ID: event.ID, Type: string(event.Type)}
	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("decode checkout session: %w", err)
		}
		out.ObjectID, out.Metadata = sess.ID, sess.Metadata
		if sess.Customer != nil {
			out.Customer = sess.Customer.ID
		}
		if sess.Subscription != nil {
			out.Subscription = sess.Subscription.ID
		}
		s.logger.Info("checkout.session.completed",
			zap.String("id", out.ObjectID), zap.String("customer", out.Customer),
			zap.String("subscription", out.Subscription), zap.Any("metadata", out.Metadata))

	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("decode subscription: %w", err)
		}
		out.ObjectID, out.Status, out.Metadata = sub.ID, string(sub.Status), sub.Metadata
		if sub.Customer != nil {
			out.Customer = sub.Customer.ID
		}
		if sub.Items != nil {
			for _, item := range sub.Items.Data {
				if item.Price != nil {
					out.PriceIDs = append(out.PriceIDs, item.Price.ID)
				}
			}
		}
		s.logger.Info("subscription event",
			zap.String("type", out.Type), zap.String("id", out.ObjectID), zap.String("status", out.Status),
			zap.Strings("items", out.PriceIDs), zap.String("customer", out.Customer))

	case "invoice.paid":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("decode invoice: %w", err)
		}
		out.ObjectID, out.Status = inv.ID, string(inv.Status)
		if inv.Customer != nil {
			out.Customer = inv.Customer.ID
		}
		s.logger.Info("invoice.paid", zap.String("id", out.ObjectID), zap.String("customer", out.Customer), zap.String("status", out.Status))

	default:
		s.logger.Debug("Ignoring Stripe event", zap.String("type", out.Type))
	}
	return out, nil
}
