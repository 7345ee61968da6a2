package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"
)

const whSecret = "whsec_test"

func newTestService(t *testing.T, handler http.HandlerFunc) *StripeService {
	t.Helper()
	opts := Options{
		SecretKey:     "sk_test_123",
		WebhookSecret: whSecret,
		PriceStarter:  "price_starter",
		PriceGrowth:   "price_growth",
		SiteURL:       "https://blueridge.test/",
	}
	if handler != nil {
		srv := httptest.NewServer(handler)
		t.Cleanup(srv.Close)
		backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(srv.URL),
			MaxNetworkRetries: stripe.Int64(0),
			LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelNull},
		})
		opts.Backends = &stripe.Backends{API: backend, Connect: backend, Uploads: backend}
	}
	return NewStripeService(opts, zap.NewNop())
}

func TestCheckout(t *testing.T) {
	var form map[string][]string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		form = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_1","object":"checkout.session","url":"https://checkout.stripe.com/c/pay/cs_1"}`))
	})

	url, err := svc.Checkout(context.Background(), "Growth")
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_1", url)
	assert.Equal(t, []string{"subscription"}, form["mode"])
	assert.Equal(t, []string{"price_growth"}, form["line_items[0][price]"])
	assert.Equal(t, []string{"growth"}, form["metadata[tier]"])
	assert.Equal(t, []string{"growth"}, form["subscription_data[metadata][tier]"])
	assert.Equal(t, []string{"https://blueridge.test/checkout/cancel"}, form["cancel_url"])
}

func TestCheckout_Errors(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Checkout(context.Background(), "enterprise")
	assert.ErrorIs(t, err, ErrUnknownTier)

	unconfigured := NewStripeService(Options{PriceStarter: "price_starter"}, zap.NewNop())
	_, err = unconfigured.Checkout(context.Background(), "starter")
	assert.ErrorIs(t, err, ErrNotConfigured)

	failing := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"No such price"}}`))
	})
	_, err = failing.Checkout(context.Background(), "starter")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No such price")
}

func TestPortal(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/billing_portal/sessions", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "cus_1", r.PostForm.Get("customer"))
		assert.Equal(t, "https://blueridge.test/account", r.PostForm.Get("return_url"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bps_1","object":"billing_portal.session","url":"https://billing.stripe.com/p/session/1"}`))
	})

	url, err := svc.Portal(context.Background(), "cus_1")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.com/p/session/1", url)

	_, err = svc.Portal(context.Background(), " ")
	assert.ErrorIs(t, err, ErrMissingCustomer)
}

func sign(payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(whSecret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestHandleWebhook(t *testing.T) {
	svc := newTestService(t, nil)

	t.Run("checkout completed", func(t *testing.T) {
		payload := []byte(`{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","customer":"cus_1","subscription":"sub_1","metadata":{"tier":"starter"}}}}`)
		ev, err := svc.HandleWebhook(payload, sign(payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "checkout.session.completed", ev.Type)
		assert.Equal(t, "cs_1", ev.ObjectID)
		assert.Equal(t, "cus_1", ev.Customer)
		assert.Equal(t, "sub_1", ev.Subscription)
		assert.Equal(t, "starter", ev.Metadata["tier"])
	})

	t.Run("subscription updated", func(t *testing.T) {
		payload := []byte(`{"id":"evt_2","object":"event","type":"customer.subscription.updated","data":{"object":{"id":"sub_1","object":"subscription","status":"active","customer":"cus_1","items":{"object":"list","data":[{"id":"si_1","price":{"id":"price_growth"}}]}}}}`)
		ev, err := svc.HandleWebhook(payload, sign(payload, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "active", ev.Status)
		assert.Equal(t, []string{"price_growth"}, ev.PriceIDs)
	})

	t.Run("bad signature", func(t *testing.T) {
		payload := []byte(`{"id":"evt_3","object":"event","type":"invoice.paid","data":{"object":{}}}`)
		_, err := svc.HandleWebhook(payload, "t=1,v1=deadbeef")
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		payload := []byte(`{"id":"evt_4","object":"event","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
		_, err := svc.HandleWebhook(payload, sign(payload, time.Now().Add(-time.Hour)))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewStripeService(Options{}, zap.NewNop()).HandleWebhook([]byte(`{}`), "")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
