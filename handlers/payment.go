package handlers

import (
	"errors"
	"io"
	"net/http"

	"blueridge/services/payment"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

func paymentFailure(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, payment.ErrUnknownTier):
		utils.JSONError(c, http.StatusBadRequest, "Unknown tier", "")
	case errors.Is(err, payment.ErrMissingCustomer):
		utils.JSONError(c, http.StatusBadRequest, "Missing customerId", "")
	case errors.Is(err, payment.ErrNotConfigured):
		utils.JSONError(c, http.StatusServiceUnavailable, "payments are not configured", err.Error())
	default:
		utils.JSONError(c, http.StatusInternalServerError, fallback, err.Error())
	}
}

// Checkout serves POST /api/checkout.
func (hb *HandlerBundle) Checkout(c *gin.Context) {
	var body struct {
		Tier string `json:"tier"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	url, err := hb.Payments.Checkout(c.Request.Context(), body.Tier)
	if err != nil {
		paymentFailure(c, err, "checkout error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Portal serves POST /api/portal.
func (hb *HandlerBundle) Portal(c *gin.Context) {
	var body struct {
		CustomerID string `json:"customerId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	url, err := hb.Payments.Portal(c.Request.Context(), body.CustomerID)
	if err != nil {
		paymentFailure(c, err, "portal error")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// StripeWebhook serves POST /api/stripe/webhook.
func (hb *HandlerBundle) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBytes))
	if err != nil {
		utils.JSONError(c, http.StatusRequestEntityTooLarge, "Webhook Error", err.Error())
		return
	}
	ev, err := hb.Payments.HandleWebhook(payload, c.GetHeader("Stripe-Signature"))
	if errors.Is(err, payment.ErrNotConfigured) {
		utils.JSONError(c, http.StatusServiceUnavailable, "payments are not configured", err.Error())
		return
	}
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Webhook Error", err.Error())
		return
	}
	getLogger(c).Debug("Stripe webhook accepted", zap.String("event", ev.ID), zap.String("type", ev.Type))
	c.JSON(http.StatusOK, gin.H{"received": true})
}
