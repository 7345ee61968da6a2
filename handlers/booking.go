package handlers

import (
	"errors"
	"net/http"

	"blueridge/models"
	"blueridge/services/booking"
	"blueridge/services/calendar"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bookingStatus maps a booking failure onto its HTTP status.
func bookingStatus(err error) int {
	switch {
	case booking.CodeOf(err) == booking.CodeValidation:
		return http.StatusBadRequest
	case booking.CodeOf(err) == booking.CodeConflict:
		return http.StatusConflict
	case errors.Is(err, calendar.ErrUnauthorized):
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

func bookingFailure(c *gin.Context, err error) {
	status := bookingStatus(err)
	msg := booking.MessageOf(err)
	if status == http.StatusUnauthorized {
		msg = "needs_reauth"
	} else if status == http.StatusInternalServerError && booking.CodeOf(err) == "" {
		msg = "booking failed"
	}
	utils.JSONError(c, status, msg, err.Error())
}

// Book serves POST /api/book.
func (hb *HandlerBundle) Book(c *gin.Context) {
	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	res, err := hb.Booking.Book(c.Request.Context(), req)
	if err != nil {
		bookingFailure(c, err)
		return
	}
	getLogger(c).Info("Booking completed",
		zap.String("uid", res.UID), zap.String("start", res.Start),
		zap.Bool("eventCreated", res.EventCreated), zap.Strings("emailErrors", res.EmailErrors))
	c.JSON(http.StatusOK, res)
}

// CancelEvent serves POST /api/calendar/cancel-event.
func (hb *HandlerBundle) CancelEvent(c *gin.Context) {
	var req models.CancelEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	if err := hb.Booking.Cancel(c.Request.Context(), req); err != nil {
		bookingFailure(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "eventId": req.EventID})
}
