package handlers

import (
	"errors"
	"net/http"

	"blueridge/models"
	"blueridge/services/calendar"
	"blueridge/services/scheduling"
	"blueridge/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CheckAvailability serves POST /api/calendar/check-availability, the
// body-based variant of GetAvailability that returns start/end pairs.
func (hb *HandlerBundle) CheckAvailability(c *gin.Context) {
	var req models.CheckAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	window, err := scheduling.ParseRange(req.TimeMinISO, req.TimeMaxISO, hb.Now())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := hb.Availability.Availability(c.Request.Context(), window.From, window.To, req.DurationMins)
	switch {
	case err == nil:
	case scheduling.IsValidation(err):
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	case errors.Is(err, calendar.ErrUnauthorized):
		utils.JSONError(c, http.StatusUnauthorized, "needs_reauth", err.Error())
		return
	default:
		utils.JSONError(c, http.StatusInternalServerError, "availability failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"slots":      models.SlotPairs(res.Slots),
		"phases":     res.Phases,
		"fabricated": res.Fabricated,
	})
}

// CreateEvent serves POST /api/calendar/create-event. The first attendee is
// the customer; the event length comes from the two ends.
func (hb *HandlerBundle) CreateEvent(c *gin.Context) {
	var req models.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid input", err.Error())
		return
	}
	start, err := models.ParseISO(req.StartISO)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid startISO", err.Error())
		return
	}
	end, err := models.ParseISO(req.EndISO)
	if err != nil || !end.After(start) {
		utils.JSONError(c, http.StatusBadRequest, "invalid endISO", "")
		return
	}

	booking := models.BookingRequest{
		Start:        models.FormatISO(start),
		DurationMins: int(end.Sub(start).Minutes()),
		Notes:        req.Description,
		Title:        req.Title,
	}
	if len(req.Attendees) > 0 {
		booking.Email = req.Attendees[0].Email
		booking.Name = req.Attendees[0].Name
	}

	res, err := hb.Booking.Book(c.Request.Context(), booking)
	if err != nil {
		bookingFailure(c, err)
		return
	}
	getLogger(c).Info("Event created", zap.String("uid", res.UID), zap.Bool("eventCreated", res.EventCreated))
	c.JSON(http.StatusOK, res)
}
