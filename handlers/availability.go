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

// GetAvailability serves GET /api/availability.
func (hb *HandlerBundle) GetAvailability(c *gin.Context) {
	var q models.AvailabilityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid range", err.Error())
		return
	}
	window, err := scheduling.ParseRange(q.From, q.To, hb.Now())
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	res, err := hb.Availability.Availability(c.Request.Context(), window.From, window.To, q.DurationMins)
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

	getLogger(c).Debug("Availability served",
		zap.Int("slots", len(res.Slots)), zap.Strings("phases", res.Phases), zap.Bool("fabricated", res.Fabricated))
	c.JSON(http.StatusOK, res.Response())
}
