package models

// AvailabilityQuery is the parsed form of GET /api/availability.
type AvailabilityQuery struct {
	From         string `form:"from"`
	To           string `form:"to"`
	DurationMins int    `form:"durationMins"`
}

// AvailabilityResult carries the slots plus the ladder trace.
type AvailabilityResult struct {
	Slots      []Slot   `json:"-"`
	Phases     []string `json:"phases"`
	Fabricated bool     `json:"fabricated"`
}

// AvailabilityResponse is the wire shape of the availability endpoint.
type AvailabilityResponse struct {
	Slots      []string `json:"slots"`
	Phases     []string `json:"phases"`
	Fabricated bool     `json:"fabricated"`
}

func (r AvailabilityResult) Response() AvailabilityResponse {
	return AvailabilityResponse{Slots: StartISOs(r.Slots), Phases: r.Phases, Fabricated: r.Fabricated}
}

// CheckAvailabilityRequest is the body of POST /api/calendar/check-availability.
type CheckAvailabilityRequest struct {
	TimeMinISO   string `json:"timeMinISO" binding:"required"`
	TimeMaxISO   string `json:"timeMaxISO" binding:"required"`
	DurationMins int    `json:"durationMins" binding:"required,gt=0"`
}

// SlotPair is a slot with both ends rendered.
type SlotPair struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SlotPairs renders slots as start/end ISO pairs.
func SlotPairs(slots []Slot) []SlotPair {
	out := make([]SlotPair, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotPair{Start: FormatISO(s.Start), End: FormatISO(s.End)})
	}
	return out
}
