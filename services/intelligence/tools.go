package ai

import (
	"encoding/json"
	"fmt"

	"blueridge/models"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// ToolKind enumerates the functions the model may call.
type ToolKind int

const (
	ToolUnknown ToolKind = iota
	ToolGetAvailability
	ToolCreateAppointment
	ToolCancelAppointment
	ToolFlagNeedsHuman
	ToolShowContactForm
)

var toolNames = map[ToolKind]string{
	ToolGetAvailability:   "getAvailability",
	ToolCreateAppointment: "createAppointment",
	ToolCancelAppointment: "cancelAppointment",
	ToolFlagNeedsHuman:    "flagNeedsHuman",
	ToolShowContactForm:   "showContactForm",
}

func (k ToolKind) String() string {
	if n, ok := toolNames[k]; ok {
		return n
	}
	return "unknown"
}

func ParseToolKind(name string) ToolKind {
	for k, n := range toolNames {
		if n == name {
			return k
		}
	}
	return ToolUnknown
}

type GetAvailabilityArgs struct {
	TimeMinISO   string `json:"timeMinISO"`
	TimeMaxISO   string `json:"timeMaxISO"`
	DurationMins int    `json:"durationMins,omitempty"`
}

type AttendeeArg struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type CreateAppointmentArgs struct {
	StartISO    string        `json:"startISO"`
	EndISO      string        `json:"endISO"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Attendees   []AttendeeArg `json:"attendees,omitempty"`
}

type CancelAppointmentArgs struct {
	EventID    string `json:"eventId"`
	CalendarID string `json:"calendarId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	OwnerID    string `json:"owner_id,omitempty"`
}

type FlagNeedsHumanArgs struct {
	Reason string `json:"reason,omitempty"`
}

type ShowContactFormArgs struct {
	Reason string `json:"reason,omitempty"`
}

// ToolInvocation is a decoded tool call. Args holds the typed payload for
// Kind (a pointer to one of the *Args structs); nil for ToolUnknown.
type ToolInvocation struct {
	ID   string
	Name string
	Kind ToolKind
	Args any
	// Err is set when the arguments did not decode into Args.
	Err error
}

// DecodeToolCall maps a raw call onto its typed arguments. Arguments that
// fail to decode are reported in Err so the model can resend them.
func DecodeToolCall(tc models.ToolCall) ToolInvocation {
	inv := ToolInvocation{ID: tc.ID, Name: tc.Name, Kind: ParseToolKind(tc.Name)}
	var target any
	switch inv.Kind {
	case ToolGetAvailability:
		target = &GetAvailabilityArgs{}
	case ToolCreateAppointment:
		target = &CreateAppointmentArgs{}
	case ToolCancelAppointment:
		target = &CancelAppointmentArgs{}
	case ToolFlagNeedsHuman:
		target = &FlagNeedsHumanArgs{}
	case ToolShowContactForm:
		target = &ShowContactFormArgs{}
	default:
		return inv
	}
	if len(tc.Arguments) > 0 {
		if err := json.Unmarshal(tc.Arguments, target); err != nil {
			inv.Err = fmt.Errorf("invalid %s arguments: %w", tc.Name, err)
		}
	}
	inv.Args = target
	return inv
}

// ToolResult is the JSON content of a tool turn.
type ToolResult struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (r ToolResult) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"ok":false,"error":"unencodable result"}`
	}
	return string(b)
}

// ToolSpec describes one function to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// Tools is the catalogue offered on every round.
func Tools() []ToolSpec {
	return []ToolSpec{
		{
			Name:        ToolGetAvailability.String(),
			Description: "Get free appointment start times between two ISO timestamps with a given duration (minutes).",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"timeMinISO":   {Type: jsonschema.String, Description: "ISO 8601 start time (inclusive)"},
					"timeMaxISO":   {Type: jsonschema.String, Description: "ISO 8601 end time (exclusive)"},
					"durationMins": {Type: jsonschema.Integer, Description: "Meeting length in minutes (default 30)"},
				},
				Required: []string{"timeMinISO", "timeMaxISO"},
			},
		},
		{
			Name:        ToolCreateAppointment.String(),
			Description: "Create a calendar event and send confirmation emails.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"startISO":    {Type: jsonschema.String},
					"endISO":      {Type: jsonschema.String},
					"title":       {Type: jsonschema.String},
					"description": {Type: jsonschema.String},
					"attendees": {
						Type: jsonschema.Array,
						Items: &jsonschema.Definition{
							Type: jsonschema.Object,
							Properties: map[string]jsonschema.Definition{
								"email": {Type: jsonschema.String},
								"name":  {Type: jsonschema.String},
							},
							Required: []string{"email"},
						},
					},
				},
				Required: []string{"startISO", "endISO", "title"},
			},
		},
		{
			Name:        ToolCancelAppointment.String(),
			Description: "Cancel a calendar event by ID.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"eventId":    {Type: jsonschema.String},
					"calendarId": {Type: jsonschema.String},
					"reason":     {Type: jsonschema.String},
					"owner_id":   {Type: jsonschema.String},
				},
				Required: []string{"eventId"},
			},
		},
		{
			Name:        ToolFlagNeedsHuman.String(),
			Description: "Flag the conversation for a human to follow up.",
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{"reason": {Type: jsonschema.String}},
			},
		},
		{
			Name:        ToolShowContactForm.String(),
			Description: "Ask the UI to render a contact form (name, email, phone) for the user to fill in a single step.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"reason": {Type: jsonschema.String, Description: "Why the form is needed (optional)"},
				},
			},
		},
	}
}
