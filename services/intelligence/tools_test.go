package ai

import (
	"encoding/json"
	"testing"

	"blueridge/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolKindNames(t *testing.T) {
	for _, def := range Tools() {
		kind := ParseToolKind(def.Name)
		assert.NotEqual(t, ToolUnknown, kind, def.Name)
		assert.Equal(t, def.Name, kind.String())
	}
	assert.Equal(t, ToolUnknown, ParseToolKind("rm -rf"))
}

func TestDecodeToolCall(t *testing.T) {
	inv := DecodeToolCall(models.ToolCall{
		ID:        "1",
		Name:      "createAppointment",
		Arguments: json.RawMessage(`{"startISO":"2025-09-04T18:00:00Z","attendees":[{"email":"a@b.co"}]}`),
	})
	args, ok := inv.Args.(*CreateAppointmentArgs)
	require.True(t, ok)
	assert.Equal(t, ToolCreateAppointment, inv.Kind)
	assert.Equal(t, "2025-09-04T18:00:00Z", args.StartISO)
	require.Len(t, args.Attendees, 1)
	assert.Equal(t, "a@b.co", args.Attendees[0].Email)
	assert.NoError(t, inv.Err)

	broken := DecodeToolCall(models.ToolCall{Name: "getAvailability", Arguments: json.RawMessage(`{oops`)})
	ga, ok := broken.Args.(*GetAvailabilityArgs)
	require.True(t, ok)
	assert.Empty(t, ga.TimeMinISO)
	assert.Error(t, broken.Err)

	mistyped := DecodeToolCall(models.ToolCall{Name: "getAvailability", Arguments: json.RawMessage(`{"durationMins":"thirty"}`)})
	require.Error(t, mistyped.Err)
	assert.Contains(t, mistyped.Err.Error(), "invalid getAvailability arguments")
	assert.Contains(t, mistyped.Err.Error(), "durationMins")

	empty := DecodeToolCall(models.ToolCall{Name: "showContactForm"})
	assert.NoError(t, empty.Err)

	unknown := DecodeToolCall(models.ToolCall{Name: "nope"})
	assert.Nil(t, unknown.Args)
}

func TestToolResultJSON(t *testing.T) {
	assert.JSONEq(t, `{"ok":false,"error":"bad"}`, ToolResult{Error: "bad"}.JSON())
	assert.JSONEq(t, `{"ok":true,"data":{"n":1}}`, ToolResult{OK: true, Data: map[string]int{"n": 1}}.JSON())
}
