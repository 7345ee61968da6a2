package models

import (
	"encoding/json"
	"time"
)

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is one function invocation requested by the model.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ConversationTurn is one message of the model context.
type ConversationTurn struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	Name       string     `json:"name,omitempty"`         // tool name on tool turns
	ToolCallID string     `json:"tool_call_id,omitempty"` // links a tool turn to its call
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// Contact is collected by the widget's contact form.
type Contact struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (c *Contact) Present() bool {
	return c != nil && (c.Name != "" || c.Email != "" || c.Phone != "")
}

// SlotDTO is a slot as exchanged with the chat widget.
type SlotDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ChatMessage is a widget history entry.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/ai/chat.
type ChatRequest struct {
	Messages         []ChatMessage `json:"messages,omitempty"`
	Message          string        `json:"message,omitempty"`
	OwnerID          string        `json:"owner_id,omitempty"`
	SessionID        string        `json:"session_id,omitempty"`
	Contact          *Contact      `json:"contact,omitempty"`
	LastSlots        []SlotDTO     `json:"lastSlots,omitempty"`
	SelectedStartISO string        `json:"selectedStartISO,omitempty"`
}

// ChatUI is a rendering hint for the widget.
type ChatUI struct {
	Type string `json:"type"` // "contact_form"
}

// ChatMeta carries structured data alongside the reply text.
type ChatMeta struct {
	Slots            []SlotDTO `json:"slots,omitempty"`
	SelectedStartISO string    `json:"selectedStartISO,omitempty"`
}

func (m *ChatMeta) Empty() bool {
	return m == nil || (len(m.Slots) == 0 && m.SelectedStartISO == "")
}

// ChatResponse is the reply of POST /api/ai/chat.
type ChatResponse struct {
	Content string    `json:"content"`
	UI      *ChatUI   `json:"ui,omitempty"`
	Meta    *ChatMeta `json:"meta,omitempty"`
}

// ChatContext is the per-session state kept between chat requests.
type ChatContext struct {
	LastSlots        []SlotDTO `json:"lastSlots,omitempty"`
	SelectedStartISO string    `json:"selectedStartISO,omitempty"`
	Contact          *Contact  `json:"contact,omitempty"`
}

// SlotDTOs converts slots for the widget.
func SlotDTOs(slots []Slot) []SlotDTO {
	out := make([]SlotDTO, 0, len(slots))
	for _, s := range slots {
		out = append(out, SlotDTO{Start: FormatISO(s.Start), End: FormatISO(s.End)})
	}
	return out
}

// SlotsFromDTOs parses widget slots, dropping unparseable entries.
func SlotsFromDTOs(in []SlotDTO) []Slot {
	out := make([]Slot, 0, len(in))
	for _, d := range in {
		start, err := ParseISO(d.Start)
		if err != nil {
			continue
		}
		end, err := ParseISO(d.End)
		if err != nil || !end.After(start) {
			end = start.Add(30 * time.Minute)
		}
		out = append(out, Slot{Start: start, End: end})
	}
	return out
}
