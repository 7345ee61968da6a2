package ai

import (
	"fmt"
	"strings"

	"blueridge/models"
	"blueridge/services/nlp"
)

const personaPrompt = `
You are Rick, the Blueridge AI Agency assistant.

Tone: professional, concise, responsible, and approachable. Keep replies short (1 to 3 sentences) and helpful.

Never repeat the initial greeting once the conversation has started.

Before offering times, restate the exact target day and calendar date you are using. Never propose times for a different day than the user asked; if the day or date is unclear, ask a one-line clarification instead of guessing.
"Today" and "tomorrow" refer to %[1]s. Treat them as that calendar date and proceed without asking which weekday it is.

Rules for multi-intent messages:
1) Answer the customer's question first so they feel heard.
2) Then, if relevant, guide them toward booking or rescheduling.
3) Don't force a booking if there are unresolved concerns. Resolve them first, then offer booking as the next step.

Always:
- Ask for only what's needed to book: name, email, phone.
- When contact details are missing and booking is relevant, call showContactForm to collect them in a single step (do not ask for them one by one unless the form fails).
- If contact details have already been provided (the system may tell you so), do not ask for them again; proceed to booking.
- Never make up guarantees or promises. Be accurate and conservative.
- Stay strictly on scope: decline to discuss politics, sports, news, entertainment, or unrelated topics. Briefly explain it's out of scope and redirect to Blueridge AI services and booking.
- If you cannot resolve the conversation in 2 attempts, call flagNeedsHuman with reason "Needs_Human" and stop.
- Mention "Blueridge AI Agency" at least once per conversation.

Booking behavior (email-only confirmation):
- Confirm the day first (e.g., Monday, Tuesday). A bare weekday ("Tuesday") means the NEXT OCCURRENCE of that weekday (%[1]s). "Today" or "tomorrow" resolve to the local date.
- Always call getAvailability for the intended date and time window BEFORE proposing slots. Only propose slots returned by the tool.
- Show 2 to 3 concise windows (e.g., "9:00 to 10:30 AM", "1:00 to 2:30 PM") by grouping contiguous 30-minute slots; avoid listing every 30 minutes. Avoid duplicates.
- Prefer 30-minute slots unless the user specifies otherwise.
- If the user asks for a time-of-day segment (e.g., "morning") and there is none on that day, say "We're booked in the morning" (or the requested segment) and immediately offer the nearest later windows on the SAME day. Do NOT suggest other days unless the user asks.
- After the user picks a slot, call createAppointment to trigger email confirmations (to the customer) and an internal notification (to the team). Do not claim a calendar invite is sent.
  - If contact details are missing, call showContactForm before confirming by email.
  - If none of the offered times work, ask permission to check the next soonest availability and repeat.
When a user reply clearly matches one of the offered times (e.g., "1PM" matching "1:00 PM"), acknowledge briefly and proceed to email confirmation.

FAQ quick answers:
- What does Blueridge AI Agency do? We help businesses use AI responsibly to capture leads, book appointments, and automate simple tasks, saving time while keeping interactions professional.
- Where are you located? North Carolina, serving businesses across the U.S.
- How much does it cost? Packages: Starter at $300/month includes an AI appointment setter across platforms and monthly support; Growth at $600/month is the same as Starter plus lead generation, CRM, and client follow-ups; Consulting is a deep dive into your business operations with AI solutions.
- Can you book an appointment for me? Yes. We can schedule, reschedule, or cancel directly on our Blueridge calendar.
- Do you offer custom AI solutions? Yes. We build responsible AI tools for lead gen and workflow automation.
- Is AI safe for my business? Yes. We focus on responsible AI: transparent, accurate, and in your control.
- Want a real person? We can flag a human to follow up.
- CRM or calendar integration? Yes. We work with common systems to keep workflows smooth.
- Need technical skills? No. We set it up; you and your team just use it.
- Getting started? The best first step is a free consultation.
`

// Fixed replies.
const (
	replyBooked            = "You're all set. I'll send a confirmation email and follow up with details."
	replyBookedShort       = "You're all set. I'll send a confirmation email shortly."
	replyBookFailed        = "I couldn't complete the confirmation just now. Can I try again?"
	replyFinalizeFailed    = "I couldn't finalize that just now. Want me to try again?"
	replyAskDay            = "Which day works best? I can check Monday through Friday and share a couple of windows."
	replyModelOnlyRetry    = "I had trouble reaching tools for a moment. Let me try again."
	replyCheckFirst        = "Let me check availability first, one moment."
	replyDoubleCheck       = "Let me double-check availability and get right back to you."
	replyContactForm       = "Please provide your contact details to continue."
	chatTitle              = "Blueridge Consultation"
	createGuidance         = "Please call getAvailability to present 2 to 3 slots and get a user-confirmed time before creating an appointment."
	presentRangesDirective = "Present availability as concise ranges (not every 30 min). Use up to 3 options: %s."
)

func systemTurn(content string) models.ConversationTurn {
	return models.ConversationTurn{Role: models.RoleSystem, Content: content}
}

func personaTurn(tz string) models.ConversationTurn {
	return systemTurn(fmt.Sprintf(personaPrompt, tz))
}

func dateTurn(longDate, tz string, modelOnly bool) models.ConversationTurn {
	s := fmt.Sprintf("Current date (%s): %s.", tz, longDate)
	if !modelOnly {
		s += fmt.Sprintf(" Never guess dates; only state dates after checking availability via tools. If the user says a weekday without a date, interpret it as the next occurrence of that weekday (%s).", tz)
	}
	return systemTurn(s)
}

func guidanceTurn(target nlp.Target, longDate, tz string, seg nlp.Segment) models.ConversationTurn {
	switch target.Kind {
	case nlp.DayToday, nlp.DayTomorrow:
		said := "today"
		if target.Kind == nlp.DayTomorrow {
			said = "tomorrow"
		}
		return systemTurn(fmt.Sprintf("Guidance: The user said %s. Treat it as %s (%s). Always call getAvailability for that date before proposing slots.", said, longDate, tz))
	}
	s := fmt.Sprintf("Guidance: The user mentioned %s. Treat it as the next occurrence: %s. Always call getAvailability for that date before proposing slots, and only propose slots returned by the tool.", target.Weekday, longDate)
	if seg != nlp.SegmentNone {
		s += fmt.Sprintf(" The user prefers %s; try that first.", seg)
	}
	return systemTurn(s)
}

func contactTurn(c *models.Contact) models.ConversationTurn {
	var parts []string
	if c.Name != "" {
		parts = append(parts, "name="+c.Name)
	}
	if c.Email != "" {
		parts = append(parts, "email="+c.Email)
	}
	if c.Phone != "" {
		parts = append(parts, "phone="+c.Phone)
	}
	return systemTurn(fmt.Sprintf("Contact details have been collected: %s. Use these for email confirmation and do not ask for them again.", strings.Join(parts, ", ")))
}

func availabilityNudge(tz, targetDate string) models.ConversationTurn {
	s := fmt.Sprintf("You must call getAvailability BEFORE proposing times. Use %s timezone and 30-minute slots by default.", tz)
	if targetDate != "" {
		s += fmt.Sprintf(" For the requested day, use %s.", targetDate)
	} else {
		s += " If a weekday was mentioned without a date, interpret it as the next occurrence."
	}
	return systemTurn(s)
}

func createNudge(startISO string) models.ConversationTurn {
	return systemTurn(fmt.Sprintf("User confirmed slot startISO=%s. Proceed to call createAppointment with duration 30 unless otherwise stated.", startISO))
}

func holdReply(clock string, fallback bool) string {
	if fallback {
		return fmt.Sprintf("Got it, I'll hold %s. Please enter your contact details to finalize.", clock)
	}
	return fmt.Sprintf("Great, I'll hold %s. Please enter your contact details to confirm.", clock)
}

func offerReply(day string, ranges []string) string {
	return fmt.Sprintf("For %s, I can do %s. Which works best?", day, strings.Join(ranges, ", "))
}

func segmentOfferReply(day string, seg nlp.Segment, ranges []string) string {
	return fmt.Sprintf("For %s %s, I can do %s. Which works best?", day, seg, strings.Join(ranges, ", "))
}

func segmentBookedReply(day string, seg nlp.Segment, ranges []string) string {
	return fmt.Sprintf("We're booked in the %s on %s, but I do have %s. Which works?", seg, day, strings.Join(ranges, ", "))
}

func fullyBookedReply(day string) string {
	return fmt.Sprintf("We're fully booked on %s. Would you like me to check another day?", day)
}

func noAvailabilityReply(day string) string {
	return fmt.Sprintf("I'm not seeing availability on %s. Want me to check another day?", day)
}

func noWindowsNextReply(weekday string) string {
	return fmt.Sprintf("I didn't see open windows for next %s. Want me to check the following %s instead?", weekday, weekday)
}

func noWindowsWeekReply(day string) string {
	return fmt.Sprintf("I didn't see open windows for %s. Want me to check the following week instead?", day)
}
