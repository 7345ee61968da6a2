package nlp

import "regexp"

var (
	slotMentionRe = regexp.MustCompile(`(?i)(\b\d{1,2}:\d{2}\s?(AM|PM)\b)|\btime slots?\b|\bavailable times?\b`)
	schedulingRe  = regexp.MustCompile(`(?i)(book|schedule|appointment|reschedul(e|ing)|next\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)|monday|tuesday|wednesday|thursday|friday|saturday|sunday)`)
	contactAskRe  = regexp.MustCompile(`(?i)contact (details|info)|name and email|email and phone|fill out (this|the) form|provide (your )?contact`)
)

// LooksLikeSlots reports whether assistant text proposes concrete times.
func LooksLikeSlots(text string) bool {
	return slotMentionRe.MatchString(text)
}

// SchedulingIntent reports booking-related wording.
func SchedulingIntent(text string) bool {
	return schedulingRe.MatchString(text)
}

// AsksForContact reports assistant text requesting contact details.
func AsksForContact(text string) bool {
	return contactAskRe.MatchString(text)
}
