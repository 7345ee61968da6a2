// Package nlp holds the pure text heuristics used by the chat agent:
// relative-date resolution, time-of-day segments, slot time matching and
// range formatting. Nothing here performs I/O; every function takes "now"
// and a location explicitly.
package nlp
