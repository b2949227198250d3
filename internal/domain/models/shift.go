package models

import "time"

// Shift identifies one of the two daily operating periods.
type Shift string

const (
	ShiftMorning Shift = "morning"
	ShiftNight   Shift = "night"
)

// Valid reports whether s is a known shift.
func (s Shift) Valid() bool {
	return s == ShiftMorning || s == ShiftNight
}

// ParseShift accepts "morning"/"night" in any case. The second return value is
// false for anything else.
func ParseShift(value string) (Shift, bool) {
	switch Shift(normalize(value)) {
	case ShiftMorning:
		return ShiftMorning, true
	case ShiftNight:
		return ShiftNight, true
	default:
		return "", false
	}
}

// ShiftWindow describes one shift instance and the range used to query its records.
// All instants are UTC.
type ShiftWindow struct {
	Policy     string    `json:"policy"`
	Shift      Shift     `json:"shift"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	FetchStart time.Time `json:"fetch_start"`
	FetchEnd   time.Time `json:"fetch_end"`

	// Fallback is set when the window comes from the degraded resolver and
	// shift detection may be imprecise.
	Fallback bool `json:"fallback,omitempty"`
	// ClockSkew is set when the instant used to resolve the window looked implausible.
	ClockSkew bool `json:"clock_skew,omitempty"`
}

// Contains reports whether t lies inside [Start, End).
func (w ShiftWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// CoversShift reports whether [FetchStart, FetchEnd) spans the whole of
// [Start, End). A same-day range never covers a night shift that crosses
// midnight.
func (w ShiftWindow) CoversShift() bool {
	return !w.FetchStart.After(w.Start) && !w.FetchEnd.Before(w.End)
}

// Remaining returns End-now, clamped at zero.
func (w ShiftWindow) Remaining(now time.Time) time.Duration {
	d := w.End.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}
