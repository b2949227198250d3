package shift

import (
	"time"

	"github.com/mamadbah2/bakery/internal/domain/models"
)

// Instants outside [minPlausible, maxPlausible) are flagged as clock skew.
var (
	minPlausible = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	maxPlausible = time.Date(2100, time.January, 1, 0, 0, 0, 0, time.UTC)
)

// Resolver computes shift windows for one Policy. It holds no mutable state
// and is safe for concurrent use.
type Resolver struct {
	policy   Policy
	fallback bool
}

// NewResolver validates the policy and returns a resolver for it.
func NewResolver(policy Policy) (*Resolver, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{policy: policy}, nil
}

// FallbackResolver is used when the configured policy could not be built.
// Every window it returns is a MORNING window spanning local midnight to the
// resolved instant, flagged with Fallback. A nil loc means UTC.
func FallbackResolver(name string, loc *time.Location) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{
		policy:   Policy{Name: name, Location: loc, FetchMode: FetchSameDay},
		fallback: true,
	}
}

// Policy returns the resolver's configuration.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// IsFallback reports whether r is a degraded resolver.
func (r *Resolver) IsFallback() bool {
	return r.fallback
}

// Resolve returns the window of the shift active at now.
func (r *Resolver) Resolve(now time.Time) models.ShiftWindow {
	if r.fallback {
		return r.fallbackWindow(now)
	}

	p := r.policy
	local := now.In(p.Location)
	y, m, d := local.Date()
	at := func(dayOffset, hour int) time.Time {
		return time.Date(y, m, d+dayOffset, hour, 0, 0, 0, p.Location)
	}

	w := models.ShiftWindow{Policy: p.Name}

	switch h := local.Hour(); {
	case h >= p.MorningStartHour && h < p.NightStartHour:
		w.Shift = models.ShiftMorning
		w.Start = at(0, p.MorningStartHour)
		w.End = at(0, p.NightStartHour)
	case h >= p.NightStartHour:
		w.Shift = models.ShiftNight
		w.Start = at(0, p.NightStartHour)
		w.End = at(1, p.MorningStartHour)
	default:
		w.Shift = models.ShiftNight
		w.Start = at(-1, p.NightStartHour)
		w.End = at(0, p.MorningStartHour)
	}

	switch p.FetchMode {
	case FetchRollingOffset:
		// the range starts at the latest offset hour at or before now
		anchor := 0
		if local.Hour() < p.FetchOffsetHour {
			anchor = -1
		}
		w.FetchStart = at(anchor, p.FetchOffsetHour)
		w.FetchEnd = at(anchor+1, p.FetchOffsetHour)
	default:
		w.FetchStart = at(0, 0)
		w.FetchEnd = at(1, 0)
	}

	return finish(w, now)
}

// TimeUntilBoundary returns how long the shift active at now lasts. It is
// zero exactly on a boundary and never negative.
func (r *Resolver) TimeUntilBoundary(now time.Time) time.Duration {
	w := r.Resolve(now)
	if now.Equal(w.Start) {
		return 0
	}
	return w.Remaining(now)
}

func (r *Resolver) fallbackWindow(now time.Time) models.ShiftWindow {
	loc := r.policy.Location
	local := now.In(loc)
	y, m, d := local.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)

	return finish(models.ShiftWindow{
		Policy:     r.policy.Name,
		Shift:      models.ShiftMorning,
		Start:      midnight,
		End:        time.Date(y, m, d+1, 0, 0, 0, 0, loc),
		FetchStart: midnight,
		FetchEnd:   now,
		Fallback:   true,
	}, now)
}

func finish(w models.ShiftWindow, now time.Time) models.ShiftWindow {
	w.Start = w.Start.UTC()
	w.End = w.End.UTC()
	w.FetchStart = w.FetchStart.UTC()
	w.FetchEnd = w.FetchEnd.UTC()
	w.ClockSkew = now.Before(minPlausible) || !now.Before(maxPlausible)
	return w
}
