// Package shift maps wall-clock instants to the bakery's operating shifts and
// to the time ranges used to query each shift's records.
package shift

import (
	"fmt"
	"time"
)

// FetchMode selects how a window's query range is derived.
type FetchMode string

const (
	// FetchSameDay queries the whole local calendar day of the resolved instant.
	FetchSameDay FetchMode = "same_day"
	// FetchRollingOffset queries 24 hours starting at a fixed local hour on the
	// day the active shift started.
	FetchRollingOffset FetchMode = "rolling_offset"
)

// Default boundary hours of the two deployed schemes.
const (
	DashboardMorningHour = 6
	DashboardNightHour   = 14

	InventoryMorningHour = 10
	InventoryNightHour   = 22
	InventoryFetchOffset = 15
)

// Policy configures a Resolver: boundary hours are local to Location.
type Policy struct {
	Name             string
	Location         *time.Location
	MorningStartHour int
	NightStartHour   int
	FetchMode        FetchMode
	FetchOffsetHour  int
}

// DashboardPolicy is morning [06:00,14:00), night [14:00,06:00), same-day fetch.
func DashboardPolicy(loc *time.Location) Policy {
	return Policy{
		Name:             "dashboard",
		Location:         loc,
		MorningStartHour: DashboardMorningHour,
		NightStartHour:   DashboardNightHour,
		FetchMode:        FetchSameDay,
	}
}

// InventoryPolicy is morning [10:00,22:00), night [22:00,10:00), with a rolling
// fetch window starting at 15:00 local.
func InventoryPolicy(loc *time.Location) Policy {
	return Policy{
		Name:             "inventory",
		Location:         loc,
		MorningStartHour: InventoryMorningHour,
		NightStartHour:   InventoryNightHour,
		FetchMode:        FetchRollingOffset,
		FetchOffsetHour:  InventoryFetchOffset,
	}
}

// Validate checks the policy once so that resolving never fails afterwards.
func (p Policy) Validate() error {
	if p.Location == nil {
		return &ConfigurationError{Policy: p.Name, Field: "timezone", Reason: "location is required"}
	}
	if !validHour(p.MorningStartHour) {
		return &ConfigurationError{Policy: p.Name, Field: "morning_start_hour", Reason: fmt.Sprintf("%d is not an hour", p.MorningStartHour)}
	}
	if !validHour(p.NightStartHour) {
		return &ConfigurationError{Policy: p.Name, Field: "night_start_hour", Reason: fmt.Sprintf("%d is not an hour", p.NightStartHour)}
	}
	if p.MorningStartHour >= p.NightStartHour {
		return &ConfigurationError{Policy: p.Name, Field: "night_start_hour", Reason: "night must start after morning"}
	}

	switch p.FetchMode {
	case FetchSameDay:
	case FetchRollingOffset:
		if !validHour(p.FetchOffsetHour) {
			return &ConfigurationError{Policy: p.Name, Field: "fetch_offset_hour", Reason: fmt.Sprintf("%d is not an hour", p.FetchOffsetHour)}
		}
	default:
		return &ConfigurationError{Policy: p.Name, Field: "fetch_mode", Reason: fmt.Sprintf("unknown mode %q", p.FetchMode)}
	}

	return nil
}

// ParseFetchMode converts a configuration string into a FetchMode.
func ParseFetchMode(value string) (FetchMode, error) {
	switch FetchMode(value) {
	case FetchSameDay, FetchRollingOffset:
		return FetchMode(value), nil
	default:
		return "", &ConfigurationError{Field: "fetch_mode", Reason: fmt.Sprintf("unknown mode %q", value)}
	}
}

// LoadLocation resolves an IANA zone name.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		return nil, &ConfigurationError{Field: "timezone", Reason: "zone name is empty"}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigurationError{Field: "timezone", Reason: fmt.Sprintf("unknown zone %q", name), Err: err}
	}
	return loc, nil
}

// ConfigurationError reports an unusable shift configuration.
type ConfigurationError struct {
	Policy string
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	prefix := "shift policy"
	if e.Policy != "" {
		prefix = fmt.Sprintf("shift policy %s", e.Policy)
	}
	return fmt.Sprintf("%s: invalid %s: %s", prefix, e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func validHour(h int) bool {
	return h >= 0 && h <= 23
}
