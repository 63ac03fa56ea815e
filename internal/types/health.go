package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// HealthState is the three-level component health used by the health
// endpoint and the CLI.
type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateDegraded  HealthState = "degraded"
	HealthStateUnhealthy HealthState = "unhealthy"
)

// stateRank orders states from best to worst for aggregation.
var stateRank = map[HealthState]int{
	HealthStateHealthy:   0,
	HealthStateDegraded:  1,
	HealthStateUnhealthy: 2,
}

// IsValid reports whether s is one of the three known states.
func (s HealthState) IsValid() bool {
	_, ok := stateRank[s]
	return ok
}

// UnmarshalJSON rejects unknown states so a bad payload cannot smuggle an
// unrankable state into aggregation.
func (s *HealthState) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	state := HealthState(str)
	if !state.IsValid() {
		return fmt.Errorf("invalid health state: %s", str)
	}
	*s = state
	return nil
}

// HealthStatus is the health of one component at one point in time.
type HealthStatus struct {
	State     HealthState `json:"state"`
	Message   string      `json:"message,omitempty"`
	CheckedAt time.Time   `json:"checked_at"`
}

// Healthy, Degraded, and Unhealthy build a status stamped with the current
// time.
func Healthy(message string) HealthStatus   { return newStatus(HealthStateHealthy, message) }
func Degraded(message string) HealthStatus  { return newStatus(HealthStateDegraded, message) }
func Unhealthy(message string) HealthStatus { return newStatus(HealthStateUnhealthy, message) }

func newStatus(state HealthState, message string) HealthStatus {
	return HealthStatus{State: state, Message: message, CheckedAt: time.Now()}
}

// SystemHealth aggregates per-component health; the overall state is the
// worst state any component reports.
type SystemHealth struct {
	State      HealthState             `json:"state"`
	Components map[string]HealthStatus `json:"components"`
	CheckedAt  time.Time               `json:"checked_at"`
}

// NewSystemHealth rolls components up into a system view. No components
// means healthy.
func NewSystemHealth(components map[string]HealthStatus) SystemHealth {
	overall := HealthStateHealthy
	for _, c := range components {
		if stateRank[c.State] > stateRank[overall] {
			overall = c.State
		}
	}
	return SystemHealth{
		State:      overall,
		Components: components,
		CheckedAt:  time.Now(),
	}
}
