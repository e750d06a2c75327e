package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/golang/geo/r3"

	control "flightctl-core/flight_loop/cascade_control"
)

// Mission defines a complete flight: metadata, timing and the timed
// waypoint list the planner hands to the controller.
type Mission struct {
	Meta      MissionMeta       `json:"meta"`
	Timing    MissionTiming     `json:"timing"`
	Waypoints []MissionWaypoint `json:"waypoints"`
}

// MissionMeta contains mission metadata.
type MissionMeta struct {
	Name        string `json:"name"`
	Version     int    `json:"version"`
	Description string `json:"description"`
}

// MissionTiming defines timing parameters.
type MissionTiming struct {
	DurationS float64 `json:"duration_s"`
}

// MissionWaypoint is one trajectory sample: NED position in meters, yaw in
// radians, at mission time t seconds.
type MissionWaypoint struct {
	T      float64 `json:"t"`
	North  float64 `json:"north_m"`
	East   float64 `json:"east_m"`
	Down   float64 `json:"down_m"`
	YawRad float64 `json:"yaw_rad"`
}

// LoadMission loads a mission from a JSON file and validates it.
func LoadMission(path string) (Mission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Mission{}, fmt.Errorf("read file: %w", err)
	}

	var m Mission
	if err := json.Unmarshal(data, &m); err != nil {
		return Mission{}, fmt.Errorf("unmarshal: %w", err)
	}

	if len(m.Waypoints) == 0 {
		return Mission{}, fmt.Errorf("mission has no waypoints")
	}
	if m.Timing.DurationS <= 0 {
		// Default: fly until the last waypoint.
		m.Timing.DurationS = m.Waypoints[len(m.Waypoints)-1].T
	}
	if m.Timing.DurationS <= 0 {
		return Mission{}, fmt.Errorf("invalid duration_s: %f", m.Timing.DurationS)
	}

	if err := m.Trajectory().Validate(); err != nil {
		return Mission{}, err
	}

	return m, nil
}

// Trajectory converts the waypoint list to the controller's trajectory
// representation.
func (m Mission) Trajectory() control.Trajectory {
	tr := make(control.Trajectory, len(m.Waypoints))
	for i, wp := range m.Waypoints {
		tr[i] = control.Waypoint{
			Time:     wp.T,
			Position: r3.Vector{X: wp.North, Y: wp.East, Z: wp.Down},
			Yaw:      wp.YawRad,
		}
	}
	return tr
}
