package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	control "flightctl-core/flight_loop/cascade_control"
)

// Config is the runtime configuration of the flight loop: bus settings plus
// the gain set and airframe parameters the controller is constructed with.
type Config struct {
	Bus     BusConfig                 `yaml:"bus"`
	Gains   control.GainSet           `yaml:"gains"`
	Vehicle control.VehicleParameters `yaml:"vehicle"`
}

// BusConfig describes the flight-stack CAN interface.
type BusConfig struct {
	Interface      string `yaml:"interface"`
	MapPath        string `yaml:"map"`
	CommandFrame   string `yaml:"command_frame"`
	StateTimeoutMS int    `yaml:"state_timeout_ms"`
}

// StateTimeout returns the staleness threshold for estimator feedback.
func (b BusConfig) StateTimeout() time.Duration {
	return time.Duration(b.StateTimeoutMS) * time.Millisecond
}

// LoadConfig reads the YAML configuration and fills in defaults for
// anything left unset.
func LoadConfig(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	if cfg.Bus.MapPath == "" {
		return Config{}, fmt.Errorf("bus.map is required")
	}
	if cfg.Bus.Interface == "" {
		cfg.Bus.Interface = "vcan0"
	}
	if cfg.Bus.CommandFrame == "" {
		cfg.Bus.CommandFrame = "ACTUATOR_CMD_1"
	}
	if cfg.Bus.StateTimeoutMS <= 0 {
		cfg.Bus.StateTimeoutMS = 500
	}
	if cfg.Gains == (control.GainSet{}) {
		cfg.Gains = control.DefaultGains()
	}
	if cfg.Vehicle == (control.VehicleParameters{}) {
		cfg.Vehicle = control.DefaultVehicleParameters()
	}
	if err := cfg.Vehicle.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}
