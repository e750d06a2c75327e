package control

import "fmt"

// GainSet holds the twelve control gains of the cascade. It is fixed at
// construction time; control calls never mutate it, so a single GainSet may
// be shared by loops running at different rates without synchronization.
type GainSet struct {
	// Lateral position loop (PD per horizontal axis)
	PosNorthKp float64 `yaml:"pos_north_kp" json:"pos_north_kp"`
	PosNorthKd float64 `yaml:"pos_north_kd" json:"pos_north_kd"`
	PosEastKp  float64 `yaml:"pos_east_kp" json:"pos_east_kp"`
	PosEastKd  float64 `yaml:"pos_east_kd" json:"pos_east_kd"`

	// Altitude loop (PD)
	AltKp float64 `yaml:"alt_kp" json:"alt_kp"`
	AltKd float64 `yaml:"alt_kd" json:"alt_kd"`

	// Attitude loop (P on the tilt vector) plus yaw
	RollKp  float64 `yaml:"roll_kp" json:"roll_kp"`
	PitchKp float64 `yaml:"pitch_kp" json:"pitch_kp"`
	YawKp   float64 `yaml:"yaw_kp" json:"yaw_kp"`

	// Body-rate loop (P per axis)
	RollRateKp  float64 `yaml:"roll_rate_kp" json:"roll_rate_kp"`
	PitchRateKp float64 `yaml:"pitch_rate_kp" json:"pitch_rate_kp"`
	YawRateKp   float64 `yaml:"yaw_rate_kp" json:"yaw_rate_kp"`
}

// DefaultGains returns a gain set tuned for a 0.5 kg quad.
func DefaultGains() GainSet {
	return GainSet{
		PosNorthKp:  1.0,
		PosNorthKd:  1.0,
		PosEastKp:   1.0,
		PosEastKd:   1.0,
		AltKp:       9.0,
		AltKd:       4.8,
		RollKp:      0.5,
		PitchKp:     0.5,
		YawKp:       8.0,
		RollRateKp:  0.1,
		PitchRateKp: 0.2,
		YawRateKp:   0.1,
	}
}

// VehicleParameters holds the physical constants of the airframe. Passing
// them explicitly (rather than package-level constants) keeps one controller
// binary reusable across vehicle configurations.
type VehicleParameters struct {
	MassKg      float64 `yaml:"mass_kg" json:"mass_kg"`
	GravityMPS2 float64 `yaml:"gravity_mps2" json:"gravity_mps2"`
	MaxThrustN  float64 `yaml:"max_thrust_n" json:"max_thrust_n"`
	MaxTorqueNm float64 `yaml:"max_torque_nm" json:"max_torque_nm"`
}

// DefaultVehicleParameters returns parameters for the reference airframe.
func DefaultVehicleParameters() VehicleParameters {
	return VehicleParameters{
		MassKg:      0.5,
		GravityMPS2: 9.81,
		MaxThrustN:  10.0,
		MaxTorqueNm: 1.0,
	}
}

// Validate checks that the parameters describe a physical vehicle.
func (v VehicleParameters) Validate() error {
	if v.MassKg <= 0 {
		return fmt.Errorf("invalid mass_kg: %f", v.MassKg)
	}
	if v.GravityMPS2 <= 0 {
		return fmt.Errorf("invalid gravity_mps2: %f", v.GravityMPS2)
	}
	if v.MaxThrustN <= 0 {
		return fmt.Errorf("invalid max_thrust_n: %f", v.MaxThrustN)
	}
	if v.MaxTorqueNm <= 0 {
		return fmt.Errorf("invalid max_torque_nm: %f", v.MaxTorqueNm)
	}
	return nil
}
