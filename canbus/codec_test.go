package canbus

import (
	"math"
	"testing"

	"go.einride.tech/can"
)

func TestEncodeDecode_ActuatorCommand(t *testing.T) {
	m := loadTestMap(t)

	in := map[string]float64{
		"thrust_n":        4.905,
		"moment_roll_nm":  -0.0125,
		"moment_pitch_nm": 0.02,
		"moment_yaw_nm":   -1.0,
	}
	frame, err := m.Encode("ACTUATOR_CMD_1", in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if uint32(frame.ID) != 0x201 || frame.Length != 8 {
		t.Fatalf("frame id=0x%X len=%d want 0x201/8", uint32(frame.ID), frame.Length)
	}

	out, err := m.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for name, want := range in {
		got, ok := out[name]
		if !ok {
			t.Fatalf("decoded values missing %s", name)
		}
		// Round trip is exact to within half a quantization step.
		if math.Abs(got-want) > 0.0001 {
			t.Fatalf("%s=%v want %v", name, got, want)
		}
	}
}

func TestEncode_ClampsToSignalRange(t *testing.T) {
	m := loadTestMap(t)

	frame, err := m.Encode("ACTUATOR_CMD_1", map[string]float64{
		"thrust_n":        -7.0, // below min 0
		"moment_roll_nm":  9.0,  // above max 3
		"moment_pitch_nm": 0,
		"moment_yaw_nm":   0,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := m.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if out["thrust_n"] != 0 {
		t.Fatalf("thrust_n=%v want clamp at 0", out["thrust_n"])
	}
	if math.Abs(out["moment_roll_nm"]-3.0) > 0.0001 {
		t.Fatalf("moment_roll_nm=%v want clamp at 3", out["moment_roll_nm"])
	}
}

func TestEncode_MissingSignal(t *testing.T) {
	m := loadTestMap(t)
	_, err := m.Encode("ACTUATOR_CMD_1", map[string]float64{"thrust_n": 1})
	if err == nil {
		t.Fatalf("expected error for missing moment signals")
	}
}

func TestEncode_RejectsNaN(t *testing.T) {
	m := loadTestMap(t)
	_, err := m.Encode("ACTUATOR_CMD_1", map[string]float64{
		"thrust_n":        math.NaN(),
		"moment_roll_nm":  0,
		"moment_pitch_nm": 0,
		"moment_yaw_nm":   0,
	})
	if err == nil {
		t.Fatalf("expected error for NaN value")
	}
}

func TestDecode_SignedSignal(t *testing.T) {
	m := loadTestMap(t)

	// roll_rad = -1.5708 → raw -15708 little-endian in bytes 0..1.
	raw := int16(-15708)
	var frame can.Frame
	frame.ID = 0x312
	frame.Length = 6
	frame.Data[0] = byte(uint16(raw))
	frame.Data[1] = byte(uint16(raw) >> 8)

	out, err := m.Decode(frame)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if math.Abs(out["roll_rad"]-(-1.5708)) > 1e-9 {
		t.Fatalf("roll_rad=%v want -1.5708", out["roll_rad"])
	}
	if out["pitch_rad"] != 0 || out["yaw_rad"] != 0 {
		t.Fatalf("pitch/yaw=%v/%v want 0", out["pitch_rad"], out["yaw_rad"])
	}
}

func TestDecode_UnknownFrame(t *testing.T) {
	m := loadTestMap(t)
	var frame can.Frame
	frame.ID = 0x7FF
	frame.Length = 8
	if _, err := m.Decode(frame); err == nil {
		t.Fatalf("expected error for unknown frame id")
	}
}
