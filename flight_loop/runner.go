package main

import (
	"context"
	"fmt"
	"time"

	"flightctl-core/canbus"
	control "flightctl-core/flight_loop/cascade_control"
	"flightctl-core/utils"
)

// Vehicle-state frames published by the estimator.
const (
	framePos  = "FLIGHT_POS_1"
	frameVel  = "FLIGHT_VEL_1"
	frameAtt  = "FLIGHT_ATT_1"
	frameRate = "FLIGHT_RATE_1"
)

type RunnerConfig struct {
	ConfigPath  string
	MissionPath string
}

type Runner struct {
	cfg     Config
	log     *utils.Logger
	bmap    *canbus.BusMap
	mission Mission
	traj    control.Trajectory
	ctrl    *control.NonlinearController
	writer  canbus.FrameWriter
	reader  canbus.FrameReader
	cmd     *canbus.Frame
}

func NewRunner(ctx context.Context, rc RunnerConfig, log *utils.Logger) (*Runner, error) {
	cfg, err := LoadConfig(rc.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	bmap, err := canbus.LoadBusMap(cfg.Bus.MapPath)
	if err != nil {
		return nil, fmt.Errorf("load bus map: %w", err)
	}

	mission, err := LoadMission(rc.MissionPath)
	if err != nil {
		return nil, fmt.Errorf("load mission: %w", err)
	}

	cmd, err := bmap.FrameByName(cfg.Bus.CommandFrame)
	if err != nil {
		return nil, fmt.Errorf("command frame: %w", err)
	}
	if cmd.CycleMS <= 0 {
		return nil, fmt.Errorf("frame %s has invalid cycle_ms %d", cmd.Name, cmd.CycleMS)
	}

	ctrl, err := control.NewNonlinearController(cfg.Gains, cfg.Vehicle)
	if err != nil {
		return nil, err
	}

	writer, err := canbus.NewSocketWriter(ctx, cfg.Bus.Interface)
	if err != nil {
		return nil, err
	}
	reader, err := canbus.NewSocketReader(ctx, cfg.Bus.Interface)
	if err != nil {
		writer.Close()
		return nil, err
	}

	return &Runner{
		cfg:     cfg,
		log:     log,
		bmap:    bmap,
		mission: mission,
		traj:    mission.Trajectory(),
		ctrl:    ctrl,
		writer:  writer,
		reader:  reader,
		cmd:     cmd,
	}, nil
}

func (r *Runner) Close() {
	if r.reader != nil {
		_ = r.reader.Close()
	}
	if r.writer != nil {
		_ = r.writer.Close()
	}
}

// stateUpdate is one decoded vehicle-state frame from the RX loop.
type stateUpdate struct {
	frame  string
	values map[string]float64
	at     time.Time
}

// stateTracker folds per-frame estimator updates into the latest complete
// VehicleState. The controller only runs once every state frame has been
// seen at least once.
type stateTracker struct {
	state control.VehicleState
	seen  map[string]bool
	last  time.Time
}

func newStateTracker() *stateTracker {
	return &stateTracker{seen: map[string]bool{}}
}

func (st *stateTracker) apply(u stateUpdate) {
	switch u.frame {
	case framePos:
		st.state.Position.X = u.values["pos_north_m"]
		st.state.Position.Y = u.values["pos_east_m"]
		st.state.Position.Z = u.values["pos_down_m"]
	case frameVel:
		st.state.Velocity.X = u.values["vel_north_mps"]
		st.state.Velocity.Y = u.values["vel_east_mps"]
		st.state.Velocity.Z = u.values["vel_down_mps"]
	case frameAtt:
		st.state.Attitude.Roll = u.values["roll_rad"]
		st.state.Attitude.Pitch = u.values["pitch_rad"]
		st.state.Attitude.Yaw = u.values["yaw_rad"]
	case frameRate:
		st.state.Rates.X = u.values["rate_p_rps"]
		st.state.Rates.Y = u.values["rate_q_rps"]
		st.state.Rates.Z = u.values["rate_r_rps"]
	default:
		return
	}
	st.seen[u.frame] = true
	st.last = u.at
}

func (st *stateTracker) complete() bool {
	return st.seen[framePos] && st.seen[frameVel] && st.seen[frameAtt] && st.seen[frameRate]
}

func (r *Runner) Run(ctx context.Context) error {
	r.log.Info("Starting flight loop: mission=%s cmd=%s id=0x%X cycle_ms=%d iface=%s duration=%.2fs",
		r.mission.Meta.Name, r.cmd.Name, r.cmd.ID, r.cmd.CycleMS,
		r.cfg.Bus.Interface, r.mission.Timing.DurationS)

	if start := r.traj.StartTime(); start > 0 {
		r.log.Info("Mission timeline starts at t=%.2fs; holding first waypoint until then", start)
	}

	start := time.Now()
	ticker := time.NewTicker(time.Duration(r.cmd.CycleMS) * time.Millisecond)
	defer ticker.Stop()

	endAfter := time.Duration(r.mission.Timing.DurationS * float64(time.Second))

	tracker := newStateTracker()
	updates := make(chan stateUpdate, 100)
	go r.receiveLoop(ctx, updates)

	var (
		sent     uint64
		faults   uint64
		lastGood control.ControlOutput
		haveGood bool
	)

	for {
		select {
		case <-ctx.Done():
			r.log.Warn("Context canceled; stopping flight loop")
			r.log.Info("Flight loop done. frames_sent=%d faults=%d", sent, faults)
			return ctx.Err()

		case u := <-updates:
			tracker.apply(u)

		case now := <-ticker.C:
			elapsed := now.Sub(start)
			if elapsed > endAfter {
				r.log.Info("Mission complete. frames_sent=%d faults=%d", sent, faults)
				return nil
			}

			if !tracker.complete() {
				if sent == 0 && elapsed > time.Second {
					r.log.Warn("Waiting for first complete vehicle state (%.1fs elapsed)", elapsed.Seconds())
				}
				continue
			}
			if age := now.Sub(tracker.last); age > r.cfg.Bus.StateTimeout() {
				r.log.Warn("Vehicle state stale for %.0f ms", age.Seconds()*1000)
			}

			t := elapsed.Seconds()
			out, err := r.ctrl.Update(tracker.state, r.traj, t)
			if err != nil {
				faults++
				r.log.Error("Control fault at t=%.3f (holding last command): %v", t, err)
				if !haveGood {
					// Nothing safe to hold yet; skip this tick.
					continue
				}
				out = lastGood
			} else {
				lastGood = out
				haveGood = true
			}

			frame, err := r.bmap.Encode(r.cmd.Name, map[string]float64{
				"thrust_n":        out.Thrust,
				"moment_roll_nm":  out.Moment.X,
				"moment_pitch_nm": out.Moment.Y,
				"moment_yaw_nm":   out.Moment.Z,
			})
			if err != nil {
				r.log.Error("Encode failed at t=%.3f: %v", t, err)
				return err
			}

			if err := r.writer.WriteFrame(ctx, frame); err != nil {
				r.log.Critical("Transmit failed at t=%.3f: %v", t, err)
				return err
			}

			sent++
			if sent%100 == 0 {
				r.log.Debug("t=%.2f thrust=%.3fN moments=(%.4f, %.4f, %.4f)Nm pos=(%.2f, %.2f, %.2f)",
					t, out.Thrust, out.Moment.X, out.Moment.Y, out.Moment.Z,
					tracker.state.Position.X, tracker.state.Position.Y, tracker.state.Position.Z)
			}
			r.log.Trace("TX t=%.3f id=0x%X data=% X", t, uint32(frame.ID), frame.Data[:frame.Length])
		}
	}
}

// receiveLoop reads bus frames and forwards decoded estimator updates.
func (r *Runner) receiveLoop(ctx context.Context, updates chan<- stateUpdate) {
	r.log.Debug("RX loop started")
	defer r.log.Debug("RX loop stopped")

	for {
		if ctx.Err() != nil {
			return
		}

		frame, err := r.reader.ReadFrame(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error("RX error: %v", err)
			continue
		}

		fd, err := r.bmap.FrameByID(uint32(frame.ID))
		if err != nil || fd.Direction != "rx" {
			continue
		}

		values, err := r.bmap.Decode(frame)
		if err != nil {
			r.log.Error("Decode 0x%X failed: %v", uint32(frame.ID), err)
			continue
		}

		select {
		case updates <- stateUpdate{frame: fd.Name, values: values, at: time.Now()}:
		default:
			// Channel full; the next update supersedes this one anyway.
		}
	}
}
