package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"flightctl-core/utils"
)

func main() {
	var (
		cfgPath     = flag.String("config", "config/flightctl.yaml", "Runtime configuration YAML")
		missionPath = flag.String("mission", "missions/box_climb_30s.json", "Mission JSON file")
		logLevel    = flag.String("log", "info", "trace|debug|info|warn|error|critical")
	)
	flag.Parse()

	log, err := utils.NewFileLogger("flight_loop.log", utils.ParseLevel(*logLevel), true)
	if err != nil {
		_, _ = os.Stderr.WriteString("ERROR: cannot open flight_loop.log: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner, err := NewRunner(ctx, RunnerConfig{
		ConfigPath:  *cfgPath,
		MissionPath: *missionPath,
	}, log)
	if err != nil {
		log.Critical("Startup failed: %v", err)
		os.Exit(1)
	}
	defer runner.Close()

	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		log.Critical("Run failed: %v", err)
		os.Exit(1)
	}
}
