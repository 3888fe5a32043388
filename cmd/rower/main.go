// Command rower runs one live rowing session: it connects to a pigpio
// daemon watching the flywheel's optical sensor, feeds every pulse through
// a workout.Tracker, prints a running summary, and on a clean shutdown
// (Ctrl-C) saves the raw pulse stream so the session can be replayed or
// analyzed later.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/sergiomo/diy-rower-monitor/internal/config"
	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
	"github.com/sergiomo/diy-rower-monitor/internal/monitoring"
	"github.com/sergiomo/diy-rower-monitor/internal/pulsesource"
	"github.com/sergiomo/diy-rower-monitor/internal/rawlog"
	"github.com/sergiomo/diy-rower-monitor/internal/units"
	"github.com/sergiomo/diy-rower-monitor/internal/version"
	"github.com/sergiomo/diy-rower-monitor/internal/workout"
)

var (
	configPath  = flag.String("config", "rower.yaml", "path to the session's YAML configuration file")
	speedUnits  = flag.String("units", units.MPS, "units for the printed boat speed (mps, mph, kmph)")
	versionFlag = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("rower v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid -units %q: valid options are %s", *speedUnits, units.GetValidUnitsString())
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	estimator, err := cfg.DampingEstimator()
	if err != nil {
		log.Fatalf("resolving damping estimator: %v", err)
	}

	tracker := workout.New(cfg.NumFlywheelEncoderPulsesPerRevolution, cfg.FlywheelMomentOfInertia, estimator, cfg.GetMinimumStrokeDuration())
	tracker.SetObserver(workout.ObserverFunc(printProgress(*speedUnits)))

	source := &pulsesource.LiveSource{
		IPAddress:          cfg.IPAddress,
		Port:               cfg.PigpioDaemonPort,
		GPIOPin:            uint32(cfg.GPIOPinNumber),
		GlitchFilterMicros: cfg.GetGlitchFilterMicros(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startedAt := time.Now()
	if err := source.Start(tracker.HandlePulse); err != nil {
		log.Fatalf("starting pulse source: %v", err)
	}
	log.Printf("rower session %s started, connected to %s:%d", tracker.ID(), cfg.IPAddress, cfg.PigpioDaemonPort)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		log.Printf("shutting down, saving session...")
		if err := source.Stop(); err != nil {
			monitoring.Logf("stopping pulse source: %v", err)
		}
	}()
	wg.Wait()

	path, err := rawlog.Save(fsutil.OSFileSystem{}, cfg.LogFolderPath, startedAt, tracker.RawTicks())
	if err != nil {
		log.Fatalf("saving session log: %v", err)
	}
	log.Printf("session %s saved to %s", tracker.ID(), path)
	os.Exit(0)
}

// printProgress returns an Observer callback that prints the current
// stroke count and boat speed in the requested units after every pulse.
func printProgress(speedUnits string) func(w *workout.Tracker) {
	return func(w *workout.Tracker) {
		boatSpeed := w.Boat().Speed()
		if boatSpeed.Len() == 0 {
			return
		}
		displaySpeed := units.ConvertSpeed(boatSpeed.Value(-1), speedUnits)
		fmt.Printf("\rstrokes: %d  boat speed: %.2f %s   ", len(w.Person().Strokes()), displaySpeed, speedUnits)
	}
}
