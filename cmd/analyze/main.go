// Command analyze replays a previously recorded raw-tick CSV through a
// workout.Tracker synchronously and prints summary statistics for the
// session, without needing the rowing machine or a live pigpio daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sergiomo/diy-rower-monitor/internal/config"
	"github.com/sergiomo/diy-rower-monitor/internal/fsutil"
	"github.com/sergiomo/diy-rower-monitor/internal/pulsesource"
	"github.com/sergiomo/diy-rower-monitor/internal/timeutil"
	"github.com/sergiomo/diy-rower-monitor/internal/units"
	"github.com/sergiomo/diy-rower-monitor/internal/workout"
)

var (
	configPath = flag.String("config", "rower.yaml", "path to the session's YAML configuration file")
	inputPath  = flag.String("input", "", "path to a raw-tick CSV recorded by the rower command")
	speedUnits = flag.String("units", units.MPS, "units for the printed boat speed statistics")
	paced      = flag.Bool("paced", false, "pause for config's replay_pacing_ms after each replayed pulse instead of replaying as fast as possible")
)

func main() {
	flag.Parse()
	if *inputPath == "" {
		log.Fatal("-input is required")
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

	replayOpts := pulsesource.ReplayOptions{
		FS:   fsutil.OSFileSystem{},
		Path: *inputPath,
	}
	if *paced {
		replayOpts.Clock = timeutil.RealClock{}
		replayOpts.PaceDelay = cfg.GetReplayPacingDelay()
	}
	source := pulsesource.NewReplaySource(replayOpts)
	if err := source.Start(tracker.HandlePulse); err != nil {
		log.Fatalf("replaying %s: %v", *inputPath, err)
	}

	printSummary(tracker, *speedUnits)
}

func printSummary(w *workout.Tracker, speedUnits string) {
	position := w.Boat().Position()
	strokes := w.Person().Strokes()

	var duration, totalDistance float64
	if position.Len() > 0 {
		duration = position.Timestamp(-1) - position.Timestamp(0)
		totalDistance = position.Value(-1)
	}

	var totalWork float64
	for _, s := range strokes {
		totalWork += s.WorkDoneByPerson
	}
	var averagePower float64
	if duration > 0 {
		averagePower = totalWork / duration
	}

	speedValues := append([]float64(nil), w.Boat().Speed().Values()...)
	sort.Float64s(speedValues)

	fmt.Printf("duration:        %.1f s\n", duration)
	fmt.Printf("distance:        %.1f m\n", totalDistance)
	fmt.Printf("strokes:         %d\n", len(strokes))
	fmt.Printf("average power:   %.1f W\n", averagePower)
	if len(speedValues) > 0 {
		fmt.Printf("boat speed p50:  %.2f %s\n", units.ConvertSpeed(quantile(0.50, speedValues), speedUnits), speedUnits)
		fmt.Printf("boat speed p85:  %.2f %s\n", units.ConvertSpeed(quantile(0.85, speedValues), speedUnits), speedUnits)
		fmt.Printf("boat speed p98:  %.2f %s\n", units.ConvertSpeed(quantile(0.98, speedValues), speedUnits), speedUnits)
	}
}

// quantile assumes sortedValues is already sorted, as stat.Quantile requires.
func quantile(p float64, sortedValues []float64) float64 {
	return stat.Quantile(p, stat.Empirical, sortedValues, nil)
}
