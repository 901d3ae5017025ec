package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openplacer/tapefeeder/internal/feeder"
	"github.com/openplacer/tapefeeder/internal/sim"
	"github.com/openplacer/tapefeeder/internal/units"
	"github.com/openplacer/tapefeeder/internal/vision"
)

var (
	feedCycles int
	feedVision bool
	driftX     float64
	driftY     float64
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Run feed cycles against the simulated machine",
	Long: `Feed runs one or more feed cycles on the simulated machine and prints
the corrected pick location of each cycle.

With --vision the simulated tape feature is placed --drift-x/--drift-y
millimeters away from the nominal pick location and the full correction
loop runs: camera positioning, template matching over rendered frames,
and offset application.

Example:
  feedctl feed --cycles 3
  feedctl feed --vision --drift-x 0.3 --drift-y -0.2`,
	RunE: runFeed,
}

func init() {
	feedCmd.Flags().IntVar(&feedCycles, "cycles", 1, "number of feed cycles to run")
	feedCmd.Flags().BoolVar(&feedVision, "vision", false, "enable vision correction")
	feedCmd.Flags().Float64Var(&driftX, "drift-x", 0, "simulated tape drift in X (mm)")
	feedCmd.Flags().Float64Var(&driftY, "drift-y", 0, "simulated tape drift in Y (mm)")
}

func runFeed(cmd *cobra.Command, args []string) error {
	machine := sim.NewMachine()

	f := feeder.NewTapeFeeder("sim")
	f.SetFeedStartLocation(units.NewLocation(units.Millimeters, 30, 40, 5, 0))
	f.SetFeedEndLocation(units.NewLocation(units.Millimeters, 30, 36, 5, 0))
	f.SetFeedRate(units.NewLength(5, units.Millimeters))
	f.SetActuatorID("pin")

	pick := units.NewLocation(units.Millimeters, 10, 15, 5, 0)

	if feedVision {
		cfg := f.Vision()
		cfg.Enabled = true
		cfg.AreaOfInterest = vision.Region{X: 0, Y: 0, Width: 100, Height: 100}
		cfg.SetTemplate(machine.Camera().Template())
		machine.Camera().SetFeature(units.NewLocation(units.Millimeters, pick.X+driftX, pick.Y+driftY, 0, 0))
	}

	for i := 1; i <= feedCycles; i++ {
		corrected, err := f.Feed(machine.Head(), pick)
		if err != nil {
			return fmt.Errorf("cycle %d: %w", i, err)
		}
		fmt.Printf("cycle %d: pick location %s\n", i, corrected)
	}
	return nil
}
