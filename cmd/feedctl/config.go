package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openplacer/tapefeeder/internal/config"
)

var configResourceDir string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect feeder configuration files",
}

var configShowCmd = &cobra.Command{
	Use:   "show <feeder.xml>",
	Short: "Print a summary of a feeder configuration document",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigShow,
}

func init() {
	configShowCmd.Flags().StringVar(&configResourceDir, "resources", "", "template resource directory (default: alongside the document)")
	configCmd.AddCommand(configShowCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := args[0]
	dir := configResourceDir
	if dir == "" {
		dir = filepath.Dir(path)
	}

	f, err := config.LoadFeeder(path, config.NewStore(dir))
	if err != nil {
		return err
	}

	fmt.Printf("feeder:       %s\n", f.ID())
	fmt.Printf("feed start:   %s\n", f.FeedStartLocation())
	fmt.Printf("feed end:     %s\n", f.FeedEndLocation())
	if rate, ok := f.FeedRate(); ok {
		fmt.Printf("feed rate:    %s/s\n", rate)
	} else {
		fmt.Printf("feed rate:    (not set)\n")
	}
	if id := f.ActuatorID(); id != "" {
		fmt.Printf("actuator:     %s\n", id)
	} else {
		fmt.Printf("actuator:     (not set)\n")
	}

	v := f.Vision()
	fmt.Printf("vision:       enabled=%v\n", v.Enabled)
	if v.TemplateName != "" {
		fmt.Printf("template:     %s\n", v.TemplateName)
	}
	if !v.AreaOfInterest.Empty() {
		aoi := v.AreaOfInterest
		fmt.Printf("area:         (%d,%d) %dx%d px\n", aoi.X, aoi.Y, aoi.Width, aoi.Height)
	}
	return nil
}
