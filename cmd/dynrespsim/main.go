package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dynrespsim",
	Short: "Dynamic response simulator",
	Long: `dynrespsim synthesizes complex-valued dynamic spectra as produced by a
scintillating point source seen through a turbulent medium. It walks a
parabolic scintillation arc through the delay-Doppler plane, deposits
randomized-phase impulses along it, and Fourier transforms the wavefield
into a frequency-time dynamic spectrum.

The output feeds analysis pipelines that estimate scintillation-arc
curvature from real observations.`,
}

func main() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process-wide structured logger.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
