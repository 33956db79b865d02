package main

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/sosl/pycyc/internal/container"
	"github.com/sosl/pycyc/internal/metrics"
	"github.com/sosl/pycyc/internal/sim"
)

var runFlags struct {
	archivePath string
	source      string
	nchan       int
	bandwidth   float64
	centreFreq  float64

	samplingInterval float64
	ntime            int
	curvature        float64
	decay            float64
	seed             int64

	output   string
	verify   bool
	count    int
	outDir   string
	maxFiles int
	workers  int
	verbose  bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate simulated dynamic spectra and write them to disk",
	RunE:  runSimulation,
}

func init() {
	f := runCmd.Flags()

	f.StringVarP(&runFlags.archivePath, "archive", "a", "", "YAML archive file supplying input geometry")
	f.StringVar(&runFlags.source, "source", "", "override the source name")
	f.IntVar(&runFlags.nchan, "nchan", 0, "override the channel count")
	f.Float64Var(&runFlags.bandwidth, "bw", 0, "override the bandwidth in MHz")
	f.Float64Var(&runFlags.centreFreq, "cfreq", 0, "override the centre frequency in MHz")

	f.Float64VarP(&runFlags.samplingInterval, "tsamp", "t", 15.0, "sampling interval in seconds")
	f.IntVarP(&runFlags.ntime, "ntime", "n", 256, "number of time samples")
	f.Float64Var(&runFlags.curvature, "curvature", 0, "arc curvature in s^3 (0 = geometry-derived default)")
	f.Float64Var(&runFlags.decay, "decay", 0, "impulse-response decay timescale in s (0 = geometry-derived default)")
	f.Int64Var(&runFlags.seed, "seed", 0, "random seed (0 = seed from the clock)")

	f.StringVarP(&runFlags.output, "output", "o", "dyn_resp_sim.dat", "output file for a single realization")
	f.BoolVar(&runFlags.verify, "verify", false, "reload the saved file and check bit-exact recovery")
	f.IntVar(&runFlags.count, "count", 1, "number of independent realizations to generate")
	f.StringVar(&runFlags.outDir, "outdir", "dynresp-out", "output directory for batch realizations")
	f.IntVar(&runFlags.maxFiles, "max-files", 64, "maximum batch files kept in the output directory")
	f.IntVar(&runFlags.workers, "workers", runtime.NumCPU(), "batch worker pool size")
	f.BoolVarP(&runFlags.verbose, "verbose", "v", false, "enable debug logging")
}

// loadArchive resolves the input geometry from the archive file (when
// given) and the command-line overrides.
func loadArchive() (container.Archive, error) {
	archive := container.DefaultArchive()
	if runFlags.archivePath != "" {
		a, err := container.LoadArchive(runFlags.archivePath)
		if err != nil {
			return container.Archive{}, err
		}
		archive = a
	}

	if runFlags.source != "" {
		archive.Source = runFlags.source
	}
	if runFlags.nchan > 0 {
		archive.NChan = runFlags.nchan
	}
	if runFlags.bandwidth > 0 {
		archive.Bandwidth = runFlags.bandwidth
	}
	if runFlags.centreFreq > 0 {
		archive.CentreFrequency = runFlags.centreFreq
	}

	return archive, archive.Validate()
}

func runSimulation(cmd *cobra.Command, args []string) error {
	logger := newLogger(runFlags.verbose)

	archive, err := loadArchive()
	if err != nil {
		return err
	}

	geom := archive.Geometry(runFlags.ntime, runFlags.samplingInterval)
	params := sim.Params{Curvature: runFlags.curvature, Decay: runFlags.decay}

	logger.Info("input geometry",
		"source", archive.Source,
		"nchan", geom.NChan,
		"ntime", geom.NTime,
		"bandwidth_mhz", geom.Bandwidth,
		"centre_frequency_mhz", geom.CentreFrequency,
		"tsamp_s", geom.SamplingInterval,
	)

	if runFlags.count > 1 {
		return runBatch(cmd.Context(), logger, archive, params)
	}

	res, err := sim.New(logger).Run(geom, params, runFlags.seed)
	if err != nil {
		return err
	}

	resp, err := container.NewDynamicResponse(geom, res.Grid.Data())
	if err != nil {
		return err
	}

	if err := resp.Save(runFlags.output); err != nil {
		return err
	}
	logger.Info("saved dynamic spectrum",
		"path", runFlags.output,
		"deposits", res.Walk.Deposits,
		"min_freq_mhz", resp.MinFrequency,
		"max_freq_mhz", resp.MaxFrequency,
	)

	if runFlags.verify {
		reloaded, err := container.Load(runFlags.output)
		if err != nil {
			return fmt.Errorf("verify: %w", err)
		}
		if !resp.Equal(reloaded) {
			return fmt.Errorf("verify: reloaded data differs from saved data")
		}
		logger.Info("round trip verified", "path", runFlags.output)
	}

	return nil
}

// runBatch generates count independent realizations through the worker
// pool and writes them to the output directory cache.
func runBatch(ctx context.Context, logger *slog.Logger, archive container.Archive, params sim.Params) error {
	geom := archive.Geometry(runFlags.ntime, runFlags.samplingInterval)

	// Per-realization seeds derive from the base seed so a batch is
	// reproducible as a whole.
	base := runFlags.seed
	if base <= 0 {
		base = time.Now().UnixNano()
	}
	seeds := make([]int64, runFlags.count)
	for i := range seeds {
		seeds[i] = base + int64(i)
	}

	workers := runFlags.workers
	if workers < 1 {
		workers = 1
	}
	metrics.SetBatchWorkersActive(workers)

	logger.Info("generating batch",
		"count", runFlags.count,
		"workers", workers,
		"outdir", runFlags.outDir,
	)

	start := time.Now()
	pool := sim.NewWorkerPool(workers, logger)
	results, ok, failed := pool.RunBatch(ctx, geom, params, seeds)

	cache := container.NewCache(runFlags.outDir, runFlags.maxFiles)
	ts := time.Now()
	written := 0
	for i, r := range results {
		if r == nil {
			continue
		}
		resp, err := container.NewDynamicResponse(geom, r.Grid.Data())
		if err != nil {
			return err
		}
		path, err := cache.Write(resp, ts, i)
		if err != nil {
			return err
		}
		logger.Debug("wrote realization", "index", i, "path", path)
		written++
	}

	logger.Info("batch complete",
		"success", ok,
		"failed", failed,
		"written", written,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if failed > 0 {
		return fmt.Errorf("%d of %d realizations failed", failed, runFlags.count)
	}
	return nil
}
