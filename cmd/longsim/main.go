package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/longsim/internal/analysis"
	"github.com/san-kum/longsim/internal/automation"
	"github.com/san-kum/longsim/internal/bucket"
	"github.com/san-kum/longsim/internal/config"
	"github.com/san-kum/longsim/internal/experiment"
	"github.com/san-kum/longsim/internal/report"
	"github.com/san-kum/longsim/internal/rf"
	"github.com/san-kum/longsim/internal/storage"
)

var (
	dataDir     string
	archivePath string
	verbose     bool

	configFile string
	preset     string
	turns      int
	voltage    float64
	metricList []string
	quiet      bool

	plotWidth  int
	plotHeight int

	sweepParam string
	sweepIndex int
	sweepFrom  float64
	sweepTo    float64
	sweepSteps int

	particle int
	svgPath  string

	mcPhi     float64
	mcDeltaE  float64
	mcPhiSpan float64
	mcDESpan  float64
	mcTrials  int
	mcSeed    int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "longsim",
		Short: "longitudinal beam dynamics in multi-harmonic rf systems",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "./runs", "data directory")
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "sqlite archive file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "track particles through the configured rf program",
		RunE:  runTracking,
	}
	addSetupFlags(runCmd)
	runCmd.Flags().IntVar(&turns, "turns", config.DefaultTurns, "number of turns")
	runCmd.Flags().StringSliceVar(&metricList, "metrics", []string{"capture", "hamiltonian_drift", "rms_phase", "rms_delta_e"}, "metrics to record")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "skip the phase portrait")
	addPortraitFlags(runCmd)

	bucketCmd := &cobra.Command{
		Use:   "bucket",
		Short: "show synchronous phase, buckets and separatrices",
		RunE:  showBucket,
	}
	addSetupFlags(bucketCmd)
	addPortraitFlags(bucketCmd)
	bucketCmd.Flags().StringVar(&sweepParam, "sweep", "", "sweep a parameter: phase, ratio, gain or voltage")
	bucketCmd.Flags().IntVar(&sweepIndex, "harmonic", 1, "harmonic index for phase/ratio sweeps")
	bucketCmd.Flags().Float64Var(&sweepFrom, "from", 0, "sweep start")
	bucketCmd.Flags().Float64Var(&sweepTo, "to", math.Pi, "sweep end")
	bucketCmd.Flags().IntVar(&sweepSteps, "steps", 9, "sweep points")

	voltageCmd := &cobra.Command{
		Use:   "voltage",
		Short: "plot the rf voltage and potential over one period",
		RunE:  plotVoltage,
	}
	addSetupFlags(voltageCmd)
	addPlotFlags(voltageCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "summarise a stored run and plot a particle's phase history",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&particle, "particle", 0, "particle index")
	addPortraitFlags(showCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id] [file]",
		Short: "export run data and separatrices to JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportJSON,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a scripted sequence of runs and store each",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	captureCmd := &cobra.Command{
		Use:   "capture",
		Short: "monte carlo capture study around a point in phase space",
		RunE:  runCapture,
	}
	addSetupFlags(captureCmd)
	addPlotFlags(captureCmd)
	captureCmd.Flags().IntVar(&turns, "turns", config.DefaultTurns, "number of turns")
	captureCmd.Flags().Float64Var(&mcPhi, "phi", 0, "centre phase")
	captureCmd.Flags().Float64Var(&mcDeltaE, "delta-e", 0, "centre energy offset")
	captureCmd.Flags().Float64Var(&mcPhiSpan, "phi-spread", 1, "half width in phase")
	captureCmd.Flags().Float64Var(&mcDESpan, "delta-e-spread", 1, "half width in energy offset")
	captureCmd.Flags().IntVar(&mcTrials, "trials", 1000, "number of particles")
	captureCmd.Flags().Int64Var(&mcSeed, "seed", 0, "random seed (0 = time based)")

	rootCmd.AddCommand(runCmd, bucketCmd, voltageCmd, listCmd, showCmd, presetsCmd, exportJSONCmd, scenarioCmd, captureCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSetupFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&configFile, "config", "c", "", "YAML run file")
	cmd.Flags().StringVarP(&preset, "preset", "p", "", "named preset")
	cmd.Flags().Float64Var(&voltage, "voltage", config.DefaultVoltage, "rf voltage amplitude")
}

func addPlotFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&plotWidth, "width", 72, "plot width")
	cmd.Flags().IntVar(&plotHeight, "height", 20, "plot height")
}

func addPortraitFlags(cmd *cobra.Command) {
	addPlotFlags(cmd)
	cmd.Flags().StringVar(&svgPath, "svg", "", "also write the phase portrait as SVG")
}

func printPortrait(portrait *analysis.PhasePortrait) error {
	fmt.Println()
	fmt.Println(analysis.PhasePortraitToASCII(portrait, plotWidth, plotHeight))
	if svgPath == "" {
		return nil
	}
	svg := analysis.PhasePortraitToSVG(portrait, 12*plotWidth, 30*plotHeight)
	if err := os.WriteFile(svgPath, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgPath)
	return nil
}

// loadConfig resolves preset, then config file, then flags that were set
// explicitly.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("voltage") {
		cfg.RF.Amplitude = voltage
	}
	if f := cmd.Flags().Lookup("turns"); f != nil && f.Changed {
		cfg.Turns = turns
	}
	return cfg, cfg.Validate()
}

func runTracking(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(metricList); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("tracking %s for %d turns...\n", cfg.Name, cfg.Turns)
	res, runErr := exp.Run(ctx)
	if res == nil {
		return runErr
	}

	meta := exp.Metadata(res)
	runID, err := st.Save(meta, res.History)
	if err != nil {
		return err
	}
	meta.ID = runID

	if archivePath != "" {
		if err := archiveRun(meta, res); err != nil {
			return err
		}
	}

	fmt.Println(report.Box("run "+runID, []report.Field{
		{Label: "turns", Value: fmt.Sprint(res.Turns)},
		{Label: "particles", Value: fmt.Sprint(len(res.Phi))},
		{Label: "snapshots", Value: fmt.Sprint(len(res.History))},
		{Label: "elapsed", Value: res.Elapsed.String()},
	}))
	fmt.Println(report.Box("synchronous particle", report.SynchronousFields(res.Synchronous)))
	if len(res.Metrics) > 0 {
		fmt.Println(report.Box("metrics", report.MetricFields(res.Metrics)))
	}
	if c, ok := res.Metrics["capture"]; ok {
		fmt.Printf("captured: %s\n", report.Capture(c))
	}

	if !quiet {
		portrait := analysis.PortraitFromHistory(res.History, -1)
		for _, s := range res.Separatrices {
			portrait.AddSeparatrix(s)
		}
		if err := printPortrait(portrait); err != nil {
			return err
		}
	}

	return runErr
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, runErr := automation.RunScenario(ctx, sc)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN\tTURNS\tPARTICLES\tCAPTURE")
	for _, r := range results {
		runID, err := st.Save(r.Metadata, r.Result.History)
		if err != nil {
			return err
		}
		if archivePath != "" {
			r.Metadata.ID = runID
			if err := archiveRun(r.Metadata, r.Result); err != nil {
				return err
			}
		}
		capture := "-"
		if c, ok := r.Result.Metrics["capture"]; ok {
			capture = fmt.Sprintf("%.3f", c)
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\n", r.Step, runID, r.Result.Turns, len(r.Result.Phi), capture)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	results, err := automation.RunMonteCarlo(ctx, &automation.MonteCarloConfig{
		Base:         cfg,
		Phi:          mcPhi,
		DeltaE:       mcDeltaE,
		PhiSpread:    mcPhiSpan,
		DeltaESpread: mcDESpan,
		Trials:       mcTrials,
		Seed:         mcSeed,
	})
	if err != nil {
		return err
	}

	captured, lost := automation.MonteCarloStats(results)
	fmt.Println(report.Box("capture "+cfg.Name, []report.Field{
		{Label: "turns", Value: fmt.Sprint(cfg.Turns)},
		{Label: "trials", Value: fmt.Sprint(len(results))},
		{Label: "captured", Value: fmt.Sprint(captured)},
		{Label: "lost", Value: fmt.Sprint(lost)},
	}))
	fmt.Printf("captured: %s\n", report.Capture(float64(captured)/float64(len(results))))

	portrait := &analysis.PhasePortrait{}
	for _, r := range results {
		if r.Captured {
			portrait.Points = append(portrait.Points, analysis.Point{X: r.Phi0, Y: r.DeltaE0})
		}
	}
	if m, err := bucket.New(cfg.RF, cfg.Machine, cfg.BucketOptions()); err == nil {
		if seps, err := m.Separatrices(); err == nil {
			for _, s := range seps {
				portrait.AddSeparatrix(s)
			}
		}
	}
	fmt.Println("\ninitial positions of captured particles:")
	fmt.Println(analysis.PhasePortraitToASCII(portrait, plotWidth, plotHeight))
	return nil
}

func archiveRun(meta storage.RunMetadata, res *experiment.Result) error {
	a, err := storage.OpenArchive(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	_, err = a.SaveRun(meta, res.History)
	return err
}

func showBucket(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if sweepParam != "" {
		return runSweep(cfg)
	}

	m, err := bucket.New(cfg.RF, cfg.Machine, cfg.BucketOptions())
	if err != nil {
		return err
	}

	fmt.Println(report.Box(cfg.Name, report.RFFields(cfg.RF, cfg.Machine)))
	fmt.Println(report.Box("synchronous particle", report.SynchronousFields(m.Synchronous())))

	seps, err := m.Separatrices()
	if err != nil {
		return err
	}
	fmt.Println(report.SeparatrixTable(seps))

	portrait := &analysis.PhasePortrait{}
	for _, s := range seps {
		portrait.AddSeparatrix(s)
	}
	return printPortrait(portrait)
}

func runSweep(cfg *config.Config) error {
	var set analysis.Setter
	switch sweepParam {
	case "phase":
		if sweepIndex < 0 || sweepIndex >= len(cfg.RF.Harmonics) {
			return fmt.Errorf("harmonic index %d out of range", sweepIndex)
		}
		set = analysis.HarmonicPhase(sweepIndex)
	case "ratio":
		if sweepIndex < 0 || sweepIndex >= len(cfg.RF.Harmonics) {
			return fmt.Errorf("harmonic index %d out of range", sweepIndex)
		}
		set = analysis.HarmonicRatio(sweepIndex)
	case "gain":
		set = analysis.EnergyGain
	case "voltage":
		set = analysis.Amplitude
	default:
		return fmt.Errorf("unknown sweep parameter: %s", sweepParam)
	}
	if sweepSteps < 2 {
		return fmt.Errorf("sweep needs at least 2 steps")
	}

	params := rf.Grid(sweepFrom, sweepTo, sweepSteps)
	points := analysis.Sweep(cfg.RF, cfg.Machine, cfg.BucketOptions(), set, params)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VALUE\tWELLS\tAREA\tHEIGHT\tNOTE")
	areas := make([]float64, 0, len(points))
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.5g\t-\t-\t-\t%v\n", p.Param, p.Err)
			areas = append(areas, 0)
			continue
		}
		fmt.Fprintf(w, "%.5g\t%d\t%.5g\t%.5g\t\n", p.Param, p.Wells, p.Area, p.Height)
		areas = append(areas, p.Area)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\narea  %s\n", report.Sparkline(areas, len(areas)))
	return nil
}

func plotVoltage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	period := cfg.RF.Period()
	grid := rf.Grid(-period/2, period/2, plotWidth)
	fmt.Println(asciigraph.Plot(cfg.RF.Sample(grid),
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption("V(phi)"),
	))
	fmt.Println()

	m, err := bucket.New(cfg.RF, cfg.Machine, cfg.BucketOptions())
	if err != nil {
		return err
	}
	potential, err := m.PotentialGrid(grid)
	if err != nil {
		return err
	}
	fmt.Println(asciigraph.Plot(potential,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("potential, phi_s = %.4f", m.Synchronous().Phase)),
	))
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	if archivePath != "" {
		return listArchive()
	}

	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tTURNS\tPARTICLES\tHARMONICS\tPHI_S")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\t%.4f\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Turns,
			run.Particles,
			run.RF.Harmonics,
			run.Synchronous.Phase,
		)
	}
	return w.Flush()
}

func listArchive() error {
	a, err := storage.OpenArchive(archivePath)
	if err != nil {
		return err
	}
	defer a.Close()

	runs, err := a.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCREATED\tTURNS\tPARTICLES\tSNAPSHOTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
			run.ID, run.Name, run.CreatedAt, run.Turns, run.Particles, run.Snapshots)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}

	fmt.Println(report.Box("run "+meta.ID, report.RFFields(meta.RF, meta.Machine)))
	if len(meta.Metrics) > 0 {
		fmt.Println(report.Box("metrics", report.MetricFields(meta.Metrics)))
	}

	if particle < 0 || particle >= meta.Particles {
		return fmt.Errorf("particle %d out of range [0, %d)", particle, meta.Particles)
	}
	series := make([]float64, 0, len(history))
	for _, s := range history {
		if particle < len(s.Phi) {
			series = append(series, s.Phi[particle])
		}
	}
	if len(series) == 0 {
		fmt.Println("no recorded turns")
		return nil
	}

	fmt.Println(asciigraph.Plot(series,
		asciigraph.Height(plotHeight/2),
		asciigraph.Width(plotWidth),
		asciigraph.Caption(fmt.Sprintf("phi of particle %d per snapshot", particle)),
	))

	// The tune is per snapshot; it is per turn only when every turn was recorded.
	if tune, err := analysis.SynchrotronTune(series); err == nil {
		fmt.Printf("\nsynchrotron tune: %.5f per snapshot\n", tune)
	} else {
		logrus.Debugf("show %s: %v", runID, err)
	}

	portrait := analysis.PortraitFromHistory(history, particle)
	if m, err := bucket.New(meta.RF, meta.Machine, bucket.DefaultOptions()); err == nil {
		if seps, err := m.Separatrices(); err == nil {
			for _, s := range seps {
				portrait.AddSeparatrix(s)
			}
		}
	}
	return printPortrait(portrait)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	history, err := st.LoadSnapshots(runID)
	if err != nil {
		return err
	}

	var seps []bucket.Separatrix
	if m, err := bucket.New(meta.RF, meta.Machine, bucket.DefaultOptions()); err == nil {
		seps, err = m.Separatrices()
		if err != nil {
			logrus.Warnf("export %s: %v", runID, err)
		}
	} else {
		logrus.Warnf("export %s: %v", runID, err)
	}

	data := storage.NewExportData(*meta, seps, history)
	if len(args) == 2 {
		if err := storage.ExportJSON(args[1], data); err != nil {
			return err
		}
		fmt.Printf("exported %s to %s\n", runID, args[1])
		return nil
	}
	return storage.WriteJSON(os.Stdout, data)
}
