package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/notargets/ElastAMR/amr"
	"github.com/notargets/ElastAMR/config"
	"github.com/notargets/ElastAMR/output"
)

var (
	runConfig    string
	runOut       string
	runCycles    int
	runWorkers   int
	runMagnitude float64
	runMode      string
	runNoPlots   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve, estimate, refine and solve again",
	Long: `Run the adaptive analysis and print the per-level summary.

Flags override the matching entries of the configuration file.

Examples:
  # Reference run, figures in ./Figs
  elastamr run

  # Two refinement passes in plane strain, four assembly workers, no figures
  elastamr run --cycles 2 --mode plane-strain --workers 4 --no-plots`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfig, "config", "c", "", "YAML configuration file")
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Directory for figures")
	runCmd.Flags().IntVar(&runCycles, "cycles", 1, "Estimate/refine/solve passes after the first solve")
	runCmd.Flags().IntVarP(&runWorkers, "workers", "w", 1, "Concurrent assembly partitions")
	runCmd.Flags().Float64Var(&runMagnitude, "load-magnitude", 0, "Point load magnitude")
	runCmd.Flags().StringVar(&runMode, "mode", "", "plane-stress or plane-strain")
	runCmd.Flags().BoolVar(&runNoPlots, "no-plots", false, "Skip the PNG figures")
}

// runConfiguration merges the configuration file and the flags that were set
func runConfiguration(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if runConfig != "" {
		var err error
		if cfg, err = config.Load(runConfig); err != nil {
			return cfg, err
		}
	}
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Output.Dir = runOut
	}
	if f.Changed("cycles") {
		cfg.Cycles = runCycles
	}
	if f.Changed("workers") {
		cfg.Workers = runWorkers
	}
	if f.Changed("load-magnitude") {
		cfg.Load.Magnitude = runMagnitude
	}
	if f.Changed("mode") {
		cfg.Material.Mode = runMode
	}
	if runNoPlots {
		cfg.Output.Plots = false
	}
	return cfg, cfg.Validate()
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := runConfiguration(cmd)
	if err != nil {
		return err
	}
	logger := log.New(cmd.ErrOrStderr(), "", log.Ltime)
	rep, err := amr.Run(cfg, amr.Options{Logger: logger})
	if err != nil {
		return err
	}
	if err = output.WriteReport(cmd.OutOrStdout(), rep); err != nil {
		return err
	}
	if !cfg.Output.Plots {
		return nil
	}
	files, err := output.WriteFigures(cfg.Output.Dir, rep)
	if err != nil {
		return fmt.Errorf("writing figures: %w", err)
	}
	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "  wrote %s\n", f)
	}
	return nil
}
