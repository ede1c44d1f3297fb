package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "elastamr",
	Short: "Adaptive finite element analysis of a 2-D L-shaped elastic body",
	Long: `elastamr - linear elasticity on the L-shaped domain with adaptive refinement

The L-shaped plate is clamped along its top edge, loaded by a point force at
(1, 0.5) and by a uniform body force. elastamr:
  - triangulates the domain with an area law that grows away from the origin
  - assembles and solves the constant-strain triangle system
  - estimates the element error with a residual and edge-jump indicator
  - refines the marked elements and solves again`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
