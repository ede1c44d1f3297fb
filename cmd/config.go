package cmd

import (
	"github.com/spf13/cobra"

	"github.com/notargets/ElastAMR/config"
)

var configPath string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the run configuration as YAML",
	Long: `Print the configuration a run would use. Without --config this is the
built-in default, a convenient starting point for a configuration file:

  elastamr config > run.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configPath != "" {
			var err error
			if cfg, err = config.Load(configPath); err != nil {
				return err
			}
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file applied on top of the defaults")
}
