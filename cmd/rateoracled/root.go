package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
)

const (
	flagHome      = "home"
	flagLogLevel  = "log-level"
	flagOverwrite = "overwrite"
	flagOutput    = "output"
)

// NewRootCmd creates the rateoracled command tree. Flags can also be set
// through RATEORACLED_* environment variables.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("rateoracled")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:           "rateoracled",
		Short:         "Hurdle rate oracle daemon",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().String(flagHome, config.DefaultHome(), "directory for config and data")
	rootCmd.PersistentFlags().String(flagLogLevel, "", "log level override (debug|info|error)")
	_ = v.BindPFlag(flagHome, rootCmd.PersistentFlags().Lookup(flagHome))
	_ = v.BindPFlag(flagLogLevel, rootCmd.PersistentFlags().Lookup(flagLogLevel))

	rootCmd.AddCommand(
		InitCmd(v),
		StartCmd(v),
		ExportGenesisCmd(v),
		TxCmd(v),
		PackCmd(),
		UnpackCmd(),
	)

	return rootCmd
}

// loadConfig reads the config under the home directory and applies log settings.
func loadConfig(v *viper.Viper) error {
	home := v.GetString(flagHome)
	if err := config.Load(home); err != nil {
		return err
	}

	if level := v.GetString(flagLogLevel); level != "" {
		config.SetLogLevel(level)
	}
	if config.LogToFile() {
		log.ResetLogger(config.Home())
	}
	return log.SetLevel(config.LogLevel())
}
