package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"sigs.k8s.io/yaml"

	"github.com/VerisLabs/hurdleRateOracle/oracle/app"
	"github.com/VerisLabs/hurdleRateOracle/oracle/config"
	"github.com/VerisLabs/hurdleRateOracle/oracle/daemon"
	"github.com/VerisLabs/hurdleRateOracle/oracle/log"
	"github.com/VerisLabs/hurdleRateOracle/oracle/router"
	"github.com/VerisLabs/hurdleRateOracle/x/rateoracle/types"
)

func InitCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			overwrite, err := cmd.Flags().GetBool(flagOverwrite)
			if err != nil {
				return err
			}

			path, err := config.WriteDefault(v.GetString(flagHome), overwrite)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().Bool(flagOverwrite, false, "replace an existing config file")
	return cmd
}

func StartCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Run the oracle daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := loadConfig(v); err != nil {
				return err
			}
			config.Print()

			d, err := daemon.New()
			if err != nil {
				return err
			}
			defer func() {
				if err := d.App().Close(); err != nil {
					log.Errorf("failed to close state db: %v", err)
				}
			}()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return d.Run(ctx)
		},
	}
}

func ExportGenesisCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-genesis",
		Short: "Export the oracle state as genesis",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			output, err := cmd.Flags().GetString(flagOutput)
			if err != nil {
				return err
			}
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output format: %s", output)
			}

			if err := loadConfig(v); err != nil {
				return err
			}

			db, err := app.OpenDB(config.DBBackend(), config.DataDir())
			if err != nil {
				return err
			}
			a, err := app.New(config.ChainID(), db, router.New(1), log.TMLogger())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.IsInitialized() {
				return fmt.Errorf("no state found in %s", config.DataDir())
			}

			genesis, err := a.ExportGenesis()
			if err != nil {
				return err
			}

			var bz []byte
			if output == "yaml" {
				bz, err = yaml.Marshal(genesis)
			} else {
				bz, err = json.MarshalIndent(genesis, "", "  ")
			}
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(bz))
			return nil
		},
	}

	cmd.Flags().StringP(flagOutput, "o", "json", "output format (json|yaml)")
	return cmd
}

// PackCmd packs lane values into a bitmap.
func PackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pack [rate]...",
		Short: "Pack basis point rates into a bitmap, lane 0 first",
		Args:  cobra.RangeArgs(1, types.MaxLanes),
		RunE: func(cmd *cobra.Command, args []string) error {
			rates := make([]uint16, 0, len(args))
			for _, arg := range args {
				value, err := cast.ToUint64E(arg)
				if err != nil {
					return fmt.Errorf("invalid rate %q: %w", arg, err)
				}
				if value > types.MaxRateBps {
					return fmt.Errorf("rate %d: %w", value, types.ErrRateOutOfRange)
				}
				rates = append(rates, uint16(value))
			}

			bitmap, err := types.PackRates(rates)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "decimal: %s\n", bitmap.ToBig().String())
			fmt.Fprintf(cmd.OutOrStdout(), "hex:     %s\n", bitmap.Hex())
			return nil
		},
	}
}

// UnpackCmd prints the lanes of a decimal or 0x bitmap.
func UnpackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unpack [bitmap]",
		Short: "Print the lanes of a bitmap",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bitmap, err := types.ParseBitmap(args[0])
			if err != nil {
				return err
			}

			for i, rate := range types.UnpackAll(bitmap) {
				if rate != 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "lane %2d: %d\n", i, rate)
				}
			}
			if err := types.ValidateBitmap(bitmap); err != nil {
				return err
			}
			return nil
		},
	}
}
