/*
Command anima-scenes runs the scene group testbed and checks group
definition files.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/spaghettifunk/anima-scenes/engine"
	"github.com/spaghettifunk/anima-scenes/engine/assets"
	"github.com/spaghettifunk/anima-scenes/engine/core"
	"github.com/spaghettifunk/anima-scenes/testbed"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "anima-scenes",
	Short: "Scene group loading for the anima engine",
	Long: `anima-scenes streams groups of scenes in and out, reports combined
progress on a loading bar and keeps a persistent boot scene alive across
transitions.`,
	SilenceUsage: true,
}

var runCmd = &cobra.Command{
	Use:   "run [group]",
	Short: "Run the testbed, optionally starting with the given group",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := engine.LoadApplicationConfig(configFile)
		if err != nil {
			return err
		}
		if len(args) == 1 {
			config.InitialGroup = args[0]
		}
		return run(cmd.Context(), config)
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Parse and validate every group definition",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := engine.LoadApplicationConfig(configFile)
		if err != nil {
			return err
		}
		dir := config.DefinitionsDir
		if len(args) == 1 {
			dir = args[0]
		}
		return validate(cmd, dir)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", defaultConfigFile(), "application config file")
	rootCmd.AddCommand(runCmd, validateCmd)
}

func defaultConfigFile() string {
	if _, err := os.Stat("anima.toml"); err == nil {
		return "anima.toml"
	}
	return ""
}

func run(ctx context.Context, config *engine.ApplicationConfig) error {
	tb := testbed.NewTestGame(config)

	e, err := engine.New(tb.Game)
	if err != nil {
		return err
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(); err != nil {
		_ = e.Shutdown()
		return err
	}

	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func validate(cmd *cobra.Command, dir string) error {
	am, err := assets.NewAssetManager()
	if err != nil {
		return err
	}
	defer am.Shutdown()

	if err := am.Initialize(dir); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, info := range am.Definitions() {
		def, err := am.LoadDefinition(info.Name)
		if err != nil {
			failed++
			fmt.Fprintf(out, "FAIL %s (%s)\n  %s\n", info.Name, info.Path, err)
			continue
		}
		fmt.Fprintf(out, "ok   %s (%d scenes)\n", info.Name, def.Len())
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d definitions are invalid: %w", failed, am.Count(), core.ErrInvalidDefinition)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
