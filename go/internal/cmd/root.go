package main

import (
	"fmt"
	"os"

	"github.com/mcdev12/focusarcade/go/internal/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	EnvFiles   []string
	JSON       bool
	// Server, when set, sends ledger and trigger commands to a running
	// controller instead of opening the store directly.
	Server string

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// NewRootCommand creates the focus-arcade command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "focus-arcade",
		Short:         "Focus Arcade - redeem focus tokens and celebrate on stream",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

			config.LoadDotEnv(opts.EnvFiles...)

			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			zerolog.SetGlobalLevel(cfg.LogLevel())
			opts.Config = cfg
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "dotenv files to load (default .env)")
	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print results as JSON")
	cmd.PersistentFlags().StringVar(&opts.Server, "server", "", "controller base URL to send commands to")

	cmd.AddCommand(NewServeCommand(opts, roleAll))
	cmd.AddCommand(NewServeCommand(opts, roleController))
	cmd.AddCommand(NewServeCommand(opts, roleDisplay))
	cmd.AddCommand(NewRedeemCommand(opts))
	cmd.AddCommand(NewTapCommand(opts))
	cmd.AddCommand(NewResetCommand(opts))
	cmd.AddCommand(NewProgressCommand(opts))
	cmd.AddCommand(NewTriggerCommand(opts))
	cmd.AddCommand(NewMintCommand(opts))

	return cmd
}
