package main

import (
	"fmt"

	"github.com/sandevgo/dissonance/internal/config"
	"github.com/sandevgo/dissonance/internal/service/installer"
	"github.com/sandevgo/dissonance/pkg/log"
	"github.com/spf13/cobra"
)

var setupFlags struct {
	force bool
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Choose the Ollama server, model and default persona",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		logger := log.FromCtx(ctx)

		cfg, err := config.ParseAppConfig()
		if err != nil {
			return err
		}

		state, err := installer.RunWizard(cfg.GetEnvPath(), setupFlags.force)
		if err != nil {
			return err
		}

		logger.Info().Str("path", state.EnvPath).Msg("configuration written")
		fmt.Fprintf(cmd.OutOrStdout(), "Using %s with %s. Run `dissonance chat` to start.\n",
			state.Settings.Model, state.Settings.DefaultPersona)
		return nil
	},
}

func init() {
	setupCmd.Flags().BoolVarP(&setupFlags.force, "force", "f", false, "replace an existing .env file")
	rootCmd.AddCommand(setupCmd)
}
