package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/sandevgo/dissonance/pkg/log"
	"github.com/sandevgo/dissonance/pkg/retry"
	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Inspect and download Ollama models",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List installed models",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		models, err := a.ollama.Models(ctx)
		if err != nil {
			return describe(err)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("Name", "Size", "Modified", "Default")
		for _, m := range models {
			mark := ""
			if m.Name == a.cfg.Model {
				mark = "*"
			}
			row := []string{m.Name, fmt.Sprintf("%.1f GB", float64(m.Size)/1e9), m.ModifiedAt.Local().Format(time.DateOnly), mark}
			if err := table.Append(row); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <name>",
	Short: "Download a model, retrying transient failures",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		if err := validate.Model(args[0]); err != nil {
			return describe(err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Pulling %s...\n", args[0])
		if err := a.ollama.Pull(ctx, args[0]); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Model %s is ready\n", args[0])
		return nil
	},
}

var modelsCheckCmd = &cobra.Command{
	Use:   "check [name]",
	Short: "Check the Ollama connection and that a model is installed",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		name := a.cfg.Model
		if len(args) > 0 {
			name = args[0]
		}

		ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		// a server that is still starting gets a few chances
		err = retry.NewRetrier(&retry.Config{
			MaxRetries:    2,
			BackoffFactor: 2,
			InitialDelay:  500 * time.Millisecond,
			MaxDelay:      2 * time.Second,
		}).OnRetry(func(attempt int, delay time.Duration, err error) {
			log.FromCtx(ctx).Debug().Int("attempt", attempt).Dur("delay", delay).Err(err).Msg("ollama not ready")
		}).Do(ctx, func() error {
			return a.ollama.Ping(ctx)
		})
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Ollama is reachable at %s\n", a.cfg.OllamaBaseURL)

		ok, err := a.ollama.ModelExists(ctx, name)
		if err != nil {
			return describe(err)
		}
		if !ok {
			return fmt.Errorf("model %s is not installed, run `dissonance models pull %s`", name, name)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Model %s is installed\n", name)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd, modelsPullCmd, modelsCheckCmd)
	rootCmd.AddCommand(modelsCmd)
}
