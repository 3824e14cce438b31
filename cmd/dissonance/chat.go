package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sandevgo/dissonance/internal/observability"
	"github.com/sandevgo/dissonance/internal/providers/llm"
	"github.com/sandevgo/dissonance/internal/service/command"
	"github.com/sandevgo/dissonance/internal/service/fault"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/state"
	"github.com/sandevgo/dissonance/internal/service/ui"
	"github.com/sandevgo/dissonance/internal/transport/cli"
	"github.com/sandevgo/dissonance/pkg/log"
	"github.com/sandevgo/dissonance/pkg/srv"
	"github.com/spf13/cobra"
)

var chatFlags struct {
	persona string
	mode    string
	model   string
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session with the adversary",
	Long:  `Opens a chat prompt. Type /help inside the session for commands.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}

		// the terminal belongs to the conversation, so records go to a file
		logFile := log.NewFileWriter(a.cfg.GetLogPath())
		defer logFile.Close()
		var flushLog func()
		ctx, flushLog = setupLogger(ctx, logFile)
		defer flushLog()

		logger := log.FromCtx(ctx)
		logger.Info().Str("model", a.cfg.Model).Msg("starting chat")

		services := a.lifecycle()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			srv.ShutdownServices(shutdownCtx, services...)
			logger.Info().Msg("chat closed")
		}()

		mode, err := persona.ParseMode(chatFlags.mode)
		if err != nil {
			return err
		}
		personaID := chatFlags.persona
		if personaID == "" {
			personaID = a.cfg.DefaultPersona
		}
		model := chatFlags.model
		if model == "" {
			model = a.cfg.Model
		}

		conv := state.NewConversation(a.ollama, model, personaID, mode)
		if err := conv.SetPersona(personaID); err != nil {
			return describe(err)
		}

		metrics := observability.NewMetrics(metricsNamespace)
		chatSvc := a.newChat(metrics)
		router := command.NewRouter(command.Deps{
			Conversation: conv,
			Memory:       chatSvc,
			Models:       a.ollama,
			Personas:     a.personas,
			Sessions:     a.sessions,
			ExportDir:    a.cfg.GetExportDir(),
		})

		health := llm.NewHealth(a.ollama, a.cfg.HealthInterval)
		services = append(services, health)
		if a.cfg.MetricsAddr != "" {
			services = append(services, observability.NewServer(a.cfg.MetricsAddr, metrics))
		}
		srv.StartServices(ctx, services...)

		if st := health.Ensure(ctx); !st.Connected {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.ErrorStyle.Render("Ollama is not reachable at "+a.cfg.OllamaBaseURL))
			fmt.Fprintln(cmd.ErrOrStderr(), ui.DescStyle.Render(fault.Hint(llm.ErrUnavailable)))
		}

		rl, err := cli.NewReadLine(chatSvc, conv, router, cli.Options{
			RuntimePath: a.cfg.GetRuntimePath(),
			Temperature: a.cfg.Temperature,
			ShowMemory:  a.cfg.ShowMemory,
		})
		if err != nil {
			return err
		}
		defer rl.Shutdown(ctx)

		if err := rl.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatFlags.persona, "persona", "p", "", "persona id, e.g. market_cynic or custom_3")
	chatCmd.Flags().StringVar(&chatFlags.mode, "mode", "standard", "critique mode: standard or devils_advocate")
	chatCmd.Flags().StringVarP(&chatFlags.model, "model", "m", "", "Ollama model (defaults to CODE_MODEL)")
	rootCmd.AddCommand(chatCmd)
}
