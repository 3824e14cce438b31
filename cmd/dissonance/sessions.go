package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/sandevgo/dissonance/internal/service/export"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse and manage saved sessions",
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, validate.ID(0)
	}
	return id, validate.ID(id)
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		list, err := a.sessions.List(ctx)
		if err != nil {
			return describe(err)
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No saved sessions yet. Use /save inside a chat.")
			return nil
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("ID", "Created", "Persona", "Model", "Title", "Tags")
		for _, s := range list {
			err := table.Append([]string{
				strconv.FormatInt(s.ID, 10),
				s.CreatedAt.Local().Format(time.DateTime),
				persona.Title(s.Persona),
				s.Model,
				s.Title,
				strings.Join(s.Tags, ","),
			})
			if err != nil {
				return err
			}
		}
		return table.Render()
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved session as Markdown",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		id, err := parseID(args[0])
		if err != nil {
			return describe(err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		s, err := a.sessions.Get(ctx, id)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), export.Markdown(s))
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		id, err := parseID(args[0])
		if err != nil {
			return describe(err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		n, err := a.sessions.Delete(ctx, id)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d session(s)\n", n)
		return nil
	},
}

var sessionsTagFlags struct {
	title string
}

var sessionsTagCmd = &cobra.Command{
	Use:   "tag <id> [tag...]",
	Short: "Set the title and tags of a saved session",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		id, err := parseID(args[0])
		if err != nil {
			return describe(err)
		}
		tags := args[1:]
		if err := validate.Tags(tags); err != nil {
			return describe(err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		if err := a.sessions.UpdateMeta(ctx, id, sessionsTagFlags.title, tags); err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated session %d\n", id)
		return nil
	},
}

var sessionsExportFlags struct {
	format string
	out    string
}

var sessionsExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved session to md, json, html or txt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		id, err := parseID(args[0])
		if err != nil {
			return describe(err)
		}
		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		s, err := a.sessions.Get(ctx, id)
		if err != nil {
			return describe(err)
		}

		path := sessionsExportFlags.out
		f := export.FormatMarkdown
		switch {
		case sessionsExportFlags.format != "":
			f, err = export.ParseFormat(sessionsExportFlags.format)
		case path != "":
			f, err = export.FormatFromPath(path)
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if path == "" {
			path = filepath.Join(a.cfg.GetExportDir(), export.DefaultFilename(f, now))
		}
		if err := export.WriteFile(path, s, f, now); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported session %d to %s\n", id, path)
		return nil
	},
}

func init() {
	sessionsTagCmd.Flags().StringVarP(&sessionsTagFlags.title, "title", "t", "", "session title")
	sessionsExportCmd.Flags().StringVarP(&sessionsExportFlags.format, "format", "f", "", "md, json, html or txt (default md, or taken from --out)")
	sessionsExportCmd.Flags().StringVarP(&sessionsExportFlags.out, "out", "o", "", "output file (default in CODE_EXPORT_DIR)")

	sessionsCmd.AddCommand(sessionsListCmd, sessionsShowCmd, sessionsDeleteCmd, sessionsTagCmd, sessionsExportCmd)
	rootCmd.AddCommand(sessionsCmd)
}
