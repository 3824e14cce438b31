package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sandevgo/dissonance/internal/core"
	"github.com/sandevgo/dissonance/internal/service/persona"
	"github.com/sandevgo/dissonance/internal/service/validate"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var personasCmd = &cobra.Command{
	Use:   "personas",
	Short: "Manage custom personas",
}

var personasListCmd = &cobra.Command{
	Use:   "list",
	Short: "List built-in and custom personas",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		custom, err := a.personas.List(ctx)
		if err != nil {
			return describe(err)
		}

		table := tablewriter.NewWriter(cmd.OutOrStdout())
		table.Header("ID", "Name", "Prompt")
		for _, b := range persona.Builtins() {
			if err := table.Append([]string{b.ID, b.Title, preview(b.Prompt)}); err != nil {
				return err
			}
		}
		for _, p := range custom {
			if err := table.Append([]string{persona.CustomRef(p.ID), p.Name, preview(p.Prompt)}); err != nil {
				return err
			}
		}
		return table.Render()
	},
}

func preview(s string) string {
	const n = 60
	r := []rune(strings.Join(strings.Fields(s), " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n]) + "..."
}

var personasAddFlags struct {
	prompt     string
	promptFile string
}

var personasAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create or replace a custom persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		prompt := personasAddFlags.prompt
		if personasAddFlags.promptFile != "" {
			data, err := os.ReadFile(personasAddFlags.promptFile)
			if err != nil {
				return err
			}
			prompt = string(data)
		}
		if err := validate.PersonaData(args[0], prompt); err != nil {
			return describe(err)
		}

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		id, err := a.personas.Upsert(ctx, args[0], prompt)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved persona %q as %s\n", strings.TrimSpace(args[0]), persona.CustomRef(id))
		return nil
	},
}

var personasDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a custom persona",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		ref := args[0]
		if !strings.HasPrefix(ref, "custom_") {
			ref = "custom_" + ref
		}
		id, ok := persona.ParseCustomRef(ref)
		if !ok {
			return describe(validate.ID(0))
		}

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		deleted, err := a.personas.Delete(ctx, id)
		if err != nil {
			return describe(err)
		}
		if !deleted {
			return fmt.Errorf("persona %s not found", ref)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted persona %s\n", ref)
		return nil
	},
}

var personasExportFlags struct {
	out string
}

var personasExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write all custom personas as JSON or YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		all, err := a.personas.ExportAll(ctx)
		if err != nil {
			return describe(err)
		}
		data, err := encodePersonas(all, personasExportFlags.out)
		if err != nil {
			return err
		}

		if personasExportFlags.out == "" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(personasExportFlags.out, data, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d persona(s) to %s\n", len(all), personasExportFlags.out)
		return nil
	},
}

var personasImportCmd = &cobra.Command{
	Use:   "import <file|->",
	Short: "Import personas from a JSON or YAML file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flush := setupLogger(cmd.Context(), nil)
		defer flush()

		var (
			data []byte
			err  error
		)
		if args[0] == "-" {
			data, err = io.ReadAll(cmd.InOrStdin())
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		list, err := decodePersonas(data, args[0])
		if err != nil {
			return err
		}
		for i, p := range list {
			if err := validate.PersonaData(p.Name, p.Prompt); err != nil {
				return fmt.Errorf("persona %d: %w", i, describe(err))
			}
		}

		a, err := newApp(ctx)
		if err != nil {
			return describe(err)
		}
		defer a.Close()

		added, err := a.personas.Import(ctx, list)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d persona(s)\n", added, len(list))
		return nil
	},
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// encodePersonas picks YAML for .yaml/.yml paths and JSON otherwise.
func encodePersonas(list []core.Persona, path string) ([]byte, error) {
	if list == nil {
		list = []core.Persona{}
	}
	if isYAML(path) {
		return yaml.Marshal(list)
	}
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func decodePersonas(data []byte, path string) ([]core.Persona, error) {
	var list []core.Persona
	var err error
	if isYAML(path) {
		err = yaml.Unmarshal(data, &list)
	} else {
		err = json.Unmarshal(data, &list)
	}
	if err != nil {
		return nil, fmt.Errorf("decode personas: %w", err)
	}
	return list, nil
}

func init() {
	personasAddCmd.Flags().StringVar(&personasAddFlags.prompt, "prompt", "", "system prompt text")
	personasAddCmd.Flags().StringVar(&personasAddFlags.promptFile, "prompt-file", "", "read the system prompt from a file")
	personasAddCmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	personasAddCmd.MarkFlagsOneRequired("prompt", "prompt-file")
	personasExportCmd.Flags().StringVarP(&personasExportFlags.out, "out", "o", "", "output file, .yaml for YAML (default stdout as JSON)")

	personasCmd.AddCommand(personasListCmd, personasAddCmd, personasDeleteCmd, personasExportCmd, personasImportCmd)
	rootCmd.AddCommand(personasCmd)
}
