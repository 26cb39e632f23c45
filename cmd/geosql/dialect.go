package main

import (
	"os"
	"slices"
	"strings"

	"github.com/bawdo/geosql/dialect"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// capabilityDoc is the YAML listing printed by dialect show.
type capabilityDoc struct {
	Name             string              `yaml:"name"`
	GeometryOperands []string            `yaml:"geometry_operands,omitempty"`
	Functions        map[string][]string `yaml:"functions"`
}

func newDialectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dialect",
		Short: "Inspect function dialects",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the builtin dialects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			header := table.Row{"dialect"}
			for _, cat := range dialect.Categories {
				header = append(header, string(cat))
			}
			t.AppendHeader(header)
			for _, name := range dialect.Builtins() {
				d, err := dialect.Builtin(name, dialect.WithLogger(a.logger))
				if err != nil {
					return err
				}
				caps := d.Capabilities()
				row := table.Row{name}
				for _, cat := range dialect.Categories {
					row = append(row, len(caps.Functions[cat]))
				}
				t.AppendRow(row)
			}
			t.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <name|file.yaml>",
		Short: "Print the functions a dialect can render",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := loadDialect(args[0], a)
			if err != nil {
				return err
			}
			caps := d.Capabilities()
			out := capabilityDoc{
				Name:             d.Name(),
				GeometryOperands: caps.GeometryOperands,
				Functions:        make(map[string][]string, len(caps.Functions)),
			}
			for cat, names := range caps.Functions {
				out.Functions[string(cat)] = slices.Clone(names)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(out); err != nil {
				return err
			}
			return enc.Close()
		},
	})
	return cmd
}

// loadDialect reads a definition file when arg names one, otherwise a
// builtin dialect.
func loadDialect(arg string, a *app) (*dialect.Dialect, error) {
	if strings.HasSuffix(arg, ".yaml") || strings.HasSuffix(arg, ".yml") {
		if _, err := os.Stat(arg); err == nil {
			return dialect.Load(arg, dialect.WithLogger(a.logger))
		}
	}
	return dialect.Builtin(arg, dialect.WithLogger(a.logger))
}
