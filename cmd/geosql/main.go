// Command geosql renders query documents to backend SQL, executes them,
// inspects dialects and hosts an interactive query builder.
//
//	geosql render query.yaml --backend mysql --pretty
//	geosql exec query.yaml --dsn postgres://localhost/gis
//	geosql dialect show sqlite
//	geosql repl
package main

import (
	"fmt"
	"os"

	"github.com/bawdo/geosql/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries the state shared by all commands once flags are parsed.
type app struct {
	cfgFile string
	cfg     *config.Config
	logger  *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "geosql",
		Short: "Render spatial queries for PostGIS, MySQL, SpatiaLite and ADO",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load(a.cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cfg.Logger()
			a.logger.SetOutput(cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newExecCmd(a))
	root.AddCommand(newDialectCmd(a))
	root.AddCommand(newReplCmd(a))
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
