package main

import (
	"fmt"
	"io"

	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/spf13/cobra"
)

func newRenderCmd(a *app) *cobra.Command {
	var dot bool
	cmd := &cobra.Command{
		Use:   "render <query.yaml>",
		Short: "Print the SQL of a query document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := a.build(args[0])
			if err != nil {
				return err
			}
			if dot {
				graph, err := q.ToDot()
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(cmd.OutOrStdout(), graph)
				return nil
			}
			v, err := a.cfg.Visitor(a.logger)
			if err != nil {
				return err
			}
			sql, params, err := q.ToSQL(v)
			if err != nil {
				return err
			}
			printSQL(cmd.OutOrStdout(), sql, params)
			return nil
		},
	}
	cmd.Flags().BoolVar(&dot, "dot", false, "print the Graphviz graph instead of SQL")
	return cmd
}

func newExecCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exec <query.yaml>",
		Short: "Run a query document against the configured database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.DSN == "" {
				return fmt.Errorf("exec needs a dsn (--dsn or GEOSQL_DSN)")
			}
			q, err := a.build(args[0])
			if err != nil {
				return err
			}
			conn, err := connect(cmd.Context(), a.cfg.Backend, a.cfg.DSN, a.logger)
			if err != nil {
				return err
			}
			defer func() { _ = conn.close() }()
			return a.exec(cmd, conn, q)
		},
	}
}

// exec renders q with bound parameters and prints the result rows.
func (a *app) exec(cmd *cobra.Command, conn *dbConn, q *querydoc.Query) error {
	cfg := *a.cfg
	cfg.Params, cfg.Pretty = true, false
	v, err := cfg.Visitor(a.logger)
	if err != nil {
		return err
	}
	sql, params, err := q.ToSQL(v)
	if err != nil {
		return err
	}
	a.logger.WithField("params", len(params)).Debug(sql)
	return conn.execQuery(cmd.Context(), cmd.OutOrStdout(), sql, params)
}

func (a *app) build(path string) (*querydoc.Query, error) {
	doc, err := querydoc.Load(path)
	if err != nil {
		return nil, err
	}
	return querydoc.Build(doc,
		querydoc.WithLogger(a.logger),
		querydoc.WithExtent(a.cfg.DefaultExtent()))
}

func printSQL(w io.Writer, sql string, params []any) {
	_, _ = fmt.Fprintf(w, "%s;\n", sql)
	if len(params) > 0 {
		_, _ = fmt.Fprintf(w, "-- params: %v\n", params)
	}
}
