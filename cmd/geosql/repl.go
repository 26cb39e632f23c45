package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ergochat/readline"
	"github.com/spf13/cobra"
)

func newReplCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Build queries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess := NewSession(cmd.Context(), *a.cfg, a.logger)
			sess.out = cmd.OutOrStdout()
			rl, err := readline.NewFromConfig(&readline.Config{
				Prompt:          "geosql> ",
				HistoryFile:     historyPath(),
				HistoryLimit:    500,
				AutoComplete:    &replCompleter{sess: sess},
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
			})
			if err != nil {
				return fmt.Errorf("readline init: %w", err)
			}
			defer func() { _ = rl.Close() }()

			if a.cfg.DSN != "" {
				if err := sess.cmdConnect(""); err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "  Warning: connect failed: %v\n", err)
				}
			}

			_, _ = fmt.Fprintf(sess.out, "geosql (%s), type 'help' for commands, 'exit' to quit\n\n", a.cfg.Backend)
			runLoop(rl, sess, cmd.ErrOrStderr())

			if sess.conn != nil {
				_ = sess.conn.close()
			}
			_, _ = fmt.Fprintln(sess.out)
			return nil
		},
	}
}

func runLoop(rl *readline.Instance, sess *Session, errOut io.Writer) {
	for {
		line, err := rl.ReadLine()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		if lower == "exit" || lower == "quit" {
			return
		}
		if err := sess.Execute(line); err != nil {
			_, _ = fmt.Fprintf(errOut, "  Error: %v\n", err)
		}
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".geosql_history")
}
