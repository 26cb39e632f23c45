package main

import (
	"sort"
	"strings"

	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/bawdo/geosql/visitors"
)

// completionContext is the kind of word the cursor is on.
type completionContext int

const (
	contextCommand   completionContext = iota // start of line or partial command
	contextNone                               // free-form argument
	contextDataSet                            // after from/join/insert into
	contextOperator                           // start of a predicate
	contextBackend                            // after backend
	contextPlugin                             // after plugin
	contextPluginOff                          // after plugin off
)

// replCompleter completes commands, data sets, predicate operators,
// backends and plugin names.
type replCompleter struct {
	sess *Session
}

// Do implements readline.AutoCompleter. Each candidate is the remainder of
// a word after the typed prefix, whose rune length is returned.
func (c *replCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	ctx, prefix := c.parseContext(string(line[:pos]))

	var candidates []string
	switch ctx {
	case contextCommand:
		candidates = filterPrefix(c.sess.commandNames(), prefix)
	case contextDataSet:
		candidates = filterPrefix(c.dataSetNames(), prefix)
	case contextOperator:
		candidates = filterPrefix(querydoc.Operators(), prefix)
	case contextBackend:
		candidates = filterPrefix(visitors.Backends, prefix)
	case contextPlugin:
		candidates = filterPrefix(append([]string{"off"}, c.sess.pluginNames()...), prefix)
	case contextPluginOff:
		candidates = filterPrefix(c.sess.plugins.names(), prefix)
	}

	suffix := " "
	if ctx == contextOperator {
		suffix = ": "
	}
	for _, cand := range candidates {
		newLine = append(newLine, []rune(cand[len(prefix):]+suffix))
	}
	length = len([]rune(prefix))
	return
}

// parseContext finds the command owning line and lets its completer pick
// the context. A line matching no command is a partial command.
func (c *replCompleter) parseContext(line string) (completionContext, string) {
	lower := strings.ToLower(line)
	for _, cmd := range c.sess.commands {
		if !strings.HasSuffix(cmd.prefix, " ") {
			continue
		}
		if strings.HasPrefix(lower, cmd.prefix) {
			if cmd.completer == nil {
				return contextNone, ""
			}
			return cmd.completer(line[len(cmd.prefix):])
		}
	}
	return contextCommand, strings.TrimSpace(line)
}

// dataSetNames returns the data sets of the current query and of the
// connected database.
func (c *replCompleter) dataSetNames() []string {
	var names []string
	if doc := c.sess.doc; doc != nil {
		for _, ds := range doc.From {
			names = append(names, ds.Name)
		}
		for _, j := range doc.Joins {
			names = append(names, j.DataSet.Name)
		}
	}
	if c.sess.conn != nil {
		names = append(names, c.sess.conn.tables...)
	}
	names = dedup(names)
	sort.Strings(names)
	return names
}

// filterPrefix keeps the items starting with prefix, ignoring case.
func filterPrefix(items []string, prefix string) []string {
	lowerPrefix := strings.ToLower(prefix)
	var result []string
	for _, item := range items {
		if strings.HasPrefix(strings.ToLower(item), lowerPrefix) {
			result = append(result, item)
		}
	}
	return result
}

func dedup(items []string) []string {
	seen := make(map[string]bool, len(items))
	var result []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			result = append(result, item)
		}
	}
	return result
}
