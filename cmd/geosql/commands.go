package main

import (
	"sort"
	"strings"
)

// commandEntry maps a REPL prefix to its handler and optional tab-completer.
type commandEntry struct {
	prefix    string
	handler   func(args string) error
	completer func(args string) (completionContext, string) // nil = no arg completion
	hidden    bool                                          // excluded from commandNames()
}

// initCommands builds the command registry and sorts by prefix length descending.
func (s *Session) initCommands() {
	s.commands = []commandEntry{
		{prefix: "sql", handler: func(_ string) error { return s.cmdSQL() }},
		{prefix: "dot ", handler: s.cmdDot},
		{prefix: "reset", handler: func(_ string) error { return s.cmdReset() }},
		{prefix: "help", handler: func(_ string) error { s.cmdHelp(); return nil }},
		{prefix: "load ", handler: s.cmdLoad},

		{prefix: "from ", handler: s.cmdFrom, completer: completeDataSetArgs},
		{prefix: "select ", handler: s.cmdSelect},
		{prefix: "distinct", handler: func(_ string) error { return s.cmdDistinct() }},
		{prefix: "where ", handler: s.cmdWhere, completer: completePredicateArgs},
		{prefix: "having ", handler: s.cmdHaving, completer: completePredicateArgs},
		{prefix: "ids ", handler: s.cmdIDs},
		{prefix: "group ", handler: s.cmdGroup},
		{prefix: "order ", handler: s.cmdOrder},
		{prefix: "limit ", handler: s.cmdLimit},
		{prefix: "offset ", handler: s.cmdOffset},
		{prefix: "insert into ", handler: s.cmdInsertInto, completer: completeDataSetArgs},

		{prefix: "join ", handler: func(a string) error { return s.cmdJoin(a, "inner", false) }, completer: completeDataSetArgs},
		{prefix: "left join ", handler: func(a string) error { return s.cmdJoin(a, "left", false) }, completer: completeDataSetArgs},
		{prefix: "right join ", handler: func(a string) error { return s.cmdJoin(a, "right", false) }, completer: completeDataSetArgs},
		{prefix: "full join ", handler: func(a string) error { return s.cmdJoin(a, "full", false) }, completer: completeDataSetArgs},
		{prefix: "cross join ", handler: func(a string) error { return s.cmdJoin(a, "cross", false) }, completer: completeDataSetArgs},
		{prefix: "natural join ", handler: func(a string) error { return s.cmdJoin(a, "", true) }, completer: completeDataSetArgs},
		{prefix: "natural left join ", handler: func(a string) error { return s.cmdJoin(a, "left", true) }, completer: completeDataSetArgs},

		{prefix: "connect ", handler: s.cmdConnect},
		{prefix: "connect", handler: func(_ string) error { return s.cmdConnect("") }},
		{prefix: "disconnect", handler: func(_ string) error { return s.cmdDisconnect() }},
		{prefix: "exec", handler: func(_ string) error { return s.cmdExec() }},
		{prefix: "run", handler: func(_ string) error { return s.cmdExec() }, hidden: true},
		{prefix: "tables", handler: func(_ string) error { return s.cmdTables() }},

		{prefix: "backend ", handler: s.cmdBackend, completer: completeBackendArgs},
		{prefix: "dialect ", handler: s.cmdDialect},
		{prefix: "params", handler: func(_ string) error { return s.cmdParams() }},
		{prefix: "pretty", handler: func(_ string) error { return s.cmdPretty() }},
		{prefix: "plugin ", handler: s.cmdPlugin, completer: completePluginArgs},
		{prefix: "plugins", handler: func(_ string) error { s.cmdPlugins(); return nil }},
	}

	sort.SliceStable(s.commands, func(i, j int) bool {
		return len(s.commands[i].prefix) > len(s.commands[j].prefix)
	})
}

// commandNames derives the command name list from the registry for tab completion.
func (s *Session) commandNames() []string {
	seen := make(map[string]bool)
	var names []string
	for _, cmd := range s.commands {
		if cmd.hidden {
			continue
		}
		name := strings.TrimRight(cmd.prefix, " ")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	// handled by the read loop
	for _, extra := range []string{"exit", "quit"} {
		if !seen[extra] {
			names = append(names, extra)
		}
	}
	sort.Strings(names)
	return names
}

func completeDataSetArgs(args string) (completionContext, string) {
	arg := strings.TrimLeft(args, " ")
	if !strings.Contains(arg, " ") {
		return contextDataSet, arg
	}
	return contextNone, ""
}

// completePredicateArgs offers operator keys at the start of a predicate.
func completePredicateArgs(args string) (completionContext, string) {
	arg := strings.TrimLeft(args, " ")
	if strings.ContainsAny(arg, ":{ ") {
		return contextNone, ""
	}
	return contextOperator, arg
}

func completeBackendArgs(args string) (completionContext, string) {
	return contextBackend, strings.TrimSpace(args)
}

// completePluginArgs handles plugin names, or after "off" the names of
// enabled plugins.
func completePluginArgs(args string) (completionContext, string) {
	if strings.HasPrefix(strings.ToLower(args), "off ") {
		return contextPluginOff, strings.TrimSpace(args[4:])
	}
	arg := strings.TrimSpace(args)
	if !strings.Contains(arg, " ") {
		return contextPlugin, arg
	}
	return contextNone, ""
}
