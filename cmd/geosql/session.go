package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/bawdo/geosql/filter"
	"github.com/bawdo/geosql/internal/config"
	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/bawdo/geosql/visitors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

var errNoQuery = errors.New("no query defined (use 'from <dataset>' first)")

// Session holds the REPL state: the query document being edited, the
// rendering configuration, enabled plugins and the database connection.
type Session struct {
	doc         *querydoc.Document
	cfg         config.Config
	logger      logrus.FieldLogger
	plugins     pluginRegistry
	configurers []pluginConfigurer
	commands    []commandEntry
	conn        *dbConn
	lastDSN     string
	ctx         context.Context
	out         io.Writer
}

// NewSession creates a session rendering with cfg.
func NewSession(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) *Session {
	s := &Session{
		cfg:    cfg,
		logger: logger,
		ctx:    ctx,
		out:    os.Stdout,
	}
	s.configurers = []pluginConfigurer{
		{name: "extent", configure: configureExtent},
		{name: "selection", configure: configureSelection},
	}
	s.initCommands()
	return s
}

func (s *Session) pluginNames() []string {
	names := make([]string, len(s.configurers))
	for i, c := range s.configurers {
		names[i] = c.name
	}
	return names
}

// Execute parses and runs a single REPL command.
func (s *Session) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	lower := strings.ToLower(line)

	for _, cmd := range s.commands {
		if strings.HasSuffix(cmd.prefix, " ") {
			if strings.HasPrefix(lower, cmd.prefix) {
				return cmd.handler(line[len(cmd.prefix):])
			}
		} else if lower == cmd.prefix {
			return cmd.handler("")
		}
	}

	word := strings.Fields(line)[0]
	return fmt.Errorf("unknown command: %s (type 'help' for commands)", word)
}

// build applies the enabled plugins to a copy of the document and builds it.
func (s *Session) build() (*querydoc.Query, error) {
	if s.doc == nil {
		return nil, errNoQuery
	}
	doc := *s.doc
	s.plugins.applyTo(&doc)
	return querydoc.Build(&doc,
		querydoc.WithLogger(s.logger),
		querydoc.WithExtent(s.cfg.DefaultExtent()))
}

// GenerateSQL renders the current query with the session backend.
func (s *Session) GenerateSQL() (string, []any, error) {
	q, err := s.build()
	if err != nil {
		return "", nil, err
	}
	v, err := s.cfg.Visitor(s.logger)
	if err != nil {
		return "", nil, err
	}
	return q.ToSQL(v)
}

// --- Command handlers ---

func (s *Session) cmdFrom(args string) error {
	var from []querydoc.DataSet
	for _, part := range splitTopLevelCommas(args) {
		ds, err := parseDataSet(part)
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		from = append(from, ds)
	}
	if len(from) == 0 {
		return errors.New("usage: from <dataset> [as <alias>][, ...]")
	}
	s.doc = &querydoc.Document{From: from}
	_, _ = fmt.Fprintf(s.out, "  Query FROM %s\n", strings.TrimSpace(args))
	return nil
}

func parseDataSet(s string) (querydoc.DataSet, error) {
	words := strings.Fields(s)
	switch {
	case len(words) == 1:
		return querydoc.DataSet{Name: words[0]}, nil
	case len(words) == 3 && strings.EqualFold(words[1], "as"):
		return querydoc.DataSet{Name: words[0], Alias: words[2]}, nil
	case len(words) == 2:
		return querydoc.DataSet{Name: words[0], Alias: words[1]}, nil
	}
	return querydoc.DataSet{}, fmt.Errorf("expected <dataset> [as <alias>], got %q", strings.TrimSpace(s))
}

// splitTopLevelCommas splits on commas outside parentheses so function
// calls like ST_Distance(a, b) stay intact.
func splitTopLevelCommas(s string) []string {
	var parts []string
	var cur strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '(':
			depth++
			cur.WriteByte(ch)
		case ch == ')':
			depth--
			cur.WriteByte(ch)
		case ch == ',' && depth == 0:
			if p := strings.TrimSpace(cur.String()); p != "" {
				parts = append(parts, p)
			}
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	if p := strings.TrimSpace(cur.String()); p != "" {
		parts = append(parts, p)
	}
	return parts
}

func (s *Session) cmdSelect(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	var fields []querydoc.Field
	for _, p := range splitTopLevelCommas(args) {
		f, err := parseField(p)
		if err != nil {
			return fmt.Errorf("select: %w", err)
		}
		fields = append(fields, f)
	}
	s.doc.Fields = fields
	_, _ = fmt.Fprintf(s.out, "  Fields set (%d columns)\n", len(fields))
	return nil
}

// parseField reads "expr [as alias]" where expr is a property or a call
// FUNC(prop, ...).
func parseField(p string) (querydoc.Field, error) {
	var f querydoc.Field
	expr := p
	if i := strings.LastIndex(strings.ToLower(p), " as "); i >= 0 && !strings.Contains(p[i:], ")") {
		expr, f.Alias = strings.TrimSpace(p[:i]), strings.TrimSpace(p[i+4:])
	}
	open := strings.IndexByte(expr, '(')
	if open < 0 {
		if strings.ContainsAny(expr, " \t") || expr == "" {
			return f, fmt.Errorf("invalid field %q", p)
		}
		f.Property = expr
		return f, nil
	}
	if !strings.HasSuffix(expr, ")") || open == 0 {
		return f, fmt.Errorf("invalid function call %q", expr)
	}
	f.Function = strings.TrimSpace(expr[:open])
	f.Args = splitTopLevelCommas(expr[open+1 : len(expr)-1])
	return f, nil
}

func (s *Session) cmdDistinct() error {
	if s.doc == nil {
		return errNoQuery
	}
	s.doc.Distinct = !s.doc.Distinct
	if s.doc.Distinct {
		_, _ = fmt.Fprintln(s.out, "  DISTINCT enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  DISTINCT disabled")
	}
	return nil
}

// parsePredicate reads a predicate in flow YAML, for example
// "equal_to: {property: uf, value: SP}".
func parsePredicate(text string) (*querydoc.Predicate, error) {
	var p querydoc.Predicate
	if err := yaml.Unmarshal([]byte(text), &p); err != nil {
		return nil, err
	}
	if p.Op == nil {
		return nil, errors.New("empty predicate")
	}
	return &p, nil
}

// conjoin ANDs next onto prev, flattening an existing AND.
func conjoin(prev, next *querydoc.Predicate) *querydoc.Predicate {
	if prev == nil {
		return next
	}
	if and, ok := prev.Op.(*filter.BinaryLogic); ok && and.Name == filter.And {
		ops := append(slices.Clone(and.Ops), next.Op)
		return &querydoc.Predicate{Op: filter.NewAnd(ops...)}
	}
	return &querydoc.Predicate{Op: filter.NewAnd(prev.Op, next.Op)}
}

func (s *Session) cmdWhere(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	p, err := parsePredicate(args)
	if err != nil {
		return fmt.Errorf("where: %w", err)
	}
	s.doc.Where = conjoin(s.doc.Where, p)
	_, _ = fmt.Fprintln(s.out, "  WHERE condition added")
	return nil
}

func (s *Session) cmdHaving(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	p, err := parsePredicate(args)
	if err != nil {
		return fmt.Errorf("having: %w", err)
	}
	s.doc.Having = conjoin(s.doc.Having, p)
	_, _ = fmt.Fprintln(s.out, "  HAVING condition added")
	return nil
}

func (s *Session) cmdIDs(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	words := strings.Fields(args)
	if len(words) < 2 {
		return errors.New("usage: ids <property> <id> [id ...]")
	}
	s.doc.IDProperty, s.doc.IDs = words[0], words[1:]
	_, _ = fmt.Fprintf(s.out, "  Selecting %d ids on %s\n", len(s.doc.IDs), s.doc.IDProperty)
	return nil
}

// cmdJoin reads "<dataset> [as <alias>] using a, b" or
// "<dataset> [as <alias>] on <predicate>".
func (s *Session) cmdJoin(args, typ string, natural bool) error {
	if s.doc == nil {
		return errNoQuery
	}
	j := querydoc.Join{Type: typ, Natural: natural}
	target := args
	lower := strings.ToLower(args)
	if i := strings.Index(lower, " using "); i >= 0 {
		target = args[:i]
		j.Using = splitTopLevelCommas(args[i+7:])
	} else if i := strings.Index(lower, " on "); i >= 0 {
		target = args[:i]
		p, err := parsePredicate(args[i+4:])
		if err != nil {
			return fmt.Errorf("join condition: %w", err)
		}
		j.On = p
	}
	ds, err := parseDataSet(target)
	if err != nil {
		return fmt.Errorf("join: %w", err)
	}
	j.DataSet = ds
	s.doc.Joins = append(s.doc.Joins, j)
	_, _ = fmt.Fprintf(s.out, "  Join %q added\n", ds.Name)
	return nil
}

func (s *Session) cmdGroup(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	s.doc.GroupBy = splitTopLevelCommas(args)
	_, _ = fmt.Fprintf(s.out, "  GROUP BY set (%d columns)\n", len(s.doc.GroupBy))
	return nil
}

func (s *Session) cmdOrder(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	var orders []querydoc.Order
	for _, p := range splitTopLevelCommas(args) {
		words := strings.Fields(p)
		o := querydoc.Order{Property: words[0]}
		if len(words) > 1 {
			o.Order = strings.ToLower(words[1])
		}
		if len(words) > 2 || (o.Order != "" && o.Order != "asc" && o.Order != "desc") {
			return fmt.Errorf("expected <property> [asc|desc], got %q", p)
		}
		orders = append(orders, o)
	}
	s.doc.OrderBy = orders
	_, _ = fmt.Fprintf(s.out, "  ORDER BY set (%d columns)\n", len(orders))
	return nil
}

func (s *Session) cmdLimit(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	n, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return fmt.Errorf("limit requires a non-negative integer, got %q", args)
	}
	s.doc.Limit = n
	_, _ = fmt.Fprintf(s.out, "  LIMIT set to %d\n", n)
	return nil
}

func (s *Session) cmdOffset(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	n, err := strconv.ParseUint(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return fmt.Errorf("offset requires a non-negative integer, got %q", args)
	}
	s.doc.Offset = n
	_, _ = fmt.Fprintf(s.out, "  OFFSET set to %d\n", n)
	return nil
}

// cmdInsertInto reads "<dataset> [field, ...]".
func (s *Session) cmdInsertInto(args string) error {
	if s.doc == nil {
		return errNoQuery
	}
	words := strings.Fields(args)
	if len(words) == 0 {
		return errors.New("usage: insert into <dataset> [field, ...]")
	}
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(args), words[0]))
	s.doc.Insert = &querydoc.Insert{
		Into:   querydoc.DataSet{Name: words[0]},
		Fields: splitTopLevelCommas(rest),
	}
	_, _ = fmt.Fprintf(s.out, "  INSERT INTO %s\n", words[0])
	return nil
}

func (s *Session) cmdLoad(args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return errors.New("usage: load <query.yaml>")
	}
	doc, err := querydoc.Load(path)
	if err != nil {
		return err
	}
	s.doc = doc
	_, _ = fmt.Fprintf(s.out, "  Loaded %s\n", path)
	return nil
}

func (s *Session) cmdSQL() error {
	sql, params, err := s.GenerateSQL()
	if err != nil {
		return err
	}
	printSQL(s.out, sql, params)
	return nil
}

func (s *Session) cmdDot(args string) error {
	path := strings.TrimSpace(args)
	if path == "" {
		return errors.New("usage: dot <filepath>")
	}
	q, err := s.build()
	if err != nil {
		return err
	}
	graph, err := q.ToDot()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(graph), 0o600); err != nil {
		return fmt.Errorf("failed to write DOT file: %w", err)
	}
	_, _ = fmt.Fprintf(s.out, "  Wrote DOT to %s\n", path)
	return nil
}

func (s *Session) cmdReset() error {
	s.doc = nil
	_, _ = fmt.Fprintln(s.out, "  Query cleared")
	return nil
}

func (s *Session) cmdBackend(args string) error {
	name := strings.ToLower(strings.TrimSpace(args))
	if !slices.Contains(visitors.Backends, name) {
		return fmt.Errorf("unknown backend %q (choose: %s)", name, strings.Join(visitors.Backends, ", "))
	}
	s.cfg.Backend = name
	s.cfg.DialectFile = ""
	_, _ = fmt.Fprintf(s.out, "  Backend set to %s\n", name)
	return nil
}

func (s *Session) cmdDialect(args string) error {
	path := strings.TrimSpace(args)
	cfg := s.cfg
	cfg.DialectFile = path
	if _, err := cfg.Dialect(s.logger); err != nil {
		return err
	}
	s.cfg.DialectFile = path
	_, _ = fmt.Fprintf(s.out, "  Dialect loaded from %s\n", path)
	return nil
}

func (s *Session) cmdParams() error {
	s.cfg.Params = !s.cfg.Params
	if s.cfg.Params {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Parameterized queries disabled")
	}
	return nil
}

func (s *Session) cmdPretty() error {
	s.cfg.Pretty = !s.cfg.Pretty
	if s.cfg.Pretty {
		_, _ = fmt.Fprintln(s.out, "  Pretty printing enabled")
	} else {
		_, _ = fmt.Fprintln(s.out, "  Pretty printing disabled")
	}
	return nil
}

func (s *Session) cmdConnect(args string) error {
	if s.conn != nil {
		return fmt.Errorf("already connected to %s (use 'disconnect' first)", sanitizeDSN(s.conn.dsn))
	}
	dsn := strings.TrimSpace(args)
	if dsn == "" {
		dsn = s.lastDSN
	}
	if dsn == "" {
		dsn = s.cfg.DSN
	}
	if dsn == "" {
		return errors.New("usage: connect <dsn>")
	}
	conn, err := connect(s.ctx, s.cfg.Backend, dsn, s.logger)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	s.conn = conn
	s.lastDSN = dsn
	_, _ = fmt.Fprintf(s.out, "  Connected to %s (%s)\n", sanitizeDSN(dsn), s.cfg.Backend)
	return nil
}

func (s *Session) cmdDisconnect() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	dsn := sanitizeDSN(s.conn.dsn)
	if err := s.conn.close(); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	s.conn = nil
	_, _ = fmt.Fprintf(s.out, "  Disconnected from %s\n", dsn)
	return nil
}

// cmdExec runs the current query with bound parameters.
func (s *Session) cmdExec() error {
	if s.conn == nil {
		return errors.New("not connected (use 'connect <dsn>' first)")
	}
	if s.conn.backend != s.cfg.Backend {
		_, _ = fmt.Fprintf(s.out, "  Warning: connected to %s but backend is %s\n", s.conn.backend, s.cfg.Backend)
	}
	q, err := s.build()
	if err != nil {
		return err
	}
	cfg := s.cfg
	cfg.Params, cfg.Pretty = true, false
	v, err := cfg.Visitor(s.logger)
	if err != nil {
		return err
	}
	sql, params, err := q.ToSQL(v)
	if err != nil {
		return err
	}
	printSQL(s.out, sql, params)
	return s.conn.execQuery(s.ctx, s.out, sql, params)
}

func (s *Session) cmdTables() error {
	if s.conn == nil {
		return errors.New("not connected")
	}
	if len(s.conn.tables) == 0 {
		_, _ = fmt.Fprintln(s.out, "  No tables found")
		return nil
	}
	for _, t := range s.conn.tables {
		_, _ = fmt.Fprintf(s.out, "  %s\n", t)
	}
	return nil
}

func (s *Session) cmdHelp() {
	_, _ = fmt.Fprint(s.out, `  Query building:
    from <dataset> [as <alias>][, ...]   start a new query
    select <field>[, ...]                fields: name, c.name, ST_Area(geom) as area
    distinct                             toggle DISTINCT
    where <predicate>                    AND a predicate, e.g. equal_to: {property: uf, value: SP}
    having <predicate>                   AND a HAVING predicate
    ids <property> <id> [id ...]         restrict to identifiers
    [left|right|full] join <ds> [as a] using <col>[, ...] | on <predicate>
    natural [left] join <ds>, cross join <ds>
    group <property>[, ...]
    order <property> [asc|desc][, ...]
    limit <n>, offset <n>
    insert into <dataset> [field, ...]   turn the query into INSERT ... SELECT
    load <query.yaml>                    replace the query with a document
    reset                                clear the query

  Plugins:
    plugin extent <minx> <miny> <maxx> <maxy> [srid <n>] [column <c>] [on <ds> ...]
    plugin selection <dataset|*> <prop>:<type>[,...] <id> [id ...]
    plugin off [name], plugins

  Output:
    sql, dot <file>, backend <name>, dialect <file.yaml>, params, pretty

  Database:
    connect [dsn], disconnect, exec, tables
`)
}
