package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/bawdo/geosql/internal/querydoc"
	"github.com/bawdo/geosql/objectid"
)

// pluginEntry is an enabled plugin.
type pluginEntry struct {
	name   string                       // "extent", "selection"
	apply  func(doc *querydoc.Document) // installs the plugin on a document copy
	status func() string                // human-readable status for display
}

// pluginRegistry lists the enabled plugins in the order they apply.
type pluginRegistry struct {
	entries []pluginEntry
}

// register enables entry, replacing an enabled plugin of the same name.
func (r *pluginRegistry) register(entry pluginEntry) {
	for i, e := range r.entries {
		if e.name == entry.name {
			r.entries[i] = entry
			return
		}
	}
	r.entries = append(r.entries, entry)
}

// deregister reports whether name was enabled.
func (r *pluginRegistry) deregister(name string) bool {
	for i, e := range r.entries {
		if e.name == name {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (r *pluginRegistry) deregisterAll() {
	r.entries = nil
}

func (r *pluginRegistry) get(name string) (pluginEntry, bool) {
	for _, e := range r.entries {
		if e.name == name {
			return e, true
		}
	}
	return pluginEntry{}, false
}

func (r *pluginRegistry) names() []string {
	out := make([]string, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.name
	}
	return out
}

func (r *pluginRegistry) applyTo(doc *querydoc.Document) {
	for _, e := range r.entries {
		e.apply(doc)
	}
}

// pluginConfigurer parses the arguments of "plugin <name> ..." and enables it.
type pluginConfigurer struct {
	name      string
	configure func(s *Session, args string) error
}

// cmdPlugin enables a plugin by name, or dispatches to cmdPluginOff.
func (s *Session) cmdPlugin(args string) error {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return errors.New("usage: plugin <name> [args] | plugin off [name]")
	}
	name := strings.ToLower(parts[0])
	if name == "off" {
		return s.cmdPluginOff(parts[1:])
	}
	for _, c := range s.configurers {
		if c.name == name {
			return c.configure(s, strings.TrimSpace(strings.TrimSpace(args)[len(parts[0]):]))
		}
	}
	return fmt.Errorf("unknown plugin: %s", name)
}

func (s *Session) cmdPluginOff(parts []string) error {
	if len(parts) == 0 {
		s.plugins.deregisterAll()
		_, _ = fmt.Fprintln(s.out, "  All plugins disabled")
		return nil
	}
	name := strings.ToLower(parts[0])
	if !s.plugins.deregister(name) {
		return fmt.Errorf("plugin %q is not enabled", name)
	}
	_, _ = fmt.Fprintf(s.out, "  %s disabled\n", name)
	return nil
}

func (s *Session) cmdPlugins() {
	_, _ = fmt.Fprintln(s.out, "  Available plugins:")
	for _, c := range s.configurers {
		if entry, ok := s.plugins.get(c.name); ok {
			_, _ = fmt.Fprintf(s.out, "    %-14s on   (%s)\n", c.name, entry.status())
		} else {
			_, _ = fmt.Fprintf(s.out, "    %-14s off\n", c.name)
		}
	}
}

// configureExtent reads
// "<minx> <miny> <maxx> <maxy> [srid <n>] [column <c>] [on <ds> ...]".
func configureExtent(s *Session, args string) error {
	const usage = "usage: plugin extent <minx> <miny> <maxx> <maxy> [srid <n>] [column <c>] [on <dataset> ...]"
	words := strings.Fields(args)
	if len(words) < 4 {
		return errors.New(usage)
	}
	ext := &querydoc.Extent{BBox: make([]float64, 4)}
	for i := range 4 {
		v, err := strconv.ParseFloat(words[i], 64)
		if err != nil {
			return fmt.Errorf("extent: %q is not a number", words[i])
		}
		ext.BBox[i] = v
	}
	if ext.BBox[0] > ext.BBox[2] || ext.BBox[1] > ext.BBox[3] {
		return fmt.Errorf("extent: window %v is inverted", ext.BBox)
	}
	for i := 4; i < len(words); i++ {
		switch strings.ToLower(words[i]) {
		case "srid":
			if i+1 >= len(words) {
				return errors.New(usage)
			}
			n, err := strconv.Atoi(words[i+1])
			if err != nil {
				return fmt.Errorf("extent: srid %q is not an integer", words[i+1])
			}
			ext.SRID = n
			i++
		case "column":
			if i+1 >= len(words) {
				return errors.New(usage)
			}
			ext.Column = words[i+1]
			i++
		case "on":
			ext.DataSets = words[i+1:]
			if len(ext.DataSets) == 0 {
				return errors.New(usage)
			}
			i = len(words)
		default:
			return errors.New(usage)
		}
	}

	status := fmt.Sprintf("window: %v", ext.BBox)
	if ext.SRID != 0 {
		status += fmt.Sprintf(", srid: %d", ext.SRID)
	}
	if ext.Column != "" {
		status += ", column: " + ext.Column
	}
	if len(ext.DataSets) > 0 {
		status += ", datasets: " + strings.Join(ext.DataSets, ", ")
	}
	s.plugins.register(pluginEntry{
		name:   "extent",
		apply:  func(doc *querydoc.Document) { doc.Extent = ext },
		status: func() string { return status },
	})
	_, _ = fmt.Fprintf(s.out, "  Extent enabled (%s)\n", status)
	return nil
}

// configureSelection reads "<dataset|*> <prop>:<type>[,...] <id> [id ...]".
// Composite ids separate their values with commas.
func configureSelection(s *Session, args string) error {
	const usage = "usage: plugin selection <dataset|*> <prop>:<type>[,...] <id> [id ...]"
	words := strings.Fields(args)
	if len(words) < 3 {
		return errors.New(usage)
	}
	sel := &querydoc.Selection{}
	if words[0] != "*" {
		sel.DataSet = words[0]
	}
	for _, prop := range strings.Split(words[1], ",") {
		name, typ, ok := strings.Cut(prop, ":")
		if !ok || name == "" {
			return errors.New(usage)
		}
		if _, err := objectid.ParsePropertyType(typ); err != nil {
			return fmt.Errorf("selection: %w", err)
		}
		sel.Properties = append(sel.Properties, querydoc.IdentityProperty{Name: name, Type: typ})
	}
	for _, id := range words[2:] {
		parts := strings.Split(id, ",")
		if len(parts) != len(sel.Properties) {
			return fmt.Errorf("selection: id %q needs %d values", id, len(sel.Properties))
		}
		values := make([]any, len(parts))
		for i, p := range parts {
			values[i] = p
		}
		sel.IDs = append(sel.IDs, values)
	}

	target := sel.DataSet
	if target == "" {
		target = "first data set"
	}
	status := fmt.Sprintf("%d ids on %s", len(sel.IDs), target)
	s.plugins.register(pluginEntry{
		name:   "selection",
		apply:  func(doc *querydoc.Document) { doc.Selection = sel },
		status: func() string { return status },
	})
	_, _ = fmt.Fprintf(s.out, "  Selection enabled (%s)\n", status)
	return nil
}
