package dialect

import (
	"embed"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnsupportedEncoder is returned by the loader for an encoder kind
	// other than function, binary, unary or template.
	ErrUnsupportedEncoder = errors.NewKind("unsupported encoder type %q for function %s")

	// ErrInvalidDefinition is returned when a definition cannot be read or
	// is missing required fields.
	ErrInvalidDefinition = errors.NewKind("invalid dialect definition: %s")

	// ErrUnknownDialect is returned by Builtin for a name with no embedded
	// definition.
	ErrUnknownDialect = errors.NewKind("unknown dialect %q")
)

// Encoder kinds as spelled in definition files.
const (
	KindFunction     = "function"
	KindBinary       = "binary"
	KindUnary        = "unary"
	KindTemplate     = "template"
	KindLike         = "like"          // LIKE with an ESCAPE clause
	KindLikeBrackets = "like_brackets" // LIKE escaping literals with brackets
)

//go:embed defs/*.yaml
var builtinDefs embed.FS

// FunctionDef is one function entry of a definition file.
type FunctionDef struct {
	Name     string `koanf:"name" yaml:"name"`
	Encoder  string `koanf:"encoder" yaml:"encoder"`
	Alias    string `koanf:"alias" yaml:"alias,omitempty"`
	Template string `koanf:"template" yaml:"template,omitempty"`
}

// Definition is the file form of a dialect.
type Definition struct {
	Name               string        `koanf:"name" yaml:"name"`
	GeometryOperands   []string      `koanf:"geometry_operands" yaml:"geometry_operands,omitempty"`
	SpatialTopologic   []FunctionDef `koanf:"spatial_topologic" yaml:"spatial_topologic,omitempty"`
	SpatialMetric      []FunctionDef `koanf:"spatial_metric" yaml:"spatial_metric,omitempty"`
	SpatialNewGeometry []FunctionDef `koanf:"spatial_new_geometry" yaml:"spatial_new_geometry,omitempty"`
	Logical            []FunctionDef `koanf:"logical" yaml:"logical,omitempty"`
	Comparison         []FunctionDef `koanf:"comparison" yaml:"comparison,omitempty"`
	Arithmetic         []FunctionDef `koanf:"arithmetic" yaml:"arithmetic,omitempty"`
	Functions          []FunctionDef `koanf:"functions" yaml:"functions,omitempty"`
}

func (def *Definition) category(cat Category) *[]FunctionDef {
	switch cat {
	case SpatialTopologic:
		return &def.SpatialTopologic
	case SpatialMetric:
		return &def.SpatialMetric
	case SpatialNewGeometry:
		return &def.SpatialNewGeometry
	case Logical:
		return &def.Logical
	case Comparison:
		return &def.Comparison
	case Arithmetic:
		return &def.Arithmetic
	default:
		return &def.Functions
	}
}

// LoadOption configures Load, Parse and Builtin.
type LoadOption func(*loadConfig)

type loadConfig struct {
	logger logrus.FieldLogger
}

// WithLogger sets the logger used to report loaded dialects.
func WithLogger(l logrus.FieldLogger) LoadOption {
	return func(c *loadConfig) { c.logger = l }
}

func newLoadConfig(opts []LoadOption) *loadConfig {
	c := &loadConfig{}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		c.logger = l
	}
	return c
}

// Load reads a YAML definition file.
func Load(filename string, opts ...LoadOption) (*Dialect, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(filename), yaml.Parser()); err != nil {
		return nil, ErrInvalidDefinition.Wrap(err, filename)
	}
	return fromKoanf(k, newLoadConfig(opts))
}

// Parse reads a YAML definition from memory.
func Parse(data []byte, opts ...LoadOption) (*Dialect, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, ErrInvalidDefinition.Wrap(err, "yaml")
	}
	return fromKoanf(k, newLoadConfig(opts))
}

// Builtin returns a fresh copy of one of the embedded dialects: postgis,
// mysql, sqlite or ado.
func Builtin(name string, opts ...LoadOption) (*Dialect, error) {
	data, err := builtinDefs.ReadFile(path.Join("defs", strings.ToLower(name)+".yaml"))
	if err != nil {
		return nil, ErrUnknownDialect.New(name)
	}
	return Parse(data, opts...)
}

// Builtins lists the names of the embedded dialects.
func Builtins() []string {
	entries, _ := builtinDefs.ReadDir("defs")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	slices.Sort(names)
	return names
}

func fromKoanf(k *koanf.Koanf, cfg *loadConfig) (*Dialect, error) {
	var def Definition
	if err := k.Unmarshal("", &def); err != nil {
		return nil, ErrInvalidDefinition.Wrap(err, "decode")
	}
	d, err := FromDefinition(def)
	if err != nil {
		return nil, err
	}
	cfg.logger.WithFields(logrus.Fields{
		"dialect":   d.Name(),
		"functions": len(d.encoders),
	}).Debug("dialect loaded")
	return d, nil
}

// FromDefinition builds a Dialect, inserting categories in the order of
// Categories and functions in file order. A name repeated later replaces
// the earlier encoder.
func FromDefinition(def Definition) (*Dialect, error) {
	if def.Name == "" {
		return nil, ErrInvalidDefinition.New("missing name")
	}
	d := New(def.Name)
	for _, cat := range Categories {
		for _, fd := range *def.category(cat) {
			enc, err := encoderFor(fd)
			if err != nil {
				return nil, err
			}
			d.InsertIn(cat, fd.Name, enc)
		}
	}
	d.SetGeometryOperands(def.GeometryOperands...)
	return d, nil
}

func encoderFor(fd FunctionDef) (Encoder, error) {
	if fd.Name == "" {
		return nil, ErrInvalidDefinition.New("function without a name")
	}
	alias := fd.Alias
	if alias == "" {
		alias = fd.Name
	}
	switch strings.ToLower(fd.Encoder) {
	case KindFunction, "":
		return NewFunctionEncoder(alias), nil
	case KindBinary:
		return NewBinaryOpEncoder(alias), nil
	case KindUnary:
		return NewUnaryOpEncoder(alias), nil
	case KindTemplate:
		if fd.Template == "" {
			return nil, ErrInvalidDefinition.New("template encoder for " + fd.Name + " has no template")
		}
		return NewTemplateEncoder(alias, fd.Template), nil
	case KindLike:
		return NewLikeEncoder(EscapeClause), nil
	case KindLikeBrackets:
		return NewLikeEncoder(EscapeBrackets), nil
	default:
		return nil, ErrUnsupportedEncoder.New(fd.Encoder, fd.Name)
	}
}

// Definition converts the dialect back to its file form. Encoders that
// are not one of the built-in kinds are skipped.
func (d *Dialect) Definition() Definition {
	def := Definition{Name: d.name, GeometryOperands: slices.Clone(d.geometryOperands)}
	for _, cat := range Categories {
		for _, name := range d.categories[cat] {
			var fd FunctionDef
			switch enc := d.encoders[name].(type) {
			case *FunctionEncoder:
				fd = FunctionDef{Name: name, Encoder: KindFunction, Alias: enc.Alias}
			case *BinaryOpEncoder:
				fd = FunctionDef{Name: name, Encoder: KindBinary, Alias: enc.Alias}
			case *UnaryOpEncoder:
				fd = FunctionDef{Name: name, Encoder: KindUnary, Alias: enc.Alias}
			case *TemplateEncoder:
				fd = FunctionDef{Name: name, Encoder: KindTemplate, Alias: enc.Alias, Template: enc.Template}
			case *LikeEncoder:
				fd = FunctionDef{Name: name, Encoder: KindLike}
				if enc.Escape == EscapeBrackets {
					fd.Encoder = KindLikeBrackets
				}
			default:
				continue
			}
			if fd.Alias == name {
				fd.Alias = ""
			}
			p := def.category(cat)
			*p = append(*p, fd)
		}
	}
	return def
}
