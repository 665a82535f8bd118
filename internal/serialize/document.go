package serialize

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/vk/flowgridgo/internal/graph"
	"github.com/vk/flowgridgo/internal/registry"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

// Document is the persisted form of a graph.
type Document struct {
	Name        string             `yaml:"name" msgpack:"name"`
	Variables   []VariableRecord   `yaml:"variables,omitempty" msgpack:"variables"`
	Nodes       []NodeRecord       `yaml:"nodes" msgpack:"nodes"`
	Connections []ConnectionRecord `yaml:"connections,omitempty" msgpack:"connections"`
}

// VariableRecord is a graph variable with its default.
type VariableRecord struct {
	Name    string `yaml:"name" msgpack:"name"`
	Default Blob   `yaml:"default" msgpack:"default"`
}

// NodeRecord is one NodeObject.
type NodeRecord struct {
	ID       string         `yaml:"id" msgpack:"id"`
	Type     string         `yaml:"type" msgpack:"type"`
	Position graph.Position `yaml:"position" msgpack:"position"`
	State    Blob           `yaml:"state" msgpack:"state"`
	// Defaults holds the literal values of value inputs, keyed by port id.
	Defaults Blob `yaml:"defaults,omitempty" msgpack:"defaults"`
	// Refs is the reference table: stable ids of other nodes the state names.
	Refs []string `yaml:"refs,omitempty" msgpack:"refs"`
}

// ConnectionRecord is one connection, output side first.
type ConnectionRecord struct {
	From string `yaml:"from" msgpack:"from"`
	To   string `yaml:"to" msgpack:"to"`
}

// Referrer is implemented by nodes whose state names other nodes.
type Referrer interface {
	References() []string
}

// yamlBlob holds the data as a string: yaml.v3 writes strings that are not
// valid UTF-8 as !!binary and decodes them back byte for byte.
type yamlBlob struct {
	Type string `yaml:"type"`
	Data string `yaml:"data"`
}

func (b Blob) MarshalYAML() (any, error) {
	return yamlBlob{Type: b.Type, Data: string(b.Data)}, nil
}

func (b *Blob) UnmarshalYAML(n *yaml.Node) error {
	var y yamlBlob
	if err := n.Decode(&y); err != nil {
		return fmt.Errorf("blob: %w", err)
	}
	b.Type, b.Data = y.Type, []byte(y.Data)
	return nil
}

// Format selects the document encoding.
type Format string

const (
	YAML    Format = "yaml"
	Msgpack Format = "msgpack"
)

// FormatFor picks the format from a file extension. Anything that is not
// YAML is msgpack.
func FormatFor(path string) Format {
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return YAML
	}
	return Msgpack
}

// Marshal encodes a document.
func Marshal(doc *Document, f Format) ([]byte, error) {
	switch f {
	case YAML:
		return yaml.Marshal(doc)
	case Msgpack:
		return msgpack.Marshal(doc)
	}
	return nil, fmt.Errorf("unknown document format %q", f)
}

// Unmarshal decodes a document.
func Unmarshal(data []byte, f Format) (*Document, error) {
	doc := &Document{}
	var err error
	switch f {
	case YAML:
		err = yaml.Unmarshal(data, doc)
	case Msgpack:
		err = msgpack.Unmarshal(data, doc)
	default:
		err = fmt.Errorf("unknown document format %q", f)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Codec converts between graphs and documents using the node types of a
// registry.
type Codec struct {
	registry *registry.Registry
	logger   *slog.Logger
}

// NewCodec creates a codec. A nil logger uses slog.Default.
func NewCodec(reg *registry.Registry, logger *slog.Logger) *Codec {
	if logger == nil {
		logger = slog.Default()
	}
	return &Codec{registry: reg, logger: logger}
}

// Encode captures g as a document.
func (c *Codec) Encode(g *graph.Graph) (*Document, error) {
	doc := &Document{Name: g.Name}
	for _, v := range g.Variables() {
		b, err := EncodeValue(v.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		doc.Variables = append(doc.Variables, VariableRecord{Name: v.Name, Default: b})
	}

	for _, o := range g.Objects() {
		rec := NodeRecord{ID: o.StableID, Type: o.TypeName, Position: o.Position}
		var err error
		switch n := o.Logic(); {
		case n == nil && len(o.Opaque) > 0:
			rec.State, err = unmarshalOpaque(o.Opaque)
		case n == nil:
		default:
			rec.State, err = EncodeState(n)
			if r, ok := n.(Referrer); ok {
				rec.Refs = r.References()
			}
		}
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", o.StableID, err)
		}
		if rec.Defaults, err = encodeDefaults(o); err != nil {
			return nil, fmt.Errorf("node %q: %w", o.StableID, err)
		}
		doc.Nodes = append(doc.Nodes, rec)
	}

	arena := g.Arena()
	for _, conn := range arena.Connections() {
		from, to := arena.Port(conn.From), arena.Port(conn.To)
		doc.Connections = append(doc.Connections, ConnectionRecord{
			From: from.Owner().StableID + "." + from.ID,
			To:   to.Owner().StableID + "." + to.ID,
		})
	}
	return doc, nil
}

func encodeDefaults(o *graph.NodeObject) (Blob, error) {
	vals := make(map[string]cty.Value)
	for _, p := range o.ValueInputs.All() {
		if p.Default.Type() != cty.NilType && !p.Default.IsNull() {
			vals[p.ID] = p.Default
		}
	}
	if len(vals) == 0 {
		return Blob{}, nil
	}
	return EncodeValue(cty.ObjectVal(vals))
}

// Decode builds a graph from a document. Nodes whose type is unknown or whose
// state does not decode are kept without logic and reported by Graph.Check.
// Connections that no longer fit are dropped with a warning. Only a corrupt
// document is an error.
func (c *Codec) Decode(doc *Document, opts ...graph.Option) (*graph.Graph, error) {
	g := graph.New(doc.Name, append([]graph.Option{graph.WithLogger(c.logger)}, opts...)...)
	for _, v := range doc.Variables {
		def, err := DecodeValue(v.Default)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", v.Name, err)
		}
		g.DeclareVariable(v.Name, def)
	}

	for _, rec := range doc.Nodes {
		n, err := c.registry.NewNode(rec.Type)
		if err == nil {
			err = DecodeState(rec.State, n)
		}
		if err != nil {
			c.logger.Warn("Node state could not be restored.", "node", rec.ID, "type", rec.Type, "error", err)
			n = nil
		}
		o, err := g.Add(rec.ID, rec.Type, n)
		if err != nil {
			return nil, err
		}
		o.Position = rec.Position
		if n == nil && !rec.State.IsZero() {
			if o.Opaque, err = marshalOpaque(rec.State); err != nil {
				return nil, fmt.Errorf("node %q: %w", rec.ID, err)
			}
		}
	}

	if err := g.RegisterAll(); err != nil {
		c.logger.Warn("Some nodes failed to register.", "error", err)
	}
	for _, rec := range doc.Nodes {
		if err := c.restore(g, rec); err != nil {
			return nil, err
		}
	}
	for _, conn := range doc.Connections {
		if err := g.ConnectRef(conn.From, conn.To); err != nil {
			c.logger.Warn("Connection dropped.", "from", conn.From, "to", conn.To, "error", err)
		}
	}
	return g, nil
}

// restore applies input defaults and checks the reference table.
func (c *Codec) restore(g *graph.Graph, rec NodeRecord) error {
	o, _ := g.Object(rec.ID)
	for _, ref := range rec.Refs {
		if _, ok := g.Object(ref); !ok {
			c.logger.Warn("Node refers to a missing node.", "node", rec.ID, "ref", ref)
		}
	}
	if rec.Defaults.IsZero() || !o.IsRegistered() {
		return nil
	}
	vals, err := DecodeValue(rec.Defaults)
	if err != nil {
		return fmt.Errorf("node %q defaults: %w", rec.ID, err)
	}
	for it := vals.ElementIterator(); it.Next(); {
		k, v := it.Element()
		if p, ok := o.Port(graph.ValueInput, k.AsString()); ok {
			p.WithDefault(v)
		}
	}
	return nil
}
