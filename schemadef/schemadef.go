// Package schemadef reads declarative schema documents and registers the enum
// and object types they describe.
//
// A document lists enums first and object types second; a type may refer to
// enums and to types declared before it (or registered elsewhere):
//
//	enums:
//	  - name: color
//	    symbols: [red, green, blue]
//	types:
//	  - name: swatch
//	    fields:
//	      - {name: id, type: STRING.ident, flags: [key]}
//	      - {name: color, type: ENUM.color, default: green}
//	      - {name: tags, type: LIST.STRING, range: [0, 8, [1, 20]]}
//
// Ranges and defaults are plain YAML or JSON values; defaults are read with
// the field's domain, so a date default is written as "2024-01-31".
// YAML input may hold several documents separated by "---".
package schemadef

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gojson "github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/reoring/fusion"
)

// Document is one schema document.
type Document struct {
	Enums []EnumDef `yaml:"enums" json:"enums"`
	Types []TypeDef `yaml:"types" json:"types"`
}

// EnumDef declares an enum type.
type EnumDef struct {
	Name    string   `yaml:"name" json:"name"`
	Symbols []string `yaml:"symbols" json:"symbols"`
}

// TypeDef declares an object type.
type TypeDef struct {
	Name   string     `yaml:"name" json:"name"`
	Fields []FieldDef `yaml:"fields" json:"fields"`
}

// FieldDef declares one field. Type is a qualified type name such as
// "INTEGER.long" or "MAP.DATE". Flags are "key", "readonly" and "nullable".
type FieldDef struct {
	Name    string   `yaml:"name" json:"name"`
	Type    string   `yaml:"type" json:"type"`
	Range   []any    `yaml:"range,omitempty" json:"range,omitempty"`
	Flags   []string `yaml:"flags,omitempty" json:"flags,omitempty"`
	Default any      `yaml:"default,omitempty" json:"default,omitempty"`
}

// ReadYAML decodes every document of a YAML stream. Unknown keys are errors.
func ReadYAML(r io.Reader) ([]*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var docs []*Document
	for {
		var doc Document
		if err := dec.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				return docs, nil
			}
			return nil, fmt.Errorf("schemadef: yaml document %d: %w", len(docs)+1, err)
		}
		docs = append(docs, &doc)
	}
}

// ReadJSON decodes a single JSON document. Unknown keys are errors.
func ReadJSON(r io.Reader) (*Document, error) {
	dec := gojson.NewDecoder(r)
	dec.DisallowUnknownFields()
	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("schemadef: json document: %w", err)
	}
	return &doc, nil
}

// Load reads a schema file, choosing JSON for a ".json" extension and YAML
// otherwise.
func Load(path string) ([]*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schemadef: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		doc, err := ReadJSON(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*Document{doc}, nil
	}
	docs, err := ReadYAML(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return docs, nil
}

// Register registers the document's enums and then its types, in order, and
// returns the registered object types. Registration stops at the first error;
// names registered before it stay registered.
func (d *Document) Register() ([]*fusion.ObjectType, error) {
	for _, e := range d.Enums {
		if _, err := fusion.RegisterEnum(e.Name, e.Symbols...); err != nil {
			return nil, fmt.Errorf("schemadef: enum %s: %w", e.Name, err)
		}
	}
	types := make([]*fusion.ObjectType, 0, len(d.Types))
	for _, td := range d.Types {
		s, err := td.Schema()
		if err != nil {
			return nil, err
		}
		t := fusion.NewObjectType(s)
		if err := fusion.Register(t); err != nil {
			return nil, fmt.Errorf("schemadef: type %s: %w", td.Name, err)
		}
		types = append(types, t)
	}
	return types, nil
}

// Schema compiles the type definition without registering it. Domains that
// name enums or object types need those registered first.
func (td TypeDef) Schema() (*fusion.ObjectSchema, error) {
	b := fusion.NewSchema(td.Name)
	for _, fd := range td.Fields {
		d, err := fd.domain()
		if err != nil {
			return nil, fmt.Errorf("schemadef: type %s field %s: %w", td.Name, fd.Name, err)
		}
		step := b.Field(fd.Name, d)
		for _, flag := range fd.Flags {
			switch strings.ToLower(flag) {
			case "key":
				step.Key()
			case "readonly":
				step.Readonly()
			case "nullable":
				step.Nullable()
			default:
				return nil, fmt.Errorf("schemadef: type %s field %s: unknown flag %q", td.Name, fd.Name, flag)
			}
		}
		if fd.Default != nil {
			def, err := fd.defaultValue(d)
			if err != nil {
				return nil, fmt.Errorf("schemadef: type %s field %s: default: %w", td.Name, fd.Name, err)
			}
			step.Default(def)
		}
	}
	s, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("schemadef: type %s: %w", td.Name, err)
	}
	return s, nil
}

func (fd FieldDef) domain() (*fusion.Domain, error) {
	var rangeJSON string
	if len(fd.Range) > 0 {
		raw, err := gojson.Marshal(fd.Range)
		if err != nil {
			return nil, fmt.Errorf("range: %w", err)
		}
		rangeJSON = string(raw)
	}
	return fusion.ParseDomain(fd.Type, rangeJSON)
}

// defaultValue reads the default through the field's domain, so it accepts
// exactly what the JSON reader accepts for the field.
func (fd FieldDef) defaultValue(d *fusion.Domain) (fusion.Value, error) {
	raw, err := gojson.Marshal(fd.Default)
	if err != nil {
		return fusion.Null, err
	}
	return fusion.Unmarshal(raw, d)
}

// LoadAndRegister parses the files concurrently, then registers their
// documents in argument order, so later files may refer to types of earlier
// ones.
func LoadAndRegister(paths ...string) ([]*fusion.ObjectType, error) {
	parsed := make([][]*Document, len(paths))
	var g errgroup.Group
	for i, path := range paths {
		g.Go(func() error {
			docs, err := Load(path)
			parsed[i] = docs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var all []*fusion.ObjectType
	for i, docs := range parsed {
		for _, doc := range docs {
			types, err := doc.Register()
			if err != nil {
				return nil, fmt.Errorf("%s: %w", paths[i], err)
			}
			all = append(all, types...)
		}
	}
	return all, nil
}
