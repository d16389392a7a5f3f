package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Overlay adjusts presentation and defaults of existing schemas without
// touching their rules. Documents are keyed by entity name, then field name.
type Overlay struct {
	Entities map[string]EntityOverlay `json:"entities" yaml:"entities"`
}

// EntityOverlay holds the field overrides of one entity.
type EntityOverlay struct {
	Fields map[string]FieldOverlay `json:"fields" yaml:"fields"`
}

// FieldOverlay lists the attributes an overlay may replace. Zero values are
// left untouched.
type FieldOverlay struct {
	Label       string `json:"label" yaml:"label"`
	Placeholder string `json:"placeholder" yaml:"placeholder"`
	Help        string `json:"help" yaml:"help"`
	Default     any    `json:"default" yaml:"default"`
}

// ParseOverlay decodes a JSON or YAML overlay document.
func ParseOverlay(data []byte, source string) (Overlay, error) {
	var doc Overlay
	if len(strings.TrimSpace(string(data))) == 0 {
		return Overlay{}, fmt.Errorf("schema: overlay %s is empty", source)
	}
	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}
	doc = Overlay{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Overlay{}, fmt.Errorf("schema: parse overlay %s: %w", source, err)
	}
	return doc, nil
}

// LoadOverlay reads and parses the overlay at path.
func LoadOverlay(path string) (Overlay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overlay{}, fmt.Errorf("schema: read overlay %s: %w", path, err)
	}
	return ParseOverlay(data, path)
}

// For returns the overrides of entity.
func (o Overlay) For(entity string) (EntityOverlay, bool) {
	eo, ok := o.Entities[entity]
	return eo, ok
}

// WithOverlay returns a new schema with the overlay entries for this entity
// applied. The receiver is never modified. Overrides naming unknown fields or
// carrying defaults the field cannot hold are rejected.
func (s *Schema[D]) WithOverlay(o Overlay) (*Schema[D], error) {
	eo, ok := o.For(s.entity)
	if !ok || len(eo.Fields) == 0 {
		return s, nil
	}

	out := &Schema[D]{
		entity:     s.entity,
		fields:     make([]Field[D], len(s.fields)),
		index:      s.index,
		dependents: s.dependents,
	}
	for i, f := range s.fields {
		f.Meta = f.Meta.clone()
		out.fields[i] = f
	}

	for name, fo := range eo.Fields {
		f, ok := out.field(name)
		if !ok {
			return nil, fmt.Errorf("schema %s: overlay: %w", s.entity, unknownField(name))
		}
		if fo.Label != "" {
			f.Label = fo.Label
		}
		if fo.Placeholder != "" {
			f.Placeholder = fo.Placeholder
		}
		if fo.Help != "" {
			f.Help = fo.Help
		}
		if fo.Default != nil {
			if f.list != nil {
				return nil, fmt.Errorf("schema %s: overlay: list field %q cannot take a default", s.entity, name)
			}
			var probe D
			if err := f.set(&probe, fo.Default); err != nil {
				return nil, fmt.Errorf("schema %s: overlay default: %w", s.entity, err)
			}
			f.Default = f.get(&probe)
			f.DefaultFunc = nil
		}
	}
	return out, nil
}
