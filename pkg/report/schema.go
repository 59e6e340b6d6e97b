package report

import (
	"reflect"
	"strings"
	"time"
)

const schemaDialect = "http://json-schema.org/draft-07/schema#"

// Schema is the subset of JSON Schema needed to describe report documents.
// Type is a string, or a list of strings for nullable values.
type Schema struct {
	Schema      string             `json:"$schema,omitempty"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Type        any                `json:"type,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	MinItems    *int               `json:"minItems,omitempty"`
	MaxItems    *int               `json:"maxItems,omitempty"`
	Additional  *Schema            `json:"additionalProperties,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Ref         string             `json:"$ref,omitempty"`
	AnyOf       []*Schema          `json:"anyOf,omitempty"`
	Definitions map[string]*Schema `json:"definitions,omitempty"`
}

var (
	durationType = reflect.TypeFor[time.Duration]()
	timeType     = reflect.TypeFor[time.Time]()
)

// SchemaFor describes the JSON encoding of v. Named struct types become
// definitions referenced by $ref; fields tagged omitempty are optional and
// nil-able kinds accept null.
func SchemaFor(title string, v any) *Schema {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	defs := map[string]*Schema{}

	root := typeSchema(t, defs)
	if root.Ref != "" {
		name := strings.TrimPrefix(root.Ref, "#/definitions/")
		root = defs[name]
		delete(defs, name)
	}

	out := *root
	out.Schema = schemaDialect
	out.Title = title

	if len(defs) > 0 {
		out.Definitions = defs
	}

	return &out
}

func typeSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	switch {
	case t == durationType:
		return &Schema{Type: "integer", Description: "nanoseconds"}
	case t == timeType:
		return &Schema{Type: "string", Description: "RFC 3339 timestamp"}
	}

	switch t.Kind() {
	case reflect.String:
		return &Schema{Type: "string"}
	case reflect.Bool:
		return &Schema{Type: "boolean"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &Schema{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return &Schema{Type: "number"}
	case reflect.Pointer:
		return nullable(typeSchema(t.Elem(), defs))
	case reflect.Slice:
		return &Schema{Type: []string{"array", "null"}, Items: typeSchema(t.Elem(), defs)}
	case reflect.Array:
		n := t.Len()

		return &Schema{Type: "array", Items: typeSchema(t.Elem(), defs), MinItems: &n, MaxItems: &n}
	case reflect.Map:
		return &Schema{Type: []string{"object", "null"}, Additional: typeSchema(t.Elem(), defs)}
	case reflect.Struct:
		return structSchema(t, defs)
	default:
		return &Schema{}
	}
}

func structSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	name := t.Name()
	if name == "" {
		return objectSchema(t, defs)
	}

	if _, ok := defs[name]; !ok {
		// Reserve the slot so recursive types terminate.
		defs[name] = &Schema{}
		*defs[name] = *objectSchema(t, defs)
	}

	return &Schema{Ref: "#/definitions/" + name}
}

func objectSchema(t reflect.Type, defs map[string]*Schema) *Schema {
	s := &Schema{Type: "object", Properties: map[string]*Schema{}}
	addFields(s, t, defs)

	return s
}

// addFields mirrors encoding/json field selection: untagged embedded structs
// are flattened into the parent.
func addFields(s *Schema, t reflect.Type, defs map[string]*Schema) {
	for i := range t.NumField() {
		field := t.Field(i)

		tag, hasTag := field.Tag.Lookup("json")
		if tag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(tag, ",")

		if field.Anonymous && name == "" {
			ft := field.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}

			if ft.Kind() == reflect.Struct {
				addFields(s, ft, defs)

				continue
			}
		}

		if !field.IsExported() {
			continue
		}

		if !hasTag || name == "" {
			name = field.Name
		}

		s.Properties[name] = typeSchema(field.Type, defs)

		if !strings.Contains(opts, "omitempty") {
			s.Required = append(s.Required, name)
		}
	}
}

func nullable(s *Schema) *Schema {
	if s.Ref != "" {
		return &Schema{AnyOf: []*Schema{s, {Type: "null"}}}
	}

	if typ, ok := s.Type.(string); ok {
		out := *s
		out.Type = []string{typ, "null"}

		return &out
	}

	return s
}
