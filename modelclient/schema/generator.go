package schema

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Generator derives a JSONSchema from a Go struct type via reflection, the
// same way every classifier result type in this repo gets its schema:
// write the Go struct once, derive the schema and the validator from it.
type Generator struct {
	visited map[reflect.Type]bool
}

// NewGenerator returns a ready-to-use Generator.
func NewGenerator() *Generator {
	return &Generator{visited: make(map[reflect.Type]bool)}
}

// Generate builds a JSONSchema for t.
//
// Supported `jsonschema` tag options on struct fields:
//   - required
//   - enum=a,b,c
//   - minimum=0, maximum=100
//   - minLength=1, maxLength=100
//   - pattern=^[A-Z]{2}$
//   - format=date-time
//   - minItems=1, maxItems=10
//   - description=...
//   - default=...
func (g *Generator) Generate(t reflect.Type) (*JSONSchema, error) {
	g.visited = make(map[reflect.Type]bool)
	return g.generate(t)
}

// GenerateFromValue is a convenience wrapper over Generate for a sample value.
func (g *Generator) GenerateFromValue(v any) (*JSONSchema, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot generate schema from nil value")
	}
	return g.Generate(reflect.TypeOf(v))
}

func (g *Generator) generate(t reflect.Type) (*JSONSchema, error) {
	if t == nil {
		return nil, fmt.Errorf("cannot generate schema for nil type")
	}
	if t.Kind() == reflect.Ptr {
		s, err := g.generate(t.Elem())
		if err != nil {
			return nil, err
		}
		s.Nullable = true
		return s, nil
	}
	if g.visited[t] {
		return &JSONSchema{Type: TypeObject}, nil
	}

	switch t.Kind() {
	case reflect.String:
		return &JSONSchema{Type: TypeString}, nil
	case reflect.Bool:
		return &JSONSchema{Type: TypeBoolean}, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &JSONSchema{Type: TypeInteger}, nil
	case reflect.Float32, reflect.Float64:
		return &JSONSchema{Type: TypeNumber}, nil
	case reflect.Slice, reflect.Array:
		item, err := g.generate(t.Elem())
		if err != nil {
			return nil, fmt.Errorf("array element: %w", err)
		}
		return &JSONSchema{Type: TypeArray, Items: item}, nil
	case reflect.Struct:
		return g.generateStruct(t)
	case reflect.Interface:
		return &JSONSchema{}, nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", t.Kind())
	}
}

func (g *Generator) generateStruct(t reflect.Type) (*JSONSchema, error) {
	g.visited[t] = true
	defer func() { g.visited[t] = false }()

	s := NewObject()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		name := jsonFieldName(field)
		if name == "-" {
			continue
		}

		fieldSchema, err := g.generate(field.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field.Name, err)
		}
		if err := applyTag(fieldSchema, field); err != nil {
			return nil, fmt.Errorf("field %s tag: %w", field.Name, err)
		}

		if _, ok := tagOptions(field.Tag.Get("jsonschema"))["required"]; ok {
			s.Required = append(s.Required, name)
		}

		s.Properties[name] = fieldSchema
	}

	return s, nil
}

func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name := strings.Split(tag, ",")[0]
	if name == "" {
		return field.Name
	}
	return name
}

func applyTag(s *JSONSchema, field reflect.StructField) error {
	raw := field.Tag.Get("jsonschema")
	if raw == "" {
		return nil
	}
	opts := tagOptions(raw)

	if desc, ok := opts["description"]; ok {
		s.Description = desc
	}
	if def, ok := opts["default"]; ok {
		s.Default = parseDefault(def, field.Type)
	}
	if enumStr, ok := opts["enum"]; ok {
		values := strings.Split(enumStr, ",")
		s.Enum = make([]any, len(values))
		for i, v := range values {
			s.Enum[i] = strings.TrimSpace(v)
		}
	}
	if v, ok := opts["minLength"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MinLength = &n
		}
	}
	if v, ok := opts["maxLength"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxLength = &n
		}
	}
	if v, ok := opts["pattern"]; ok {
		s.Pattern = v
	}
	if v, ok := opts["format"]; ok {
		s.Format = Format(v)
	}
	if v, ok := opts["minimum"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			s.Minimum = &n
		}
	}
	if v, ok := opts["maximum"]; ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			s.Maximum = &n
		}
	}
	if v, ok := opts["minItems"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MinItems = &n
		}
	}
	if v, ok := opts["maxItems"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			s.MaxItems = &n
		}
	}

	return nil
}

// tagOptions parses a "k1,k2=v2,k3=v3" tag, keeping commas inside a value
// (e.g. "enum=a,b,c") glued to that value rather than splitting on them.
func tagOptions(tag string) map[string]string {
	out := make(map[string]string)
	if tag == "" {
		return out
	}

	knownBool := map[string]bool{"required": true}

	var parts []string
	var cur strings.Builder
	inValue := false
	for i := 0; i < len(tag); i++ {
		ch := tag[i]
		switch {
		case ch == '=':
			inValue = true
			cur.WriteByte(ch)
		case ch == ',' && !inValue:
			parts = append(parts, cur.String())
			cur.Reset()
		case ch == ',' && inValue:
			rest := tag[i+1:]
			next := rest
			if idx := strings.Index(rest, ","); idx >= 0 {
				next = rest[:idx]
			}
			next = strings.TrimSpace(next)
			if knownBool[next] || looksLikeKey(next) {
				parts = append(parts, cur.String())
				cur.Reset()
				inValue = false
				continue
			}
			cur.WriteByte(ch)
		default:
			cur.WriteByte(ch)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if idx := strings.Index(part, "="); idx > 0 {
			out[part[:idx]] = part[idx+1:]
		} else {
			out[part] = ""
		}
	}
	return out
}

func looksLikeKey(segment string) bool {
	idx := strings.Index(segment, "=")
	if idx <= 0 {
		return false
	}
	key := segment[:idx]
	for _, c := range key {
		if !((c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}

func parseDefault(value string, t reflect.Type) any {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return value
	case reflect.Bool:
		return value == "true"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	case reflect.Float32, reflect.Float64:
		if v, err := strconv.ParseFloat(value, 64); err == nil {
			return v
		}
	}
	return value
}
