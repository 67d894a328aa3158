package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError is a single schema-validation failure, identified by its
// JSON Pointer-ish field path.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors collects every ParseError found in one Validate call.
type ValidationErrors struct {
	Errors []ParseError `json:"errors"`
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Validate checks data against s, enforcing: type match, required
// properties present, enum membership, and string/array length bounds.
// It is intentionally stricter than general JSON Schema — every
// classifier schema in this repo sets additionalProperties=false, and
// Validate enforces that too, since stray fields from a drifting model
// response should fail loudly rather than be silently ignored.
func Validate(data []byte, s *JSONSchema) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return &ValidationErrors{Errors: []ParseError{{Message: fmt.Sprintf("invalid JSON: %v", err)}}}
	}
	var errs []ParseError
	validateValue("$", v, s, &errs)
	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func validateValue(path string, v any, s *JSONSchema, errs *[]ParseError) {
	if s == nil {
		return
	}
	if v == nil {
		if !s.Nullable && s.Type != TypeNull && s.Type != "" {
			*errs = append(*errs, ParseError{Path: path, Message: "unexpected null"})
		}
		return
	}

	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			*errs = append(*errs, ParseError{Path: path, Message: "expected object"})
			return
		}
		for _, req := range s.Required {
			if _, ok := obj[req]; !ok {
				*errs = append(*errs, ParseError{Path: path + "." + req, Message: "missing required field"})
			}
		}
		if s.AdditionalProperties != nil && !*s.AdditionalProperties {
			for key := range obj {
				if _, ok := s.Properties[key]; !ok {
					*errs = append(*errs, ParseError{Path: path + "." + key, Message: "unexpected field"})
				}
			}
		}
		for key, propSchema := range s.Properties {
			if val, ok := obj[key]; ok {
				validateValue(path+"."+key, val, propSchema, errs)
			}
		}
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			*errs = append(*errs, ParseError{Path: path, Message: "expected array"})
			return
		}
		if s.MinItems != nil && len(arr) < *s.MinItems {
			*errs = append(*errs, ParseError{Path: path, Message: "too few items"})
		}
		if s.MaxItems != nil && len(arr) > *s.MaxItems {
			*errs = append(*errs, ParseError{Path: path, Message: "too many items"})
		}
		for i, item := range arr {
			validateValue(fmt.Sprintf("%s[%d]", path, i), item, s.Items, errs)
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			*errs = append(*errs, ParseError{Path: path, Message: "expected string"})
			return
		}
		if s.MinLength != nil && len(str) < *s.MinLength {
			*errs = append(*errs, ParseError{Path: path, Message: "string too short"})
		}
		if s.MaxLength != nil && len(str) > *s.MaxLength {
			*errs = append(*errs, ParseError{Path: path, Message: "string too long"})
		}
		validateEnum(path, str, s.Enum, errs)
	case TypeNumber, TypeInteger:
		num, ok := v.(float64)
		if !ok {
			*errs = append(*errs, ParseError{Path: path, Message: "expected number"})
			return
		}
		if s.Minimum != nil && num < *s.Minimum {
			*errs = append(*errs, ParseError{Path: path, Message: "below minimum"})
		}
		if s.Maximum != nil && num > *s.Maximum {
			*errs = append(*errs, ParseError{Path: path, Message: "above maximum"})
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			*errs = append(*errs, ParseError{Path: path, Message: "expected boolean"})
		}
	}
}

func validateEnum(path string, v any, enum []any, errs *[]ParseError) {
	if len(enum) == 0 {
		return
	}
	for _, e := range enum {
		if e == v {
			return
		}
	}
	*errs = append(*errs, ParseError{Path: path, Message: fmt.Sprintf("value %v not in enum", v)})
}
