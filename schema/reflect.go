package schema

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

// FromStruct derives a JSON object schema from a Go struct type by
// reflection, so tool authors can describe parameters with a typed struct
// instead of hand-writing a JSON literal. Fields without a json tag fall
// back to the field's snake_case name.
func FromStruct(v any) *JSON {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return &JSON{Type: Object}
	}
	return structSchema(t)
}

func structSchema(t reflect.Type) *JSON {
	s := &JSON{
		Type:       Object,
		Properties: make(map[string]*JSON),
	}

	var required []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}

		name, omit := jsonFieldName(f)
		if name == "-" {
			continue
		}

		fs := fieldSchema(f.Type)
		if desc := f.Tag.Get("desc"); desc != "" {
			fs.Description = desc
		}
		s.Properties[name] = fs

		if !omit {
			required = append(required, name)
		}
	}
	if len(required) > 0 {
		s.Required = required
	}
	return s
}

func jsonFieldName(f reflect.StructField) (name string, omitempty bool) {
	tag := f.Tag.Get("json")
	if tag == "" {
		return strcase.ToSnake(f.Name), false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strcase.ToSnake(f.Name)
	}
	for _, p := range parts[1:] {
		if p == "omitempty" || p == "omitzero" {
			omitempty = true
		}
	}
	return name, omitempty
}

func fieldSchema(t reflect.Type) *JSON {
	switch t.Kind() {
	case reflect.String:
		return &JSON{Type: String}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return &JSON{Type: Integer}
	case reflect.Float32, reflect.Float64:
		return &JSON{Type: Number}
	case reflect.Bool:
		return &JSON{Type: Boolean}
	case reflect.Slice, reflect.Array:
		return &JSON{Type: Array, Items: fieldSchema(t.Elem())}
	case reflect.Ptr:
		return fieldSchema(t.Elem())
	case reflect.Struct:
		return structSchema(t)
	case reflect.Map:
		return &JSON{Type: Object}
	default:
		return &JSON{Type: Object}
	}
}
