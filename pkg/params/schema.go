package params

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateSchema checks a JSON parameters document against a JSON Schema,
// returning one message per violation formatted "<msg>: <field path>".
// A nil error with non-empty messages means the document failed validation;
// a non-nil error means the schema or document could not be evaluated.
func ValidateSchema(jsonText string, schema map[string]any) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewStringLoader(jsonText),
	)
	if err != nil {
		return nil, fmt.Errorf("evaluating parameters schema: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, violation := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", violation.Description(), violation.Field()))
	}
	return messages, nil
}

// SchemaFor derives a JSON Schema for a parameters type by reflection,
// for processors that do not declare an explicit schema. The document is
// suitable for the signature introspection endpoint and for ValidateSchema.
func SchemaFor(p Parameters) map[string]any {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	v := reflect.ValueOf(p)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}

	properties := map[string]any{}
	collectProperties(t, v, properties)

	return map[string]any{
		"title":                t.Name(),
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
}

func collectProperties(t reflect.Type, v reflect.Value, out map[string]any) {
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous {
			ft := field.Type
			fv := v.Field(i)
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
				fv = fv.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectProperties(ft, fv, out)
			}
			continue
		}
		if !field.IsExported() {
			continue
		}

		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}

		prop := map[string]any{}
		if jsonType := schemaType(field.Type); jsonType != "" {
			prop["type"] = jsonType
		}
		if v.IsValid() && v.Field(i).CanInterface() {
			prop["default"] = v.Field(i).Interface()
		}
		out[name] = prop
	}
}

func schemaType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return ""
	}
}
