package validation

import (
	"reflect"
	"strings"
)

// JSONPath maps a Go dotted field path (as reported by encoding/json type
// errors) to the json key path of out's type.
func JSONPath(out any, dotPath string) string {
	dotPath = strings.TrimSpace(dotPath)
	if dotPath == "" {
		return ""
	}

	return mapStructPath(baseStructType(out), strings.Split(dotPath, "."))
}

func baseStructType(v any) reflect.Type {
	t := reflect.TypeOf(v)

	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t != nil && t.Kind() == reflect.Struct {
		return t
	}

	return nil
}

func mapStructPath(current reflect.Type, parts []string) string {
	out := make([]string, 0, len(parts))

	for _, rawPart := range parts {
		if rawPart == "" {
			continue
		}

		fieldName, indexSuffix := splitFieldIndex(rawPart)
		jsonName := fieldName

		var next reflect.Type
		if current != nil && current.Kind() == reflect.Struct {
			if sf, ok := fieldByNameOrJSON(current, fieldName); ok {
				if n := JSONName(sf); n != "" {
					jsonName = n
				}
				next = sf.Type
			}
		}

		out = append(out, jsonName+indexSuffix)
		current = unwindCollection(next)
	}

	return strings.Join(out, ".")
}

// encoding/json reports either Go names or json keys depending on version.
func fieldByNameOrJSON(t reflect.Type, name string) (reflect.StructField, bool) {
	if sf, ok := t.FieldByName(name); ok {
		return sf, true
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if JSONName(sf) == name {
			return sf, true
		}
	}
	return reflect.StructField{}, false
}

func splitFieldIndex(part string) (string, string) {
	idx := strings.Index(part, "[")
	if idx == -1 {
		return part, ""
	}

	return part[:idx], part[idx:]
}

func unwindCollection(t reflect.Type) reflect.Type {
	for t != nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Slice, reflect.Array:
			t = t.Elem()
		default:
			return t
		}
	}

	return nil
}
