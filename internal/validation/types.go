package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TypeErrors reports every top-level field of out whose JSON value in raw has
// the wrong type. encoding/json stops at the first mismatch, so each field is
// decoded on its own. Keys match case-insensitively, as encoding/json does.
func TypeErrors(raw []byte, out any) []FieldError {
	t := baseStructType(out)
	if t == nil {
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}

	var fields []FieldError
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		name := JSONName(sf)
		if !sf.IsExported() || name == "" {
			continue
		}

		value, ok := lookupKey(obj, name)
		if !ok {
			continue
		}

		err := json.Unmarshal(value, reflect.New(sf.Type).Interface())
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			fields = append(fields, FieldError{
				Field:   name,
				Rule:    "type",
				Message: fmt.Sprintf("must be of type %s", typeErr.Type.String()),
			})
		}
	}

	return fields
}

func lookupKey(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if v, ok := obj[name]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}
