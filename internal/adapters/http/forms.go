package web

import (
	"bytes"
	"encoding/json"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gymdash/internal/domain/validation"
)

// Input kinds for generated form fields.
const (
	inputText     = "text"
	inputNumber   = "number"
	inputCheckbox = "checkbox"
	inputDateTime = "datetime"
	inputJSON     = "json"
)

// readOnlyFields are shown but never taken from a submitted form.
var readOnlyFields = map[string]bool{
	"id":       true,
	"enrolled": true,
}

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf(&time.Time{})
)

// formField is one generated form input, derived from a record's JSON shape.
type formField struct {
	Name     string
	Label    string
	Value    string
	Input    string
	Nullable bool
	ReadOnly bool
	Error    string
}

// formFields lists v's JSON fields in struct order with their current values.
// PRE: v is a struct
func formFields(v any) []formField {
	rt := reflect.TypeOf(v)
	raw, _ := json.Marshal(v)
	var values map[string]json.RawMessage
	_ = json.Unmarshal(raw, &values)

	fields := make([]formField, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if !f.IsExported() || name == "" || name == "-" {
			continue
		}
		ff := formField{
			Name:     name,
			Label:    fieldLabel(name),
			Input:    inputFor(f.Type),
			Nullable: f.Type.Kind() == reflect.Pointer,
			ReadOnly: readOnlyFields[name],
		}
		ff.Value = displayValue(values[name], ff.Input)
		fields = append(fields, ff)
	}
	return fields
}

func inputFor(t reflect.Type) string {
	switch {
	case t == timeType, t == timePtrType:
		return inputDateTime
	}
	switch t.Kind() {
	case reflect.String:
		return inputText
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return inputNumber
	case reflect.Bool:
		return inputCheckbox
	}
	return inputJSON
}

func displayValue(raw json.RawMessage, input string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	switch input {
	case inputText, inputDateTime:
		var s string
		if json.Unmarshal(raw, &s) == nil {
			if input == inputDateTime && strings.HasPrefix(s, "0001-01-01") {
				return ""
			}
			return s
		}
	case inputJSON:
		var buf bytes.Buffer
		if json.Indent(&buf, raw, "", "  ") == nil {
			return buf.String()
		}
	}
	return string(raw)
}

// fieldLabel turns "franchise_id" into "Franchise ID".
func fieldLabel(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		switch w {
		case "id", "sku":
			words[i] = strings.ToUpper(w)
		default:
			if i == 0 && w != "" {
				words[i] = strings.ToUpper(w[:1]) + w[1:]
			}
		}
	}
	return strings.Join(words, " ")
}

// formJSON overlays submitted form values on base's JSON so the result can
// go through the same schema and decode path as an API body. Read-only
// fields keep base's values.
func formJSON(base any, fields []formField, form url.Values) ([]byte, error) {
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	doc := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	var errs validation.Errors
	for _, f := range fields {
		if f.ReadOnly {
			continue
		}
		value := strings.TrimSpace(form.Get(f.Name))
		switch f.Input {
		case inputCheckbox:
			doc[f.Name] = json.RawMessage(strconv.FormatBool(value != "" && value != "false"))
		case inputNumber:
			if value == "" {
				value = "0"
			}
			if _, err := strconv.ParseFloat(value, 64); err != nil || !json.Valid([]byte(value)) {
				errs.Add(f.Name, "must be a number")
				continue
			}
			doc[f.Name] = json.RawMessage(value)
		case inputJSON:
			if value == "" {
				doc[f.Name] = json.RawMessage("null")
				continue
			}
			if !json.Valid([]byte(value)) {
				errs.Add(f.Name, "must be valid JSON")
				continue
			}
			doc[f.Name] = json.RawMessage(value)
		case inputDateTime:
			if value == "" {
				if f.Nullable {
					doc[f.Name] = json.RawMessage("null")
				} else {
					delete(doc, f.Name)
				}
				continue
			}
			if _, err := time.Parse(time.RFC3339, value); err != nil {
				errs.Add(f.Name, "must be a date-time like 2006-01-02T15:04:05Z")
				continue
			}
			doc[f.Name], _ = json.Marshal(value)
		default:
			if value == "" && f.Nullable {
				doc[f.Name] = json.RawMessage("null")
				continue
			}
			doc[f.Name], _ = json.Marshal(value)
		}
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
