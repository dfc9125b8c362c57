package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// FieldType tags a contest form field variant. Each variant carries its own
// validation rule; code switches on the tag here, in one place, instead of
// branching on type strings throughout the engine.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextArea FieldType = "textarea"
	FieldSelect   FieldType = "select"
	FieldURL      FieldType = "url"
	FieldNumber   FieldType = "number"
)

// FormField is one entry of a contest's submission form schema.
type FormField struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Type      FieldType `json:"type"`
	Options   []string  `json:"options,omitempty"` // select only
	Required  bool      `json:"required"`
	MaxLength int       `json:"maxLength,omitempty"`
}

// ValidateSchema checks that the field definition itself is well-formed.
func (f FormField) ValidateSchema() error {
	if f.ID == "" {
		return &ValidationError{Field: "formSchema", Message: "field id must not be empty"}
	}
	switch f.Type {
	case FieldText, FieldTextArea, FieldURL, FieldNumber:
	case FieldSelect:
		if len(f.Options) == 0 {
			return &ValidationError{Field: f.ID, Message: "select field needs options"}
		}
	default:
		return &ValidationError{Field: f.ID, Message: "unknown field type"}
	}
	return nil
}

// ValidateValue checks a submitted value against the field's rule.
func (f FormField) ValidateValue(value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		if f.Required {
			return &ValidationError{Field: f.ID, Message: "required"}
		}
		return nil
	}
	if f.MaxLength > 0 && len(value) > f.MaxLength {
		return &ValidationError{Field: f.ID, Message: "exceeds max length"}
	}
	switch f.Type {
	case FieldSelect:
		for _, opt := range f.Options {
			if opt == value {
				return nil
			}
		}
		return &ValidationError{Field: f.ID, Message: "not one of the allowed options"}
	case FieldURL:
		u, err := url.Parse(value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return &ValidationError{Field: f.ID, Message: "not a valid URL"}
		}
	case FieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return &ValidationError{Field: f.ID, Message: "not a number"}
		}
	}
	return nil
}

// ValidateResponses checks a full contest entry against the schema. Unknown
// field IDs are rejected; missing required fields are reported by field.
func ValidateResponses(schema []FormField, responses []FormResponse) error {
	byID := make(map[string]FormField, len(schema))
	for _, f := range schema {
		byID[f.ID] = f
	}

	seen := make(map[string]string, len(responses))
	for _, r := range responses {
		if _, ok := byID[r.FieldID]; !ok {
			return &ValidationError{Field: r.FieldID, Message: "unknown field"}
		}
		if _, dup := seen[r.FieldID]; dup {
			return &ValidationError{Field: r.FieldID, Message: "duplicate response"}
		}
		seen[r.FieldID] = r.Value
	}

	for _, f := range schema {
		if err := f.ValidateValue(seen[f.ID]); err != nil {
			return err
		}
	}
	return nil
}
