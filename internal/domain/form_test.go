package domain

import (
	"errors"
	"testing"
)

func schema() []FormField {
	return []FormField{
		{ID: "url", Type: FieldURL, Required: true},
		{ID: "team", Type: FieldSelect, Options: []string{"solo", "duo"}, Required: true},
		{ID: "age", Type: FieldNumber},
		{ID: "bio", Type: FieldTextArea, MaxLength: 10},
	}
}

func TestValidateResponses(t *testing.T) {
	cases := []struct {
		name      string
		responses []FormResponse
		wantField string
	}{
		{
			"valid entry",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "team", Value: "solo"},
				{FieldID: "age", Value: "15"},
				{FieldID: "bio", Value: "hi"},
			},
			"",
		},
		{
			"missing required url",
			[]FormResponse{{FieldID: "team", Value: "solo"}},
			"url",
		},
		{
			"blank required url",
			[]FormResponse{
				{FieldID: "url", Value: "   "},
				{FieldID: "team", Value: "duo"},
			},
			"url",
		},
		{
			"malformed url",
			[]FormResponse{
				{FieldID: "url", Value: "not a url"},
				{FieldID: "team", Value: "solo"},
			},
			"url",
		},
		{
			"select outside options",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "team", Value: "squad"},
			},
			"team",
		},
		{
			"non-numeric number",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "team", Value: "solo"},
				{FieldID: "age", Value: "fifteen"},
			},
			"age",
		},
		{
			"over max length",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "team", Value: "solo"},
				{FieldID: "bio", Value: "this is far too long"},
			},
			"bio",
		},
		{
			"unknown field",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "team", Value: "solo"},
				{FieldID: "bogus", Value: "x"},
			},
			"bogus",
		},
		{
			"duplicate field",
			[]FormResponse{
				{FieldID: "url", Value: "https://example.com"},
				{FieldID: "url", Value: "https://example.org"},
				{FieldID: "team", Value: "solo"},
			},
			"url",
		},
	}

	for _, tc := range cases {
		err := ValidateResponses(schema(), tc.responses)
		if tc.wantField == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", tc.name, err)
			}
			continue
		}
		var invalid *ValidationError
		if !errors.As(err, &invalid) {
			t.Errorf("%s: expected validation error, got %v", tc.name, err)
			continue
		}
		if invalid.Field != tc.wantField {
			t.Errorf("%s: field = %q, want %q", tc.name, invalid.Field, tc.wantField)
		}
	}
}

func TestOptionalFieldMayBeOmitted(t *testing.T) {
	responses := []FormResponse{
		{FieldID: "url", Value: "https://example.com"},
		{FieldID: "team", Value: "duo"},
	}
	if err := ValidateResponses(schema(), responses); err != nil {
		t.Fatalf("optional fields should be omittable: %v", err)
	}
}

func TestValidateSchemaRejectsBadFields(t *testing.T) {
	if err := (FormField{ID: "x", Type: "checkbox"}).ValidateSchema(); err == nil {
		t.Fatalf("expected unknown type to be rejected")
	}
	if err := (FormField{ID: "x", Type: FieldSelect}).ValidateSchema(); err == nil {
		t.Fatalf("expected optionless select to be rejected")
	}
	if err := (FormField{Type: FieldText}).ValidateSchema(); err == nil {
		t.Fatalf("expected empty id to be rejected")
	}
}
