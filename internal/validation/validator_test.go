// Gatewarden - Access Control and Entitlement Core
// Copyright 2026 Gatewarden Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/gatewarden/gatewarden

package validation

import (
	"strings"
	"testing"
)

type samplePayload struct {
	Name  string `validate:"required,max=10"`
	Email string `validate:"omitempty,email"`
	Count int    `validate:"gte=0,lte=100"`
}

func TestValidateStruct_Passes(t *testing.T) {
	if verr := ValidateStruct(&samplePayload{Name: "ok", Count: 5}); verr != nil {
		t.Errorf("Expected clean validation, got %v", verr)
	}
}

func TestValidateStruct_SingleFailure(t *testing.T) {
	verr := ValidateStruct(&samplePayload{Name: "", Count: 5})
	if verr == nil {
		t.Fatal("Expected validation failure for missing Name")
	}
	if len(verr.Errors()) != 1 {
		t.Fatalf("Errors = %d, want 1", len(verr.Errors()))
	}

	fe := verr.Errors()[0]
	if fe.Field() != "Name" || fe.Tag() != "required" {
		t.Errorf("Failure = %s/%s, want Name/required", fe.Field(), fe.Tag())
	}
	if !strings.Contains(fe.Error(), "required") {
		t.Errorf("Message = %q, want a required-field message", fe.Error())
	}

	apiErr := verr.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %s, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Name" {
		t.Errorf("Details field = %v, want Name", apiErr.Details["field"])
	}
}

func TestValidateStruct_MultipleFailures(t *testing.T) {
	verr := ValidateStruct(&samplePayload{
		Name:  strings.Repeat("x", 20),
		Email: "not-an-email",
		Count: 200,
	})
	if verr == nil {
		t.Fatal("Expected validation failure")
	}
	if len(verr.Errors()) != 3 {
		t.Fatalf("Errors = %d, want 3", len(verr.Errors()))
	}

	apiErr := verr.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details = %+v, want per-field list", apiErr.Details)
	}
	if len(fields) != 3 {
		t.Errorf("Detail fields = %d, want 3", len(fields))
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("Message = %q, want combined per-field messages", apiErr.Message)
	}
}

func TestTranslateError_MessageShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    string
	}{
		{
			name: "max on string counts characters",
			payload: &struct {
				V string `validate:"max=3"`
			}{V: "abcdef"},
			want: "at most 3 characters",
		},
		{
			name: "lte on number",
			payload: &struct {
				V int `validate:"lte=5"`
			}{V: 9},
			want: "less than or equal to 5",
		},
		{
			name: "email",
			payload: &struct {
				V string `validate:"email"`
			}{V: "nope"},
			want: "valid email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := ValidateStruct(tt.payload)
			if verr == nil {
				t.Fatal("Expected validation failure")
			}
			if msg := verr.Error(); !strings.Contains(msg, tt.want) {
				t.Errorf("Message = %q, want mention of %q", msg, tt.want)
			}
		})
	}
}
