package middleware

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

type discountTestRequest struct {
	Code  string  `json:"code" validate:"required,min=3"`
	Type  string  `json:"type" validate:"required,oneof=PERCENTAGE FIXED"`
	Value float64 `json:"value" validate:"required,gt=0"`
}

func decodeDiscount(t *testing.T, body map[string]interface{}) error {
	t.Helper()
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")

	var parsed discountTestRequest
	return DecodeAndValidate(req, &parsed)
}

func TestProperty_MissingRequiredFieldsAreRejected(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("validation passes only when every field is present", prop.ForAll(
		func(includeCode, includeType, includeValue bool) bool {
			body := make(map[string]interface{})
			if includeCode {
				body["code"] = "SUMMER10"
			}
			if includeType {
				body["type"] = "PERCENTAGE"
			}
			if includeValue {
				body["value"] = 10.0
			}

			err := decodeDiscount(t, body)
			if includeCode && includeType && includeValue {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestProperty_PositiveValuesPassNonPositiveFail(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("value must be strictly positive", prop.ForAll(
		func(value float64) bool {
			err := decodeDiscount(t, map[string]interface{}{
				"code":  "SUMMER10",
				"type":  "FIXED",
				"value": value,
			})
			if value > 0 {
				return err == nil
			}
			return err != nil
		},
		gen.Float64Range(-100, 100),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestValidationErrors_UseJSONFieldNames(t *testing.T) {
	err := decodeDiscount(t, map[string]interface{}{
		"code":  "SUMMER10",
		"type":  "BOGO",
		"value": 10.0,
	})
	if err == nil {
		t.Fatal("expected validation error for unknown discount type")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 1 {
		t.Fatalf("expected a single error, got %d", len(formatted))
	}
	if formatted[0].Field != "type" {
		t.Errorf("expected json field name 'type', got %q", formatted[0].Field)
	}
	if formatted[0].Message != "Must be one of: PERCENTAGE FIXED" {
		t.Errorf("unexpected message %q", formatted[0].Message)
	}
}

func TestFormatValidationErrors_IgnoresDecodeErrors(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	var parsed discountTestRequest
	err := DecodeAndValidate(req, &parsed)
	if err == nil {
		t.Fatal("expected a decode error")
	}
	if formatted := FormatValidationErrors(err); len(formatted) != 0 {
		t.Errorf("decode errors should not format as field errors, got %v", formatted)
	}
}

func TestShortCodesAreRejected(t *testing.T) {
	err := decodeDiscount(t, map[string]interface{}{
		"code":  "AB",
		"type":  "PERCENTAGE",
		"value": 5.0,
	})
	if err == nil {
		t.Fatal("expected validation error for two-character code")
	}
}
