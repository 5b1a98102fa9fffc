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

type stockRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

func TestProperty_RequiredFieldValidationWorks(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("missing required fields are rejected", prop.ForAll(
		func(includeProductID bool, includeQuantity bool) bool {
			reqMap := make(map[string]interface{})

			if includeProductID {
				reqMap["product_id"] = "6f1c2d5e-8b3a-4f7c-9d0e-1a2b3c4d5e6f"
			}
			if includeQuantity {
				reqMap["quantity"] = 5
			}

			allFieldsPresent := includeProductID && includeQuantity

			reqBody, _ := json.Marshal(reqMap)
			req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
			req.Header.Set("Content-Type", "application/json")

			var payload stockRequest
			err := DecodeAndValidate(req, &payload)

			if allFieldsPresent {
				return err == nil
			}
			return err != nil
		},
		gen.Bool(),
		gen.Bool(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestDecodeAndValidateRejectsMalformedJSON(t *testing.T) {
	req := httptest.NewRequest("POST", "/test", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	var payload stockRequest
	if err := DecodeAndValidate(req, &payload); err == nil {
		t.Fatal("expected decode error for malformed JSON")
	}
}

func TestFormatValidationErrors(t *testing.T) {
	reqBody, _ := json.Marshal(map[string]interface{}{
		"product_id": "not-a-uuid",
		"quantity":   -3,
	})
	req := httptest.NewRequest("POST", "/test", bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")

	var payload stockRequest
	err := DecodeAndValidate(req, &payload)
	if err == nil {
		t.Fatal("expected validation error")
	}

	formatted := FormatValidationErrors(err)
	if len(formatted) != 2 {
		t.Fatalf("expected 2 formatted errors, got %d: %v", len(formatted), formatted)
	}

	byField := make(map[string]string, len(formatted))
	for _, fe := range formatted {
		byField[fe.Field] = fe.Message
	}

	if byField["ProductID"] != "Invalid identifier format" {
		t.Errorf("unexpected product ID message: %q", byField["ProductID"])
	}
	if byField["Quantity"] != "Value must be greater than 0" {
		t.Errorf("unexpected quantity message: %q", byField["Quantity"])
	}
}

func TestFormatValidationErrorsNonValidatorError(t *testing.T) {
	formatted := FormatValidationErrors(json.Unmarshal([]byte("{"), &struct{}{}))
	if len(formatted) != 0 {
		t.Errorf("expected no formatted errors for a decode error, got %v", formatted)
	}
}
