package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"kyc/pkg/kycerrors"
)

func TestWriteError(t *testing.T) {
	t.Run("internal error omits description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, kycerrors.New(kycerrors.CodeInternal, "db failed"))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error"] != string(kycerrors.CodeInternal) {
			t.Fatalf("expected error code %q, got %q", kycerrors.CodeInternal, body["error"])
		}
		if _, ok := body["error_description"]; ok {
			t.Fatalf("expected error_description to be omitted for internal errors")
		}
	})

	t.Run("client error includes description", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, kycerrors.New(kycerrors.CodeInvalidInput, "invalid input"))

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if body["error_description"] != "invalid input" {
			t.Fatalf("expected error_description for client errors, got %q", body["error_description"])
		}
	})

	t.Run("description never repeats the code", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, kycerrors.New(kycerrors.CodeConflict, "Duplicate customer found with id (CUST-001)"))

		var body map[string]string
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if strings.Contains(body["error_description"], string(kycerrors.CodeConflict)) {
			t.Fatalf("error_description carries the code twice: %q", body["error_description"])
		}
		if body["error_description"] != "Duplicate customer found with id (CUST-001)" {
			t.Fatalf("unexpected error_description %q", body["error_description"])
		}
	})
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"x","bogus":1}`))

	_, err := Decode[payload](r)

	if !kycerrors.HasCode(err, kycerrors.CodeInvalidInput) {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
