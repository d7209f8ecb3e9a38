package common

import (
	"errors"
	"net/http"
	"testing"

	"github.com/google/uuid"
)

func TestValidatorRules(t *testing.T) {
	cases := []struct {
		name  string
		rule  ValidationRule
		value any
		ok    bool
	}{
		{"required ok", Required, "x", true},
		{"required blank", Required, "   ", false},
		{"required nil", Required, nil, false},
		{"uuid ok", UUID, uuid.NewString(), true},
		{"uuid bad", UUID, "1234", false},
		{"uuid non-string", UUID, 42, false},
		{"basename ok", BaseName, "report.json", true},
		{"basename traversal", BaseName, "../secret", false},
		{"basename dotdot", BaseName, "..", false},
		{"basename backslash", BaseName, `a\b.png`, false},
		{"ext pdf", AllowedExtension, "scan.PDF", true},
		{"ext tiff", AllowedExtension, "scan.tiff", true},
		{"ext txt", AllowedExtension, "notes.txt", false},
		{"ext none", AllowedExtension, "README", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := NewValidator().Field("f", tc.value, tc.rule).Err()
			if (err == nil) != tc.ok {
				t.Fatalf("err = %v, want ok=%v", err, tc.ok)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("validation error should wrap ErrInvalidInput: %v", err)
			}
		})
	}
}

func TestValidatorCollectsAllFields(t *testing.T) {
	v := NewValidator().
		Field("a", "", Required).
		Field("b", "x/y", BaseName).
		Field("c", "ok.png", Required, BaseName, AllowedExtension)
	if len(v.Errors()) != 2 {
		t.Fatalf("errors = %v", v.Errors())
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{NewAppError("NOT_FOUND", "gone", ErrNotFound), http.StatusNotFound},
		{WrapError(ErrUnsupportedFormat, "upload"), http.StatusBadRequest},
		{NewValidator().Field("f", "", Required).Err(), http.StatusBadRequest},
		{WrapError(ErrBackend, "generate"), http.StatusBadGateway},
		{ErrQueueClosed, http.StatusServiceUnavailable},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
