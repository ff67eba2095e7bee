package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{NotFound("x"), KindNotFound},
		{Conflict("x"), KindConflict},
		{Forbidden("x"), KindForbidden},
		{Unauthorized("x"), KindUnauthorized},
		{Invalid("x"), KindInvalid},
		{Internal("x", nil), KindInternal},
		{errors.New("plain"), KindInternal},
	}
	for _, tc := range cases {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestKindSurvivesWrapping(t *testing.T) {
	wrapped := fmt.Errorf("loading device: %w", NotFound("device not found"))
	if !IsNotFound(wrapped) {
		t.Errorf("Kind lost through wrapping")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Invalid("x"), http.StatusBadRequest},
		{Internal("x", nil), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestToHTTP_HidesInternalDetail(t *testing.T) {
	he := ToHTTP(Internal("query devices", errors.New("connection refused to 10.0.0.3:5432")))
	if he.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d", he.Code)
	}
	msg, _ := he.Message.(string)
	if strings.Contains(msg, "10.0.0.3") || strings.Contains(msg, "connection refused") {
		t.Errorf("Internal detail leaked to the caller: %q", msg)
	}
}

func TestToHTTP_PreservesDomainMessage(t *testing.T) {
	he := ToHTTP(Forbidden("device is pending approval"))
	if he.Code != http.StatusForbidden {
		t.Fatalf("Expected 403, got %d", he.Code)
	}
	if msg, _ := he.Message.(string); msg != "device is pending approval" {
		t.Errorf("Domain message lost: %q", msg)
	}
}

func TestErrorString(t *testing.T) {
	plain := NotFound("device not found")
	if plain.Error() != "device not found" {
		t.Errorf("Unexpected message: %q", plain.Error())
	}

	wrapped := Internal("scan device", errors.New("bad column"))
	if !strings.Contains(wrapped.Error(), "bad column") {
		t.Errorf("Cause missing from message: %q", wrapped.Error())
	}
}
