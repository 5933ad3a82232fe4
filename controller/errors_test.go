package controller

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusError_Error(t *testing.T) {
	withBody := &StatusError{StatusCode: 400, Status: "400 Bad Request", Body: "no active session"}
	if msg := withBody.Error(); msg != "controller: remote status 400 Bad Request: no active session" {
		t.Errorf("Error() = %q", msg)
	}

	withoutBody := &StatusError{StatusCode: 500, Status: "500 Internal Server Error"}
	if msg := withoutBody.Error(); msg != "controller: remote status 500 Internal Server Error" {
		t.Errorf("Error() = %q", msg)
	}
}

func TestIsStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", &StatusError{StatusCode: http.StatusBadRequest, Status: "400 Bad Request"})

	if !IsStatus(err, http.StatusBadRequest) {
		t.Error("IsStatus(err, 400) = false, want true")
	}
	if IsStatus(err, http.StatusUnauthorized) {
		t.Error("IsStatus(err, 401) = true, want false")
	}
	if IsStatus(errors.New("plain"), http.StatusBadRequest) {
		t.Error("IsStatus(plain error) = true, want false")
	}
}
