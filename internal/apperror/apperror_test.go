package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{Unauthorized(nil), http.StatusForbidden},
		{Forbidden(nil), http.StatusForbidden},
		{MissingFile(nil), http.StatusBadRequest},
		{DisallowedExtension(nil), http.StatusBadRequest},
		{MalformedSession("bad", nil), http.StatusBadRequest},
		{FileTooLarge(nil), http.StatusBadRequest},
		{StorageIO(errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := Status(tc.err); got != tc.status {
			t.Errorf("Status(%v) = %d, want %d", tc.err, got, tc.status)
		}
	}
}

func TestWrappedErrorKeepsKind(t *testing.T) {
	err := fmt.Errorf("append chunk: %w", MalformedSession("chunk out of sequence", nil))

	if !Is(err, KindMalformedSession) {
		t.Fatalf("Expected wrapped error to keep its kind, got %s", KindOf(err))
	}
	if Message(err) != "chunk out of sequence" {
		t.Fatalf("Unexpected message %q", Message(err))
	}
}

func TestMessageHidesCause(t *testing.T) {
	err := StorageIO(errors.New("open /secret/path: permission denied"))

	if Message(err) != "The uploaded file could not be stored." {
		t.Fatalf("Unexpected message %q", Message(err))
	}
	if Message(errors.New("boom")) != "The uploaded file could not be stored." {
		t.Fatal("Expected untyped errors to use the storage message")
	}
	if !errors.Is(err, err.Err) {
		t.Fatal("Expected Unwrap to expose the cause")
	}
}
