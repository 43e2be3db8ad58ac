package upload

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
)

func TestResult_JSON(t *testing.T) {
	cases := []struct {
		name   string
		result Result
		status int
		body   string
	}{
		{"pending", Pending(), 200, `{"success":true,"data":{"chunk_uploaded":true}}`},
		{"stored", Stored("http://localhost/uploads/2026/10/a.jpg"), 200, `{"success":true,"data":"http://localhost/uploads/2026/10/a.jpg"}`},
		{"unauthorized", Failed(apperror.Unauthorized(nil)), 403, `{"success":false,"data":"Security check failed."}`},
		{"untyped", Failed(errors.New("disk on fire")), 500, `{"success":false,"data":"The uploaded file could not be stored."}`},
	}

	for _, tc := range cases {
		body, err := json.Marshal(tc.result)
		if err != nil {
			t.Fatalf("%s: marshal failed: %v", tc.name, err)
		}
		if string(body) != tc.body {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.body, body)
		}
		if tc.result.Status != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.name, tc.status, tc.result.Status)
		}
	}
}

func TestResult_URL(t *testing.T) {
	if Pending().URL() != "" {
		t.Fatal("Expected pending result to carry no URL")
	}
	if Stored("u").URL() != "u" {
		t.Fatal("Expected stored URL")
	}
}
