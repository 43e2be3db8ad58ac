package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/storage/memory"
	"github.com/princekumarofficial/dropzone-service/internal/utils/jwt"
)

const testSecret = "users-secret"

func post(h http.HandlerFunc, body interface{}) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	rr := httptest.NewRecorder()
	h(rr, httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(b)))
	return rr
}

func TestSignUpAndLogin(t *testing.T) {
	store := memory.New()
	cfg := config.Auth{TokenTTL: time.Hour, DefaultRole: "author"}
	creds := map[string]string{"email": "ada@example.com", "password": "secret123"}

	rr := post(SignUp(store, cfg), creds)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := post(SignUp(store, cfg), creds); rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409 for duplicate email, got %d", rr.Code)
	}

	rr = post(Login(store, testSecret, cfg), creds)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["role"] != "author" {
		t.Fatalf("Expected author role, got %v", body)
	}
	claims, err := jwt.ParseToken(body["token"], testSecret)
	if err != nil || claims.Subject != body["user_id"] {
		t.Fatalf("Expected valid token for user, got %v (%v)", claims, err)
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == middleware.AuthCookie {
			cookie = c
		}
	}
	if cookie == nil || !cookie.HttpOnly || cookie.Value != body["token"] {
		t.Fatalf("Expected HttpOnly auth cookie, got %+v", cookie)
	}
}

func TestSignUp_InvalidDefaultRoleFallsBack(t *testing.T) {
	rr := post(SignUp(memory.New(), config.Auth{DefaultRole: "overlord"}), map[string]string{
		"email": "bob@example.com", "password": "secret123",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d", rr.Code)
	}
	var body map[string]string
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body["role"] != "subscriber" {
		t.Fatalf("Expected subscriber, got %q", body["role"])
	}
}

func TestLogin_Rejections(t *testing.T) {
	store := memory.New()
	cfg := config.Auth{TokenTTL: time.Hour, DefaultRole: "author"}
	post(SignUp(store, cfg), map[string]string{"email": "ada@example.com", "password": "secret123"})

	cases := []struct {
		name   string
		body   map[string]string
		status int
	}{
		{"wrong password", map[string]string{"email": "ada@example.com", "password": "wrong-pass"}, http.StatusUnauthorized},
		{"unknown user", map[string]string{"email": "eve@example.com", "password": "secret123"}, http.StatusUnauthorized},
		{"invalid email", map[string]string{"email": "ada", "password": "secret123"}, http.StatusBadRequest},
		{"short password", map[string]string{"email": "ada@example.com", "password": "x"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		if rr := post(Login(store, testSecret, cfg), tc.body); rr.Code != tc.status {
			t.Errorf("%s: expected %d, got %d", tc.name, tc.status, rr.Code)
		}
	}
}
