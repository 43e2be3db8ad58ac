package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/http/middleware"
	"github.com/princekumarofficial/dropzone-service/internal/storage/memory"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/utils/jwt"
)

const testSecret = "media-secret"

func setupRouter(t *testing.T) (http.Handler, *memory.Memory) {
	t.Helper()
	store := memory.New()
	h := NewMediaHandlers(store)

	mux := http.NewServeMux()
	authed := middleware.AuthMiddleware(testSecret)
	mux.Handle("GET /media", authed(h.ListUserMedia()))
	mux.Handle("GET /media/{id}", authed(h.GetMedia()))
	return mux, store
}

func get(t *testing.T, h http.Handler, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if userID != "" {
		token, err := jwt.CreateToken(userID, "author", testSecret, time.Hour)
		if err != nil {
			t.Fatalf("Failed to create token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestListUserMedia(t *testing.T) {
	h, store := setupRouter(t)
	ctx := context.Background()
	store.InsertAttachment(ctx, &media.Attachment{ID: "a1", OwnerID: "7", Title: "photo"})
	store.InsertAttachment(ctx, &media.Attachment{ID: "a2", OwnerID: "8", Title: "other"})

	rr := get(t, h, "/media", "7")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	var body struct {
		Data []media.Attachment `json:"data"`
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if len(body.Data) != 1 || body.Data[0].ID != "a1" {
		t.Fatalf("Expected only own attachment, got %+v", body.Data)
	}

	rr = get(t, h, "/media", "9")
	if rr.Code != http.StatusOK || !json.Valid(rr.Body.Bytes()) {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	json.Unmarshal(rr.Body.Bytes(), &body)
	if body.Data == nil || len(body.Data) != 0 {
		t.Fatalf("Expected empty list, got %+v", body.Data)
	}

	if rr := get(t, h, "/media", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401, got %d", rr.Code)
	}
}

func TestGetMedia(t *testing.T) {
	h, store := setupRouter(t)
	store.InsertAttachment(context.Background(), &media.Attachment{ID: "a1", OwnerID: "7", Title: "photo"})

	if rr := get(t, h, "/media/a1", "7"); rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	if rr := get(t, h, "/media/a1", "8"); rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404 for another owner, got %d", rr.Code)
	}
	if rr := get(t, h, "/media/missing", "7"); rr.Code != http.StatusNotFound {
		t.Fatalf("Expected 404, got %d", rr.Code)
	}
}
