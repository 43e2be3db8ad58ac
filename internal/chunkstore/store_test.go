package chunkstore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
)

func newTestStore(t *testing.T, maxSize int64) *Store {
	t.Helper()
	store, err := New(t.TempDir(), maxSize, NewLocalLocker(time.Second), time.Minute)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return store
}

func appendAll(t *testing.T, store *Store, key Key, name string, chunks [][]byte) (State, *Session) {
	t.Helper()
	var (
		state State
		sess  *Session
		err   error
	)
	for i, c := range chunks {
		state, sess, err = store.AppendChunk(context.Background(), key, Chunk{
			Index:    i + 1,
			Total:    len(chunks),
			Filename: name,
			MimeType: "image/jpeg",
			Body:     bytes.NewReader(c),
		})
		if err != nil {
			t.Fatalf("AppendChunk %d failed: %v", i+1, err)
		}
	}
	return state, sess
}

func assertNoFiles(t *testing.T, dir string) {
	t.Helper()
	filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			t.Errorf("Expected no temp files, found %s", path)
		}
		return nil
	})
}

func TestAppendChunk_ConcatenatesInOrder(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "session-abc"}
	chunks := [][]byte{[]byte("hello "), []byte("chunked "), []byte("world")}

	state, sess := appendAll(t, store, key, "greeting.txt", chunks)

	if state != Complete {
		t.Fatalf("Expected complete state, got %s", state)
	}
	if sess.Size != int64(len("hello chunked world")) {
		t.Fatalf("Unexpected size %d", sess.Size)
	}
	if sess.Filename != "greeting.txt" || sess.MimeType != "image/jpeg" {
		t.Fatalf("Unexpected session metadata: %+v", sess)
	}

	dataPath, _ := store.DataPath(key)
	got, err := os.ReadFile(dataPath)
	if err != nil {
		t.Fatalf("Failed to read assembled file: %v", err)
	}
	if string(got) != "hello chunked world" {
		t.Fatalf("Unexpected content %q", got)
	}
}

func TestAppendChunk_PendingUntilLast(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "pending"}

	state, sess, err := store.AppendChunk(context.Background(), key, Chunk{Index: 1, Total: 2, Filename: "a.txt", Body: strings.NewReader("a")})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if state != Pending || sess.LastIndex != 1 {
		t.Fatalf("Expected pending after first chunk, got %s (%+v)", state, sess)
	}

	cont, err := store.OpenOrContinue(key, "ignored.txt")
	if err != nil {
		t.Fatalf("OpenOrContinue failed: %v", err)
	}
	if cont.Size != 1 || cont.Filename != "a.txt" {
		t.Fatalf("Expected stored session to be returned, got %+v", cont)
	}
}

func TestOpenOrContinue_NewSessionSanitizesName(t *testing.T) {
	store := newTestStore(t, 1<<20)

	sess, err := store.OpenOrContinue(Key{Owner: "1", Token: "fresh"}, "../../etc/my photo.php.jpg")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if sess.Filename != "my-photo.php_.jpg" {
		t.Fatalf("Unexpected sanitized name %q", sess.Filename)
	}
	if sess.Size != 0 {
		t.Fatalf("Expected empty new session, got size %d", sess.Size)
	}
}

func TestAppendChunk_OutOfSequenceAborts(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "seq"}

	if _, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 1, Total: 3, Filename: "a.bin", Body: strings.NewReader("1")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	_, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 3, Total: 3, Filename: "a.bin", Body: strings.NewReader("3")})
	if !apperror.Is(err, apperror.KindMalformedSession) {
		t.Fatalf("Expected malformed session, got %v", err)
	}

	assertNoFiles(t, store.Dir())
}

func TestAppendChunk_TotalMismatchAborts(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "total"}

	store.AppendChunk(context.Background(), key, Chunk{Index: 1, Total: 3, Filename: "a.bin", Body: strings.NewReader("1")})
	_, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 2, Total: 4, Filename: "a.bin", Body: strings.NewReader("2")})
	if !apperror.Is(err, apperror.KindMalformedSession) {
		t.Fatalf("Expected malformed session, got %v", err)
	}

	assertNoFiles(t, store.Dir())
}

func TestAppendChunk_UnknownSession(t *testing.T) {
	store := newTestStore(t, 1<<20)

	_, _, err := store.AppendChunk(context.Background(), Key{Owner: "7", Token: "ghost"}, Chunk{Index: 2, Total: 2, Body: strings.NewReader("x")})
	if !apperror.Is(err, apperror.KindMalformedSession) {
		t.Fatalf("Expected malformed session, got %v", err)
	}
	assertNoFiles(t, store.Dir())
}

func TestAppendChunk_FinalChunkRedeliveryRejected(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "dup"}

	appendAll(t, store, key, "a.txt", [][]byte{[]byte("a"), []byte("b")})

	_, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 2, Total: 2, Body: strings.NewReader("b")})
	if !apperror.Is(err, apperror.KindMalformedSession) {
		t.Fatalf("Expected re-delivered final chunk to be rejected, got %v", err)
	}

	// the assembled file stays for the request finalizing it
	dataPath, _ := store.DataPath(key)
	data, err := os.ReadFile(dataPath)
	if err != nil || string(data) != "ab" {
		t.Fatalf("Expected assembled file to survive the retry, got %q (%v)", data, err)
	}

	if err := store.Abort(key); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	assertNoFiles(t, store.Dir())
}

func TestSession_Completed(t *testing.T) {
	cases := []struct {
		sess Session
		want bool
	}{
		{Session{}, false},
		{Session{TotalChunks: 3, LastIndex: 2}, false},
		{Session{TotalChunks: 3, LastIndex: 3}, true},
	}
	for _, tc := range cases {
		if got := tc.sess.Completed(); got != tc.want {
			t.Errorf("Completed(%d/%d) = %v, want %v", tc.sess.LastIndex, tc.sess.TotalChunks, got, tc.want)
		}
	}
}

func TestAppendChunk_SizeLimit(t *testing.T) {
	store := newTestStore(t, 4)
	key := Key{Owner: "7", Token: "big"}

	if _, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 1, Total: 2, Body: strings.NewReader("abc")}); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	_, _, err := store.AppendChunk(context.Background(), key, Chunk{Index: 2, Total: 2, Body: strings.NewReader("de")})
	if !apperror.Is(err, apperror.KindFileTooLarge) {
		t.Fatalf("Expected file too large, got %v", err)
	}
	assertNoFiles(t, store.Dir())
}

func TestAppendChunk_OwnersAreIsolated(t *testing.T) {
	store := newTestStore(t, 1<<20)

	store.AppendChunk(context.Background(), Key{Owner: "1", Token: "same"}, Chunk{Index: 1, Total: 2, Body: strings.NewReader("one")})
	_, sess, err := store.AppendChunk(context.Background(), Key{Owner: "2", Token: "same"}, Chunk{Index: 1, Total: 2, Body: strings.NewReader("two")})
	if err != nil {
		t.Fatalf("Expected a separate session for another owner, got %v", err)
	}
	if sess.Size != 3 {
		t.Fatalf("Unexpected size %d", sess.Size)
	}
}

func TestAppendChunk_RejectsTraversalToken(t *testing.T) {
	store := newTestStore(t, 1<<20)

	for _, token := range []string{"../escape", "a/b", "", strings.Repeat("x", 65)} {
		_, _, err := store.AppendChunk(context.Background(), Key{Owner: "1", Token: token}, Chunk{Index: 1, Total: 1, Body: strings.NewReader("x")})
		if !apperror.Is(err, apperror.KindMalformedSession) {
			t.Errorf("Expected token %q to be rejected, got %v", token, err)
		}
	}
	assertNoFiles(t, store.Dir())
}

func TestAbort_Idempotent(t *testing.T) {
	store := newTestStore(t, 1<<20)
	key := Key{Owner: "7", Token: "gone"}

	appendAll(t, store, key, "a.txt", [][]byte{[]byte("a")})

	for i := 0; i < 3; i++ {
		if err := store.Abort(key); err != nil {
			t.Fatalf("Abort %d failed: %v", i+1, err)
		}
	}
	assertNoFiles(t, store.Dir())
}

func TestSpool(t *testing.T) {
	store := newTestStore(t, 1<<20)

	key, size, err := store.Spool(context.Background(), "3", strings.NewReader("direct bytes"))
	if err != nil {
		t.Fatalf("Spool failed: %v", err)
	}
	if size != 12 || !strings.HasPrefix(key.Token, "direct-") {
		t.Fatalf("Unexpected spool result %+v size=%d", key, size)
	}

	dataPath, _ := store.DataPath(key)
	if !strings.HasPrefix(dataPath, store.Dir()) {
		t.Fatalf("Spooled file %s outside temp namespace", dataPath)
	}

	store.Abort(key)
	assertNoFiles(t, store.Dir())
}

func TestSweep_RemovesStaleFiles(t *testing.T) {
	store := newTestStore(t, 1<<20)
	stale := Key{Owner: "1", Token: "stale"}
	fresh := Key{Owner: "1", Token: "fresh"}

	store.AppendChunk(context.Background(), stale, Chunk{Index: 1, Total: 2, Body: strings.NewReader("old")})
	store.AppendChunk(context.Background(), fresh, Chunk{Index: 1, Total: 2, Body: strings.NewReader("new")})

	old := time.Now().Add(-48 * time.Hour)
	stalePath, _ := store.DataPath(stale)
	os.Chtimes(stalePath, old, old)
	os.Chtimes(strings.TrimSuffix(stalePath, ".part")+".json", old, old)

	removed, err := store.Sweep(24*time.Hour, time.Now())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("Expected 2 stale files removed, got %d", removed)
	}

	if _, err := os.Stat(stalePath); !os.IsNotExist(err) {
		t.Fatal("Expected stale data file to be removed")
	}
	freshPath, _ := store.DataPath(fresh)
	if _, err := os.Stat(freshPath); err != nil {
		t.Fatalf("Expected fresh session to survive: %v", err)
	}
}
