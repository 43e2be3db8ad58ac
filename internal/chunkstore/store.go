// Package chunkstore accumulates chunked uploads in a private temp namespace.
//
// Every session lives under <dir>/<owner>/<token>.part with a JSON sidecar
// <token>.json describing its progress. Appends to one session are serialized
// through a Locker.
package chunkstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/princekumarofficial/dropzone-service/internal/apperror"
)

type State int

const (
	Pending State = iota
	Complete
)

func (s State) String() string {
	if s == Complete {
		return "complete"
	}
	return "pending"
}

// Key identifies a session. Owner namespaces tokens per actor so two users
// picking the same token never share a file.
type Key struct {
	Owner string
	Token string
}

type Session struct {
	Token       string    `json:"token"`
	Owner       string    `json:"owner"`
	Filename    string    `json:"filename"`
	MimeType    string    `json:"mime_type"`
	TotalChunks int       `json:"total_chunks"`
	LastIndex   int       `json:"last_index"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Completed reports whether every chunk has been appended.
func (s *Session) Completed() bool {
	return s.TotalChunks > 0 && s.LastIndex >= s.TotalChunks
}

// Chunk is one fragment of a session. Index is 1-based.
type Chunk struct {
	Index    int
	Total    int
	Filename string
	MimeType string
	Body     io.Reader
}

type Store struct {
	dir     string
	maxSize int64
	locker  Locker
	lockTTL time.Duration
	now     func() time.Time
}

func New(dir string, maxSize int64, locker Locker, lockTTL time.Duration) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o700); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}

	return &Store{
		dir:     abs,
		maxSize: maxSize,
		locker:  locker,
		lockTTL: lockTTL,
		now:     time.Now,
	}, nil
}

// Dir returns the absolute temp namespace root.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) paths(key Key) (string, string, error) {
	owner, err := SanitizeToken(key.Owner)
	if err != nil {
		return "", "", err
	}
	token, err := SanitizeToken(key.Token)
	if err != nil {
		return "", "", err
	}

	base := filepath.Join(s.dir, owner)
	return filepath.Join(base, token+".part"), filepath.Join(base, token+".json"), nil
}

// DataPath returns the file holding the session bytes.
func (s *Store) DataPath(key Key) (string, error) {
	dataPath, _, err := s.paths(key)
	return dataPath, err
}

// OpenOrContinue returns the stored session for key, or a fresh unsaved one
// carrying the sanitized filename hint. Size reports the bytes accumulated
// so far.
func (s *Store) OpenOrContinue(key Key, filenameHint string) (*Session, error) {
	_, metaPath, err := s.paths(key)
	if err != nil {
		return nil, err
	}

	sess, err := readSession(metaPath)
	if err != nil {
		return nil, apperror.StorageIO(err)
	}
	if sess != nil {
		return sess, nil
	}

	return &Session{
		Token:    key.Token,
		Owner:    key.Owner,
		Filename: SanitizeFilename(filenameHint),
	}, nil
}

// AppendChunk appends one chunk to the session. Any failure after the
// session exists aborts it, so no temp file outlives a failed request. A
// chunk arriving after the last one is rejected and leaves the completed
// session to the caller finalizing it.
func (s *Store) AppendChunk(ctx context.Context, key Key, chunk Chunk) (State, *Session, error) {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return Pending, nil, err
	}

	unlock, err := s.locker.Lock(ctx, key.Owner+":"+key.Token, s.lockTTL)
	if err != nil {
		return Pending, nil, apperror.MalformedSession("Upload session is busy.", err)
	}
	defer unlock()

	sess, err := readSession(metaPath)
	if err != nil {
		s.removeAll(dataPath, metaPath)
		return Pending, nil, apperror.StorageIO(err)
	}

	if err := validateSequence(sess, chunk); err != nil {
		// A completed session is still being finalized; its release owns
		// the files.
		if sess != nil && !sess.Completed() {
			s.removeAll(dataPath, metaPath)
		}
		return Pending, nil, err
	}

	fresh := sess == nil
	if fresh {
		sess = &Session{
			Token:       key.Token,
			Owner:       key.Owner,
			Filename:    SanitizeFilename(chunk.Filename),
			TotalChunks: chunk.Total,
			CreatedAt:   s.now(),
		}
	}

	written, err := s.writeData(dataPath, chunk.Body, s.maxSize-sess.Size, fresh)
	if err != nil {
		s.removeAll(dataPath, metaPath)
		return Pending, nil, err
	}

	sess.LastIndex = chunk.Index
	sess.Size += written
	sess.UpdatedAt = s.now()
	if chunk.MimeType != "" {
		sess.MimeType = chunk.MimeType
	}

	if err := writeSession(metaPath, sess); err != nil {
		s.removeAll(dataPath, metaPath)
		return Pending, nil, apperror.StorageIO(err)
	}

	if sess.LastIndex == sess.TotalChunks {
		return Complete, sess, nil
	}
	return Pending, sess, nil
}

func validateSequence(sess *Session, chunk Chunk) error {
	switch {
	case chunk.Total < 1 || chunk.Index < 1 || chunk.Index > chunk.Total:
		return apperror.MalformedSession("Invalid chunk parameters.", fmt.Errorf("chunk %d of %d", chunk.Index, chunk.Total))
	case sess == nil && chunk.Index != 1:
		return apperror.MalformedSession("Upload session not found.", fmt.Errorf("chunk %d without session", chunk.Index))
	case sess == nil:
		return nil
	case chunk.Total != sess.TotalChunks:
		return apperror.MalformedSession("Chunk count changed during upload.", fmt.Errorf("total %d, session expects %d", chunk.Total, sess.TotalChunks))
	case sess.Completed():
		return apperror.MalformedSession("Upload session already completed.", nil)
	case chunk.Index != sess.LastIndex+1:
		return apperror.MalformedSession("Chunk out of sequence.", fmt.Errorf("got chunk %d, expected %d", chunk.Index, sess.LastIndex+1))
	}
	return nil
}

var errTooLarge = errors.New("accumulated size exceeds limit")

// writeData appends at most remaining bytes from r. truncate discards stale
// bytes left by a crashed session with the same key.
func (s *Store) writeData(dataPath string, r io.Reader, remaining int64, truncate bool) (int64, error) {
	if r == nil {
		return 0, apperror.MissingFile(nil)
	}
	if remaining < 0 {
		remaining = 0
	}

	if err := os.MkdirAll(filepath.Dir(dataPath), 0o700); err != nil {
		return 0, apperror.StorageIO(err)
	}

	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if truncate {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(dataPath, flags, 0o600)
	if err != nil {
		return 0, apperror.StorageIO(err)
	}

	written, err := io.Copy(f, io.LimitReader(r, remaining+1))
	if err == nil && written > remaining {
		err = apperror.FileTooLarge(errTooLarge)
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = closeErr
	}

	if err != nil {
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			return written, err
		}
		return written, apperror.StorageIO(err)
	}

	return written, nil
}

// Spool copies a direct (non-chunked) upload into the temp namespace under a
// generated token.
func (s *Store) Spool(ctx context.Context, owner string, r io.Reader) (Key, int64, error) {
	key := Key{Owner: owner, Token: "direct-" + uuid.NewString()}

	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return key, 0, err
	}
	if err := ctx.Err(); err != nil {
		return key, 0, apperror.StorageIO(err)
	}

	written, err := s.writeData(dataPath, r, s.maxSize, true)
	if err != nil {
		s.removeAll(dataPath, metaPath)
		return key, 0, err
	}

	return key, written, nil
}

// Abort removes everything stored for key. Calling it on a missing session
// is a no-op.
func (s *Store) Abort(key Key) error {
	dataPath, metaPath, err := s.paths(key)
	if err != nil {
		return err
	}
	return s.removeAll(dataPath, metaPath)
}

func (s *Store) removeAll(paths ...string) error {
	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func readSession(metaPath string) (*Session, error) {
	data, err := os.ReadFile(metaPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

func writeSession(metaPath string, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	tmp := metaPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, metaPath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit session: %w", err)
	}
	return nil
}
