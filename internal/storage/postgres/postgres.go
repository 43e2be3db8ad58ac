package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/princekumarofficial/dropzone-service/internal/config"
	"github.com/princekumarofficial/dropzone-service/internal/storage"
	"github.com/princekumarofficial/dropzone-service/internal/types/media"
	"github.com/princekumarofficial/dropzone-service/internal/types/users"
)

const uniqueViolation = "23505"

type Postgres struct {
	Db *sql.DB
}

func NewPostgres(cfg *config.Config) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.PGSQL.Host, cfg.PGSQL.Port, cfg.PGSQL.User, cfg.PGSQL.Password, cfg.PGSQL.DBName, cfg.PGSQL.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	pg := &Postgres{Db: db}
	if err := pg.CreateTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	slog.Info("Connected to Postgres database", slog.String("dbname", cfg.PGSQL.DBName))

	return pg, nil
}

func (p *Postgres) CreateTables() error {
	queries := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			email VARCHAR(255) UNIQUE NOT NULL,
			password TEXT NOT NULL,
			role VARCHAR(32) NOT NULL DEFAULT 'subscriber',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS attachments (
			id UUID PRIMARY KEY,
			owner_id INTEGER REFERENCES users(id) ON DELETE SET NULL,
			title TEXT NOT NULL,
			file_path TEXT NOT NULL,
			url TEXT NOT NULL,
			mime_type VARCHAR(255) NOT NULL,
			status VARCHAR(32) NOT NULL DEFAULT 'inherit',
			parent_id INTEGER NOT NULL DEFAULT 0,
			size BIGINT NOT NULL DEFAULT 0,
			metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_owner ON attachments (owner_id, created_at DESC);`,
	}

	for _, q := range queries {
		if _, err := p.Db.Exec(q); err != nil {
			return err
		}
	}

	return nil
}

func (p *Postgres) Close() error {
	return p.Db.Close()
}

func (p *Postgres) CreateUser(email, password string, role users.Role) (string, error) {
	var userID int
	query := `
	INSERT INTO users (email, password, role)
	VALUES ($1, $2, $3)
	RETURNING id
	`

	err := p.Db.QueryRow(query, email, password, role).Scan(&userID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", storage.ErrDuplicateEmail
		}
		return "", err
	}

	return fmt.Sprintf("%d", userID), nil
}

func (p *Postgres) GetUserByEmail(email string) (*users.User, error) {
	var (
		userID    int
		user      users.User
		createdAt sql.NullTime
	)
	query := `
	SELECT id, email, password, role, created_at FROM users WHERE email = $1
	`

	err := p.Db.QueryRow(query, email).Scan(&userID, &user.Email, &user.Password, &user.Role, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	user.ID = fmt.Sprintf("%d", userID)
	if createdAt.Valid {
		user.CreatedAt = createdAt.Time.UTC().Format("2006-01-02T15:04:05Z")
	}
	return &user, nil
}

// ownerParam maps the anonymous owner to NULL.
func ownerParam(ownerID string) interface{} {
	if ownerID == "" || ownerID == "0" {
		return nil
	}
	return ownerID
}

func (p *Postgres) InsertAttachment(ctx context.Context, a *media.Attachment) error {
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	parent := a.ParentID
	if parent == "" {
		parent = "0"
	}

	query := `
	INSERT INTO attachments (id, owner_id, title, file_path, url, mime_type, status, parent_id, size, metadata)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING created_at
	`

	return p.Db.QueryRowContext(ctx, query,
		a.ID, ownerParam(a.OwnerID), a.Title, a.FilePath, a.URL, a.MimeType, a.Status, parent, a.Size, meta,
	).Scan(&a.CreatedAt)
}

const attachmentColumns = `id, COALESCE(owner_id, 0), title, file_path, url, mime_type, status, parent_id, size, metadata, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAttachment(row rowScanner) (*media.Attachment, error) {
	var (
		a        media.Attachment
		ownerID  int
		parentID int
		meta     []byte
	)

	if err := row.Scan(&a.ID, &ownerID, &a.Title, &a.FilePath, &a.URL, &a.MimeType, &a.Status, &parentID, &a.Size, &meta, &a.CreatedAt); err != nil {
		return nil, err
	}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &a.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	a.OwnerID = fmt.Sprintf("%d", ownerID)
	a.ParentID = fmt.Sprintf("%d", parentID)
	return &a, nil
}

func (p *Postgres) GetAttachment(ctx context.Context, id string) (*media.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE id = $1`

	a, err := scanAttachment(p.Db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		var pqErr *pq.Error
		// malformed uuid
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (p *Postgres) ListAttachmentsByOwner(ctx context.Context, ownerID string) ([]media.Attachment, error) {
	query := `SELECT ` + attachmentColumns + ` FROM attachments WHERE owner_id = $1 ORDER BY created_at DESC`

	rows, err := p.Db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := []media.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, *a)
	}

	return attachments, rows.Err()
}

func (p *Postgres) UpdateAttachmentMetadata(ctx context.Context, id string, meta media.AttachmentMetadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	res, err := p.Db.ExecContext(ctx, `UPDATE attachments SET metadata = $2 WHERE id = $1`, id, data)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return storage.ErrNotFound
	}
	return nil
}
