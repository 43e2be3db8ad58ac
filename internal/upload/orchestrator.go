// Package upload drives one upload request from the authorization check to
// its single response, for both direct and chunked uploads.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/auth"
	"github.com/princekumarofficial/dropzone-service/internal/chunkstore"
	"github.com/princekumarofficial/dropzone-service/internal/events"
	"github.com/princekumarofficial/dropzone-service/internal/policy"
	"github.com/princekumarofficial/dropzone-service/internal/types"
)

// FilePart is one received file or chunk.
type FilePart struct {
	Name string
	Type string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Request carries everything the orchestrator needs. Chunk fields hold the
// raw form values; an empty string means the field was not sent.
type Request struct {
	Nonce        string
	Actor        auth.Actor
	File         *FilePart
	SessionToken string
	ChunkIndex   string
	TotalChunks  string
	OrigType     string
}

func (r Request) chunked() bool {
	return r.SessionToken != "" || r.ChunkIndex != "" || r.TotalChunks != ""
}

type Orchestrator struct {
	gate      *auth.Gate
	policy    *policy.Policy
	store     *chunkstore.Store
	finalizer *Finalizer
	events    events.Publisher
	validate  *validator.Validate
}

func NewOrchestrator(gate *auth.Gate, pol *policy.Policy, store *chunkstore.Store, finalizer *Finalizer, publisher events.Publisher) *Orchestrator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Orchestrator{
		gate:      gate,
		policy:    pol,
		store:     store,
		finalizer: finalizer,
		events:    publisher,
		validate:  validator.New(),
	}
}

// Handle runs the request and always returns exactly one Result.
func (o *Orchestrator) Handle(ctx context.Context, req Request) (res Result) {
	defer func() { o.report(req, res) }()

	if err := o.gate.Authorize(req.Nonce, req.Actor); err != nil {
		return Failed(err)
	}
	if req.File == nil || req.File.Open == nil {
		return Failed(apperror.MissingFile(errors.New("no file part")))
	}

	if req.chunked() {
		return o.handleChunk(ctx, req)
	}
	return o.handleDirect(ctx, req)
}

func (o *Orchestrator) handleChunk(ctx context.Context, req Request) Result {
	params, err := o.chunkParams(req)
	if err != nil {
		return Failed(err)
	}

	token, err := chunkstore.SanitizeToken(params.SessionToken)
	if err != nil {
		return Failed(err)
	}
	key := chunkstore.Key{Owner: req.Actor.ID, Token: token}
	index := params.ChunkIndex + 1

	sess, err := o.store.OpenOrContinue(key, req.File.Name)
	if err != nil {
		return Failed(err)
	}

	if index == 1 {
		name := chunkstore.SanitizeFilename(req.File.Name)
		if d := o.policy.Classify(name); !d.Allowed() {
			return Failed(apperror.DisallowedExtension(errors.New(d.Reason)))
		}
	}

	body, err := req.File.Open()
	if err != nil {
		if !sess.Completed() {
			o.store.Abort(key)
		}
		return Failed(apperror.MissingFile(err))
	}
	defer body.Close()

	state, sess, err := o.store.AppendChunk(ctx, key, chunkstore.Chunk{
		Index:    index,
		Total:    params.TotalChunks,
		Filename: sess.Filename,
		MimeType: req.OrigType,
		Body:     body,
	})
	if err != nil {
		return Failed(err)
	}

	o.events.PublishChunkReceived(req.Actor.ID, types.ChunkReceivedEvent{
		Session:     token,
		ChunkIndex:  index,
		TotalChunks: sess.TotalChunks,
		Bytes:       sess.Size,
	})

	if state == chunkstore.Pending {
		return Pending()
	}

	dataPath, err := o.store.DataPath(key)
	if err != nil {
		o.store.Abort(key)
		return Failed(err)
	}

	mimeType := sess.MimeType
	if mimeType == "" {
		mimeType = req.File.Type
	}

	return o.finalizer.Finalize(ctx, FinalizedUpload{
		Key:      key,
		Path:     dataPath,
		Filename: sess.Filename,
		MimeType: mimeType,
		Size:     sess.Size,
		OwnerID:  req.Actor.ID,
	})
}

func (o *Orchestrator) handleDirect(ctx context.Context, req Request) Result {
	name := chunkstore.SanitizeFilename(req.File.Name)
	if d := o.policy.Classify(name); !d.Allowed() {
		return Failed(apperror.DisallowedExtension(errors.New(d.Reason)))
	}

	body, err := req.File.Open()
	if err != nil {
		return Failed(apperror.MissingFile(err))
	}
	defer body.Close()

	key, size, err := o.store.Spool(ctx, req.Actor.ID, body)
	if err != nil {
		return Failed(err)
	}

	dataPath, err := o.store.DataPath(key)
	if err != nil {
		o.store.Abort(key)
		return Failed(err)
	}

	return o.finalizer.Finalize(ctx, FinalizedUpload{
		Key:      key,
		Path:     dataPath,
		Filename: name,
		MimeType: req.File.Type,
		Size:     size,
		OwnerID:  req.Actor.ID,
	})
}

// chunkParams requires all three chunk fields once any of them is present.
func (o *Orchestrator) chunkParams(req Request) (types.ChunkParams, error) {
	var params types.ChunkParams

	index, err := strconv.Atoi(strings.TrimSpace(req.ChunkIndex))
	if err != nil {
		return params, apperror.MalformedSession("Invalid chunk parameters.", fmt.Errorf("dzchunkindex: %w", err))
	}
	total, err := strconv.Atoi(strings.TrimSpace(req.TotalChunks))
	if err != nil {
		return params, apperror.MalformedSession("Invalid chunk parameters.", fmt.Errorf("dztotalchunkcount: %w", err))
	}

	params = types.ChunkParams{
		SessionToken: strings.TrimSpace(req.SessionToken),
		ChunkIndex:   index,
		TotalChunks:  total,
	}
	if err := o.validate.Struct(params); err != nil {
		return params, apperror.MalformedSession("Invalid chunk parameters.", err)
	}
	return params, nil
}

func (o *Orchestrator) report(req Request, res Result) {
	name := ""
	if req.File != nil {
		name = req.File.Name
	}

	if res.Success {
		if url := res.URL(); url != "" {
			slog.Info("Upload stored",
				slog.String("user_id", req.Actor.ID),
				slog.String("url", url))
		}
		return
	}

	kind := apperror.KindOf(res.Err)
	attrs := []any{
		slog.String("user_id", req.Actor.ID),
		slog.String("file", name),
		slog.String("kind", string(kind)),
		slog.String("error", res.Err.Error()),
	}
	if res.Status >= 500 {
		slog.Error("Upload failed", attrs...)
	} else {
		slog.Warn("Upload rejected", attrs...)
	}

	if req.Actor.LoggedIn() {
		o.events.PublishUploadFailed(req.Actor.ID, types.UploadFailedEvent{
			Name:    name,
			Kind:    string(kind),
			Message: apperror.Message(res.Err),
		})
	}
}
