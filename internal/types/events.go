package types

import "time"

// EventType represents the type of real-time event
type EventType string

const (
	EventChunkReceived      EventType = "upload.chunk_received"
	EventBeforeUploadFile   EventType = "upload.before_upload_file"
	EventAfterUploadFile    EventType = "upload.after_upload_file"
	EventAttachmentInserted EventType = "upload.after_insert_attachment"
	EventUploadFailed       EventType = "upload.failed"
)

// Event represents a real-time event that can be sent over WebSocket
type Event struct {
	Type      EventType   `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

// UploadFileEvent describes the file entering or leaving the media library.
type UploadFileEvent struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
}

type ChunkReceivedEvent struct {
	Session     string `json:"session"`
	ChunkIndex  int    `json:"chunk_index"`
	TotalChunks int    `json:"total_chunks"`
	Bytes       int64  `json:"bytes"`
}

type AttachmentInsertedEvent struct {
	AttachmentID string `json:"attachment_id"`
	URL          string `json:"url"`
}

type UploadFailedEvent struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// NewEvent creates a new event with the current timestamp
func NewEvent(eventType EventType, data interface{}) *Event {
	return &Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}
