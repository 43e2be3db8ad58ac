package events

import (
	"github.com/princekumarofficial/dropzone-service/internal/types"
)

// Publisher receives the upload lifecycle hooks.
type Publisher interface {
	PublishChunkReceived(userID string, data types.ChunkReceivedEvent)
	PublishBeforeUploadFile(userID string, file types.UploadFileEvent)
	PublishAfterUploadFile(userID string, file types.UploadFileEvent)
	PublishAttachmentInserted(userID string, data types.AttachmentInsertedEvent)
	PublishUploadFailed(userID string, data types.UploadFailedEvent)
}

// EventPublisher implements the Publisher interface
type EventPublisher struct {
	hub WebSocketHub
}

// WebSocketHub interface for the WebSocket hub
type WebSocketHub interface {
	BroadcastToUser(userID string, event *types.Event)
	IsUserConnected(userID string) bool
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(hub WebSocketHub) *EventPublisher {
	return &EventPublisher{
		hub: hub,
	}
}

func (p *EventPublisher) publish(userID string, eventType types.EventType, data interface{}) {
	// Only send if the uploader is connected
	if !p.hub.IsUserConnected(userID) {
		return
	}
	p.hub.BroadcastToUser(userID, types.NewEvent(eventType, data))
}

func (p *EventPublisher) PublishChunkReceived(userID string, data types.ChunkReceivedEvent) {
	p.publish(userID, types.EventChunkReceived, data)
}

func (p *EventPublisher) PublishBeforeUploadFile(userID string, file types.UploadFileEvent) {
	p.publish(userID, types.EventBeforeUploadFile, file)
}

func (p *EventPublisher) PublishAfterUploadFile(userID string, file types.UploadFileEvent) {
	p.publish(userID, types.EventAfterUploadFile, file)
}

func (p *EventPublisher) PublishAttachmentInserted(userID string, data types.AttachmentInsertedEvent) {
	p.publish(userID, types.EventAttachmentInserted, data)
}

func (p *EventPublisher) PublishUploadFailed(userID string, data types.UploadFailedEvent) {
	p.publish(userID, types.EventUploadFailed, data)
}

// Nop discards every event.
type Nop struct{}

func (Nop) PublishChunkReceived(string, types.ChunkReceivedEvent)           {}
func (Nop) PublishBeforeUploadFile(string, types.UploadFileEvent)           {}
func (Nop) PublishAfterUploadFile(string, types.UploadFileEvent)            {}
func (Nop) PublishAttachmentInserted(string, types.AttachmentInsertedEvent) {}
func (Nop) PublishUploadFailed(string, types.UploadFailedEvent)             {}
