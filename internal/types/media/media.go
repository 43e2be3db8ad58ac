package media

import "time"

type Status string

const (
	// StatusInherit marks an attachment that inherits visibility from its
	// (absent) parent, i.e. unattached.
	StatusInherit Status = "inherit"
)

// Attachment is the durable record of a stored upload.
type Attachment struct {
	ID        string             `json:"id"`
	OwnerID   string             `json:"owner_id"`
	Title     string             `json:"title"`
	FilePath  string             `json:"-"`
	URL       string             `json:"url"`
	MimeType  string             `json:"mime_type"`
	Status    Status             `json:"status"`
	ParentID  string             `json:"parent_id"`
	Size      int64              `json:"size"`
	Metadata  AttachmentMetadata `json:"metadata"`
	CreatedAt time.Time          `json:"created_at"`
}

type AttachmentMetadata struct {
	File     string               `json:"file,omitempty"`
	Width    int                  `json:"width,omitempty"`
	Height   int                  `json:"height,omitempty"`
	FileSize int64                `json:"filesize,omitempty"`
	Sizes    map[string]ImageSize `json:"sizes,omitempty"`
}

// ImageSize is one generated rendition of an image attachment.
type ImageSize struct {
	File     string `json:"file"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mime_type"`
}

// FilePart is a fully received file waiting in the temp namespace. Field is
// the multipart field it arrived in.
type FilePart struct {
	Path  string
	Name  string
	Type  string
	Size  int64
	Field string
}

// ReceiveOptions tune ReceiveUpload. TestForm requires the part to come from
// the "file" form field; callers that already validated the request disable
// it.
type ReceiveOptions struct {
	TestForm bool
}

// Moved describes a file placed in the public uploads directory.
type Moved struct {
	Path string
	URL  string
	Type string
}

type AssetRequest struct {
	OwnerID  string
	Title    string
	Path     string
	URL      string
	MimeType string
	Status   Status
	ParentID string
	Size     int64
}
