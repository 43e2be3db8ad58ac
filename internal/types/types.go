package types

// ChunkParams are the Dropzone chunking fields after parsing. ChunkIndex is
// zero-based on the wire.
type ChunkParams struct {
	SessionToken string `validate:"required,max=64"`
	ChunkIndex   int    `validate:"min=0,ltfield=TotalChunks"`
	TotalChunks  int    `validate:"required,min=1"`
}

type NonceResponse struct {
	Nonce     string `json:"nonce"`
	ExpiresAt int64  `json:"expires_at"`
}

// UploadResponse is the body of every POST /upload reply. Data holds the
// asset URL, {"chunk_uploaded": true} or an error message.
type UploadResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
}

type ChunkUploaded struct {
	ChunkUploaded bool `json:"chunk_uploaded"`
}
