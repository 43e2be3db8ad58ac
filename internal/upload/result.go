package upload

import (
	"encoding/json"
	"net/http"

	"github.com/princekumarofficial/dropzone-service/internal/apperror"
	"github.com/princekumarofficial/dropzone-service/internal/types"
)

// Result is the single outcome of one upload request.
type Result struct {
	Success bool
	Status  int
	Data    interface{}
	Err     error
}

// Pending acknowledges a chunk of an unfinished session.
func Pending() Result {
	return Result{
		Success: true,
		Status:  http.StatusOK,
		Data:    types.ChunkUploaded{ChunkUploaded: true},
	}
}

// Stored carries the public URL of the finished upload.
func Stored(url string) Result {
	return Result{Success: true, Status: http.StatusOK, Data: url}
}

// Failed maps err onto its status and uploader-facing message.
func Failed(err error) Result {
	return Result{
		Success: false,
		Status:  apperror.Status(err),
		Data:    apperror.Message(err),
		Err:     err,
	}
}

// URL returns the stored URL, or "" when the result is not final.
func (r Result) URL() string {
	if !r.Success {
		return ""
	}
	url, _ := r.Data.(string)
	return url
}

func (r Result) Response() types.UploadResponse {
	return types.UploadResponse{Success: r.Success, Data: r.Data}
}

func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Response())
}
