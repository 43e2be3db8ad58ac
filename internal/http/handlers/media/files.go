package media

import (
	"io/fs"
	"net/http"
)

// filesOnly hides directories so the uploads tree cannot be listed.
type filesOnly struct {
	root http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}

// ServeUploads serves stored files from dir under prefix. Directory paths
// answer 404.
func ServeUploads(prefix, dir string) http.Handler {
	return http.StripPrefix(prefix, http.FileServer(filesOnly{root: http.Dir(dir)}))
}
