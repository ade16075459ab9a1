package storage

import "io"

// Interface for anything storagey. Used for result artifacts executors
// attach to an application, e.g. confirmation screenshots.
type Service interface {
	Upload(key string, r io.Reader, length int64) (string, error)
	Download(key string) (io.ReadCloser, error)
}
