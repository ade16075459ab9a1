package localfile

import (
	"io"
	"os"
	"path/filepath"
)

// Service represents the directory which localfile.Service uses for storage.
type Service string

// Upload writes the contents of r to a file with the given key name.
func (s Service) Upload(key string, r io.Reader, length int64) (url string, err error) {
	path := filepath.Join(string(s), filepath.FromSlash(key))

	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return "", err
	}

	fd, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		closeErr := fd.Close()
		if err == nil {
			err = closeErr
		}
	}()

	_, err = io.Copy(fd, r)
	if err != nil {
		return "", err
	}

	return "file://" + path, nil
}

// Download returns a reader to the contents of the filename key.
func (s Service) Download(key string) (io.ReadCloser, error) {
	return os.Open(filepath.Join(string(s), filepath.FromSlash(key)))
}
