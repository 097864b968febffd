package storage

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
)

// DiskStore saves uploads into a directory that is served publicly under
// /images/{filename}.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

func (s *DiskStore) Save(file *multipart.FileHeader, role string) (string, error) {
	name := GenerateName(file.Filename, role)

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}
	return name, nil
}

func (s *DiskStore) Remove(name string) error {
	// Filenames are generated by GenerateName; Base guards against anything
	// path-like that may have ended up in the database.
	return os.Remove(filepath.Join(s.dir, filepath.Base(name)))
}

func (s *DiskStore) URL(name string) string {
	return "/images/" + name
}
