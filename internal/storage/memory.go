package storage

import (
	"fmt"
	"mime/multipart"
	"sync"
)

// MemoryStore keeps generated filenames in a map, without writing bytes
// anywhere. Used in tests in place of DiskStore.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string]bool)}
}

func (s *MemoryStore) Save(file *multipart.FileHeader, role string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name := GenerateName(file.Filename, role)
	s.files[name] = true
	return name, nil
}

func (s *MemoryStore) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.files[name] {
		return fmt.Errorf("file not found: %s", name)
	}
	delete(s.files, name)
	return nil
}

func (s *MemoryStore) URL(name string) string {
	return "/images/" + name
}

// Has reports whether a generated filename is still present.
func (s *MemoryStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.files[name]
}

// Len returns the number of stored files.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.files)
}
