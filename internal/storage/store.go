package storage

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Image roles, used as a suffix inside generated filenames so uploads remain
// recognizable in the shared images directory.
const (
	RoleMain = "main"
	RoleSEO  = "seo"
	RoleOG   = "og"
)

// Store writes uploaded product images into a public file store and hands back
// the generated filename that gets persisted on the product row.
type Store interface {
	Save(file *multipart.FileHeader, role string) (string, error)
	Remove(name string) error
	URL(name string) string
}

// GenerateName builds a unique filename for an upload: unix timestamp, role
// suffix and a UUID fragment, keeping the original extension. The UUID part
// makes two uploads within the same second collide-free.
func GenerateName(originalName, role string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("%d_%s_%s%s", time.Now().Unix(), role, uuid.NewString()[:8], ext)
}
