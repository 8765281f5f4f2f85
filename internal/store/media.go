package store

import (
	"path"
	"strings"

	"github.com/google/uuid"
)

// objectKey builds a collision-free key for an uploaded file, keeping the
// uploaded file extension so the public URL serves with a sensible type.
func objectKey(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " ?#%") {
		ext = ""
	}
	return "images/" + uuid.NewString() + ext
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
