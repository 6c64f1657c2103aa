package glossary

import (
	"os"
	"path/filepath"
	"strings"
)

// ImagePath returns the illustration for a normalized query, stored as
// <dir>/<query with spaces as underscores>.png, if the file exists.
func ImagePath(dir, query string) (string, bool) {
	if dir == "" || query == "" {
		return "", false
	}
	p := filepath.Join(dir, strings.ReplaceAll(query, " ", "_")+".png")
	info, err := os.Stat(p)
	if err != nil || info.IsDir() {
		return "", false
	}
	return p, true
}
