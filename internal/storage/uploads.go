// Package storage persists uploaded FASTQ files under a dedicated uploads
// directory, namespaced by job id so concurrent uploads never collide.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

type Uploads struct {
	root string
}

func NewUploads(root string) (*Uploads, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("uploads root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve uploads root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads root: %w", err)
	}

	return &Uploads{root: abs}, nil
}

func (u *Uploads) Root() string {
	return u.root
}

// Save streams the file to <root>/<jobID>_<filename>. The original filename
// is reduced to its base name so a crafted name cannot escape the uploads
// directory; uniqueness comes from the job id prefix.
func (u *Uploads) Save(jobID string, filename string, r io.Reader) (string, error) {
	base := sanitizeFilename(filename)
	path := filepath.Join(u.root, jobID+"_"+base)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("open upload file: %w", err)
	}

	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return path, nil
}

func sanitizeFilename(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.TrimSpace(base)
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "upload.fastq"
	}
	return base
}
