package handlers

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"buildtrack/services"

	"github.com/google/uuid"
)

// documentExtensions are the file types accepted for project documents.
var documentExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
}

// Uploads stores multipart files under Dir/<area>/<unix>-<token>-<name>. The
// token keeps files that share a name apart, even within one request.
type Uploads struct {
	Dir   string
	now   func() time.Time
	token func() string
}

func NewUploads(dir string) *Uploads {
	return &Uploads{Dir: dir, now: time.Now, token: shortUUID}
}

func shortUUID() string {
	return uuid.NewString()[:8]
}

// checkDocument rejects project documents with an unsupported extension.
func checkDocument(fh *multipart.FileHeader) error {
	if !documentExtensions[strings.ToLower(filepath.Ext(fh.Filename))] {
		return &services.RuleError{Message: "Invalid file type"}
	}
	return nil
}

// Save copies fh into area and returns the stored path.
func (u *Uploads) Save(fh *multipart.FileHeader, area string) (string, error) {
	filename := filepath.Base(fh.Filename)
	if filename == "" || filename == "." || filename == string(filepath.Separator) {
		return "", services.Invalid("file", "Invalid file name")
	}

	dir := filepath.Join(u.Dir, area)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := filepath.Join(dir, fmt.Sprintf("%d-%s-%s", u.now().Unix(), u.token(), filename))
	dst, err := os.OpenFile(dstPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write %s: %w", dstPath, err)
	}
	return dstPath, nil
}

// remove discards a stored upload whose database write failed.
func (u *Uploads) remove(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
