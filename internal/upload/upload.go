// Package upload is the intake boundary for multipart file attachments.
//
// It accepts at most one file per submission, checks size and content type,
// and writes it under a generated name. The client-supplied filename is
// never used for anything but logging — path traversal ("../../etc/passwd")
// and collisions are impossible when the stored name is a fresh UUID.
//
// Type checking sniffs the first 512 bytes of the actual content
// (http.DetectContentType) instead of trusting the Content-Type header the
// client sent; a renamed .exe doesn't become a JPEG by claiming to be one.
package upload

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/sakif/adboard/internal/apperror"
)

// MaxUploadBytes is the attachment size ceiling (5 MiB). Handlers also set
// this (plus form overhead) as the multipart parse limit so oversized bodies
// are cut off during reading, not after buffering.
const MaxUploadBytes = 5 << 20

// publicPrefix is the URL path segment the server mounts the storage
// directory under; stored references are "uploads/<name>".
const publicPrefix = "uploads"

// imageExtensions maps the accepted sniffed content types to the canonical
// extension the stored file gets. Everything else is rejected.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Store writes validated attachments into a single directory.
type Store struct {
	dir string
}

// NewStore creates the storage directory if needed and returns a Store.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("upload: creating storage dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the filesystem directory backing the store, for the static
// file route in the server.
func (s *Store) Dir() string {
	return s.dir
}

// Save validates and persists one uploaded file, returning the stored
// reference path (e.g. "uploads/6b3f….jpg").
//
// Fail-fast contract: any rejection happens BEFORE the caller touches the
// database, so an invalid attachment never leaves partial state behind.
// Rejections are apperror.ErrInvalidAttachment; anything else is an I/O
// failure the handler reports as a generic 500.
func (s *Store) Save(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > MaxUploadBytes {
		return "", apperror.InvalidAttachment(
			fmt.Sprintf("photo exceeds the %d MB limit", MaxUploadBytes>>20))
	}

	// Sniff the real content type from the leading bytes.
	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", fmt.Errorf("upload: reading attachment: %w", err)
	}
	head = head[:n]

	ext, ok := imageExtensions[http.DetectContentType(head)]
	if !ok {
		return "", apperror.InvalidAttachment("photo must be a JPEG, PNG, GIF or WebP image")
	}

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("upload: creating %s: %w", name, err)
	}
	defer dst.Close()

	if _, err := dst.Write(head); err != nil {
		return "", fmt.Errorf("upload: writing %s: %w", name, err)
	}

	// header.Size can lie (it comes from the client); the LimitReader is the
	// real ceiling. Copying one byte past the limit means the body was
	// larger than declared.
	written, err := io.Copy(dst, io.LimitReader(file, MaxUploadBytes-int64(len(head))+1))
	if err != nil {
		return "", fmt.Errorf("upload: writing %s: %w", name, err)
	}
	if int64(len(head))+written > MaxUploadBytes {
		os.Remove(filepath.Join(s.dir, name))
		return "", apperror.InvalidAttachment(
			fmt.Sprintf("photo exceeds the %d MB limit", MaxUploadBytes>>20))
	}

	return path.Join(publicPrefix, name), nil
}
