package services

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/mamelilea/agrowtify-web/internal/models"
	"github.com/mamelilea/agrowtify-web/pkg/utils"
)

const (
	MaxMediaFiles = 5
	MaxImageBytes = 10 << 20
	MaxVideoBytes = 100 << 20
)

// MediaUpload is one file part of a journal submission.
type MediaUpload struct {
	Filename    string
	ContentType string // as declared by the client
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func MediaUploadFromHeader(fh *multipart.FileHeader) MediaUpload {
	return MediaUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// JournalMediaFolder is the media host folder holding one entry's files.
func JournalMediaFolder(entryID string) string {
	return "agrocare/journal/" + entryID
}

// MaxBytesFor returns the size limit for kind.
func MaxBytesFor(kind models.MediaType) int64 {
	if kind == models.MediaVideo {
		return MaxVideoBytes
	}
	return MaxImageBytes
}

// ValidateMediaUploads checks count, type and size of every file and returns the
// classified kinds in the same order. Nothing is uploaded or written.
func ValidateMediaUploads(uploads []MediaUpload) ([]models.MediaType, error) {
	if len(uploads) > MaxMediaFiles {
		return nil, utils.NewValidationError("media", fmt.Sprintf("You can attach at most %d files", MaxMediaFiles))
	}

	kinds := make([]models.MediaType, len(uploads))
	for i, u := range uploads {
		kind, err := ClassifyMedia(u)
		if err != nil {
			return nil, err
		}
		if limit := MaxBytesFor(kind); u.Size > limit {
			return nil, utils.NewValidationError("media", fmt.Sprintf("%s is larger than the %d MB limit for %s files",
				displayName(u), limit>>20, strings.ToLower(string(kind))))
		}
		kinds[i] = kind
	}
	return kinds, nil
}

// ClassifyMedia maps the declared content type to IMAGE or VIDEO. When the client
// sends no usable type, the first bytes of the file decide.
func ClassifyMedia(u MediaUpload) (models.MediaType, error) {
	ct := baseMediaType(u.ContentType)
	if ct == "" || ct == "application/octet-stream" {
		sniffed, err := sniffContentType(u)
		if err != nil {
			return "", err
		}
		ct = sniffed
	}

	switch {
	case strings.HasPrefix(ct, "image/"):
		return models.MediaImage, nil
	case strings.HasPrefix(ct, "video/"):
		return models.MediaVideo, nil
	}
	return "", utils.NewValidationError("media", fmt.Sprintf("%s has unsupported type %s; only images and videos are accepted", displayName(u), ct))
}

func baseMediaType(declared string) string {
	declared = strings.TrimSpace(declared)
	if declared == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return strings.ToLower(declared)
	}
	return strings.ToLower(mt)
}

func sniffContentType(u MediaUpload) (string, error) {
	if u.Open == nil {
		return "application/octet-stream", nil
	}
	rc, err := u.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", displayName(u), err)
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", displayName(u), err)
	}
	return baseMediaType(mt.String()), nil
}

func displayName(u MediaUpload) string {
	if u.Filename == "" {
		return "file"
	}
	return u.Filename
}
