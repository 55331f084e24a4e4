package storage

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds maximum size")
	ErrInvalidMimeType = errors.New("file type not allowed")
	ErrEmptyFile       = errors.New("file is empty")
)

// AllowedImageTypes are the upload types accepted for photos and avatars.
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// ValidateImage reads at most maxSize bytes from reader and checks the
// content type by magic bytes.
func ValidateImage(reader io.Reader, maxSize int64) ([]byte, string, error) {
	// Read maxSize + 1 to detect oversized files
	data, err := io.ReadAll(io.LimitReader(reader, maxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read file: %w", err)
	}

	if len(data) == 0 {
		return nil, "", ErrEmptyFile
	}
	if int64(len(data)) > maxSize {
		return nil, "", ErrFileTooLarge
	}

	// "image/jpeg; charset=utf-8" -> "image/jpeg"
	mimeType := http.DetectContentType(data)
	if idx := strings.Index(mimeType, ";"); idx != -1 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}

	for _, t := range AllowedImageTypes {
		if t == mimeType {
			return data, mimeType, nil
		}
	}
	return nil, "", ErrInvalidMimeType
}

// GetExtensionForMime returns the file extension for a MIME type
func GetExtensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
