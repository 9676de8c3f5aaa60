package validation

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

// FileConstraints defines validation rules for file uploads
type FileConstraints struct {
	AllowedMimeTypes  map[string]bool
	AllowedExtensions map[string]bool
	MaxSize           int64
}

var (
	// ImageConstraints covers gallery photos and blog covers.
	ImageConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/webp": true,
			"image/gif":  true,
		},
		AllowedExtensions: map[string]bool{
			".jpg":  true,
			".jpeg": true,
			".png":  true,
			".webp": true,
			".gif":  true,
		},
		MaxSize: 25 << 20, // 25MB
	}

	// VideoConstraints covers gallery clips.
	VideoConstraints = FileConstraints{
		AllowedMimeTypes: map[string]bool{
			"video/mp4":       true,
			"video/webm":      true,
			"video/quicktime": true,
		},
		AllowedExtensions: map[string]bool{
			".mp4":  true,
			".webm": true,
			".mov":  true,
		},
		MaxSize: 1 << 30, // 1GB
	}
)

// ValidateFile validates a file upload against one or more constraint sets
// If multiple constraints are provided, file must match at least one (OR logic)
// Example: ValidateFile(header, ImageConstraints, VideoConstraints) allows photos OR clips
func ValidateFile(header *multipart.FileHeader, constraints ...FileConstraints) error {
	if len(constraints) == 0 {
		return fmt.Errorf("no file constraints provided")
	}

	head, err := readHead(header)
	if err != nil {
		return err
	}
	detected := DetectContentType(head)

	var lastErr error
	for _, constraint := range constraints {
		err := validateAgainstConstraint(header, detected, constraint)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	return lastErr
}

// DetectContentType sniffs the magic numbers. QuickTime files are recognised
// by their ftyp box, which http.DetectContentType does not know.
func DetectContentType(head []byte) string {
	if len(head) >= 12 && bytes.Equal(head[4:8], []byte("ftyp")) && bytes.Equal(head[8:12], []byte("qt  ")) {
		return "video/quicktime"
	}
	return http.DetectContentType(head)
}

func readHead(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	// http.DetectContentType reads max 512 bytes to determine MIME type
	buffer := make([]byte, 512)
	n, err := io.ReadFull(file, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return buffer[:n], nil
}

func validateAgainstConstraint(header *multipart.FileHeader, detectedType string, constraints FileConstraints) error {
	if header.Size > constraints.MaxSize {
		maxMB := constraints.MaxSize / (1 << 20)
		return fmt.Errorf("Datei zu groß: maximal %d MB", maxMB)
	}

	if !constraints.AllowedMimeTypes[detectedType] {
		return fmt.Errorf("Ungültiger Dateityp (erkannt: %s)", detectedType)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !constraints.AllowedExtensions[ext] {
		return fmt.Errorf("Ungültige Dateiendung: %s", ext)
	}

	return nil
}
