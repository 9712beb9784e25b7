// Snapshot saving for transformed region images
package io

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrEmptyImage        = errors.New("cannot save empty image")
	ErrWriteFailed       = errors.New("failed to write image")
)

var supportedFormats = []string{"png", "jpg", "jpeg", "tiff", "tif", "bmp"}

// ArtifactName returns the file name for region index (0-based) at the given save count
func ArtifactName(index, saveCount int, format string) string {
	return fmt.Sprintf("roi%d_save_%04d.%s", index+1, saveCount, normalizeFormat(format))
}

// SnapshotWriter writes region snapshots into a directory
type SnapshotWriter struct {
	dir    string
	format string
	logger logrus.FieldLogger
}

// NewSnapshotWriter creates a writer for dir using the given file format (png, jpg, ...)
func NewSnapshotWriter(dir, format string, logger logrus.FieldLogger) (*SnapshotWriter, error) {
	format = normalizeFormat(format)
	if !IsSupportedFormat(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &SnapshotWriter{dir: dir, format: format, logger: logger}, nil
}

// Dir returns the output directory
func (w *SnapshotWriter) Dir() string { return w.dir }

// Format returns the image file extension without the dot
func (w *SnapshotWriter) Format() string { return w.format }

// Save writes one region image and returns the path written
func (w *SnapshotWriter) Save(mat gocv.Mat, index, saveCount int) (string, error) {
	path := filepath.Join(w.dir, ArtifactName(index, saveCount, w.format))
	if err := SaveImage(mat, path); err != nil {
		return path, err
	}

	w.logger.WithFields(logrus.Fields{
		"path":   path,
		"roi":    index + 1,
		"width":  mat.Cols(),
		"height": mat.Rows(),
	}).Info("Saved snapshot")

	return path, nil
}

// SaveImage writes mat to path, choosing the encoder from the file extension
func SaveImage(mat gocv.Mat, path string) error {
	if mat.Empty() {
		return ErrEmptyImage
	}

	if !IsSupportedFormat(filepath.Ext(path)) {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrWriteFailed, path)
	}

	if !gocv.IMWrite(path, mat) {
		return fmt.Errorf("%w: %s", ErrWriteFailed, path)
	}

	return nil
}

// IsSupportedFormat reports whether ext (with or without leading dot) can be written
func IsSupportedFormat(ext string) bool {
	ext = normalizeFormat(ext)
	for _, format := range supportedFormats {
		if ext == format {
			return true
		}
	}
	return false
}

func normalizeFormat(format string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
}
