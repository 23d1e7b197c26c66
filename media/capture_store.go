package media

import (
	"bytes"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
)

// CaptureStore persists the camera frame that backed an automatic attendance
// mark and returns a relative path for the log entry.
type CaptureStore interface {
	SaveCapture(data []byte) (string, error)
}

// LocalCaptureStore implements CaptureStore on the local filesystem
type LocalCaptureStore struct {
	basePath string // absolute MEDIA_STORAGE_PATH
	subDir   string // subdirectory for captures, e.g. "captures"
	maxSize  int    // longest side after resize, 0 keeps the original size
}

// NewLocalCaptureStore creates a new local capture store
func NewLocalCaptureStore(basePath, subDir string, maxSize int) (*LocalCaptureStore, error) {
	absBasePath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base storage path '%s': %w", basePath, err)
	}
	if err := os.MkdirAll(filepath.Join(absBasePath, subDir), 0755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	log.Printf("media.store: Initialized capture store at %s", filepath.Join(absBasePath, subDir))
	return &LocalCaptureStore{basePath: absBasePath, subDir: subDir, maxSize: maxSize}, nil
}

// SaveCapture decodes the frame, applies its EXIF orientation, resizes it to
// the configured bound, and writes it as a JPEG with a generated name. The
// returned path is relative to the media storage root.
func (ls *LocalCaptureStore) SaveCapture(data []byte) (string, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode capture frame: %w", err)
	}

	img = applyExifOrientation(data, img)

	if ls.maxSize > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > ls.maxSize || bounds.Dy() > ls.maxSize {
			img = imaging.Fit(img, ls.maxSize, ls.maxSize, imaging.Lanczos)
		}
	}

	filename := uuid.New().String() + ".jpg"
	fullPath := filepath.Join(ls.basePath, ls.subDir, filename)
	if err := imaging.Save(img, fullPath, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to save capture frame: %w", err)
	}

	return filepath.ToSlash(filepath.Join(ls.subDir, filename)), nil
}

// applyExifOrientation rotates the decoded image according to the EXIF
// orientation tag. Phone cameras commonly store rotated pixels; without this
// the stored capture is sideways. Missing or unreadable EXIF leaves the image
// untouched.
func applyExifOrientation(data []byte, img image.Image) image.Image {
	exifData, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return img
	}
	tag, err := exifData.Get(exif.Orientation)
	if err != nil || tag == nil {
		return img
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return img
	}

	switch orientation {
	case 3:
		return imaging.Rotate180(img)
	case 6:
		return imaging.Rotate270(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}
