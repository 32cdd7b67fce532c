// Package image provides raster file loading and saving, and conversion
// between Go images and OpenCV matrices.
package image

import (
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/renameio/v2"
	"gocv.io/x/gocv"
	"golang.org/x/image/tiff"
)

// JPEGQuality is used for photographic output.
const JPEGQuality = 95

// Load opens an image file, applying EXIF orientation.
func Load(path string) (image.Image, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	return img, nil
}

// LoadMat opens an image file as a 3-channel BGR Mat.
func LoadMat(path string) (gocv.Mat, error) {
	img, err := Load(path)
	if err != nil {
		return gocv.NewMat(), err
	}
	return ToMat(img)
}

// Save writes img to path, choosing the encoder from the extension.
// JPEG output uses JPEGQuality; TIFF output is Deflate-compressed.
// The file is written under a temporary name and renamed into place.
func Save(img image.Image, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !IsSupportedFormat(path) {
		return fmt.Errorf("unsupported image format: %s", ext)
	}

	return writeAtomic(path, func(w io.Writer) error {
		switch ext {
		case ".tif", ".tiff":
			return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
		default:
			format, err := imaging.FormatFromExtension(ext)
			if err != nil {
				return err
			}
			return imaging.Encode(w, img, format, imaging.JPEGQuality(JPEGQuality))
		}
	})
}

// SaveMat converts mat to an image and saves it.
func SaveMat(mat gocv.Mat, path string) error {
	img, err := FromMat(mat)
	if err != nil {
		return err
	}
	return Save(img, path)
}

// ToMat converts a Go image to a 3-channel BGR Mat.
func ToMat(img image.Image) (gocv.Mat, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to convert image: %w", err)
	}
	return mat, nil
}

// FromMat converts a 1- or 3-channel 8-bit Mat to a Go image.
// Single-channel mats become *image.Gray, so masks stay lossless.
func FromMat(mat gocv.Mat) (image.Image, error) {
	if mat.Empty() {
		return nil, fmt.Errorf("empty image")
	}
	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert mat: %w", err)
	}
	return img, nil
}

// writeAtomic streams into a pending file that replaces path only once the
// encoder has succeeded, so a failed encode never leaves a partial file.
func writeAtomic(path string, write func(io.Writer) error) error {
	pf, err := renameio.NewPendingFile(path, renameio.WithPermissions(0644))
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer pf.Cleanup()

	if err := write(pf); err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := pf.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SupportedFormats returns the list of supported image formats.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg", ".bmp"}
}

// IsSupportedFormat checks if the given path has a supported image format.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
