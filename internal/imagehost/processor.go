// Copyright (c) 2026 Matajihat Portal contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imagehost normalizes uploaded images and pushes them to the
// external image host the portal serves pictures from.
package imagehost

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// MaxImageWidth is the widest image the portal serves. Larger uploads are
// scaled down before they leave the server.
const MaxImageWidth = 1600

// jpegQuality is the re-encode quality for normalized images.
const jpegQuality = 85

// Processed is a normalized upload ready to be hosted.
type Processed struct {
	Data     []byte
	Filename string
	Width    int
	Height   int
	MimeType string
}

// Processor normalizes image uploads: EXIF orientation is applied, oversized
// images are scaled down and everything is re-encoded without metadata.
type Processor struct {
	maxWidth int
}

// NewProcessor creates a processor with the default size limit.
func NewProcessor() *Processor {
	return &Processor{maxWidth: MaxImageWidth}
}

// Process reads an uploaded image and returns a normalized version.
func (p *Processor) Process(reader io.Reader) (*Processed, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading image data: %w", err)
	}

	format := detectFormat(data)
	if format == "" {
		return nil, fmt.Errorf("unsupported image format")
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}

	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	if img.Bounds().Dx() > p.maxWidth {
		img = imaging.Resize(img, p.maxWidth, 0, imaging.Lanczos)
	}

	// PNG keeps its alpha channel, everything else becomes JPEG.
	outFormat := "jpeg"
	if format == "png" {
		outFormat = "png"
	}
	encoded, err := encodeImage(img, outFormat)
	if err != nil {
		return nil, fmt.Errorf("encoding image: %w", err)
	}

	bounds := img.Bounds()
	ext := ".jpg"
	mime := "image/jpeg"
	if outFormat == "png" {
		ext = ".png"
		mime = "image/png"
	}

	return &Processed{
		Data:     encoded,
		Filename: uuid.New().String() + ext,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		MimeType: mime,
	}, nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies the EXIF orientation transform to an image.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case "png":
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// Explicitly reject TIFF (CVE-2023-36308 in disintegration/imaging)
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
