// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging probes uploaded template assets, produces JPEG thumbnails
// for the asset picker and encodes verification QR codes. Decoding uses the
// standard image codecs plus WebP from golang.org/x/image.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

const (
	// MaxPixels rejects decompression bombs before a full decode.
	MaxPixels = 100_000_000

	// ThumbWidth is the width of picker thumbnails.
	ThumbWidth = 320

	thumbQuality = 80
)

// ErrUnsupported is returned for data no registered decoder understands.
var ErrUnsupported = errors.New("imaging: unsupported image format")

// contentTypes maps decoder format names to MIME types.
var contentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// Info describes an uploaded image.
type Info struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Format      string `json:"format"`
	ContentType string `json:"content_type"`
}

// Probe reads the image header only.
func Probe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return Info{}, ErrUnsupported
		}
		return Info{}, fmt.Errorf("decode config: %w", err)
	}
	ct, ok := contentTypes[format]
	if !ok {
		return Info{}, ErrUnsupported
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return Info{}, fmt.Errorf("image too large: %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format, ContentType: ct}, nil
}

// Thumbnail returns a JPEG no wider than maxWidth, preserving aspect ratio.
// Transparent areas are flattened onto white. It returns nil when the image
// is already narrow enough.
func Thumbnail(data []byte, maxWidth int) ([]byte, error) {
	info, err := Probe(data)
	if err != nil {
		return nil, err
	}
	if info.Width <= maxWidth {
		return nil, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	ratio := float64(maxWidth) / float64(bounds.Dx())
	newHeight := max(1, int(float64(bounds.Dy())*ratio))

	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: thumbQuality}); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// FitSize scales an image's pixel size down to fit within maxW x maxH
// logical pixels. Images already inside the box keep their size.
func FitSize(info Info, maxW, maxH float64) (w, h float64) {
	w, h = float64(info.Width), float64(info.Height)
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	ratio := 1.0
	if maxW > 0 && w > maxW {
		ratio = maxW / w
	}
	if maxH > 0 && h*ratio > maxH {
		ratio = maxH / h
	}
	return w * ratio, h * ratio
}

// Extension returns a file extension for a supported MIME type.
func Extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}

// QRDataURI encodes content as a PNG QR code of size pixels and returns it
// as a data: URI.
func QRDataURI(content string, size int) (string, error) {
	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return "", fmt.Errorf("qr encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
