// Package imaging resolves image references found in a case record into raster data that
// both renderers can embed.
//
// A reference is a DataURL, an http(s) URL or a bare object-storage path. Every image is
// normalized to JPEG (passed through untouched) or PNG (everything else, re-encoded), and
// its natural size is measured by decoding, because placements that fill a band need the
// real aspect ratio even when the configuration supplies dimensions.
//
// Main Functions:
//
// - DecodeDataURL: decode an inline data:image/... reference
// - Normalize: canonical format plus natural size from raw bytes
// - Resolver.Resolve / Resolver.Fetch: fetch with a single signed-URL recovery
// - Resolver.Prefetch: concurrent fetch of every reference of a render into a Set
// - FitIntoBox: uniform scaling into a bounding box
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"math"
	"net/url"
	"strings"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Canonical formats, named the way fpdf expects them.
const (
	FormatPNG  = "PNG"
	FormatJPEG = "JPEG"
)

// ErrUnsupportedFormat is returned for DataURLs of a type that cannot be embedded.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// supportedDataTypes are the data:image/... subtypes accepted inline.
var supportedDataTypes = map[string]bool{
	"png": true, "jpeg": true, "jpg": true, "gif": true, "webp": true, "bmp": true, "tiff": true,
}

// Image is a normalized raster image.
type Image struct {
	Data   []byte
	Format string // FormatPNG or FormatJPEG
	Width  int    // natural width in pixels
	Height int    // natural height in pixels
}

// Ratio returns width divided by height, or 1 for a degenerate image.
func (img *Image) Ratio() float64 {
	if img == nil || img.Width <= 0 || img.Height <= 0 {
		return 1
	}
	return float64(img.Width) / float64(img.Height)
}

// IsDataURL reports whether ref is an inline data: reference.
func IsDataURL(ref string) bool {
	return strings.HasPrefix(strings.TrimSpace(ref), "data:")
}

// DecodeDataURL decodes a data:image/<type>;base64,<payload> reference.
// Types outside the supported set yield ErrUnsupportedFormat without guessing.
func DecodeDataURL(ref string) (*Image, error) {
	ref = strings.TrimSpace(ref)
	header, payload, ok := strings.Cut(ref, ",")
	if !ok || !strings.HasPrefix(header, "data:") {
		return nil, fmt.Errorf("malformed data URL")
	}
	mediaType := strings.TrimPrefix(header, "data:")
	base64Encoded := false
	if i := strings.Index(mediaType, ";"); i >= 0 {
		for _, param := range strings.Split(mediaType[i+1:], ";") {
			if strings.EqualFold(strings.TrimSpace(param), "base64") {
				base64Encoded = true
			}
		}
		mediaType = mediaType[:i]
	}
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	sub, isImage := strings.CutPrefix(mediaType, "image/")
	if !isImage || !supportedDataTypes[sub] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, mediaType)
	}

	var data []byte
	var err error
	if base64Encoded {
		data, err = decodeBase64(payload)
	} else {
		var s string
		s, err = url.PathUnescape(payload)
		data = []byte(s)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode data URL payload: %w", err)
	}
	return Normalize(data)
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, payload)
	if data, err := base64.StdEncoding.DecodeString(payload); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// Normalize measures the image and converts it to a canonical format: JPEG data is kept
// as is, anything else decodable is re-encoded as PNG.
func Normalize(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image data")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image config: %w", err)
	}
	if format == "jpeg" {
		return &Image{Data: data, Format: FormatJPEG, Width: cfg.Width, Height: cfg.Height}, nil
	}
	if format == "png" && embeddablePNG(data) {
		return &Image{Data: data, Format: FormatPNG, Width: cfg.Width, Height: cfg.Height}, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s image: %w", format, err)
	}
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)
	var buf bytes.Buffer
	if err := png.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("failed to re-encode %s image as PNG: %w", format, err)
	}
	return &Image{Data: buf.Bytes(), Format: FormatPNG, Width: b.Dx(), Height: b.Dy()}, nil
}

// embeddablePNG reports whether a PNG can be embedded as is: 8 bits per channel or less
// and not interlaced. The IHDR chunk always follows the 8-byte signature.
func embeddablePNG(data []byte) bool {
	if len(data) < 29 || string(data[12:16]) != "IHDR" {
		return false
	}
	bitDepth, interlace := data[24], data[28]
	return bitDepth <= 8 && interlace == 0
}

// FitIntoBox scales naturalW x naturalH uniformly so that it fits boxW x boxH.
// Results are rounded and at least 1. Non-positive inputs return the box itself.
func FitIntoBox(naturalW, naturalH, boxW, boxH int) (int, int) {
	if naturalW <= 0 || naturalH <= 0 || boxW <= 0 || boxH <= 0 {
		return max(boxW, 1), max(boxH, 1)
	}
	w, h := FitIntoBoxF(float64(naturalW), float64(naturalH), float64(boxW), float64(boxH))
	return min(max(int(math.Round(w)), 1), boxW), min(max(int(math.Round(h)), 1), boxH)
}

// FitIntoBoxF is FitIntoBox on continuous units (points, EMUs) without rounding.
func FitIntoBoxF(naturalW, naturalH, boxW, boxH float64) (float64, float64) {
	if naturalW <= 0 || naturalH <= 0 {
		return boxW, boxH
	}
	scale := math.Min(boxW/naturalW, boxH/naturalH)
	return naturalW * scale, naturalH * scale
}
