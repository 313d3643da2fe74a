package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned for anything other than JPEG, PNG or GIF
var ErrUnsupportedFormat = errors.New("unsupported image format")

// Format describes an accepted image encoding
type Format struct {
	Name        string
	ContentType string
	Ext         string
	encoding    imaging.Format
}

var formats = map[string]Format{
	"jpeg": {Name: "jpeg", ContentType: "image/jpeg", Ext: ".jpg", encoding: imaging.JPEG},
	"png":  {Name: "png", ContentType: "image/png", Ext: ".png", encoding: imaging.PNG},
	"gif":  {Name: "gif", ContentType: "image/gif", Ext: ".gif", encoding: imaging.GIF},
}

// Info is what Inspect learns about an encoded image without decoding pixels
type Info struct {
	Format Format
	Width  int
	Height int
}

// Inspect sniffs the encoding and dimensions of data
func Inspect(data []byte) (Info, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	f, ok := formats[name]
	if !ok {
		return Info{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("%w: empty image", ErrUnsupportedFormat)
	}
	return Info{Format: f, Width: cfg.Width, Height: cfg.Height}, nil
}

// Renderer produces a thumbnail of an original
type Renderer interface {
	// Render scales data to the given height keeping the aspect ratio,
	// re-encoded in the original's format
	Render(data []byte, height int) ([]byte, error)
}

// ImagingRenderer renders with Lanczos resampling
type ImagingRenderer struct {
	// JPEGQuality is used for JPEG output, 0 means imaging's default
	JPEGQuality int
}

// NewImagingRenderer creates the default renderer
func NewImagingRenderer() *ImagingRenderer {
	return &ImagingRenderer{JPEGQuality: 85}
}

func (r *ImagingRenderer) Render(data []byte, height int) ([]byte, error) {
	if height <= 0 {
		return nil, fmt.Errorf("invalid thumbnail height %d", height)
	}
	info, err := Inspect(data)
	if err != nil {
		return nil, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// never upscale, a short original is served at its own height
	if height < img.Bounds().Dy() {
		img = imaging.Resize(img, 0, height, imaging.Lanczos)
	}

	var opts []imaging.EncodeOption
	if info.Format.encoding == imaging.JPEG && r.JPEGQuality > 0 {
		opts = append(opts, imaging.JPEGQuality(r.JPEGQuality))
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, info.Format.encoding, opts...); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}
