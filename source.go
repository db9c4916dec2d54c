package texgen

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"
	"slices"

	_ "golang.org/x/image/bmp" // register BMP decoder
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Loader limits.
const (
	// MaxSourceDimension is the largest source width or height handed to
	// the pipeline; larger images are downscaled proportionally.
	MaxSourceDimension = 2048

	// MaxSourceBytes is the largest encoded source file accepted.
	MaxSourceBytes = 50 << 20

	// MaxDecodePixels is the largest width×height decoded before
	// downscaling. Headers are checked before any pixel is allocated.
	MaxDecodePixels = 64 << 20
)

// SourceFormats lists the accepted encoded formats.
var SourceFormats = []string{"png", "jpeg", "gif", "bmp", "tiff", "webp"}

type loadOptions struct {
	maxDim    int
	maxBytes  int64
	maxPixels int64
}

// LoadOption configures source loading.
type LoadOption func(*loadOptions)

// WithMaxSourceDimension overrides MaxSourceDimension.
func WithMaxSourceDimension(n int) LoadOption {
	return func(o *loadOptions) {
		o.maxDim = n
	}
}

// WithMaxSourceBytes overrides MaxSourceBytes.
func WithMaxSourceBytes(n int64) LoadOption {
	return func(o *loadOptions) {
		o.maxBytes = n
	}
}

// WithMaxDecodePixels overrides MaxDecodePixels.
func WithMaxDecodePixels(n int64) LoadOption {
	return func(o *loadOptions) {
		o.maxPixels = n
	}
}

// LoadSource reads and decodes a source image from path.
func LoadSource(path string, opts ...LoadOption) (*PixelBuffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	pb, err := DecodeSource(f, opts...)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.Path = path
		}
		return nil, err
	}
	return pb, nil
}

// DecodeSource decodes a source image, enforcing the format allow-list,
// the byte cap and the dimension cap. Oversized images are downscaled
// with Catmull-Rom filtering; images are never upscaled.
func DecodeSource(r io.Reader, opts ...LoadOption) (*PixelBuffer, error) {
	o := loadOptions{maxDim: MaxSourceDimension, maxBytes: MaxSourceBytes, maxPixels: MaxDecodePixels}
	for _, opt := range opts {
		opt(&o)
	}

	data, err := io.ReadAll(io.LimitReader(r, o.maxBytes+1))
	if err != nil {
		return nil, &LoadError{Err: err}
	}
	if int64(len(data)) > o.maxBytes {
		return nil, &LoadError{Err: fmt.Errorf("%w: over %d bytes", ErrFileTooLarge, o.maxBytes)}
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode: %w", err)}
	}
	if !slices.Contains(SourceFormats, format) {
		return nil, &LoadError{Err: fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)}
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); o.maxPixels > 0 && pixels > o.maxPixels {
		return nil, &LoadError{Err: fmt.Errorf("%w: %dx%d over %d pixels",
			ErrTooManyPixels, cfg.Width, cfg.Height, o.maxPixels)}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &LoadError{Err: fmt.Errorf("decode: %w", err)}
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, &LoadError{Err: fmt.Errorf("%w: empty image", ErrDimensionMismatch)}
	}
	if w, h, scaled := fitWithin(b.Dx(), b.Dy(), o.maxDim); scaled {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		img = dst
		Logger().Debug("texgen: source downscaled", "from", b.Size(), "to", dst.Bounds().Size())
	}

	pb := FromImage(img)
	Logger().Info("texgen: source loaded", "format", format, "width", pb.Width(), "height", pb.Height())
	return pb, nil
}

// fitWithin scales w×h proportionally to fit a max×max box.
func fitWithin(w, h, maxDim int) (int, int, bool) {
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return w, h, false
	}
	scale := min(float64(maxDim)/float64(w), float64(maxDim)/float64(h))
	nw := max(1, int(float64(w)*scale+0.5))
	nh := max(1, int(float64(h)*scale+0.5))
	return min(nw, maxDim), min(nh, maxDim), true
}
