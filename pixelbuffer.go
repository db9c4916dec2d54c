package texgen

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
)

// PixelBuffer is an 8-bit RGBA pixel grid, row-major, not premultiplied.
type PixelBuffer struct {
	width  int
	height int
	data   []uint8 // RGBA format, 4 bytes per pixel
}

// NewPixelBuffer creates a transparent black buffer.
func NewPixelBuffer(width, height int) *PixelBuffer {
	return &PixelBuffer{
		width:  width,
		height: height,
		data:   make([]uint8, width*height*4),
	}
}

// PixelBufferFrom wraps data, which must hold width×height×4 bytes.
// The buffer takes ownership of data.
func PixelBufferFrom(width, height int, data []uint8) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 || len(data) != width*height*4 {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d", ErrDimensionMismatch, len(data), width, height)
	}
	return &PixelBuffer{width: width, height: height, data: data}, nil
}

// Uniform creates a buffer filled with one colour.
func Uniform(width, height int, c color.NRGBA) *PixelBuffer {
	b := NewPixelBuffer(width, height)
	for i := 0; i < len(b.data); i += 4 {
		b.data[i+0] = c.R
		b.data[i+1] = c.G
		b.data[i+2] = c.B
		b.data[i+3] = c.A
	}
	return b
}

// Width returns the width in pixels.
func (b *PixelBuffer) Width() int {
	return b.width
}

// Height returns the height in pixels.
func (b *PixelBuffer) Height() int {
	return b.height
}

// Data returns the raw pixel data (RGBA format).
func (b *PixelBuffer) Data() []uint8 {
	return b.data
}

// SameSize reports whether b and o have equal dimensions.
func (b *PixelBuffer) SameSize(o *PixelBuffer) bool {
	return b.width == o.width && b.height == o.height
}

// SetNRGBA sets the colour of a single pixel.
func (b *PixelBuffer) SetNRGBA(x, y int, c color.NRGBA) {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return
	}
	i := (y*b.width + x) * 4
	b.data[i+0] = c.R
	b.data[i+1] = c.G
	b.data[i+2] = c.B
	b.data[i+3] = c.A
}

// NRGBAAt returns the colour of a single pixel.
func (b *PixelBuffer) NRGBAAt(x, y int) color.NRGBA {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return color.NRGBA{}
	}
	i := (y*b.width + x) * 4
	return color.NRGBA{R: b.data[i+0], G: b.data[i+1], B: b.data[i+2], A: b.data[i+3]}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	c := NewPixelBuffer(b.width, b.height)
	copy(c.data, b.data)
	return c
}

// Equal reports whether both buffers hold identical pixels.
func (b *PixelBuffer) Equal(o *PixelBuffer) bool {
	return b.SameSize(o) && bytes.Equal(b.data, o.data)
}

// ToImage converts the buffer to an image.NRGBA sharing no memory.
func (b *PixelBuffer) ToImage() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.width, b.height))
	copy(img.Pix, b.data)
	return img
}

// FromImage creates a pixel buffer from an image.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	pb := NewPixelBuffer(width, height)

	if src, ok := img.(*image.NRGBA); ok {
		for y := 0; y < height; y++ {
			off := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(pb.data[y*width*4:], src.Pix[off:off+width*4])
		}
		return pb
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			pb.SetNRGBA(x, y, c)
		}
	}

	return pb
}

// EncodePNG writes the buffer as PNG.
func (b *PixelBuffer) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, b.ToImage()); err != nil {
		return fmt.Errorf("texgen: encode PNG: %w", err)
	}
	return nil
}

// SavePNG saves the buffer to a PNG file.
func (b *PixelBuffer) SavePNG(path string) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("texgen: create file: %w", err)
	}

	if err := b.EncodePNG(f); err != nil {
		_ = f.Close()
		return err
	}

	return f.Close()
}

// At implements the image.Image interface.
func (b *PixelBuffer) At(x, y int) color.Color {
	return b.NRGBAAt(x, y)
}

// Bounds implements the image.Image interface.
func (b *PixelBuffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.width, b.height)
}

// ColorModel implements the image.Image interface.
func (b *PixelBuffer) ColorModel() color.Model {
	return color.NRGBAModel
}
