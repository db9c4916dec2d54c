package texgen

import (
	"image"
	"image/color"
	"testing"
)

// TestSetNRGBAOutOfBounds verifies out-of-bounds coordinates are ignored.
func TestSetNRGBAOutOfBounds(t *testing.T) {
	b := Uniform(4, 4, color.NRGBA{10, 20, 30, 255})
	want := b.Clone()

	for _, p := range []image.Point{{-1, 2}, {4, 2}, {2, -1}, {2, 4}, {100, 100}} {
		b.SetNRGBA(p.X, p.Y, color.NRGBA{255, 0, 0, 255})
		if got := b.NRGBAAt(p.X, p.Y); got != (color.NRGBA{}) {
			t.Errorf("NRGBAAt(%d, %d) = %v, want zero", p.X, p.Y, got)
		}
	}
	if !b.Equal(want) {
		t.Error("out-of-bounds write modified data")
	}
}

func TestFromImageSubImage(t *testing.T) {
	full := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for y := range 4 {
		for x := range 6 {
			full.SetNRGBA(x, y, color.NRGBA{uint8(x), uint8(y), 0, 255})
		}
	}
	sub := full.SubImage(image.Rect(2, 1, 5, 3)).(*image.NRGBA)

	b := FromImage(sub)
	if b.Width() != 3 || b.Height() != 2 {
		t.Fatalf("size = %dx%d, want 3x2", b.Width(), b.Height())
	}
	for y := range 2 {
		for x := range 3 {
			want := color.NRGBA{uint8(x + 2), uint8(y + 1), 0, 255}
			if got := b.NRGBAAt(x, y); got != want {
				t.Errorf("(%d, %d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestFromImageConvertsGray(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 2, 1))
	g.SetGray(1, 0, color.Gray{Y: 200})

	b := FromImage(g)
	if got := b.NRGBAAt(1, 0); got != (color.NRGBA{200, 200, 200, 255}) {
		t.Errorf("NRGBAAt(1, 0) = %v", got)
	}
	if got := b.NRGBAAt(0, 0); got != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("NRGBAAt(0, 0) = %v", got)
	}
}
