package software

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// surface is an RGBA8 pixel grid, row 0 first.
type surface struct {
	w, h int
	pix  []byte
}

func newSurface(w, h int) *surface {
	return &surface{w: w, h: h, pix: make([]byte, w*h*4)}
}

// load returns the texel at (x, y) with clamp-to-edge addressing.
func (s *surface) load(x, y int) mgl32.Vec4 {
	x = min(max(x, 0), s.w-1)
	y = min(max(y, 0), s.h-1)
	i := (y*s.w + x) * 4
	return mgl32.Vec4{
		float32(s.pix[i]) / 255,
		float32(s.pix[i+1]) / 255,
		float32(s.pix[i+2]) / 255,
		float32(s.pix[i+3]) / 255,
	}
}

// sample filters bilinearly at texel-space position (px, py); integer
// positions are texel centres.
func (s *surface) sample(px, py float32) mgl32.Vec4 {
	bx, by := math32.Floor(px), math32.Floor(py)
	fx, fy := px-bx, py-by
	x, y := int(bx), int(by)
	a, b := s.load(x, y), s.load(x+1, y)
	c, d := s.load(x, y+1), s.load(x+1, y+1)
	r0 := a.Add(b.Sub(a).Mul(fx))
	r1 := c.Add(d.Sub(c).Mul(fx))
	return r0.Add(r1.Sub(r0).Mul(fy))
}

func (s *surface) store(x, y int, c mgl32.Vec4) {
	i := (y*s.w + x) * 4
	for k := 0; k < 4; k++ {
		s.pix[i+k] = quantize(c[k])
	}
}

// quantize maps [0,1] to a byte, rounding to nearest.
func quantize(v float32) uint8 {
	return uint8(math32.Floor(clamp01(v)*255 + 0.5))
}

func clamp01(v float32) float32 {
	if !(v > 0) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func luma(c mgl32.Vec3) float32 {
	return c.Dot(lumaWeights)
}

var lumaWeights = mgl32.Vec3{0.299, 0.587, 0.114}

func smoothstep(e0, e1, x float32) float32 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

// smoothThreshold is smoothstep(lo, hi, v), degrading to a hard step at
// lo when the band is empty or inverted.
func smoothThreshold(lo, hi, v float32) float32 {
	if hi > lo {
		return smoothstep(lo, hi, v)
	}
	if v >= lo {
		return 1
	}
	return 0
}
