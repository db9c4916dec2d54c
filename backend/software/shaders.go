package software

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texgen/kernel"
)

// shader computes the output colour of pixel (x, y).
type shader func(x, y int) mgl32.Vec4

const (
	invSqrt3   = 0.57735027
	pi         = 3.14159265
	twoPi      = 6.28318531
	maxSamples = 16

	// edgeBand is the half-width of the edge threshold transition.
	edgeBand = 0.2
)

var half3 = mgl32.Vec3{0.5, 0.5, 0.5}

func gray(v float32) mgl32.Vec4 {
	return mgl32.Vec4{v, v, v, 1}
}

func shaderFor(u kernel.Uniforms, in []*surface) (shader, error) {
	switch u := u.(type) {
	case *kernel.DiffuseUniforms:
		return diffuse(u, in[0]), nil
	case *kernel.HeightUniforms:
		return height(u, in[0]), nil
	case *kernel.BlurUniforms:
		return blur(u, in[0]), nil
	case *kernel.NormalUniforms:
		return normal(u, in[0]), nil
	case *kernel.EdgeUniforms:
		return edge(u, in[0]), nil
	case *kernel.AOUniforms:
		return ao(u, in[1]), nil
	case *kernel.MetallicUniforms:
		return metallic(u, in[0]), nil
	case *kernel.RoughnessUniforms:
		return roughness(u, in[0], in[1]), nil
	case *kernel.ORMUniforms:
		return orm(in[0], in[1], in[2]), nil
	default:
		return nil, fmt.Errorf("%w: software device has no kernel for %T", kernel.ErrUnknownKind, u)
	}
}

func diffuse(u *kernel.DiffuseUniforms, img *surface) shader {
	k := mgl32.Vec3{invSqrt3, invSqrt3, invSqrt3}
	angle := u.Hue * pi
	ca, sa := math32.Cos(angle), math32.Sin(angle)
	return func(x, y int) mgl32.Vec4 {
		src := img.load(x, y)
		c := src.Vec3()
		if u.Hue != 0 {
			c = c.Mul(ca).Add(k.Cross(c).Mul(sa)).Add(k.Mul(k.Dot(c) * (1 - ca)))
		}
		c = c.Sub(half3).Mul(u.Contrast).Add(half3)
		c = c.Add(mgl32.Vec3{u.Brightness, u.Brightness, u.Brightness})
		g := luma(c)
		gv := mgl32.Vec3{g, g, g}
		c = gv.Add(c.Sub(gv).Mul(u.Saturation))
		return mgl32.Vec4{clamp01(c[0]), clamp01(c[1]), clamp01(c[2]), src[3]}
	}
}

func height(u *kernel.HeightUniforms, img *surface) shader {
	return func(x, y int) mgl32.Vec4 {
		l := luma(img.load(x, y).Vec3())
		var diff float32
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}
				diff += math32.Abs(l - luma(img.load(x+dx, y+dy).Vec3()))
			}
		}
		contrast := diff / 8
		h := 0.7*l + 0.3*contrast
		return gray(clamp01((h-0.5)*u.Intensity + 0.5))
	}
}

func blur(u *kernel.BlurUniforms, img *surface) shader {
	dx, dy := int(u.Direction[0]), int(u.Direction[1])
	return func(x, y int) mgl32.Vec4 {
		acc := img.load(x, y).Mul(u.Center)
		for i := 1; i <= 4; i++ {
			pair := img.load(x+dx*i, y+dy*i).Add(img.load(x-dx*i, y-dy*i))
			acc = acc.Add(pair.Mul(u.Weights[i-1]))
		}
		return mgl32.Vec4{clamp01(acc[0]), clamp01(acc[1]), clamp01(acc[2]), clamp01(acc[3])}
	}
}

func normal(u *kernel.NormalUniforms, hm *surface) shader {
	s := math32.Max(1, u.Step)
	return func(x, y int) mgl32.Vec4 {
		px, py := float32(x), float32(y)
		at := func(ox, oy float32) float32 { return hm.sample(px+ox, py+oy)[0] }
		tl, t, tr := at(-s, s), at(0, s), at(s, s)
		l, r := at(-s, 0), at(s, 0)
		bl, b, br := at(-s, -s), at(0, -s), at(s, -s)
		dX := tr + 2*r + br - (tl + 2*l + bl)
		dY := tl + 2*t + tr - (bl + 2*b + br)
		n := mgl32.Vec3{-dX * u.Strength, -dY * u.Strength, 1}.Normalize()
		if u.FlipY > 0.5 {
			n[1] = -n[1]
		}
		n = n.Mul(0.5).Add(half3)
		return n.Vec4(1)
	}
}

func edge(u *kernel.EdgeUniforms, nm *surface) shader {
	return func(x, y int) mgl32.Vec4 {
		at := func(dx, dy int) mgl32.Vec3 { return nm.load(x+dx, y+dy).Vec3() }
		tl, t, tr := at(-1, 1), at(0, 1), at(1, 1)
		l, r := at(-1, 0), at(1, 0)
		bl, b, br := at(-1, -1), at(0, -1), at(1, -1)
		sx := tr.Add(r.Mul(2)).Add(br).Sub(tl.Add(l.Mul(2)).Add(bl))
		sy := tl.Add(t.Mul(2)).Add(tr).Sub(bl.Add(b.Mul(2)).Add(br))
		e := clamp01((sx.Len() + sy.Len()) / 8 * u.EdgeStrength)
		return gray(smoothThreshold(u.Threshold-edgeBand, u.Threshold+edgeBand, 1-e))
	}
}

// ao reads only the height map; the normal map is bound but unused.
// A fractional sample count n takes ceil(n) samples spaced 2π/n apart and
// averages over n.
func ao(u *kernel.AOUniforms, hm *surface) shader {
	n := math32.Min(math32.Max(u.Samples, 1), maxSamples)
	offsets := make([][2]float32, int(math32.Ceil(n)))
	for i := range offsets {
		angle := float32(i) * (twoPi / n)
		offsets[i] = [2]float32{math32.Cos(angle) * u.Spread, math32.Sin(angle) * u.Spread}
	}
	return func(x, y int) mgl32.Vec4 {
		center := hm.load(x, y)[0]
		var acc float32
		for _, o := range offsets {
			acc += math32.Max(0, hm.sample(float32(x)+o[0], float32(y)+o[1])[0]-center)
		}
		return gray(clamp01(1 - acc/n*u.Strength))
	}
}

func metallic(u *kernel.MetallicUniforms, img *surface) shader {
	return func(x, y int) mgl32.Vec4 {
		c := img.load(x, y).Vec3()
		sat := math32.Max(math32.Max(c[0], c[1]), c[2]) - math32.Min(math32.Min(c[0], c[1]), c[2])
		m := luma(c) * (1 - sat)
		return gray(smoothThreshold(u.Threshold-u.Smoothness, u.Threshold+u.Smoothness, m))
	}
}

func roughness(u *kernel.RoughnessUniforms, dm, nm *surface) shader {
	return func(x, y int) mgl32.Vec4 {
		c := dm.load(x, y).Vec3()
		n := nm.load(x, y).Vec3()
		var colorVar, normalVar float32
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				colorVar += c.Sub(dm.load(x+dx, y+dy).Vec3()).Len()
				normalVar += n.Sub(nm.load(x+dx, y+dy).Vec3()).Len()
			}
		}
		return gray(clamp01(u.BaseRoughness + colorVar/9 + normalVar/9*u.NormalInfluence))
	}
}

func orm(aoMap, roughMap, metalMap *surface) shader {
	return func(x, y int) mgl32.Vec4 {
		return mgl32.Vec4{aoMap.load(x, y)[0], roughMap.load(x, y)[0], metalMap.load(x, y)[0], 1}
	}
}
