package texgen

import (
	"github.com/gogpu/texgen/kernel"
	"github.com/gogpu/texgen/resource"
)

func (p *Pipeline) synthesize(s *resource.Scope, t MapType, w, h int, in Inputs, ps ParameterSet) (*PixelBuffer, error) {
	res := kernel.Resolution(w, h)
	switch t {
	case Diffuse:
		return p.pass(s, w, h, &kernel.DiffuseUniforms{
			Resolution: res,
			Brightness: ps.f32("brightness"),
			Contrast:   ps.f32("contrast"),
			Saturation: ps.f32("saturation"),
			Hue:        ps.f32("hue"),
		}, in.Source)

	case Height:
		return p.pass(s, w, h, &kernel.HeightUniforms{
			Resolution: res,
			Intensity:  ps.f32("intensity"),
			BlurWeights: [4]float32{
				ps.f32("blur0Weight"), ps.f32("blur1Weight"),
				ps.f32("blur2Weight"), ps.f32("blur3Weight"),
			},
		}, in.Source)

	case Normal:
		return p.normal(s, w, h, in.Maps[Height], ps)

	case Edge:
		return p.pass(s, w, h, &kernel.EdgeUniforms{
			Resolution:   res,
			EdgeStrength: ps.f32("edgeStrength"),
			Threshold:    ps.f32("threshold"),
		}, in.Maps[Normal])

	case AO:
		return p.pass(s, w, h, &kernel.AOUniforms{
			Resolution: res,
			Strength:   ps.f32("aoStrength"),
			Spread:     ps.f32("aoSpread"),
			Samples:    ps.f32("aoSamples"),
		}, in.Maps[Normal], in.Maps[Height])

	case Metallic:
		return p.pass(s, w, h, &kernel.MetallicUniforms{
			Resolution: res,
			Threshold:  ps.f32("threshold"),
			Smoothness: ps.f32("smoothness"),
		}, in.Source)

	case Roughness:
		return p.pass(s, w, h, &kernel.RoughnessUniforms{
			Resolution:      res,
			BaseRoughness:   ps.f32("baseRoughness"),
			NormalInfluence: ps.f32("normalInfluence"),
		}, in.Maps[Diffuse], in.Maps[Normal])

	default: // Combined
		return p.pass(s, w, h, &kernel.ORMUniforms{Resolution: res},
			in.Maps[AO], in.Maps[Roughness], in.Maps[Metallic])
	}
}

// normal optionally pre-blurs the height map (horizontal then vertical)
// before extracting normals.
func (p *Pipeline) normal(s *resource.Scope, w, h int, height *PixelBuffer, ps ParameterSet) (*PixelBuffer, error) {
	res := kernel.Resolution(w, h)
	src := height
	if sigma, _ := ps.Get("levelBlur"); sigma > 0 {
		bw := defaultWeightCache.get(sigma)
		for _, dir := range [][2]float32{{1, 0}, {0, 1}} {
			blurred, err := p.pass(s, w, h, &kernel.BlurUniforms{
				Resolution: res,
				Direction:  dir,
				Weights:    bw.side,
				Center:     bw.center,
			}, src)
			if err != nil {
				return nil, err
			}
			src = blurred
		}
	}
	var flip float32
	if ps.Option("type") == NormalDirectX {
		flip = 1
	}
	return p.pass(s, w, h, &kernel.NormalUniforms{
		Resolution: res,
		Strength:   ps.f32("strength"),
		Step:       ps.f32("step"),
		FlipY:      flip,
	}, src)
}
