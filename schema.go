package texgen

// ParamSpec declares one tunable parameter.
type ParamSpec struct {
	Name    string
	Label   string
	Min     float64
	Max     float64
	Step    float64
	Default float64

	// PreviewOnly parameters are consumed by the preview viewport and never
	// trigger synthesis.
	PreviewOnly bool

	// Unused parameters are accepted and stored but do not affect output.
	Unused bool

	// Options names the choices of a select parameter; the value is the
	// option index.
	Options []string
}

// Normal map conventions.
const (
	NormalOpenGL  = "opengl"
	NormalDirectX = "directx"
)

var schemas = [mapTypeCount][]ParamSpec{
	Diffuse: {
		{Name: "brightness", Label: "Brightness", Min: -0.5, Max: 0.5, Step: 0.01, Default: 0},
		{Name: "contrast", Label: "Contrast", Min: 0, Max: 2, Step: 0.01, Default: 1},
		{Name: "saturation", Label: "Saturation", Min: 0, Max: 2, Step: 0.01, Default: 1},
		{Name: "hue", Label: "Hue", Min: -1, Max: 1, Step: 0.01, Default: 0},
	},
	Height: {
		{Name: "displacementScale", Label: "Displacement", Min: 0, Max: 0.5, Step: 0.001, Default: 0, PreviewOnly: true},
		{Name: "intensity", Label: "Intensity", Min: 0, Max: 10, Step: 0.1, Default: 2},
		{Name: "subdivision", Label: "Subdivision", Min: 16, Max: 512, Step: 16, Default: 128, PreviewOnly: true},
		{Name: "blur0Weight", Label: "Blur 0", Min: 0, Max: 1, Step: 0.01, Default: 0.15, Unused: true},
		{Name: "blur1Weight", Label: "Blur 1", Min: 0, Max: 1, Step: 0.01, Default: 0.19, Unused: true},
		{Name: "blur2Weight", Label: "Blur 2", Min: 0, Max: 1, Step: 0.01, Default: 0.24, Unused: true},
		{Name: "blur3Weight", Label: "Blur 3", Min: 0, Max: 1, Step: 0.01, Default: 0.42, Unused: true},
	},
	Normal: {
		{Name: "strength", Label: "Strength", Min: 0.1, Max: 20, Step: 0.1, Default: 2},
		{Name: "step", Label: "Filter Step", Min: 1, Max: 5, Step: 1, Default: 1},
		{Name: "levelBlur", Label: "Blur", Min: 0, Max: 10, Step: 0.1, Default: 0},
		{Name: "type", Label: "Format", Min: 0, Max: 1, Step: 1, Default: 0, Options: []string{NormalOpenGL, NormalDirectX}},
	},
	Metallic: {
		{Name: "threshold", Label: "Threshold", Min: 0, Max: 1, Step: 0.01, Default: 0.5},
		{Name: "smoothness", Label: "Smoothness", Min: 0, Max: 1, Step: 0.01, Default: 0.1},
	},
	Roughness: {
		{Name: "baseRoughness", Label: "Base", Min: 0, Max: 1, Step: 0.01, Default: 0.3},
		{Name: "normalInfluence", Label: "Details", Min: 0, Max: 1, Step: 0.01, Default: 0.5},
	},
	AO: {
		{Name: "aoStrength", Label: "Strength", Min: 0, Max: 5, Step: 0.1, Default: 1},
		{Name: "aoSpread", Label: "Spread", Min: 0, Max: 10, Step: 0.1, Default: 3},
		{Name: "aoSamples", Label: "Samples", Min: 1, Max: 64, Step: 1, Default: 16},
	},
	Edge: {
		{Name: "edgeStrength", Label: "Strength", Min: 0, Max: 10, Step: 0.1, Default: 2},
		{Name: "threshold", Label: "Threshold", Min: 0, Max: 1, Step: 0.01, Default: 0.1},
	},
}

// Schema returns the parameter specs of t in display order.
func Schema(t MapType) []ParamSpec {
	if !t.Valid() {
		return nil
	}
	return append([]ParamSpec(nil), schemas[t]...)
}

// LookupParam returns the spec of one parameter.
func LookupParam(t MapType, name string) (ParamSpec, bool) {
	if !t.Valid() {
		return ParamSpec{}, false
	}
	for _, s := range schemas[t] {
		if s.Name == name {
			return s, true
		}
	}
	return ParamSpec{}, false
}

// OptionIndex returns the value of a select option.
func (s ParamSpec) OptionIndex(option string) (int, bool) {
	for i, o := range s.Options {
		if o == option {
			return i, true
		}
	}
	return 0, false
}
