package texgen

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestMapTypeOrderIsTopological(t *testing.T) {
	for _, mt := range MapTypes() {
		for _, d := range mt.Dependencies() {
			if d >= mt {
				t.Errorf("%s depends on later type %s", mt, d)
			}
		}
	}
}

func TestParseMapType(t *testing.T) {
	for _, mt := range MapTypes() {
		got, err := ParseMapType(mt.String())
		if err != nil || got != mt {
			t.Errorf("ParseMapType(%q) = %v, %v", mt, got, err)
		}
	}
	if got, err := ParseMapType("ORM"); err != nil || got != Combined {
		t.Errorf("ParseMapType(ORM) = %v, %v", got, err)
	}
	if _, err := ParseMapType("specular"); !errors.Is(err, ErrUnknownMapType) {
		t.Errorf("err = %v", err)
	}
}

func TestDependents(t *testing.T) {
	if got := Height.Dependents(); !slices.Equal(got, []MapType{Normal, AO}) {
		t.Errorf("Height.Dependents() = %v", got)
	}
	if got := Combined.Dependents(); len(got) != 0 {
		t.Errorf("Combined.Dependents() = %v", got)
	}
}

func TestSchemaDefaultsInRange(t *testing.T) {
	for _, mt := range MapTypes() {
		for _, s := range Schema(mt) {
			if s.Default < s.Min || s.Default > s.Max {
				t.Errorf("%s.%s default %g outside [%g, %g]", mt, s.Name, s.Default, s.Min, s.Max)
			}
			if s.Label == "" {
				t.Errorf("%s.%s has no label", mt, s.Name)
			}
		}
	}
	if len(Schema(Combined)) != 0 {
		t.Error("combined has parameters")
	}
}

func TestParameterSet(t *testing.T) {
	p := DefaultParams(AO)
	q, err := p.Set("aoSpread", 7)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := p.Get("aoSpread"); v != 3 {
		t.Errorf("Set modified the receiver: %v", v)
	}
	if v, _ := q.Get("aoSpread"); v != 7 {
		t.Errorf("aoSpread = %v, want 7", v)
	}
	if p.Equal(q) || !q.Equal(q.Clone()) {
		t.Error("Equal is wrong")
	}
	if got := p.Names(); !slices.Equal(got, []string{"aoSamples", "aoSpread", "aoStrength"}) {
		t.Errorf("Names() = %v", got)
	}

	for _, v := range []float64{-0.1, 10.1, math.NaN(), math.Inf(1)} {
		_, err := p.Set("aoSpread", v)
		var pe *ParamError
		if !errors.As(err, &pe) || !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Set(aoSpread, %v) = %v", v, err)
		}
	}
	if _, err := p.Set("radius", 1); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("unknown name: %v", err)
	}
}

func TestParameterSetOptions(t *testing.T) {
	p := DefaultParams(Normal)
	if p.Option("type") != NormalOpenGL {
		t.Errorf("default type = %q", p.Option("type"))
	}
	q, err := p.SetOption("type", NormalDirectX)
	if err != nil {
		t.Fatal(err)
	}
	if q.Option("type") != NormalDirectX {
		t.Errorf("type = %q", q.Option("type"))
	}
	if _, err := p.Set("type", 0.5); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("fractional option index: %v", err)
	}
	if _, err := p.SetOption("strength", "x"); !errors.Is(err, ErrUnknownParameter) {
		t.Errorf("option on numeric parameter: %v", err)
	}
}

func TestGaussianWeights(t *testing.T) {
	for _, sigma := range []float64{0, 0.5, 1, 2.5, 10} {
		w := gaussianWeights(sigma)
		sum := w.center
		for _, s := range w.side {
			sum += 2 * s
		}
		if math.Abs(float64(sum)-1) > 1e-5 {
			t.Errorf("sigma %g: weights sum to %v", sigma, sum)
		}
		for i := 1; i < len(w.side); i++ {
			if w.side[i] > w.side[i-1] {
				t.Errorf("sigma %g: weights not decreasing: %v", sigma, w.side)
			}
		}
	}
	if w := gaussianWeights(0); w.center != 1 {
		t.Errorf("sigma 0 is not the identity: %+v", w)
	}
}

func TestWeightCache(t *testing.T) {
	c := newWeightCache(4)
	a := c.get(1.234)
	b := c.get(1.2341)
	if a != b {
		t.Error("nearby sigmas were not quantized to one entry")
	}
	for i := range 10 {
		c.get(float64(i))
	}
	if n := c.len(); n > 4 {
		t.Errorf("cache holds %d entries, max 4", n)
	}
}
