package kernel

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}

func TestWGSLSourcesCompile(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			src, err := SourceFor(k, DialectWGSL)
			if err != nil {
				t.Fatalf("SourceFor: %v", err)
			}
			for stage, text := range map[string]string{"vertex": src.Vertex, "fragment": src.Fragment} {
				spirv, err := naga.Compile(text)
				if err != nil {
					errStr := err.Error()
					if contains(errStr, "not yet implemented") || contains(errStr, "not supported") {
						t.Skipf("Skipping: naga feature not yet implemented: %v", err)
					}
					t.Fatalf("%s stage failed to compile: %v", stage, err)
				}
				if len(spirv) < 4 {
					t.Fatalf("%s stage: SPIR-V too short", stage)
				}
				magic := uint32(spirv[0]) | uint32(spirv[1])<<8 | uint32(spirv[2])<<16 | uint32(spirv[3])<<24
				if magic != 0x07230203 {
					t.Errorf("%s stage: invalid SPIR-V magic 0x%08X", stage, magic)
				}
			}
		})
	}
}

func TestWGSLSourceBindings(t *testing.T) {
	for _, k := range Kinds() {
		src, _ := SourceFor(k, DialectWGSL)
		d, _ := Lookup(k)
		for _, u := range d.Uniforms {
			if !contains(src.Fragment, "    "+u.Name+": "+u.Type.String()) {
				t.Errorf("%s: Params struct missing %s", k, u.Name)
			}
		}
		for i := range d.Samplers {
			if !contains(src.Fragment, "fn load"+string(rune('0'+i))+"(") {
				t.Errorf("%s: missing loader for sampler %d", k, i)
			}
		}
		if !contains(src.Fragment, "fn fs_main") || !contains(src.Vertex, "fn vs_main") {
			t.Errorf("%s: missing entry points", k)
		}
	}
}

func TestGLSLSourceUniforms(t *testing.T) {
	for _, k := range Kinds() {
		src, _ := SourceFor(k, DialectGLSL)
		if !strings.HasPrefix(src.Fragment, "#version 410 core") {
			t.Errorf("%s: missing version directive", k)
		}
		d, _ := Lookup(k)
		for _, s := range d.Samplers {
			if !contains(src.Fragment, "uniform sampler2D "+GLSLName(s)+";") {
				t.Errorf("%s: missing sampler %s", k, s)
			}
		}
		for _, u := range d.Uniforms {
			if !contains(src.Fragment, " "+GLSLName(u.Name)+";") {
				t.Errorf("%s: missing uniform %s", k, u.Name)
			}
		}
	}
}

func TestSourceForNone(t *testing.T) {
	src, err := SourceFor(KindORM, DialectNone)
	if err != nil {
		t.Fatal(err)
	}
	if src.Kind != KindORM || src.Vertex != "" || src.Fragment != "" {
		t.Errorf("SourceFor(DialectNone) = %+v, want empty text", src)
	}
}

func TestCompileWGSLReportsErrors(t *testing.T) {
	if _, err := CompileWGSL("fn broken( {"); err == nil {
		t.Error("CompileWGSL accepted invalid source")
	}
}
