package main

import (
	"archive/zip"
	"bytes"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"

	"github.com/gogpu/texgen"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeSource(t *testing.T, dir string) string {
	t.Helper()
	src := texgen.Uniform(16, 8, color.NRGBA{R: 180, G: 120, B: 60, A: 255})
	for x := range 16 {
		src.SetNRGBA(x, 4, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	}
	path := filepath.Join(dir, "source.png")
	if err := src.SavePNG(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestGenerateAll(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)
	out := filepath.Join(dir, "maps")

	stdout, _, err := execute(t, "generate", src, "--backend", "software", "--out", out)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, mt := range texgen.MapTypes() {
		path := filepath.Join(out, mapFileName(mt))
		buf, err := texgen.LoadSource(path)
		if err != nil {
			t.Errorf("%s: %v", mt, err)
			continue
		}
		if buf.Width() != 16 || buf.Height() != 8 {
			t.Errorf("%s: %dx%d, want 16x8", mt, buf.Width(), buf.Height())
		}
		if !strings.Contains(stdout, path) {
			t.Errorf("output does not mention %s:\n%s", path, stdout)
		}
	}
}

func TestGenerateSelectedToArchive(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	_, _, err := execute(t, "generate", src, "--backend", "software", "--out", dir, "--maps", "normal,orm", "--zip")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	zr, err := zip.OpenReader(filepath.Join(dir, archiveName))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"pbr_normal.png", "pbr_combined.png"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("archive entries = %v, want %v", names, want)
	}
	if _, err := os.Stat(filepath.Join(dir, "pbr_height.png")); !os.IsNotExist(err) {
		t.Errorf("intermediate height map written: %v", err)
	}
}

func TestGenerateErrors(t *testing.T) {
	dir := t.TempDir()
	src := writeSource(t, dir)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown map", []string{"generate", src, "--backend", "software", "--maps", "specular"}, texgen.ErrUnknownMapType},
		{"missing source", []string{"generate", filepath.Join(dir, "nope.png"), "--backend", "software"}, os.ErrNotExist},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	t.Run("unknown backend", func(t *testing.T) {
		if _, _, err := execute(t, "generate", src, "--backend", "vulkan-software"); err == nil {
			t.Error("expected error")
		}
	})
}

func TestVerboseLogs(t *testing.T) {
	t.Cleanup(func() { texgen.SetLogger(nil) })
	dir := t.TempDir()
	src := writeSource(t, dir)

	_, stderr, err := execute(t, "--verbose", "generate", src, "--backend", "software", "--out", dir, "--maps", "height")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"map generated", "map=height"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("stderr missing %q:\n%s", want, stderr)
		}
	}
}

func TestApplyParams(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "params.yaml")
	data := "normal:\n  strength: 4\n  type: directx\nheight:\n  displacementScale: 0.2\n"
	if err := os.WriteFile(cfg, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TEXGEN_AO_AOSAMPLES", "8")

	c := &cli{v: viper.New(), configFile: cfg}
	if err := c.loadConfig(); err != nil {
		t.Fatal(err)
	}
	tuner := texgen.NewTuner()
	if err := applyParams(c.v, tuner); err != nil {
		t.Fatal(err)
	}

	normal := tuner.Params(texgen.Normal)
	if v, _ := normal.Get("strength"); v != 4 {
		t.Errorf("normal.strength = %g, want 4", v)
	}
	if got := normal.Option("type"); got != texgen.NormalDirectX {
		t.Errorf("normal.type = %q, want %q", got, texgen.NormalDirectX)
	}
	if v, _ := tuner.Params(texgen.Height).Get("displacementScale"); v != 0.2 {
		t.Errorf("height.displacementScale = %g, want 0.2", v)
	}
	if v, _ := tuner.Params(texgen.AO).Get("aoSamples"); v != 8 {
		t.Errorf("ao.aoSamples = %g, want 8 from environment", v)
	}
	if v, _ := tuner.Params(texgen.Metallic).Get("threshold"); v != 0.5 {
		t.Errorf("metallic.threshold = %g, want default 0.5", v)
	}
}

func TestApplyParamsRejects(t *testing.T) {
	tests := []struct {
		key   string
		value any
		want  error
	}{
		{"normal.strength", 100.0, texgen.ErrOutOfRange},
		{"normal.type", "metal", nil},
		{"edge.threshold", "high", nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)
			err := applyParams(v, texgen.NewTuner())
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSchema(t *testing.T) {
	stdout, _, err := execute(t, "schema", "normal", "height")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"normal.strength", "opengl|directx", "height.subdivision", "preview only", "unused"} {
		if !strings.Contains(stdout, want) {
			t.Errorf("schema output missing %q:\n%s", want, stdout)
		}
	}
	if strings.Contains(stdout, "metallic.") {
		t.Errorf("schema listed unrequested maps:\n%s", stdout)
	}
}

func TestBackends(t *testing.T) {
	stdout, _, err := execute(t, "backends")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "software") {
		t.Errorf("backends output = %q, want software listed", stdout)
	}
}
