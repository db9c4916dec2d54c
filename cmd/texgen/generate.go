package main

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/texgen"
	"github.com/gogpu/texgen/backend"
	"github.com/gogpu/texgen/kernel"
)

// archiveName is the file written by --zip.
const archiveName = "pbr_texture_maps.zip"

type generateFlags struct {
	out    string
	maps   []string
	zip    bool
	maxDim int
}

func newGenerateCmd(c *cli) *cobra.Command {
	var f generateFlags
	cmd := &cobra.Command{
		Use:   "generate <image>",
		Short: "Synthesize maps from a source image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.generate(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}
	cmd.Flags().StringVarP(&f.out, "out", "o", ".", "output directory")
	cmd.Flags().StringSliceVarP(&f.maps, "maps", "m", nil, "maps to generate (default: all)")
	cmd.Flags().BoolVar(&f.zip, "zip", false, "write one archive instead of separate files")
	cmd.Flags().IntVar(&f.maxDim, "max-size", texgen.MaxSourceDimension, "downscale larger sources to this size")
	return cmd
}

func (c *cli) openDevice() (kernel.Device, error) {
	if c.backend == "" {
		return backend.OpenDefault()
	}
	return backend.Open(c.backend)
}

func (c *cli) generate(ctx context.Context, w io.Writer, path string, f generateFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	targets, err := parseMaps(f.maps)
	if err != nil {
		return err
	}

	tuner := texgen.NewTuner()
	if err := applyParams(c.v, tuner); err != nil {
		return err
	}

	dev, err := c.openDevice()
	if err != nil {
		return err
	}
	defer dev.Close()

	pipe := texgen.NewPipeline(dev)
	defer pipe.Close()
	ws := texgen.NewWorkspace(pipe, texgen.WithParamSource(tuner))
	if err := ws.LoadSource(path, texgen.WithMaxSourceDimension(f.maxDim)); err != nil {
		return err
	}

	var maps []*texgen.GeneratedMap
	if len(targets) == 0 {
		maps, err = ws.GenerateAll(ctx)
	} else {
		var errs []error
		for _, t := range targets {
			if _, gerr := ws.Generate(ctx, t); gerr != nil {
				errs = append(errs, gerr)
			}
		}
		err = errors.Join(errs...)
		for _, t := range targets {
			if m, ok := ws.Map(t); ok {
				maps = append(maps, m)
			}
		}
	}
	if len(maps) == 0 {
		return err
	}

	if err := os.MkdirAll(f.out, 0o750); err != nil {
		return err
	}
	if f.zip {
		dst := filepath.Join(f.out, archiveName)
		if werr := writeArchive(dst, maps); werr != nil {
			return werr
		}
		fmt.Fprintf(w, "%s (%d maps)\n", dst, len(maps))
		return err
	}
	for _, m := range maps {
		dst := filepath.Join(f.out, mapFileName(m.Type))
		if werr := m.Pixels.SavePNG(dst); werr != nil {
			return werr
		}
		fmt.Fprintf(w, "%s %dx%d %s\n", dst, m.Pixels.Width(), m.Pixels.Height(), m.Duration)
	}
	return err
}

func mapFileName(t texgen.MapType) string {
	return "pbr_" + t.String() + ".png"
}

func parseMaps(names []string) ([]texgen.MapType, error) {
	var types []texgen.MapType
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		t, err := texgen.ParseMapType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

// writeArchive stores each map as pbr_<map>.png in one zip file.
func writeArchive(path string, maps []*texgen.GeneratedMap) (err error) {
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(file)
	for _, m := range maps {
		entry, err := zw.Create(mapFileName(m.Type))
		if err != nil {
			return err
		}
		if err := m.Pixels.EncodePNG(entry); err != nil {
			return fmt.Errorf("encode %s: %w", m.Type, err)
		}
	}
	return zw.Close()
}
