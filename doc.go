// Package texgen synthesizes physically based rendering (PBR) texture maps
// from a single colour image.
//
// # Overview
//
// From one source image texgen derives eight maps: diffuse, height,
// normal, metallic, roughness, ambient occlusion (ao), edge and a combined
// ORM map (R=ao, G=roughness, B=metallic). Each map is produced by one or
// more full-screen kernel passes on a [kernel.Device], which may be a GPU
// (backend/wgpu, backend/opengl) or the CPU reference device
// (backend/software).
//
// # Quick Start
//
//	dev, err := backend.OpenDefault()
//	if err != nil {
//		return err
//	}
//	defer dev.Close()
//
//	pipe := texgen.NewPipeline(dev)
//	defer pipe.Close()
//
//	ws := texgen.NewWorkspace(pipe)
//	if err := ws.LoadSource("brick.jpg"); err != nil {
//		return err
//	}
//	normal, err := ws.Generate(ctx, texgen.Normal) // generates height first
//	if err != nil {
//		return err
//	}
//	normal.Pixels.SavePNG("pbr_normal.png")
//
// # Architecture
//
//   - [Pipeline]: one synthesis call per map type; fails with
//     [*MissingDependencyError] when an upstream map is absent.
//   - [Workspace]: holds the source and generated maps, resolves
//     dependencies with [Plan] and tracks staleness.
//   - [Tuner]: per-map parameters with debounced regeneration.
//
// Dependencies between map types:
//
//	source → diffuse, height, metallic
//	height → normal → edge
//	normal, height → ao
//	diffuse, normal → roughness
//	ao, roughness, metallic → combined
//
// # Coordinate System
//
// Pixel buffers are row-major RGBA8 with the origin at the top-left.
// Input textures are sampled clamp-to-edge.
package texgen
