//go:build !nogpu

package wgpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/texgen/kernel"
)

// fenceTimeout bounds every GPU wait.
const fenceTimeout = 5 * time.Second

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// Draw runs program over the full-screen quad into target.
func (d *Device) Draw(id kernel.ProgramID, tid kernel.TargetID, b kernel.Bindings) error {
	if d.closed {
		return kernel.ErrClosed
	}
	p, ok := d.programs[id]
	if !ok {
		return fmt.Errorf("%w: program %d", kernel.ErrUnknownHandle, id)
	}
	t, ok := d.targets[tid]
	if !ok {
		return fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, tid)
	}
	if b.Uniforms == nil || b.Uniforms.Kind() != p.kind {
		return fmt.Errorf("%w: %s program", kernel.ErrUniformMismatch, p.kind)
	}
	if len(b.Textures) != len(p.decl.Samplers) {
		return fmt.Errorf("%w: %d textures for %d samplers", kernel.ErrUniformMismatch, len(b.Textures), len(p.decl.Samplers))
	}

	uniformData := p.decl.Encode(b.Uniforms)
	uniformBuf, err := d.createAndUploadBuffer("texgen_params", uniformData,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		return err
	}
	defer d.device.DestroyBuffer(uniformBuf)

	entries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: uint64(len(uniformData))}},
	}
	for i, texID := range b.Textures {
		tex, ok := d.textures[texID]
		if !ok {
			return fmt.Errorf("%w: texture %d", kernel.ErrUnknownHandle, texID)
		}
		if tex.width != t.width || tex.height != t.height {
			return fmt.Errorf("wgpu: texture %d is %dx%d, target is %dx%d", texID, tex.width, tex.height, t.width, t.height)
		}
		entries = append(entries, gputypes.BindGroupEntry{
			Binding:  uint32(i + 1), //nolint:gosec // at most three samplers
			Resource: gputypes.BufferBinding{Buffer: tex.buf.NativeHandle(), Offset: 0, Size: tex.size},
		})
	}
	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "texgen_bind",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group: %w", err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "texgen_draw_encoder"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("texgen_draw"); err != nil {
		return fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "texgen_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       t.view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
			},
		},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bindGroup, nil)
	rp.SetVertexBuffer(0, d.quad, 0)
	rp.Draw(6, 1, 0, 0)
	rp.End()

	if err := d.submit(encoder); err != nil {
		return err
	}
	d.Logger().Debug("wgpu: draw", "kernel", p.kind, "width", t.width, "height", t.height)
	return nil
}

// ReadPixels copies the target into memory, removing row padding.
func (d *Device) ReadPixels(tid kernel.TargetID) ([]byte, error) {
	if d.closed {
		return nil, kernel.ErrClosed
	}
	t, ok := d.targets[tid]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", kernel.ErrUnknownHandle, tid)
	}
	w, h := uint32(t.width), uint32(t.height) //nolint:gosec // bounded by Limits
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "texgen_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(stagingBuf)

	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "texgen_read_encoder"})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("texgen_read"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(t.tex, stagingBuf, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := d.submit(encoder); err != nil {
		return nil, err
	}

	readback := make([]byte, stagingSize)
	if err := d.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return unpadRows(readback, int(bytesPerRow), int(alignedBytesPerRow), int(h)), nil
}

// submit ends encoding, submits and waits for completion.
func (d *Device) submit(encoder hal.CommandEncoder) error {
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("wgpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("wgpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)

	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	fenceOK, err := d.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !fenceOK {
		return fmt.Errorf("wgpu: wait for GPU: ok=%v err=%w", fenceOK, err)
	}
	return nil
}

// unpadRows drops the alignment padding at the end of each row.
func unpadRows(src []byte, rowBytes, pitch, rows int) []byte {
	if rowBytes == pitch {
		return src[:rowBytes*rows]
	}
	out := make([]byte, rowBytes*rows)
	for y := 0; y < rows; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], src[y*pitch:y*pitch+rowBytes])
	}
	return out
}
