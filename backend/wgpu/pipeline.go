package wgpu

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/chewxy/math32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/overdraw/gpucore"
)

const (
	// drawUniformSize is the size of Draw in overdraw.wgsl.
	drawUniformSize = 16
	// reduceUniformSize is the size of Params in tile_reduce.wgsl.
	reduceUniformSize = 32
	// vertexStride is the size of one gpucore.Vertex on the GPU.
	vertexStride = 8
	// minVertexBufferSize is the initial vertex buffer capacity in bytes.
	minVertexBufferSize = 64 * 3 * vertexStride
)

// pipelines holds the shader modules, layouts and pipelines of a Device.
//
// Initialization order:
//  1. shader modules
//  2. bind group layouts
//  3. pipeline layouts
//  4. render and compute pipelines
//  5. uniform buffers and the static draw bind group
type pipelines struct {
	device *wgpu.Device
	log    *slog.Logger

	overdrawShader   *wgpu.ShaderModule
	tileReduceShader *wgpu.ShaderModule

	drawBindLayout   *wgpu.BindGroupLayout
	reduceBindLayout *wgpu.BindGroupLayout

	drawPipeLayout   *wgpu.PipelineLayout
	reducePipeLayout *wgpu.PipelineLayout

	additivePipeline *wgpu.RenderPipeline
	replacePipeline  *wgpu.RenderPipeline
	reducePipeline   *wgpu.ComputePipeline

	drawUniform   *wgpu.Buffer
	reduceUniform *wgpu.Buffer
	drawBindGroup *wgpu.BindGroup

	vertexBuffer *wgpu.Buffer
	vertexCap    uint64
}

func newPipelines(device *wgpu.Device, log *slog.Logger) (*pipelines, error) {
	p := &pipelines{device: device, log: log}
	steps := []func() error{
		p.createShaderModules,
		p.createBindGroupLayouts,
		p.createPipelineLayouts,
		p.createPipelines,
		p.createUniforms,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			p.release()
			return nil, err
		}
	}
	return p, nil
}

func (p *pipelines) createShaderModules() error {
	for _, src := range []struct {
		label string
		wgsl  string
		dst   **wgpu.ShaderModule
	}{
		{"overdraw", overdrawShaderWGSL, &p.overdrawShader},
		{"tile_reduce", tileReduceShaderWGSL, &p.tileReduceShader},
	} {
		words, err := compileShaderToSPIRV(src.label, src.wgsl)
		if err != nil {
			return fmt.Errorf("overdraw_pipeline: %w", err)
		}
		p.log.Debug("wgpu: shader validated", "shader", src.label, "spirv_words", len(words))

		module, err := p.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
			Label: src.label + "_shader",
			WGSL:  src.wgsl,
		})
		if err != nil {
			return fmt.Errorf("overdraw_pipeline: create %s shader module: %w", src.label, err)
		}
		*src.dst = module
	}
	return nil
}

func (p *pipelines) createBindGroupLayouts() error {
	var err error
	p.drawBindLayout, err = p.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "overdraw_draw_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: drawUniformSize,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create draw bind group layout: %w", err)
	}

	p.reduceBindLayout, err = p.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "overdraw_reduce_layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeUniform,
					MinBindingSize: reduceUniformSize,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageCompute,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageCompute,
				Buffer: &gputypes.BufferBindingLayout{
					Type:           gputypes.BufferBindingTypeStorage,
					MinBindingSize: gpucore.AccumulatorSize * 4,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create reduce bind group layout: %w", err)
	}
	return nil
}

func (p *pipelines) createPipelineLayouts() error {
	var err error
	p.drawPipeLayout, err = p.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "overdraw_draw_pipe_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.drawBindLayout},
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create draw pipeline layout: %w", err)
	}
	p.reducePipeLayout, err = p.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "overdraw_reduce_pipe_layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{p.reduceBindLayout},
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create reduce pipeline layout: %w", err)
	}
	return nil
}

// additiveBlend sums every fragment into the target.
var additiveBlend = gputypes.BlendState{
	Color: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOne,
		Operation: gputypes.BlendOperationAdd,
	},
	Alpha: gputypes.BlendComponent{
		SrcFactor: gputypes.BlendFactorOne,
		DstFactor: gputypes.BlendFactorOne,
		Operation: gputypes.BlendOperationAdd,
	},
}

func (p *pipelines) renderPipeline(label string, blend *gputypes.BlendState) (*wgpu.RenderPipeline, error) {
	pipe, err := p.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  label,
		Layout: p.drawPipeLayout,
		Vertex: wgpu.VertexState{
			Module:     p.overdrawShader,
			EntryPoint: overdrawVertexEntry,
			Buffers: []wgpu.VertexBufferLayout{
				{
					ArrayStride: vertexStride,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					},
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.DefaultMultisampleState(),
		Fragment: &wgpu.FragmentState{
			Module:     p.overdrawShader,
			EntryPoint: overdrawFragmentEntry,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    gpucore.TargetFormat,
					Blend:     blend,
					WriteMask: gputypes.ColorWriteMaskRed,
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("overdraw_pipeline: create %s: %w", label, err)
	}
	return pipe, nil
}

func (p *pipelines) createPipelines() error {
	var err error
	if p.additivePipeline, err = p.renderPipeline("overdraw_additive", &additiveBlend); err != nil {
		return err
	}
	if p.replacePipeline, err = p.renderPipeline("overdraw_replace", nil); err != nil {
		return err
	}

	p.reducePipeline, err = p.device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:      "overdraw_tile_reduce",
		Layout:     p.reducePipeLayout,
		Module:     p.tileReduceShader,
		EntryPoint: tileReduceEntry,
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create tile reduce pipeline: %w", err)
	}
	return nil
}

func (p *pipelines) createUniforms() error {
	var err error
	p.drawUniform, err = p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overdraw_draw_uniform",
		Size:  drawUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create draw uniform: %w", err)
	}
	p.reduceUniform, err = p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overdraw_reduce_uniform",
		Size:  reduceUniformSize,
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create reduce uniform: %w", err)
	}
	p.drawBindGroup, err = p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "overdraw_draw_bind_group",
		Layout: p.drawBindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.drawUniform, Size: drawUniformSize},
		},
	})
	if err != nil {
		return fmt.Errorf("overdraw_pipeline: create draw bind group: %w", err)
	}
	return nil
}

// ensureVertexCapacity grows the vertex buffer to hold size bytes.
func (p *pipelines) ensureVertexCapacity(size uint64) error {
	if p.vertexBuffer != nil && p.vertexCap >= size {
		return nil
	}
	newCap := max(p.vertexCap*2, size, minVertexBufferSize)
	buf, err := p.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "overdraw_vertices",
		Size:  newCap,
		Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("wgpu: grow vertex buffer to %d bytes: %w", newCap, err)
	}
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
	}
	p.vertexBuffer = buf
	p.vertexCap = newCap
	return nil
}

func encodeVertices(vs []gpucore.Vertex) []byte {
	raw := make([]byte, len(vs)*vertexStride)
	for i, v := range vs {
		binary.LittleEndian.PutUint32(raw[i*vertexStride:], math32.Float32bits(v.X))
		binary.LittleEndian.PutUint32(raw[i*vertexStride+4:], math32.Float32bits(v.Y))
	}
	return raw
}

func encodeDrawUniform(t *Target, value float32) []byte {
	raw := make([]byte, drawUniformSize)
	binary.LittleEndian.PutUint32(raw[0:], math32.Float32bits(float32(t.width)))
	binary.LittleEndian.PutUint32(raw[4:], math32.Float32bits(float32(t.height)))
	binary.LittleEndian.PutUint32(raw[8:], math32.Float32bits(value))
	return raw
}

func encodeReduceParams(rp gpucore.ReduceParams) []byte {
	raw := make([]byte, reduceUniformSize)
	for i, v := range []uint32{
		rp.Width, rp.Height, rp.TilesX, rp.TilesY,
		rp.GridDimension, rp.TileSize, math32.Float32bits(rp.FragmentScale), rp.Padding,
	} {
		binary.LittleEndian.PutUint32(raw[i*4:], v)
	}
	return raw
}

// draw records one render pass into t and submits it.
func (p *pipelines) draw(queue *wgpu.Queue, t *Target, pass *gpucore.DrawPass) error {
	if !pass.Clear && len(pass.Vertices) == 0 {
		return nil
	}

	if len(pass.Vertices) > 0 {
		raw := encodeVertices(pass.Vertices)
		if err := p.ensureVertexCapacity(uint64(len(raw))); err != nil {
			return err
		}
		if err := queue.WriteBuffer(p.vertexBuffer, 0, raw); err != nil {
			return fmt.Errorf("wgpu: upload vertices: %w", err)
		}
		if err := queue.WriteBuffer(p.drawUniform, 0, encodeDrawUniform(t, pass.Value)); err != nil {
			return fmt.Errorf("wgpu: upload draw uniform: %w", err)
		}
	}

	encoder, err := p.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "overdraw_draw"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}

	attachment := wgpu.RenderPassColorAttachment{
		View:    t.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if pass.Clear {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = clearColor(pass.ClearValue)
	}
	rp, err := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label:            pass.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{attachment},
	})
	if err != nil {
		return fmt.Errorf("wgpu: begin render pass %q: %w", pass.Label, err)
	}

	if n := len(pass.Vertices); n > 0 {
		pipe := p.replacePipeline
		if pass.Blend == gpucore.BlendAdditive {
			pipe = p.additivePipeline
		}
		rp.SetPipeline(pipe)
		rp.SetBindGroup(0, p.drawBindGroup, nil)
		rp.SetVertexBuffer(0, p.vertexBuffer, 0)
		rp.Draw(uint32(n), 1, 0, 0) //nolint:gosec // bounded by the vertex buffer
	}
	if err := rp.End(); err != nil {
		return fmt.Errorf("wgpu: end render pass %q: %w", pass.Label, err)
	}
	return p.submit(queue, encoder)
}

// reduce dispatches the tile reduction kernel over a groupsX×groupsY grid.
func (p *pipelines) reduce(queue *wgpu.Queue, t *Target, b *Buffer, scale float32, groupsX, groupsY uint32) error {
	if groupsX == 0 || groupsY == 0 {
		return nil
	}
	params := gpucore.NewReduceParams(t.width, t.height, scale)
	if err := queue.WriteBuffer(p.reduceUniform, 0, encodeReduceParams(params)); err != nil {
		return fmt.Errorf("wgpu: upload reduce params: %w", err)
	}

	bindGroup, err := p.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "overdraw_reduce_bind_group",
		Layout: p.reduceBindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: p.reduceUniform, Size: reduceUniformSize},
			{Binding: 1, TextureView: t.view},
			{Binding: 2, Buffer: b.storage, Size: gpucore.AccumulatorSize * 4},
		},
	})
	if err != nil {
		return fmt.Errorf("wgpu: create reduce bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := p.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "overdraw_reduce"})
	if err != nil {
		return fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	cp, err := encoder.BeginComputePass(&wgpu.ComputePassDescriptor{Label: "overdraw_tile_reduce"})
	if err != nil {
		return fmt.Errorf("wgpu: begin compute pass: %w", err)
	}
	cp.SetPipeline(p.reducePipeline)
	cp.SetBindGroup(0, bindGroup, nil)
	cp.Dispatch(groupsX, groupsY, 1)
	if err := cp.End(); err != nil {
		return fmt.Errorf("wgpu: end compute pass: %w", err)
	}
	return p.submit(queue, encoder)
}

func (p *pipelines) submit(queue *wgpu.Queue, encoder *wgpu.CommandEncoder) error {
	cmd, err := encoder.Finish()
	if err != nil {
		return fmt.Errorf("wgpu: finish command encoder: %w", err)
	}
	if _, err := queue.Submit(cmd); err != nil {
		return fmt.Errorf("wgpu: submit: %w", err)
	}
	return nil
}

// release destroys every resource created by newPipelines.
func (p *pipelines) release() {
	if p.vertexBuffer != nil {
		p.vertexBuffer.Release()
	}
	if p.drawBindGroup != nil {
		p.drawBindGroup.Release()
	}
	for _, b := range []*wgpu.Buffer{p.drawUniform, p.reduceUniform} {
		if b != nil {
			b.Release()
		}
	}
	if p.reducePipeline != nil {
		p.reducePipeline.Release()
	}
	for _, rp := range []*wgpu.RenderPipeline{p.additivePipeline, p.replacePipeline} {
		if rp != nil {
			rp.Release()
		}
	}
	for _, pl := range []*wgpu.PipelineLayout{p.drawPipeLayout, p.reducePipeLayout} {
		if pl != nil {
			pl.Release()
		}
	}
	for _, bl := range []*wgpu.BindGroupLayout{p.drawBindLayout, p.reduceBindLayout} {
		if bl != nil {
			bl.Release()
		}
	}
	for _, m := range []*wgpu.ShaderModule{p.overdrawShader, p.tileReduceShader} {
		if m != nil {
			m.Release()
		}
	}
	*p = pipelines{device: p.device}
}
