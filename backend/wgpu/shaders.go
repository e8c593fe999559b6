package wgpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

// Shader sources.
var (
	//go:embed shaders/overdraw.wgsl
	overdrawShaderWGSL string

	//go:embed shaders/tile_reduce.wgsl
	tileReduceShaderWGSL string
)

// Entry points.
const (
	overdrawVertexEntry   = "vs_main"
	overdrawFragmentEntry = "fs_main"
	tileReduceEntry       = "cs_tile_reduce"
)

// compileShaderToSPIRV validates WGSL source with naga and returns the
// SPIR-V as little-endian 32-bit words.
func compileShaderToSPIRV(label, wgslSource string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgslSource)
	if err != nil {
		return nil, fmt.Errorf("wgpu: compile %s: %w", label, err)
	}

	// SPIR-V is little-endian 32-bit words
	spirvCode := make([]uint32, len(spirvBytes)/4)
	for i := range spirvCode {
		spirvCode[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return spirvCode, nil
}
