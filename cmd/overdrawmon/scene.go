package main

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/overdraw/gpucore"
	"github.com/gogpu/overdraw/surface"
)

//go:embed default.toml
var defaultScene []byte

// errScene is wrapped by every scene validation error.
var errScene = errors.New("overdrawmon: invalid scene")

// Scene is the TOML scene file.
type Scene struct {
	Display DisplayConfig  `toml:"display"`
	Monitor MonitorConfig  `toml:"monitor"`
	Cameras []CameraConfig `toml:"camera"`
}

// DisplayConfig is the screen the global ratios are measured against.
type DisplayConfig struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// MonitorConfig overrides monitor defaults. Zero values keep the default.
type MonitorConfig struct {
	HistoryLimit   int     `toml:"history_limit"`
	FragmentWeight float32 `toml:"fragment_weight"`
}

// CameraConfig describes one camera.
type CameraConfig struct {
	Name       string      `toml:"name"`
	Width      int         `toml:"width"`
	Height     int         `toml:"height"`
	Role       string      `toml:"role"`
	Clear      string      `toml:"clear"`
	ClearValue float64     `toml:"clear_value"`
	Disabled   bool        `toml:"disabled"`
	Stack      []string    `toml:"stack"`
	Quads      [][]float32 `toml:"quads"`
	Triangles  [][]float32 `toml:"triangles"`
}

// parseScene decodes a TOML scene. Unknown keys are rejected.
func parseScene(data []byte) (*Scene, error) {
	var s Scene
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("%w: line %d column %d: %s", errScene, row, col, derr.Error())
		}
		return nil, fmt.Errorf("%w: %w", errScene, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// loadScene reads a scene file, or the built-in scene when path is empty.
func loadScene(path string) (*Scene, error) {
	if path == "" {
		return parseScene(defaultScene)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("overdrawmon: read scene: %w", err)
	}
	s, err := parseScene(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func parseRole(s string) (surface.Role, error) {
	switch strings.ToLower(s) {
	case "", "base":
		return surface.RoleBase, nil
	case "overlay":
		return surface.RoleOverlay, nil
	}
	return 0, fmt.Errorf("%w: unknown role %q", errScene, s)
}

func parseClearMode(s string) (surface.ClearMode, error) {
	switch strings.ToLower(s) {
	case "", "skybox":
		return surface.ClearSkybox, nil
	case "solid", "solid_color", "color":
		return surface.ClearSolidColor, nil
	case "depth":
		return surface.ClearDepth, nil
	case "nothing", "none":
		return surface.ClearNothing, nil
	}
	return 0, fmt.Errorf("%w: unknown clear mode %q", errScene, s)
}

func (s *Scene) validate() error {
	if s.Display.Width < 0 || s.Display.Height < 0 {
		return fmt.Errorf("%w: display %dx%d", errScene, s.Display.Width, s.Display.Height)
	}
	if s.Monitor.HistoryLimit < 0 {
		return fmt.Errorf("%w: history_limit %d", errScene, s.Monitor.HistoryLimit)
	}
	if s.Monitor.FragmentWeight < 0 {
		return fmt.Errorf("%w: fragment_weight %v", errScene, s.Monitor.FragmentWeight)
	}

	names := make(map[string]int, len(s.Cameras))
	for i, c := range s.Cameras {
		if c.Name == "" {
			return fmt.Errorf("%w: camera %d has no name", errScene, i)
		}
		if _, dup := names[c.Name]; dup {
			return fmt.Errorf("%w: duplicate camera %q", errScene, c.Name)
		}
		names[c.Name] = i
		if c.Width < 0 || c.Height < 0 {
			return fmt.Errorf("%w: camera %q size %dx%d", errScene, c.Name, c.Width, c.Height)
		}
		if _, err := parseRole(c.Role); err != nil {
			return fmt.Errorf("camera %q: %w", c.Name, err)
		}
		if _, err := parseClearMode(c.Clear); err != nil {
			return fmt.Errorf("camera %q: %w", c.Name, err)
		}
		for j, q := range c.Quads {
			if len(q) != 4 {
				return fmt.Errorf("%w: camera %q quad %d needs [x, y, w, h]", errScene, c.Name, j)
			}
		}
		for j, t := range c.Triangles {
			if len(t) != 6 {
				return fmt.Errorf("%w: camera %q triangle %d needs 6 coordinates", errScene, c.Name, j)
			}
		}
	}

	for _, c := range s.Cameras {
		for _, name := range c.Stack {
			i, ok := names[name]
			if !ok {
				return fmt.Errorf("%w: camera %q stacks unknown camera %q", errScene, c.Name, name)
			}
			if role, _ := parseRole(s.Cameras[i].Role); role != surface.RoleOverlay {
				return fmt.Errorf("%w: camera %q stacks %q, which is not an overlay", errScene, c.Name, name)
			}
		}
	}
	return nil
}

// displaySize returns the configured display, or the size of the first
// base camera when the scene leaves it unset.
func (s *Scene) displaySize() (width, height int) {
	if s.Display.Width > 0 && s.Display.Height > 0 {
		return s.Display.Width, s.Display.Height
	}
	for _, c := range s.Cameras {
		if role, _ := parseRole(c.Role); role == surface.RoleBase {
			return c.Width, c.Height
		}
	}
	return 0, 0
}

// build creates one camera per entry, in file order, with stacks resolved.
func (s *Scene) build(dev gpucore.Device) []*surface.Camera {
	cams := make([]*surface.Camera, len(s.Cameras))
	byName := make(map[string]*surface.Camera, len(s.Cameras))
	for i, c := range s.Cameras {
		cam := surface.NewCamera(c.Name, dev, c.Width, c.Height)
		role, _ := parseRole(c.Role)
		mode, _ := parseClearMode(c.Clear)
		cam.SetRole(role)
		cam.SetClearMode(mode)
		cam.SetClearColor(gputypes.Color{R: c.ClearValue})
		cam.SetEnabled(!c.Disabled)
		for _, q := range c.Quads {
			cam.AddQuad(q[0], q[1], q[2], q[3])
		}
		for _, t := range c.Triangles {
			cam.AddTriangle(
				gpucore.Vertex{X: t[0], Y: t[1]},
				gpucore.Vertex{X: t[2], Y: t[3]},
				gpucore.Vertex{X: t[4], Y: t[5]},
			)
		}
		cams[i] = cam
		byName[c.Name] = cam
	}
	for i, c := range s.Cameras {
		if len(c.Stack) == 0 {
			continue
		}
		stack := make([]surface.Surface, 0, len(c.Stack))
		for _, name := range c.Stack {
			stack = append(stack, byName[name])
		}
		cams[i].SetStack(stack)
	}
	return cams
}
