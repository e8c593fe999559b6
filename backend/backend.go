package backend

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/overdraw/gpucore"
)

// Backend name constants.
const (
	// NameWGPU is the name of the WebGPU backend (gogpu/wgpu).
	NameWGPU = "wgpu"
	// NameSoftware is the name of the CPU backend.
	NameSoftware = "software"
)

// Common backend errors.
var (
	// ErrBackendNotAvailable is returned when a requested backend is not
	// registered or none of the registered backends could be opened.
	ErrBackendNotAvailable = errors.New("backend: not available")
)

// Factory opens a new device. A factory returns an error when the backend
// is compiled in but cannot run on this machine (e.g. no GPU adapter).
type Factory func() (gpucore.Device, error)

// registry holds registered backends.
// Priority order for selection: wgpu > software.
var registry = gpucontext.NewRegistry[Factory](
	gpucontext.WithPriority(NameWGPU, NameSoftware),
)

// Register registers a backend factory with the given name.
// This is typically called from init() functions in backend packages.
// If a backend with the same name is already registered, it is replaced.
func Register(name string, factory Factory) {
	registry.Register(name, func() Factory { return factory })
}

// Unregister removes a backend from the registry.
// This is useful for testing.
func Unregister(name string) {
	registry.Unregister(name)
}

// Available returns the names of registered backends.
func Available() []string {
	return registry.Available()
}

// IsRegistered checks if a backend with the given name is registered.
func IsRegistered(name string) bool {
	return registry.Has(name)
}

// Open opens the named backend.
func Open(name string) (gpucore.Device, error) {
	factory := registry.Get(name)
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrBackendNotAvailable, name)
	}
	dev, err := factory()
	if err != nil {
		return nil, fmt.Errorf("backend: open %q: %w", name, err)
	}
	return dev, nil
}

// NopLogger returns a logger that discards every record. Backends log to
// it until SetLogger is called.
func NopLogger() *slog.Logger { return slog.New(slog.DiscardHandler) }

// OpenDefault opens the best backend that works on this machine, trying
// backends in priority order. Failures are logged at warn level to l
// (which may be nil) and the next backend is tried.
func OpenDefault(l *slog.Logger) (gpucore.Device, error) {
	names := []string{NameWGPU, NameSoftware}
	others := registry.Available()
	slices.Sort(others)
	for _, name := range others {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}

	errs := []error{ErrBackendNotAvailable}
	for _, name := range names {
		if !registry.Has(name) {
			continue
		}
		dev, err := Open(name)
		if err == nil {
			return dev, nil
		}
		if l != nil {
			l.Warn("backend: falling back", "backend", name, "err", err)
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}
