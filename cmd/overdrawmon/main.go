// Command overdrawmon measures GPU overdraw of a TOML-described scene.
//
// Usage:
//
//	overdrawmon [-scene scene.toml] [-backend wgpu|software] [-ticks N]
//	            [-chart trend.png] [-chart-width 320] [-watch] [-v]
//
// Without -scene the built-in demo scene is measured. With -watch the scene
// file is reloaded and measured again whenever it changes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/gogpu/overdraw"
	"github.com/gogpu/overdraw/backend"
	_ "github.com/gogpu/overdraw/backend/software" // register "software"
	_ "github.com/gogpu/overdraw/backend/wgpu"     // register "wgpu"
	"github.com/gogpu/overdraw/gpucore"
	"github.com/gogpu/overdraw/report"
	"github.com/gogpu/overdraw/surface"
)

type options struct {
	scene      string
	backend    string
	ticks      int
	chart      string
	chartWidth int
	watch      bool
	verbose    bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("overdrawmon", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.scene, "scene", "", "scene TOML file (default: built-in demo scene)")
	fs.StringVar(&o.backend, "backend", "", "backend name (default: best available)")
	fs.IntVar(&o.ticks, "ticks", 1, "measurement cycles per run")
	fs.StringVar(&o.chart, "chart", "", "write the trend chart PNG to this file")
	fs.IntVar(&o.chartWidth, "chart-width", 320, "trend chart width in pixels")
	fs.BoolVar(&o.watch, "watch", false, "re-measure when the scene file changes")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if o.ticks < 1 {
		return o, fmt.Errorf("overdrawmon: -ticks must be at least 1, got %d", o.ticks)
	}
	if o.watch && o.scene == "" {
		return o, errors.New("overdrawmon: -watch needs -scene")
	}
	return o, nil
}

func main() {
	o, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, o, os.Stdout, os.Stderr); err != nil {
		log.Fatal(err)
	}
}

func newLogger(verbose bool, w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func openDevice(name string, logger *slog.Logger) (gpucore.Device, error) {
	if name == "" {
		return backend.OpenDefault(logger)
	}
	return backend.Open(name)
}

func run(ctx context.Context, o options, stdout, stderr io.Writer) error {
	logger := newLogger(o.verbose, stderr)
	overdraw.SetLogger(logger)

	scene, err := loadScene(o.scene)
	if err != nil {
		return err
	}

	dev, err := openDevice(o.backend, logger)
	if err != nil {
		return err
	}
	defer dev.Close()
	logger.Info("overdrawmon: backend", "name", dev.Name())

	shader := gpucore.NewOverdrawShader()
	if w := scene.Monitor.FragmentWeight; w > 0 {
		shader.FragmentWeight = w
	}
	mon, err := overdraw.NewMonitor(dev, overdraw.WithShader(shader))
	if err != nil {
		return err
	}
	if err := mon.Start(); err != nil {
		return err
	}
	defer mon.Stop()

	s := &session{dev: dev, mon: mon, opts: o, out: stdout, log: logger}
	if err := s.load(scene); err != nil {
		return err
	}
	if err := s.measure(); err != nil {
		return err
	}
	if !o.watch {
		return nil
	}
	return watch(ctx, o.scene, func() error {
		next, err := loadScene(o.scene)
		if err != nil {
			return err
		}
		if next.Monitor.FragmentWeight != scene.Monitor.FragmentWeight {
			logger.Warn("overdrawmon: fragment_weight changes need a restart")
		}
		if err := s.load(next); err != nil {
			return err
		}
		return s.measure()
	}, logger)
}

// session owns the cameras of the current scene.
type session struct {
	dev  gpucore.Device
	mon  *overdraw.Monitor
	cams []*surface.Camera
	opts options
	out  io.Writer
	log  *slog.Logger
}

// load replaces the cameras with those of scene and reconciles the monitor.
func (s *session) load(scene *Scene) error {
	for _, c := range s.cams {
		c.Destroy()
	}
	s.cams = scene.build(s.dev)

	w, h := scene.displaySize()
	s.mon.SetDisplaySize(w, h)
	limit := scene.Monitor.HistoryLimit
	if limit == 0 {
		limit = report.LimitForWidth(s.opts.chartWidth)
	}
	s.mon.SetHistoryLimit(limit)

	active := make([]surface.Surface, len(s.cams))
	for i, c := range s.cams {
		active[i] = c
	}
	res, err := s.mon.Reconcile(active)
	if err != nil {
		return err
	}
	s.log.Debug("overdrawmon: scene loaded", "cameras", len(s.cams),
		"created", res.Created, "destroyed", res.Destroyed)
	return nil
}

// measure runs the configured number of cycles, prints the report and
// writes the chart.
func (s *session) measure() error {
	var errs []error
	for range s.opts.ticks {
		if err := s.mon.SampleAll(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		s.log.Warn("overdrawmon: sampling errors", "err", err)
	}

	if _, err := io.WriteString(s.out, report.Text(s.mon.Snapshot())); err != nil {
		return err
	}
	if s.opts.chart == "" {
		return nil
	}
	f, err := os.Create(s.opts.chart)
	if err != nil {
		return fmt.Errorf("overdrawmon: create chart: %w", err)
	}
	if err := report.WriteChartPNG(f, s.mon.History(), s.opts.chartWidth); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// watch calls reload whenever path is written or recreated, until ctx is
// done. The parent directory is watched so editor save-by-rename works.
func watch(ctx context.Context, path string, reload func() error, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("overdrawmon: watcher: %w", err)
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("overdrawmon: watch %s: %w", target, err)
	}
	logger.Info("overdrawmon: watching", "scene", target)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if err := reload(); err != nil {
				logger.Warn("overdrawmon: reload failed", "err", err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("overdrawmon: watch error", "err", err)
		}
	}
}
