package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/df07/go-audio-propagation/internal/config"
	"github.com/df07/go-audio-propagation/internal/logger"
	"github.com/df07/go-audio-propagation/pkg/acoustics"
)

func main() {
	sceneName := flag.String("scene", "shoebox", "Built-in scene ("+strings.Join(config.PresetNames(), ", ")+") or a scene YAML file")
	configPath := flag.String("config", "", "YAML file whose simulation and logging sections override the scene's")
	outDir := flag.String("out", "", "Output directory (default: the scene's output dir)")
	watch := flag.Bool("watch", false, "Re-simulate whenever the scene file or its inputs change")
	debug := flag.Bool("debug", false, "Enable debug logging and write the scene mesh as OBJ")
	help := flag.Bool("help", false, "Show help information")
	flag.Parse()

	if *help {
		fmt.Println("Acoustic Propagation Simulator")
		fmt.Println("Usage: propagate [options]")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		fmt.Println()
		fmt.Println("Each listener-source pair is written to <out>/<scene>/l<L>_s<S>.wav with a metrics table alongside.")
		return
	}

	sc, err := loadScene(*sceneName, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading scene: %v\n", err)
		os.Exit(1)
	}
	applyFlags(sc, *outDir, *debug)

	log, err := logger.New(logger.Options{
		Level:   sc.Logging.Level,
		Console: os.Stderr,
		File:    logFile(sc.Logging.File),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	dir := filepath.Join(sc.OutputDir(), sceneLabel(*sceneName))
	if err := run(log, sc, dir); err != nil {
		log.Error("simulation failed", zap.Error(err), zap.String("code", acoustics.CodeOf(err).String()))
		if !*watch {
			os.Exit(1)
		}
	}

	if *watch {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		if err := watchScene(ctx, log, *sceneName, *configPath, *outDir, *debug); err != nil {
			log.Error("watch failed", zap.Error(err))
			os.Exit(1)
		}
	}
}

// loadScene reads a YAML scene or a built-in preset, then applies the
// simulation and logging sections of an optional override file
func loadScene(name, overridePath string) (*config.Scene, error) {
	var sc *config.Scene
	var err error
	if isSceneFile(name) {
		sc, err = config.Load(name)
	} else {
		sc, err = config.Preset(name)
	}
	if err != nil {
		return nil, err
	}

	if overridePath != "" {
		override, err := config.Load(overridePath)
		if err != nil {
			return nil, err
		}
		sc.Simulation = override.Simulation
		sc.Logging = override.Logging
	}
	return sc, nil
}

// applyFlags applies command line overrides, the highest priority
func applyFlags(sc *config.Scene, outDir string, debug bool) {
	if outDir != "" {
		sc.Output.Dir = outDir
	}
	if debug {
		sc.Logging.Level = "debug"
		sc.Output.OBJ = true
	}
}

func isSceneFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// sceneLabel names the output subdirectory of a scene
func sceneLabel(name string) string {
	if isSceneFile(name) {
		return strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	return name
}

func logFile(path string) logger.FileConfig {
	if path == "" {
		return logger.FileConfig{}
	}
	return logger.DefaultFileConfig(path)
}

// run simulates the scene once and writes the selected outputs to dir
func run(log *zap.Logger, sc *config.Scene, dir string) error {
	c, err := sc.NewContext(log)
	if err != nil {
		return err
	}
	defer c.Close()

	start := time.Now()
	if err := c.Simulate(context.Background()); err != nil {
		return err
	}
	elapsed := time.Since(start)

	written, err := writeOutputs(c, sc.Output, dir)
	if err != nil {
		return err
	}
	efficiency, _ := c.IndirectRayEfficiency()
	log.Info("simulation written",
		zap.String("dir", dir),
		zap.Int("files", written),
		zap.Float64("efficiency", efficiency),
		zap.Duration("elapsed", elapsed),
	)
	return nil
}

// writeOutputs writes a WAV and metrics table per pair and the scene mesh
// when requested, returning the number of files written
func writeOutputs(c *acoustics.Context, out config.OutputConfig, dir string) (int, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("creating output directory: %w", err)
	}

	written := 0
	for l := 0; l < c.ListenerCount(); l++ {
		for s := 0; s < c.SourceCount(); s++ {
			base := filepath.Join(dir, fmt.Sprintf("l%d_s%d", l, s))
			if out.WAV {
				if err := c.WriteIRWave(l, s, base+".wav"); err != nil {
					return written, err
				}
				written++
			}
			if out.Metrics {
				if err := c.WriteIRMetrics(l, s, base+".metrics.txt"); err != nil {
					return written, err
				}
				written++
			}
		}
	}
	if out.OBJ {
		if err := c.WriteSceneMeshOBJ(filepath.Join(dir, "scene.obj")); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// watchScene re-runs the simulation whenever the scene file, the override
// file or any file they reference changes. Bursts of events within the
// debounce window trigger a single run.
func watchScene(ctx context.Context, log *zap.Logger, name, overridePath, outDir string, debug bool) error {
	if !isSceneFile(name) && overridePath == "" {
		return errors.New("-watch needs a scene file or -config")
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	watched := make(map[string]bool)
	rewatch := func(sc *config.Scene) {
		files := sc.Files()
		if isSceneFile(name) {
			files = append(files, name)
		}
		if overridePath != "" {
			files = append(files, overridePath)
		}
		// Editors replace files on save, so watch directories
		for _, f := range files {
			dir := filepath.Dir(f)
			if watched[dir] {
				continue
			}
			if err := w.Add(dir); err != nil {
				log.Warn("cannot watch", zap.String("dir", dir), zap.Error(err))
				continue
			}
			watched[dir] = true
		}
	}

	sc, err := loadScene(name, overridePath)
	if err != nil {
		return err
	}
	rewatch(sc)
	log.Info("watching for changes", zap.Int("dirs", len(watched)))

	const debounce = 200 * time.Millisecond
	var timer <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-w.Errors:
			log.Warn("watch error", zap.Error(err))
		case ev := <-w.Events:
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("file changed", zap.String("path", ev.Name))
			timer = time.After(debounce)
		case <-timer:
			timer = nil
			sc, err := loadScene(name, overridePath)
			if err != nil {
				log.Error("reloading scene", zap.Error(err))
				continue
			}
			applyFlags(sc, outDir, debug)
			rewatch(sc)
			if err := run(log, sc, filepath.Join(sc.OutputDir(), sceneLabel(name))); err != nil {
				log.Error("simulation failed", zap.Error(err), zap.String("code", acoustics.CodeOf(err).String()))
			}
		}
	}
}
