package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is the demo binary's command-line configuration. It pares down the
// original engine's flag set to what physics.World and ecs.SmallWorld
// actually support: no iteration count (the solver is single-pass), no
// sleep-state flag (Entry carries none).
type Config struct {
	GravityX float64
	GravityY float64
	TimeStep float64
	Duration float64
	MaxFPS   int

	Workers int

	Verbose       bool
	Quiet         bool
	StatsInterval float64
	ProfileMode   string
	ProfileDir    string

	SceneFile   string
	BodiesCount int
	SceneType   string

	Margin      float32
	Restitution float64
	Friction    float64
}

func parseFlags() *Config {
	cfg := &Config{}

	flag.Float64Var(&cfg.GravityX, "gravity-x", 0.0, "gravity X component")
	flag.Float64Var(&cfg.GravityY, "gravity-y", -9.81, "gravity Y component")
	flag.Float64Var(&cfg.TimeStep, "timestep", 1.0/60.0, "physics time step in seconds")
	flag.Float64Var(&cfg.Duration, "duration", 0, "simulation duration in seconds (0 = infinite)")
	flag.IntVar(&cfg.MaxFPS, "fps", 60, "maximum frames per second")

	flag.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "worker goroutines for scene generation")

	flag.BoolVar(&cfg.Verbose, "verbose", false, "verbose output")
	flag.BoolVar(&cfg.Quiet, "quiet", false, "minimal output")
	flag.Float64Var(&cfg.StatsInterval, "stats-interval", 2.0, "statistics reporting interval in seconds")
	flag.StringVar(&cfg.ProfileMode, "profile", "", "profiling mode: cpu, mem, or empty to disable")
	flag.StringVar(&cfg.ProfileDir, "profile-dir", ".", "directory profiles are written to")

	flag.StringVar(&cfg.SceneFile, "scene", "", "TOML scene file to load")
	flag.IntVar(&cfg.BodiesCount, "bodies", 100, "number of bodies for generated scenes")
	flag.StringVar(&cfg.SceneType, "scene-type", "default", "scene type (default, pyramid, rain, container, pendulum, mixed)")

	var margin float64
	flag.Float64Var(&margin, "margin", 0.1, "dynamic tree fat-AABB margin")
	flag.Float64Var(&cfg.Restitution, "restitution", 0.8, "restitution value (not applied: bodies without their own restitution get 0.8)")
	flag.Float64Var(&cfg.Friction, "friction", 0.3, "friction value (not applied: bodies without their own friction get 0.3)")

	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "cactussim - dynamic-AABB-tree 2D physics demo\n\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -bodies 500 -scene-type pyramid\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -scene scene.toml -duration 10\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -profile cpu -verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nVersion: %s\n", Version)
	}

	flag.Parse()
	cfg.Margin = float32(margin)

	if showVersion {
		fmt.Printf("cactussim version %s\n", Version)
		fmt.Printf("Built: %s\n", BuildTime)
		fmt.Printf("Go: %s\n", GoVersion)
		os.Exit(0)
	}

	if err := validateConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	return cfg
}

func validateConfig(cfg *Config) error {
	if cfg.Workers < 1 {
		return fmt.Errorf("workers must be at least 1")
	}
	if cfg.MaxFPS < 1 || cfg.MaxFPS > 1000 {
		return fmt.Errorf("fps must be between 1 and 1000")
	}
	if cfg.Duration < 0 {
		return fmt.Errorf("duration cannot be negative")
	}
	if cfg.BodiesCount < 1 {
		return fmt.Errorf("bodies count must be at least 1")
	}

	validSceneTypes := map[string]bool{
		"default": true, "pyramid": true, "rain": true,
		"container": true, "pendulum": true, "mixed": true,
	}
	if !validSceneTypes[cfg.SceneType] {
		return fmt.Errorf("invalid scene type: %s", cfg.SceneType)
	}

	switch cfg.ProfileMode {
	case "", "cpu", "mem":
	default:
		return fmt.Errorf("invalid profile mode: %s", cfg.ProfileMode)
	}

	return nil
}

// newLogger builds a zap logger: console encoding for normal runs, a no-op
// logger for quiet ones, verbose raising the level to debug.
func newLogger(cfg *Config) (*zap.Logger, error) {
	if cfg.Quiet {
		return zap.NewNop(), nil
	}

	level := zapcore.InfoLevel
	if cfg.Verbose {
		level = zapcore.DebugLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	zapCfg.EncoderConfig.ConsoleSeparator = "  "
	zapCfg.DisableStacktrace = true
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
