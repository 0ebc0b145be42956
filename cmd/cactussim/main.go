package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"runtime"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"

	"github.com/miaan15/cactus/container"
	"github.com/miaan15/cactus/ecs"
	"github.com/miaan15/cactus/physics"
	"github.com/miaan15/cactus/vecmath"
)

// Build information (set by build script).
var (
	Version   = "dev"
	BuildTime = "unknown"
	GoVersion = "unknown"
)

// Physics is the one component this demo's ECS world declares: it ties an
// ecs.Entity to the physics.World entry that actually owns its motion
// state, so the demo has a real (if minimal) reason to wire ecs.SmallWorld
// alongside physics.World rather than running the physics package standalone.
type Physics struct {
	Key container.Key
}

type simStats struct {
	steps       int64
	frames      int64
	collisions  int64
	lastStepDur int64 // nanoseconds, last step's wall time
}

func main() {
	cfg := parseFlags()

	log, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.ProfileMode != "" {
		var mode func(*profile.Profile)
		switch cfg.ProfileMode {
		case "cpu":
			mode = profile.CPUProfile
		case "mem":
			mode = profile.MemProfile
		}
		stop := profile.Start(mode, profile.ProfilePath(cfg.ProfileDir), profile.NoShutdownHook)
		defer stop.Stop()
	}

	runtime.GOMAXPROCS(runtime.NumCPU())
	rand.Seed(time.Now().UnixNano())

	log.Info("starting cactussim", zap.String("version", Version),
		zap.Int("cpu_cores", runtime.NumCPU()), zap.Int("workers", cfg.Workers))

	world := physics.NewWorld(cfg.Margin)
	ecsWorld := ecs.NewSmallWorld(ecs.TypeOf[Physics]())
	gravity := vecmath.New(float32(cfg.GravityX), float32(cfg.GravityY))

	wp := newWorkerPool(cfg.Workers)
	defer wp.close()

	if cfg.SceneFile != "" {
		sceneCfg, err := loadSceneFile(cfg.SceneFile)
		if err != nil {
			log.Fatal("failed to load scene", zap.Error(err))
		}
		loadScene(world, sceneCfg)
		gravity = vecmath.New(float32(sceneCfg.Gravity[0]), float32(sceneCfg.Gravity[1]))
		if sceneCfg.Duration > 0 {
			cfg.Duration = sceneCfg.Duration
		}
		log.Info("loaded scene", zap.String("file", cfg.SceneFile), zap.Int("bodies", world.Len()))
	} else {
		generateScene(world, wp, log, cfg.SceneType, cfg.BodiesCount)
	}

	bindEntities(world, ecsWorld)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.Duration*float64(time.Second)))
		defer cancel()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Info("shutting down gracefully")
			cancel()
		case <-ctx.Done():
		}
	}()

	stats := &simStats{}
	if !cfg.Quiet {
		go reportStats(ctx, log, world, stats, cfg.StatsInterval, cfg.Verbose)
	}

	log.Info("simulation started", zap.Int("fps", cfg.MaxFPS))
	if cfg.Duration > 0 {
		log.Info("simulation duration set", zap.Float64("seconds", cfg.Duration))
	} else {
		log.Info("press Ctrl+C to stop")
	}

	runSimulation(ctx, world, stats, float32(cfg.TimeStep), gravity, cfg.MaxFPS)

	log.Info("simulation completed",
		zap.Int("bodies", world.Len()),
		zap.Int64("steps", atomic.LoadInt64(&stats.steps)),
		zap.Int64("frames", atomic.LoadInt64(&stats.frames)),
		zap.Int64("collisions", atomic.LoadInt64(&stats.collisions)),
		zap.Int("ecs_entities", ecsWorld.Len()),
	)
}

// bindEntities gives every physics entry a paired ECS entity carrying a
// Physics component. Nothing in the demo queries these entities yet beyond
// the final entity count, but it exercises ecs.SmallWorld's Emplace/Create
// path against a population the size of the generated scene, the way a
// fuller game loop would use the ECS side to drive rendering/AI per body.
func bindEntities(world *physics.World, ecsWorld *ecs.SmallWorld) {
	world.Each(func(key container.Key, _ *physics.Entry) {
		e := ecsWorld.CreateEntity()
		ecs.Emplace(ecsWorld, e, Physics{Key: key})
	})
}

// runSimulation steps the simulation at a fixed timestep until ctx is done.
// physics.World.Update never integrates position from velocity, so the
// driver supplies gravity and Euler integration itself, once per tick,
// before asking the tree to refit and enumerate overlapping pairs.
func runSimulation(ctx context.Context, world *physics.World, stats *simStats, dt float32, gravity vecmath.Vec2, maxFPS int) {
	frameInterval := time.Second / time.Duration(maxFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			start := time.Now()
			step(world, stats, dt, gravity)
			atomic.StoreInt64(&stats.lastStepDur, int64(time.Since(start)))
			atomic.AddInt64(&stats.frames, 1)
		}
	}
}

func step(world *physics.World, stats *simStats, dt float32, gravity vecmath.Vec2) {
	world.Each(func(_ container.Key, entry *physics.Entry) {
		if entry.InvMass == 0 {
			return
		}
		entry.Vel = entry.Vel.Add(gravity.Scale(dt))
		entry.Center = entry.Center.Add(entry.Vel.Scale(dt))
	})

	world.Update(dt)

	for _, pair := range world.Pairs() {
		world.ResolveCollider(pair.A, pair.B)
	}
	atomic.AddInt64(&stats.collisions, int64(len(world.Pairs())))
	atomic.AddInt64(&stats.steps, 1)
}

func reportStats(ctx context.Context, log *zap.Logger, world *physics.World, stats *simStats, interval float64, verbose bool) {
	ticker := time.NewTicker(time.Duration(interval * float64(time.Second)))
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			lastStep := time.Duration(atomic.LoadInt64(&stats.lastStepDur))
			fps := 0.0
			if lastStep > 0 {
				fps = float64(time.Second) / float64(lastStep)
			}

			if verbose {
				log.Info("tick",
					zap.Float64("fps", fps),
					zap.Int("bodies", world.Len()),
					zap.Int64("collisions", atomic.LoadInt64(&stats.collisions)),
					zap.Int64("steps", atomic.LoadInt64(&stats.steps)),
					zap.Duration("last_step", lastStep),
				)
			} else {
				log.Info("tick",
					zap.Float64("fps", fps),
					zap.Int("bodies", world.Len()),
					zap.Int64("collisions", atomic.LoadInt64(&stats.collisions)),
				)
			}
		case <-ctx.Done():
			return
		}
	}
}
