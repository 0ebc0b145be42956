package main

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/miaan15/cactus/physics"
	"github.com/miaan15/cactus/vecmath"
)

// SceneConfig is a TOML scene file: a gravity vector, an optional fixed
// duration, and the bodies to populate the world with. Shapes are boxes
// only, given by width and height: the physics package handles axis-aligned
// boxes and nothing else (see DESIGN.md).
type SceneConfig struct {
	Gravity  [2]float64   `toml:"gravity"`
	Duration float64      `toml:"duration"`
	Bodies   []BodyConfig `toml:"bodies"`
}

type BodyConfig struct {
	Mass        float64    `toml:"mass"`
	Position    [2]float64 `toml:"position"`
	Velocity    [2]float64 `toml:"velocity"`
	Width       float64    `toml:"width"`
	Height      float64    `toml:"height"`
	Restitution float64    `toml:"restitution"`
	Friction    float64    `toml:"friction"`
}

func loadSceneFile(path string) (*SceneConfig, error) {
	var cfg SceneConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse scene %s: %w", path, err)
	}
	return &cfg, nil
}

// placeBody binds a BodyConfig into the world, mirroring the original
// engine's LoadScene: zero mass is a static body (infinite mass, invmass 0).
func placeBody(world *physics.World, body BodyConfig) {
	invmass := float32(0)
	if body.Mass > 0 {
		invmass = float32(1 / body.Mass)
	}
	center := vecmath.New(float32(body.Position[0]), float32(body.Position[1]))
	halfexts := vecmath.New(float32(body.Width/2), float32(body.Height/2))

	restitution := body.Restitution
	friction := body.Friction
	if restitution == 0 {
		restitution = 0.8
	}
	if friction == 0 {
		friction = 0.3
	}

	key := world.Create(center, halfexts, invmass, float32(restitution), float32(friction), float32(friction))
	if entry, ok := world.Get(key); ok {
		entry.Vel = vecmath.New(float32(body.Velocity[0]), float32(body.Velocity[1]))
	}
}

func loadScene(world *physics.World, cfg *SceneConfig) {
	for _, body := range cfg.Bodies {
		placeBody(world, body)
	}
}

// placement is a computed body before it touches the World: scene generation
// fans this computation out across workers, then the placements are applied
// to the (non-thread-safe) World sequentially on the caller's goroutine.
type placement struct {
	mass              float64
	cx, cy            float64
	vx, vy            float64
	w, h              float64
	restitution, fric float64
}

func (p placement) place(world *physics.World) {
	placeBody(world, BodyConfig{
		Mass: p.mass, Position: [2]float64{p.cx, p.cy}, Velocity: [2]float64{p.vx, p.vy},
		Width: p.w, Height: p.h, Restitution: p.restitution, Friction: p.fric,
	})
}

// task is a unit of parallel scene-generation work: compute N placements
// without touching the World, the only part of scene setup that is safe to
// run off the main goroutine. Spec's Non-goals forbid multi-threaded
// physics stepping, not multi-threaded placement math.
type task struct {
	execute func() []placement
}

type taskExecution struct {
	task   task
	result chan<- []placement
}

// workerPool fans task execution across a fixed goroutine count of
// long-lived workers, used here to compute scene placements off the main
// goroutine.
type workerPool struct {
	workers   int
	taskQueue chan taskExecution
	wg        sync.WaitGroup
	quit      chan struct{}
	once      sync.Once

	activeJobs int64
	totalJobs  int64
}

func newWorkerPool(workers int) *workerPool {
	wp := &workerPool{
		workers:   workers,
		taskQueue: make(chan taskExecution, workers*8),
		quit:      make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
	return wp
}

func (wp *workerPool) worker() {
	defer wp.wg.Done()
	for {
		select {
		case execution := <-wp.taskQueue:
			atomic.AddInt64(&wp.activeJobs, 1)
			result := execution.task.execute()
			atomic.AddInt64(&wp.activeJobs, -1)
			atomic.AddInt64(&wp.totalJobs, 1)

			select {
			case execution.result <- result:
			case <-wp.quit:
				return
			}
		case <-wp.quit:
			return
		}
	}
}

func (wp *workerPool) submit(t task, result chan<- []placement) {
	select {
	case wp.taskQueue <- taskExecution{task: t, result: result}:
	case <-wp.quit:
		result <- nil
	}
}

func (wp *workerPool) close() {
	wp.once.Do(func() {
		close(wp.quit)
		wp.wg.Wait()
	})
}

// scatterPlacements splits count bodies across wp's workers, each computing
// its chunk with gen, and returns every chunk concatenated in submission
// order (chunk order, not completion order). Chunks run concurrently and
// gen may draw from the shared math/rand source, so which values a chunk
// receives depends on goroutine scheduling.
func scatterPlacements(wp *workerPool, count int, gen func(i int) placement) []placement {
	if count == 0 {
		return nil
	}
	chunks := wp.workers
	if chunks > count {
		chunks = count
	}
	base := count / chunks
	extra := count % chunks

	results := make([]chan []placement, chunks)
	start := 0
	for c := 0; c < chunks; c++ {
		size := base
		if c < extra {
			size++
		}
		lo, hi := start, start+size
		start = hi

		result := make(chan []placement, 1)
		results[c] = result
		wp.submit(task{execute: func() []placement {
			out := make([]placement, 0, hi-lo)
			for i := lo; i < hi; i++ {
				out = append(out, gen(i))
			}
			return out
		}}, result)
	}

	all := make([]placement, 0, count)
	for _, result := range results {
		all = append(all, <-result...)
	}
	return all
}

func generateScene(world *physics.World, wp *workerPool, log *zap.Logger, sceneType string, bodyCount int) {
	switch sceneType {
	case "pyramid":
		generatePyramidScene(world, wp, bodyCount)
	case "rain":
		generateRainScene(world, wp, bodyCount)
	case "container":
		generateContainerScene(world, wp, bodyCount)
	case "pendulum":
		generatePendulumScene(world, wp, bodyCount)
	case "mixed":
		generateMixedScene(world, wp, bodyCount)
	default:
		generateDefaultScene(world, wp, bodyCount)
	}
	log.Info("scene generated", zap.String("type", sceneType), zap.Int("bodies", world.Len()))
}

func generateDefaultScene(world *physics.World, wp *workerPool, bodyCount int) {
	placeBody(world, BodyConfig{Position: [2]float64{0, -50}, Width: 200, Height: 10})

	placements := scatterPlacements(wp, bodyCount, func(int) placement {
		size := rand.Float64()*3 + 1
		return placement{
			mass: size * size,
			cx:   (rand.Float64() - 0.5) * 150,
			cy:   rand.Float64()*50 + 50,
			w:    size, h: size,
		}
	})
	for _, p := range placements {
		p.place(world)
	}
}

func generatePyramidScene(world *physics.World, wp *workerPool, bodyCount int) {
	placeBody(world, BodyConfig{Position: [2]float64{0, -10}, Width: 200, Height: 5})

	levels := int(math.Sqrt(float64(bodyCount))) + 1
	boxSize := 2.0
	y := 0.0
	for level := levels; level > 0; level-- {
		for i := 0; i < level; i++ {
			x := float64(i-level/2) * boxSize
			placeBody(world, BodyConfig{
				Mass: 1.0, Position: [2]float64{x, y}, Width: boxSize * 0.9, Height: boxSize * 0.9,
			})
		}
		y += boxSize
	}
}

func generateRainScene(world *physics.World, wp *workerPool, bodyCount int) {
	placeBody(world, BodyConfig{Position: [2]float64{0, -50}, Width: 300, Height: 10})
	placeBody(world, BodyConfig{Position: [2]float64{-150, 0}, Width: 10, Height: 100})
	placeBody(world, BodyConfig{Position: [2]float64{150, 0}, Width: 10, Height: 100})

	placements := scatterPlacements(wp, bodyCount, func(int) placement {
		w := rand.Float64()*3 + 1
		h := rand.Float64()*3 + 1
		return placement{
			mass: w * h,
			cx:   (rand.Float64() - 0.5) * 250,
			cy:   rand.Float64()*200 + 100,
			w:    w, h: h,
		}
	})
	for _, p := range placements {
		p.place(world)
	}
}

func generateContainerScene(world *physics.World, wp *workerPool, bodyCount int) {
	wallThickness := 5.0
	containerWidth := 100.0
	containerHeight := 80.0

	placeBody(world, BodyConfig{Position: [2]float64{0, -containerHeight / 2}, Width: containerWidth, Height: wallThickness})
	placeBody(world, BodyConfig{Position: [2]float64{-containerWidth / 2, 0}, Width: wallThickness, Height: containerHeight})
	placeBody(world, BodyConfig{Position: [2]float64{containerWidth / 2, 0}, Width: wallThickness, Height: containerHeight})

	placements := scatterPlacements(wp, bodyCount, func(int) placement {
		size := rand.Float64()*2 + 1
		return placement{
			mass: size * size * 0.5,
			cx:   (rand.Float64() - 0.5) * (containerWidth - 20),
			cy:   rand.Float64()*60 + 10,
			w:    size, h: size,
		}
	})
	for _, p := range placements {
		p.place(world)
	}
}

func generatePendulumScene(world *physics.World, wp *workerPool, bodyCount int) {
	count := bodyCount / 3
	placements := scatterPlacements(wp, count, func(i int) placement {
		x := float64(i-count/2) * 10
		return placement{
			mass: 2.0,
			cx:   x, cy: 30,
			vx: (rand.Float64() - 0.5) * 100,
			w:  1.5, h: 1.5,
		}
	})
	for i, p := range placements {
		x := float64(i-count/2) * 10
		placeBody(world, BodyConfig{Position: [2]float64{x, 50}, Width: 0.5, Height: 0.5})
		p.place(world)
	}
}

func generateMixedScene(world *physics.World, wp *workerPool, bodyCount int) {
	placeBody(world, BodyConfig{Position: [2]float64{-75, -50}, Width: 50, Height: 10})
	placeBody(world, BodyConfig{Position: [2]float64{75, -50}, Width: 50, Height: 10})
	for i := 0; i < 5; i++ {
		x := (rand.Float64() - 0.5) * 150
		y := float64(i)*15 - 20
		width := rand.Float64()*30 + 20
		placeBody(world, BodyConfig{Position: [2]float64{x, y}, Width: width, Height: 3})
	}

	placements := scatterPlacements(wp, bodyCount, func(int) placement {
		width := rand.Float64()*4 + 1
		height := rand.Float64()*2 + 0.5
		return placement{
			mass:        width * height,
			cx:          (rand.Float64() - 0.5) * 200,
			cy:          rand.Float64()*100 + 50,
			w:           width, h: height,
			restitution: rand.Float64()*0.4 + 0.4,
			fric:        rand.Float64()*0.5 + 0.4,
		}
	})
	for _, p := range placements {
		p.place(world)
	}
}
