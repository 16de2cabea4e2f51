// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"flag"
	"log"

	"github.com/edwinsyarief/sparsecs"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

type position struct {
	X, Y, Z float64
}

type velocity struct {
	X, Y, Z float64
}

func main() {
	configPath := flag.String("config", "", "optional world config (YAML)")
	mode := flag.String("mode", "cpu", "profile mode: cpu or mem")
	flag.Parse()

	cfg := sparsecs.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = sparsecs.LoadConfig(*configPath); err != nil {
			log.Fatalf("%+v", err)
		}
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		log.Fatalf("%+v", err)
	}
	defer logger.Sync()

	var p interface{ Stop() }
	switch *mode {
	case "mem":
		p = profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	default:
		p = profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	}

	rounds := 50
	iters := 1000
	entities := 100000
	run(sparsecs.NewWorld(sparsecs.WithConfig(cfg), sparsecs.WithLogger(logger)), rounds, iters, entities)
	p.Stop()
	logger.Info("profile done", zap.String("mode", *mode), zap.Int("rounds", rounds), zap.Int("entities", entities))
}

func run(w *sparsecs.World, rounds, iters, numEntities int) {
	for i := range numEntities {
		e := w.Spawn()
		sparsecs.Insert(w, e, position{})
		if i%2 == 0 {
			sparsecs.Insert(w, e, velocity{X: 1, Y: 1, Z: 1})
		}
	}
	for range rounds {
		for range iters {
			sparsecs.Join(w, func(_ sparsecs.Entity, p *position, v velocity) {
				p.X += v.X
				p.Y += v.Y
				p.Z += v.Z
			})
		}
	}
}
