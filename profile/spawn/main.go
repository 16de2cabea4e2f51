// Profiling:
// go build ./profile/spawn
// go tool pprof -http=":8000" -nodefraction=0.001 ./spawn mem.pprof

package main

import (
	"github.com/edwinsyarief/sparsecs"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	ents := make([]sparsecs.Entity, numEntities)
	for range rounds {
		w := sparsecs.NewWorld(sparsecs.WithInitialCapacity(numEntities))
		for range iters {
			for i := range ents {
				e := w.Spawn()
				sparsecs.Insert(w, e, comp1{V: int64(i)})
				sparsecs.Insert(w, e, comp2{V: 1, W: 1})
				ents[i] = e
			}
			for _, e := range ents {
				w.Despawn(e)
			}
		}
	}
}
