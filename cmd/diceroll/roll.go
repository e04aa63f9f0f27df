package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/akmonengine/dice"
	"github.com/akmonengine/dice/actor"
	"github.com/akmonengine/dice/internal/stream"
	"github.com/go-gl/mathgl/mgl64"
)

const dropHeight = 2.0

type roller struct {
	world  *dice.World
	shapes []*actor.ShapeDescriptor
	rng    dice.Rand
	hub    *stream.Hub
	fps    float64
	budget float64
	logger *slog.Logger
}

type rollResult struct {
	names   []string
	values  []actor.FaceValue
	total   int
	settled bool
	elapsed float64
}

func (r rollResult) String() string {
	var b strings.Builder
	for i, value := range r.values {
		fmt.Fprintf(&b, "%s=%s ", r.names[i], value)
	}
	fmt.Fprintf(&b, "total=%d", r.total)
	if !r.settled {
		b.WriteString(" (unsettled)")
	}
	return b.String()
}

// roll clears the tray, throws every die and steps until they all rest or
// the simulated budget runs out. With a hub the frames are paced in real time.
func (r *roller) roll(ctx context.Context) (rollResult, error) {
	r.world.Clear()

	cfg := r.world.Config()
	params := dice.DefaultRollParams()
	for i, shape := range r.shapes {
		handle, err := r.world.AddBody(dice.Pose{
			Position:    spawnPosition(cfg, i, len(r.shapes), shape),
			Orientation: mgl64.QuatIdent(),
		}, shape)
		if err != nil {
			return rollResult{}, err
		}
		if err := r.world.ApplyRollImpulse(handle, dice.RandomRoll(r.rng, params)); err != nil {
			return rollResult{}, err
		}
	}

	frame := 1.0 / r.fps
	var ticker *time.Ticker
	if r.hub != nil {
		ticker = time.NewTicker(time.Duration(frame * float64(time.Second)))
		defer ticker.Stop()
	}

	elapsed := 0.0
	for elapsed < r.budget && !r.world.AllSettled() {
		r.world.Advance(frame)
		elapsed += frame

		if r.hub != nil {
			r.hub.Broadcast(stream.NewFrame(r.world))
			select {
			case <-ctx.Done():
				return rollResult{}, ctx.Err()
			case <-ticker.C:
			}
		}
	}

	values, settled := r.world.Values()
	total, _ := r.world.Total()
	if !settled {
		r.logger.Warn("roll did not settle", "budget", r.budget)
	}
	r.logger.Debug("roll finished", "elapsed", elapsed, "steps", r.world.Steps())

	names := make([]string, len(r.shapes))
	for i, shape := range r.shapes {
		names[i] = shape.Name
	}

	return rollResult{
		names:   names,
		values:  values,
		total:   total,
		settled: settled,
		elapsed: elapsed,
	}, nil
}

// spawnPosition spreads the dice along X, inside the walls
func spawnPosition(cfg dice.Config, i, n int, shape *actor.ShapeDescriptor) mgl64.Vec3 {
	span := cfg.Walls.MaxX - cfg.Walls.MinX - 2*shape.Radius
	spacing := min(2*shape.Radius+0.2, span/float64(max(n, 1)))
	center := (cfg.Walls.MinX + cfg.Walls.MaxX) / 2
	x := center + (float64(i)-float64(n-1)/2)*spacing
	z := (cfg.Walls.MinZ + cfg.Walls.MaxZ) / 2

	return mgl64.Vec3{x, cfg.World.GroundY + dropHeight + shape.Radius, z}
}
