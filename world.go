package dice

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/akmonengine/dice/actor"
	"github.com/akmonengine/dice/constraint"
	"github.com/go-gl/mathgl/mgl64"
)

// ErrUnknownBody is returned for a handle that does not name a body of the world
var ErrUnknownBody = errors.New("unknown body")

const gridCells = 256

// BodyHandle identifies a body for the lifetime of a World. Handles are never
// reused, even after RemoveBody or Clear.
type BodyHandle uint32

// Pose is the initial placement of a body
type Pose struct {
	Position    mgl64.Vec3
	Orientation mgl64.Quat
}

// World owns the dice and advances them with a fixed timestep.
// It is not safe for concurrent use.
type World struct {
	// Bodies and their handles, in insertion order. The order drives the
	// pairwise iteration and must stay stable during a roll.
	bodies  []*actor.RigidBody
	handles []BodyHandle

	nextHandle  BodyHandle
	accumulator float64
	steps       uint64

	config Config
	grid   *SpatialGrid
	events Events
	logger *slog.Logger
}

// Option configures a World at construction
type Option func(*World)

// WithLogger sets the structured logger; the default discards everything
func WithLogger(logger *slog.Logger) Option {
	return func(w *World) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorld creates an empty world
func NewWorld(cfg Config, opts ...Option) (*World, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		config: cfg,
		grid:   NewSpatialGrid(cfg.GridCellSize, gridCells),
		events: NewEvents(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Config returns the configuration used by the next step
func (w *World) Config() Config {
	return w.config
}

// SetConfig replaces the configuration. It takes effect from the next step.
func (w *World) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	if cfg.GridCellSize != w.config.GridCellSize {
		w.grid = NewSpatialGrid(cfg.GridCellSize, gridCells)
	}
	w.config = cfg
	w.logger.Info("physics config updated",
		"time_step", cfg.TimeStep,
		"narrow_phase", cfg.NarrowPhase)

	return nil
}

// Subscribe registers a listener, called at the end of Advance
func (w *World) Subscribe(eventType EventType, listener EventListener) {
	w.events.Subscribe(eventType, listener)
}

// AddBody creates a die of the given shape at pose
func (w *World) AddBody(pose Pose, shape *actor.ShapeDescriptor) (BodyHandle, error) {
	transform := actor.NewTransformAt(pose.Position, pose.Orientation)
	body, err := actor.NewRigidBody(transform, shape, w.config.Mass)
	if err != nil {
		return 0, fmt.Errorf("add body: %w", err)
	}

	w.nextHandle++
	handle := w.nextHandle
	w.bodies = append(w.bodies, body)
	w.handles = append(w.handles, handle)

	w.logger.Debug("body added", "handle", handle, "shape", shape.Name)
	return handle, nil
}

// RemoveBody removes a die, keeping the order of the others
func (w *World) RemoveBody(handle BodyHandle) error {
	i, err := w.index(handle)
	if err != nil {
		return err
	}

	w.bodies = append(w.bodies[:i], w.bodies[i+1:]...)
	w.handles = append(w.handles[:i], w.handles[i+1:]...)
	w.events.forget(handle)

	return nil
}

// Clear removes every die and the pending simulated time
func (w *World) Clear() {
	w.bodies = w.bodies[:0]
	w.handles = w.handles[:0]
	w.accumulator = 0
	w.events.reset()
}

// Len returns the number of dice
func (w *World) Len() int {
	return len(w.bodies)
}

// Handles returns the handles in iteration order
func (w *World) Handles() []BodyHandle {
	return append([]BodyHandle(nil), w.handles...)
}

// Body returns the rigid body behind handle
func (w *World) Body(handle BodyHandle) (*actor.RigidBody, error) {
	i, err := w.index(handle)
	if err != nil {
		return nil, err
	}
	return w.bodies[i], nil
}

// Bodies returns the rigid bodies in iteration order
func (w *World) Bodies() []*actor.RigidBody {
	return append([]*actor.RigidBody(nil), w.bodies...)
}

// Steps returns the number of fixed steps run since creation
func (w *World) Steps() uint64 {
	return w.steps
}

func (w *World) index(handle BodyHandle) (int, error) {
	for i, h := range w.handles {
		if h == handle {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %d", ErrUnknownBody, handle)
}

// ResetBody puts a die back at position, at rest, with identity orientation
func (w *World) ResetBody(handle BodyHandle, position mgl64.Vec3) error {
	body, err := w.Body(handle)
	if err != nil {
		return err
	}

	body.Reset(position)
	return nil
}

// ApplyImpulse changes the velocities of a die instantly: impulse acts at the
// centre of mass, angularImpulse around it. The die is woken.
func (w *World) ApplyImpulse(handle BodyHandle, impulse, angularImpulse mgl64.Vec3) error {
	body, err := w.Body(handle)
	if err != nil {
		return err
	}

	body.Wake()
	body.Velocity = body.Velocity.Add(impulse.Mul(body.InverseMass))
	body.AngularVelocity = body.AngularVelocity.Add(angularImpulse.Mul(body.InverseInertia))

	return nil
}

// ApplyRollImpulse launches a die with caller-chosen velocities and
// orientation. The world draws no random numbers itself.
func (w *World) ApplyRollImpulse(handle BodyHandle, roll RollImpulse) error {
	body, err := w.Body(handle)
	if err != nil {
		return err
	}

	body.Wake()
	body.SetPose(body.Position(), roll.Orientation)
	body.Velocity = roll.Velocity
	body.AngularVelocity = roll.AngularVelocity
	body.ClearForces()

	return nil
}

// AllSettled reports whether every die is at rest. An empty world is settled.
func (w *World) AllSettled() bool {
	for _, body := range w.bodies {
		if !body.IsSettled {
			return false
		}
	}
	return true
}

// Values returns the face values in iteration order; ok is false while any
// die is still moving
func (w *World) Values() (values []actor.FaceValue, ok bool) {
	values = make([]actor.FaceValue, len(w.bodies))
	ok = true
	for i, body := range w.bodies {
		var settled bool
		values[i], settled = body.Value()
		ok = ok && settled
	}
	return values, ok
}

// Total sums the points of every die
func (w *World) Total() (total int, ok bool) {
	values, ok := w.Values()
	for _, v := range values {
		total += v.Points
	}
	return total, ok
}

// Advance consumes wall-clock time in fixed steps and returns how many steps
// ran. The delta is clamped to MaxFrameDelta so a stalled frame cannot
// trigger an unbounded catch-up.
func (w *World) Advance(delta float64) int {
	if !(delta > 0) || math.IsInf(delta, 0) {
		return 0
	}
	if delta > w.config.MaxFrameDelta {
		w.logger.Debug("frame delta clamped", "delta", delta, "max", w.config.MaxFrameDelta)
		delta = w.config.MaxFrameDelta
	}

	w.accumulator += delta
	steps := 0
	for w.accumulator >= w.config.TimeStep {
		w.Step()
		w.accumulator -= w.config.TimeStep
		steps++
	}

	w.events.processBodyEvents(w.handles, w.bodies)
	if steps > 0 {
		w.events.processCollisionEvents()
	}
	w.events.flush()

	return steps
}

// Step runs exactly one fixed step. For every die in order: integration,
// ground then walls; then every touching pair (i < j); then settling.
func (w *World) Step() {
	cfg := w.config
	h := cfg.TimeStep

	integration := cfg.integrationParams()
	ground := cfg.groundParams()
	walls := cfg.wallParams()

	for i, body := range w.bodies {
		if body.IsSettled {
			continue
		}

		wasDegenerate := body.Degenerate
		body.Integrate(h, integration)
		if body.Degenerate && !wasDegenerate {
			w.logger.Warn("degenerate orientation", "handle", w.handles[i], "step", w.steps)
		}

		constraint.ResolveGround(body, ground)
		constraint.ResolveWalls(body, walls)
	}

	contactParams := cfg.contactParams()
	pairs := BroadPhase(w.grid, w.bodies)
	for _, contact := range FindContacts(pairs, cfg.NarrowPhase, cfg.SphereScale) {
		handleA, handleB := w.handles[contact.IndexA], w.handles[contact.IndexB]
		w.events.recordContact(handleA, handleB)

		result := contact.Constraint.Solve(contactParams)
		for range result.Woken {
			w.logger.Debug("body woken by contact", "a", handleA, "b", handleB, "impulse", result.Impulse)
		}
	}

	settle := cfg.settleParams()
	for i, body := range w.bodies {
		if body.TrySettle(h, settle) {
			value, _ := body.Value()
			w.logger.Debug("body settled", "handle", w.handles[i], "value", value.Label, "step", w.steps)
		}
	}

	w.steps++
}

// BodyState is a read-only view of a die, for rendering and streaming
type BodyState struct {
	Handle      BodyHandle      `json:"handle"`
	Shape       string          `json:"shape"`
	Position    mgl64.Vec3      `json:"position"`
	Orientation [4]float64      `json:"orientation"` // w, x, y, z
	Settled     bool            `json:"settled"`
	Value       actor.FaceValue `json:"value"`
}

// Snapshot returns the state of every die in iteration order
func (w *World) Snapshot() []BodyState {
	states := make([]BodyState, len(w.bodies))
	for i, body := range w.bodies {
		q := body.Orientation()
		value, settled := body.Value()
		states[i] = BodyState{
			Handle:      w.handles[i],
			Shape:       body.Shape.Name,
			Position:    body.Position(),
			Orientation: [4]float64{q.W, q.V.X(), q.V.Y(), q.V.Z()},
			Settled:     settled,
			Value:       value,
		}
	}
	return states
}
