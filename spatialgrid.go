package dice

import (
	"math"
	"sort"

	"github.com/akmonengine/dice/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// Pair is a candidate collision pair, IndexA < IndexB
type Pair struct {
	IndexA, IndexB int
	BodyA, BodyB   *actor.RigidBody
}

// SpatialGrid is a uniform hashed grid over body bounding boxes
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid creates a grid; numCells is rounded up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds a body to every cell its bounding box touches
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	aabb := body.BoundingBox()
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				cellIdx := sg.hashCell(CellKey{x, y, z})
				sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
			}
		}
	}
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

// FindPairs returns the pairs whose bounding boxes overlap, ordered by
// (IndexA, IndexB). Pairs of two settled bodies are skipped.
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies))
	seen := make([]bool, len(bodies))
	candidates := make([]int, 0, 8)

	for bodyIdx, bodyA := range bodies {
		clear(seen)
		candidates = candidates[:0]

		aabb := bodyA.BoundingBox()
		minCell := sg.worldToCell(aabb.Min)
		maxCell := sg.worldToCell(aabb.Max)

		for x := minCell.X; x <= maxCell.X; x++ {
			for y := minCell.Y; y <= maxCell.Y; y++ {
				for z := minCell.Z; z <= maxCell.Z; z++ {
					cellIdx := sg.hashCell(CellKey{x, y, z})

					for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
						// (A,B) only, never (B,A)
						if otherIdx <= bodyIdx || seen[otherIdx] {
							continue
						}
						seen[otherIdx] = true
						candidates = append(candidates, otherIdx)
					}
				}
			}
		}

		// Hash collisions can visit cells in any order; keep the pairs sorted
		sort.Ints(candidates)
		for _, otherIdx := range candidates {
			bodyB := bodies[otherIdx]
			if bodyA.IsSettled && bodyB.IsSettled {
				continue
			}
			if aabb.Overlaps(bodyB.BoundingBox()) {
				pairs = append(pairs, Pair{IndexA: bodyIdx, IndexB: otherIdx, BodyA: bodyA, BodyB: bodyB})
			}
		}
	}

	return pairs
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
