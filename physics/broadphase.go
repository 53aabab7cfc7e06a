// Package physics implements the collision-box decomposition and broadphase
// index consumed by the physics-update queue, adapted from the teacher's
// ECS-bound spatial hash grid and greedy voxel-model box merge into
// standalone collaborators operating on decoded chunk volumes.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeID identifies the scene node a collision box or broadphase entry
// belongs to. Physics stays decoupled from the scene package's concrete
// node id type so it can be tested and reused without that dependency;
// callers convert at the boundary.
type NodeID uint32

// AABB is an axis-aligned bounding box in world units.
type AABB struct {
	Min, Max mgl32.Vec3
}

// SpatialHashGrid is a uniform hash grid used as the broadphase collision
// index, grounded on the teacher's mod_spatialgrid.go SpatialHashGrid, with
// the ECS resource/system wiring stripped: callers Insert/Clear/Query it
// directly from the physics-update queue instead of through a scheduler.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]NodeID
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]NodeID),
	}
}

func (grid *SpatialHashGrid) Clear() {
	for k := range grid.cells {
		delete(grid.cells, k)
	}
}

func (grid *SpatialHashGrid) Insert(id NodeID, box AABB) {
	minX, maxX := grid.cellIndex(box.Min.X()), grid.cellIndex(box.Max.X())
	minY, maxY := grid.cellIndex(box.Min.Y()), grid.cellIndex(box.Max.Y())
	minZ, maxZ := grid.cellIndex(box.Min.Z()), grid.cellIndex(box.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := grid.hashKey(x, y, z)
				grid.cells[key] = append(grid.cells[key], id)
			}
		}
	}
}

func (grid *SpatialHashGrid) QueryAABB(box AABB) []NodeID {
	minX, maxX := grid.cellIndex(box.Min.X()), grid.cellIndex(box.Max.X())
	minY, maxY := grid.cellIndex(box.Min.Y()), grid.cellIndex(box.Max.Y())
	minZ, maxZ := grid.cellIndex(box.Min.Z()), grid.cellIndex(box.Max.Z())

	unique := make(map[NodeID]struct{})
	var results []NodeID

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := grid.hashKey(x, y, z)
				for _, id := range grid.cells[key] {
					if _, ok := unique[id]; !ok {
						unique[id] = struct{}{}
						results = append(results, id)
					}
				}
			}
		}
	}
	return results
}

func (grid *SpatialHashGrid) QueryRadius(center mgl32.Vec3, radius float32) []NodeID {
	box := AABB{
		Min: center.Sub(mgl32.Vec3{radius, radius, radius}),
		Max: center.Add(mgl32.Vec3{radius, radius, radius}),
	}
	// The grid only stores ids per cell, not positions, so this is
	// broadphase-only: callers refine with an exact distance check against
	// whatever world-side data the id maps to.
	return grid.QueryAABB(box)
}

func (grid *SpatialHashGrid) cellIndex(pos float32) int {
	return int(math.Floor(float64(pos / grid.cellSize)))
}

func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
