package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/require"
)

func TestSpatialHashGridInsertAndQuery(t *testing.T) {
	grid := NewSpatialHashGrid(2.0)

	box1 := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	box2 := AABB{Min: mgl32.Vec3{3, 3, 3}, Max: mgl32.Vec3{4, 4, 4}}

	grid.Insert(1, box1)
	grid.Insert(2, box2)

	res1 := grid.QueryAABB(box1)
	require.ElementsMatch(t, []NodeID{1}, res1)

	res2 := grid.QueryAABB(box2)
	require.ElementsMatch(t, []NodeID{2}, res2)

	mid := AABB{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{3, 3, 3}}
	resMid := grid.QueryAABB(mid)
	require.ElementsMatch(t, []NodeID{1, 2}, resMid)
}

func TestSpatialHashGridClear(t *testing.T) {
	grid := NewSpatialHashGrid(1.0)
	grid.Insert(1, AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{0, 0, 0}})
	grid.Clear()
	require.Empty(t, grid.QueryAABB(AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{0, 0, 0}}))
}

func TestSpatialHashGridQueryRadius(t *testing.T) {
	grid := NewSpatialHashGrid(2.0)
	grid.Insert(1, AABB{Min: mgl32.Vec3{10, 10, 10}, Max: mgl32.Vec3{11, 11, 11}})
	res := grid.QueryRadius(mgl32.Vec3{10, 10, 10}, 0.1)
	require.ElementsMatch(t, []NodeID{1}, res)
}
