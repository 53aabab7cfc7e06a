package physics

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxelcore/codec"
)

// CollisionBox is one maximal solid box produced by DecomposeVolume,
// positioned relative to the decomposed volume's own local origin.
type CollisionBox struct {
	HalfExtents mgl32.Vec3
	LocalOffset mgl32.Vec3
}

// VoxelSize is the world-unit edge length of one voxel cell, used to scale
// the integer occupancy grid into world-space box geometry.
const VoxelSize = 0.1

// DecomposeVolume greedily merges a decoded chunk volume's solid voxels
// (those for which solid returns true; when solid is nil, any nonzero voxel
// word) into axis-aligned boxes, each grown as far as the greedy pass
// allows; the box count is not guaranteed minimal. Generalized from the teacher's
// DecomposeVoxModel (which merged a fixed .vox asset) to operate over any
// codec.Volume, growing width along X, then height along Y, then depth
// along Z exactly the way the teacher's greedy merge does.
func DecomposeVolume(v codec.Volume, solid func(voxel uint32) bool) []CollisionBox {
	if len(v.Voxels) == 0 {
		return nil
	}
	if solid == nil {
		solid = func(voxel uint32) bool { return voxel != 0 }
	}

	dx, dy, dz := v.Dims()
	occupied := make(map[[3]int32]bool, len(v.Voxels))
	for z := int32(0); z < dz; z++ {
		for y := int32(0); y < dy; y++ {
			for x := int32(0); x < dx; x++ {
				idx := int(z)*int(dy)*int(dx) + int(y)*int(dx) + int(x)
				if solid(v.Voxels[idx]) {
					occupied[[3]int32{x, y, z}] = true
				}
			}
		}
	}

	var boxes []CollisionBox
	for z := int32(0); z < dz; z++ {
		for y := int32(0); y < dy; y++ {
			for x := int32(0); x < dx; x++ {
				pos := [3]int32{x, y, z}
				if !occupied[pos] {
					continue
				}

				width, height, depth := int32(1), int32(1), int32(1)

				for tx := x + 1; tx < dx && occupied[[3]int32{tx, y, z}]; tx++ {
					width++
				}
				for ty := y + 1; ty < dy; ty++ {
					canGrow := true
					for tx := x; tx < x+width; tx++ {
						if !occupied[[3]int32{tx, ty, z}] {
							canGrow = false
							break
						}
					}
					if !canGrow {
						break
					}
					height++
				}
				for tz := z + 1; tz < dz; tz++ {
					canGrow := true
					for ty := y; ty < y+height; ty++ {
						for tx := x; tx < x+width; tx++ {
							if !occupied[[3]int32{tx, ty, tz}] {
								canGrow = false
								break
							}
						}
						if !canGrow {
							break
						}
					}
					if !canGrow {
						break
					}
					depth++
				}

				for tz := z; tz < z+depth; tz++ {
					for ty := y; ty < y+height; ty++ {
						for tx := x; tx < x+width; tx++ {
							delete(occupied, [3]int32{tx, ty, tz})
						}
					}
				}

				boxes = append(boxes, CollisionBox{
					HalfExtents: mgl32.Vec3{float32(width), float32(height), float32(depth)}.Mul(0.5 * VoxelSize),
					LocalOffset: mgl32.Vec3{
						float32(x) + float32(width)*0.5,
						float32(y) + float32(height)*0.5,
						float32(z) + float32(depth)*0.5,
					}.Mul(VoxelSize),
				})
			}
		}
	}

	return boxes
}
