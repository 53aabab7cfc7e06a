package physics

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelcore/codec"
)

func TestDecomposeVolumeMergesMaximalBox(t *testing.T) {
	v := codec.Volume{
		Min:    codec.Coord{0, 0, 0},
		Max:    codec.Coord{1, 1, 1},
		Voxels: []uint32{1, 1, 1, 1, 1, 1, 1, 1}, // fully solid 2x2x2
	}
	boxes := DecomposeVolume(v, nil)
	require.Len(t, boxes, 1)
	require.InDelta(t, 2*VoxelSize, boxes[0].HalfExtents.X()*2, 1e-6)
}

func TestDecomposeVolumeEmpty(t *testing.T) {
	v := codec.Volume{Min: codec.Coord{0, 0, 0}, Max: codec.Coord{0, 0, 0}, Voxels: []uint32{0}}
	require.Nil(t, DecomposeVolume(v, nil))
}

func TestDecomposeVolumeCustomSolidPredicate(t *testing.T) {
	v := codec.Volume{
		Min:    codec.Coord{0, 0, 0},
		Max:    codec.Coord{1, 0, 0},
		Voxels: []uint32{5, 5},
	}
	boxes := DecomposeVolume(v, func(voxel uint32) bool { return voxel == 5 })
	require.Len(t, boxes, 1)

	none := DecomposeVolume(v, func(voxel uint32) bool { return voxel == 9 })
	require.Nil(t, none)
}
