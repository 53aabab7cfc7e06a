package voxelcore

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContainerCoordNegativeFloorSemantics(t *testing.T) {
	require.EqualValues(t, -1, ContainerCoord(-1, 32))
	require.EqualValues(t, -1, ContainerCoord(-32, 32))
	require.EqualValues(t, -2, ContainerCoord(-33, 32))
	require.EqualValues(t, 0, ContainerCoord(0, 32))
	require.EqualValues(t, 0, ContainerCoord(31, 32))
	require.EqualValues(t, 1, ContainerCoord(32, 32))
}

func TestVoxelToChunkAndSection(t *testing.T) {
	chunkSize := Dims{32, 32, 32}
	sectionSize := Dims{2, 2, 2}

	c := VoxelToChunk(VoxelCoord{-1, -1, -1}, chunkSize)
	require.Equal(t, ChunkCoord{-1, -1, -1}, c)

	sp := ChunkToSection(c, sectionSize)
	require.Equal(t, SectionCoord{-1, -1, -1}, sp)

	local := LocalChunkInSection(c, sp, sectionSize)
	require.Equal(t, Dims{1, 1, 1}, local)
}

func TestLocalVoxelInChunk(t *testing.T) {
	chunkSize := Dims{32, 32, 32}
	c := VoxelToChunk(VoxelCoord{33, 0, -1}, chunkSize)
	local := LocalVoxelInChunk(VoxelCoord{33, 0, -1}, c, chunkSize)
	require.Equal(t, Dims{1, 0, 31}, local)
}
