package voxelcore

import (
	"github.com/gekko3d/voxelcore/codec"
	"github.com/gekko3d/voxelcore/scene"
)

// ChunkBuffer is an optional, in-memory mutable decoded volume for one
// chunk, plus a dirty flag. Volume spans the padded local coordinate space
// [0, chunkSize+1] on every axis: the outer ring at index 0 and
// chunkSize+1 holds a copy of neighboring chunks' edge voxels.
type ChunkBuffer struct {
	Volume codec.Volume
	Dirty  bool
}

// paddedVolumeBounds returns the Min/Max corners of a fresh chunk buffer's
// local, padded coordinate space for the given chunk size.
func paddedVolumeBounds(chunkSize Dims) (codec.Coord, codec.Coord) {
	return codec.Coord{X: 0, Y: 0, Z: 0},
		codec.Coord{X: chunkSize.X + 1, Y: chunkSize.Y + 1, Z: chunkSize.Z + 1}
}

func newEmptyChunkBuffer(chunkSize Dims) *ChunkBuffer {
	min, max := paddedVolumeBounds(chunkSize)
	v := codec.Volume{Min: min, Max: max}
	n := int(chunkSize.X+2) * int(chunkSize.Y+2) * int(chunkSize.Z+2)
	v.Voxels = make([]uint32, n)
	return &ChunkBuffer{Volume: v, Dirty: false}
}

// paddedIndex returns the codec.Volume index for local (unpadded) voxel
// coordinate lc within a chunk buffer, applying the +1 padding shift.
func paddedIndex(buf codec.Volume, lc Dims) int {
	return buf.Index(lc.X+1, lc.Y+1, lc.Z+1)
}

// Section is a fixed-size cuboid of chunks: the unit of world loading and
// generation. ChunkBuffers and NodeIDs are dense arrays indexed by
// (lz*H + ly)*W + lx over the section's chunk-size dimensions.
type Section struct {
	Coord   SectionCoord
	Buffers []*ChunkBuffer
	NodeIDs []scene.NodeID

	Loaded      bool
	Generated   bool
	SaveEnabled bool
}

func newSection(coord SectionCoord, sectionSizeChunks Dims) *Section {
	n := int(sectionSizeChunks.X) * int(sectionSizeChunks.Y) * int(sectionSizeChunks.Z)
	return &Section{
		Coord:   coord,
		Buffers: make([]*ChunkBuffer, n),
		NodeIDs: make([]scene.NodeID, n),
	}
}
