package voxelcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelcore/eventbus"
	"github.com/gekko3d/voxelcore/scene"
)

func newTestWorld() *World {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	for x := int32(-1); x <= 1; x++ {
		for y := int32(-1); y <= 1; y++ {
			for z := int32(-1); z <= 1; z++ {
				w.LoadOrGenerateSection(SectionCoord{x, y, z})
			}
		}
	}
	return w
}

func TestSetVoxelRoundTrip(t *testing.T) {
	w := newTestWorld()
	p := VoxelCoord{0, 0, 0}
	w.SetVoxel(p, NewVoxel(2, 0), false)
	require.Equal(t, NewVoxel(2, 0), w.GetVoxel(p, false))
}

func TestCommitIdempotentOnValue(t *testing.T) {
	w := newTestWorld()
	p := VoxelCoord{0, 0, 0}
	w.SetVoxel(p, NewVoxel(2, 0), false)
	w.Commit()
	require.Equal(t, NewVoxel(2, 0), w.GetVoxel(p, false))
}

func TestCommitClearsLoadedSections(t *testing.T) {
	w := newTestWorld()
	w.SetVoxel(VoxelCoord{0, 0, 0}, NewVoxel(2, 0), false)
	require.Equal(t, 1, w.NumBuffersLoaded())
	w.Commit()
	require.Equal(t, 0, w.NumBuffersLoaded())
}

func TestPhysicsQueueHasExactlyOneEntryPerNode(t *testing.T) {
	w := newTestWorld()
	p := VoxelCoord{0, 0, 0}
	w.SetVoxel(p, NewVoxel(2, 0), false)
	w.SetVoxel(p, NewVoxel(3, 0), false) // same chunk/node, must coalesce
	require.Equal(t, 1, w.PhysicsQueue().Len())
}

func TestCodecRoundTripViaCommit(t *testing.T) {
	w := newTestWorld()
	p := VoxelCoord{-1, -1, -1}
	w.SetVoxel(p, NewVoxel(3, 0), false)
	w.Commit()
	require.Equal(t, NewVoxel(3, 0), w.GetVoxel(p, false))
}

func TestSetVoxelMissingSectionWarnsAndNoops(t *testing.T) {
	w := newTestWorld()
	before := w.PhysicsQueue().Len()
	w.SetVoxel(VoxelCoord{10000, 0, 0}, NewVoxel(2, 0), false)
	require.Equal(t, before, w.PhysicsQueue().Len())
}

func TestSetVoxelDirectForcesFlush(t *testing.T) {
	w := newTestWorld()
	p1 := VoxelCoord{0, 0, 0}
	p2 := VoxelCoord{1, 0, 0}

	w.SetVoxel(p1, NewVoxel(1, 0), false)
	w.SetVoxelDirect(p2, NewVoxel(3, 0))
	require.Equal(t, NewVoxel(1, 0), w.GetVoxel(p1, false))
}

func TestMalformedChunkBlobTreatedAsEmpty(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	w.LoadOrGenerateSection(SectionCoord{0, 0, 0})

	s := w.sections[SectionCoord{0, 0, 0}]
	nodeID := s.NodeIDs[0]
	store.AccessScene(func() {
		store.SetVar(nodeID, voxelDataKey, []byte{1, 2, 3}) // truncated/garbage
	})

	require.NotPanics(t, func() {
		v := w.GetVoxel(VoxelCoord{0, 0, 0}, true)
		require.Equal(t, UndefinedVoxel, v)
	})
}

func TestSectionRegionVoxels(t *testing.T) {
	w := newTestWorld()
	min, max := w.SectionRegionVoxels(SectionCoord{0, 0, 0})
	require.Equal(t, VoxelCoord{0, 0, 0}, min)
	require.Equal(t, VoxelCoord{63, 63, 63}, max)
}

func TestFaceTextureRefResolvesThroughAtlas(t *testing.T) {
	w := newTestWorld()
	rock, ok := w.Registry().ByName("rock")
	require.True(t, ok)

	ref, ok := w.FaceTextureRef(NewVoxel(rock.ID, 0), 0)
	require.True(t, ok)
	require.Equal(t, rock.FaceTextures[0], ref)

	_, ok = w.FaceTextureRef(NewVoxel(rock.ID, 0), 6)
	require.False(t, ok)
}

func TestLoadOrGenerateSectionSeedsVoxelDataVar(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	w.LoadOrGenerateSection(SectionCoord{0, 0, 0})

	s := w.sections[SectionCoord{0, 0, 0}]
	for _, nodeID := range s.NodeIDs {
		require.NotZero(t, nodeID)
		var raw []byte
		var ok bool
		store.AccessScene(func() {
			raw, ok = store.GetVar(nodeID, voxelDataKey)
		})
		require.True(t, ok)
		require.NotEmpty(t, raw)
	}
}

func TestLoadOrGenerateSectionIdempotent(t *testing.T) {
	w := newTestWorld()
	sp := SectionCoord{0, 0, 0}
	before := w.sections[sp].NodeIDs[0]
	w.LoadOrGenerateSection(sp) // second call must be a no-op
	require.Equal(t, before, w.sections[sp].NodeIDs[0])
}
