package voxelcore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gekko3d/voxelcore/eventbus"
	"github.com/gekko3d/voxelcore/physics"
	"github.com/gekko3d/voxelcore/scene"
	"github.com/gekko3d/voxelcore/wire"
)

type fakeSender struct {
	sent []sentFrame
}

type sentFrame struct {
	peer    string
	typ     uint16
	payload []byte
}

func (f *fakeSender) SendFrame(peer string, typ uint16, payload []byte) {
	f.sent = append(f.sent, sentFrame{peer, typ, payload})
}

func TestWireEventsPreloadsRegionOnStart(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	reg := wire.NewRegistry()
	w.WireEvents(RegionConfig{From: SectionCoord{0, 0, 0}, To: SectionCoord{0, 0, 0}}, reg)

	bus.Emit(eventbus.Event{Name: "core:start"})
	_, ok := w.sections[SectionCoord{0, 0, 0}]
	require.True(t, ok)
}

func TestOnTickRebuildsCollisionGeometry(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	w.LoadOrGenerateSection(SectionCoord{0, 0, 0})
	w.SetVoxel(VoxelCoord{0, 0, 0}, NewVoxel(2, 0), false) // id 2 = "rock", solid by default registry

	w.onTick()
	require.Equal(t, 0, w.PhysicsQueue().Len())
	nodeID := w.sections[SectionCoord{0, 0, 0}].NodeIDs[0]
	require.NotEmpty(t, w.CollisionBoxesFor(physics.NodeID(nodeID)))
}

func TestOnFilesTransmittedSendsInitHandshake(t *testing.T) {
	sender := &fakeSender{}
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Bus: bus, Sender: sender})
	reg := wire.NewRegistry()
	w.WireEvents(RegionConfig{}, reg)

	bus.Emit(eventbus.Event{Name: "client_file:files_transmitted", Payload: "peerA"})
	require.Len(t, sender.sent, 1)
	require.Equal(t, "peerA", sender.sent[0].peer)

	cs, ss, err := wire.DecodeInit(sender.sent[0].payload)
	require.NoError(t, err)
	require.Equal(t, wire.Triple{X: 32, Y: 32, Z: 32}, cs)
	require.Equal(t, wire.Triple{X: 2, Y: 2, Z: 2}, ss)
}

func TestOnUnloadRemovesAllNodes(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	w := NewWorld(WorldConfig{Store: store, Bus: bus})
	w.LoadOrGenerateSection(SectionCoord{0, 0, 0})
	s := w.sections[SectionCoord{0, 0, 0}]
	nodeID := s.NodeIDs[0]

	w.onUnload()

	require.Nil(t, store.Get(nodeID))
	for _, id := range s.NodeIDs {
		require.EqualValues(t, 0, id)
	}
}

func TestOnNodeVoxelDataUpdatedForwardsToKnownPeers(t *testing.T) {
	store := scene.NewStore()
	bus := eventbus.NewBus(nil)
	sender := &fakeSender{}
	w := NewWorld(WorldConfig{Store: store, Bus: bus, Sender: sender})
	reg := wire.NewRegistry()
	w.WireEvents(RegionConfig{}, reg)

	w.LoadOrGenerateSection(SectionCoord{0, 0, 0})
	s := w.sections[SectionCoord{0, 0, 0}]
	nodeID := s.NodeIDs[0]
	store.MarkPeerKnows(nodeID, "peerA")

	bus.Emit(eventbus.Event{Name: "voxelworld:node_voxel_data_updated", Payload: int32(nodeID)})
	require.Len(t, sender.sent, 1)
	require.Equal(t, "peerA", sender.sent[0].peer)
}
