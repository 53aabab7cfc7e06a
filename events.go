package voxelcore

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/gekko3d/voxelcore/eventbus"
	"github.com/gekko3d/voxelcore/physics"
	"github.com/gekko3d/voxelcore/scene"
	"github.com/gekko3d/voxelcore/wire"
)

func componentMin(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{min32(a.X(), b.X()), min32(a.Y(), b.Y()), min32(a.Z(), b.Z())}
}

func componentMax(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{max32(a.X(), b.X()), max32(a.Y(), b.Y()), max32(a.Z(), b.Z())}
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// NetworkSender is the external collaborator a World forwards wire frames
// through; the client TCP framing itself is out of scope (see spec.md §1),
// so World only needs somewhere to hand finished frames to.
type NetworkSender interface {
	SendFrame(peer string, typ uint16, payload []byte)
}

// RegionConfig names the rectangular range of sections core:start/
// core:continue preload via LoadOrGenerateSection.
type RegionConfig struct {
	From, To SectionCoord
}

// WireEvents subscribes w to core:start, core:continue, core:unload,
// core:tick, client_file:files_transmitted,
// network:packet_received/voxelworld:get_section and
// voxelworld:node_voxel_data_updated, with the effects documented in
// §4.G's event-subscription table. Other bus events are not subscribed.
func (w *World) WireEvents(region RegionConfig, packetTypeIDs *wire.Registry) {
	if w.bus == nil {
		return
	}
	w.bus.Subscribe("core:start", func(eventbus.Event) { w.preloadRegion(region) })
	w.bus.Subscribe("core:continue", func(eventbus.Event) { w.preloadRegion(region) })
	w.bus.Subscribe("core:unload", func(eventbus.Event) { w.onUnload() })
	w.bus.Subscribe("core:tick", func(eventbus.Event) { w.onTick() })
	w.bus.Subscribe("client_file:files_transmitted", func(ev eventbus.Event) {
		w.onFilesTransmitted(ev, packetTypeIDs)
	})
	w.bus.Subscribe("network:packet_received/voxelworld:get_section", func(ev eventbus.Event) {
		w.onGetSectionPacket(ev)
	})
	w.bus.Subscribe("voxelworld:node_voxel_data_updated", func(ev eventbus.Event) {
		w.onNodeVoxelDataUpdated(ev, packetTypeIDs)
	})
}

func (w *World) preloadRegion(region RegionConfig) {
	for x := region.From.X; x <= region.To.X; x++ {
		for y := region.From.Y; y <= region.To.Y; y++ {
			for z := region.From.Z; z <= region.To.Z; z++ {
				w.LoadOrGenerateSection(SectionCoord{x, y, z})
			}
		}
	}
}

// onUnload commits every dirty buffer, then removes every child node from
// every section, per spec.md's core:unload effect.
func (w *World) onUnload() {
	w.Commit()
	if w.store == nil {
		return
	}
	w.store.AccessScene(func() {
		for _, s := range w.sections {
			for i, id := range s.NodeIDs {
				if id == 0 {
					continue
				}
				w.store.Remove(id)
				s.NodeIDs[i] = 0
			}
		}
	})
}

// onTick drains the physics-update queue, rebuilding collision geometry for
// every pending node and discarding (with a warning, not an abort) any
// entry whose node has since vanished.
func (w *World) onTick() {
	w.physicsQueue.Drain(w.nodeExists, w.applyPhysicsRebuild, w.registry.IsSolid32)
}

func (w *World) nodeExists(id physics.NodeID) bool {
	if w.store == nil {
		return false
	}
	var ok bool
	w.store.AccessScene(func() {
		ok = w.store.Get(scene.NodeID(id)) != nil
	})
	return ok
}

func (w *World) applyPhysicsRebuild(id physics.NodeID, boxes []physics.CollisionBox) {
	w.collision[id] = boxes
	if len(boxes) == 0 {
		return
	}
	min, max := boxes[0].LocalOffset.Sub(boxes[0].HalfExtents), boxes[0].LocalOffset.Add(boxes[0].HalfExtents)
	for _, b := range boxes[1:] {
		bmin, bmax := b.LocalOffset.Sub(b.HalfExtents), b.LocalOffset.Add(b.HalfExtents)
		min = componentMin(min, bmin)
		max = componentMax(max, bmax)
	}
	w.broadphase.Insert(id, physics.AABB{Min: min, Max: max})
}

// onFilesTransmitted sends the per-peer handshake carrying the chunk-size
// and section-size-in-chunks parameters.
func (w *World) onFilesTransmitted(ev eventbus.Event, registry *wire.Registry) {
	if w.sender == nil || registry == nil {
		return
	}
	peer, ok := ev.Payload.(string)
	if !ok {
		return
	}
	payload := wire.EncodeInit(
		wire.Triple{X: int16(w.chunkSize.X), Y: int16(w.chunkSize.Y), Z: int16(w.chunkSize.Z)},
		wire.Triple{X: int16(w.sectionSize.X), Y: int16(w.sectionSize.Y), Z: int16(w.sectionSize.Z)},
	)
	w.sender.SendFrame(peer, registry.Register("voxelworld:init"), payload)
}

// onGetSectionPacket is a no-op placeholder: the decoded section coordinate
// is logged and nothing else happens, per spec.md §4.G.
func (w *World) onGetSectionPacket(ev eventbus.Event) {
	payload, ok := ev.Payload.([]byte)
	if !ok {
		return
	}
	sp, err := wire.DecodeGetSection(payload)
	if err != nil {
		w.logger.Warnf("voxelcore: malformed voxelworld:get_section packet: %v", err)
		return
	}
	w.logger.Debugf("voxelcore: received voxelworld:get_section for (%d,%d,%d)", sp.X, sp.Y, sp.Z)
}

// onNodeVoxelDataUpdated forwards a wire packet of the same name, carrying
// the node id, to every peer that has replicated that node.
func (w *World) onNodeVoxelDataUpdated(ev eventbus.Event, registry *wire.Registry) {
	nodeID, ok := ev.Payload.(int32)
	if !ok || w.sender == nil || w.store == nil || registry == nil {
		return
	}
	peers := w.store.ListPeersKnowing(scene.NodeID(nodeID))
	if len(peers) == 0 {
		return
	}
	payload := wire.EncodeNodeVoxelDataUpdated(nodeID)
	typ := registry.Register("voxelworld:node_voxel_data_updated")
	for _, peer := range peers {
		w.sender.SendFrame(peer, typ, payload)
	}
}
