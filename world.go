package voxelcore

import (
	"sort"

	"github.com/gekko3d/voxelcore/atlas"
	"github.com/gekko3d/voxelcore/codec"
	"github.com/gekko3d/voxelcore/eventbus"
	"github.com/gekko3d/voxelcore/logging"
	"github.com/gekko3d/voxelcore/physics"
	"github.com/gekko3d/voxelcore/scene"
)

// voxelDataKey is the node-store variable name carrying a chunk's encoded
// volume, per §6's external interfaces.
const voxelDataKey = "buildat_voxel_data"

// defaultMRUSize mirrors original_source's m_last_used_sections deque,
// whose size-2 comment calls it "maybe optimal-ish" — kept as a
// constructor-time parameter rather than a hardcoded guarantee.
const defaultMRUSize = 2

// WorldConfig configures a new World. Every field may be left zero: sizes,
// Atlas, Registry, Logger and MRUSize get defaults, and a nil Store, Bus or
// Sender turns off the scene, event and network work that needs it.
type WorldConfig struct {
	ChunkSize         Dims
	SectionSizeChunks Dims
	Registry          *VoxelRegistry
	Store             *scene.Store
	Bus               *eventbus.Bus
	Atlas             *atlas.Registry
	Logger            logging.Logger
	MRUSize           int
	Sender            NetworkSender
}

// World composes the spatial index, chunk buffer cache, physics-update
// queue, and node store façade into the single public surface described by
// spec.md §4.G.
type World struct {
	chunkSize   Dims
	sectionSize Dims
	registry    *VoxelRegistry
	store       *scene.Store
	bus         *eventbus.Bus
	atlas       *atlas.Registry
	logger      logging.Logger
	sender      NetworkSender

	physicsQueue *physics.Queue
	broadphase   *physics.SpatialHashGrid
	collision    map[physics.NodeID][]physics.CollisionBox
	handlers     map[string]VoxelHandler

	sections map[SectionCoord]*Section

	loadedSections []SectionCoord
	loadedSet      map[SectionCoord]bool

	mru     []*Section
	mruSize int
}

// NewWorld builds a World from cfg, defaulting chunk/section size to 32^3
// voxels and 2^3 chunks when left zero, matching spec.md §3's defaults.
func NewWorld(cfg WorldConfig) *World {
	if cfg.ChunkSize == (Dims{}) {
		cfg.ChunkSize = Dims{32, 32, 32}
	}
	if cfg.SectionSizeChunks == (Dims{}) {
		cfg.SectionSizeChunks = Dims{2, 2, 2}
	}
	if cfg.Atlas == nil {
		cfg.Atlas = atlas.NewRegistry()
	}
	if cfg.Registry == nil {
		cfg.Registry = DefaultRegistry(cfg.Atlas)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.MRUSize <= 0 {
		cfg.MRUSize = defaultMRUSize
	}
	w := &World{
		chunkSize:    cfg.ChunkSize,
		sectionSize:  cfg.SectionSizeChunks,
		registry:     cfg.Registry,
		store:        cfg.Store,
		bus:          cfg.Bus,
		atlas:        cfg.Atlas,
		logger:       cfg.Logger,
		sender:       cfg.Sender,
		physicsQueue: physics.NewQueue(cfg.Logger),
		broadphase:   physics.NewSpatialHashGrid(float32(cfg.ChunkSize.X)),
		collision:    make(map[physics.NodeID][]physics.CollisionBox),
		handlers:     make(map[string]VoxelHandler),
		sections:     make(map[SectionCoord]*Section),
		loadedSet:    make(map[SectionCoord]bool),
		mruSize:      cfg.MRUSize,
	}
	return w
}

// ChunkSize, SectionSize, Registry, Store, Bus, and PhysicsQueue give
// collaborators read access to the world's fixed configuration and
// sub-components without exposing mutable internals.
func (w *World) ChunkSize() Dims { return w.chunkSize }
func (w *World) SectionSize() Dims { return w.sectionSize }
func (w *World) Registry() *VoxelRegistry { return w.registry }
func (w *World) Store() *scene.Store { return w.store }
func (w *World) Bus() *eventbus.Bus { return w.bus }
func (w *World) PhysicsQueue() *physics.Queue { return w.physicsQueue }
func (w *World) Broadphase() *physics.SpatialHashGrid { return w.broadphase }

// RegisterHandler installs a capability handler for the named
// HandlerModule, invoked after any set_voxel whose resolved voxel
// definition names it.
func (w *World) RegisterHandler(name string, h VoxelHandler) {
	w.handlers[name] = h
}

// CollisionBoxesFor returns the most recently rebuilt collision geometry
// for a node, or nil if it has never been processed by the physics-update
// queue.
func (w *World) CollisionBoxesFor(id physics.NodeID) []physics.CollisionBox {
	return w.collision[id]
}

// FaceTextureRef resolves voxel v's face (0..5) to the atlas segment an
// external mesher should sample, reading the voxel registry's FaceTextures
// through the world's atlas registry to confirm the segment is still
// registered there.
func (w *World) FaceTextureRef(v Voxel, face int) (atlas.SegmentRef, bool) {
	if face < 0 || face > 5 {
		return atlas.SegmentRef{}, false
	}
	def, ok := w.registry.ByID(v.ID())
	if !ok || w.atlas == nil {
		return atlas.SegmentRef{}, false
	}
	ref := def.FaceTextures[face]
	if _, ok := w.atlas.GetSegmentDefinition(ref); !ok {
		return atlas.SegmentRef{}, false
	}
	return ref, true
}

func cmpSection(a, b SectionCoord) int {
	switch {
	case a.X != b.X:
		if a.X > b.X {
			return 1
		}
		return -1
	case a.Y != b.Y:
		if a.Y > b.Y {
			return 1
		}
		return -1
	case a.Z != b.Z:
		if a.Z > b.Z {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// markSectionLoaded inserts sp into the ordered, deduplicated
// "sections with loaded buffers" list (descending by address), the way
// every attach or mutation does per spec.md §4.C.
func (w *World) markSectionLoaded(sp SectionCoord) {
	if w.loadedSet[sp] {
		return
	}
	idx := sort.Search(len(w.loadedSections), func(i int) bool {
		return cmpSection(w.loadedSections[i], sp) <= 0
	})
	w.loadedSections = append(w.loadedSections, SectionCoord{})
	copy(w.loadedSections[idx+1:], w.loadedSections[idx:])
	w.loadedSections[idx] = sp
	w.loadedSet[sp] = true
}

func (w *World) touchMRU(s *Section) {
	for i, e := range w.mru {
		if e == s {
			w.mru = append(w.mru[:i], w.mru[i+1:]...)
			break
		}
	}
	w.mru = append([]*Section{s}, w.mru...)
	if len(w.mru) > w.mruSize {
		w.mru = w.mru[:w.mruSize]
	}
}

// getSection returns the section at sp if present, checking the MRU cache
// first the way original_source's get_section/force_get_section do.
func (w *World) getSection(sp SectionCoord) (*Section, bool) {
	for _, s := range w.mru {
		if s.Coord == sp {
			return s, true
		}
	}
	s, ok := w.sections[sp]
	if ok {
		w.touchMRU(s)
	}
	return s, ok
}

func (w *World) getOrCreateSection(sp SectionCoord) *Section {
	if s, ok := w.sections[sp]; ok {
		w.touchMRU(s)
		return s
	}
	s := newSection(sp, w.sectionSize)
	w.sections[sp] = s
	w.touchMRU(s)
	return s
}

// LoadOrGenerateSection is idempotent: it creates the section if absent,
// populates its chunk nodes in the scene store (seeding each one's
// buildat_voxel_data var with an empty encoded volume, the way
// original_source's create_chunk_node does), and emits a
// voxelworld:generation_request event exactly once per section.
func (w *World) LoadOrGenerateSection(sp SectionCoord) {
	s := w.getOrCreateSection(sp)
	if s.Generated {
		return
	}
	s.Loaded = true
	if w.store != nil {
		emptyEncoded, err := codec.EncodeCompressed(newEmptyChunkBuffer(w.chunkSize).Volume)
		if err != nil {
			w.logger.Errorf("voxelcore: load_or_generate_section%v: encode empty volume failed: %v", sp, err)
		}
		w.store.AccessScene(func() {
			for i := range s.NodeIDs {
				if s.NodeIDs[i] == 0 {
					nodeID := scene.MustCreateChild(w.store, "chunk")
					s.NodeIDs[i] = nodeID
					if err == nil {
						w.store.SetVar(nodeID, voxelDataKey, emptyEncoded)
					}
				}
			}
		})
	}
	s.Generated = true
	if w.bus != nil {
		w.bus.Emit(eventbus.Event{Name: "voxelworld:generation_request", Payload: sp})
	}
}

// getBuffer attaches (deserializing on miss) and returns the chunk buffer
// at local chunk coordinate lc within section s, per spec.md §4.C's
// get_buffer entry point. The second return value is false only when the
// chunk has no assigned node id, meaning the caller must warn and no-op.
func (w *World) getBuffer(s *Section, lc Dims) (*ChunkBuffer, bool) {
	idx := chunkIndexInSection(lc, w.sectionSize)
	if buf := s.Buffers[idx]; buf != nil {
		return buf, true
	}
	nodeID := s.NodeIDs[idx]
	if nodeID == 0 {
		return nil, false
	}

	var raw []byte
	var ok bool
	if w.store != nil {
		w.store.AccessScene(func() {
			raw, ok = w.store.GetVar(nodeID, voxelDataKey)
		})
	}

	var buf *ChunkBuffer
	switch {
	case !ok:
		buf = newEmptyChunkBuffer(w.chunkSize)
	default:
		vol, err := codec.DecodeCompressed(raw)
		if err != nil {
			w.logger.Warnf("voxelcore: malformed chunk blob for node %d: %v; treating as empty", nodeID, err)
			buf = newEmptyChunkBuffer(w.chunkSize)
		} else {
			buf = &ChunkBuffer{Volume: vol, Dirty: false}
		}
	}
	s.Buffers[idx] = buf
	w.markSectionLoaded(s.Coord)
	return buf, true
}

// resolve maps a voxel coordinate down to its section, local chunk
// coordinate, and chunk coordinate, reporting ok=false when no section is
// loaded there.
func (w *World) resolve(p VoxelCoord) (s *Section, lc Dims, cc ChunkCoord, ok bool) {
	cc = VoxelToChunk(p, w.chunkSize)
	sp := ChunkToSection(cc, w.sectionSize)
	s, ok = w.getSection(sp)
	if !ok {
		return nil, Dims{}, cc, false
	}
	lc = LocalChunkInSection(cc, sp, w.sectionSize)
	return s, lc, cc, true
}

func (w *World) enqueuePhysicsUpdate(s *Section, idx int, vol codec.Volume) {
	nodeID := s.NodeIDs[idx]
	if nodeID == 0 || w.physicsQueue == nil {
		return
	}
	w.physicsQueue.Mark(physics.NodeID(nodeID), vol)
}

// SetVoxel is the buffered (hot-path) write: it accumulates into an
// attached buffer without touching the scene graph, warning on a missing
// section or node unless silent is set.
func (w *World) SetVoxel(p VoxelCoord, v Voxel, silent bool) {
	s, lc, cc, ok := w.resolve(p)
	if !ok {
		if !silent {
			w.logger.Warnf("voxelcore: set_voxel%v: no section loaded", p)
		}
		return
	}
	buf, ok := w.getBuffer(s, lc)
	if !ok {
		if !silent {
			w.logger.Warnf("voxelcore: set_voxel%v: chunk node missing", p)
		}
		return
	}
	local := LocalVoxelInChunk(p, cc, w.chunkSize)
	buf.Volume.Voxels[paddedIndex(buf.Volume, local)] = uint32(v)
	buf.Dirty = true
	w.markSectionLoaded(s.Coord)

	idx := chunkIndexInSection(lc, w.sectionSize)
	w.enqueuePhysicsUpdate(s, idx, buf.Volume)
	w.runHandler(v, p)
}

func (w *World) runHandler(v Voxel, p VoxelCoord) {
	def, ok := w.registry.ByID(v.ID())
	if !ok || def.HandlerModule == "" {
		return
	}
	if h, ok := w.handlers[def.HandlerModule]; ok {
		h.OnSetVoxel(w, p, v)
	}
}

// GetVoxel attaches a buffer if needed and returns the stored voxel,
// returning UndefinedVoxel on any addressing miss.
func (w *World) GetVoxel(p VoxelCoord, silent bool) Voxel {
	s, lc, cc, ok := w.resolve(p)
	if !ok {
		if !silent {
			w.logger.Warnf("voxelcore: get_voxel%v: no section loaded", p)
		}
		return UndefinedVoxel
	}
	buf, ok := w.getBuffer(s, lc)
	if !ok {
		if !silent {
			w.logger.Warnf("voxelcore: get_voxel%v: chunk node missing", p)
		}
		return UndefinedVoxel
	}
	local := LocalVoxelInChunk(p, cc, w.chunkSize)
	return Voxel(buf.Volume.Voxels[paddedIndex(buf.Volume, local)])
}

// Commit flushes every dirty buffer in every section on the loaded-sections
// list back to the scene store, scheduling a deferred
// node_voxel_data_updated emission and a physics-update queue entry for
// each, then clears the loaded-sections list.
func (w *World) Commit() {
	sections := w.loadedSections
	w.loadedSections = nil
	w.loadedSet = make(map[SectionCoord]bool)

	for _, sp := range sections {
		s := w.sections[sp]
		if s == nil {
			continue
		}
		for idx, buf := range s.Buffers {
			if buf == nil {
				continue
			}
			if !buf.Dirty {
				s.Buffers[idx] = nil
				continue
			}
			nodeID := s.NodeIDs[idx]
			encoded, err := codec.EncodeCompressed(buf.Volume)
			if err != nil {
				w.logger.Errorf("voxelcore: commit: encode failed for node %d: %v", nodeID, err)
				s.Buffers[idx] = nil
				continue
			}
			if nodeID != 0 {
				if w.store != nil {
					w.store.AccessScene(func() {
						w.store.SetVar(nodeID, voxelDataKey, encoded)
					})
				}
				if w.bus != nil {
					w.bus.DeferUntilReplicationSync(eventbus.Event{
						Name:    "voxelworld:node_voxel_data_updated",
						Payload: int32(nodeID),
					})
				}
				w.enqueuePhysicsUpdate(s, idx, buf.Volume)
			}
			buf.Dirty = false
			s.Buffers[idx] = nil
		}
	}
}

// SetVoxelDirect forces a commit (so no pending buffered write can be
// overwritten by a stale in-node snapshot), then writes through to the
// node's variable immediately, bypassing the buffer cache entirely.
func (w *World) SetVoxelDirect(p VoxelCoord, v Voxel) {
	w.Commit()

	cc := VoxelToChunk(p, w.chunkSize)
	sp := ChunkToSection(cc, w.sectionSize)
	s, ok := w.getSection(sp)
	if !ok {
		w.logger.Warnf("voxelcore: set_voxel_direct%v: no section loaded", p)
		return
	}
	lc := LocalChunkInSection(cc, sp, w.sectionSize)
	idx := chunkIndexInSection(lc, w.sectionSize)
	nodeID := s.NodeIDs[idx]
	if nodeID == 0 {
		w.logger.Warnf("voxelcore: set_voxel_direct%v: chunk node missing", p)
		return
	}

	var raw []byte
	var ok2 bool
	if w.store != nil {
		w.store.AccessScene(func() {
			raw, ok2 = w.store.GetVar(nodeID, voxelDataKey)
		})
	}
	var vol codec.Volume
	if !ok2 {
		vol = newEmptyChunkBuffer(w.chunkSize).Volume
	} else {
		var err error
		vol, err = codec.DecodeCompressed(raw)
		if err != nil {
			w.logger.Warnf("voxelcore: set_voxel_direct: malformed blob for node %d: %v; treating as empty", nodeID, err)
			vol = newEmptyChunkBuffer(w.chunkSize).Volume
		}
	}

	local := LocalVoxelInChunk(p, cc, w.chunkSize)
	vol.Voxels[paddedIndex(vol, local)] = uint32(v)

	encoded, err := codec.EncodeCompressed(vol)
	if err != nil {
		w.logger.Errorf("voxelcore: set_voxel_direct: encode failed for node %d: %v", nodeID, err)
		return
	}
	if w.store != nil {
		w.store.AccessScene(func() {
			w.store.SetVar(nodeID, voxelDataKey, encoded)
		})
	}
	if w.bus != nil {
		w.bus.DeferUntilReplicationSync(eventbus.Event{
			Name:    "voxelworld:node_voxel_data_updated",
			Payload: int32(nodeID),
		})
	}
	w.enqueuePhysicsUpdate(s, idx, vol)
}

// SectionRegionVoxels returns the inclusive voxel-space bounds covered by
// section sp. Pure coordinate arithmetic; sp need not be loaded.
func (w *World) SectionRegionVoxels(sp SectionCoord) (min, max VoxelCoord) {
	min = VoxelCoord{
		X: sp.X * w.sectionSize.X * w.chunkSize.X,
		Y: sp.Y * w.sectionSize.Y * w.chunkSize.Y,
		Z: sp.Z * w.sectionSize.Z * w.chunkSize.Z,
	}
	max = VoxelCoord{
		X: min.X + w.sectionSize.X*w.chunkSize.X - 1,
		Y: min.Y + w.sectionSize.Y*w.chunkSize.Y - 1,
		Z: min.Z + w.sectionSize.Z*w.chunkSize.Z - 1,
	}
	return min, max
}

// NumBuffersLoaded returns the size of the loaded-sections list.
func (w *World) NumBuffersLoaded() int {
	return len(w.loadedSections)
}
