package voxelcore

import "github.com/gekko3d/voxelcore/atlas"

// Voxel is the 32-bit opaque voxel instance word: the low 16 bits carry the
// registry id, the high 16 bits carry packed auxiliary bits (rotation,
// variant, light level, whatever a handler module chooses to store there).
// Equality and copy are value semantics.
type Voxel uint32

// UndefinedVoxel is the reserved id-0 "undefined" voxel.
const UndefinedVoxel Voxel = 0

// NewVoxel packs a registry id and auxiliary bits into a Voxel word.
func NewVoxel(id uint16, aux uint16) Voxel {
	return Voxel(id) | Voxel(aux)<<16
}

// ID returns the voxel's registry id.
func (v Voxel) ID() uint16 { return uint16(v) }

// Aux returns the voxel's packed auxiliary bits.
func (v Voxel) Aux() uint16 { return uint16(v >> 16) }

// EdgeMaterialID names the material used where a chunk mesh borders air,
// supplementing the distilled spec's voxel definition from
// original_source's VoxelDefinition.
type EdgeMaterialID uint8

const (
	EdgeMaterialEmpty EdgeMaterialID = iota
	EdgeMaterialGround
)

// VoxelDefinition is a registry entry: name, face textures, edge material,
// solidity, and the name of the capability module responsible for this
// voxel type's runtime behavior (see VoxelHandler).
type VoxelDefinition struct {
	ID             uint16
	Name           string
	FaceTextures   [6]atlas.SegmentRef
	EdgeMaterialID EdgeMaterialID
	Solid          bool
	HandlerModule  string
}

// VoxelRegistry maps numeric ids to voxel definitions. Ids are assigned in
// insertion order starting at 1; id 0 is reserved for "undefined".
type VoxelRegistry struct {
	byID   map[uint16]VoxelDefinition
	byName map[string]uint16
	nextID uint16
}

func NewVoxelRegistry() *VoxelRegistry {
	return &VoxelRegistry{byID: make(map[uint16]VoxelDefinition), byName: make(map[string]uint16)}
}

// Register adds def under the next available id and returns it.
func (r *VoxelRegistry) Register(def VoxelDefinition) uint16 {
	r.nextID++
	def.ID = r.nextID
	r.byID[def.ID] = def
	r.byName[def.Name] = def.ID
	return def.ID
}

// ByID looks up a definition by numeric id.
func (r *VoxelRegistry) ByID(id uint16) (VoxelDefinition, bool) {
	def, ok := r.byID[id]
	return def, ok
}

// ByName looks up a definition by name.
func (r *VoxelRegistry) ByName(name string) (VoxelDefinition, bool) {
	id, ok := r.byName[name]
	if !ok {
		return VoxelDefinition{}, false
	}
	def, ok := r.byID[id]
	return def, ok
}

// IsSolid reports whether voxel v's registry entry is solid, treating an
// unknown or undefined id as non-solid.
func (r *VoxelRegistry) IsSolid(v Voxel) bool {
	def, ok := r.ByID(v.ID())
	return ok && def.Solid
}

// IsSolid32 adapts IsSolid to the raw uint32 voxel words a codec.Volume
// stores, for use as physics.Queue's occupancy predicate.
func (r *VoxelRegistry) IsSolid32(raw uint32) bool {
	return r.IsSolid(Voxel(raw))
}

// DefaultRegistry reproduces the five built-in voxel definitions seeded by
// original_source's Module::init (air, rock, dirt, grass, leaves) as the
// package's baseline fixture registry, used by tests and the CLI's default
// boot path. Leaves are modeled as non-solid: original_source leaves the
// solidity of foliage voxels to a handler module it doesn't include in the
// supplied source, and a walkable/non-blocking canopy is the more common
// choice in comparable voxel engines — recorded as an Open Question
// resolution.
//
// Every definition except air has its face textures registered into atlasReg under a
// single "main" atlas, the way Module::init assigns textures[i].resource_name
// ("main/rock.png", "main/dirt.png", ...) to every face; atlasReg must not be
// nil.
func DefaultRegistry(atlasReg *atlas.Registry) *VoxelRegistry {
	r := NewVoxelRegistry()
	mainAtlas := atlasReg.AddAtlas(atlas.Definition{ResourceName: "main", TotalSegments: [2]int{4, 4}})

	faces := func(resourceName string, col, row int) [6]atlas.SegmentRef {
		ref, err := atlasReg.AddSegment(mainAtlas, atlas.SegmentDefinition{
			ResourceName:  resourceName,
			TotalSegments: [2]int{4, 4},
			SelectSegment: [2]int{col, row},
		})
		if err != nil {
			return [6]atlas.SegmentRef{}
		}
		return [6]atlas.SegmentRef{ref, ref, ref, ref, ref, ref}
	}

	r.Register(VoxelDefinition{Name: "air", Solid: false, EdgeMaterialID: EdgeMaterialEmpty})
	r.Register(VoxelDefinition{
		Name: "rock", Solid: true, EdgeMaterialID: EdgeMaterialGround, HandlerModule: "voxelworld",
		FaceTextures: faces("main/rock.png", 0, 0),
	})
	r.Register(VoxelDefinition{
		Name: "dirt", Solid: true, EdgeMaterialID: EdgeMaterialGround, HandlerModule: "voxelworld",
		FaceTextures: faces("main/dirt.png", 1, 0),
	})
	r.Register(VoxelDefinition{
		Name: "grass", Solid: true, EdgeMaterialID: EdgeMaterialGround, HandlerModule: "voxelworld",
		FaceTextures: faces("main/grass.png", 2, 0),
	})
	r.Register(VoxelDefinition{
		Name: "leaves", Solid: false, EdgeMaterialID: EdgeMaterialEmpty, HandlerModule: "voxelworld",
		FaceTextures: faces("main/leaves.png", 3, 0),
	})
	return r
}

// VoxelHandler is the capability interface a voxel type's HandlerModule
// resolves to, replacing the void* dispatch artifact of the source's
// plugin loader (see design notes). World calls OnSetVoxel directly after
// a buffered SetVoxel; no scene gate is held around the call.
type VoxelHandler interface {
	OnSetVoxel(w *World, p VoxelCoord, v Voxel)
}
