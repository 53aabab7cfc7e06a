// Package atlas is the texture atlas/segment registry, exercised by the
// default voxel registry's seeding and World.FaceTextureRef but never
// rendered or sent over the wire, grounded on
// original_source's interface/atlas.h.
package atlas

import "fmt"

// SegmentRef names one (atlas, segment) pair a voxel face resolves through.
type SegmentRef struct {
	AtlasID   uint32
	SegmentID uint32
}

// SegmentDefinition describes where a named resource's pixels live within
// an atlas's segment grid.
type SegmentDefinition struct {
	ResourceName  string
	TotalSegments [2]int // columns, rows
	SelectSegment [2]int // column, row of the chosen segment
}

// Definition describes one texture atlas: a resource name and its total
// segment grid.
type Definition struct {
	ResourceName  string
	TotalSegments [2]int
}

// Registry assigns ids to atlases and segments, the server-side half of
// original_source's TextureAtlasRegistry interface (add_segment,
// get_atlas_definition, get_segment_definition, get_texture); the "get
// texture" operation itself is a rendering concern and out of scope here.
type Registry struct {
	atlases        map[uint32]Definition
	segments       map[SegmentRef]SegmentDefinition
	nextAtlasID    uint32
	nextSegmentID  uint32
	byResourceName map[string]SegmentRef
}

func NewRegistry() *Registry {
	return &Registry{
		atlases:        make(map[uint32]Definition),
		segments:       make(map[SegmentRef]SegmentDefinition),
		byResourceName: make(map[string]SegmentRef),
	}
}

// AddAtlas registers a new atlas definition and returns its id.
func (r *Registry) AddAtlas(def Definition) uint32 {
	r.nextAtlasID++
	id := r.nextAtlasID
	r.atlases[id] = def
	return id
}

// AddSegment registers a named resource's segment within atlasID and
// returns the resulting SegmentRef, mirroring add_segment.
func (r *Registry) AddSegment(atlasID uint32, def SegmentDefinition) (SegmentRef, error) {
	if _, ok := r.atlases[atlasID]; !ok {
		return SegmentRef{}, fmt.Errorf("atlas: unknown atlas id %d", atlasID)
	}
	r.nextSegmentID++
	ref := SegmentRef{AtlasID: atlasID, SegmentID: r.nextSegmentID}
	r.segments[ref] = def
	r.byResourceName[def.ResourceName] = ref
	return ref, nil
}

// GetAtlasDefinition returns the definition for atlasID.
func (r *Registry) GetAtlasDefinition(atlasID uint32) (Definition, bool) {
	d, ok := r.atlases[atlasID]
	return d, ok
}

// GetSegmentDefinition returns the definition for ref.
func (r *Registry) GetSegmentDefinition(ref SegmentRef) (SegmentDefinition, bool) {
	d, ok := r.segments[ref]
	return d, ok
}

// SegmentRefForResource resolves a resource name to its previously
// registered SegmentRef, the lookup a voxel definition's face textures use.
func (r *Registry) SegmentRefForResource(name string) (SegmentRef, bool) {
	ref, ok := r.byResourceName[name]
	return ref, ok
}
