// Package codec serializes voxel volumes to a portable binary form, mirroring
// the little-endian fixed-width wire/storage format used across the node
// store and the network layer.
package codec

import (
	"bytes"
	"compress/flate"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedVolume is the sentinel every decode failure wraps: truncated
// input, an unrecognized codec tag, or a corner/voxel-count mismatch.
var ErrMalformedVolume = errors.New("codec: malformed volume")

// Coord is a voxel-space integer triple, held as int32 in memory and
// stored as little-endian i32s; Decode reads the corners back as int32
// without any narrowing or range check.
type Coord struct {
	X, Y, Z int32
}

// Volume is a dense, axis-aligned 3D array of voxel words spanning
// [Min, Max] inclusive on every axis, stored row-major with Z as the
// outermost (slowest-varying) axis.
type Volume struct {
	Min, Max Coord
	Voxels   []uint32
}

// Dims returns the voxel-count extent along each axis.
func (v Volume) Dims() (dx, dy, dz int32) {
	return v.Max.X - v.Min.X + 1, v.Max.Y - v.Min.Y + 1, v.Max.Z - v.Min.Z + 1
}

func (v Volume) expectedLen() int {
	dx, dy, dz := v.Dims()
	if dx <= 0 || dy <= 0 || dz <= 0 {
		return -1
	}
	return int(dx) * int(dy) * int(dz)
}

// Index returns the row-major offset of the local voxel at (x,y,z) within
// the volume's own Min/Max bounds. Callers pass absolute coordinates.
func (v Volume) Index(x, y, z int32) int {
	dx, dy, _ := v.Dims()
	lx, ly, lz := x-v.Min.X, y-v.Min.Y, z-v.Min.Z
	return int(lz)*int(dy)*int(dx) + int(ly)*int(dx) + int(lx)
}

// codec tag byte values; the tag is the first byte of a tagged blob and is
// followed directly by the payload, with no length prefix.
const (
	tagRaw     byte = 0
	tagDeflate byte = 1
)

// Encode serializes v into the raw portable form: corners as six
// little-endian i32s, a voxel count for validation, then the voxel words.
func Encode(v Volume) ([]byte, error) {
	expected := v.expectedLen()
	if expected < 0 || expected != len(v.Voxels) {
		return nil, fmt.Errorf("%w: corner/voxel-count mismatch (want %d, have %d)", ErrMalformedVolume, expected, len(v.Voxels))
	}

	buf := make([]byte, 0, 28+4*len(v.Voxels))
	buf = appendI32(buf, v.Min.X, v.Min.Y, v.Min.Z, v.Max.X, v.Max.Y, v.Max.Z)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.Voxels)))
	for _, w := range v.Voxels {
		buf = binary.LittleEndian.AppendUint32(buf, w)
	}
	return buf, nil
}

func appendI32(buf []byte, vals ...int32) []byte {
	for _, val := range vals {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(val))
	}
	return buf
}

// Decode parses the raw form produced by Encode.
func Decode(data []byte) (Volume, error) {
	if len(data) < 28 {
		return Volume{}, fmt.Errorf("%w: truncated header (%d bytes)", ErrMalformedVolume, len(data))
	}
	r := bytes.NewReader(data)
	var hdr [7]int32
	for i := range hdr {
		var u uint32
		if err := binary.Read(r, binary.LittleEndian, &u); err != nil {
			return Volume{}, fmt.Errorf("%w: %v", ErrMalformedVolume, err)
		}
		hdr[i] = int32(u)
	}
	v := Volume{
		Min: Coord{hdr[0], hdr[1], hdr[2]},
		Max: Coord{hdr[3], hdr[4], hdr[5]},
	}
	count := int(hdr[6])
	if count < 0 {
		return Volume{}, fmt.Errorf("%w: negative voxel count", ErrMalformedVolume)
	}
	if expected := v.expectedLen(); expected < 0 || expected != count {
		return Volume{}, fmt.Errorf("%w: corner/voxel-count mismatch (want %d, have %d)", ErrMalformedVolume, expected, count)
	}
	if r.Len() < count*4 {
		return Volume{}, fmt.Errorf("%w: truncated voxel payload (need %d bytes, have %d)", ErrMalformedVolume, count*4, r.Len())
	}
	voxels := make([]uint32, count)
	for i := range voxels {
		var u uint32
		if err := binary.Read(r, binary.LittleEndian, &u); err != nil {
			return Volume{}, fmt.Errorf("%w: %v", ErrMalformedVolume, err)
		}
		voxels[i] = u
	}
	v.Voxels = voxels
	return v, nil
}

// EncodeTaggedRaw wraps the raw encoding with the tagRaw codec byte, the
// uncompressed counterpart to EncodeCompressed for callers that want a
// single self-describing blob format regardless of whether compression is
// applied.
func EncodeTaggedRaw(v Volume) ([]byte, error) {
	raw, err := Encode(v)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(raw)+1)
	out = append(out, tagRaw)
	out = append(out, raw...)
	return out, nil
}

// EncodeCompressed wraps the raw encoding with a one-byte codec tag followed
// by a DEFLATE-compressed payload (stdlib compress/flate; no example repo in
// the retrieval pack carries a reachable third-party compression library for
// this component, see DESIGN.md).
func EncodeCompressed(v Volume) ([]byte, error) {
	raw, err := Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteByte(tagDeflate)
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCompressed accepts either a tagRaw-prefixed raw blob or a
// tagDeflate-prefixed compressed one, so callers don't need to know which
// encoder produced the bytes pulled from the node store.
func DecodeCompressed(data []byte) (Volume, error) {
	if len(data) < 1 {
		return Volume{}, fmt.Errorf("%w: empty blob", ErrMalformedVolume)
	}
	tag, payload := data[0], data[1:]
	switch tag {
	case tagRaw:
		return Decode(payload)
	case tagDeflate:
		r := flate.NewReader(bytes.NewReader(payload))
		defer r.Close()
		raw, err := io.ReadAll(r)
		if err != nil {
			return Volume{}, fmt.Errorf("%w: %v", ErrMalformedVolume, err)
		}
		return Decode(raw)
	default:
		return Volume{}, fmt.Errorf("%w: unknown codec tag %d", ErrMalformedVolume, tag)
	}
}
