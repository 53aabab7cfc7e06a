// Package wire implements the length-prefixed frame format carried between
// the world instance and its network peers: each frame is a u16 type, a u32
// size, and a byte payload, little-endian throughout.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrShortFrame is returned when a frame's declared size doesn't fit in the
// bytes actually available.
var ErrShortFrame = errors.New("wire: short frame")

// RegistrationType is the distinguished frame type carrying packet-name
// registration instead of application payload.
const RegistrationType uint16 = 0

// Frame is one decoded length-prefixed message.
type Frame struct {
	Type    uint16
	Payload []byte
}

// WriteFrame writes typ, len(payload), and payload to w.
func WriteFrame(w io.Writer, typ uint16, payload []byte) error {
	var hdr [6]byte
	binary.LittleEndian.PutUint16(hdr[0:2], typ)
	binary.LittleEndian.PutUint32(hdr[2:6], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadFrame reads one frame from r.
func ReadFrame(r io.Reader) (Frame, error) {
	var hdr [6]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return Frame{}, err
	}
	typ := binary.LittleEndian.Uint16(hdr[0:2])
	size := binary.LittleEndian.Uint32(hdr[2:6])
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	return Frame{Type: typ, Payload: payload}, nil
}

// EncodeRegistration builds the payload of a RegistrationType frame:
// u16 numeric_type, u32 name_len, bytes name.
func EncodeRegistration(numericType uint16, name string) []byte {
	buf := make([]byte, 0, 6+len(name))
	var head [6]byte
	binary.LittleEndian.PutUint16(head[0:2], numericType)
	binary.LittleEndian.PutUint32(head[2:6], uint32(len(name)))
	buf = append(buf, head[:]...)
	buf = append(buf, name...)
	return buf
}

// DecodeRegistration parses the payload of a RegistrationType frame.
func DecodeRegistration(payload []byte) (numericType uint16, name string, err error) {
	if len(payload) < 6 {
		return 0, "", fmt.Errorf("%w: registration header truncated", ErrShortFrame)
	}
	numericType = binary.LittleEndian.Uint16(payload[0:2])
	nameLen := binary.LittleEndian.Uint32(payload[2:6])
	if uint32(len(payload)-6) < nameLen {
		return 0, "", fmt.Errorf("%w: registration name truncated", ErrShortFrame)
	}
	name = string(payload[6 : 6+nameLen])
	return numericType, name, nil
}

// Registry dynamically assigns numeric type ids to packet names, as the
// canonical identifier stays the name and the wire id is just a session-
// local shorthand negotiated via RegistrationType frames.
type Registry struct {
	next   uint16
	byName map[string]uint16
}

func NewRegistry() *Registry {
	return &Registry{next: 1, byName: make(map[string]uint16)} // 0 is reserved for registration frames
}

// Register returns the numeric type id for name, assigning a new one on
// first use.
func (r *Registry) Register(name string) uint16 {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := r.next
	r.next++
	r.byName[name] = id
	return id
}

// Triple is an i16 coordinate triple as carried by voxelworld:init and
// voxelworld:get_section.
type Triple struct {
	X, Y, Z int16
}

func appendTriple(buf []byte, t Triple) []byte {
	var b [6]byte
	binary.LittleEndian.PutUint16(b[0:2], uint16(t.X))
	binary.LittleEndian.PutUint16(b[2:4], uint16(t.Y))
	binary.LittleEndian.PutUint16(b[4:6], uint16(t.Z))
	return append(buf, b[:]...)
}

func readTriple(payload []byte) (Triple, error) {
	if len(payload) < 6 {
		return Triple{}, fmt.Errorf("%w: triple truncated", ErrShortFrame)
	}
	return Triple{
		X: int16(binary.LittleEndian.Uint16(payload[0:2])),
		Y: int16(binary.LittleEndian.Uint16(payload[2:4])),
		Z: int16(binary.LittleEndian.Uint16(payload[4:6])),
	}, nil
}

// EncodeInit builds the voxelworld:init payload: chunk size then section
// size, each an i16 triple.
func EncodeInit(chunkSize, sectionSizeChunks Triple) []byte {
	buf := make([]byte, 0, 12)
	buf = appendTriple(buf, chunkSize)
	buf = appendTriple(buf, sectionSizeChunks)
	return buf
}

// DecodeInit parses a voxelworld:init payload.
func DecodeInit(payload []byte) (chunkSize, sectionSizeChunks Triple, err error) {
	if len(payload) < 12 {
		return Triple{}, Triple{}, fmt.Errorf("%w: init payload truncated", ErrShortFrame)
	}
	chunkSize, err = readTriple(payload[0:6])
	if err != nil {
		return Triple{}, Triple{}, err
	}
	sectionSizeChunks, err = readTriple(payload[6:12])
	return chunkSize, sectionSizeChunks, err
}

// EncodeGetSection builds the voxelworld:get_section payload: one section
// coordinate triple.
func EncodeGetSection(section Triple) []byte {
	return appendTriple(nil, section)
}

// DecodeGetSection parses a voxelworld:get_section payload.
func DecodeGetSection(payload []byte) (Triple, error) {
	return readTriple(payload)
}

// EncodeNodeVoxelDataUpdated builds the voxelworld:node_voxel_data_updated
// payload: one i32 node id.
func EncodeNodeVoxelDataUpdated(nodeID int32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(nodeID))
	return buf
}

// DecodeNodeVoxelDataUpdated parses a voxelworld:node_voxel_data_updated
// payload.
func DecodeNodeVoxelDataUpdated(payload []byte) (int32, error) {
	if len(payload) < 4 {
		return 0, fmt.Errorf("%w: node id truncated", ErrShortFrame)
	}
	return int32(binary.LittleEndian.Uint32(payload)), nil
}
