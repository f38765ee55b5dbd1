package ifc

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// guidChars is the 64 character alphabet of compressed IFC GlobalIds.
const guidChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_$"

// GlobalIDLen is the length of a compressed GlobalId.
const GlobalIDLen = 22

// NewGlobalID returns a fresh random GlobalId.
func NewGlobalID() string {
	return CompressGUID(uuid.New())
}

// CompressGUID encodes a 128-bit UUID as a 22 character GlobalId. The first
// character carries the top two bits, the rest six bits each.
func CompressGUID(u uuid.UUID) string {
	out := make([]byte, 0, GlobalIDLen)
	out = append(out, guidChars[u[0]>>6], guidChars[u[0]&0x3f])
	for i := 1; i < 16; i += 3 {
		n := uint32(u[i])<<16 | uint32(u[i+1])<<8 | uint32(u[i+2])
		out = append(out,
			guidChars[(n>>18)&0x3f],
			guidChars[(n>>12)&0x3f],
			guidChars[(n>>6)&0x3f],
			guidChars[n&0x3f],
		)
	}
	return string(out)
}

// ExpandGlobalID decodes a compressed GlobalId back to its UUID.
func ExpandGlobalID(id string) (uuid.UUID, error) {
	var u uuid.UUID
	if len(id) != GlobalIDLen {
		return u, errors.Errorf("ifc: GlobalId %q: length %d, want %d", id, len(id), GlobalIDLen)
	}
	digits := make([]uint32, GlobalIDLen)
	for i := 0; i < GlobalIDLen; i++ {
		d := strings.IndexByte(guidChars, id[i])
		if d < 0 {
			return u, errors.Errorf("ifc: GlobalId %q: invalid character %q", id, id[i])
		}
		digits[i] = uint32(d)
	}
	if digits[0] > 3 {
		return u, errors.Errorf("ifc: GlobalId %q: leading character out of range", id)
	}
	u[0] = byte(digits[0]<<6 | digits[1])
	for g := 0; g < 5; g++ {
		d := digits[2+g*4 : 6+g*4]
		n := d[0]<<18 | d[1]<<12 | d[2]<<6 | d[3]
		u[1+g*3] = byte(n >> 16)
		u[2+g*3] = byte(n >> 8)
		u[3+g*3] = byte(n)
	}
	return u, nil
}

// ValidGlobalID reports whether id is a well-formed compressed GlobalId.
func ValidGlobalID(id string) bool {
	_, err := ExpandGlobalID(id)
	return err == nil
}
