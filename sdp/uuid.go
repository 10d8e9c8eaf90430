package sdp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// UUID is a Bluetooth UUID in short (16/32-bit) or full (128-bit) form.
// Internal storage is little-endian, matching the host representation a
// caller's UUID library typically hands to us; CanonicalBytes returns the
// big-endian wire form the SDP Data Element grammar requires.
type UUID []byte

// UUID16 builds a 16-bit short-form UUID from a host value.
func UUID16(v uint16) UUID {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return UUID(b)
}

// UUID32 builds a 32-bit short-form UUID from a host value.
func UUID32(v uint32) UUID {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return UUID(b)
}

// UUID128 wraps a raw 16-byte value, assumed little-endian, as a UUID.
func UUID128(b []byte) (UUID, error) {
	if len(b) != 16 {
		return nil, fmt.Errorf("sdp: 128-bit UUID must be 16 bytes, got %d", len(b))
	}
	u := make(UUID, 16)
	copy(u, b)
	return u, nil
}

// Len reports the width of the UUID in bytes: 2, 4, or 16.
func (u UUID) Len() int { return len(u) }

// Short reports the UUID's value as a 16-bit short form, if it is one.
func (u UUID) Short() (uint16, bool) {
	if len(u) != 2 {
		return 0, false
	}
	return binary.LittleEndian.Uint16(u), true
}

// CanonicalBytes returns the big-endian wire form used by every Data
// Element UUID push: a reversed copy of the little-endian internal bytes.
func (u UUID) CanonicalBytes() []byte { return reverseBytes(u) }

// String hex-encodes the UUID, grouped with hyphens for 128-bit values.
func (u UUID) String() string {
	b := reverseBytes(u)
	if len(b) != 16 {
		return fmt.Sprintf("%X", b)
	}
	return fmt.Sprintf("%02x%02x%02x%02x-%02x%02x-%02x%02x-%02x%02x-%02x%02x%02x%02x%02x%02x",
		b[0], b[1], b[2], b[3], b[4], b[5], b[6], b[7],
		b[8], b[9], b[10], b[11], b[12], b[13], b[14], b[15])
}

// Equal reports whether u and v represent the same UUID.
func (u UUID) Equal(v UUID) bool { return bytes.Equal(u, v) }

func reverseBytes(u []byte) []byte {
	l := len(u)
	if l == 2 {
		return []byte{u[1], u[0]}
	}
	b := make([]byte, l)
	for i := 0; i < l/2+1; i++ {
		b[i], b[l-i-1] = u[l-i-1], u[i]
	}
	return b
}

// ParseUUID parses a bare 16-bit hex string ("110B") or a hyphenated
// 128-bit UUID string into its host (little-endian) representation. This
// exists for CLI convenience only; the core never calls it.
func ParseUUID(s string) (UUID, error) {
	if !strings.Contains(s, "-") {
		v, err := strconv.ParseUint(s, 16, 16)
		if err == nil {
			return UUID16(uint16(v)), nil
		}
	}

	clean := strings.ReplaceAll(s, "-", "")
	if len(clean) != 32 {
		return nil, fmt.Errorf("sdp: invalid UUID string: %s", s)
	}

	be := make([]byte, 16)
	for i := 0; i < 16; i++ {
		v, err := strconv.ParseUint(clean[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("sdp: invalid UUID string: %s", s)
		}
		be[i] = byte(v)
	}

	return UUID(reverseBytes(be)), nil
}
