package primitives

import "crypto/subtle"

// SecureZero overwrites b with zeros to shrink the window during which key
// material is recoverable from memory. Go's garbage collector and compiler
// optimizations mean this cannot guarantee complete erasure, but
// subtle.ConstantTimeCopy prevents the store from being optimized away.
func SecureZero(b []byte) {
	if len(b) == 0 {
		return
	}
	zeros := make([]byte, len(b))
	subtle.ConstantTimeCopy(1, b, zeros)
}

// SecureZeroAll zeros every slice passed in, for cleaning up a group of
// related ephemeral keys or subkeys in one call.
func SecureZeroAll(slices ...[]byte) {
	for _, s := range slices {
		SecureZero(s)
	}
}
