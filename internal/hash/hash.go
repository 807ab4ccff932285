// Package hash implements the FNV-1a 32-bit hash used on the wire by IGA
// archives and IGZ fixups. The algorithm is fixed by the formats that embed
// its output, so this is a from-scratch implementation rather than a thin
// wrapper around hash/fnv: the case-insensitive variant needs to fold ASCII
// case mid-stream, which hash/fnv has no hook for.
package hash

const (
	offsetBasis uint32 = 2166136261
	prime       uint32 = 16777619
)

// Hash computes FNV-1a over b.
func Hash(b []byte) uint32 {
	h := offsetBasis
	for _, c := range b {
		h ^= uint32(c)
		h *= prime
	}
	return h
}

// HashCaseInsensitive computes FNV-1a as if every ASCII uppercase letter in b
// were first folded to lowercase.
func HashCaseInsensitive(b []byte) uint32 {
	h := offsetBasis
	for _, c := range b {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		h ^= uint32(c)
		h *= prime
	}
	return h
}

// String is a convenience wrapper avoiding a []byte conversion at call sites.
func String(s string) uint32 { return Hash([]byte(s)) }

// StringCaseInsensitive is the case-insensitive counterpart of String.
func StringCaseInsensitive(s string) uint32 { return HashCaseInsensitive([]byte(s)) }
