package manifest

import (
	"strconv"
)

const (
	// Hashes above this value are stored as negative numbers by the catalog.
	maxPositiveHash = 2147483646
	hashSpace       = 4294967296
)

// HashKey returns the catalog key for a hash supplied either as an unsigned
// 32-bit value or as its signed wrap-around.
func HashKey(h int64) int64 {
	if h > maxPositiveHash {
		return h - hashSpace
	}
	return h
}

// Hash is a 32-bit catalog identifier. It decodes both the unsigned form used
// by API responses and the signed form some catalog dumps carry.
type Hash uint32

func (h *Hash) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	if v < 0 {
		v += hashSpace
	}
	*h = Hash(uint32(v))
	return nil
}

// Key is the catalog lookup key for h.
func (h Hash) Key() int64 {
	return HashKey(int64(h))
}
