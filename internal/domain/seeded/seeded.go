// Package seeded picks items from fixed pools by hashing a composed key.
//
// The same key always selects the same item, so flavor text stays stable for
// a person across re-runs of the same dataset. There is no RNG state.
package seeded

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf16"
)

// keySeparator joins key parts.
const keySeparator = "|"

// ErrEmptyPool is the panic value (wrapped) when picking from an empty pool.
var ErrEmptyPool = errors.New("seeded pick from empty pool")

// Key composes key parts into a single seed string.
func Key(parts ...string) string {
	return strings.Join(parts, keySeparator)
}

// Hash is a 32-bit rolling hash: h = h*31 + c over the UTF-16 code units of
// key, wrapping on overflow.
func Hash(key string) int32 {
	var h int32
	for _, c := range utf16.Encode([]rune(key)) {
		h = h*31 + int32(c)
	}
	return h
}

// Index maps key onto [0, n). n must be positive.
func Index(key string, n int) int {
	h := int64(Hash(key))
	if h < 0 {
		h = -h
	}
	return int(h % int64(n))
}

// Pick returns the pool item selected by key. Picking from an empty pool is a
// programming error and panics with an error wrapping ErrEmptyPool.
func Pick[T any](pool []T, key string) T {
	if len(pool) == 0 {
		panic(fmt.Errorf("%w: key %q", ErrEmptyPool, key))
	}
	return pool[Index(key, len(pool))]
}
