// Package hash implements the HashVisitor contract: a deterministic,
// fixed-size hash of a single scalar field value dispatched on field kind,
// plus the combined-key fold used by the index package.
package hash

import (
	"fmt"
	"sync"

	"github.com/zeebo/blake3"
)

// Blake3Hasher is a goroutine-safe way to obtain a BLAKE3 cryptographic
// hash of input []byte. The github.com/zeebo/blake3 implementation is
// AVX2/SSE4.1 accelerated, which is why it backs the string/char path of
// the blake3 hash engine below instead of a stdlib hash.
type Blake3Hasher struct {
	hasher   *blake3.Hasher
	hasherMu sync.Mutex
}

// NewBlake3Hasher returns a new Blake3Hasher.
func NewBlake3Hasher() *Blake3Hasher {
	return &Blake3Hasher{hasher: blake3.New()}
}

// CryptoHash writes the BLAKE3 hash of input into buffer and returns it.
// Like the standard library's hash.Hash Sum() method, buffer is reused to
// avoid allocation; its length determines the digest length produced.
func (w *Blake3Hasher) CryptoHash(input []byte, buffer []byte) (outputCryptohash []byte) {
	w.hasherMu.Lock()
	w.hasher.Reset()
	_, _ = w.hasher.Write(input)
	_, _ = w.hasher.Digest().Read(buffer)
	w.hasherMu.Unlock()
	return buffer
}

// Blake3sum16 returns a 16 byte hash as a hexadecimal string. It allocates a
// new hasher on every call, so it's only meant for occasional debug use.
func Blake3sum16(input []byte) string {
	hasher := blake3.New()
	_, _ = hasher.Write(input)
	var buf [16]byte
	_, _ = hasher.Digest().Read(buf[0:])
	return fmt.Sprintf("%x", buf)
}
