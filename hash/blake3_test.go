package hash

import (
	"encoding/hex"
	"testing"
)

func TestBlake3Hasher(t *testing.T) {
	hasher := NewBlake3Hasher()
	buf := make([]byte, 16)
	input := []byte("hello world")
	buf = hasher.CryptoHash(input, buf)

	expected := "d74981efa70a0c880b8d8c1985d075db"
	observed := hex.EncodeToString(buf)
	if observed != expected {
		t.Fatalf("expected hash %q but observed %q", expected, observed)
	}

	if obs2 := Blake3sum16(input); obs2 != expected {
		t.Fatalf("expected hash %q but observed from Blake3sum16 %q", expected, obs2)
	}
}
