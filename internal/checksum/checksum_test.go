package checksum

import "testing"

func TestCodeEmpty(t *testing.T) {
	// Keccak-256 of the empty input.
	want := "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
	if got := Code(nil); got != want {
		t.Errorf("Code(nil) = %s, want %s", got, want)
	}
}

func TestCodeDiffers(t *testing.T) {
	if Code([]byte{0x60, 0x00}) == Code([]byte{0x60, 0x01}) {
		t.Error("different code produced the same checksum")
	}
}
