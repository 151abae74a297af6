// Package checksum identifies contract bytecode.
package checksum

import "github.com/ethereum/go-ethereum/crypto"

// Code returns the 0x-prefixed Keccak-256 hash of the creation bytecode,
// the same digest block explorers show for verified builds.
func Code(code []byte) string {
	return crypto.Keccak256Hash(code).Hex()
}
