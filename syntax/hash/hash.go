package hash

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/chazu/tiersplit/syntax"
)

// Sum computes the SHA-256 structural digest of a tree.
//
// The digest covers node kinds, names, literal values and child order but
// not source positions, so a tree and its clone with relocated positions
// hash the same.
func Sum(node syntax.Node) [32]byte {
	return sha256.Sum256(Serialize(node))
}

// Equal reports whether two trees are structurally identical.
func Equal(a, b syntax.Node) bool {
	return Sum(a) == Sum(b)
}

// Hex returns the digest of node as a lowercase hex string.
func Hex(node syntax.Node) string {
	sum := Sum(node)
	return hex.EncodeToString(sum[:])
}
