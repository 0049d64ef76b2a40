package database

// NewBlockAt exposes fixed timestamp sealing to the tests.
var NewBlockAt = newBlockAt

// IsHashSolved exposes the target check on encoded hashes to the tests.
var IsHashSolved = isHashSolved

// HashAt computes the hash the puzzle produces for the nonce.
func HashAt(pow *ProofOfWork, nonce uint64) string {
	return pow.hash(nonce)
}
