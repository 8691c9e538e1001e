package services

import (
	"crypto/sha256"
	"encoding/binary"
	"strings"
)

// CIBIL score bounds used by the deterministic mock.
const (
	cibilFloor   = 300
	cibilCeiling = 900
)

// MockCibilScore derives a stable pseudo-score from a PAN. The same PAN
// always yields the same score, which keeps application snapshots and the
// lookup endpoint consistent without a bureau integration.
func MockCibilScore(pan string) int {
	pan = strings.ToUpper(strings.TrimSpace(pan))
	if pan == "" {
		return cibilFloor
	}

	digest := sha256.Sum256([]byte(pan))
	n := binary.BigEndian.Uint32(digest[:4])
	return cibilFloor + int(n%uint32(cibilCeiling-cibilFloor+1))
}
