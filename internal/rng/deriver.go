package rng

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/google/uuid"
)

// DeriveOutcomes expands one oracle seed into count independent per-ball
// outcomes. Each outcome is the low 16 bits of SHA-256(seed LE || index LE),
// so the sequence is fully determined by (seed, count) and can be replayed
// for audit. 16 bits of range is ample for bucket counts up to 100.
func DeriveOutcomes(seed uint64, count int) []uint16 {
	out := make([]uint16, 0, count)

	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], seed)

	for i := 0; i < count; i++ {
		binary.LittleEndian.PutUint64(buf[8:16], uint64(i))
		sum := sha256.Sum256(buf[:])
		out = append(out, binary.LittleEndian.Uint16(sum[0:2]))
	}

	return out
}

// RequestID derives the randomness request id for a game: the low 64 bits of
// SHA-256(gameID LE || player || unix timestamp LE). The id is stored on the
// game record at open and cross-checked at resolution to reject mismatched
// fulfillments.
func RequestID(gameID uint64, player uuid.UUID, unixTime int64) uint64 {
	h := sha256.New()

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], gameID)
	h.Write(buf[:])

	h.Write(player[:])

	binary.LittleEndian.PutUint64(buf[:], uint64(unixTime))
	h.Write(buf[:])

	return binary.LittleEndian.Uint64(h.Sum(nil)[0:8])
}
