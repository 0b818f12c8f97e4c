package session

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
)

// Digest hashes the prediction state: every slot's kind, tick, item, quantity
// and opacity plus the current and previous toggle masks. Wall-clock times are
// excluded so replays produce the same digest.
func (s *Session) Digest() string {
	h := sha256.New()
	var tmp [8]byte

	digestWriteU64(h, &tmp, uint64(s.store.Len()))
	for i := 0; i < s.store.Len(); i++ {
		p, _ := s.store.Get(i)
		tick, _ := p.ChangedTick()
		h.Write([]byte{byte(p.Kind()), byte(p.Opacity())})
		digestWriteU64(h, &tmp, tick)
		digestWriteU64(h, &tmp, uint64(int64(p.ItemID())))
		digestWriteU64(h, &tmp, uint64(p.Quantity()))
	}
	digestWriteU64(h, &tmp, uint64(s.tracker.Current()))
	digestWriteU64(h, &tmp, uint64(s.tracker.Previous()))
	return hex.EncodeToString(h.Sum(nil))
}

func digestWriteU64(h hash.Hash, tmp *[8]byte, v uint64) {
	binary.LittleEndian.PutUint64(tmp[:], v)
	h.Write(tmp[:])
}
