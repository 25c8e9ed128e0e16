package corpus

import (
	"crypto/sha256"
	"encoding/hex"
)

const fingerprintPrefix = "snapshot:"

// Fingerprint returns a stable identifier for the snapshot's row order.
// Any reordering, insertion or removal of records changes it.
func (s *Snapshot) Fingerprint() string {
	h := sha256.New()
	for _, rec := range s.Records {
		h.Write([]byte(rec.CaseID))
		h.Write([]byte{0})
	}
	return fingerprintPrefix + hex.EncodeToString(h.Sum(nil))
}
