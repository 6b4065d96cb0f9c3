// Package digest computes the fixed-width key fingerprint used as the
// on-disk record slot for every entry in the coat-check store.
//
// Two distinct keys that happen to share an MD5 sum collide silently under
// this scheme — a known, accepted limitation inherited from the original
// design rather than a defect introduced here.
package digest

import (
	"crypto/md5"
	"encoding/hex"
)

// Width is the length in bytes of the hex-encoded digest, H in the on-disk
// record layout.
const Width = 32

// Key returns the 32-character lowercase hex MD5 digest of raw. The result
// is deterministic and case-sensitive on the input bytes.
func Key(raw []byte) string {
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}
