// Package s2k implements RFC 4880 section 3.7.1 string-to-key
// expansion: simple, salted, and iterated-and-salted hashing of a
// passphrase into key material. Ported and generalized from the
// teacher's single hard-coded SHA-256 s2k() helper in
// openpgp/signkey.go to any algorithm.HashAlgo.
package s2k

import (
	"github.com/alios/openpgp-cryptoapi/algorithm"
)

// Mode identifies the S2K specifier type (RFC 4880 section 3.7.1).
type Mode byte

const (
	ModeSimple   Mode = 0
	ModeSalted   Mode = 1
	ModeIterated Mode = 3
)

// Spec is an S2K specifier: how to turn a passphrase into key bytes.
type Spec struct {
	Mode  Mode
	Hash  algorithm.HashAlgo
	Salt  []byte // ModeSalted, ModeIterated
	Count int    // decoded octet count, ModeIterated only
}

// DecodeCount expands the encoded (RFC 4880) iteration-count octet
// into the actual number of input octets to hash.
func DecodeCount(c byte) int {
	return (16 + int(c&15)) << (uint(c>>4) + 6)
}

// EncodeCount is the inverse of DecodeCount, rounding up to the
// nearest representable count.
func EncodeCount(count int) byte {
	for c := 0; c < 256; c++ {
		if DecodeCount(byte(c)) >= count {
			return byte(c)
		}
	}
	return 255
}

// Stream returns the infinite lazy expansion of passphrase under spec
// s; the core consumes exactly keyLen bytes. Multiple hash contexts
// are run in parallel with an increasing count of leading zero octets
// (RFC 4880 section 3.7.1.1), as required once keyLen exceeds a
// single digest's size.
func Stream(s Spec, passphrase []byte, keyLen int) ([]byte, error) {
	if _, err := s.Hash.Size(); err != nil {
		return nil, err
	}
	out := make([]byte, 0, keyLen)
	for zeros := 0; len(out) < keyLen; zeros++ {
		h, err := s.Hash.New()
		if err != nil {
			return nil, err
		}
		if zeros > 0 {
			h.Write(make([]byte, zeros))
		}
		switch s.Mode {
		case ModeSimple:
			h.Write(passphrase)
		case ModeSalted:
			h.Write(s.Salt)
			h.Write(passphrase)
		case ModeIterated:
			full := append(append([]byte{}, s.Salt...), passphrase...)
			if len(full) == 0 {
				break
			}
			count := s.Count
			if count < len(full) {
				count = len(full)
			}
			iterations := count / len(full)
			for i := 0; i < iterations; i++ {
				h.Write(full)
			}
			tail := count - iterations*len(full)
			h.Write(full[:tail])
		}
		out = append(out, h.Sum(nil)...)
	}
	return out[:keyLen], nil
}
