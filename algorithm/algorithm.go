// Package algorithm is the Primitives Adapter: uniform access to the
// block ciphers and hashes OpenPGP names by algorithm tag (spec
// section 4.1).
package algorithm

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"hash"

	"golang.org/x/crypto/blowfish"
	"golang.org/x/crypto/ripemd160"
)

// ErrUnsupported is returned for algorithm tags this adapter does not
// implement.
var ErrUnsupported = errors.New("algorithm: unsupported")

// HashAlgo identifies an OpenPGP hash algorithm tag (RFC 4880, section 9.4).
type HashAlgo byte

const (
	HashMD5       HashAlgo = 1
	HashSHA1      HashAlgo = 2
	HashRIPEMD160 HashAlgo = 3
	HashSHA256    HashAlgo = 8
	HashSHA384    HashAlgo = 9
	HashSHA512    HashAlgo = 10
	HashSHA224    HashAlgo = 11
)

// New returns a fresh hash.Hash for the given algorithm tag.
func (h HashAlgo) New() (hash.Hash, error) {
	switch h {
	case HashMD5:
		return md5.New(), nil
	case HashSHA1:
		return sha1.New(), nil
	case HashRIPEMD160:
		return ripemd160.New(), nil
	case HashSHA256:
		return sha256.New(), nil
	case HashSHA384:
		return sha512.New384(), nil
	case HashSHA512:
		return sha512.New(), nil
	case HashSHA224:
		return sha256.New224(), nil
	default:
		return nil, ErrUnsupported
	}
}

// Size returns the digest size in bytes for the given algorithm tag.
func (h HashAlgo) Size() (int, error) {
	n, err := h.New()
	if err != nil {
		return 0, err
	}
	return n.Size(), nil
}

// Hash hashes data and returns both the raw digest and its uppercase
// hex rendering, per spec section 4.1.
func Hash(h HashAlgo, data []byte) (raw []byte, hexUpper string, err error) {
	hh, err := h.New()
	if err != nil {
		return nil, "", err
	}
	hh.Write(data)
	raw = hh.Sum(nil)
	hexUpper = upperHex(raw)
	return raw, hexUpper, nil
}

func upperHex(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xf]
	}
	return string(out)
}

// EMSAPKCS1Prefix returns the DigestInfo DER prefix for EMSA-PKCS1-v1_5
// signatures (RFC 3447, RFC 4880 section 5.2.2). These are literal,
// fixed byte tables; only the algorithms OpenPGP actually names are
// populated.
func EMSAPKCS1Prefix(h HashAlgo) ([]byte, error) {
	switch h {
	case HashMD5:
		return []byte{
			0x30, 0x20, 0x30, 0x0c, 0x06, 0x08, 0x2a, 0x86, 0x48, 0x86, 0xf7, 0x0d,
			0x02, 0x05, 0x05, 0x00, 0x04, 0x10,
		}, nil
	case HashSHA1:
		return []byte{
			0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x0e, 0x03, 0x02, 0x1a, 0x05,
			0x00, 0x04, 0x14,
		}, nil
	case HashRIPEMD160:
		return []byte{
			0x30, 0x21, 0x30, 0x09, 0x06, 0x05, 0x2b, 0x24, 0x03, 0x02, 0x01, 0x05,
			0x00, 0x04, 0x14,
		}, nil
	case HashSHA224:
		return []byte{
			0x30, 0x2d, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03,
			0x04, 0x02, 0x04, 0x05, 0x00, 0x04, 0x1c,
		}, nil
	case HashSHA256:
		return []byte{
			0x30, 0x31, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03,
			0x04, 0x02, 0x01, 0x05, 0x00, 0x04, 0x20,
		}, nil
	case HashSHA384:
		return []byte{
			0x30, 0x41, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03,
			0x04, 0x02, 0x02, 0x05, 0x00, 0x04, 0x30,
		}, nil
	case HashSHA512:
		return []byte{
			0x30, 0x51, 0x30, 0x0d, 0x06, 0x09, 0x60, 0x86, 0x48, 0x01, 0x65, 0x03,
			0x04, 0x02, 0x03, 0x05, 0x00, 0x04, 0x40,
		}, nil
	default:
		return nil, ErrUnsupported
	}
}

// CipherAlgo identifies an OpenPGP symmetric-cipher algorithm tag
// (RFC 4880, section 9.2).
type CipherAlgo byte

const (
	CipherAES128    CipherAlgo = 7
	CipherAES192    CipherAlgo = 8
	CipherAES256    CipherAlgo = 9
	CipherBlowfish  CipherAlgo = 4
)

// KeySize returns the key length in bytes for the given cipher tag.
func (c CipherAlgo) KeySize() (int, error) {
	switch c {
	case CipherAES128:
		return 16, nil
	case CipherAES192:
		return 24, nil
	case CipherAES256:
		return 32, nil
	case CipherBlowfish:
		// The library commits to 128-bit Blowfish regardless of the
		// range RFC 4880 otherwise permits (spec section 4.1).
		return 16, nil
	default:
		return 0, ErrUnsupported
	}
}

// BlockSize returns the cipher's block size in bytes.
func (c CipherAlgo) BlockSize() (int, error) {
	switch c {
	case CipherAES128, CipherAES192, CipherAES256:
		return aes.BlockSize, nil
	case CipherBlowfish:
		return blowfish.BlockSize, nil
	default:
		return 0, ErrUnsupported
	}
}

// New constructs a fresh cipher.Block for the given tag and key. The
// key must already be the exact length KeySize reports.
func (c CipherAlgo) New(key []byte) (cipher.Block, error) {
	size, err := c.KeySize()
	if err != nil {
		return nil, err
	}
	if len(key) != size {
		return nil, ErrUnsupported
	}
	switch c {
	case CipherAES128, CipherAES192, CipherAES256:
		return aes.NewCipher(key)
	case CipherBlowfish:
		return blowfish.NewCipher(key)
	default:
		return nil, ErrUnsupported
	}
}
