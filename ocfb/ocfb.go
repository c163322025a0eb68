// Package ocfb implements the RFC 4880 section 13.9 cipher-feedback
// variant used by OpenPGP's symmetrically encrypted data: a random IV
// prefix with a two-octet quick-check repeat, CFB mode with a zero IV,
// and pad-then-drop framing (spec section 4.2).
package ocfb

import (
	"crypto/cipher"
	"errors"
	"io"
)

// ErrShort is returned when ciphertext is too short to contain even
// the prefix.
var ErrShort = errors.New("ocfb: ciphertext too short")

// SuffixFunc computes the trailing bytes appended after prefix‖plaintext
// before encryption, given the already-generated random prefix and the
// plaintext. Only one variant is used in this module: the MDC suffix.
type SuffixFunc func(prefix, plaintext []byte) []byte

// Encrypt implements pgpCFB: it generates a random block-sized prefix,
// repeats its last two bytes as a quick-check, appends plaintext and
// whatever suffix fn computes over (prefix, plaintext), then CFB
// encrypts the whole body with IV=0, padding to a block boundary and
// dropping the padding tail unconditionally (even when no padding was
// needed, per spec section 4.2 edge case).
func Encrypt(block cipher.Block, rand io.Reader, plaintext []byte, fn SuffixFunc) ([]byte, error) {
	blockSize := block.BlockSize()
	prefix := make([]byte, blockSize+2)
	if _, err := io.ReadFull(rand, prefix[:blockSize]); err != nil {
		return nil, err
	}
	copy(prefix[blockSize:], prefix[blockSize-2:blockSize])

	body := append([]byte{}, prefix...)
	body = append(body, plaintext...)
	if fn != nil {
		body = append(body, fn(prefix, plaintext)...)
	}

	padded := padToBlock(body, blockSize)
	iv := make([]byte, blockSize)
	stream := cipher.NewCFBEncrypter(block, iv)
	out := make([]byte, len(padded))
	stream.XORKeyStream(out, padded)
	return out[:len(body)], nil
}

// Decrypt implements pgpUnCFB: it CFB-decrypts the full ciphertext
// with IV=0 under the same zero-padding convention, then splits off
// the prefix-plus-quick-check (blockSize+2 bytes) from the rest.
// Callers may validate the quick check themselves; high-level flows
// treat the MDC as authoritative instead (spec section 4.2).
func Decrypt(block cipher.Block, ciphertext []byte) (prefixAndCheck, rest []byte, err error) {
	blockSize := block.BlockSize()
	if len(ciphertext) < blockSize+2 {
		return nil, nil, ErrShort
	}
	padded := padToBlock(ciphertext, blockSize)
	iv := make([]byte, blockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	out := make([]byte, len(padded))
	stream.XORKeyStream(out, padded)
	out = out[:len(ciphertext)]
	return out[:blockSize+2], out[blockSize+2:], nil
}

// SimpleDecrypt is the plain CFB mode used for S2K-protected session
// keys: no prefix handling, IV is the given block of zero bytes sized
// to the cipher's block size (spec section 4.2, "Plain CFB").
func SimpleDecrypt(block cipher.Block, ciphertext []byte) []byte {
	blockSize := block.BlockSize()
	iv := make([]byte, blockSize)
	stream := cipher.NewCFBDecrypter(block, iv)
	out := make([]byte, len(ciphertext))
	stream.XORKeyStream(out, ciphertext)
	return out
}

// SimpleEncrypt is the plain-CFB counterpart of SimpleDecrypt, used to
// protect the session key embedded in a SymmetricSessionKey packet.
func SimpleEncrypt(block cipher.Block, plaintext []byte) []byte {
	blockSize := block.BlockSize()
	iv := make([]byte, blockSize)
	stream := cipher.NewCFBEncrypter(block, iv)
	out := make([]byte, len(plaintext))
	stream.XORKeyStream(out, plaintext)
	return out
}

// padToBlock zero-pads body up to a multiple of blockSize, always
// adding at least one pad block when body is already aligned (the
// pad-then-unpad step is unconditional, per spec section 4.2).
func padToBlock(body []byte, blockSize int) []byte {
	padded := make([]byte, ((len(body)/blockSize)+1)*blockSize)
	copy(padded, body)
	return padded
}
