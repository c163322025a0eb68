package packet

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"io"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/ocfb"
)

// ErrMDCMismatch is returned when a decrypted EncryptedData payload's
// embedded MDC digest does not match the recomputed one (spec section
// 4.6, seed scenario S7).
var ErrMDCMismatch = errors.New("packet: MDC mismatch")

// mdcSuffix computes the Modification Detection Code trailer appended
// inside an MDC-protected EncryptedData payload: SHA-1 over
// prefix‖plaintext‖0xD3 0x14, packaged as its own 22-byte packet (RFC
// 4880 section 5.13, spec section 4.2).
func mdcSuffix(prefix, plaintext []byte) []byte {
	h := sha1.New()
	h.Write(prefix)
	h.Write(plaintext)
	h.Write([]byte{0xD3, 0x14})
	digest := h.Sum(nil)
	out := make([]byte, 0, 2+len(digest))
	out = append(out, 0x80|0x40|byte(TagMDC), byte(len(digest)))
	out = append(out, digest...)
	return out
}

// EncryptedData is a Sym. Encrypted and Integrity Protected Data
// packet (tag 18, RFC 4880 section 5.13). This library only produces
// and consumes the MDC-protected form.
type EncryptedData struct {
	Encrypted []byte // OpenPGP-CFB ciphertext; the version byte is added by Serialize and stripped by ParseEncryptedData
}

// ParseEncryptedData parses an EncryptedData packet body.
func ParseEncryptedData(body []byte) (*EncryptedData, error) {
	if len(body) < 1 || body[0] != 1 {
		return nil, ErrUnsupportedPacket
	}
	return &EncryptedData{Encrypted: body[1:]}, nil
}

// Serialize writes the full EncryptedData packet.
func (e *EncryptedData) Serialize() []byte {
	var body bytes.Buffer
	body.WriteByte(1)
	body.Write(e.Encrypted)

	var buf bytes.Buffer
	writeHeader(&buf, TagSymmetricallyEncrypted, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// Encrypt builds an MDC-protected EncryptedData packet over plaintext
// (already the serialized inner packet stream) using the given cipher
// and key (spec section 4.5).
func Encrypt(randSource io.Reader, cipherAlgo algorithm.CipherAlgo, key, plaintext []byte) (*EncryptedData, error) {
	block, err := cipherAlgo.New(key)
	if err != nil {
		return nil, err
	}
	ct, err := ocfb.Encrypt(block, randSource, plaintext, mdcSuffix)
	if err != nil {
		return nil, err
	}
	return &EncryptedData{Encrypted: ct}, nil
}

// Decrypt reverses Encrypt, returning the inner plaintext after
// verifying the embedded MDC (spec section 4.6).
func (e *EncryptedData) Decrypt(cipherAlgo algorithm.CipherAlgo, key []byte) ([]byte, error) {
	block, err := cipherAlgo.New(key)
	if err != nil {
		return nil, err
	}
	prefix, rest, err := ocfb.Decrypt(block, e.Encrypted)
	if err != nil {
		return nil, err
	}
	if len(rest) < 22 {
		return nil, ErrMDCMismatch
	}
	plaintext := rest[:len(rest)-22]
	trailer := rest[len(rest)-22:]

	h := sha1.New()
	h.Write(prefix)
	h.Write(plaintext)
	h.Write([]byte{0xD3, 0x14})
	want := h.Sum(nil)

	if trailer[0] != 0x80|0x40|byte(TagMDC) || trailer[1] != byte(len(want)) || !bytes.Equal(trailer[2:], want) {
		return nil, ErrMDCMismatch
	}
	return plaintext, nil
}
