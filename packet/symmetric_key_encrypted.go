package packet

import (
	"bytes"
	"io"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/ocfb"
	"github.com/alios/openpgp-cryptoapi/s2k"
)

// SymmetricSessionKey is a version 4 Symmetric-Key Encrypted Session
// Key packet (RFC 4880 section 5.3): a passphrase-derived key,
// optionally itself wrapping a separately chosen session key under
// plain CFB.
type SymmetricSessionKey struct {
	Cipher    algorithm.CipherAlgo
	S2K       s2k.Spec
	Encrypted []byte // present only when a session key was wrapped; nil means "use the S2K key directly"
}

// ParseSymmetricSessionKey parses a version-4 packet body.
func ParseSymmetricSessionKey(body []byte) (*SymmetricSessionKey, error) {
	r := bytes.NewReader(body)
	var header [2]byte
	if err := readFull(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != 4 {
		return nil, ErrUnsupportedPacket
	}
	k := &SymmetricSessionKey{Cipher: algorithm.CipherAlgo(header[1])}
	spec, err := readS2K(r)
	if err != nil {
		return nil, err
	}
	k.S2K = spec
	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrMalformed
	}
	if len(rest) > 0 {
		k.Encrypted = rest
	}
	return k, nil
}

// Serialize writes the full symmetric-key-encrypted-session-key packet.
func (k *SymmetricSessionKey) Serialize() []byte {
	var body bytes.Buffer
	body.WriteByte(4)
	body.WriteByte(byte(k.Cipher))
	writeS2K(&body, k.S2K)
	if k.Encrypted != nil {
		body.Write(k.Encrypted)
	}

	var buf bytes.Buffer
	writeHeader(&buf, TagSymmetricKeyEncrypted, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

func writeS2K(w io.Writer, s s2k.Spec) {
	w.Write([]byte{byte(s.Mode), byte(s.Hash)})
	switch s.Mode {
	case s2k.ModeSalted:
		w.Write(s.Salt)
	case s2k.ModeIterated:
		w.Write(s.Salt)
		w.Write([]byte{s2k.EncodeCount(s.Count)})
	}
}

// DerivedKey derives the passphrase key for this packet's S2K spec,
// sized to the packet's cipher.
func (k *SymmetricSessionKey) DerivedKey(passphrase []byte) ([]byte, error) {
	keySize, err := k.Cipher.KeySize()
	if err != nil {
		return nil, err
	}
	return s2k.Stream(k.S2K, passphrase, keySize)
}

// SessionKey recovers the actual message session key: either the
// derived passphrase key itself (Encrypted == nil) or that key used to
// plain-CFB-decrypt the embedded session key blob (spec section 4.2's
// "Plain CFB" usage, distinct from the EncryptedData prefix CFB).
func (k *SymmetricSessionKey) SessionKey(passphrase []byte) (cipherAlgo byte, key []byte, err error) {
	derived, err := k.DerivedKey(passphrase)
	if err != nil {
		return 0, nil, err
	}
	if k.Encrypted == nil {
		return byte(k.Cipher), derived, nil
	}
	block, err := k.Cipher.New(derived)
	if err != nil {
		return 0, nil, err
	}
	plain := ocfb.SimpleDecrypt(block, k.Encrypted)
	if len(plain) == 0 {
		return 0, nil, ErrMalformed
	}
	return plain[0], plain[1:], nil
}

// NewSymmetricSessionKey builds a version 4 packet that wraps
// sessionKey (cipher-byte‖key bytes, no checksum per RFC 4880 5.3)
// under a freshly derived passphrase key.
func NewSymmetricSessionKey(randSource io.Reader, spec s2k.Spec, passphrase []byte, wrapCipher algorithm.CipherAlgo, sessionCipherByte byte, sessionKey []byte) (*SymmetricSessionKey, error) {
	k := &SymmetricSessionKey{Cipher: wrapCipher, S2K: spec}
	derived, err := k.DerivedKey(passphrase)
	if err != nil {
		return nil, err
	}
	block, err := wrapCipher.New(derived)
	if err != nil {
		return nil, err
	}
	plain := append([]byte{sessionCipherByte}, sessionKey...)
	k.Encrypted = ocfb.SimpleEncrypt(block, plain)
	return k, nil
}
