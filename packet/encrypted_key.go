package packet

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"io"
	"math/big"
)

// ErrKeyMismatch reports that a session-key packet's recipient key-id
// does not match a secret key. No function in this package returns
// it: DecryptSessionKey does not compare key ids.
var ErrKeyMismatch = errors.New("packet: recipient key id does not match")

// WildcardKeyID is the all-zero key-id RFC 4880 section 5.1 reserves
// for "hidden recipient": it matches any secret key offered to it
// (spec section 4.6).
const WildcardKeyID = "0000000000000000"

// AsymmetricSessionKey is a version 3 Public-Key Encrypted Session Key
// packet: an RSA-wrapped session key tagged with the recipient's key
// id (RFC 4880 section 5.1).
type AsymmetricSessionKey struct {
	KeyID      string // 16 hex chars, upper case; WildcardKeyID for hidden recipients
	Algo       PublicKeyAlgorithm
	Encrypted  MPI // RSA ciphertext of algo-byte‖key‖checksum
}

// ParseAsymmetricSessionKey parses a version-3 encrypted-key packet body.
func ParseAsymmetricSessionKey(body []byte) (*AsymmetricSessionKey, error) {
	r := bytes.NewReader(body)
	var header [10]byte
	if err := readFull(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != 3 {
		return nil, ErrUnsupportedPacket
	}
	k := &AsymmetricSessionKey{
		KeyID: upperHex(header[1:9]),
		Algo:  PublicKeyAlgorithm(header[9]),
	}
	mpi, err := ReadMPI(r)
	if err != nil {
		return nil, err
	}
	k.Encrypted = mpi
	return k, nil
}

// Serialize writes the full encrypted-key packet.
func (k *AsymmetricSessionKey) Serialize() []byte {
	var body bytes.Buffer
	body.WriteByte(3)
	idBytes, _ := hex.DecodeString(k.KeyID)
	body.Write(idBytes)
	body.WriteByte(byte(k.Algo))
	body.Write(k.Encrypted.EncodedBytes())

	var buf bytes.Buffer
	writeHeader(&buf, TagEncryptedKey, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// EncryptSessionKey wraps a session-key blob (cipher-algo byte,
// key bytes, and its additive checksum) for one recipient, per spec
// section 4.5.
func EncryptSessionKey(randSource io.Reader, pub *PublicKey, keyID string, sessionBlob []byte) (*AsymmetricSessionKey, error) {
	ct, err := rsa.EncryptPKCS1v15(randSource, pub.RSA, sessionBlob)
	if err != nil {
		return nil, err
	}
	return &AsymmetricSessionKey{
		KeyID:     keyID,
		Algo:      pub.Algo,
		Encrypted: NewMPI(new(big.Int).SetBytes(ct)),
	}, nil
}

// DecryptSessionKey recovers the session-key blob (cipher-algo byte,
// key bytes, checksum) from this packet using the given secret key,
// per spec section 4.6. Wildcard recipients (KeyID == WildcardKeyID)
// are matched by the caller before this is invoked.
func DecryptSessionKey(sk *SecretKey, k *AsymmetricSessionKey) ([]byte, error) {
	if sk.RSAPriv == nil {
		return nil, ErrUnsupportedPacket
	}
	return rsa.DecryptPKCS1v15(rand.Reader, sk.RSAPriv, k.Encrypted)
}

// SessionKeyBlob builds the algo‖key‖checksum byte string that is
// RSA-wrapped per recipient (spec section 4.5).
func SessionKeyBlob(cipherAlgo byte, key []byte) []byte {
	blob := make([]byte, 0, 1+len(key)+2)
	blob = append(blob, cipherAlgo)
	blob = append(blob, key...)
	sum := Checksum(key)
	blob = append(blob, byte(sum>>8), byte(sum))
	return blob
}

// SplitSessionKeyBlob reverses SessionKeyBlob, validating the checksum.
func SplitSessionKeyBlob(blob []byte) (cipherAlgo byte, key []byte, err error) {
	if len(blob) < 3 {
		return 0, nil, ErrMalformed
	}
	cipherAlgo = blob[0]
	key = blob[1 : len(blob)-2]
	want := uint16(blob[len(blob)-2])<<8 | uint16(blob[len(blob)-1])
	if Checksum(key) != want {
		return 0, nil, ErrMalformed
	}
	return cipherAlgo, key, nil
}
