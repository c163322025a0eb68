package packet

import (
	"bytes"
	"crypto/dsa"
	"crypto/md5"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"time"
)

// PublicKeyAlgorithm identifies the key algorithm of a public or
// secret key packet (RFC 4880, section 9.1).
type PublicKeyAlgorithm int

const (
	PubKeyAlgoRSA           PublicKeyAlgorithm = 1
	PubKeyAlgoRSAEncryptOnly PublicKeyAlgorithm = 2
	PubKeyAlgoRSASignOnly   PublicKeyAlgorithm = 3
	PubKeyAlgoDSA           PublicKeyAlgorithm = 17
)

// CanEncrypt reports whether this algorithm is usable for the
// asymmetric session-key packet of the Encryption Engine.
func (a PublicKeyAlgorithm) CanEncrypt() bool {
	return a == PubKeyAlgoRSA || a == PubKeyAlgoRSAEncryptOnly
}

// CanSign reports whether this algorithm is usable as a signing key.
func (a PublicKeyAlgorithm) CanSign() bool {
	return a == PubKeyAlgoRSA || a == PubKeyAlgoRSASignOnly || a == PubKeyAlgoDSA
}

var ErrUnsupportedVersion = errors.New("packet: unsupported public key version")

// PublicKey is the Packet collaborator's view of a public key: just
// the fields the cryptographic core reads (spec section 3).
type PublicKey struct {
	Version      int // 2, 3, or 4
	CreationTime time.Time
	DaysValid    int // v2/v3 only
	Algo         PublicKeyAlgorithm
	MPIs         map[byte]MPI // n,e / p,q,g,y

	RSA *rsa.PublicKey
	DSA *dsa.PublicKey
}

// FingerprintMaterial returns the byte chunks that are hashed to
// derive the key's fingerprint (spec section 4.3).
func (pk *PublicKey) FingerprintMaterial() []byte {
	if pk.Version >= 4 {
		body := pk.bodyBytes()
		var buf bytes.Buffer
		buf.WriteByte(0x99)
		binary.Write(&buf, binary.BigEndian, uint16(len(body)))
		buf.Write(body)
		return buf.Bytes()
	}
	// v2/v3: MD5 over the raw (unprefixed) magnitude bytes of the
	// public MPIs, RSA only.
	var buf bytes.Buffer
	buf.Write(pk.MPIs['n'])
	buf.Write(pk.MPIs['e'])
	return buf.Bytes()
}

// bodyBytes serializes the packet body (version through key material)
// without the outer packet header, i.e. what RFC 4880 5.5.2 describes.
func (pk *PublicKey) bodyBytes() []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(pk.Version))
	t := uint32(pk.CreationTime.Unix())
	binary.Write(&buf, binary.BigEndian, t)
	if pk.Version < 4 {
		binary.Write(&buf, binary.BigEndian, uint16(pk.DaysValid))
	}
	buf.WriteByte(byte(pk.Algo))
	for _, letter := range algoOrder(pk.Algo) {
		buf.Write(pk.MPIs[letter].EncodedBytes())
	}
	return buf.Bytes()
}

func algoOrder(algo PublicKeyAlgorithm) []byte {
	switch algo {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		return []byte{'n', 'e'}
	case PubKeyAlgoDSA:
		return []byte{'p', 'q', 'g', 'y'}
	default:
		return nil
	}
}

// Serialize writes the full public-key packet (header + body) to buf.
func (pk *PublicKey) Serialize() []byte {
	body := pk.bodyBytes()
	var buf bytes.Buffer
	writeHeader(&buf, TagPublicKey, len(body))
	buf.Write(body)
	return buf.Bytes()
}

// ParsePublicKey parses a public-key packet body (without the packet
// header) per RFC 4880 section 5.5.2.
func ParsePublicKey(body []byte) (*PublicKey, error) {
	return parsePublicKeyFields(bytes.NewReader(body))
}

// parsePublicKeyFields reads the version/creation-time/algo/MPI
// fields shared by PublicKey packets and the public-key prefix of
// SecretKey packets (RFC 4880 sections 5.5.1.1 and 5.5.3), leaving r
// positioned right after them so a SecretKey can keep reading its own
// S2K and private-MPI fields from the same reader.
func parsePublicKeyFields(r *bytes.Reader) (*PublicKey, error) {
	var verBuf [1]byte
	if err := readFull(r, verBuf[:]); err != nil {
		return nil, err
	}
	pk := &PublicKey{Version: int(verBuf[0]), MPIs: map[byte]MPI{}}
	if pk.Version != 2 && pk.Version != 3 && pk.Version != 4 {
		return nil, ErrUnsupportedVersion
	}
	var created [4]byte
	if err := readFull(r, created[:]); err != nil {
		return nil, err
	}
	pk.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(created[:])), 0)
	if pk.Version < 4 {
		var days [2]byte
		if err := readFull(r, days[:]); err != nil {
			return nil, err
		}
		pk.DaysValid = int(binary.BigEndian.Uint16(days[:]))
	}
	var algoBuf [1]byte
	if err := readFull(r, algoBuf[:]); err != nil {
		return nil, err
	}
	pk.Algo = PublicKeyAlgorithm(algoBuf[0])
	for _, letter := range algoOrder(pk.Algo) {
		m, err := ReadMPI(r)
		if err != nil {
			return nil, err
		}
		pk.MPIs[letter] = m
	}
	pk.buildKey()
	return pk, nil
}

func (pk *PublicKey) buildKey() {
	switch pk.Algo {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		e := 0
		for _, b := range pk.MPIs['e'] {
			e = e<<8 | int(b)
		}
		pk.RSA = &rsa.PublicKey{N: pk.MPIs['n'].Int(), E: e}
	case PubKeyAlgoDSA:
		pk.DSA = &dsa.PublicKey{
			Parameters: dsa.Parameters{
				P: pk.MPIs['p'].Int(),
				Q: pk.MPIs['q'].Int(),
				G: pk.MPIs['g'].Int(),
			},
			Y: pk.MPIs['y'].Int(),
		}
	}
}

// NewRSAPublicKey builds a v4 RSA PublicKey packet value from a
// standard library key.
func NewRSAPublicKey(created time.Time, pub *rsa.PublicKey) *PublicKey {
	e := big.NewInt(int64(pub.E))
	pk := &PublicKey{
		Version:      4,
		CreationTime: created,
		Algo:         PubKeyAlgoRSA,
		MPIs: map[byte]MPI{
			'n': MPI(pub.N.Bytes()),
			'e': MPI(e.Bytes()),
		},
		RSA: pub,
	}
	return pk
}

// NewDSAPublicKey builds a v4 DSA PublicKey packet value from a
// standard library key.
func NewDSAPublicKey(created time.Time, pub *dsa.PublicKey) *PublicKey {
	pk := &PublicKey{
		Version:      4,
		CreationTime: created,
		Algo:         PubKeyAlgoDSA,
		MPIs: map[byte]MPI{
			'p': MPI(pub.P.Bytes()),
			'q': MPI(pub.Q.Bytes()),
			'g': MPI(pub.G.Bytes()),
			'y': MPI(pub.Y.Bytes()),
		},
		DSA: pub,
	}
	return pk
}

// FingerprintHex returns the fingerprint as used by spec section 4.3:
// SHA-1 (v4) or MD5 (v2/v3) of the fingerprint material, uppercase
// hex, zero-padded to the hash output width.
func (pk *PublicKey) FingerprintHex() (string, error) {
	raw, err := pk.FingerprintRaw()
	if err != nil {
		return "", err
	}
	return upperHex(raw), nil
}

// FingerprintRaw returns the raw digest bytes of the fingerprint.
func (pk *PublicKey) FingerprintRaw() ([]byte, error) {
	material := pk.FingerprintMaterial()
	switch {
	case pk.Version == 4:
		h := sha1.Sum(material)
		return h[:], nil
	case pk.Version == 2 || pk.Version == 3:
		h := md5.Sum(material)
		return h[:], nil
	default:
		return nil, ErrUnsupportedVersion
	}
}

// KeyID returns the last 8 bytes of the fingerprint (16 hex chars),
// the identifier used to match signatures and session-key packets to
// keys.
func (pk *PublicKey) KeyID() ([]byte, error) {
	fp, err := pk.FingerprintRaw()
	if err != nil {
		return nil, err
	}
	if len(fp) < 8 {
		return nil, ErrMalformed
	}
	return fp[len(fp)-8:], nil
}

func upperHex(b []byte) string {
	s := hex.EncodeToString(b)
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'a' && c <= 'f' {
			c -= 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
