package packet

import (
	"bytes"
	"crypto"
	"crypto/dsa"
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"time"

	"github.com/alios/openpgp-cryptoapi/algorithm"
)

// ErrBadSignature is returned by Verify when the signature does not
// match the hashed content.
var ErrBadSignature = errors.New("packet: bad signature")

const (
	SubpacketCreationTime = 2
	SubpacketIssuer       = 16
)

// subpacket is one hashed or unhashed signature subpacket (RFC 4880
// section 5.2.3.1).
type subpacket struct {
	Type byte
	Data []byte
}

func (s subpacket) encode(buf *bytes.Buffer) {
	buf.WriteByte(byte(len(s.Data) + 1))
	buf.WriteByte(s.Type)
	buf.Write(s.Data)
}

func parseSubpackets(r *bytes.Reader) ([]subpacket, error) {
	var out []subpacket
	for r.Len() > 0 {
		var lenBuf [1]byte
		if err := readFull(r, lenBuf[:]); err != nil {
			return nil, err
		}
		length := int(lenBuf[0]) - 1
		if length < 0 {
			return nil, ErrMalformed
		}
		var typeBuf [1]byte
		if err := readFull(r, typeBuf[:]); err != nil {
			return nil, err
		}
		data := make([]byte, length)
		if err := readFull(r, data); err != nil {
			return nil, err
		}
		out = append(out, subpacket{Type: typeBuf[0], Data: data})
	}
	return out, nil
}

// Signature is an OpenPGP version 4 signature packet (RFC 4880
// section 5.2).
type Signature struct {
	Version     int
	SigType     byte
	PubKeyAlgo  PublicKeyAlgorithm
	HashAlgo    algorithm.HashAlgo
	Hashed      []subpacket
	Unhashed    []subpacket
	HashHead    uint16
	MPIs        map[byte]MPI // r,s for DSA; s for RSA

	CreationTime time.Time
	IssuerKeyID  string // 16 hex chars
}

// ParseSignature parses a signature packet body (version 4 only).
func ParseSignature(body []byte) (*Signature, error) {
	r := bytes.NewReader(body)
	var header [4]byte
	if err := readFull(r, header[:]); err != nil {
		return nil, err
	}
	if header[0] != 4 {
		return nil, ErrUnsupportedPacket
	}
	sig := &Signature{
		Version:    int(header[0]),
		SigType:    header[1],
		PubKeyAlgo: PublicKeyAlgorithm(header[2]),
		HashAlgo:   algorithm.HashAlgo(header[3]),
	}

	var hashedLen [2]byte
	if err := readFull(r, hashedLen[:]); err != nil {
		return nil, err
	}
	hl := int(binary.BigEndian.Uint16(hashedLen[:]))
	hashedBytes := make([]byte, hl)
	if err := readFull(r, hashedBytes); err != nil {
		return nil, err
	}
	hashed, err := parseSubpackets(bytes.NewReader(hashedBytes))
	if err != nil {
		return nil, err
	}
	sig.Hashed = hashed

	var unhashedLen [2]byte
	if err := readFull(r, unhashedLen[:]); err != nil {
		return nil, err
	}
	ul := int(binary.BigEndian.Uint16(unhashedLen[:]))
	unhashedBytes := make([]byte, ul)
	if err := readFull(r, unhashedBytes); err != nil {
		return nil, err
	}
	unhashed, err := parseSubpackets(bytes.NewReader(unhashedBytes))
	if err != nil {
		return nil, err
	}
	sig.Unhashed = unhashed

	var headBuf [2]byte
	if err := readFull(r, headBuf[:]); err != nil {
		return nil, err
	}
	sig.HashHead = binary.BigEndian.Uint16(headBuf[:])

	sig.MPIs = map[byte]MPI{}
	for _, letter := range sigAlgoOrder(sig.PubKeyAlgo) {
		m, err := ReadMPI(r)
		if err != nil {
			return nil, err
		}
		sig.MPIs[letter] = m
	}

	for _, sp := range append(append([]subpacket{}, sig.Hashed...), sig.Unhashed...) {
		switch sp.Type {
		case SubpacketCreationTime:
			if len(sp.Data) == 4 {
				sig.CreationTime = time.Unix(int64(binary.BigEndian.Uint32(sp.Data)), 0)
			}
		case SubpacketIssuer:
			if len(sp.Data) == 8 {
				sig.IssuerKeyID = upperHex(sp.Data)
			}
		}
	}
	return sig, nil
}

func sigAlgoOrder(algo PublicKeyAlgorithm) []byte {
	switch algo {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		return []byte{'s'}
	case PubKeyAlgoDSA:
		return []byte{'r', 's'}
	default:
		return nil
	}
}

// hashedBytes returns the hashed-subpacket-area bytes, used both to
// serialize the packet and as the signature trailer's content.
func (sig *Signature) hashedBytes() []byte {
	var buf bytes.Buffer
	for _, sp := range sig.Hashed {
		sp.encode(&buf)
	}
	return buf.Bytes()
}

// Trailer returns the bytes that are hashed along with the message
// content to produce the signature digest: version, sig type, pubkey
// algo, hash algo, hashed-subpacket-area length and bytes, followed by
// the final v4 trailer (RFC 4880 section 5.2.4).
func (sig *Signature) Trailer() []byte {
	hashed := sig.hashedBytes()
	var buf bytes.Buffer
	buf.WriteByte(byte(sig.Version))
	buf.WriteByte(sig.SigType)
	buf.WriteByte(byte(sig.PubKeyAlgo))
	buf.WriteByte(byte(sig.HashAlgo))
	binary.Write(&buf, binary.BigEndian, uint16(len(hashed)))
	buf.Write(hashed)

	trailer := buf.Bytes()
	buf.Write([]byte{4, 0xff})
	binary.Write(&buf, binary.BigEndian, uint32(len(trailer)))
	return buf.Bytes()
}

// Serialize writes the full signature packet.
func (sig *Signature) Serialize() []byte {
	hashed := sig.hashedBytes()
	var unhashedBuf bytes.Buffer
	for _, sp := range sig.Unhashed {
		sp.encode(&unhashedBuf)
	}

	var body bytes.Buffer
	body.WriteByte(byte(sig.Version))
	body.WriteByte(sig.SigType)
	body.WriteByte(byte(sig.PubKeyAlgo))
	body.WriteByte(byte(sig.HashAlgo))
	binary.Write(&body, binary.BigEndian, uint16(len(hashed)))
	body.Write(hashed)
	binary.Write(&body, binary.BigEndian, uint16(unhashedBuf.Len()))
	body.Write(unhashedBuf.Bytes())
	binary.Write(&body, binary.BigEndian, sig.HashHead)
	for _, letter := range sigAlgoOrder(sig.PubKeyAlgo) {
		body.Write(sig.MPIs[letter].EncodedBytes())
	}

	var buf bytes.Buffer
	writeHeader(&buf, TagSignature, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// NewSignature builds an unsigned version-4 signature skeleton with
// the standard Creation Time and Issuer hashed subpackets (spec
// section 4.4). The hash-head preview is left at zero: this library
// never relies on it as a quick check, only on full MPI verification
// (documented Open Question decision).
func NewSignature(sigType byte, pubAlgo PublicKeyAlgorithm, hashAlgo algorithm.HashAlgo, keyID string, created time.Time) *Signature {
	idBytes, _ := hex.DecodeString(keyID)
	return &Signature{
		Version:    4,
		SigType:    sigType,
		PubKeyAlgo: pubAlgo,
		HashAlgo:   hashAlgo,
		Hashed: []subpacket{
			{Type: SubpacketCreationTime, Data: be32(uint32(created.Unix()))},
			{Type: SubpacketIssuer, Data: idBytes},
		},
		CreationTime: created,
		IssuerKeyID:  keyID,
		MPIs:         map[byte]MPI{},
	}
}

func be32(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

// SignRSA completes sig by EMSA-PKCS1-v1.5-signing digest with priv
// (spec section 4.4).
func SignRSA(sig *Signature, priv *rsa.PrivateKey, digest []byte) error {
	s, err := rsa.SignPKCS1v15(rand.Reader, priv, cryptoHash(sig.HashAlgo), digest)
	if err != nil {
		return err
	}
	sig.MPIs['s'] = NewMPI(new(big.Int).SetBytes(s))
	return nil
}

// VerifyRSA checks sig's MPI against digest using pub.
func VerifyRSA(sig *Signature, pub *rsa.PublicKey, digest []byte) error {
	if err := rsa.VerifyPKCS1v15(pub, cryptoHash(sig.HashAlgo), digest, sig.MPIs['s']); err != nil {
		return ErrBadSignature
	}
	return nil
}

// SignDSA completes sig by signing the hash truncated to the byte
// length of q, per spec sections 4.4/4.7.
func SignDSA(sig *Signature, priv *dsa.PrivateKey, digest []byte) error {
	truncated := truncateHash(digest, priv.Q)
	r, s, err := dsa.Sign(rand.Reader, priv, truncated)
	if err != nil {
		return err
	}
	sig.MPIs['r'] = NewMPI(r)
	sig.MPIs['s'] = NewMPI(s)
	return nil
}

// VerifyDSA checks sig's (r,s) MPIs against digest using pub.
func VerifyDSA(sig *Signature, pub *dsa.PublicKey, digest []byte) error {
	truncated := truncateHash(digest, pub.Q)
	if !dsa.Verify(pub, truncated, sig.MPIs['r'].Int(), sig.MPIs['s'].Int()) {
		return ErrBadSignature
	}
	return nil
}

// truncateHash truncates digest to the byte length of q, the DSA
// subgroup order, byte-wise rather than bit-wise (documented Open
// Question decision, spec sections 4.7/4.9).
func truncateHash(digest []byte, q *big.Int) []byte {
	qBytes := (q.BitLen() + 7) / 8
	if len(digest) > qBytes {
		digest = digest[:qBytes]
	}
	return digest
}

// cryptoHash maps an algorithm.HashAlgo to the stdlib crypto.Hash
// constant rsa.SignPKCS1v15/VerifyPKCS1v15 need for their DigestInfo
// prefix lookup (RFC 4880's hash tag numbering does not match
// crypto.Hash's).
func cryptoHash(h algorithm.HashAlgo) crypto.Hash {
	switch h {
	case algorithm.HashMD5:
		return crypto.MD5
	case algorithm.HashSHA1:
		return crypto.SHA1
	case algorithm.HashRIPEMD160:
		return crypto.RIPEMD160
	case algorithm.HashSHA224:
		return crypto.SHA224
	case algorithm.HashSHA256:
		return crypto.SHA256
	case algorithm.HashSHA384:
		return crypto.SHA384
	case algorithm.HashSHA512:
		return crypto.SHA512
	default:
		return 0
	}
}
