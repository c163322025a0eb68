package packet

import (
	"bytes"
	"crypto/cipher"
	"crypto/dsa"
	"crypto/rsa"
	"crypto/sha1"
	"encoding/binary"
	"errors"
	"io"
	"math/big"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/s2k"
)

// ErrWrongPassphrase is returned from Decrypt when the supplied
// passphrase does not reproduce the secret-key checksum.
var ErrWrongPassphrase = errors.New("packet: wrong passphrase")

// SecretKey is the Packet collaborator's view of a secret key (spec
// section 3). Encrypted keys must be Decrypted with the owning
// passphrase before RSAPriv/DSAPriv are populated.
type SecretKey struct {
	PublicKey
	Encrypted bool

	s2kSpec   s2k.Spec
	cipher    algorithm.CipherAlgo
	iv        []byte
	encrypted []byte // ciphertext of MPIs‖SHA-1 checksum, present while Encrypted
	rawMPIs   map[byte]MPI

	RSAPriv *rsa.PrivateKey
	DSAPriv *dsa.PrivateKey
}

// ParseSecretKey parses a secret-key packet body per RFC 4880 section 5.5.3.
func ParseSecretKey(body []byte) (*SecretKey, error) {
	r := bytes.NewReader(body)
	pub, err := parsePublicKeyFields(r)
	if err != nil {
		return nil, err
	}
	sk := &SecretKey{PublicKey: *pub, rawMPIs: map[byte]MPI{}}

	var s2kType [1]byte
	if err := readFull(r, s2kType[:]); err != nil {
		return nil, err
	}
	switch s2kType[0] {
	case 0:
		if err := sk.readPlainMPIs(r); err != nil {
			return nil, err
		}
	case 254, 255:
		var algoBuf [1]byte
		if err := readFull(r, algoBuf[:]); err != nil {
			return nil, err
		}
		sk.cipher = algorithm.CipherAlgo(algoBuf[0])
		spec, err := readS2K(r)
		if err != nil {
			return nil, err
		}
		sk.s2kSpec = spec
		blockSize, err := sk.cipher.BlockSize()
		if err != nil {
			return nil, err
		}
		sk.iv = make([]byte, blockSize)
		if err := readFull(r, sk.iv); err != nil {
			return nil, err
		}
		rest, err := io.ReadAll(r)
		if err != nil {
			return nil, ErrMalformed
		}
		sk.encrypted = rest
		sk.Encrypted = true
	default:
		return nil, ErrUnsupportedPacket
	}
	return sk, nil
}

func secretAlgoOrder(algo PublicKeyAlgorithm) []byte {
	switch algo {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		return []byte{'d', 'p', 'q', 'u'}
	case PubKeyAlgoDSA:
		return []byte{'x'}
	default:
		return nil
	}
}

// readPlainMPIs reads the unencrypted (S2K usage octet 0) secret MPIs
// and verifies the trailing legacy 2-octet additive checksum over
// their encoded bytes (RFC 4880 section 5.5.3).
func (sk *SecretKey) readPlainMPIs(r io.Reader) error {
	var encoded []byte
	for _, letter := range secretAlgoOrder(sk.Algo) {
		m, err := ReadMPI(r)
		if err != nil {
			return err
		}
		sk.rawMPIs[letter] = m
		encoded = append(encoded, m.EncodedBytes()...)
	}
	var checksum [2]byte
	if err := readFull(r, checksum[:]); err != nil {
		return err
	}
	want := binary.BigEndian.Uint16(checksum[:])
	if Checksum(encoded) != want {
		return ErrWrongPassphrase
	}
	sk.buildPrivateKey()
	return nil
}

func readS2K(r io.Reader) (s2k.Spec, error) {
	var modeBuf [1]byte
	if err := readFull(r, modeBuf[:]); err != nil {
		return s2k.Spec{}, err
	}
	var hashBuf [1]byte
	if err := readFull(r, hashBuf[:]); err != nil {
		return s2k.Spec{}, err
	}
	spec := s2k.Spec{Mode: s2k.Mode(modeBuf[0]), Hash: algorithm.HashAlgo(hashBuf[0])}
	switch spec.Mode {
	case s2k.ModeSimple:
	case s2k.ModeSalted:
		spec.Salt = make([]byte, 8)
		if err := readFull(r, spec.Salt); err != nil {
			return s2k.Spec{}, err
		}
	case s2k.ModeIterated:
		spec.Salt = make([]byte, 8)
		if err := readFull(r, spec.Salt); err != nil {
			return s2k.Spec{}, err
		}
		var countBuf [1]byte
		if err := readFull(r, countBuf[:]); err != nil {
			return s2k.Spec{}, err
		}
		spec.Count = s2k.DecodeCount(countBuf[0])
	default:
		return s2k.Spec{}, ErrUnsupportedPacket
	}
	return spec, nil
}

// Decrypt recovers the RSA/DSA private-key MPIs from an
// S2K-and-cipher-protected secret key packet, verifying the SHA-1
// checksum embedded in the decrypted plaintext (RFC 4880 section 5.5.3).
// This plain-CFB protection (explicit IV straight from the packet, no
// OpenPGP prefix/quick-check) is distinct from the session-key CFB
// variant in package ocfb.
func (sk *SecretKey) Decrypt(passphrase []byte) error {
	if !sk.Encrypted {
		return nil
	}
	keySize, err := sk.cipher.KeySize()
	if err != nil {
		return err
	}
	key, err := s2k.Stream(sk.s2kSpec, passphrase, keySize)
	if err != nil {
		return err
	}
	block, err := sk.cipher.New(key)
	if err != nil {
		return err
	}
	stream := cipher.NewCFBDecrypter(block, sk.iv)
	plain := make([]byte, len(sk.encrypted))
	stream.XORKeyStream(plain, sk.encrypted)

	r := bytes.NewReader(plain)
	rawMPIs := map[byte]MPI{}
	for _, letter := range secretAlgoOrder(sk.Algo) {
		m, err := ReadMPI(r)
		if err != nil {
			return ErrWrongPassphrase
		}
		rawMPIs[letter] = m
	}
	rest, err := io.ReadAll(r)
	if err != nil || len(rest) < 20 {
		return ErrWrongPassphrase
	}
	h := sha1.New()
	for _, letter := range secretAlgoOrder(sk.Algo) {
		h.Write(rawMPIs[letter].EncodedBytes())
	}
	if !bytes.Equal(h.Sum(nil), rest[:20]) {
		return ErrWrongPassphrase
	}
	sk.rawMPIs = rawMPIs
	sk.Encrypted = false
	sk.buildPrivateKey()
	return nil
}

func (sk *SecretKey) buildPrivateKey() {
	switch sk.Algo {
	case PubKeyAlgoRSA, PubKeyAlgoRSAEncryptOnly, PubKeyAlgoRSASignOnly:
		if sk.RSA == nil {
			return
		}
		d := sk.rawMPIs['d'].Int()
		p := sk.rawMPIs['p'].Int()
		q := sk.rawMPIs['q'].Int()
		sk.RSAPriv = buildRSAPrivate(sk.RSA, d, p, q)
	case PubKeyAlgoDSA:
		if sk.DSA == nil {
			return
		}
		x := sk.rawMPIs['x'].Int()
		sk.DSAPriv = &dsa.PrivateKey{
			PublicKey: *sk.DSA,
			X:         x,
		}
	}
}

// buildRSAPrivate constructs an *rsa.PrivateKey from the OpenPGP MPIs,
// swapping p and q per spec section 4.4 / DESIGN.md: OpenPGP's secret
// "u" field is p^-1 mod q, while the standard library's CRT
// precomputation expects Primes[1]^-1 mod Primes[0]. Storing
// Primes = [q, p] makes Precompute's Qinv equal to u, and its Dp/Dq
// equal to d mod (q-1) and d mod (p-1) respectively, matching the
// documented quirk exactly.
func buildRSAPrivate(pub *rsa.PublicKey, d, p, q *big.Int) *rsa.PrivateKey {
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         d,
		Primes:    []*big.Int{q, p},
	}
	priv.Precompute()
	return priv
}
