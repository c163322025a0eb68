package packet

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/binary"
	"math/big"
	"testing"
	"time"
)

// buildPlainSecretKeyBody serializes an RFC 4880 section 5.5.3 body
// with S2K usage octet 0: the public-key prefix, followed by the raw
// secret MPIs and their legacy 2-octet additive checksum.
func buildPlainSecretKeyBody(t *testing.T, priv *rsa.PrivateKey, created time.Time) []byte {
	t.Helper()
	pub := NewRSAPublicKey(created, &priv.PublicKey)

	var buf bytes.Buffer
	buf.WriteByte(byte(pub.Version))
	var tbuf [4]byte
	binary.BigEndian.PutUint32(tbuf[:], uint32(created.Unix()))
	buf.Write(tbuf[:])
	buf.WriteByte(byte(pub.Algo))
	buf.Write(pub.MPIs['n'].EncodedBytes())
	buf.Write(pub.MPIs['e'].EncodedBytes())

	buf.WriteByte(0) // S2K usage octet: unencrypted

	priv.Precompute()
	p, q := priv.Primes[0], priv.Primes[1]
	u := new(big.Int).ModInverse(p, q)

	var encoded []byte
	for _, m := range []MPI{NewMPI(priv.D), NewMPI(p), NewMPI(q), NewMPI(u)} {
		enc := m.EncodedBytes()
		encoded = append(encoded, enc...)
		buf.Write(enc)
	}
	var checksum [2]byte
	binary.BigEndian.PutUint16(checksum[:], Checksum(encoded))
	buf.Write(checksum[:])
	return buf.Bytes()
}

func TestParseSecretKeyPlainChecksum(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	body := buildPlainSecretKeyBody(t, priv, time.Unix(1_600_000_000, 0))

	sk, err := ParseSecretKey(body)
	if err != nil {
		t.Fatal(err)
	}
	if sk.Encrypted {
		t.Fatal("expected unencrypted secret key")
	}
	if sk.RSAPriv == nil {
		t.Fatal("expected RSAPriv to be populated")
	}

	msg := []byte("plain secret key round trip")
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, &priv.PublicKey, msg)
	if err != nil {
		t.Fatal(err)
	}
	pt, err := rsa.DecryptPKCS1v15(rand.Reader, sk.RSAPriv, ct)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(pt, msg) {
		t.Errorf("decrypted = %q, want %q", pt, msg)
	}
}

func TestParseSecretKeyPlainRejectsBadChecksum(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	body := buildPlainSecretKeyBody(t, priv, time.Unix(1_600_000_000, 0))
	body[len(body)-1] ^= 0xFF

	if _, err := ParseSecretKey(body); err != ErrWrongPassphrase {
		t.Errorf("err = %v, want ErrWrongPassphrase", err)
	}
}
