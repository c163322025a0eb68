package keyring

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/alios/openpgp-cryptoapi/packet"
)

func newTestPublicKey(t *testing.T) *packet.PublicKey {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	return packet.NewRSAPublicKey(time.Unix(1_600_000_000, 0), &priv.PublicKey)
}

func TestLoadAndFindPublic(t *testing.T) {
	pk := newTestPublicKey(t)
	var buf bytes.Buffer
	buf.Write(pk.Serialize())

	kr, err := Load(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(kr.Public) != 1 {
		t.Fatalf("loaded %d public keys, want 1", len(kr.Public))
	}

	id, err := pk.KeyID()
	if err != nil {
		t.Fatal(err)
	}
	idHex := hexUpper(id)

	found := kr.FindPublic(idHex)
	if len(found) != 1 {
		t.Fatalf("FindPublic(%s) = %d keys, want 1", idHex, len(found))
	}
}

func TestFindPublicCaseInsensitive(t *testing.T) {
	pk := newTestPublicKey(t)
	kr := &KeyRing{Public: []*packet.PublicKey{pk}}
	id, _ := pk.KeyID()
	idHex := hexUpper(id)

	lower := toLower(idHex)
	if len(kr.FindPublic(string(lower))) != 1 {
		t.Error("FindPublic should be case-insensitive")
	}
}

func TestFindPublicWildcard(t *testing.T) {
	pk := newTestPublicKey(t)
	kr := &KeyRing{Public: []*packet.PublicKey{pk}}
	found := kr.FindPublic(packet.WildcardKeyID)
	if len(found) != 1 {
		t.Errorf("wildcard match found %d keys, want 1", len(found))
	}
}

func TestFindPublicNoMatch(t *testing.T) {
	pk := newTestPublicKey(t)
	kr := &KeyRing{Public: []*packet.PublicKey{pk}}
	if found := kr.FindPublic("FFFFFFFFFFFFFFFF"); len(found) != 0 {
		t.Errorf("expected no match, got %d", len(found))
	}
}

func toLower(s string) []byte {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'F' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
