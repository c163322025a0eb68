package packet

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"strings"
	"testing"
	"time"
)

func TestRSAFingerprintV4(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	created := time.Unix(1_600_000_000, 0)
	pk := NewRSAPublicKey(created, &priv.PublicKey)

	fp, err := pk.FingerprintHex()
	if err != nil {
		t.Fatal(err)
	}
	if len(fp) != 40 {
		t.Fatalf("fingerprint length = %d, want 40", len(fp))
	}
	if fp != strings.ToUpper(fp) {
		t.Errorf("fingerprint not uppercase: %s", fp)
	}

	id, err := pk.KeyID()
	if err != nil {
		t.Fatal(err)
	}
	if len(id) != 8 {
		t.Fatalf("key id length = %d, want 8", len(id))
	}
}

func TestPublicKeySerializeParseRoundTrip(t *testing.T) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	created := time.Unix(1_600_000_000, 0)
	pk := NewRSAPublicKey(created, &priv.PublicKey)

	raw, err := ParseRaw(bytes.NewReader(pk.Serialize()))
	if err != nil {
		t.Fatal(err)
	}
	if raw.Tag != TagPublicKey {
		t.Fatalf("tag = %d, want %d", raw.Tag, TagPublicKey)
	}

	parsed, err := ParsePublicKey(raw.Body)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.RSA.N.Cmp(priv.PublicKey.N) != 0 {
		t.Error("N mismatch after round trip")
	}
	if parsed.RSA.E != priv.PublicKey.E {
		t.Error("E mismatch after round trip")
	}

	wantFP, _ := pk.FingerprintHex()
	gotFP, _ := parsed.FingerprintHex()
	if wantFP != gotFP {
		t.Errorf("fingerprint changed across round trip: %s != %s", wantFP, gotFP)
	}
}
