package encrypt

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/decrypt"
	"github.com/alios/openpgp-cryptoapi/keyring"
	"github.com/alios/openpgp-cryptoapi/packet"
	"github.com/alios/openpgp-cryptoapi/s2k"
)

func newRSARecipient(t *testing.T) (*packet.PublicKey, *packet.SecretKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		t.Fatal(err)
	}
	pk := packet.NewRSAPublicKey(time.Unix(1_600_000_000, 0), &priv.PublicKey)
	sk := &packet.SecretKey{PublicKey: *pk, RSAPriv: priv}
	return pk, sk
}

func rawOf(t *testing.T, encoded []byte) packet.Raw {
	t.Helper()
	raw, err := packet.ParseRaw(bytes.NewReader(encoded))
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func literalMessage(t *testing.T, content []byte) *packet.Message {
	lit := packet.NewLiteralData(content)
	return &packet.Message{Packets: []packet.Raw{rawOf(t, lit.Serialize())}}
}

func TestEncryptDecryptAsymmetricSingleRecipient(t *testing.T) {
	pk, sk := newRSARecipient(t)
	plaintext := []byte("a secret for one recipient")
	msg := literalMessage(t, plaintext)

	out, err := Encrypt(rand.Reader, algorithm.CipherAES128, []*packet.PublicKey{pk}, msg)
	if err != nil {
		t.Fatal(err)
	}

	kr := &keyring.KeyRing{Secret: []*packet.SecretKey{sk}}
	decrypted, err := decrypt.DecryptAsymmetric(kr, out)
	if err != nil {
		t.Fatal(err)
	}
	lit, err := decrypted.LiteralData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(lit.Content, plaintext) {
		t.Errorf("decrypted = %q, want %q", lit.Content, plaintext)
	}
}

func TestEncryptMultiRecipient(t *testing.T) {
	pk1, sk1 := newRSARecipient(t)
	pk2, sk2 := newRSARecipient(t)
	plaintext := []byte("shared between two recipients")
	msg := literalMessage(t, plaintext)

	out, err := Encrypt(rand.Reader, algorithm.CipherAES256, []*packet.PublicKey{pk1, pk2}, msg)
	if err != nil {
		t.Fatal(err)
	}

	for _, sk := range []*packet.SecretKey{sk1, sk2} {
		kr := &keyring.KeyRing{Secret: []*packet.SecretKey{sk}}
		decrypted, err := decrypt.DecryptAsymmetric(kr, out)
		if err != nil {
			t.Fatalf("recipient decrypt failed: %v", err)
		}
		lit, err := decrypted.LiteralData()
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(lit.Content, plaintext) {
			t.Errorf("decrypted = %q, want %q", lit.Content, plaintext)
		}
	}
}

func TestEncryptRejectsNonEncryptingRecipient(t *testing.T) {
	pk, _ := newRSARecipient(t)
	pk.Algo = packet.PubKeyAlgoRSASignOnly
	msg := literalMessage(t, []byte("x"))
	_, err := Encrypt(rand.Reader, algorithm.CipherAES128, []*packet.PublicKey{pk}, msg)
	if err != ErrRecipientUnsupported {
		t.Errorf("err = %v, want ErrRecipientUnsupported", err)
	}
}

func TestDecryptAsymmetricDetectsMDCTamper(t *testing.T) {
	pk, sk := newRSARecipient(t)
	msg := literalMessage(t, []byte("tamper me"))

	out, err := Encrypt(rand.Reader, algorithm.CipherAES128, []*packet.PublicKey{pk}, msg)
	if err != nil {
		t.Fatal(err)
	}

	for i, p := range out.Packets {
		if p.Tag == packet.TagSymmetricallyEncrypted {
			tampered := append([]byte{}, p.Body...)
			tampered[len(tampered)-1] ^= 0xFF
			out.Packets[i].Body = tampered
		}
	}

	kr := &keyring.KeyRing{Secret: []*packet.SecretKey{sk}}
	if _, err := decrypt.DecryptAsymmetric(kr, out); err == nil {
		t.Fatal("expected tampered ciphertext to fail MDC verification")
	}
}

func TestDecryptSymmetricDirectS2KKey(t *testing.T) {
	// "Direct" case: the message cipher IS the S2K's own cipher, and
	// the derived passphrase key is used as the session key with no
	// separate wrapped session-key blob (RFC 4880 5.3, Encrypted == nil).
	passphrase := []byte("correct horse battery staple")
	plaintext := []byte("symmetric secret")
	msg := literalMessage(t, plaintext)

	spec := s2k.Spec{Mode: s2k.ModeIterated, Hash: algorithm.HashSHA256, Salt: []byte("01234567"), Count: 65536}
	skesk := &packet.SymmetricSessionKey{Cipher: algorithm.CipherAES256, S2K: spec}
	derived, err := skesk.DerivedKey(passphrase)
	if err != nil {
		t.Fatal(err)
	}

	encData, err := packet.Encrypt(rand.Reader, algorithm.CipherAES256, derived, msg.Serialize())
	if err != nil {
		t.Fatal(err)
	}

	out := &packet.Message{Packets: []packet.Raw{
		rawOf(t, skesk.Serialize()),
		{Tag: packet.TagSymmetricallyEncrypted, Body: rawOf(t, encData.Serialize()).Body},
	}}

	decrypted, err := decrypt.DecryptSymmetric([][]byte{passphrase}, out)
	if err != nil {
		t.Fatal(err)
	}
	lit, err := decrypted.LiteralData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(lit.Content, plaintext) {
		t.Errorf("decrypted = %q, want %q", lit.Content, plaintext)
	}
}

func TestDecryptSymmetricWrappedSessionKey(t *testing.T) {
	passphrase := []byte("a different passphrase")
	plaintext := []byte("wrapped session key secret")
	msg := literalMessage(t, plaintext)

	sessionKey, err := generateSessionKey(rand.Reader, algorithm.CipherAES128)
	if err != nil {
		t.Fatal(err)
	}
	encData, err := packet.Encrypt(rand.Reader, algorithm.CipherAES128, sessionKey, msg.Serialize())
	if err != nil {
		t.Fatal(err)
	}

	spec := s2k.Spec{Mode: s2k.ModeSalted, Hash: algorithm.HashSHA256, Salt: []byte("abcdefgh")}
	skesk, err := packet.NewSymmetricSessionKey(rand.Reader, spec, passphrase, algorithm.CipherAES256, byte(algorithm.CipherAES128), sessionKey)
	if err != nil {
		t.Fatal(err)
	}

	out := &packet.Message{Packets: []packet.Raw{
		rawOf(t, skesk.Serialize()),
		{Tag: packet.TagSymmetricallyEncrypted, Body: rawOf(t, encData.Serialize()).Body},
	}}

	decrypted, err := decrypt.DecryptSymmetric([][]byte{[]byte("wrong"), passphrase}, out)
	if err != nil {
		t.Fatal(err)
	}
	lit, err := decrypted.LiteralData()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(lit.Content, plaintext) {
		t.Errorf("decrypted = %q, want %q", lit.Content, plaintext)
	}
}
