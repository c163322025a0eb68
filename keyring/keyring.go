// Package keyring is the Keyring Loader: a flat collection of public
// and secret keys parsed from a packet stream, and key-id lookups
// including the wildcard recipient (spec section 4.6).
package keyring

import (
	"io"
	"strings"

	"github.com/alios/openpgp-cryptoapi/packet"
)

// KeyRing holds every public and secret key found in a message.
type KeyRing struct {
	Public []*packet.PublicKey
	Secret []*packet.SecretKey
}

// Load parses every public-key and secret-key packet out of r, in any
// order, ignoring other packet types (signatures, user ids, etc. are
// left for higher-level callers to pull from the same stream).
func Load(r io.Reader) (*KeyRing, error) {
	msg, err := packet.ParseMessage(r)
	if err != nil {
		return nil, err
	}
	kr := &KeyRing{}
	for _, raw := range msg.Packets {
		switch raw.Tag {
		case packet.TagPublicKey:
			pk, err := packet.ParsePublicKey(raw.Body)
			if err != nil {
				return nil, err
			}
			kr.Public = append(kr.Public, pk)
		case packet.TagSecretKey, packet.TagSecretSubkey:
			sk, err := packet.ParseSecretKey(raw.Body)
			if err != nil {
				return nil, err
			}
			kr.Secret = append(kr.Secret, sk)
		}
	}
	return kr, nil
}

// FindPublic returns every public key matching keyID. The all-zero
// wildcard key id matches every key (spec section 4.6).
func (kr *KeyRing) FindPublic(keyID string) []*packet.PublicKey {
	var out []*packet.PublicKey
	for _, pk := range kr.Public {
		id, err := pk.KeyID()
		if err != nil {
			continue
		}
		if matches(keyID, hexUpper(id)) {
			out = append(out, pk)
		}
	}
	return out
}

// FindSecret returns every secret key matching keyID.
func (kr *KeyRing) FindSecret(keyID string) []*packet.SecretKey {
	var out []*packet.SecretKey
	for _, sk := range kr.Secret {
		id, err := sk.PublicKey.KeyID()
		if err != nil {
			continue
		}
		if matches(keyID, hexUpper(id)) {
			out = append(out, sk)
		}
	}
	return out
}

func matches(want, have string) bool {
	return want == packet.WildcardKeyID || strings.EqualFold(want, have)
}

func hexUpper(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xf]
	}
	return string(out)
}
