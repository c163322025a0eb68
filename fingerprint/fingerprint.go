// Package fingerprint exposes the Fingerprint Calculator as a
// standalone API surface over the packet collaborator's key types
// (spec section 4.3), for callers that only need identity, not the
// full keyring.
package fingerprint

import "github.com/alios/openpgp-cryptoapi/packet"

// OfPublicKey returns the uppercase hex fingerprint of a public key.
func OfPublicKey(pk *packet.PublicKey) (string, error) {
	return pk.FingerprintHex()
}

// OfSecretKey returns the uppercase hex fingerprint of a secret key's
// public portion.
func OfSecretKey(sk *packet.SecretKey) (string, error) {
	return sk.PublicKey.FingerprintHex()
}

// KeyID returns the 16-hex-character key id derived from a public
// key's fingerprint.
func KeyID(pk *packet.PublicKey) (string, error) {
	hex, err := pk.FingerprintHex()
	if err != nil {
		return "", err
	}
	return hex[len(hex)-16:], nil
}
