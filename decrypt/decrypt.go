// Package decrypt implements the Decryption Engine (spec section
// 4.6): asymmetric and passphrase-based session-key recovery, and the
// shared decryptPacket / MDC-verification step.
package decrypt

import (
	"bytes"
	"errors"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/keyring"
	"github.com/alios/openpgp-cryptoapi/packet"
)

// ErrNoCandidateKey is returned when no secret key or passphrase
// recovers a well-formed session key for the message.
var ErrNoCandidateKey = errors.New("decrypt: no candidate key produced a valid session")

// DecryptAsymmetric recovers the inner message using the first secret
// key in kr whose key id matches (or the wildcard) an asymmetric
// session-key packet in message, and that also decodes a
// checksum-valid session key (spec section 4.6, "decrypt_asymmetric").
func DecryptAsymmetric(kr *keyring.KeyRing, message *packet.Message) (*packet.Message, error) {
	asks, err := message.AsymmetricSessionKeys()
	if err != nil {
		return nil, err
	}
	encData, err := message.EncryptedData()
	if err != nil {
		return nil, err
	}

	for _, ask := range asks {
		for _, sk := range kr.FindSecret(ask.KeyID) {
			if sk.RSAPriv == nil {
				continue
			}
			plain, err := packet.DecryptSessionKey(sk, ask)
			if err != nil {
				continue
			}
			cipherByte, key, err := packet.SplitSessionKeyBlob(plain)
			if err != nil {
				continue
			}
			msg, err := decryptPacket(encData, algorithm.CipherAlgo(cipherByte), key)
			if err != nil {
				continue
			}
			return msg, nil
		}
	}
	return nil, ErrNoCandidateKey
}

// DecryptSymmetric tries each passphrase against every
// SymmetricSessionKey packet in message, per spec section 4.6,
// "decrypt_symmetric".
func DecryptSymmetric(passphrases [][]byte, message *packet.Message) (*packet.Message, error) {
	sessionPackets, err := message.SymmetricSessionKeys()
	if err != nil {
		return nil, err
	}
	encData, err := message.EncryptedData()
	if err != nil {
		return nil, err
	}

	for _, sp := range sessionPackets {
		for _, pass := range passphrases {
			cipherByte, key, err := sp.SessionKey(pass)
			if err != nil {
				continue
			}
			msg, err := decryptPacket(encData, algorithm.CipherAlgo(cipherByte), key)
			if err != nil {
				continue
			}
			return msg, nil
		}
	}
	return nil, ErrNoCandidateKey
}

// decryptPacket decrypts encData under (cipherAlgo, key), verifies its
// MDC, and parses the plaintext back into a Message (spec section 4.6,
// "decryptPacket").
func decryptPacket(encData *packet.EncryptedData, cipherAlgo algorithm.CipherAlgo, key []byte) (*packet.Message, error) {
	plaintext, err := encData.Decrypt(cipherAlgo, key)
	if err != nil {
		return nil, err
	}
	return packet.ParseMessage(bytes.NewReader(plaintext))
}
