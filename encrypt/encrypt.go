// Package encrypt implements the Encryption Engine (spec section
// 4.5): session-key generation, MDC-wrapped message encryption, and
// per-recipient RSA session-key wrapping.
package encrypt

import (
	"bytes"
	"errors"
	"io"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/packet"
)

// ErrNoValidSessionKey is returned when no candidate session key
// produces a working cipher after the retry budget is exhausted.
var ErrNoValidSessionKey = errors.New("encrypt: could not generate a valid session key after 1000 attempts")

// ErrRecipientUnsupported is returned for a recipient key that cannot
// receive an RSA-wrapped session key.
var ErrRecipientUnsupported = errors.New("encrypt: recipient key cannot encrypt")

// maxSessionKeyAttempts bounds the session-key generation retry loop
// (spec section 4.5 step 1).
const maxSessionKeyAttempts = 1000

// generateSessionKey draws random bytes until cipherAlgo accepts them
// as a key, or the retry budget is exhausted.
func generateSessionKey(rng io.Reader, cipherAlgo algorithm.CipherAlgo) ([]byte, error) {
	keySize, err := cipherAlgo.KeySize()
	if err != nil {
		return nil, err
	}
	for attempt := 0; attempt < maxSessionKeyAttempts; attempt++ {
		key := make([]byte, keySize)
		if _, err := io.ReadFull(rng, key); err != nil {
			return nil, err
		}
		if _, err := cipherAlgo.New(key); err == nil {
			return key, nil
		}
	}
	return nil, ErrNoValidSessionKey
}

// Encrypt produces asymmetric session-key packets for each recipient
// plus the MDC-wrapped EncryptedData packet carrying message.
func Encrypt(rng io.Reader, cipherAlgo algorithm.CipherAlgo, recipients []*packet.PublicKey, message *packet.Message) (*packet.Message, error) {
	sessionKey, err := generateSessionKey(rng, cipherAlgo)
	if err != nil {
		return nil, err
	}

	plaintext := message.Serialize()
	encData, err := packet.Encrypt(rng, cipherAlgo, sessionKey, plaintext)
	if err != nil {
		return nil, err
	}

	sessionBlob := packet.SessionKeyBlob(byte(cipherAlgo), sessionKey)

	out := &packet.Message{}
	for _, pk := range recipients {
		if !pk.Algo.CanEncrypt() {
			return nil, ErrRecipientUnsupported
		}
		keyID, err := pk.KeyID()
		if err != nil {
			return nil, err
		}
		ask, err := packet.EncryptSessionKey(rng, pk, upperHex(keyID), sessionBlob)
		if err != nil {
			return nil, err
		}
		askBody, err := rawBody(ask.Serialize())
		if err != nil {
			return nil, err
		}
		out.Packets = append(out.Packets, packet.Raw{Tag: packet.TagEncryptedKey, Body: askBody})
	}
	encDataBody, err := rawBody(encData.Serialize())
	if err != nil {
		return nil, err
	}
	out.Packets = append(out.Packets, packet.Raw{Tag: packet.TagSymmetricallyEncrypted, Body: encDataBody})
	return out, nil
}

// rawBody strips a packet's header back off its full wire encoding so
// it can be stored as a packet.Raw body.
func rawBody(encoded []byte) ([]byte, error) {
	raw, err := packet.ParseRaw(bytes.NewReader(encoded))
	if err != nil {
		return nil, err
	}
	return raw.Body, nil
}

func upperHex(b []byte) string {
	const digits = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = digits[v>>4]
		out[i*2+1] = digits[v&0xf]
	}
	return string(out)
}
