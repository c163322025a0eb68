// Package sign implements the Signature Engine (spec section 4.4):
// producing and checking OpenPGP signature packets over a message's
// literal data or key/user-id certification target.
package sign

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/keyring"
	"github.com/alios/openpgp-cryptoapi/packet"
)

// ErrNoSigningKey is returned when key_id names no secret key with
// signing material loaded.
var ErrNoSigningKey = errors.New("sign: no matching secret key")

// ErrNoTarget is returned when message contains neither literal data
// nor a key-and-user-id pair to certify.
var ErrNoTarget = errors.New("sign: no signable target")

// Sign resolves the signing key by key_id, finds the signable target
// in message, and produces the corresponding signature packet (spec
// section 4.4, "Signing").
func Sign(kr *keyring.KeyRing, message *packet.Message, hashAlgo algorithm.HashAlgo, keyID string, timestamp time.Time, rng io.Reader) (*packet.Signature, error) {
	candidates := kr.FindSecret(keyID)
	var sk *packet.SecretKey
	for _, c := range candidates {
		if c.RSAPriv != nil || c.DSAPriv != nil {
			sk = c
			break
		}
	}
	if sk == nil {
		return nil, ErrNoSigningKey
	}

	literal, litErr := message.LiteralData()
	templates, err := message.Signatures()
	if err != nil {
		return nil, err
	}
	var template *packet.Signature
	if len(templates) > 0 {
		template = templates[0]
	}

	var signedBytes []byte
	var sig *packet.Signature

	if litErr == nil {
		sigType := byte(0x00)
		if literal.Format != 'b' {
			sigType = 0x01
		}
		sig = buildSignature(template, sk, hashAlgo, keyID, timestamp, sigType)
		signedBytes = append(append([]byte{}, literal.Content...), sig.Trailer()...)
	} else {
		pk, uid, ok := firstKeyAndUserID(message)
		if !ok {
			return nil, ErrNoTarget
		}
		sig = buildSignature(template, sk, hashAlgo, keyID, timestamp, 0x13)
		uidBytes := []byte(uid.ID)
		var prefix bytes.Buffer
		prefix.WriteByte(0xB4)
		binary.Write(&prefix, binary.BigEndian, uint32(len(uidBytes)))
		signedBytes = append(append([]byte{}, pk.FingerprintMaterial()...), prefix.Bytes()...)
		signedBytes = append(signedBytes, uidBytes...)
		signedBytes = append(signedBytes, sig.Trailer()...)
	}

	digest, _, err := algorithm.Hash(hashAlgo, signedBytes)
	if err != nil {
		return nil, err
	}

	switch {
	case sk.RSAPriv != nil:
		if err := packet.SignRSA(sig, sk.RSAPriv, digest); err != nil {
			return nil, err
		}
	case sk.DSAPriv != nil:
		if err := packet.SignDSA(sig, sk.DSAPriv, digest); err != nil {
			return nil, err
		}
	default:
		return nil, ErrNoSigningKey
	}
	return sig, nil
}

func buildSignature(template *packet.Signature, sk *packet.SecretKey, hashAlgo algorithm.HashAlgo, keyID string, timestamp time.Time, defaultSigType byte) *packet.Signature {
	if template != nil {
		sig := *template
		sig.PubKeyAlgo = sk.Algo
		sig.HashAlgo = hashAlgo
		sig.MPIs = map[byte]packet.MPI{}
		return &sig
	}
	return packet.NewSignature(defaultSigType, sk.Algo, hashAlgo, keyID, timestamp)
}

func firstKeyAndUserID(message *packet.Message) (*packet.PublicKey, *packet.UserID, bool) {
	var pk *packet.PublicKey
	for _, raw := range message.Packets {
		if raw.Tag == packet.TagPublicKey && pk == nil {
			parsed, err := packet.ParsePublicKey(raw.Body)
			if err != nil {
				continue
			}
			pk = parsed
			continue
		}
		if raw.Tag == packet.TagUserID && pk != nil {
			uid, err := packet.ParseUserID(raw.Body)
			if err != nil {
				continue
			}
			return pk, uid, true
		}
	}
	return nil, nil, false
}
