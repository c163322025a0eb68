package sign

import (
	"github.com/alios/openpgp-cryptoapi/algorithm"
	"github.com/alios/openpgp-cryptoapi/keyring"
	"github.com/alios/openpgp-cryptoapi/packet"
)

// Verify checks signatures[sigIndex] against message's first literal
// data payload, using a signer key from kr matched by issuer key id
// (spec section 4.4, "Verification"). Any internal failure — no such
// signature, no matching key, unsupported algorithm, bad signature —
// is reported as false, per spec.
func Verify(kr *keyring.KeyRing, message *packet.Message, sigIndex int) bool {
	signatures, err := message.Signatures()
	if err != nil || sigIndex < 0 || sigIndex >= len(signatures) {
		return false
	}
	sig := signatures[sigIndex]

	literal, err := message.LiteralData()
	if err != nil {
		return false
	}

	candidates := kr.FindPublic(sig.IssuerKeyID)
	if len(candidates) == 0 {
		return false
	}

	signedBytes := append(append([]byte{}, literal.Content...), sig.Trailer()...)
	digest, _, err := algorithm.Hash(sig.HashAlgo, signedBytes)
	if err != nil {
		return false
	}

	for _, pk := range candidates {
		switch sig.PubKeyAlgo {
		case packet.PubKeyAlgoDSA:
			if pk.DSA == nil {
				continue
			}
			if packet.VerifyDSA(sig, pk.DSA, digest) == nil {
				return true
			}
		case packet.PubKeyAlgoRSA, packet.PubKeyAlgoRSASignOnly:
			if pk.RSA == nil {
				continue
			}
			if packet.VerifyRSA(sig, pk.RSA, digest) == nil {
				return true
			}
		}
	}
	return false
}
