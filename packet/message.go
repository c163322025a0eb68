package packet

import (
	"bytes"
	"io"
)

// Message is an ordered OpenPGP packet stream (spec section 5's
// Message Stream Model): the unit the Signature and Encryption
// Engines actually read and write.
type Message struct {
	Packets []Raw
}

// ParseMessage reads a full packet stream from r.
func ParseMessage(r io.Reader) (*Message, error) {
	m := &Message{}
	for {
		raw, err := ParseRaw(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		m.Packets = append(m.Packets, raw)
	}
	return m, nil
}

// Serialize concatenates every packet's wire encoding.
func (m *Message) Serialize() []byte {
	var buf bytes.Buffer
	for _, p := range m.Packets {
		buf.Write(p.Encode())
	}
	return buf.Bytes()
}

func isSignature(t Tag) bool             { return t == TagSignature }
func isUserID(t Tag) bool                { return t == TagUserID }
func isLiteralData(t Tag) bool           { return t == TagLiteralData }
func isPublicKey(t Tag) bool             { return t == TagPublicKey }
func isSecretKey(t Tag) bool             { return t == TagSecretKey || t == TagSecretSubkey }
func isAsymmetricSessionKey(t Tag) bool  { return t == TagEncryptedKey }
func isSymmetricSessionKey(t Tag) bool   { return t == TagSymmetricKeyEncrypted }
func isEncryptedData(t Tag) bool         { return t == TagSymmetricallyEncrypted }

// IsSignable reports whether a packet tag can carry a signature over
// it directly (literal data or a key/user-id certification target).
func IsSignable(t Tag) bool {
	return isLiteralData(t) || isUserID(t) || isPublicKey(t) || isSecretKey(t)
}

// Signatures returns every Signature packet in the message, parsed.
func (m *Message) Signatures() ([]*Signature, error) {
	var out []*Signature
	for _, p := range m.Packets {
		if isSignature(p.Tag) {
			sig, err := ParseSignature(p.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, sig)
		}
	}
	return out, nil
}

// LiteralData returns the first literal-data packet's parsed contents.
func (m *Message) LiteralData() (*LiteralData, error) {
	for _, p := range m.Packets {
		if isLiteralData(p.Tag) {
			return ParseLiteralData(p.Body)
		}
	}
	return nil, ErrMalformed
}

// AsymmetricSessionKeys returns every version-3 PKESK packet, parsed.
func (m *Message) AsymmetricSessionKeys() ([]*AsymmetricSessionKey, error) {
	var out []*AsymmetricSessionKey
	for _, p := range m.Packets {
		if isAsymmetricSessionKey(p.Tag) {
			k, err := ParseAsymmetricSessionKey(p.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

// SymmetricSessionKeys returns every SKESK packet, parsed.
func (m *Message) SymmetricSessionKeys() ([]*SymmetricSessionKey, error) {
	var out []*SymmetricSessionKey
	for _, p := range m.Packets {
		if isSymmetricSessionKey(p.Tag) {
			k, err := ParseSymmetricSessionKey(p.Body)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
	}
	return out, nil
}

// EncryptedData returns the message's single EncryptedData packet.
func (m *Message) EncryptedData() (*EncryptedData, error) {
	for _, p := range m.Packets {
		if isEncryptedData(p.Tag) {
			return ParseEncryptedData(p.Body)
		}
	}
	return nil, ErrMalformed
}
