package packet

import "bytes"

// LiteralData is the plaintext payload carried inside a message (RFC
// 4880 section 5.9). Only the content is meaningful to the
// cryptographic core; filename and modification time are preserved
// for round-tripping but not interpreted.
type LiteralData struct {
	Format   byte // 'b' binary, 't' text
	FileName string
	Time     uint32
	Content  []byte
}

// ParseLiteralData parses a literal-data packet body.
func ParseLiteralData(body []byte) (*LiteralData, error) {
	r := bytes.NewReader(body)
	var prefix [1]byte
	if err := readFull(r, prefix[:]); err != nil {
		return nil, err
	}
	var nameLen [1]byte
	if err := readFull(r, nameLen[:]); err != nil {
		return nil, err
	}
	name := make([]byte, nameLen[0])
	if err := readFull(r, name); err != nil {
		return nil, err
	}
	var timeBuf [4]byte
	if err := readFull(r, timeBuf[:]); err != nil {
		return nil, err
	}
	content := make([]byte, r.Len())
	if err := readFull(r, content); err != nil {
		return nil, err
	}
	t := uint32(timeBuf[0])<<24 | uint32(timeBuf[1])<<16 | uint32(timeBuf[2])<<8 | uint32(timeBuf[3])
	return &LiteralData{Format: prefix[0], FileName: string(name), Time: t, Content: content}, nil
}

// Serialize writes the full literal-data packet.
func (l *LiteralData) Serialize() []byte {
	var body bytes.Buffer
	body.WriteByte(l.Format)
	body.WriteByte(byte(len(l.FileName)))
	body.WriteString(l.FileName)
	body.Write([]byte{byte(l.Time >> 24), byte(l.Time >> 16), byte(l.Time >> 8), byte(l.Time)})
	body.Write(l.Content)

	var buf bytes.Buffer
	writeHeader(&buf, TagLiteralData, body.Len())
	buf.Write(body.Bytes())
	return buf.Bytes()
}

// NewLiteralData wraps content in a binary literal-data packet with no
// filename, which is what the Signature and Encryption Engines sign
// and encrypt (spec sections 4.4 and 4.5 operate on raw messages, but
// Message-level helpers use this to carry them as packets).
func NewLiteralData(content []byte) *LiteralData {
	return &LiteralData{Format: 'b', Content: content}
}
