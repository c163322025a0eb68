package packet

import "bytes"

// UserID is a User ID packet: a single UTF-8 string, conventionally
// "Name (Comment) <email>" (RFC 4880 section 5.11).
type UserID struct {
	ID string
}

// ParseUserID parses a user-id packet body.
func ParseUserID(body []byte) (*UserID, error) {
	return &UserID{ID: string(body)}, nil
}

// Serialize writes the full user-id packet.
func (u *UserID) Serialize() []byte {
	var buf bytes.Buffer
	writeHeader(&buf, TagUserID, len(u.ID))
	buf.WriteString(u.ID)
	return buf.Bytes()
}
