package packet

import (
	"encoding/binary"
	"io"
	"math/big"
)

// MPI is an OpenPGP multi-precision integer (RFC 4880, section 3.2),
// held as its minimal big-endian magnitude only; EncodedBytes adds the
// two-octet bit-length prefix of the wire form.
type MPI []byte

// NewMPI encodes i as an MPI.
func NewMPI(i *big.Int) MPI {
	return MPI(i.Bytes())
}

// Int returns the integer value of the MPI.
func (m MPI) Int() *big.Int {
	return new(big.Int).SetBytes(m)
}

// ByteLen returns the minimal big-endian byte count of the magnitude,
// i.e. integer_byte_size(i) from spec section 4.7.
func (m MPI) ByteLen() int {
	return len(m)
}

// BitLen returns the true bit length of the magnitude, as used when
// wrapping an RSA ciphertext for transport (spec section 4.5 step 4).
func BitLen(b []byte) int {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	rest := b[i:]
	if len(rest) == 0 {
		return 0
	}
	bits := (len(rest) - 1) * 8
	top := rest[0]
	for top != 0 {
		bits++
		top >>= 1
	}
	return bits
}

// EncodedBytes returns the on-the-wire form: two-byte bit length then
// the magnitude bytes.
func (m MPI) EncodedBytes() []byte {
	bitLen := BitLen(m)
	out := make([]byte, 2+len(m))
	binary.BigEndian.PutUint16(out[:2], uint16(bitLen))
	copy(out[2:], m)
	return out
}

// ReadMPI reads one MPI from r.
func ReadMPI(r io.Reader) (MPI, error) {
	var lenBuf [2]byte
	if err := readFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	bitLen := int(binary.BigEndian.Uint16(lenBuf[:]))
	byteLen := (bitLen + 7) / 8
	buf := make(MPI, byteLen)
	if byteLen > 0 {
		if err := readFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteMPI writes one MPI (with its length prefix) to w.
func WriteMPI(w io.Writer, m MPI) error {
	_, err := w.Write(m.EncodedBytes())
	return err
}

// EncodedMPILen returns len(encode(MPI(i))), header included.
func EncodedMPILen(m MPI) int {
	return 2 + len(m)
}

// Checksum computes the unsigned 16-bit sum of the given bytes modulo
// 2^16, used for both the secret-key checksum (RFC 4880 5.5.3) and the
// session-key checksum (spec section 3).
func Checksum(b []byte) uint16 {
	var sum uint16
	for _, v := range b {
		sum += uint16(v)
	}
	return sum
}
