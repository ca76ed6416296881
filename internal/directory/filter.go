package directory

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// EscapeFilterValue escapes a value for interpolation into an LDAP search
// filter per RFC 4515. Backslash is substituted first so the escape
// character itself is never double-escaped; everything else, including
// non-ASCII bytes, passes through unchanged.
//
// Every untrusted value embedded in a filter must go through this function.
func EscapeFilterValue(s string) string {
	s = strings.ReplaceAll(s, `\`, `\5c`)
	s = strings.ReplaceAll(s, `*`, `\2a`)
	s = strings.ReplaceAll(s, `(`, `\28`)
	s = strings.ReplaceAll(s, `)`, `\29`)
	s = strings.ReplaceAll(s, "\x00", `\00`)
	return s
}

// guidToDirectoryBytes returns the GUID in the directory's mixed-endian
// layout: the first three groups byte-swapped, the last eight bytes as-is.
func guidToDirectoryBytes(guid uuid.UUID) []byte {
	b := make([]byte, 16)
	b[0], b[1], b[2], b[3] = guid[3], guid[2], guid[1], guid[0]
	b[4], b[5] = guid[5], guid[4]
	b[6], b[7] = guid[7], guid[6]
	copy(b[8:], guid[8:])
	return b
}

// EncodeGUIDOctetFilter renders a GUID as a backslash-escaped octet sequence
// in the directory's native byte order, suitable for direct interpolation
// into a binary-identifier equality filter.
func EncodeGUIDOctetFilter(guid uuid.UUID) string {
	var sb strings.Builder
	for _, b := range guidToDirectoryBytes(guid) {
		fmt.Fprintf(&sb, `\%02x`, b)
	}
	return sb.String()
}

// DecodeGUIDBytes converts a 16-byte binary identifier from the directory's
// byte order to its canonical textual form. It returns "" when raw is not
// exactly 16 bytes.
func DecodeGUIDBytes(raw []byte) string {
	if len(raw) != 16 {
		return ""
	}
	var std uuid.UUID
	std[0], std[1], std[2], std[3] = raw[3], raw[2], raw[1], raw[0]
	std[4], std[5] = raw[5], raw[4]
	std[6], std[7] = raw[7], raw[6]
	copy(std[8:], raw[8:])
	return std.String()
}
