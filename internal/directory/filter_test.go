package directory

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeFilterValue(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "jdoe", "jdoe"},
		{"asterisk", "j*doe", `j\2adoe`},
		{"parens", "(admin)", `\28admin\29`},
		{"backslash", `DOMAIN\jdoe`, `DOMAIN\5cjdoe`},
		{"nul", "a\x00b", `a\00b`},
		{"injection attempt", "*)(objectClass=*", `\2a\29\28objectClass=\2a`},
		{"backslash before asterisk", `\*`, `\5c\2a`},
		{"non-ascii passthrough", "Bücher", "Bücher"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeFilterValue(tt.in))
		})
	}
}

func TestEncodeGUIDOctetFilter(t *testing.T) {
	guid := uuid.MustParse("01020304-0506-0708-090a-0b0c0d0e0f10")
	want := `\04\03\02\01\06\05\08\07\09\0a\0b\0c\0d\0e\0f\10`
	assert.Equal(t, want, EncodeGUIDOctetFilter(guid))
}

func TestDecodeGUIDBytes(t *testing.T) {
	raw := []byte{
		0x04, 0x03, 0x02, 0x01,
		0x06, 0x05,
		0x08, 0x07,
		0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
	}
	assert.Equal(t, "01020304-0506-0708-090a-0b0c0d0e0f10", DecodeGUIDBytes(raw))

	assert.Empty(t, DecodeGUIDBytes(nil))
	assert.Empty(t, DecodeGUIDBytes([]byte{0x01, 0x02}))
	assert.Empty(t, DecodeGUIDBytes(make([]byte, 17)))
}

// The wire bytes of a decoded identifier must re-encode to the same octet
// sequence, otherwise lookups by a previously returned ID would miss.
func TestGUIDRoundTrip(t *testing.T) {
	for i := 0; i < 20; i++ {
		guid := uuid.New()
		dir := guidToDirectoryBytes(guid)
		decoded := DecodeGUIDBytes(dir)
		require.Equal(t, guid.String(), decoded)

		reparsed, err := uuid.Parse(decoded)
		require.NoError(t, err)
		assert.Equal(t, EncodeGUIDOctetFilter(guid), EncodeGUIDOctetFilter(reparsed))
	}
}
