package settings

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
)

var errInvalidCiphertext = errors.New("settings: invalid ciphertext")

// Encryptor protects the bind password at rest. Implementations are
// injected into the Store; the rest of the service never sees ciphertext.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Plaintext is a pass-through Encryptor for development setups where no
// encryption key is configured. The stored value is the secret itself.
type Plaintext struct{}

func (Plaintext) Encrypt(plaintext string) (string, error)  { return plaintext, nil }
func (Plaintext) Decrypt(ciphertext string) (string, error) { return ciphertext, nil }

// SecretBox encrypts with NaCl secretbox under a 32-byte key. The random
// nonce is prepended to the sealed value, which is stored base64-encoded.
type SecretBox struct {
	key [32]byte
}

func NewSecretBox(key []byte) (*SecretBox, error) {
	if len(key) != 32 {
		return nil, errors.New("settings: encryption key must be exactly 32 bytes")
	}
	var sb SecretBox
	copy(sb.key[:], key)
	return &sb, nil
}

func (s *SecretBox) Encrypt(plaintext string) (string, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", err
	}
	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (s *SecretBox) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", errInvalidCiphertext
	}
	if len(data) < 24 {
		return "", errInvalidCiphertext
	}
	var nonce [24]byte
	copy(nonce[:], data[:24])
	opened, ok := secretbox.Open(nil, data[24:], &nonce, &s.key)
	if !ok {
		return "", errInvalidCiphertext
	}
	return string(opened), nil
}
