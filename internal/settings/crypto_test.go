package settings

import (
	"bytes"
	"testing"
)

func TestSecretBoxRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{0x42}, 32)
	enc, err := NewSecretBox(key)
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}

	for _, plaintext := range []string{"", "hunter2", "pa$$ word with spaces\n"} {
		cipher, err := enc.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", plaintext, err)
		}
		if cipher == plaintext && plaintext != "" {
			t.Fatalf("ciphertext equals plaintext for %q", plaintext)
		}
		got, err := enc.Decrypt(cipher)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if got != plaintext {
			t.Fatalf("round trip = %q, want %q", got, plaintext)
		}
	}
}

func TestSecretBoxNonDeterministic(t *testing.T) {
	enc, err := NewSecretBox(bytes.Repeat([]byte{0x42}, 32))
	if err != nil {
		t.Fatalf("NewSecretBox: %v", err)
	}
	a, _ := enc.Encrypt("hunter2")
	b, _ := enc.Encrypt("hunter2")
	if a == b {
		t.Fatal("two encryptions produced identical ciphertext")
	}
}

func TestSecretBoxWrongKey(t *testing.T) {
	enc1, _ := NewSecretBox(bytes.Repeat([]byte{0x01}, 32))
	enc2, _ := NewSecretBox(bytes.Repeat([]byte{0x02}, 32))

	cipher, err := enc1.Encrypt("hunter2")
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := enc2.Decrypt(cipher); err == nil {
		t.Fatal("decrypt under wrong key succeeded")
	}
}

func TestSecretBoxMalformedCiphertext(t *testing.T) {
	enc, _ := NewSecretBox(bytes.Repeat([]byte{0x42}, 32))

	for _, cipher := range []string{"", "not base64!!!", "aGVsbG8="} {
		if _, err := enc.Decrypt(cipher); err == nil {
			t.Fatalf("Decrypt(%q) succeeded", cipher)
		}
	}
}

func TestSecretBoxKeyLength(t *testing.T) {
	if _, err := NewSecretBox(make([]byte, 16)); err == nil {
		t.Fatal("16-byte key accepted")
	}
	if _, err := NewSecretBox(nil); err == nil {
		t.Fatal("nil key accepted")
	}
}

func TestPlaintextPassthrough(t *testing.T) {
	var enc Plaintext
	cipher, err := enc.Encrypt("hunter2")
	if err != nil || cipher != "hunter2" {
		t.Fatalf("Encrypt = %q, %v", cipher, err)
	}
	got, err := enc.Decrypt(cipher)
	if err != nil || got != "hunter2" {
		t.Fatalf("Decrypt = %q, %v", got, err)
	}
}
