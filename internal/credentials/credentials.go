package credentials

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"

	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/providers"
	"github.com/TechnesSoluciones/cloud-governance-copilot/internal/utils"
)

const keySize = 32

// Decryptor turns the opaque encrypted credential blob stored on a cloud
// account back into provider secrets. Blobs are base64(nonce || AES-256-GCM
// ciphertext) of a JSON credentials document.
type Decryptor struct {
	aead cipher.AEAD
}

// NewDecryptor builds a Decryptor from a 32-byte key.
func NewDecryptor(key []byte) (*Decryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("credential key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return &Decryptor{aead: aead}, nil
}

// Decrypt unseals a blob into provider credentials. Any tampering or key
// mismatch surfaces as an auth failure so collection runs record it instead
// of retrying.
func (d *Decryptor) Decrypt(blob string) (providers.Credentials, error) {
	const op = "credentials.Decrypt"
	var creds providers.Credentials

	raw, err := base64.StdEncoding.DecodeString(blob)
	if err != nil {
		return creds, utils.NewAppError(op, utils.KindAuth, "credential blob is not valid base64", err)
	}
	nonceSize := d.aead.NonceSize()
	if len(raw) < nonceSize {
		return creds, utils.NewAppError(op, utils.KindAuth, "credential blob too short", nil)
	}
	plaintext, err := d.aead.Open(nil, raw[:nonceSize], raw[nonceSize:], nil)
	if err != nil {
		return creds, utils.NewAppError(op, utils.KindAuth, "credential blob failed authentication", err)
	}
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return creds, utils.NewAppError(op, utils.KindAuth, "credential payload is not valid JSON", err)
	}
	return creds, nil
}

// Encrypt seals credentials into a blob. Used by provisioning tooling and
// tests; the collection path only ever decrypts.
func (d *Decryptor) Encrypt(creds providers.Credentials) (string, error) {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	nonce := make([]byte, d.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := d.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}
