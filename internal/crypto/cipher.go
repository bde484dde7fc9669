// Package crypto encrypts account credentials at rest with AES-256-GCM.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"io"

	"github.com/j-veylop/quonitor/internal/apperr"
	"github.com/j-veylop/quonitor/internal/models"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// Cipher seals and opens credential blobs. Every Encrypt draws a fresh random
// nonce and prepends it to the output, so the stored layout is nonce||ciphertext||tag.
// A Cipher is safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New returns a cipher for the given 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, apperr.Encryption("master key must be %d bytes, got %d", KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEncryption, err, "failed to create block cipher")
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEncryption, err, "failed to create GCM")
	}
	return &Cipher{aead: aead}, nil
}

// Encrypt seals plaintext under a random nonce.
func (c *Cipher) Encrypt(plaintext []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+c.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, apperr.Wrap(apperr.ErrEncryption, err, "failed to generate nonce")
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens data produced by Encrypt. Truncated, tampered or foreign-key
// input fails with an encryption error.
func (c *Cipher) Decrypt(data []byte) ([]byte, error) {
	ns := c.aead.NonceSize()
	if len(data) < ns+c.aead.Overhead() {
		return nil, apperr.Encryption("ciphertext too short (%d bytes)", len(data))
	}
	plaintext, err := c.aead.Open(nil, data[:ns], data[ns:], nil)
	if err != nil {
		return nil, apperr.Encryption("decryption failed: %v", err)
	}
	return plaintext, nil
}

// EncryptCredentials serializes and seals credentials.
func (c *Cipher) EncryptCredentials(creds models.Credentials) ([]byte, error) {
	data, err := models.MarshalCredentials(creds)
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrEncryption, err, "failed to encode credentials")
	}
	return c.Encrypt(data)
}

// DecryptCredentials opens and parses a sealed credential blob.
func (c *Cipher) DecryptCredentials(data []byte) (models.Credentials, error) {
	plaintext, err := c.Decrypt(data)
	if err != nil {
		return models.Credentials{}, err
	}
	creds, err := models.UnmarshalCredentials(plaintext)
	if err != nil {
		return models.Credentials{}, apperr.Wrap(apperr.ErrEncryption, err, "failed to decode credentials")
	}
	return creds, nil
}
