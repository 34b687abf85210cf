package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"io"
)

var encryptionKey []byte

// SetEncryptionKey sets the global encryption key from CREDENTIALS_ENCRYPTION_KEY.
// Accepts a 64-char hex string (32 bytes) or a raw ASCII string, which is
// padded/truncated to 32 bytes for AES-256.
func SetEncryptionKey(key string) error {
	if decoded, err := hex.DecodeString(key); err == nil && len(decoded) == 32 {
		encryptionKey = decoded
		return nil
	}

	finalKey := make([]byte, 32) // AES-256
	copy(finalKey, []byte(key))
	encryptionKey = finalKey
	return nil
}

// Encrypt encrypts a plain text string using AES-GCM and returns a base64 encoded string.
func Encrypt(plainText string) (string, error) {
	if len(encryptionKey) == 0 {
		return plainText, nil // Encryption not configured, return as is (WARN: insecure)
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt decrypts a base64 encoded string using AES-GCM.
func Decrypt(cipherText string) (string, error) {
	if len(encryptionKey) == 0 {
		return cipherText, nil // No key, assume plain text (could fail if it IS encrypted)
	}

	// If it doesn't look like base64, maybe it's legacy plain text
	data, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return cipherText, nil // Fallback to plain text
	}

	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return cipherText, nil // Too short to be encrypted with nonce
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}
