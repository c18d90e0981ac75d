// Package secrets provides reversible encryption of stored API keys and
// display masking. The encryption key is resolved once per process: an
// explicitly configured key wins, otherwise a previously persisted key file
// is read, otherwise a fresh key is generated and written to the key file.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// ErrDecrypt is returned when a ciphertext cannot be decrypted, either
// because it is corrupted or was produced with a different key.
var ErrDecrypt = errors.New("secrets: decryption failed")

// keySize is the AES-256 key length in bytes.
const keySize = 32

// Codec encrypts, decrypts and masks API keys with a single symmetric key.
type Codec struct {
	configuredKey string
	keyFile       string

	once sync.Once
	aead cipher.AEAD
	err  error
}

// NewCodec returns a Codec that resolves its key lazily on first use.
// configuredKey, when non-empty, is a base64-encoded 32-byte key and takes
// precedence over the key file. keyFile is the path the key is read from or
// persisted to when generated.
func NewCodec(configuredKey, keyFile string) *Codec {
	return &Codec{configuredKey: configuredKey, keyFile: keyFile}
}

// Resolve forces key resolution. Call it at startup so a missing or
// unwritable key file fails the process before any request is served.
func (c *Codec) Resolve() error {
	_, err := c.cipher()
	return err
}

// cipher resolves the key material exactly once and builds the AEAD.
// Concurrent first callers all observe the same key.
func (c *Codec) cipher() (cipher.AEAD, error) {
	c.once.Do(func() {
		key, err := c.resolveKey()
		if err != nil {
			c.err = err
			return
		}
		block, err := aes.NewCipher(key)
		if err != nil {
			c.err = fmt.Errorf("create cipher: %w", err)
			return
		}
		aead, err := cipher.NewGCM(block)
		if err != nil {
			c.err = fmt.Errorf("create AEAD: %w", err)
			return
		}
		c.aead = aead
	})
	return c.aead, c.err
}

// resolveKey returns the raw key bytes, generating and persisting a new key
// when neither a configured key nor a key file is present.
func (c *Codec) resolveKey() ([]byte, error) {
	if c.configuredKey != "" {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(c.configuredKey))
		if err != nil {
			return nil, fmt.Errorf("decode configured key: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("configured key is %d bytes, want %d", len(key), keySize)
		}
		return key, nil
	}

	if data, err := os.ReadFile(c.keyFile); err == nil {
		key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("decode key file %s: %w", c.keyFile, err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("key file %s holds %d bytes, want %d", c.keyFile, len(key), keySize)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read key file %s: %w", c.keyFile, err)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(c.keyFile, []byte(encoded), 0o600); err != nil {
		return nil, fmt.Errorf("persist key file %s: %w", c.keyFile, err)
	}
	return key, nil
}

// Encrypt seals plaintext into a base64 token of nonce || ciphertext.
// An empty plaintext is returned as-is so absent keys stay absent.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	aead, err := c.cipher()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. An empty ciphertext yields an empty plaintext.
// Corrupted tokens or tokens sealed with a different key fail with ErrDecrypt.
func (c *Codec) Decrypt(ciphertext string) (string, error) {
	if ciphertext == "" {
		return "", nil
	}
	aead, err := c.cipher()
	if err != nil {
		return "", err
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < aead.NonceSize() {
		return "", fmt.Errorf("%w: token too short", ErrDecrypt)
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return string(plain), nil
}

// Mask returns a partially redacted form of an API key for display,
// e.g. "sk-****1234". Keys shorter than 8 characters collapse to "****".
func Mask(plaintext string) string {
	if len(plaintext) < 8 {
		return "****"
	}
	return plaintext[:3] + "****" + plaintext[len(plaintext)-4:]
}
