package secret

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"golang.org/x/crypto/hkdf"
)

// KeySize is the length in bytes of the persisted master key
const KeySize = 32

const (
	keyInfo   = "modulatify token encryption v1"
	nonceInfo = "modulatify token nonce v1"
)

// ErrCrypto is returned when a stored secret cannot be decrypted. Callers
// should treat it as the secret being absent.
var ErrCrypto = errors.New("undecryptable secret")

// Store encrypts and decrypts short secrets with a key that is generated on
// first use and persisted outside the encrypted payload
type Store struct {
	aead     cipher.AEAD
	nonceKey []byte
}

// Open loads the master key at path, generating and persisting a new one if
// the file does not exist yet
func Open(path string) (*Store, error) {
	key, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		key, err = createKey(path)
	}
	if err != nil {
		return nil, fmt.Errorf("error loading encryption key: %w", err)
	}

	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key %s has %d bytes, want %d", path, len(key), KeySize)
	}

	return New(key)
}

// New creates a store from an in-memory master key
func New(key []byte) (*Store, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("encryption key has %d bytes, want %d", len(key), KeySize)
	}

	derived, err := derive(key, keyInfo)
	if err != nil {
		return nil, err
	}
	nonceKey, err := derive(key, nonceInfo)
	if err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}

	return &Store{aead: aead, nonceKey: nonceKey}, nil
}

func derive(key []byte, info string) ([]byte, error) {
	out := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, key, nil, []byte(info)), out); err != nil {
		return nil, fmt.Errorf("error deriving %q key: %w", info, err)
	}
	return out, nil
}

// Encrypt seals plaintext and returns base64(nonce || ciphertext || tag).
// The nonce is an HMAC of the plaintext, so the same plaintext always seals
// to the same token under one key. The empty string is stored as the empty
// string.
func (s *Store) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	mac := hmac.New(sha256.New, s.nonceKey)
	mac.Write([]byte(plaintext))
	nonce := mac.Sum(nil)[:s.aead.NonceSize()]

	sealed := s.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. Malformed input or input sealed with another key
// fails with an error wrapping ErrCrypto.
func (s *Store) Decrypt(token string) (string, error) {
	if token == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("%w: base64 decode: %v", ErrCrypto, err)
	}

	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize+s.aead.Overhead() {
		return "", fmt.Errorf("%w: ciphertext too short", ErrCrypto)
	}

	nonce, ciphertext := data[:nonceSize], data[nonceSize:]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCrypto, err)
	}

	return string(plaintext), nil
}

func createKey(path string) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("error generating key: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("error creating key directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(key)); err != nil {
		return nil, fmt.Errorf("error writing key file: %w", err)
	}

	return key, nil
}
