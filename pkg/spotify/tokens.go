package spotify

import (
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/rhysemmas/modulatify/pkg/settings"
)

// Cipher seals secrets before they reach the settings file
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(token string) (string, error)
}

// TokenStore reads and writes the credential through the settings store,
// encrypting both tokens at rest
type TokenStore struct {
	kv     settings.KV
	cipher Cipher
	logger *zap.SugaredLogger
}

// NewTokenStore creates a new token store
func NewTokenStore(kv settings.KV, cipher Cipher, logger *zap.SugaredLogger) *TokenStore {
	return &TokenStore{
		kv:     kv,
		cipher: cipher,
		logger: logger,
	}
}

// Load returns the stored credential. Tokens that cannot be decrypted are
// returned empty.
func (t *TokenStore) Load() Credential {
	return Credential{
		AccessToken:  t.secret(accessTokenKey),
		RefreshToken: t.secret(refreshTokenKey),
		ExpiresAt:    t.expiresAt(),
	}
}

// Save encrypts and persists the credential
func (t *TokenStore) Save(c Credential) error {
	access, err := t.cipher.Encrypt(c.AccessToken)
	if err != nil {
		return fmt.Errorf("error encrypting access token: %w", err)
	}
	refresh, err := t.cipher.Encrypt(c.RefreshToken)
	if err != nil {
		return fmt.Errorf("error encrypting refresh token: %w", err)
	}

	var expiresAt int64
	if !c.ExpiresAt.IsZero() {
		expiresAt = c.ExpiresAt.UnixMilli()
	}

	t.kv.Set(accessTokenKey, access)
	t.kv.Set(refreshTokenKey, refresh)
	t.kv.Set(expiresAtKey, strconv.FormatInt(expiresAt, 10))

	return t.kv.Persist()
}

func (t *TokenStore) secret(key string) string {
	sealed, _ := t.kv.Get(key)
	plaintext, err := t.cipher.Decrypt(sealed)
	if err != nil {
		t.logger.Warnw("stored token could not be decrypted, treating as absent", "key", key, "error", err)
		return ""
	}
	return plaintext
}

func (t *TokenStore) expiresAt() time.Time {
	raw, _ := t.kv.Get(expiresAtKey)
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
