package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"cmms/internal/store"
)

const (
	// KeyPrefix starts every generated key.
	KeyPrefix = "cmms_"
	// prefixLen is how much of a key is stored in clear for lookup.
	prefixLen = len(KeyPrefix) + 8
)

// HashCost is the bcrypt cost used for new keys.
var HashCost = bcrypt.DefaultCost

// GenerateAPIKey returns a new random key: "cmms_" followed by 48 hex digits.
func GenerateAPIKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return KeyPrefix + hex.EncodeToString(b), nil
}

// LookupPrefix is the part of key stored in clear and used to find its hash.
func LookupPrefix(key string) string {
	if len(key) < prefixLen {
		return key
	}
	return key[:prefixLen]
}

func HashAPIKey(key string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(key), HashCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func VerifyAPIKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// CredentialStore is the persistence Validator needs.
type CredentialStore interface {
	APIKeyByPrefix(ctx context.Context, prefix string) (store.APIKeyCredential, error)
	TouchAPIKey(ctx context.Context, id int) error
}

// Validator checks bearer tokens against stored key hashes.
type Validator struct {
	Store CredentialStore
}

// ValidateBearerToken reports whether token is an enabled, known key and
// records its use.
func (v *Validator) ValidateBearerToken(ctx context.Context, token string) bool {
	if !strings.HasPrefix(token, KeyPrefix) || len(token) < prefixLen {
		return false
	}
	cred, err := v.Store.APIKeyByPrefix(ctx, LookupPrefix(token))
	if err != nil || !cred.Enabled {
		return false
	}
	if !VerifyAPIKey(cred.Hash, token) {
		return false
	}
	if err := v.Store.TouchAPIKey(ctx, cred.ID); err != nil {
		log.WithError(err).WithField("key_id", cred.ID).Warn("auth: record last use")
	}
	return true
}
