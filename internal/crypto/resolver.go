package crypto

import (
	"crypto/sha256"
	"fmt"
	"os"

	"golang.org/x/crypto/hkdf"
)

// hkdfSalt is a fixed, non-secret salt for PassphraseKeyResolver. HKDF's
// salt need not be secret — it exists to domain-separate derivations, which
// a single, file-documented constant already achieves for this single use.
var hkdfSalt = []byte("kvvault-secrets-hkdf-salt-v1")

// KeyResolver resolves the 32-byte symmetric key used by the secrets
// facade's Cipher. Spec §4.7/§6 calls this "intentionally abstract" —
// production deployments inject a key-management client; these two
// implementations cover the env-var and passphrase cases.
type KeyResolver interface {
	ResolveKey() ([]byte, error)
}

// EnvKeyResolver reads a URL-safe base64-encoded 32-byte key directly from
// an environment variable — the default, and the one test suites use with
// a fixed value per spec §6.
type EnvKeyResolver struct {
	Var string
}

// ResolveKey decodes the key from the environment variable named by Var.
func (r EnvKeyResolver) ResolveKey() ([]byte, error) {
	raw := os.Getenv(r.Var)
	if raw == "" {
		return nil, fmt.Errorf("crypto: environment variable %s is not set", r.Var)
	}
	return ParseKey(raw)
}

// PassphraseKeyResolver derives the 32-byte key from an operator-supplied
// passphrase via HKDF-SHA256, for deployments that would rather manage a
// memorable passphrase than a generated key file.
type PassphraseKeyResolver struct {
	Var string
}

// ResolveKey derives 32 bytes from the passphrase in the environment
// variable named by Var.
func (r PassphraseKeyResolver) ResolveKey() ([]byte, error) {
	passphrase := os.Getenv(r.Var)
	if passphrase == "" {
		return nil, fmt.Errorf("crypto: environment variable %s is not set", r.Var)
	}

	kdf := hkdf.New(sha256.New, []byte(passphrase), hkdfSalt, []byte("kvvault-secrets-key"))
	key := make([]byte, keySize)
	if _, err := kdf.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: derive key: %w", err)
	}
	return key, nil
}
