package facade

import (
	"fmt"

	"kvvault/internal/crypto"
	"kvvault/internal/kvstore"
	"kvvault/internal/rpc"
)

// SecretsStoreName is the well-known store secrets are kept in. Values are
// never stored in plaintext — only the Cipher's token.
const SecretsStoreName = "secrets"

// Secrets is the confidential-value facade (component C10): every value
// passes through a crypto.Cipher before it reaches the engine and is
// decrypted again on the way out, per original_source/plugins/sensitive.py.
// Like that module, each secret may carry an optional creator annotation
// recorded alongside it.
type Secrets struct {
	Engine *kvstore.Engine
	Cipher *crypto.Cipher
}

// NewSecrets returns a Secrets facade. The caller must have created
// SecretsStoreName already.
func NewSecrets(eng *kvstore.Engine, cipher *crypto.Cipher) *Secrets {
	return &Secrets{Engine: eng, Cipher: cipher}
}

// Methods implements rpc.Service.
func (f *Secrets) Methods() map[string]rpc.Method {
	return map[string]rpc.Method{
		"add_confidential_key":    f.addConfidentialKey,
		"edit_confidential_key":   f.editConfidentialKey,
		"delete_confidential_key": f.deleteConfidentialKey,
		"get_confidential_key":    f.getConfidentialKey,
	}
}

func (f *Secrets) addConfidentialKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	plaintext, err := a.String(1, "value")
	if err != nil {
		return nil, err
	}
	readonly := a.Bool(2, "readonly")

	token, err := f.Cipher.Encrypt([]byte(plaintext))
	if err != nil {
		return nil, fmt.Errorf("facade: encrypt secret: %w", err)
	}

	extras := map[string]interface{}{}
	if creator := a.StringOr(3, "created_by", ""); creator != "" {
		extras["created_by"] = creator
	}

	ok, err := f.Engine.AddKey(SecretsStoreName, key, token, a.TTL(4, "ttl"), readonly, extras)
	return ok, err
}

func (f *Secrets) editConfidentialKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}

	patch := kvstore.Patch{TTL: a.TTL(2, "ttl")}
	if plaintext, ok := a.Any(1, "value"); ok {
		s, ok := plaintext.(string)
		if !ok {
			return nil, fmt.Errorf("facade: argument \"value\" must be a string, got %T", plaintext)
		}
		token, err := f.Cipher.Encrypt([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("facade: encrypt secret: %w", err)
		}
		var v interface{} = token
		patch.Value = &v
	}
	if creator := a.StringOr(3, "created_by", ""); creator != "" {
		patch.Extras = map[string]interface{}{"created_by": creator}
	}

	force := a.Bool(4, "force")
	ok, err := f.Engine.EditKey(SecretsStoreName, key, patch, force)
	return ok, err
}

func (f *Secrets) deleteConfidentialKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}
	ok, err := f.Engine.DeleteKey(SecretsStoreName, key)
	return ok, err
}

func (f *Secrets) getConfidentialKey(pos []interface{}, kwargs map[string]interface{}) (interface{}, error) {
	a := NewArgs(pos, kwargs)
	key, err := a.String(0, "key")
	if err != nil {
		return nil, err
	}

	rec, ok := f.Engine.GetRecord(SecretsStoreName, key)
	if !ok {
		return nil, fmt.Errorf("facade: confidential key %q not found", key)
	}
	token, ok := rec.Value.(string)
	if !ok {
		return nil, fmt.Errorf("facade: confidential key %q has a non-string token", key)
	}
	plaintext, err := f.Cipher.Decrypt(token)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{"value": string(plaintext)}
	if creator, ok := rec.Extras["created_by"]; ok {
		out["created_by"] = creator
	}
	return out, nil
}
